package models

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/munger/pkg/errors"
)

// Stage is an optional phase of the pipeline. Stages always run in declaration order.
type Stage int

const (
	StageFilter Stage = iota
	StageCoerce
	StageValidate
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageFilter, StageCoerce, StageValidate}

func (s Stage) String() string {
	switch s {
	case StageFilter:
		return "filter"
	case StageCoerce:
		return "coerce"
	case StageValidate:
		return "validate"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) Valid() bool {
	return s >= StageFilter && s <= StageValidate
}

// FailureOutcome returns the outcome fired when this stage rejects a document.
func (s Stage) FailureOutcome() Outcome {
	switch s {
	case StageFilter:
		return OutcomeFailedFilter
	case StageCoerce:
		return OutcomeFailedCoercion
	default:
		return OutcomeFailedValidation
	}
}

func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "filter":
		return StageFilter, nil
	case "coerce", "coercion":
		return StageCoerce, nil
	case "validate", "validation":
		return StageValidate, nil
	}
	return 0, errors.NewConfigErrorf("models.ParseStage", errors.ErrInvalidStage, "%q", s)
}

// Outcome is the terminal classification of one document's run.
type Outcome int

const (
	OutcomeFailedFilter Outcome = iota
	OutcomeFailedCoercion
	OutcomeFailedValidation
	OutcomeCompleted
)

// Outcomes lists every outcome.
var Outcomes = []Outcome{OutcomeFailedFilter, OutcomeFailedCoercion, OutcomeFailedValidation, OutcomeCompleted}

func (o Outcome) String() string {
	switch o {
	case OutcomeFailedFilter:
		return "failed_filter"
	case OutcomeFailedCoercion:
		return "failed_coercion"
	case OutcomeFailedValidation:
		return "failed_validation"
	case OutcomeCompleted:
		return "completed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

func (o Outcome) Valid() bool {
	return o >= OutcomeFailedFilter && o <= OutcomeCompleted
}

// IsFailure reports whether the outcome is one of the failed-stage outcomes.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailedFilter || o == OutcomeFailedCoercion || o == OutcomeFailedValidation
}

// ParseOutcome accepts the outcome names; "end" and "valid" are aliases for completed.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "failed_filter":
		return OutcomeFailedFilter, nil
	case "failed_coercion":
		return OutcomeFailedCoercion, nil
	case "failed_validation":
		return OutcomeFailedValidation, nil
	case "completed", "end", "valid":
		return OutcomeCompleted, nil
	}
	return 0, errors.NewConfigErrorf("models.ParseOutcome", errors.ErrInvalidOutcome, "%q", s)
}

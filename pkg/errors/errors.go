package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Configuration sentinels. ConfigError wraps one of these so callers can use errors.Is.
var (
	ErrNoStages         = stderrors.New("at least one stage must be bound before munging")
	ErrSourceNotSet     = stderrors.New("source data must be set before registering a writer")
	ErrDestination      = stderrors.New("exactly one of filename or suffix must be given")
	ErrInvalidDirective = stderrors.New("invalid field mapping directive")
	ErrUnknownRule      = stderrors.New("unknown rule")
	ErrInvalidRule      = stderrors.New("invalid rule value")
	ErrUnknownCheck     = stderrors.New("check not found")
	ErrUnknownCoercion  = stderrors.New("coercion not found")
	ErrUnknownCondition = stderrors.New("condition not found")
	ErrAlreadyRunning   = stderrors.New("pipeline has already started processing")
	ErrClosed           = stderrors.New("resource is closed")
	ErrInvalidStage     = stderrors.New("unrecognized stage")
	ErrInvalidOutcome   = stderrors.New("unrecognized outcome")
	ErrInvalidJob       = stderrors.New("invalid job definition")
)

// ConfigError is a fatal setup error raised at the offending call.
type ConfigError struct {
	Op      string
	Field   string
	Message string
	Err     error
}

func NewConfigError(op string, err error) *ConfigError {
	return &ConfigError{
		Op:  op,
		Err: err,
	}
}

// NewConfigErrorf creates a ConfigError wrapping err with a formatted message
func NewConfigErrorf(op string, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *ConfigError) Error() string {
	path := []string{}
	if e.Op != "" {
		path = append(path, e.Op)
	}
	if e.Field != "" {
		path = append(path, fmt.Sprintf("field '%s'", e.Field))
	}

	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case msg != "" && e.Err != nil:
		msg = e.Err.Error() + ": " + msg
	}

	if len(path) == 0 {
		return msg
	}

	return strings.Join(path, " -> ") + ": " + msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) AddField(field string) *ConfigError {
	e.Field = field
	return e
}

func (e *ConfigError) AddOp(op string) *ConfigError {
	e.Op = op
	return e
}

func IsConfigError(err error) bool {
	var configErr *ConfigError
	return stderrors.As(err, &configErr)
}

// WrapConfigError returns err as a ConfigError, keeping an existing one intact.
func WrapConfigError(op string, err error) *ConfigError {
	if err == nil {
		return nil
	}

	var configErr *ConfigError
	if stderrors.As(err, &configErr) {
		return configErr
	}

	return NewConfigError(op, err)
}

package pipeline

import (
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/writer"
)

// Config holds the engine settings that do not come from registrations.
type Config struct {
	// ErrorsFieldName is the header of the error column for writers that include errors
	ErrorsFieldName string

	// SuffixSeparator joins the source file stem and a writer suffix
	SuffixSeparator string

	// UseLF terminates output rows with \n. Rows end with \r\n otherwise.
	UseLF bool

	// ProgressInterval logs progress every N rows. Zero disables progress logs.
	ProgressInterval int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		ErrorsFieldName:  writer.DefaultErrorsFieldName,
		SuffixSeparator:  "-",
		ProgressInterval: 10000,
	}
}

// WriterOptions describes one writer registration. Exactly one of Filename or Suffix is required.
type WriterOptions struct {
	Outcome  models.Outcome
	Filename string `validate:"required_without=Suffix,excluded_with=Suffix"`
	Suffix   string `validate:"required_without=Filename,excluded_with=Filename"`

	Condition     writer.Condition
	IncludeErrors bool
	Fieldnames    []string
}

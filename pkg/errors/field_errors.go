package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// FieldError is a single constraint violation recorded against a document field.
type FieldError struct {
	Field   string
	Rule    string
	Message string
	Cause   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error {
	return e.Cause
}

// FieldErrors is the structured rejection detail for one document.
type FieldErrors []FieldError

// Error summarizes the first few violations.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(fe), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe[i].Error())
	}
	if len(fe) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(fe))
	}
	return b.String()
}

// ByField indexes messages by field name.
func (fe FieldErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(fe))
	for _, e := range fe {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// Fields returns the offending field names in first-seen order.
func (fe FieldErrors) Fields() []string {
	seen := make(map[string]bool, len(fe))
	fields := make([]string, 0, len(fe))
	for _, e := range fe {
		if seen[e.Field] {
			continue
		}
		seen[e.Field] = true
		fields = append(fields, e.Field)
	}
	return fields
}

func (fe FieldErrors) For(field string) FieldErrors {
	var out FieldErrors
	for _, e := range fe {
		if e.Field == field {
			out = append(out, e)
		}
	}
	return out
}

func (fe FieldErrors) HasField(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the errors as {"field": ["message", ...]}.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	return json.Marshal(fe.ByField())
}

// String renders the JSON form used for error annotation columns.
func (fe FieldErrors) String() string {
	if len(fe) == 0 {
		return ""
	}
	b, err := fe.MarshalJSON()
	if err != nil {
		return fe.Error()
	}
	return string(b)
}

// AsFieldErrors extracts FieldErrors from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	if err == nil {
		return nil, false
	}
	var fe FieldErrors
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

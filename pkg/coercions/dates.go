package coercions

import (
	"fmt"
	"time"

	"github.com/Ramsey-B/munger/pkg/utils"
)

type DateFormatArguments struct {
	Format      string `json:"format" validate:"required"`        // Output format
	InputFormat string `json:"input_format" validate:"omitempty"` // Expected input format; lenient parsing when empty
}

// NewDateFormat re-renders a date string in the output format.
func NewDateFormat(_ string, args any) (Coercion, error) {
	var parsed DateFormatArguments
	if s, ok := args.(string); ok {
		parsed.Format = s
	} else {
		var err error
		if parsed, err = utils.ValidateArguments[DateFormatArguments](args); err != nil {
			return nil, err
		}
	}
	if parsed.Format == "" {
		return nil, fmt.Errorf("format is required")
	}

	return func(value any) (any, error) {
		t, err := toTime(value, parsed.InputFormat)
		if err != nil {
			return value, err
		}
		return utils.FormatTime(parsed.Format, t), nil
	}, nil
}

type ToDatetimeArguments struct {
	Format string `json:"format" validate:"omitempty"`
}

// NewToDatetime parses a date string into a time.Time.
func NewToDatetime(_ string, args any) (Coercion, error) {
	var parsed ToDatetimeArguments
	if s, ok := args.(string); ok {
		parsed.Format = s
	} else if args != nil {
		var err error
		if parsed, err = utils.ValidateArguments[ToDatetimeArguments](args); err != nil {
			return nil, err
		}
	}

	return func(value any) (any, error) {
		t, err := toTime(value, parsed.Format)
		if err != nil {
			return value, err
		}
		return t, nil
	}, nil
}

func toTime(value any, format string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		if format != "" {
			return utils.ParseTime(format, v)
		}
		return utils.ParseLenient(v)
	}
	return time.Time{}, fmt.Errorf("expected date string, got %T", value)
}

package checks

import (
	"fmt"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/munger/pkg/utils"
)

var dataMapperDateLayouts = []string{
	"20060102",
	"1/2/2006",
	"1/2/06",
	"2 January 2006",
	"2 January 06",
	"2 Jan 06",
}

var dataMapperTimeLayouts = []string{
	"15:04 PM",
	"15:04:05 PM",
	"15:04",
	"15:04:05",
	"150405",
}

func matchesAny(layouts []string, value string) bool {
	match := ectolinq.Find(layouts, func(layout string) bool {
		_, err := time.Parse(layout, value)
		return err == nil
	})
	return match != ""
}

var DataMapperDate = stringCheck(func(s string) error {
	if !matchesAny(dataMapperDateLayouts, s) {
		return fmt.Errorf("Must use one of the accepted DataMapper date formats")
	}
	return nil
})

var DataMapperTime = stringCheck(func(s string) error {
	if !matchesAny(dataMapperTimeLayouts, s) {
		return fmt.Errorf("Must use one of the accepted DataMapper time formats")
	}
	return nil
})

type DateFormatArguments struct {
	Format string `json:"format" validate:"required"`
}

// NewDateFormat requires the value to parse with the given layout (Go layout, alias or strftime pattern).
func NewDateFormat(_ string, args any) (Check, error) {
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

	return stringCheck(func(s string) error {
		if _, err := utils.ParseTime(parsed.Format, s); err != nil {
			return fmt.Errorf("Date must be in %s format", parsed.Format)
		}
		return nil
	}), nil
}

package coercions

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/munger/pkg/utils"
)

var Upper = stringCoercion(func(s string) (string, error) {
	return strings.ToUpper(s), nil
})

var Lower = stringCoercion(func(s string) (string, error) {
	return strings.ToLower(s), nil
})

var Trim = stringCoercion(func(s string) (string, error) {
	return strings.TrimSpace(s), nil
})

type TruncateArguments struct {
	MaxLength int `json:"max_length" validate:"required,gt=0"`
}

// NewTruncate cuts values to max_length characters. A bare integer argument is the length.
func NewTruncate(_ string, args any) (Coercion, error) {
	var parsed TruncateArguments
	if n, err := utils.ToInt(args); err == nil && args != nil {
		parsed.MaxLength = n
	} else if parsed, err = utils.ValidateArguments[TruncateArguments](args); err != nil {
		return nil, err
	}
	if parsed.MaxLength <= 0 {
		return nil, fmt.Errorf("max_length must be positive")
	}

	return stringCoercion(func(s string) (string, error) {
		runes := []rune(s)
		if len(runes) <= parsed.MaxLength {
			return s, nil
		}
		return string(runes[:parsed.MaxLength]), nil
	}), nil
}

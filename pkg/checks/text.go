package checks

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/munger/pkg/utils"
)

// ASCII rejects values containing any non-ASCII character.
var ASCII = stringCheck(func(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return fmt.Errorf("Contains non-ASCII character(s)")
		}
	}
	return nil
})

var Upper = stringCheck(func(s string) error {
	if strings.ToUpper(s) != s {
		return fmt.Errorf("Should be uppercase")
	}
	return nil
})

// Numeric accepts ASCII digits only. Digits from other scripts are rejected.
var Numeric = stringCheck(func(s string) error {
	if s == "" {
		return fmt.Errorf("Should be only numbers")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("Should be only numbers")
		}
	}
	return nil
})

var NoCRLF = stringCheck(func(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("Cannot contain CR or LF characters")
	}
	return nil
})

// UDSPath requires backslash delimiters with a leading and trailing backslash.
var UDSPath = stringCheck(func(s string) error {
	if strings.Contains(s, "/") || !strings.HasPrefix(s, `\`) || !strings.HasSuffix(s, `\`) {
		return fmt.Errorf("Must use UDS path standard")
	}
	return nil
})

type NoCharArguments struct {
	Char string `json:"char" validate:"required"`
}

// NewNoChar rejects values containing the configured character. A bare string argument is the character.
func NewNoChar(_ string, args any) (Check, error) {
	var parsed NoCharArguments
	if s, ok := args.(string); ok {
		parsed.Char = s
	} else {
		var err error
		if parsed, err = utils.ValidateArguments[NoCharArguments](args); err != nil {
			return nil, err
		}
	}
	if parsed.Char == "" {
		return nil, fmt.Errorf("char is required")
	}

	return stringCheck(func(s string) error {
		if strings.Contains(s, parsed.Char) {
			return fmt.Errorf("%s not allowed", parsed.Char)
		}
		return nil
	}), nil
}

package coercions

import (
	"strings"

	"github.com/Ramsey-B/munger/pkg/utils"
	"github.com/spf13/cast"
)

func ToInt(value any) (any, error) {
	n, err := utils.ToInt(value)
	if err != nil {
		return value, err
	}
	return n, nil
}

func ToFloat(value any) (any, error) {
	in := value
	if s, ok := value.(string); ok {
		in = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(in)
	if err != nil {
		return value, err
	}
	return f, nil
}

func ToBool(value any) (any, error) {
	b, err := utils.ToBool(value)
	if err != nil {
		return value, err
	}
	return b, nil
}

package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

func AnyToType[T any](input any) (T, error) {
	var zero T
	if input == nil {
		return zero, nil
	}

	if result, ok := input.(T); ok {
		return result, nil
	}

	targetType := reflect.TypeOf(zero)
	if targetType == nil {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
	}

	inputValue := reflect.ValueOf(input)

	if targetType == reflect.TypeOf([]any{}) && inputValue.Kind() == reflect.Slice {
		result := make([]any, inputValue.Len())
		for i := 0; i < inputValue.Len(); i++ {
			result[i] = inputValue.Index(i).Interface()
		}
		if converted, ok := any(result).(T); ok {
			return converted, nil
		}
	}

	// numeric conversions only, int -> string would produce a rune
	if isNumericKind(inputValue.Kind()) && isNumericKind(targetType.Kind()) && inputValue.Type().ConvertibleTo(targetType) {
		converted := inputValue.Convert(targetType)
		if result, ok := converted.Interface().(T); ok {
			return result, nil
		}
	}

	return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func IsInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func IsFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// ToInt converts numbers and numeric strings to int.
func ToInt(v any) (int, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.Atoi(s); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid literal for int: %q", t)
		}
		return int(f), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case float32, float64:
		f, _ := AnyToType[float64](t)
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v has a fractional part", t)
		}
		return int(f), nil
	}
	return AnyToType[int](v)
}

// ToFloat converts numbers and numeric strings to float64.
func ToFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %q", s)
		}
		return f, nil
	}
	return AnyToType[float64](v)
}

// ToBool accepts common textual truth values.
func ToBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "t", "true", "y", "yes", "on":
			return true, nil
		case "0", "f", "false", "n", "no", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean value %q", t)
	}
	if IsInteger(v) || IsFloat(v) {
		f, err := AnyToType[float64](v)
		return f != 0, err
	}
	return false, fmt.Errorf("type mismatch: expected bool, got %T", v)
}

// ToStringSlice accepts a single string or a list of strings.
func ToStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []string:
		return append([]string(nil), t...), true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

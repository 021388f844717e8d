// Package coercions holds the named value transforms that schemas reference through coerce.
package coercions

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/munger/pkg/errors"
)

// Coercion transforms a field value. An error leaves the value unchanged and fails normalization.
type Coercion func(value any) (any, error)

// Factory builds a Coercion from the arguments given in the schema.
type Factory func(name string, args any) (Coercion, error)

var registry = map[string]Factory{}

func init() {
	RegisterFunc("upper", Upper)
	RegisterFunc("lower", Lower)
	RegisterFunc("trim", Trim)
	RegisterFunc("strip", Trim)
	Register("truncate", NewTruncate)

	Register("date_format", NewDateFormat)

	Register("relative_to", NewRelativeTo)
	RegisterFunc("parent_folder", ParentFolder)
	RegisterFunc("filename", Filename)
	Register("insert_base_folder", NewInsertBaseFolder)
	RegisterFunc("file_ext", FileExt)
	RegisterFunc("uds_path", UDSPath)

	RegisterFunc("to_int", ToInt)
	RegisterFunc("to_float", ToFloat)
	RegisterFunc("to_bool", ToBool)
	Register("to_datetime", NewToDatetime)
}

// Register adds a coercion factory. It is meant to be called from init and is not safe for concurrent use.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// RegisterFunc registers a coercion that takes no arguments.
func RegisterFunc(name string, coercion Coercion) {
	registry[name] = func(string, any) (Coercion, error) {
		return coercion, nil
	}
}

// Get resolves a named coercion with its arguments.
func Get(name string, args any) (Coercion, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.NewConfigErrorf("coercions.Get", errors.ErrUnknownCoercion, "%q", name)
	}
	coercion, err := factory(name, args)
	if err != nil {
		return nil, errors.NewConfigErrorf("coercions.Get", errors.ErrInvalidRule, "coercion '%s': %s", name, err.Error())
	}
	return coercion, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain applies coercions in order, stopping at the first error.
func Chain(coercions ...Coercion) Coercion {
	return func(value any) (any, error) {
		var err error
		for _, c := range coercions {
			if value, err = c(value); err != nil {
				return value, err
			}
		}
		return value, nil
	}
}

func stringCoercion(fn func(string) (string, error)) Coercion {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return value, fmt.Errorf("expected string, got %T", value)
		}
		out, err := fn(s)
		if err != nil {
			return value, err
		}
		return out, nil
	}
}

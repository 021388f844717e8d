// Package checks holds the named check predicates that schemas reference through check_with.
package checks

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/munger/pkg/errors"
)

// Check inspects a field value and returns an error describing the violation, or nil.
type Check func(value any) error

// Factory builds a Check from the arguments given in the schema.
type Factory func(name string, args any) (Check, error)

var registry = map[string]Factory{}

func init() {
	RegisterFunc("ascii", ASCII)
	RegisterFunc("upper", Upper)
	RegisterFunc("uds_path", UDSPath)
	RegisterFunc("numeric", Numeric)
	RegisterFunc("datamapper_date", DataMapperDate)
	RegisterFunc("datamapper_time", DataMapperTime)
	RegisterFunc("no_cr_lf", NoCRLF)
	Register("no_char", NewNoChar)
	Register("date_format", NewDateFormat)
}

// Register adds a check factory. It is meant to be called from init and is not safe for concurrent use.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// RegisterFunc registers a check that takes no arguments.
func RegisterFunc(name string, check Check) {
	registry[name] = func(string, any) (Check, error) {
		return check, nil
	}
}

// Get resolves a named check with its arguments.
func Get(name string, args any) (Check, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, errors.NewConfigErrorf("checks.Get", errors.ErrUnknownCheck, "%q", name)
	}
	check, err := factory(name, args)
	if err != nil {
		return nil, errors.NewConfigErrorf("checks.Get", errors.ErrInvalidRule, "check '%s': %s", name, err.Error())
	}
	return check, nil
}

// Names lists the registered checks in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// stringCheck adapts a string predicate; non-string values are rejected.
func stringCheck(fn func(string) error) Check {
	return func(value any) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be of string type")
		}
		return fn(s)
	}
}

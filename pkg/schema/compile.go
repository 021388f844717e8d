package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/munger/pkg/checks"
	"github.com/Ramsey-B/munger/pkg/coercions"
	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/utils"
)

// Rule names understood by the validator.
const (
	RuleRequired          = "required"
	RuleNullable          = "nullable"
	RuleEmpty             = "empty"
	RuleType              = "type"
	RuleAllowed           = "allowed"
	RuleForbidden         = "forbidden"
	RuleMinLength         = "minlength"
	RuleMaxLength         = "maxlength"
	RuleRegex             = "regex"
	RuleCombinedMaxLength = "combined_maxlength"
	RuleCheckWith         = "check_with"
	RuleCoerce            = "coerce"
	RuleDefault           = "default"

	// Field mapping directives, consumed by the processor before compilation.
	DirectiveRename = "rename"
	DirectiveMapTo  = "map_to"
)

var knownTypes = []string{"string", "integer", "float", "number", "boolean", "datetime", "date", "list", "dict"}

// CombinedMaxLength limits the summed length of this field and a partner field.
type CombinedMaxLength struct {
	Field string
	Max   int
}

type namedCheck struct {
	name  string
	check checks.Check
}

type namedCoercion struct {
	name     string
	coercion coercions.Coercion
}

// run calls the check, turning a panic into a rejection.
func (c namedCheck) run(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(c.name, r)
		}
	}()
	return c.check(value)
}

// run calls the coercion, turning a panic into a coercion failure.
func (c namedCoercion) run(value any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = value, recovered(c.name, r)
		}
	}()
	return c.coercion(value)
}

func recovered(name string, r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%s panicked: %w", name, err)
	}
	return fmt.Errorf("%s panicked: %v", name, r)
}

type compiledField struct {
	name       string
	required   bool
	nullable   bool
	hasEmpty   bool
	empty      bool
	types      []string
	allowed    []any
	forbidden  []any
	minLength  *int
	maxLength  *int
	regex      *regexp.Regexp
	regexSrc   string
	combined   *CombinedMaxLength
	checks     []namedCheck
	coercions  []namedCoercion
	hasDefault bool
	def        any
}

func compileField(name string, rules Rules) (compiledField, error) {
	cf := compiledField{name: name}

	// sorted for deterministic error reporting
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rule := range keys {
		value := rules[rule]
		var err error
		switch rule {
		case RuleRequired:
			cf.required, err = boolRule(value)
		case RuleNullable:
			cf.nullable, err = boolRule(value)
		case RuleEmpty:
			cf.hasEmpty = true
			cf.empty, err = boolRule(value)
		case RuleType:
			cf.types, err = typeRule(value)
		case RuleAllowed:
			cf.allowed, err = listRule(value)
		case RuleForbidden:
			cf.forbidden, err = listRule(value)
		case RuleMinLength:
			cf.minLength, err = lengthRule(value)
		case RuleMaxLength:
			cf.maxLength, err = lengthRule(value)
		case RuleRegex:
			cf.regex, cf.regexSrc, err = regexRule(value)
		case RuleCombinedMaxLength:
			cf.combined, err = combinedRule(value)
		case RuleCheckWith:
			cf.checks, err = checkRule(value)
		case RuleCoerce:
			cf.coercions, err = coerceRule(value)
		case RuleDefault:
			cf.hasDefault = true
			cf.def = value
		case DirectiveRename, DirectiveMapTo:
			return cf, errors.NewConfigErrorf("schema.Compile", errors.ErrUnknownRule, "'%s' is a field mapping directive and requires a processor", rule).AddField(name)
		default:
			return cf, errors.NewConfigErrorf("schema.Compile", errors.ErrUnknownRule, "'%s'", rule).AddField(name)
		}
		if err != nil {
			return cf, errors.WrapConfigError("schema.Compile", err).AddField(name)
		}
	}

	return cf, nil
}

func invalid(rule string, format string, args ...any) error {
	return errors.NewConfigErrorf("schema.Compile", errors.ErrInvalidRule, "%s: %s", rule, fmt.Sprintf(format, args...))
}

func boolRule(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, invalid("bool rule", "expected bool, got %T", value)
	}
	return b, nil
}

func typeRule(value any) ([]string, error) {
	names, ok := utils.ToStringSlice(value)
	if !ok || len(names) == 0 {
		return nil, invalid(RuleType, "expected a type name or list of type names, got %v", value)
	}
	for _, n := range names {
		if !ectolinq.Contains(knownTypes, n) {
			return nil, invalid(RuleType, "unknown type '%s'", n)
		}
	}
	return names, nil
}

func listRule(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case []string:
		return ectolinq.Map(v, func(s string) any { return s }), nil
	}
	return nil, invalid("list rule", "expected a list, got %T", value)
}

func lengthRule(value any) (*int, error) {
	if !utils.IsInteger(value) {
		return nil, invalid("length rule", "expected an integer, got %T", value)
	}
	n, err := utils.AnyToType[int](value)
	if err != nil || n < 0 {
		return nil, invalid("length rule", "expected a non-negative integer, got %v", value)
	}
	return &n, nil
}

func regexRule(value any) (*regexp.Regexp, string, error) {
	src, ok := value.(string)
	if !ok {
		return nil, "", invalid(RuleRegex, "expected a string, got %T", value)
	}
	re, err := regexp.Compile(`^(?:` + src + `)$`)
	if err != nil {
		return nil, "", invalid(RuleRegex, "%s", err.Error())
	}
	return re, src, nil
}

func combinedRule(value any) (*CombinedMaxLength, error) {
	switch v := value.(type) {
	case CombinedMaxLength:
		return &v, nil
	case *CombinedMaxLength:
		return v, nil
	case []any:
		if len(v) == 2 {
			field, ok := v[0].(string)
			if ok && utils.IsInteger(v[1]) {
				n, _ := utils.AnyToType[int](v[1])
				return &CombinedMaxLength{Field: field, Max: n}, nil
			}
		}
	}
	return nil, invalid(RuleCombinedMaxLength, "expected [field, max], got %v", value)
}

// CheckFunc and CoerceFunc let Go callers embed functions directly in Rules.
type CheckFunc = checks.Check
type CoerceFunc = coercions.Coercion

func checkRule(value any) ([]namedCheck, error) {
	switch v := value.(type) {
	case checks.Check:
		return []namedCheck{{name: RuleCheckWith, check: v}}, nil
	case func(any) error:
		return []namedCheck{{name: RuleCheckWith, check: v}}, nil
	case []checks.Check:
		return ectolinq.Map(v, func(c checks.Check) namedCheck { return namedCheck{name: RuleCheckWith, check: c} }), nil
	case string, map[string]any:
		name, args, err := namedRef(RuleCheckWith, v)
		if err != nil {
			return nil, err
		}
		check, err := checks.Get(name, args)
		if err != nil {
			return nil, err
		}
		return []namedCheck{{name: name, check: check}}, nil
	case []any:
		out := make([]namedCheck, 0, len(v))
		for _, item := range v {
			resolved, err := checkRule(item)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved...)
		}
		return out, nil
	case []string:
		return checkRule(ectolinq.Map(v, func(s string) any { return s }))
	}
	return nil, invalid(RuleCheckWith, "unsupported value %T", value)
}

func coerceRule(value any) ([]namedCoercion, error) {
	switch v := value.(type) {
	case coercions.Coercion:
		return []namedCoercion{{name: RuleCoerce, coercion: v}}, nil
	case func(any) (any, error):
		return []namedCoercion{{name: RuleCoerce, coercion: v}}, nil
	case func(string) string:
		return []namedCoercion{{name: RuleCoerce, coercion: func(in any) (any, error) {
			s, ok := in.(string)
			if !ok {
				return in, fmt.Errorf("expected string, got %T", in)
			}
			return v(s), nil
		}}}, nil
	case []coercions.Coercion:
		return ectolinq.Map(v, func(c coercions.Coercion) namedCoercion { return namedCoercion{name: RuleCoerce, coercion: c} }), nil
	case string, map[string]any:
		name, args, err := namedRef(RuleCoerce, v)
		if err != nil {
			return nil, err
		}
		coercion, err := coercions.Get(name, args)
		if err != nil {
			return nil, err
		}
		return []namedCoercion{{name: name, coercion: coercion}}, nil
	case []any:
		out := make([]namedCoercion, 0, len(v))
		for _, item := range v {
			resolved, err := coerceRule(item)
			if err != nil {
				return nil, err
			}
			out = append(out, resolved...)
		}
		return out, nil
	case []string:
		return coerceRule(ectolinq.Map(v, func(s string) any { return s }))
	}
	return nil, invalid(RuleCoerce, "unsupported value %T", value)
}

// namedRef reads "name" or {"name": args}.
func namedRef(rule string, value any) (string, any, error) {
	switch v := value.(type) {
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return "", nil, invalid(rule, "empty name")
		}
		return name, nil, nil
	case map[string]any:
		if len(v) != 1 {
			return "", nil, invalid(rule, "a mapping must name exactly one function, got %d", len(v))
		}
		for name, args := range v {
			return name, args, nil
		}
	}
	return "", nil, invalid(rule, "unsupported value %T", value)
}

package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/utils"
)

// Validator is a compiled Schema. It is immutable and safe to reuse across documents.
type Validator struct {
	fields  []compiledField
	index   map[string]int
	options Options
}

// Compile resolves every rule, check and coercion once. Unknown rules and names are ConfigErrors.
func Compile(s Schema, opts ...Option) (*Validator, error) {
	v := &Validator{
		fields: make([]compiledField, 0, len(s)),
		index:  make(map[string]int, len(s)),
	}
	for _, opt := range opts {
		opt(&v.options)
	}

	for _, f := range s {
		if _, dup := v.index[f.Name]; dup {
			return nil, errors.NewConfigErrorf("schema.Compile", errors.ErrInvalidRule, "duplicate field").AddField(f.Name)
		}
		cf, err := compileField(f.Name, f.Rules)
		if err != nil {
			return nil, err
		}
		v.index[f.Name] = len(v.fields)
		v.fields = append(v.fields, cf)
	}

	return v, nil
}

func (v *Validator) Options() Options {
	return v.options
}

// Fields returns the declared field names in order.
func (v *Validator) Fields() []string {
	names := make([]string, len(v.fields))
	for i, f := range v.fields {
		names[i] = f.name
	}
	return names
}

func (v *Validator) Has(field string) bool {
	_, ok := v.index[field]
	return ok
}

// Normalize returns a normalized copy of doc: unknown fields purged (when enabled),
// defaults filled, then coercions applied in declaration order.
func (v *Validator) Normalize(doc *models.Document) (*models.Document, errors.FieldErrors) {
	out := doc.Clone()
	var errs errors.FieldErrors

	if v.options.PurgeUnknown {
		for _, key := range out.Keys() {
			if !v.Has(key) {
				out.Delete(key)
			}
		}
	}

	for _, f := range v.fields {
		if !f.hasDefault {
			continue
		}
		value, ok := out.Get(f.name)
		if !ok || (value == nil && !f.nullable) {
			out.Set(f.name, f.def)
		}
	}

	for _, f := range v.fields {
		if len(f.coercions) == 0 {
			continue
		}
		value, ok := out.Get(f.name)
		if !ok {
			continue
		}
		for _, c := range f.coercions {
			coerced, err := c.run(value)
			if err != nil {
				errs = append(errs, errors.FieldError{
					Field:   f.name,
					Rule:    RuleCoerce,
					Message: fmt.Sprintf("field '%s' cannot be coerced: %s", f.name, err.Error()),
					Cause:   err,
				})
				break
			}
			value = coerced
		}
		out.Set(f.name, value)
	}

	return out, errs
}

// Validate normalizes doc and then checks it against every rule. A normalization
// failure is returned without running the validation rules.
func (v *Validator) Validate(doc *models.Document) (*models.Document, errors.FieldErrors) {
	out, errs := v.Normalize(doc)
	if len(errs) > 0 {
		return out, errs
	}

	if !v.options.AllowUnknown {
		for _, key := range out.Keys() {
			if !v.Has(key) {
				errs = append(errs, errors.FieldError{Field: key, Rule: "unknown", Message: "unknown field"})
			}
		}
	}

	for _, f := range v.fields {
		value, ok := out.Get(f.name)
		if !ok {
			if f.required || v.options.RequireAll {
				errs = append(errs, errors.FieldError{Field: f.name, Rule: RuleRequired, Message: "required field"})
			}
			continue
		}
		errs = append(errs, v.validateField(f, value, out)...)
	}

	return out, errs
}

func (v *Validator) validateField(f compiledField, value any, doc *models.Document) errors.FieldErrors {
	var errs errors.FieldErrors
	add := func(rule, msg string) {
		errs = append(errs, errors.FieldError{Field: f.name, Rule: rule, Message: msg})
	}

	if value == nil {
		if !f.nullable {
			add(RuleNullable, "null value not allowed")
		}
		return errs
	}

	if len(f.types) > 0 && !matchesType(f.types, value) {
		add(RuleType, fmt.Sprintf("must be of %s type", strings.Join(f.types, " or ")))
		return errs
	}

	if f.hasEmpty && isEmpty(value) {
		if !f.empty {
			add(RuleEmpty, "empty values not allowed")
		}
		return errs
	}

	if len(f.allowed) > 0 && !containsValue(f.allowed, value) {
		add(RuleAllowed, fmt.Sprintf("unallowed value %v", value))
	}
	if len(f.forbidden) > 0 && containsValue(f.forbidden, value) {
		add(RuleForbidden, fmt.Sprintf("unallowed value %v", value))
	}

	if n, ok := length(value); ok {
		if f.minLength != nil && n < *f.minLength {
			add(RuleMinLength, fmt.Sprintf("min length is %d", *f.minLength))
		}
		if f.maxLength != nil && n > *f.maxLength {
			add(RuleMaxLength, fmt.Sprintf("max length is %d", *f.maxLength))
		}
	}

	if f.regex != nil {
		if s, ok := value.(string); ok && !f.regex.MatchString(s) {
			add(RuleRegex, fmt.Sprintf("value does not match regex '%s'", f.regexSrc))
		}
	}

	if f.combined != nil {
		if partner, ok := doc.Get(f.combined.Field); ok {
			n, _ := length(value)
			m, _ := length(partner)
			if n+m > f.combined.Max {
				add(RuleCombinedMaxLength, fmt.Sprintf("Length of %s and %s together must be less than %d", f.name, f.combined.Field, f.combined.Max))
			}
		}
	}

	for _, c := range f.checks {
		if err := c.run(value); err != nil {
			errs = append(errs, errors.FieldError{Field: f.name, Rule: RuleCheckWith, Message: err.Error(), Cause: err})
		}
	}

	return errs
}

func matchesType(types []string, value any) bool {
	for _, t := range types {
		if isType(t, value) {
			return true
		}
	}
	return false
}

func isType(name string, value any) bool {
	switch name {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		return utils.IsInteger(value)
	case "float":
		return utils.IsFloat(value)
	case "number":
		return utils.IsInteger(value) || utils.IsFloat(value)
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "datetime", "date":
		_, ok := value.(time.Time)
		return ok
	case "list":
		k := reflect.ValueOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case "dict":
		if _, ok := value.(*models.Document); ok {
			return true
		}
		return reflect.ValueOf(value).Kind() == reflect.Map
	}
	return false
}

func isEmpty(value any) bool {
	if s, ok := value.(string); ok {
		return s == ""
	}
	n, ok := length(value)
	return ok && n == 0
}

// length measures strings in characters and collections by element count.
func length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case *models.Document:
		return v.Len(), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

func containsValue(list []any, value any) bool {
	for _, item := range list {
		if valuesEqual(item, value) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if (utils.IsInteger(a) || utils.IsFloat(a)) && (utils.IsInteger(b) || utils.IsFloat(b)) {
		fa, _ := utils.AnyToType[float64](a)
		fb, _ := utils.AnyToType[float64](b)
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

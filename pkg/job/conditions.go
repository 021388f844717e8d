package job

import (
	"sort"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/processor"
	"github.com/Ramsey-B/munger/pkg/utils"
	"github.com/Ramsey-B/munger/pkg/writer"
)

// ConditionFactory builds a writer condition from its decoded arguments.
type ConditionFactory func(args any) (writer.Condition, error)

var conditions = map[string]ConditionFactory{}

func init() {
	RegisterCondition("fields_differ", newFieldsDiffer)
	RegisterCondition("field_error", newFieldError)
	RegisterCondition("field_equals", newFieldEquals)
}

// RegisterCondition makes a named condition available to job definitions.
func RegisterCondition(name string, factory ConditionFactory) {
	conditions[name] = factory
}

// GetCondition resolves a named condition.
func GetCondition(name string, args any) (writer.Condition, error) {
	factory, ok := conditions[name]
	if !ok {
		return nil, errors.NewConfigErrorf("job.GetCondition", errors.ErrUnknownCondition, "%q", name)
	}
	condition, err := factory(args)
	if err != nil {
		return nil, errors.NewConfigErrorf("job.GetCondition", errors.ErrInvalidRule, "condition '%s': %s", name, err.Error())
	}
	return condition, nil
}

// ConditionNames lists the registered conditions.
func ConditionNames() []string {
	names := make([]string, 0, len(conditions))
	for name := range conditions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type fieldsDifferArgs struct {
	Fields []string `json:"fields" validate:"min=2,dive,required"`
}

// newFieldsDiffer admits documents where any of the listed fields hold different values.
func newFieldsDiffer(args any) (writer.Condition, error) {
	parsed, err := utils.ValidateArguments[fieldsDifferArgs](args)
	if err != nil {
		return nil, err
	}

	return func(p *processor.Processor) bool {
		doc := p.Document()
		first, _ := doc.Get(parsed.Fields[0])
		want := utils.StringifyValue(first)
		for _, field := range parsed.Fields[1:] {
			value, _ := doc.Get(field)
			if utils.StringifyValue(value) != want {
				return true
			}
		}
		return false
	}, nil
}

type fieldErrorArgs struct {
	Field string `json:"field" validate:"required"`
}

// newFieldError admits documents whose recorded errors include the field.
func newFieldError(args any) (writer.Condition, error) {
	if s, ok := args.(string); ok {
		args = fieldErrorArgs{Field: s}
	}
	parsed, err := utils.ValidateArguments[fieldErrorArgs](args)
	if err != nil {
		return nil, err
	}

	return func(p *processor.Processor) bool {
		return p.Errors().HasField(parsed.Field)
	}, nil
}

type fieldEqualsArgs struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

func newFieldEquals(args any) (writer.Condition, error) {
	parsed, err := utils.ValidateArguments[fieldEqualsArgs](args)
	if err != nil {
		return nil, err
	}
	want := utils.StringifyValue(parsed.Value)

	return func(p *processor.Processor) bool {
		value, ok := p.Document().Get(parsed.Field)
		return ok && utils.StringifyValue(value) == want
	}, nil
}

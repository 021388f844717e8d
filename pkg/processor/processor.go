// Package processor binds a schema to one pipeline stage and layers field mapping over the validator.
package processor

import (
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/schema"
	"github.com/Ramsey-B/munger/pkg/utils"
)

// FieldMapping moves a source field's value to one or more targets.
// The source is deleted unless it is itself listed among the targets.
type FieldMapping struct {
	Source    string
	Targets   []string
	Directive string
}

// KeepsSource reports whether the source field survives the mapping.
func (m FieldMapping) KeepsSource() bool {
	return ectolinq.Contains(m.Targets, m.Source)
}

// setOrder lists the targets in the order they are set. map_to copies to the extra
// targets first and then moves the source to the first (main) target.
func (m FieldMapping) setOrder() []string {
	if m.Directive != schema.DirectiveMapTo || len(m.Targets) < 2 {
		return m.Targets
	}
	return append(append([]string(nil), m.Targets[1:]...), m.Targets[0])
}

// Processor holds one compiled schema plus the mapping table derived from its rename
// and map_to directives. It records the document view and errors of the last call.
type Processor struct {
	schema    schema.Schema
	validator *schema.Validator
	mappings  []FieldMapping

	document *models.Document
	errors   errors.FieldErrors
}

// New builds a Processor. Malformed rename or map_to values are a ConfigError.
func New(s schema.Schema, opts ...schema.Option) (*Processor, error) {
	stripped := s.Clone()
	mappings := make([]FieldMapping, 0)

	for i, field := range stripped {
		mapping, ok, err := parseMapping(field.Name, field.Rules)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		mappings = append(mappings, mapping)
		delete(stripped[i].Rules, schema.DirectiveRename)
		delete(stripped[i].Rules, schema.DirectiveMapTo)
	}

	validator, err := schema.Compile(stripped, opts...)
	if err != nil {
		return nil, errors.WrapConfigError("processor.New", err)
	}

	return &Processor{
		schema:    s.Clone(),
		validator: validator,
		mappings:  mappings,
	}, nil
}

func parseMapping(field string, rules schema.Rules) (FieldMapping, bool, error) {
	rename, hasRename := rules[schema.DirectiveRename]
	mapTo, hasMapTo := rules[schema.DirectiveMapTo]

	switch {
	case hasRename && hasMapTo:
		return FieldMapping{}, false, errors.NewConfigErrorf("processor.New", errors.ErrInvalidDirective, "only one of rename or map_to may be given").AddField(field)
	case hasRename:
		targets, err := parseTargets(field, schema.DirectiveRename, rename)
		return FieldMapping{Source: field, Targets: targets, Directive: schema.DirectiveRename}, err == nil, err
	case hasMapTo:
		targets, err := parseTargets(field, schema.DirectiveMapTo, mapTo)
		return FieldMapping{Source: field, Targets: targets, Directive: schema.DirectiveMapTo}, err == nil, err
	}

	return FieldMapping{}, false, nil
}

func parseTargets(field, directive string, value any) ([]string, error) {
	targets, ok := utils.ToStringSlice(value)
	if !ok || len(targets) == 0 {
		return nil, errors.NewConfigErrorf("processor.New", errors.ErrInvalidDirective, "%s value must be a string or a list of strings", directive).AddField(field)
	}
	if ectolinq.Contains(targets, "") {
		return nil, errors.NewConfigErrorf("processor.New", errors.ErrInvalidDirective, "%s targets must not be empty", directive).AddField(field)
	}
	return targets, nil
}

// FieldMappings returns the mapping table in schema declaration order.
func (p *Processor) FieldMappings() []FieldMapping {
	return append([]FieldMapping(nil), p.mappings...)
}

// Schema returns a copy of the schema the processor was built from.
func (p *Processor) Schema() schema.Schema {
	return p.schema.Clone()
}

func (p *Processor) Validator() *schema.Validator {
	return p.validator
}

// Document is the document view produced by the last call.
func (p *Processor) Document() *models.Document {
	return p.document
}

// Errors are the violations recorded by the last call. Empty after an accepting call.
func (p *Processor) Errors() errors.FieldErrors {
	return p.errors
}

// ApplyMappings returns a copy of doc with every mapping applied in declaration order.
// Targets that do not exist yet are appended; existing targets are overwritten in place.
func (p *Processor) ApplyMappings(doc *models.Document) *models.Document {
	out := doc.Clone()
	for _, m := range p.mappings {
		value, ok := out.Get(m.Source)
		if !ok {
			continue
		}
		if !m.KeepsSource() {
			out.Delete(m.Source)
		}
		for _, target := range m.setOrder() {
			if target == m.Source {
				continue
			}
			out.Set(target, value)
		}
	}
	return out
}

// Normalized maps fields then runs the validator's normalization pass.
func (p *Processor) Normalized(doc *models.Document) (*models.Document, bool) {
	out, errs := p.validator.Normalize(p.ApplyMappings(doc))
	p.document, p.errors = out, errs
	return out, len(errs) == 0
}

// Validated maps fields, normalizes and validates.
func (p *Processor) Validated(doc *models.Document) (*models.Document, bool) {
	out, errs := p.validator.Validate(p.ApplyMappings(doc))
	p.document, p.errors = out, errs
	return out, len(errs) == 0
}

// Accept runs the stage's pass over doc. A filter returns the input unchanged when it
// conforms; coerce returns the normalized document; validate returns the validated one.
// The boolean is false when the stage rejects the document.
func (p *Processor) Accept(stage models.Stage, doc *models.Document) (*models.Document, bool) {
	switch stage {
	case models.StageFilter:
		_, ok := p.Validated(doc)
		p.document = doc.Clone()
		return p.document, ok
	case models.StageCoerce:
		return p.Normalized(doc)
	default:
		return p.Validated(doc)
	}
}

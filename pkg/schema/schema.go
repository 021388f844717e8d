// Package schema models declarative field rules and compiles them into a Validator.
package schema

import (
	"fmt"
	"os"

	"github.com/Ramsey-B/munger/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Rules maps a rule name to its parameter, e.g. {"type": "string", "maxlength": 20}.
type Rules map[string]any

// Clone returns a shallow copy.
func (r Rules) Clone() Rules {
	out := make(Rules, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Field is one schema entry. Declaration order matters for renames and coercion chaining.
type Field struct {
	Name  string
	Rules Rules
}

// Schema is an ordered list of field rule sets.
type Schema []Field

// New builds a Schema from fields in declaration order.
func New(fields ...Field) Schema {
	return Schema(fields)
}

// F is shorthand for a Field literal.
func F(name string, rules Rules) Field {
	return Field{Name: name, Rules: rules}
}

func (s Schema) Lookup(name string) (Rules, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Rules, true
		}
	}
	return nil, false
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Clone copies the schema and each field's rules.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	for i, f := range s {
		out[i] = Field{Name: f.Name, Rules: f.Rules.Clone()}
	}
	return out
}

// UnmarshalYAML decodes a mapping of field name to rules, keeping declaration order.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: schema must be a mapping of field names to rules", node.Line)
	}

	out := make(Schema, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		name := keyNode.Value
		if seen[name] {
			return fmt.Errorf("line %d: duplicate field '%s'", keyNode.Line, name)
		}
		seen[name] = true

		rules := Rules{}
		if valueNode.Kind != yaml.MappingNode {
			if valueNode.Tag == "!!null" {
				out = append(out, Field{Name: name, Rules: rules})
				continue
			}
			return fmt.Errorf("line %d: rules for field '%s' must be a mapping", valueNode.Line, name)
		}
		if err := valueNode.Decode(&rules); err != nil {
			return fmt.Errorf("line %d: field '%s': %w", valueNode.Line, name, err)
		}
		out = append(out, Field{Name: name, Rules: rules})
	}

	*s = out
	return nil
}

// Parse decodes a YAML schema document.
func Parse(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.NewConfigErrorf("schema.Parse", errors.ErrInvalidRule, "%s", err.Error())
	}
	return s, nil
}

// LoadFile reads and decodes a YAML schema file.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", path, err)
	}
	return s, nil
}

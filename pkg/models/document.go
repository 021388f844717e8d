package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is one row under processing: an ordered mapping of field name to value.
// Field order determines output column order unless explicit fieldnames are supplied.
type Document struct {
	fields *orderedmap.OrderedMap[string, any]
}

func NewDocument() *Document {
	return &Document{fields: orderedmap.New[string, any]()}
}

// NewDocumentFromRow pairs header names with row values. Missing trailing values are empty strings.
func NewDocumentFromRow(header []string, row []string) *Document {
	doc := NewDocument()
	for i, name := range header {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		doc.Set(name, value)
	}
	return doc
}

func (d *Document) ensure() {
	if d.fields == nil {
		d.fields = orderedmap.New[string, any]()
	}
}

// Set assigns a value. A new key is appended; an existing key keeps its position.
func (d *Document) Set(key string, value any) {
	d.ensure()
	d.fields.Set(key, value)
}

func (d *Document) Get(key string) (any, bool) {
	if d == nil || d.fields == nil {
		return nil, false
	}
	return d.fields.Get(key)
}

func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

func (d *Document) Delete(key string) {
	if d == nil || d.fields == nil {
		return
	}
	d.fields.Delete(key)
}

func (d *Document) Len() int {
	if d == nil || d.fields == nil {
		return 0
	}
	return d.fields.Len()
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.Len())
	d.Range(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Values returns the values in field order.
func (d *Document) Values() []any {
	values := make([]any, 0, d.Len())
	d.Range(func(_ string, value any) bool {
		values = append(values, value)
		return true
	})
	return values
}

// Range calls fn for each field in order until fn returns false.
func (d *Document) Range(fn func(key string, value any) bool) {
	if d == nil || d.fields == nil {
		return
	}
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Clone returns a shallow copy with the same field order.
func (d *Document) Clone() *Document {
	out := NewDocument()
	d.Range(func(key string, value any) bool {
		out.Set(key, value)
		return true
	})
	return out
}

func (d *Document) ToMap() map[string]any {
	out := make(map[string]any, d.Len())
	d.Range(func(key string, value any) bool {
		out[key] = value
		return true
	})
	return out
}

// MarshalJSON encodes the document as a JSON object preserving field order.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.ensure()
	return d.fields.MarshalJSON()
}

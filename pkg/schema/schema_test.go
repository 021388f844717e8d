package schema

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(pairs ...any) *models.Document {
	d := models.NewDocument()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i].(string), pairs[i+1])
	}
	return d
}

func TestParse(t *testing.T) {
	t.Run("should keep declaration order", func(t *testing.T) {
		s, err := Parse([]byte(`
Zeta:
  type: string
  maxlength: 5
Alpha:
  required: true
  check_with: [ascii, {no_char: "."}]
Empty:
`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Zeta", "Alpha", "Empty"}, s.Names())

		rules, ok := s.Lookup("Alpha")
		require.True(t, ok)
		assert.Equal(t, true, rules["required"])
		assert.Len(t, rules["check_with"], 2)

		rules, ok = s.Lookup("Empty")
		require.True(t, ok)
		assert.Empty(t, rules)
	})

	t.Run("should reject non-mapping documents", func(t *testing.T) {
		_, err := Parse([]byte(`- a\n- b`))
		require.Error(t, err)
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("should reject duplicate fields", func(t *testing.T) {
		_, err := Parse([]byte("A:\n  type: string\nA:\n  type: integer\n"))
		assert.Error(t, err)
	})

	t.Run("should load from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.yaml")
		require.NoError(t, os.WriteFile(path, []byte("Field:\n  type: string\n"), 0o644))
		s, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Field"}, s.Names())

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestCompile(t *testing.T) {
	t.Run("should reject unknown rules", func(t *testing.T) {
		_, err := Compile(New(F("A", Rules{"sparkly": true})))
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrUnknownRule))
		assert.Contains(t, err.Error(), "field 'A'")
	})

	t.Run("should reject mapping directives", func(t *testing.T) {
		_, err := Compile(New(F("A", Rules{"rename": "B"})))
		assert.True(t, stderrors.Is(err, errors.ErrUnknownRule))
	})

	t.Run("should reject unknown checks and coercions at compile time", func(t *testing.T) {
		_, err := Compile(New(F("A", Rules{"check_with": "sparkly"})))
		assert.True(t, stderrors.Is(err, errors.ErrUnknownCheck))

		_, err = Compile(New(F("A", Rules{"coerce": []any{"trim", "sparkly"}})))
		assert.True(t, stderrors.Is(err, errors.ErrUnknownCoercion))
	})

	t.Run("should reject malformed rule values", func(t *testing.T) {
		for _, rules := range []Rules{
			{"maxlength": "ten"},
			{"type": "colour"},
			{"regex": "("},
			{"required": "yes"},
			{"combined_maxlength": []any{"B"}},
			{"check_with": map[string]any{"ascii": nil, "upper": nil}},
		} {
			_, err := Compile(New(F("A", rules)))
			assert.True(t, stderrors.Is(err, errors.ErrInvalidRule), "rules %v: %v", rules, err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("should accept a conforming document", func(t *testing.T) {
		v, err := Compile(New(
			F("Field", Rules{"type": "string", "required": true, "allowed": []any{"2", "4"}}),
		))
		require.NoError(t, err)

		out, errs := v.Validate(doc("Field", "2"))
		assert.Empty(t, errs)
		assert.Equal(t, []string{"Field"}, out.Keys())
	})

	t.Run("should report each violation against its field", func(t *testing.T) {
		v, err := Compile(New(
			F("OtherField", Rules{"maxlength": 1}),
			F("Field", Rules{"required": true}),
			F("Code", Rules{"regex": "[A-Z]{2}", "check_with": "upper"}),
		))
		require.NoError(t, err)

		_, errs := v.Validate(doc("OtherField", "dog", "Code", "abc", "Extra", "x"))
		assert.Equal(t, map[string][]string{
			"Extra":      {"unknown field"},
			"OtherField": {"max length is 1"},
			"Field":      {"required field"},
			"Code":       {"value does not match regex '[A-Z]{2}'", "Should be uppercase"},
		}, errs.ByField())
	})

	t.Run("should honour schema options", func(t *testing.T) {
		s := New(F("A", Rules{"type": "string"}), F("B", Rules{"type": "string"}))

		v, err := Compile(s, WithAllowUnknown(true), WithRequireAll(true))
		require.NoError(t, err)
		_, errs := v.Validate(doc("A", "1", "C", "3"))
		assert.Equal(t, map[string][]string{"B": {"required field"}}, errs.ByField())

		v, err = Compile(s, WithPurgeUnknown(true))
		require.NoError(t, err)
		out, errs := v.Validate(doc("C", "3", "A", "1"))
		assert.Empty(t, errs)
		assert.Equal(t, []string{"A"}, out.Keys())
	})

	t.Run("should stop a field at type and empty failures", func(t *testing.T) {
		v, err := Compile(New(
			F("N", Rules{"type": "integer", "maxlength": 1}),
			F("E", Rules{"empty": false, "check_with": "numeric"}),
			F("Blank", Rules{"empty": true, "check_with": "numeric"}),
		))
		require.NoError(t, err)

		_, errs := v.Validate(doc("N", "12", "E", "", "Blank", ""))
		assert.Equal(t, map[string][]string{
			"N": {"must be of integer type"},
			"E": {"empty values not allowed"},
		}, errs.ByField())
	})

	t.Run("should check null values", func(t *testing.T) {
		v, err := Compile(New(F("A", Rules{"nullable": true}), F("B", Rules{})))
		require.NoError(t, err)
		_, errs := v.Validate(doc("A", nil, "B", nil))
		assert.Equal(t, map[string][]string{"B": {"null value not allowed"}}, errs.ByField())
	})

	t.Run("should compare numbers across types for allowed and forbidden", func(t *testing.T) {
		v, err := Compile(New(F("A", Rules{"allowed": []any{1, 2}}), F("B", Rules{"forbidden": []any{false}})))
		require.NoError(t, err)
		_, errs := v.Validate(doc("A", 2.0, "B", false))
		assert.Equal(t, map[string][]string{"B": {"unallowed value false"}}, errs.ByField())
	})

	t.Run("should enforce combined length", func(t *testing.T) {
		v, err := Compile(New(
			F("Path", Rules{"combined_maxlength": []any{"Name", 6}}),
			F("Name", Rules{}),
		))
		require.NoError(t, err)

		_, errs := v.Validate(doc("Path", "abc", "Name", "def"))
		assert.Empty(t, errs)

		_, errs = v.Validate(doc("Path", "abcd", "Name", "def"))
		assert.Equal(t, []string{"Length of Path and Name together must be less than 6"}, errs.ByField()["Path"])
	})

	t.Run("should accept go functions in rules", func(t *testing.T) {
		var seen []any
		v, err := Compile(New(F("A", Rules{
			"coerce":     func(s string) string { return s + "!" },
			"check_with": func(value any) error { seen = append(seen, value); return nil },
		})))
		require.NoError(t, err)

		out, errs := v.Validate(doc("A", "hi"))
		assert.Empty(t, errs)
		got, _ := out.Get("A")
		assert.Equal(t, "hi!", got)
		assert.Equal(t, []any{"hi!"}, seen)
	})

	t.Run("should reject a document whose check panics", func(t *testing.T) {
		v, err := Compile(New(F("A", Rules{
			"check_with": CheckFunc(func(any) error { panic("nope") }),
		})))
		require.NoError(t, err)

		_, errs := v.Validate(doc("A", "hi"))
		require.Len(t, errs, 1)
		assert.Equal(t, RuleCheckWith, errs[0].Rule)
		assert.Equal(t, "check_with panicked: nope", errs[0].Message)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("should apply defaults and coercion chains in order", func(t *testing.T) {
		v, err := Compile(New(
			F("Name", Rules{"coerce": []any{"trim", "upper", map[string]any{"truncate": 3}}}),
			F("Count", Rules{"coerce": "to_int"}),
			F("Source", Rules{"default": "import"}),
		))
		require.NoError(t, err)

		input := doc("Name", "  fish ", "Count", "7")
		out, errs := v.Normalize(input)
		assert.Empty(t, errs)
		assert.Equal(t, []string{"Name", "Count", "Source"}, out.Keys())
		assert.Equal(t, map[string]any{"Name": "FIS", "Count": 7, "Source": "import"}, out.ToMap())

		// the input is never mutated
		assert.Equal(t, map[string]any{"Name": "  fish ", "Count": "7"}, input.ToMap())
	})

	t.Run("should record coercion failures with their cause", func(t *testing.T) {
		v, err := Compile(New(F("Count", Rules{"coerce": "to_int", "type": "integer"})))
		require.NoError(t, err)

		out, errs := v.Validate(doc("Count", "seven"))
		require.Len(t, errs, 1)
		assert.Equal(t, "coerce", errs[0].Rule)
		assert.Contains(t, errs[0].Message, "field 'Count' cannot be coerced")
		assert.Error(t, stderrors.Unwrap(errs[0]))

		got, _ := out.Get("Count")
		assert.Equal(t, "seven", got)
	})

	t.Run("should record a panicking coercion as a coercion failure", func(t *testing.T) {
		boom := stderrors.New("boom")
		v, err := Compile(New(F("Field", Rules{
			"coerce": CoerceFunc(func(any) (any, error) { panic(boom) }),
		})))
		require.NoError(t, err)

		out, errs := v.Normalize(doc("Field", "1"))
		require.Len(t, errs, 1)
		assert.Equal(t, RuleCoerce, errs[0].Rule)
		assert.Equal(t, "field 'Field' cannot be coerced: coerce panicked: boom", errs[0].Message)
		assert.True(t, stderrors.Is(errs[0], boom))

		got, _ := out.Get("Field")
		assert.Equal(t, "1", got)

		v, err = Compile(New(F("Field", Rules{
			"coerce": CoerceFunc(func(any) (any, error) { panic("not an error") }),
		})))
		require.NoError(t, err)
		_, errs = v.Normalize(doc("Field", "1"))
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "coerce panicked: not an error")
	})

	t.Run("should skip coercions for absent fields", func(t *testing.T) {
		v, err := Compile(New(F("Date", Rules{"coerce": map[string]any{"date_format": "20060102"}})))
		require.NoError(t, err)
		out, errs := v.Normalize(doc("Other", "x"))
		assert.Empty(t, errs)
		assert.Equal(t, []string{"Other"}, out.Keys())
	})

	t.Run("should coerce into datetimes", func(t *testing.T) {
		v, err := Compile(New(F("When", Rules{"coerce": "to_datetime", "type": "datetime"})))
		require.NoError(t, err)
		out, errs := v.Validate(doc("When", "2021-01-04"))
		assert.Empty(t, errs)
		got, _ := out.Get("When")
		assert.IsType(t, time.Time{}, got)
	})
}

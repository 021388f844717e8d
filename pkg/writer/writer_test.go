package writer

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/processor"
	"github.com/Ramsey-B/munger/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func basicProcessor(t *testing.T) *processor.Processor {
	t.Helper()
	p, err := processor.New(schema.New(
		schema.F("Field", schema.Rules{"type": "string"}),
		schema.F("OtherField", schema.Rules{"type": "string", "maxlength": 1}),
	), schema.WithAllowUnknown(true))
	require.NoError(t, err)
	return p
}

func validate(p *processor.Processor, pairs ...string) *processor.Processor {
	d := models.NewDocument()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i], pairs[i+1])
	}
	p.Accept(models.StageValidate, d)
	return p
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriter(t *testing.T) {
	t.Run("should fix the header from the first admitted document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		w, err := New(Options{Path: path, Outcome: models.OutcomeCompleted, UseCRLF: true})
		require.NoError(t, err)

		p := basicProcessor(t)
		ok, err := w.Write(validate(p, "Field", "1", "OtherField", "a"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = w.Write(validate(p, "OtherField", "b", "Extra", "x"))
		require.NoError(t, err)
		assert.True(t, ok)

		assert.Equal(t, []string{"Field", "OtherField"}, w.Header())
		require.NoError(t, w.Close())
		assert.Equal(t, "Field,OtherField\r\n1,a\r\n,b\r\n", readFile(t, path))
		assert.Equal(t, 2, w.Rows())
	})

	t.Run("should skip documents rejected by the condition", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "even.csv")
		w, err := New(Options{
			Path:    path,
			Outcome: models.OutcomeCompleted,
			Condition: func(p *processor.Processor) bool {
				v, _ := p.Document().Get("Field")
				return v == "2"
			},
			UseCRLF: false,
		})
		require.NoError(t, err)

		p := basicProcessor(t)
		ok, err := w.Write(validate(p, "Field", "1", "OtherField", "a", "Early", "x"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, w.Header())

		ok, err = w.Write(validate(p, "Field", "2", "OtherField", "b"))
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, w.Close())
		assert.Equal(t, "Field,OtherField\n2,b\n", readFile(t, path))
	})

	t.Run("should append the error column for failure outcomes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.csv")
		w, err := New(Options{Path: path, Outcome: models.OutcomeFailedValidation, IncludeErrors: true})
		require.NoError(t, err)
		assert.True(t, w.IncludesErrors())

		ok, err := w.Write(validate(basicProcessor(t), "Field", "4", "OtherField", "dog"))
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, w.Close())
		assert.Equal(t, "Field,OtherField,ValidationErrors\n4,dog,\"{\"\"OtherField\"\":[\"\"max length is 1\"\"]}\"\n", readFile(t, path))
	})

	t.Run("should ignore include errors for completed documents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "valid.csv")
		w, err := New(Options{Path: path, Outcome: models.OutcomeCompleted, IncludeErrors: true, ErrorsFieldName: "Problems"})
		require.NoError(t, err)
		assert.False(t, w.IncludesErrors())

		_, err = w.Write(validate(basicProcessor(t), "Field", "1", "OtherField", "a"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, "Field,OtherField\n1,a\n", readFile(t, path))
	})

	t.Run("should project onto explicit fieldnames", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "projected.csv")
		w, err := New(Options{Path: path, Outcome: models.OutcomeCompleted, Fieldnames: []string{"OtherField", "Field", "BlankField"}, UseCRLF: true})
		require.NoError(t, err)

		p := basicProcessor(t)
		for _, pair := range [][2]string{{"1", "a"}, {"2", "b"}} {
			_, err = w.Write(validate(p, "Field", pair[0], "OtherField", pair[1]))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		assert.Equal(t, "OtherField,Field,BlankField\r\na,1,\r\nb,2,\r\n", readFile(t, path))
	})

	t.Run("should remove the file when nothing was written", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "never.csv")
		w, err := New(Options{Path: path, Outcome: models.OutcomeFailedFilter})
		require.NoError(t, err)
		_, err = os.Stat(path)
		require.NoError(t, err)

		require.NoError(t, w.Close())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, w.Close())
	})

	t.Run("should refuse writes after close", func(t *testing.T) {
		w, err := New(Options{Path: filepath.Join(t.TempDir(), "closed.csv")})
		require.NoError(t, err)
		require.NoError(t, w.Close())

		_, err = w.Write(basicProcessor(t))
		assert.True(t, stderrors.Is(err, errors.ErrClosed))
	})

	t.Run("should fail to open in a missing directory", func(t *testing.T) {
		_, err := New(Options{Path: filepath.Join(t.TempDir(), "missing", "out.csv")})
		assert.Error(t, err)
	})
}

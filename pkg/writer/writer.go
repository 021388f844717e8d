// Package writer implements the CSV output sink bound to one pipeline outcome.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
	"github.com/Ramsey-B/munger/pkg/processor"
	"github.com/Ramsey-B/munger/pkg/utils"
	"go.uber.org/multierr"
)

// DefaultErrorsFieldName is the trailing error column appended when errors are included.
const DefaultErrorsFieldName = "ValidationErrors"

// Condition decides whether a writer admits the document currently held by the processor.
type Condition func(p *processor.Processor) bool

type Options struct {
	Path    string
	Outcome models.Outcome

	Condition     Condition
	IncludeErrors bool     // ignored unless Outcome is a failure outcome
	Fieldnames    []string // explicit output columns; missing values are empty and extra keys are dropped

	ErrorsFieldName string
	UseCRLF         bool
}

// Writer opens its file at construction and fixes the header on the first admitted document.
// A writer that never admits a document removes its file on Close.
type Writer struct {
	options  Options
	file     *os.File
	csv      *csv.Writer
	header   []string
	fixed    bool
	includes bool
	wrote    bool
	closed   bool
	rows     int
}

func New(options Options) (*Writer, error) {
	if options.Path == "" {
		return nil, errors.NewConfigError("writer.New", errors.ErrDestination)
	}
	if options.ErrorsFieldName == "" {
		options.ErrorsFieldName = DefaultErrorsFieldName
	}
	if options.Fieldnames != nil {
		options.Fieldnames = append([]string(nil), options.Fieldnames...)
	}

	file, err := os.Create(options.Path)
	if err != nil {
		return nil, fmt.Errorf("opening writer %s: %w", options.Path, err)
	}

	w := csv.NewWriter(file)
	w.UseCRLF = options.UseCRLF

	return &Writer{
		options:  options,
		file:     file,
		csv:      w,
		includes: options.IncludeErrors && options.Outcome.IsFailure(),
	}, nil
}

func (w *Writer) Name() string {
	return w.options.Path
}

func (w *Writer) Outcome() models.Outcome {
	return w.options.Outcome
}

// Header is the fixed header, or nil before the first admitted document.
func (w *Writer) Header() []string {
	return append([]string(nil), w.header...)
}

// Wrote reports whether any document was admitted.
func (w *Writer) Wrote() bool {
	return w.wrote
}

// Rows is the number of admitted documents.
func (w *Writer) Rows() int {
	return w.rows
}

// IncludesErrors reports whether the error column is active for this writer.
func (w *Writer) IncludesErrors() bool {
	return w.includes
}

// Write records the processor's current document when the condition admits it.
// It returns false without writing anything when the condition rejects the document.
func (w *Writer) Write(p *processor.Processor) (bool, error) {
	if w.closed {
		return false, errors.NewConfigError("writer.Write", errors.ErrClosed).AddField(w.options.Path)
	}
	if w.options.Condition != nil && !w.options.Condition(p) {
		return false, nil
	}

	doc := p.Document()
	if !w.fixed {
		if err := w.writeHeader(doc); err != nil {
			return false, err
		}
	}

	record := make([]string, 0, len(w.header))
	columns := w.header
	if w.includes {
		columns = w.header[:len(w.header)-1]
	}
	for _, name := range columns {
		value, _ := doc.Get(name)
		record = append(record, utils.StringifyValue(value))
	}
	if w.includes {
		record = append(record, p.Errors().String())
	}

	if err := w.csv.Write(record); err != nil {
		return false, fmt.Errorf("writing %s: %w", w.options.Path, err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return false, fmt.Errorf("writing %s: %w", w.options.Path, err)
	}

	w.wrote = true
	w.rows++
	return true, nil
}

func (w *Writer) writeHeader(doc *models.Document) error {
	header := w.options.Fieldnames
	if header == nil {
		header = doc.Keys()
	}
	header = append([]string(nil), header...)
	if w.includes {
		header = append(header, w.options.ErrorsFieldName)
	}

	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("writing header to %s: %w", w.options.Path, err)
	}
	w.header = header
	w.fixed = true
	return nil
}

// Close flushes and closes the file, removing it when nothing was admitted. Safe to call twice.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	w.csv.Flush()
	err = multierr.Append(err, w.csv.Error())
	err = multierr.Append(err, w.file.Close())

	if !w.wrote {
		if rmErr := os.Remove(w.options.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}

	if err != nil {
		return fmt.Errorf("closing writer %s: %w", w.options.Path, err)
	}
	return nil
}

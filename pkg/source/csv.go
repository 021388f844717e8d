// Package source reads documents from delimited files.
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/Ramsey-B/munger/pkg/errors"
	"github.com/Ramsey-B/munger/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSV yields one document per data row. The header is read at open time so the
// field names are known before the first document.
type CSV struct {
	path       string
	file       *os.File
	reader     *csv.Reader
	fieldnames []string
	row        int
	closed     bool
}

// OpenCSV opens path and reads its header row. A leading UTF-8 byte order mark is dropped.
func OpenCSV(path string) (*CSV, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source %s: %w", path, err)
	}

	buffered := bufio.NewReader(file)
	if head, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = buffered.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	return &CSV{
		path:       path,
		file:       file,
		reader:     reader,
		fieldnames: header,
	}, nil
}

// Next returns the next document, or io.EOF once the file is exhausted.
// Rows shorter than the header are padded with empty strings; extra values are dropped.
func (s *CSV) Next() (*models.Document, error) {
	if s.closed {
		return nil, errors.NewConfigError("source.Next", errors.ErrClosed).AddField(s.path)
	}

	record, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s row %d: %w", s.path, s.row+1, err)
	}

	s.row++
	return models.NewDocumentFromRow(s.fieldnames, record), nil
}

// Fieldnames returns the header row.
func (s *CSV) Fieldnames() []string {
	return append([]string(nil), s.fieldnames...)
}

func (s *CSV) Path() string {
	return s.path
}

// Row is the 1-based index of the last document returned by Next.
func (s *CSV) Row() int {
	return s.row
}

func (s *CSV) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("closing source %s: %w", s.path, err)
	}
	return nil
}

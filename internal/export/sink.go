package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// Sink receives the rows of one commit at a time.
type Sink interface {
	// Append stores rows for a single revision. rows is never empty.
	Append(rows []RevisionRefactor) error
	// Name identifies the sink in errors.
	Name() string
}

// ExportIOError reports a failed write of a revision's rows.
type ExportIOError struct {
	Revision string
	Path     string
	Err      error
}

func (e *ExportIOError) Error() string {
	return fmt.Sprintf("export %s to %s: %v", e.Revision, e.Path, e.Err)
}

func (e *ExportIOError) Unwrap() error { return e.Err }

// CSVSink appends rows to a headerless CSV file.
//
// The file is opened in append mode for every commit and closed again
// afterwards, so each commit's rows land in a single write.
type CSVSink struct {
	Path string
}

// NewCSVSink creates a sink appending to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{Path: path}
}

// Name returns the output path.
func (s *CSVSink) Name() string { return s.Path }

// Append writes rows to the end of the file, creating it if needed.
func (s *CSVSink) Append(rows []RevisionRefactor) (err error) {
	if len(rows) == 0 {
		return nil
	}

	data, err := encodeRows(rows)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func encodeRows(rows []RevisionRefactor) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row.Record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

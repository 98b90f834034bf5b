package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/masmgr/refscan-go/internal/export"
)

// ConsoleSink echoes every exported commit to a terminal as
//
//	Refactorings found in commit <revision>
//	TYPE file: start - end
type ConsoleSink struct {
	out    io.Writer
	header *color.Color
}

// NewConsoleSink creates a sink printing to w. A nil w means stdout.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{out: w, header: color.New(color.FgCyan)}
}

// Name identifies the sink.
func (s *ConsoleSink) Name() string { return "console" }

// Append prints one commit's rows.
func (s *ConsoleSink) Append(rows []export.RevisionRefactor) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := s.header.Fprintf(s.out, "Refactorings found in commit %s\n", rows[0].Revision); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(s.out, "%s %s: %d - %d\n", r.RefType, r.FileName, r.StartLine, r.EndLine); err != nil {
			return err
		}
	}
	return nil
}

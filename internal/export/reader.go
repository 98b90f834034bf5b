package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV parses headerless revision,fileName,refType,startLine,endLine records.
func ReadCSV(r io.Reader) ([]RevisionRefactor, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 5

	var rows []RevisionRefactor
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		start, err := strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start line %q", line, rec[3])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rec[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end line %q", line, rec[4])
		}
		rows = append(rows, RevisionRefactor{
			Revision:  rec[0],
			FileName:  rec[1],
			RefType:   rec[2],
			StartLine: start,
			EndLine:   end,
		})
	}
}

// ReadFile parses the refactorings CSV at path.
func ReadFile(path string) ([]RevisionRefactor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

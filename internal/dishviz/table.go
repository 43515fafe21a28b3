package dishviz

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

var tableHeader = []string{"Treatment", "Seed", "Per-Cell-Update Death Rate", "Cause"}

// WriteTable writes rows as CSV with the aggregation header.
func WriteTable(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Treatment, r.Seed, strconv.FormatFloat(r.Rate, 'g', -1, 64), r.Cause.String()}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable parses a table written by WriteTable.
func ReadTable(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(tableHeader)
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("missing table header")
	}
	for i, h := range tableHeader {
		if recs[0][i] != h {
			return nil, fmt.Errorf("unexpected column %d: got %q, expected %q", i, recs[0][i], h)
		}
	}
	rows := make([]Row, 0, len(recs)-1)
	for n, rec := range recs[1:] {
		rate, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		cause, err := ParseCause(rec[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		rows = append(rows, Row{Treatment: rec[0], Seed: rec[1], Rate: rate, Cause: cause})
	}
	return rows, nil
}

func writeTableFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTable(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readTableFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}

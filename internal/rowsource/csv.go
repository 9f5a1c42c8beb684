package rowsource

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// CSV reads comma or semicolon separated uploads.
type CSV struct {
	r io.Reader
}

// NewCSV returns a CSV source over r.
func NewCSV(r io.Reader) *CSV { return &CSV{r: r} }

// Records parses the whole file. The delimiter is sniffed from the header
// line: spreadsheet exports in European locales use semicolons.
func (c *CSV) Records() ([]domain.Record, error) {
	data, err := io.ReadAll(c.r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return toRecords(rows)
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

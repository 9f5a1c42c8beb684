package rowsource

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/gameplan-importer/internal/domain"
)

// XLSX reads one sheet of an Excel workbook.
type XLSX struct {
	r     io.Reader
	sheet string
}

// NewXLSX returns a source over the named sheet of r, or over the first
// sheet when sheet is empty.
func NewXLSX(r io.Reader, sheet string) *XLSX {
	return &XLSX{r: r, sheet: sheet}
}

// Records reads the sheet. Cells are read as formatted text so dates and
// percentages reach validation the way the planner typed them.
func (x *XLSX) Records() ([]domain.Record, error) {
	f, err := excelize.OpenReader(x.r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return toRecords(rows)
}

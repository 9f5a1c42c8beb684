// Package rowsource turns uploaded spreadsheets into header-keyed records.
// The first non-empty row is the header; cells are trimmed and empty rows
// are skipped.
package rowsource

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ignite/gameplan-importer/internal/domain"
)

var (
	ErrNoHeader          = errors.New("file has no header row")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RowSource reads every record of one upload.
type RowSource interface {
	Records() ([]domain.Record, error)
}

// ForName picks a RowSource for r from the extension of name.
func ForName(name string, r io.Reader, sheet string) (RowSource, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return NewCSV(r), nil
	case ".xlsx", ".xlsm":
		return NewXLSX(r, sheet), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Open opens a file on disk and picks its RowSource. The caller closes the
// returned closer once Records has been read.
func Open(path string, sheet string) (RowSource, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	src, err := ForName(path, f, sheet)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return src, f, nil
}

// toRecords keys each data row by the header. Blank header cells and rows
// without any value are dropped.
func toRecords(rows [][]string) ([]domain.Record, error) {
	start := -1
	for i, r := range rows {
		if !blank(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	out := make([]domain.Record, 0, len(rows)-start-1)
	for _, r := range rows[start+1:] {
		if blank(r) {
			continue
		}
		rec := make(domain.Record, len(header))
		for i, h := range header {
			if h == "" || i >= len(r) {
				continue
			}
			if v := strings.TrimSpace(r[i]); v != "" {
				rec[h] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

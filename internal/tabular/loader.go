// Package tabular loads keyword classification requests from spreadsheet-like
// files. The first row is the header; column 0 holds keywords, column 1 brand
// context, and every further column is either a pre-filled tag vocabulary or
// an all-blank instruction-only column.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tagsheet/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported file format: use CSV or XLSX")
	ErrInsufficientColumns = errors.New("file must have at least 2 columns (keyword and brand)")
)

// SupportedExtension reports whether the file name carries a loadable
// extension. Legacy .xls is not readable and is rejected up front.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Load reads the file at path and normalizes it into a ClassificationRequest.
func Load(path string) (*domain.ClassificationRequest, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows builds a request from an already-materialized table. Exposed so
// tests and in-memory callers can skip the file layer.
func FromRows(rows [][]string) (*domain.ClassificationRequest, error) {
	rows = dropEmptyRows(rows)
	if len(rows) == 0 {
		return nil, ErrInsufficientColumns
	}

	header := trimTrailingEmpty(rows[0])
	data := rows[1:]
	if len(header) < 2 {
		return nil, ErrInsufficientColumns
	}

	req := &domain.ClassificationRequest{}

	for _, row := range data {
		if kw := strings.TrimSpace(cell(row, 0)); kw != "" {
			req.Keywords = append(req.Keywords, kw)
		}
	}

	seen := make(map[string]struct{})
	for _, row := range data {
		b := strings.TrimSpace(cell(row, 1))
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		req.Brands = append(req.Brands, b)
	}

	for ci := 2; ci < len(header); ci++ {
		name := strings.TrimSpace(header[ci])
		var tags []string
		dedup := make(map[string]struct{})
		for _, row := range data {
			v := strings.TrimSpace(cell(row, ci))
			if v == "" {
				continue
			}
			if _, ok := dedup[v]; ok {
				continue
			}
			dedup[v] = struct{}{}
			tags = append(tags, v)
		}
		if len(tags) > 0 {
			req.Columns = append(req.Columns, domain.TaggedColumn(name, tags))
		} else {
			// No tags supplied in the sheet: the model will have to
			// synthesize a taxonomy for this column.
			req.Columns = append(req.Columns, domain.InstructionColumn(name, ""))
		}
	}

	return req, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are fine, cells default to blank
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func dropEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out
}

func trimTrailingEmpty(row []string) []string {
	for len(row) > 0 && strings.TrimSpace(row[len(row)-1]) == "" {
		row = row[:len(row)-1]
	}
	return row
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Package xlsxout serializes classification results into a formatted xlsx
// artifact.
package xlsxout

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Classification Results"
	maxColWidth = 50
)

// Write saves headers plus rows to path, forcing a .xlsx extension, and
// returns the path actually written. Every row must have exactly one cell per
// header; a mismatch is a caller bug and is rejected rather than padded.
func Write(path string, headers []string, rows [][]string) (string, error) {
	for i, row := range rows {
		if len(row) != len(headers) {
			return "", fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(headers))
		}
	}

	if ext := filepath.Ext(path); !strings.EqualFold(ext, ".xlsx") {
		path = strings.TrimSuffix(path, ext) + ".xlsx"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}

	for ci, h := range headers {
		cellRef, err := excelize.CoordinatesToCellName(ci+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(SheetName, cellRef, h); err != nil {
			return "", fmt.Errorf("writing header cell: %w", err)
		}
	}
	for ri, row := range rows {
		for ci, v := range row {
			cellRef, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(SheetName, cellRef, v); err != nil {
				return "", fmt.Errorf("writing data cell: %w", err)
			}
		}
	}

	if err := applyFormatting(f, headers, rows); err != nil {
		return "", err
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("writing spreadsheet %s: %w", path, err)
	}
	return path, nil
}

func applyFormatting(f *excelize.File, headers []string, rows [][]string) error {
	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    thin,
	})
	if err != nil {
		return fmt.Errorf("data style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("styling header row: %w", err)
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(SheetName, "A2", fmt.Sprintf("%s%d", lastCol, len(rows)+1), dataStyle); err != nil {
			return fmt.Errorf("styling data rows: %w", err)
		}
	}

	// Auto-size each column to its longest value, capped.
	for ci := range headers {
		width := utf8.RuneCountInString(headers[ci])
		for _, row := range rows {
			if l := utf8.RuneCountInString(row[ci]); l > width {
				width = l
			}
		}
		width += 2
		if width > maxColWidth {
			width = maxColWidth
		}
		col, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(width)); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}
	return nil
}

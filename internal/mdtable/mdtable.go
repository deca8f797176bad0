// Package mdtable extracts data rows from markdown tables in raw LLM output.
// The input is untrusted free text: the parser keeps only rows that look like
// table data for the current batch and silently drops everything else. It
// never fails; malformed input just yields fewer rows.
package mdtable

import "strings"

// Parse returns the accepted data rows of the first markdown table found in
// raw. A row is accepted when its cell count matches the table header (or
// expectedColumns when the header is malformed) and its first cell matches a
// batch keyword case-insensitively. Rows come back in response order;
// duplicate keyword rows are kept.
func Parse(raw string, expectedKeywords []string, expectedColumns int) [][]string {
	expected := make(map[string]struct{}, len(expectedKeywords))
	for _, k := range expectedKeywords {
		expected[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "|") && !isDecoration(line) {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	// First surviving line is the header.
	headerCount := len(splitCells(lines[0]))
	if headerCount == 0 {
		headerCount = expectedColumns
	}

	var rows [][]string
	for _, line := range lines[1:] {
		cells := splitCells(line)
		if len(cells) != headerCount {
			continue
		}
		if _, ok := expected[strings.ToLower(cells[0])]; !ok {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

// isDecoration reports whether a candidate line is a separator or other
// markdown decoration rather than data: mostly hyphens, a header separator
// prefix, or nothing but pipes, hyphens, colons and spaces.
func isDecoration(line string) bool {
	if 2*strings.Count(line, "-") > len(line) {
		return true
	}
	if strings.HasPrefix(line, "|--") {
		return true
	}
	for _, r := range strings.ReplaceAll(line, "|", "") {
		if !strings.ContainsRune("-: ", r) {
			return false
		}
	}
	return true
}

// splitCells splits a table line on pipes, dropping the empty leading and
// trailing fields produced by edge delimiters, then trims each cell. Interior
// blank cells survive.
func splitCells(line string) []string {
	cells := strings.Split(line, "|")
	if len(cells) > 1 && strings.TrimSpace(cells[0]) == "" {
		cells = cells[1:]
	}
	if len(cells) > 1 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

package table

import (
	"fmt"
	"strings"
)

// Parse reads one tier of winds aloft text. Banner lines before the "FT"
// header are dropped and every following non-blank line becomes a row.
func Parse(raw string) (Table, error) {
	if strings.TrimSpace(raw) == "" {
		return Table{}, fmt.Errorf("%w: empty body", ErrMalformedUpstreamData)
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	header := -1
	for i, line := range lines {
		if isHeaderLine(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return Table{}, fmt.Errorf("%w: no %q header line", ErrMalformedUpstreamData, StationLabel)
	}

	t := Table{
		Labels: strings.Fields(lines[header]),
		Rows:   make([][]string, 0, len(lines)-header-1),
	}
	for n, line := range lines[header+1:] {
		row := strings.Fields(line)
		if len(row) == 0 {
			continue
		}
		if len(row) > len(t.Labels) {
			return Table{}, fmt.Errorf("%w: line %d has %d cells, header has %d",
				ErrMalformedUpstreamData, header+n+2, len(row), len(t.Labels))
		}
		t.Rows = append(t.Rows, repairBlankLowColumns(row, len(t.Labels)))
	}
	return t, nil
}

// isHeaderLine reports whether line starts with the station column sentinel.
// The provider prints a variable number of banner lines above it.
func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, StationLabel)
}

// repairBlankLowColumns restores cells for altitudes the provider leaves
// blank. Stations too high for the lowest levels print spaces there, so a
// short row is missing cells right after the station id. Only index 1 is
// ever filled; rows already at full width are returned untouched.
func repairBlankLowColumns(row []string, width int) []string {
	for len(row) < width {
		row = append(row[:1], append([]string{""}, row[1:]...)...)
	}
	return row
}

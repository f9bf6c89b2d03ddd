package table

import "strconv"

// Filter drops altitude columns outside r. Columns are projected through a
// list of retained indices so removing one never shifts another. Labels that
// are not numbers are kept. Filter fails with ErrEmptyResult instead of
// returning a table with only the station column.
func Filter(t Table, r AltitudeRange) (Table, error) {
	if len(t.Labels) <= 1 {
		return Table{}, ErrEmptyResult
	}
	if r.IsZero() {
		return t, nil
	}

	keep := make([]int, 0, len(t.Labels))
	for i, label := range t.Labels {
		if i == 0 {
			keep = append(keep, i)
			continue
		}
		alt, err := strconv.Atoi(label)
		if err != nil || r.Contains(alt) {
			keep = append(keep, i)
		}
	}
	if len(keep) <= 1 {
		return Table{}, ErrEmptyResult
	}

	out := Table{
		Labels: project(t.Labels, keep),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = project(row, keep)
	}
	return out, nil
}

func project(cells []string, keep []int) []string {
	out := make([]string, len(keep))
	for j, i := range keep {
		if i < len(cells) {
			out[j] = cells[i]
		}
	}
	return out
}

package table

// Merge appends the high tier's altitude columns to the low tier, joining rows
// on the station id. Stations only present in high are dropped and low
// stations without a high row are padded with empty cells. Altitude labels
// present in both tiers are kept twice.
func Merge(low, high Table) Table {
	lowWidth := len(low.Labels)
	highWidth := max(len(high.Labels)-1, 0)

	labels := make([]string, 0, lowWidth+highWidth)
	labels = append(labels, low.Labels...)
	if highWidth > 0 {
		labels = append(labels, high.Labels[1:]...)
	}

	index := make(map[string]int, len(low.Rows))
	rows := make([][]string, len(low.Rows))
	for i, row := range low.Rows {
		rows[i] = fitTo(make([]string, 0, len(labels)), row, lowWidth)
		if len(row) == 0 {
			continue
		}
		if _, seen := index[row[0]]; !seen {
			index[row[0]] = i
		}
	}

	// one high row per station; a repeated station would push the row past
	// the label count
	joined := make([]bool, len(rows))
	for _, row := range high.Rows {
		if len(row) == 0 {
			continue
		}
		i, ok := index[row[0]]
		if !ok || joined[i] {
			continue
		}
		rows[i] = fitTo(rows[i], row[1:], lowWidth+highWidth)
		joined[i] = true
	}

	for i := range rows {
		rows[i] = fitTo(rows[i], nil, len(labels))
	}

	return Table{Labels: labels, Rows: rows}
}

// fitTo appends cells to dst and then pads with empty strings or cuts so that
// dst ends up exactly width long.
func fitTo(dst, cells []string, width int) []string {
	dst = append(dst, cells...)
	if len(dst) > width {
		return dst[:width]
	}
	for len(dst) < width {
		dst = append(dst, "")
	}
	return dst
}

package board

// FirstRow returns the zero-based index of the first row whose cell in col
// equals key, or -1. Rows shorter than col are skipped.
func FirstRow(values [][]string, col int, key string) int {
	for i, row := range values {
		if col < len(row) && row[col] == key {
			return i
		}
	}
	return -1
}

// LastRow returns the zero-based index of the last row whose cell in col
// equals key, or -1.
func LastRow(values [][]string, col int, key string) int {
	last := -1
	for i, row := range values {
		if col < len(row) && row[col] == key {
			last = i
		}
	}
	return last
}

// KeyRange returns the contiguous [start, end] row range owned by key in
// col. A key's rows are kept contiguous by the sort that follows every
// structural change.
func KeyRange(values [][]string, col int, key string) (start, end int, ok bool) {
	start = FirstRow(values, col, key)
	if start == -1 {
		return 0, 0, false
	}
	return start, LastRow(values, col, key), true
}

func cellAt(values [][]string, row, col int) string {
	if row < 0 || row >= len(values) {
		return ""
	}
	if col >= len(values[row]) {
		return ""
	}
	return values[row][col]
}

// isHeaderRow reports whether a data row is a contract header: it carries a
// contract key but no task id.
func isHeaderRow(row []string) bool {
	return cellAt([][]string{row}, 0, ColContractDBID) != "" && cellAt([][]string{row}, 0, ColTaskID) == ""
}

// dataRowEnd returns one past the last row carrying a contract key. The
// summary block can extend the value matrix below the data region; those
// rows have no key and must never be sorted or counted as data.
func dataRowEnd(values [][]string) int {
	end := firstDataRow
	for i := firstDataRow; i < len(values); i++ {
		if cellAt(values, i, ColContractDBID) != "" {
			end = i + 1
		}
	}
	return end
}

// headerCount counts contract header rows in the data region.
func headerCount(values [][]string) int {
	count := 0
	for i := firstDataRow; i < len(values); i++ {
		if isHeaderRow(values[i]) {
			count++
		}
	}
	return count
}

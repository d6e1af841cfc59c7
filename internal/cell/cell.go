// Package cell translates between numeric row/column coordinates and the
// board service's A1-style cell addresses.
package cell

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref is a one-based cell coordinate. Row 1 is the top row, Col 1 is column A.
type Ref struct {
	Row int
	Col int
}

// Address renders a one-based (row, col) pair as an A1 address. Rows below 1
// are clamped to 1, matching the board service's behaviour for header math.
func Address(row, col int) string {
	if row < 1 {
		row = 1
	}
	return ColumnLetters(col) + strconv.Itoa(row)
}

// AbsAddress renders an A1 address with absolute markers on the row and/or
// column ($A$1, A$1, $A1).
func AbsAddress(row, col int, absRow, absCol bool) string {
	if row < 1 {
		row = 1
	}
	var b strings.Builder
	if absCol {
		b.WriteByte('$')
	}
	b.WriteString(ColumnLetters(col))
	if absRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(row))
	return b.String()
}

// FromIndex converts zero-based row/column indexes (as used by the value
// matrix) to an A1 address.
func FromIndex(rowIdx, colIdx int) string {
	return Address(rowIdx+1, colIdx+1)
}

// RangeAddress renders "A1:B2" for the given one-based corners.
func RangeAddress(startRow, startCol, endRow, endCol int) string {
	return Address(startRow, startCol) + ":" + Address(endRow, endCol)
}

// ColumnLetters converts a one-based column number to spreadsheet letters
// (1 -> A, 26 -> Z, 27 -> AA).
func ColumnLetters(col int) string {
	if col < 1 {
		col = 1
	}
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// Parse decodes an A1 address (with or without absolute markers) back to a
// one-based Ref.
func Parse(address string) (Ref, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(address), "$", "")
	if raw == "" {
		return Ref{}, fmt.Errorf("parse address %q: empty", address)
	}
	split := 0
	for split < len(raw) && raw[split] >= 'A' && raw[split] <= 'Z' {
		split++
	}
	if split == 0 || split == len(raw) {
		return Ref{}, fmt.Errorf("parse address %q: want letters then digits", address)
	}
	col := 0
	for i := 0; i < split; i++ {
		col = col*26 + int(raw[i]-'A') + 1
	}
	row, err := strconv.Atoi(raw[split:])
	if err != nil || row < 1 {
		return Ref{}, fmt.Errorf("parse address %q: bad row", address)
	}
	return Ref{Row: row, Col: col}, nil
}

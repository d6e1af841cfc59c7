package board

import "testing"

func TestKeyRange(t *testing.T) {
	values := [][]string{
		{"title"},
		{"p1", "", "c1"},
		{"p1", "", "c1"},
		{"p1", "", "c1"},
		{"p1", "", "c2"},
	}

	start, end, ok := KeyRange(values, ColContractDBID, "c1")
	if !ok || start != 1 || end != 3 {
		t.Errorf("KeyRange(c1) = (%d, %d, %v), want (1, 3, true)", start, end, ok)
	}

	start, end, ok = KeyRange(values, ColContractDBID, "c2")
	if !ok || start != 4 || end != 4 {
		t.Errorf("KeyRange(c2) = (%d, %d, %v), want (4, 4, true)", start, end, ok)
	}

	if _, _, ok := KeyRange(values, ColContractDBID, "c3"); ok {
		t.Error("KeyRange(c3) should not be found")
	}
}

func TestFirstRowSkipsShortRows(t *testing.T) {
	values := [][]string{
		{"only-one-cell"},
		{"p1", "", "c1"},
	}
	if got := FirstRow(values, ColContractDBID, "c1"); got != 1 {
		t.Errorf("FirstRow = %d, want 1", got)
	}
}

func TestHeaderCount(t *testing.T) {
	values := [][]string{
		make([]string, dataColCount), // title
		headerValues(HeaderEntry{ContractID: "c1"}),
		{"p", "our", "c1", "mt", "ct", "", "t1"},
		headerValues(HeaderEntry{ContractID: "c2"}),
	}
	if got := headerCount(values); got != 2 {
		t.Errorf("headerCount = %d, want 2", got)
	}
}

package board

import (
	"context"
	"sort"
	"sync"
)

// fakeClient is an in-memory board with real row/column/sort semantics, so
// synchronizer tests exercise the same read-compute-write sequences the live
// service sees.
type fakeClient struct {
	mu          sync.Mutex
	rows        [][]string
	sortCalls   int
	formatCalls int
}

func newFakeClient() *fakeClient {
	title := make([]string, dataColCount)
	title[ColTaskName] = "Task"
	title[ColStatus] = "Status"
	return &fakeClient{rows: [][]string{title}}
}

func (f *fakeClient) GetValues(context.Context, string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeClient) UpdateValues(_ context.Context, _ string, startRow, startCol int, values [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range values {
		r := startRow + i
		for len(f.rows) <= r {
			f.rows = append(f.rows, nil)
		}
		for j, value := range row {
			c := startCol + j
			for len(f.rows[r]) <= c {
				f.rows[r] = append(f.rows[r], "")
			}
			f.rows[r][c] = value
		}
	}
	return nil
}

func (f *fakeClient) InsertRows(_ context.Context, _ string, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	blank := make([][]string, end-start)
	f.rows = append(f.rows[:start], append(blank, f.rows[start:]...)...)
	return nil
}

func (f *fakeClient) DeleteRows(_ context.Context, _ string, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows[:start], f.rows[end:]...)
	return nil
}

func (f *fakeClient) InsertColumns(_ context.Context, _ string, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := end - start
	for i, row := range f.rows {
		if start > len(row) {
			continue
		}
		blank := make([]string, n)
		f.rows[i] = append(row[:start], append(blank, row[start:]...)...)
	}
	return nil
}

func (f *fakeClient) DeleteColumns(_ context.Context, _ string, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if start >= len(row) {
			continue
		}
		stop := end
		if stop > len(row) {
			stop = len(row)
		}
		f.rows[i] = append(row[:start], row[stop:]...)
	}
	return nil
}

func (f *fakeClient) SortRange(_ context.Context, _ string, startRow, endRow, startCol, endCol int, specs []SortSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sortCalls++
	if endRow > len(f.rows) {
		endRow = len(f.rows)
	}
	// Only the bounded rectangle moves; cells outside it stay in place, like
	// a real ranged sort.
	section := make([][]string, endRow-startRow)
	for i := range section {
		sub := make([]string, endCol-startCol)
		row := f.rows[startRow+i]
		for c := startCol; c < endCol && c < len(row); c++ {
			sub[c-startCol] = row[c]
		}
		section[i] = sub
	}
	sort.SliceStable(section, func(i, j int) bool {
		for _, spec := range specs {
			a := cellAt([][]string{section[i]}, 0, spec.Column-startCol)
			b := cellAt([][]string{section[j]}, 0, spec.Column-startCol)
			if a == b {
				continue
			}
			if spec.Descending {
				return a > b
			}
			return a < b
		}
		return false
	})
	for i, sub := range section {
		row := f.rows[startRow+i]
		for len(row) < endCol {
			row = append(row, "")
		}
		copy(row[startCol:endCol], sub)
		f.rows[startRow+i] = row
	}
	return nil
}

func (f *fakeClient) CopyFormat(_ context.Context, _ string, _, _, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatCalls++
	return nil
}

func (f *fakeClient) ClearValues(_ context.Context, _ string, startRow, endRow, startCol, endCol int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for r := startRow; r < endRow && r < len(f.rows); r++ {
		for c := startCol; c < endCol && c < len(f.rows[r]); c++ {
			f.rows[r][c] = ""
		}
	}
	return nil
}

// noopLocker runs the critical section directly; lock semantics are covered
// by the lock package's own tests.
type noopLocker struct{}

func (noopLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

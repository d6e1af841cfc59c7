package board

import (
	"context"
	"errors"
	"fmt"

	"planroom/api/internal/store"
)

// ErrHeaderMissing reports that a contract owns no header row yet. Callers
// treat it as "not yet synchronized" and fall back to a full resync.
var ErrHeaderMissing = errors.New("contract header row not on board")

// ErrRowMissing reports that a task row the caller expected is absent.
var ErrRowMissing = errors.New("task row not on board")

// Synchronizer maintains the board's row ranges, formulas and sort order.
// Every public method runs under the sheet lock because the board service
// has no transactions: each operation is read state, compute range, write.
type Synchronizer struct {
	client Client
	locks  Locker
	sheet  string
}

func NewSynchronizer(client Client, locks Locker, sheet string) *Synchronizer {
	return &Synchronizer{client: client, locks: locks, sheet: sheet}
}

// HeaderEntry is the data rendered into a contract header row.
type HeaderEntry struct {
	ProjectOurID  string
	ContractOurID string
	ContractID    string
	ContractName  string
}

func HeaderFor(c store.Contract, projectOurID string) HeaderEntry {
	return HeaderEntry{
		ProjectOurID:  projectOurID,
		ContractOurID: c.OurID,
		ContractID:    c.ID,
		ContractName:  c.Name,
	}
}

// compositeKey is the fixed sort order of the data region: contracts stay
// contiguous, their tasks grouped by milestone type, case type and owner.
var compositeKey = []SortSpec{
	{Column: ColProjectOurID},
	{Column: ColContractOurID},
	{Column: ColContractDBID},
	{Column: ColMilestoneTypeID},
	{Column: ColCaseTypeID},
	{Column: ColOwnerName},
}

func (s *Synchronizer) AddContract(ctx context.Context, h HeaderEntry) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		if err := s.ensureHeader(ctx, h); err != nil {
			return err
		}
		values, err := s.restoreOrder(ctx)
		if err != nil {
			return err
		}
		return s.syncSummary(ctx, values)
	})
}

func (s *Synchronizer) AddTask(ctx context.Context, task store.BoardTask) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		if err := s.ensureTask(ctx, task); err != nil {
			return err
		}
		values, err := s.restoreOrder(ctx)
		if err != nil {
			return err
		}
		return s.syncSummary(ctx, values)
	})
}

func (s *Synchronizer) UpdateTask(ctx context.Context, task store.BoardTask) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		values, err := s.client.GetValues(ctx, s.sheet)
		if err != nil {
			return fmt.Errorf("read board: %w", err)
		}
		row := FirstRow(values, ColTaskID, task.TaskID)
		if row == -1 {
			return fmt.Errorf("task %s: %w", task.TaskID, ErrRowMissing)
		}
		if err := s.writeTaskCells(ctx, row, task); err != nil {
			return err
		}
		values, err = s.restoreOrder(ctx)
		if err != nil {
			return err
		}
		return s.syncSummary(ctx, values)
	})
}

// RemoveByKey deletes the contiguous row range owned by key in col. The
// summary block is brought back in line in the same critical section.
func (s *Synchronizer) RemoveByKey(ctx context.Context, col int, key string) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		values, err := s.client.GetValues(ctx, s.sheet)
		if err != nil {
			return fmt.Errorf("read board: %w", err)
		}
		start, end, ok := KeyRange(values, col, key)
		if !ok {
			return nil
		}
		if err := s.client.DeleteRows(ctx, s.sheet, start, end+1); err != nil {
			return fmt.Errorf("delete rows %d-%d: %w", start, end, err)
		}
		values, err = s.restoreOrder(ctx)
		if err != nil {
			return err
		}
		return s.syncSummary(ctx, values)
	})
}

// Resync makes the board match the database for one contract: header first,
// then every visible task, then a single sort and formula pass. Existing
// rows are updated in place, so resync never duplicates. Rows of tasks that
// have turned invisible since the last sync are removed.
func (s *Synchronizer) Resync(ctx context.Context, h HeaderEntry, tasks []store.BoardTask) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		if err := s.ensureHeader(ctx, h); err != nil {
			return err
		}
		for _, task := range tasks {
			if !TaskVisible(task.Status, task.OwnerID, task.OwnerRoleRank) {
				if err := s.removeTaskRow(ctx, task.TaskID); err != nil {
					return err
				}
				continue
			}
			if err := s.ensureTask(ctx, task); err != nil {
				return err
			}
		}
		values, err := s.restoreOrder(ctx)
		if err != nil {
			return err
		}
		return s.syncSummary(ctx, values)
	})
}

// RebuildSummary recomputes the per-person aggregate columns from scratch.
func (s *Synchronizer) RebuildSummary(ctx context.Context) error {
	return s.locks.WithLock(ctx, s.sheet, func(ctx context.Context) error {
		values, err := s.client.GetValues(ctx, s.sheet)
		if err != nil {
			return fmt.Errorf("read board: %w", err)
		}
		return s.rebuildSummary(ctx, values)
	})
}

// ensureHeader inserts the contract header row immediately above the first
// data row, copying formatting from the row it displaced. Idempotent.
func (s *Synchronizer) ensureHeader(ctx context.Context, h HeaderEntry) error {
	values, err := s.client.GetValues(ctx, s.sheet)
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	if row := FirstRow(values, ColContractDBID, h.ContractID); row != -1 {
		// Header already present: rewrite its literal cells so renames and
		// identifier changes propagate.
		data := headerValues(h)[:ColOwnerName+1]
		if err := s.client.UpdateValues(ctx, s.sheet, row, 0, [][]string{data}); err != nil {
			return fmt.Errorf("update header row %d: %w", row, err)
		}
		return nil
	}
	if err := s.client.InsertRows(ctx, s.sheet, firstDataRow, firstDataRow+1); err != nil {
		return fmt.Errorf("insert header row: %w", err)
	}
	if len(values) > firstDataRow {
		// The displaced first data row is the format template.
		if err := s.client.CopyFormat(ctx, s.sheet, firstDataRow+1, firstDataRow, firstDataRow+1); err != nil {
			return fmt.Errorf("copy header format: %w", err)
		}
	}
	if err := s.client.UpdateValues(ctx, s.sheet, firstDataRow, 0, [][]string{headerValues(h)}); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	return nil
}

// ensureTask inserts the task at the end of its contract's range, or
// rewrites the data cells if the row already exists.
func (s *Synchronizer) ensureTask(ctx context.Context, task store.BoardTask) error {
	values, err := s.client.GetValues(ctx, s.sheet)
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	_, end, ok := KeyRange(values, ColContractDBID, task.ContractID)
	if !ok {
		return fmt.Errorf("contract %s: %w", task.ContractID, ErrHeaderMissing)
	}
	if row := FirstRow(values, ColTaskID, task.TaskID); row != -1 {
		return s.writeTaskCells(ctx, row, task)
	}
	insertAt := end + 1
	if err := s.client.InsertRows(ctx, s.sheet, insertAt, insertAt+1); err != nil {
		return fmt.Errorf("insert task row: %w", err)
	}
	if err := s.client.CopyFormat(ctx, s.sheet, end, insertAt, insertAt+1); err != nil {
		return fmt.Errorf("copy task format: %w", err)
	}
	if err := s.client.UpdateValues(ctx, s.sheet, insertAt, 0, [][]string{taskValues(task)}); err != nil {
		return fmt.Errorf("write task row: %w", err)
	}
	return nil
}

// writeTaskCells rewrites the literal data cells of an existing row. The
// hours columns are left alone: planned and consumed time is entered on the
// board itself.
func (s *Synchronizer) writeTaskCells(ctx context.Context, row int, task store.BoardTask) error {
	data := taskValues(task)[:ColOwnerName+1]
	if err := s.client.UpdateValues(ctx, s.sheet, row, 0, [][]string{data}); err != nil {
		return fmt.Errorf("update task row %d: %w", row, err)
	}
	return nil
}

// removeTaskRow deletes a single task row if present. No-op when the task
// was never projected.
func (s *Synchronizer) removeTaskRow(ctx context.Context, taskID string) error {
	values, err := s.client.GetValues(ctx, s.sheet)
	if err != nil {
		return fmt.Errorf("read board: %w", err)
	}
	row := FirstRow(values, ColTaskID, taskID)
	if row == -1 {
		return nil
	}
	if err := s.client.DeleteRows(ctx, s.sheet, row, row+1); err != nil {
		return fmt.Errorf("delete task row %d: %w", row, err)
	}
	return nil
}

// restoreOrder re-sorts the data region by the composite key and then
// regenerates every position-dependent formula. The sort is bounded to the
// data rows and data columns: the summary block shares rows with the top of
// the data region and must never move with it. Formulas are only written
// once the board is stable so they never reference stale positions.
func (s *Synchronizer) restoreOrder(ctx context.Context) ([][]string, error) {
	values, err := s.client.GetValues(ctx, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	if end := dataRowEnd(values); end > firstDataRow+1 {
		if err := s.client.SortRange(ctx, s.sheet, firstDataRow, end, 0, dataColCount, compositeKey); err != nil {
			return nil, fmt.Errorf("sort board: %w", err)
		}
		values, err = s.client.GetValues(ctx, s.sheet)
		if err != nil {
			return nil, fmt.Errorf("reread board: %w", err)
		}
	}
	if err := s.regenerateFormulas(ctx, values); err != nil {
		return nil, err
	}
	return values, nil
}

package board

import (
	"context"
	"fmt"

	"planroom/api/internal/cell"
	"planroom/api/internal/store"
)

func headerValues(h HeaderEntry) []string {
	row := make([]string, dataColCount)
	row[ColProjectOurID] = h.ProjectOurID
	row[ColContractOurID] = h.ContractOurID
	row[ColContractDBID] = h.ContractID
	row[ColTaskName] = h.ContractName
	return row
}

func taskValues(task store.BoardTask) []string {
	row := make([]string, dataColCount)
	row[ColProjectOurID] = task.ProjectOurID
	row[ColContractOurID] = task.ContractOurID
	row[ColContractDBID] = task.ContractID
	row[ColMilestoneTypeID] = task.MilestoneTypeID
	row[ColCaseTypeID] = task.CaseTypeID
	if task.OwnerID != nil {
		row[ColOwnerID] = *task.OwnerID
	}
	row[ColTaskID] = task.TaskID
	row[ColTaskName] = task.Name
	if task.Deadline != nil {
		row[ColDeadline] = task.Deadline.Format("2006-01-02")
	}
	row[ColStatus] = task.Status
	row[ColOwnerName] = task.OwnerName
	return row
}

// hoursLeftFormula computes remaining time as planned minus consumed for a
// task row (zero-based index).
func hoursLeftFormula(row int) string {
	return fmt.Sprintf("=%s-%s",
		cell.FromIndex(row, ColHoursPlanned),
		cell.FromIndex(row, ColHoursConsumed))
}

// headerSumFormula totals one hours column over a contract's task rows.
func headerSumFormula(col, firstTaskRow, lastTaskRow int) string {
	return fmt.Sprintf("=SUM(%s:%s)",
		cell.FromIndex(firstTaskRow, col),
		cell.FromIndex(lastTaskRow, col))
}

// regenerateFormulas rewrites every position-dependent formula in the data
// region: per-task remaining time and per-contract sums. Formulas are always
// generated whole, never patched.
func (s *Synchronizer) regenerateFormulas(ctx context.Context, values [][]string) error {
	for i := firstDataRow; i < len(values); i++ {
		row := values[i]
		if isHeaderRow(row) {
			first, last := taskRowsOf(values, i)
			sums := make([]string, ColMeetings-ColHoursPlanned+1)
			for col := ColHoursPlanned; col <= ColMeetings; col++ {
				if first == -1 {
					sums[col-ColHoursPlanned] = "0"
					continue
				}
				sums[col-ColHoursPlanned] = headerSumFormula(col, first, last)
			}
			if err := s.client.UpdateValues(ctx, s.sheet, i, ColHoursPlanned, [][]string{sums}); err != nil {
				return fmt.Errorf("write header formulas row %d: %w", i, err)
			}
			continue
		}
		if cellAt(values, i, ColTaskID) == "" {
			continue
		}
		formula := [][]string{{hoursLeftFormula(i)}}
		if err := s.client.UpdateValues(ctx, s.sheet, i, ColHoursLeft, formula); err != nil {
			return fmt.Errorf("write task formula row %d: %w", i, err)
		}
	}
	return nil
}

// taskRowsOf returns the zero-based first and last task rows following a
// contract header, or (-1, -1) when the contract has none. Task rows follow
// their header contiguously thanks to the composite sort.
func taskRowsOf(values [][]string, headerRow int) (first, last int) {
	contractID := cellAt(values, headerRow, ColContractDBID)
	first, last = -1, -1
	for i := headerRow + 1; i < len(values); i++ {
		if cellAt(values, i, ColContractDBID) != contractID {
			break
		}
		if cellAt(values, i, ColTaskID) == "" {
			continue
		}
		if first == -1 {
			first = i
		}
		last = i
	}
	return first, last
}

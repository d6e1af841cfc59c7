package board

import (
	"context"
	"fmt"
	"sort"

	"planroom/api/internal/cell"
)

// Summary block layout, one column per person to the right of the data
// columns, preceded by a label column.
const (
	sumRowName = iota
	sumRowHoursLeft
	sumRowAssigned
	sumRowAvailable
	sumRowMonday
	sumRowTuesday
	sumRowWednesday
	sumRowThursday
	sumRowFriday
	sumRowMeetings
	sumRowTotal

	summaryRowCount
)

var summaryLabels = []string{
	"", "Hours left", "Assigned", "Available",
	"Mon", "Tue", "Wed", "Thu", "Fri",
	"Meetings", "Total",
}

type boardPerson struct {
	id   string
	name string
}

// syncSummary keeps the summary block consistent after a structural change:
// rebuilt while the board is small enough to carry one, removed once the
// header count reaches the threshold. Every structural change moves rows or
// grows the data extent, so the block's formulas are stale either way.
func (s *Synchronizer) syncSummary(ctx context.Context, values [][]string) error {
	if headerCount(values) < summaryRebuildThreshold {
		return s.rebuildSummary(ctx, values)
	}
	return s.removeSummary(ctx, values)
}

// removeSummary drops the summary columns, if any are present.
func (s *Synchronizer) removeSummary(ctx context.Context, values [][]string) error {
	width := summaryWidth(values)
	if width == 0 {
		return nil
	}
	if err := s.client.DeleteColumns(ctx, s.sheet, dataColCount, dataColCount+width); err != nil {
		return fmt.Errorf("delete summary columns: %w", err)
	}
	return nil
}

// summaryWidth is the number of columns the current summary block occupies.
func summaryWidth(values [][]string) int {
	width := 0
	for _, row := range values {
		if extra := len(row) - dataColCount; extra > width {
			width = extra
		}
	}
	return width
}

// rebuildSummary deletes the whole summary block and regenerates it for the
// owners currently on the board. All formulas are rewritten, none patched.
func (s *Synchronizer) rebuildSummary(ctx context.Context, values [][]string) error {
	people := boardOwners(values)

	if err := s.removeSummary(ctx, values); err != nil {
		return err
	}
	if err := s.client.InsertColumns(ctx, s.sheet, dataColCount, dataColCount+1+len(people)); err != nil {
		return fmt.Errorf("insert summary columns: %w", err)
	}

	labels := make([][]string, summaryRowCount)
	for i, label := range summaryLabels {
		labels[i] = []string{label}
	}
	if err := s.client.UpdateValues(ctx, s.sheet, 0, dataColCount, labels); err != nil {
		return fmt.Errorf("write summary labels: %w", err)
	}

	lastDataRow := dataRowEnd(values)
	for i, person := range people {
		col := dataColCount + 1 + i
		column := summaryColumn(person, col, lastDataRow)
		if err := s.client.UpdateValues(ctx, s.sheet, 0, col, column); err != nil {
			return fmt.Errorf("write summary for %s: %w", person.name, err)
		}
	}
	return nil
}

func summaryColumn(person boardPerson, col, lastDataRow int) [][]string {
	ownerRange := absRange(2, ColOwnerID, lastDataRow)

	column := make([][]string, summaryRowCount)
	column[sumRowName] = []string{person.name}
	column[sumRowHoursLeft] = []string{sumIf(ownerRange, person.id, absRange(2, ColHoursLeft, lastDataRow))}
	column[sumRowAssigned] = []string{sumIf(ownerRange, person.id, absRange(2, ColHoursPlanned, lastDataRow))}
	column[sumRowAvailable] = []string{fmt.Sprintf("=%d-%s", weeklyCapacityHours, cell.FromIndex(sumRowAssigned, col))}
	for day := 0; day < 5; day++ {
		dayRange := absRange(2, ColMonday+day, lastDataRow)
		column[sumRowMonday+day] = []string{sumIf(ownerRange, person.id, dayRange)}
	}
	column[sumRowMeetings] = []string{sumIf(ownerRange, person.id, absRange(2, ColMeetings, lastDataRow))}
	column[sumRowTotal] = []string{fmt.Sprintf("=SUM(%s:%s)+%s",
		cell.FromIndex(sumRowMonday, col),
		cell.FromIndex(sumRowFriday, col),
		cell.FromIndex(sumRowMeetings, col))}
	return column
}

func sumIf(keyRange, key, valueRange string) string {
	return fmt.Sprintf(`=SUMIF(%s,"%s",%s)`, keyRange, key, valueRange)
}

// absRange renders "$X$first:$X$last" for a zero-based column index.
func absRange(firstRow, colIdx, lastRow int) string {
	return cell.AbsAddress(firstRow, colIdx+1, true, true) + ":" +
		cell.AbsAddress(lastRow, colIdx+1, true, true)
}

// boardOwners collects the distinct task owners present in the data region,
// ordered by name for a stable column layout.
func boardOwners(values [][]string) []boardPerson {
	seen := make(map[string]string)
	for i := firstDataRow; i < len(values); i++ {
		id := cellAt(values, i, ColOwnerID)
		if id == "" || cellAt(values, i, ColTaskID) == "" {
			continue
		}
		seen[id] = cellAt(values, i, ColOwnerName)
	}
	people := make([]boardPerson, 0, len(seen))
	for id, name := range seen {
		people = append(people, boardPerson{id: id, name: name})
	}
	sort.Slice(people, func(i, j int) bool {
		if people[i].name == people[j].name {
			return people[i].id < people[j].id
		}
		return people[i].name < people[j].name
	})
	return people
}

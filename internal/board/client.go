// Package board keeps the operational board a faithful projection of the
// database: one header row per contract followed by that contract's task
// rows, grouped by milestone and case type.
package board

import "context"

// SortSpec names a zero-based column and direction for a range sort.
type SortSpec struct {
	Column     int
	Descending bool
}

// Client is the capability interface over the tabular board service. The
// live implementation is an external collaborator; all coordinates are
// zero-based and ranges are half-open [start, end).
type Client interface {
	GetValues(ctx context.Context, sheet string) ([][]string, error)
	UpdateValues(ctx context.Context, sheet string, startRow, startCol int, values [][]string) error
	InsertRows(ctx context.Context, sheet string, start, end int) error
	DeleteRows(ctx context.Context, sheet string, start, end int) error
	InsertColumns(ctx context.Context, sheet string, start, end int) error
	DeleteColumns(ctx context.Context, sheet string, start, end int) error
	SortRange(ctx context.Context, sheet string, startRow, endRow, startCol, endCol int, specs []SortSpec) error
	CopyFormat(ctx context.Context, sheet string, srcRow, dstStart, dstEnd int) error
	ClearValues(ctx context.Context, sheet string, startRow, endRow, startCol, endCol int) error
}

// Locker serializes board operations per sheet. Every public synchronizer
// method runs its read-compute-write sequence under the sheet's lock.
type Locker interface {
	WithLock(ctx context.Context, scope string, fn func(ctx context.Context) error) error
}

// Column layout of the board. The first six columns are hidden key columns
// the formulas and sorts are driven by.
const (
	ColProjectOurID = iota
	ColContractOurID
	ColContractDBID
	ColMilestoneTypeID
	ColCaseTypeID
	ColOwnerID
	ColTaskID
	ColTaskName
	ColDeadline
	ColStatus
	ColOwnerName
	ColHoursPlanned
	ColHoursConsumed
	ColHoursLeft
	ColMonday
	ColTuesday
	ColWednesday
	ColThursday
	ColFriday
	ColMeetings

	dataColCount
)

// firstDataRow is the zero-based index of the first non-header row.
const firstDataRow = 1

// summaryRebuildThreshold is the contract-header count below which the
// per-person summary block must be rebuilt: under this many headers the
// layout assumptions of the summary formulas no longer hold.
const summaryRebuildThreshold = 13

// weeklyCapacityHours feeds the "available" summary row.
const weeklyCapacityHours = 40

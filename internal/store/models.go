package store

import "time"

// ContractKindOwn contracts carry an externally-visible identifier (OurID);
// ContractKindOther contracts may instead link to the owning contract.
const (
	ContractKindOwn   = "own"
	ContractKindOther = "other"
)

const (
	TaskStatusBacklog    = "Backlog"
	TaskStatusInProgress = "In progress"
	TaskStatusDone       = "Done"
)

const ContractStatusArchived = "Archived"

type Project struct {
	ID        string
	OurID     string
	Name      string
	Status    string
	CreatedAt time.Time
}

type Person struct {
	ID       string
	Name     string
	Email    string
	RoleRank int
}

type ContractType struct {
	ID           string
	Name         string
	FolderNumber string
	IsOwn        bool
}

type MilestoneType struct {
	ID                string
	Name              string
	FolderNumber      string
	IsUniquePerParent bool
}

type CaseType struct {
	ID                string
	Name              string
	FolderNumber      string
	IsUniquePerParent bool
}

type Contract struct {
	ID                string
	Kind              string
	OurID             string
	RelatedContractID *string
	ProjectID         string
	TypeID            string
	Name              string
	Comment           string
	StartDate         time.Time
	EndDate           time.Time
	Value             float64
	Status            string
	FolderID          string
	ManagerID         *string
	AdminID           *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ContractRole associates a counterparty entity with a contract under a
// named role (employer, contractor, engineer, ...).
type ContractRole struct {
	ContractID string
	EntityID   string
	Role       string
}

type DateRange struct {
	Start time.Time
	End   time.Time
}

type Milestone struct {
	ID             string
	ContractID     string
	TypeID         string
	SequenceNumber *int
	Name           string
	Status         string
	StartDate      time.Time
	EndDate        time.Time
	FolderID       string
}

type Case struct {
	ID             string
	MilestoneID    string
	TypeID         string
	SequenceNumber *int
	Name           string
	Description    string
	// FolderID is nil for unique-per-milestone case types: their files live
	// directly in the type's folder.
	FolderID *string
}

type Task struct {
	ID       string
	CaseID   string
	Name     string
	Deadline *time.Time
	Status   string
	OwnerID  *string
	// RowKey mirrors the key column value of the task's board row.
	RowKey string
}

// Graphs bundle an entity with the children created in the same transaction.

type ContractGraph struct {
	Contract   Contract
	Roles      []ContractRole
	Milestones []MilestoneGraph
}

type MilestoneGraph struct {
	Milestone  Milestone
	DateRanges []DateRange
	Cases      []CaseGraph
}

type CaseGraph struct {
	Case  Case
	Tasks []Task
}

// Templates drive default-children creation.

type MilestoneTemplate struct {
	TypeID    string
	Name      string
	Status    string
	StartDays int
	EndDays   int
}

type CaseTemplate struct {
	TypeID string
	Name   string
}

type TaskTemplate struct {
	Name   string
	Status string
}

// BoardTask is the joined view the board synchronizer renders a row from.
type BoardTask struct {
	TaskID          string
	Name            string
	Status          string
	Deadline        *time.Time
	OwnerID         *string
	OwnerName       string
	OwnerEmail      string
	OwnerRoleRank   int
	CaseID          string
	CaseTypeID      string
	MilestoneID     string
	MilestoneTypeID string
	ContractID      string
	ContractOurID   string
	ProjectOurID    string
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"planroom/api/internal/board"
	"planroom/api/internal/config"
	"planroom/api/internal/folders"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
)

// Session is the opaque credential threaded through the three stores. It is
// minted by the upstream auth collaborator; this service only reads it.
type Session struct {
	UserID   string
	UserName string
	Email    string
	RoleRank int
}

// Warning carries structured context about a post-commit store failure so
// the caller can retry the folder/board step independently. The database
// state it refers to is committed and authoritative.
type Warning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	EntityID string `json:"entityId"`
}

const (
	warnBoardSync    = "BOARD_SYNC_FAILED"
	warnFolderSync   = "FOLDER_SYNC_FAILED"
	warnConsistency  = "BOARD_NOT_SYNCHRONIZED"
	warnFolderOrphan = "FOLDER_CLEANUP_FAILED"
)

type dataStore interface {
	Ping(ctx context.Context) error

	GetProject(ctx context.Context, id string) (store.Project, error)
	GetPerson(ctx context.Context, id string) (store.Person, error)
	GetContractType(ctx context.Context, id string) (store.ContractType, error)
	GetMilestoneType(ctx context.Context, id string) (store.MilestoneType, error)
	GetCaseType(ctx context.Context, id string) (store.CaseType, error)
	GetContract(ctx context.Context, id string) (store.Contract, error)
	GetMilestone(ctx context.Context, id string) (store.Milestone, error)
	GetCase(ctx context.Context, id string) (store.Case, error)
	GetTask(ctx context.Context, id string) (store.Task, error)

	ContractOurIDExists(ctx context.Context, ourID string) (bool, error)
	MilestoneTypeExists(ctx context.Context, contractID, typeID string) (bool, error)
	CaseTypeExists(ctx context.Context, milestoneID, typeID string) (bool, error)

	NextMilestoneNumber(ctx context.Context, contractID, typeID string) (int, error)
	NextCaseNumber(ctx context.Context, milestoneID, typeID string) (int, error)

	DefaultMilestones(ctx context.Context, contractTypeID string) ([]store.MilestoneTemplate, error)
	DefaultCases(ctx context.Context, milestoneTypeID string) ([]store.CaseTemplate, error)
	DefaultTasks(ctx context.Context, caseTypeID string) ([]store.TaskTemplate, error)

	CreateContractGraph(ctx context.Context, g store.ContractGraph) error
	CreateMilestoneGraph(ctx context.Context, g store.MilestoneGraph) error
	CreateCaseGraph(ctx context.Context, g store.CaseGraph) error
	CreateTask(ctx context.Context, t store.Task) error

	UpdateContract(ctx context.Context, c store.Contract, fields []string) error
	UpdateMilestone(ctx context.Context, m store.Milestone, fields []string) error
	UpdateCase(ctx context.Context, c store.Case, fields []string) error
	UpdateTask(ctx context.Context, t store.Task, fields []string) error

	DeleteContract(ctx context.Context, id string) error
	DeleteMilestone(ctx context.Context, id string) error
	DeleteCase(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error

	ContractFolderIDs(ctx context.Context, contractID string) ([]string, error)
	MilestoneFolderIDs(ctx context.Context, milestoneID string) ([]string, error)
	ContractBoardTasks(ctx context.Context, contractID string) ([]store.BoardTask, error)
	BoardTaskByID(ctx context.Context, taskID string) (store.BoardTask, error)
}

type folderMirror interface {
	EnsureFolder(ctx context.Context, parentID, name string) (string, error)
	Rename(ctx context.Context, id, name string) error
	SoftDelete(ctx context.Context, id, displayName string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type boardSync interface {
	AddContract(ctx context.Context, h board.HeaderEntry) error
	AddTask(ctx context.Context, task store.BoardTask) error
	UpdateTask(ctx context.Context, task store.BoardTask) error
	RemoveByKey(ctx context.Context, col int, key string) error
	Resync(ctx context.Context, h board.HeaderEntry, tasks []store.BoardTask) error
	RebuildSummary(ctx context.Context) error
}

type searchIndexer interface {
	IndexContract(record search.ContractRecord)
	IndexTask(record search.TaskRecord)
	DeleteContract(id string)
	DeleteTask(id string)
}

// Service is the entity lifecycle orchestrator. Creation order is fixed:
// folder first, then the database transaction, then the board projection.
// The database is the system of record; folder and board failures after a
// commit are warnings, not rollbacks.
type Service struct {
	cfg     config.Config
	store   dataStore
	folders folderMirror
	board   boardSync
	search  searchIndexer
}

func New(cfg config.Config, dataStore *store.PostgresStore, mirror *folders.Manager, sync *board.Synchronizer, searchService *search.Service) *Service {
	return &Service{
		cfg:     cfg,
		store:   dataStore,
		folders: mirror,
		board:   sync,
		search:  searchService,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Read-through accessors for the HTTP layer.

func (s *Service) GetContract(ctx context.Context, id string) (store.Contract, error) {
	return s.store.GetContract(ctx, id)
}

func (s *Service) GetMilestone(ctx context.Context, id string) (store.Milestone, error) {
	return s.store.GetMilestone(ctx, id)
}

func (s *Service) GetCase(ctx context.Context, id string) (store.Case, error) {
	return s.store.GetCase(ctx, id)
}

func (s *Service) GetTask(ctx context.Context, id string) (store.Task, error) {
	return s.store.GetTask(ctx, id)
}

// contractVisibility gathers the inputs of the contract board predicate.
func (s *Service) contractVisibility(ctx context.Context, c store.Contract) (board.ContractVisibility, error) {
	v := board.ContractVisibility{Kind: c.Kind, Status: c.Status}
	if c.ManagerID != nil {
		manager, err := s.store.GetPerson(ctx, *c.ManagerID)
		if err != nil {
			return v, fmt.Errorf("load contract manager: %w", err)
		}
		v.HasManager = true
		v.ManagerRoleRank = manager.RoleRank
		v.ManagerEmail = manager.Email
	}
	if c.AdminID != nil {
		admin, err := s.store.GetPerson(ctx, *c.AdminID)
		if err != nil {
			return v, fmt.Errorf("load contract admin: %w", err)
		}
		v.HasAdmin = true
		v.AdminRoleRank = admin.RoleRank
	}
	return v, nil
}

// ResyncBoard re-projects one contract onto the board. It is the self-heal
// path after a partial failure: the database rows already exist, so this
// only adds or updates board rows, never duplicating anything.
func (s *Service) ResyncBoard(ctx context.Context, contractID string, session Session) error {
	contract, err := s.store.GetContract(ctx, contractID)
	if errors.Is(err, store.ErrNotFound) {
		return notFoundError("contract not found")
	}
	if err != nil {
		return err
	}

	visibility, err := s.contractVisibility(ctx, contract)
	if err != nil {
		return err
	}
	if !board.ContractVisible(visibility) {
		if err := s.board.RemoveByKey(ctx, board.ColContractDBID, contract.ID); err != nil {
			return externalServiceError("board cleanup failed", Warning{
				Code: warnBoardSync, Message: err.Error(), EntityID: contract.ID,
			})
		}
		return nil
	}

	project, err := s.store.GetProject(ctx, contract.ProjectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	tasks, err := s.store.ContractBoardTasks(ctx, contract.ID)
	if err != nil {
		return err
	}
	if err := s.board.Resync(ctx, board.HeaderFor(contract, project.OurID), tasks); err != nil {
		return externalServiceError("board resync failed", Warning{
			Code: warnBoardSync, Message: err.Error(), EntityID: contract.ID,
		})
	}
	return nil
}

// resyncContractQuiet is the internal consistency fallback: when the board
// reports a missing header the orchestrator re-creates the contract's whole
// projection instead of failing the request.
func (s *Service) resyncContractQuiet(ctx context.Context, contractID string) *Warning {
	contract, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return &Warning{Code: warnConsistency, Message: err.Error(), EntityID: contractID}
	}
	visibility, err := s.contractVisibility(ctx, contract)
	if err != nil {
		return &Warning{Code: warnConsistency, Message: err.Error(), EntityID: contractID}
	}
	if !board.ContractVisible(visibility) {
		if err := s.board.RemoveByKey(ctx, board.ColContractDBID, contract.ID); err != nil {
			return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: contractID}
		}
		return nil
	}
	project, err := s.store.GetProject(ctx, contract.ProjectID)
	if err != nil {
		return &Warning{Code: warnConsistency, Message: err.Error(), EntityID: contractID}
	}
	tasks, err := s.store.ContractBoardTasks(ctx, contract.ID)
	if err != nil {
		return &Warning{Code: warnConsistency, Message: err.Error(), EntityID: contractID}
	}
	if err := s.board.Resync(ctx, board.HeaderFor(contract, project.OurID), tasks); err != nil {
		log.Printf("app: board resync for contract %s failed: %v", contractID, err)
		return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: contractID}
	}
	return nil
}

// pushTask projects one task onto the board according to the visibility
// predicate. A missing contract header is treated as "not yet synchronized"
// and triggers the full resync fallback.
func (s *Service) pushTask(ctx context.Context, task store.BoardTask) *Warning {
	if !board.TaskVisible(task.Status, task.OwnerID, task.OwnerRoleRank) {
		if err := s.board.RemoveByKey(ctx, board.ColTaskID, task.TaskID); err != nil {
			log.Printf("app: board removal for task %s failed: %v", task.TaskID, err)
			return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: task.TaskID}
		}
		return nil
	}
	err := s.board.AddTask(ctx, task)
	if errors.Is(err, board.ErrHeaderMissing) {
		log.Printf("app: contract %s not on board yet, resyncing", task.ContractID)
		return s.resyncContractQuiet(ctx, task.ContractID)
	}
	if err != nil {
		log.Printf("app: board sync for task %s failed: %v", task.TaskID, err)
		return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: task.TaskID}
	}
	return nil
}

// compensateFolders undoes folder creation after a failed database
// transaction, deepest first. Failures here are logged only: the folders are
// orphans at worst, the database saw nothing.
func (s *Service) compensateFolders(ctx context.Context, created []createdFolder) {
	for i := len(created) - 1; i >= 0; i-- {
		f := created[i]
		if err := s.folders.SoftDelete(ctx, f.id, f.name); err != nil {
			log.Printf("app: folder compensation for %s (%s) failed: %v", f.id, f.name, err)
		}
	}
}

type createdFolder struct {
	id   string
	name string
}

// gather runs independent post-commit steps concurrently and collects their
// warnings.
func gather(steps ...func() *Warning) []Warning {
	var wg sync.WaitGroup
	results := make([]*Warning, len(steps))
	for i, step := range steps {
		wg.Add(1)
		go func(i int, step func() *Warning) {
			defer wg.Done()
			results[i] = step()
		}(i, step)
	}
	wg.Wait()

	var warnings []Warning
	for _, w := range results {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return warnings
}

func fieldsTouchOnly(fields, allowed []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, field := range fields {
		found := false
		for _, ok := range allowed {
			if field == ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

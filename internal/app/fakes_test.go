package app

import (
	"context"
	"fmt"
	"sync"

	"planroom/api/internal/board"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
)

// fakeStore satisfies dataStore with per-method overrides. Unset methods
// return zero values or ErrNotFound.
type fakeStore struct {
	mu     sync.Mutex
	pingFn func(ctx context.Context) error

	projects       map[string]store.Project
	persons        map[string]store.Person
	contractTypes  map[string]store.ContractType
	milestoneTypes map[string]store.MilestoneType
	caseTypes      map[string]store.CaseType
	contracts      map[string]store.Contract
	milestones     map[string]store.Milestone
	cases          map[string]store.Case
	tasks          map[string]store.Task

	ourIDExists        bool
	milestoneTypeTaken bool
	caseTypeTaken      bool

	nextMilestoneNumberFn func(contractID, typeID string) (int, error)
	nextCaseNumberFn      func(milestoneID, typeID string) (int, error)

	milestoneTemplates []store.MilestoneTemplate
	caseTemplates      map[string][]store.CaseTemplate
	taskTemplates      map[string][]store.TaskTemplate

	createContractGraphFn  func(g store.ContractGraph) error
	createMilestoneGraphFn func(g store.MilestoneGraph) error
	createCaseGraphFn      func(g store.CaseGraph) error
	createTaskFn           func(t store.Task) error

	updateContractFn  func(c store.Contract, fields []string) error
	updateMilestoneFn func(m store.Milestone, fields []string) error
	updateCaseFn      func(c store.Case, fields []string) error
	updateTaskFn      func(t store.Task, fields []string) error

	deletedContracts  []string
	deletedMilestones []string
	deletedCases      []string
	deletedTasks      []string

	contractFolderIDs  []string
	milestoneFolderIDs []string
	boardTasks         []store.BoardTask

	createdContractGraphs  []store.ContractGraph
	createdMilestoneGraphs []store.MilestoneGraph
	createdCaseGraphs      []store.CaseGraph
	createdTasks           []store.Task
	updatedContractFields  [][]string
	updatedMilestoneFields [][]string
	updatedTaskFields      [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:       map[string]store.Project{},
		persons:        map[string]store.Person{},
		contractTypes:  map[string]store.ContractType{},
		milestoneTypes: map[string]store.MilestoneType{},
		caseTypes:      map[string]store.CaseType{},
		contracts:      map[string]store.Contract{},
		milestones:     map[string]store.Milestone{},
		cases:          map[string]store.Case{},
		tasks:          map[string]store.Task{},
		caseTemplates:  map[string][]store.CaseTemplate{},
		taskTemplates:  map[string][]store.TaskTemplate{},
	}
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (store.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.projects[id]
	if !ok {
		return store.Project{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetPerson(ctx context.Context, id string) (store.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.persons[id]
	if !ok {
		return store.Person{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetContractType(ctx context.Context, id string) (store.ContractType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.contractTypes[id]
	if !ok {
		return store.ContractType{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetMilestoneType(ctx context.Context, id string) (store.MilestoneType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.milestoneTypes[id]
	if !ok {
		return store.MilestoneType{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetCaseType(ctx context.Context, id string) (store.CaseType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.caseTypes[id]
	if !ok {
		return store.CaseType{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetContract(ctx context.Context, id string) (store.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.contracts[id]
	if !ok {
		return store.Contract{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetMilestone(ctx context.Context, id string) (store.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.milestones[id]
	if !ok {
		return store.Milestone{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetCase(ctx context.Context, id string) (store.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.cases[id]
	if !ok {
		return store.Case{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (store.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.tasks[id]
	if !ok {
		return store.Task{}, store.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) ContractOurIDExists(ctx context.Context, ourID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ourIDExists, nil
}

func (f *fakeStore) MilestoneTypeExists(ctx context.Context, contractID, typeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.milestoneTypeTaken, nil
}

func (f *fakeStore) CaseTypeExists(ctx context.Context, milestoneID, typeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caseTypeTaken, nil
}

func (f *fakeStore) NextMilestoneNumber(ctx context.Context, contractID, typeID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextMilestoneNumberFn != nil {
		return f.nextMilestoneNumberFn(contractID, typeID)
	}
	return 1, nil
}

func (f *fakeStore) NextCaseNumber(ctx context.Context, milestoneID, typeID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextCaseNumberFn != nil {
		return f.nextCaseNumberFn(milestoneID, typeID)
	}
	return 1, nil
}

func (f *fakeStore) DefaultMilestones(ctx context.Context, contractTypeID string) ([]store.MilestoneTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.milestoneTemplates, nil
}

func (f *fakeStore) DefaultCases(ctx context.Context, milestoneTypeID string) ([]store.CaseTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caseTemplates[milestoneTypeID], nil
}

func (f *fakeStore) DefaultTasks(ctx context.Context, caseTypeID string) ([]store.TaskTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.taskTemplates[caseTypeID], nil
}

func (f *fakeStore) CreateContractGraph(ctx context.Context, g store.ContractGraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createContractGraphFn != nil {
		if err := f.createContractGraphFn(g); err != nil {
			return err
		}
	}
	f.createdContractGraphs = append(f.createdContractGraphs, g)
	f.contracts[g.Contract.ID] = g.Contract
	return nil
}

func (f *fakeStore) CreateMilestoneGraph(ctx context.Context, g store.MilestoneGraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMilestoneGraphFn != nil {
		if err := f.createMilestoneGraphFn(g); err != nil {
			return err
		}
	}
	f.createdMilestoneGraphs = append(f.createdMilestoneGraphs, g)
	f.milestones[g.Milestone.ID] = g.Milestone
	return nil
}

func (f *fakeStore) CreateCaseGraph(ctx context.Context, g store.CaseGraph) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createCaseGraphFn != nil {
		if err := f.createCaseGraphFn(g); err != nil {
			return err
		}
	}
	f.createdCaseGraphs = append(f.createdCaseGraphs, g)
	f.cases[g.Case.ID] = g.Case
	return nil
}

func (f *fakeStore) CreateTask(ctx context.Context, t store.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTaskFn != nil {
		if err := f.createTaskFn(t); err != nil {
			return err
		}
	}
	f.createdTasks = append(f.createdTasks, t)
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateContract(ctx context.Context, c store.Contract, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateContractFn != nil {
		if err := f.updateContractFn(c, fields); err != nil {
			return err
		}
	}
	f.updatedContractFields = append(f.updatedContractFields, fields)
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateMilestone(ctx context.Context, m store.Milestone, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateMilestoneFn != nil {
		if err := f.updateMilestoneFn(m, fields); err != nil {
			return err
		}
	}
	f.updatedMilestoneFields = append(f.updatedMilestoneFields, fields)
	f.milestones[m.ID] = m
	return nil
}

func (f *fakeStore) UpdateCase(ctx context.Context, c store.Case, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateCaseFn != nil {
		if err := f.updateCaseFn(c, fields); err != nil {
			return err
		}
	}
	f.cases[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t store.Task, fields []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateTaskFn != nil {
		if err := f.updateTaskFn(t, fields); err != nil {
			return err
		}
	}
	f.updatedTaskFields = append(f.updatedTaskFields, fields)
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) DeleteContract(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedContracts = append(f.deletedContracts, id)
	delete(f.contracts, id)
	return nil
}

func (f *fakeStore) DeleteMilestone(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedMilestones = append(f.deletedMilestones, id)
	delete(f.milestones, id)
	return nil
}

func (f *fakeStore) DeleteCase(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedCases = append(f.deletedCases, id)
	delete(f.cases, id)
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTasks = append(f.deletedTasks, id)
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) ContractFolderIDs(ctx context.Context, contractID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contractFolderIDs, nil
}

func (f *fakeStore) MilestoneFolderIDs(ctx context.Context, milestoneID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.milestoneFolderIDs, nil
}

func (f *fakeStore) ContractBoardTasks(ctx context.Context, contractID string) ([]store.BoardTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boardTasks, nil
}

func (f *fakeStore) BoardTaskByID(ctx context.Context, taskID string) (store.BoardTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.boardTasks {
		if t.TaskID == taskID {
			return t, nil
		}
	}
	return store.BoardTask{}, store.ErrNotFound
}

// fakeMirror records folder operations and hands out deterministic ids.
type fakeMirror struct {
	mu          sync.Mutex
	ensureFn    func(parentID, name string) (string, error)
	ensured     []string
	renamed     map[string]string
	softDeleted []string
	missing     map[string]bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{renamed: map[string]string{}, missing: map[string]bool{}}
}

func (f *fakeMirror) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureFn != nil {
		return f.ensureFn(parentID, name)
	}
	f.ensured = append(f.ensured, name)
	return fmt.Sprintf("folder-%d", len(f.ensured)), nil
}

func (f *fakeMirror) Rename(ctx context.Context, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed[id] = name
	return nil
}

func (f *fakeMirror) SoftDelete(ctx context.Context, id, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.softDeleted = append(f.softDeleted, id)
	return nil
}

func (f *fakeMirror) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.missing[id], nil
}

// fakeBoard records synchronizer calls.
type fakeBoard struct {
	mu          sync.Mutex
	resyncFn    func(h board.HeaderEntry, tasks []store.BoardTask) error
	addTaskFn   func(task store.BoardTask) error
	resyncs     []board.HeaderEntry
	resyncTasks [][]store.BoardTask
	added       []store.BoardTask
	updated     []store.BoardTask
	removals    []string
}

func (f *fakeBoard) AddContract(ctx context.Context, h board.HeaderEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resyncs = append(f.resyncs, h)
	return nil
}

func (f *fakeBoard) AddTask(ctx context.Context, task store.BoardTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addTaskFn != nil {
		return f.addTaskFn(task)
	}
	f.added = append(f.added, task)
	return nil
}

func (f *fakeBoard) UpdateTask(ctx context.Context, task store.BoardTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, task)
	return nil
}

func (f *fakeBoard) RemoveByKey(ctx context.Context, col int, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removals = append(f.removals, fmt.Sprintf("%d:%s", col, key))
	return nil
}

func (f *fakeBoard) Resync(ctx context.Context, h board.HeaderEntry, tasks []store.BoardTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resyncFn != nil {
		return f.resyncFn(h, tasks)
	}
	f.resyncs = append(f.resyncs, h)
	f.resyncTasks = append(f.resyncTasks, tasks)
	return nil
}

func (f *fakeBoard) RebuildSummary(ctx context.Context) error {
	return nil
}

func (f *fakeBoard) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resyncs) + len(f.added) + len(f.updated) + len(f.removals)
}

// fakeIndexer records search projections.
type fakeIndexer struct {
	mu               sync.Mutex
	contracts        []search.ContractRecord
	tasks            []search.TaskRecord
	deletedContracts []string
	deletedTasks     []string
}

func (f *fakeIndexer) IndexContract(record search.ContractRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contracts = append(f.contracts, record)
}

func (f *fakeIndexer) IndexTask(record search.TaskRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, record)
}

func (f *fakeIndexer) DeleteContract(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedContracts = append(f.deletedContracts, id)
}

func (f *fakeIndexer) DeleteTask(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTasks = append(f.deletedTasks, id)
}

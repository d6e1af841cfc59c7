package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planroom/api/internal/board"
	"planroom/api/internal/folders"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
	"planroom/api/internal/util"
)

var milestoneDBOnlyFields = []string{"status", "startDate", "endDate"}

type CreateMilestoneInput struct {
	ContractID string            `json:"contractId"`
	TypeID     string            `json:"typeId"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	StartDate  time.Time         `json:"startDate"`
	EndDate    time.Time         `json:"endDate"`
	DateRanges []store.DateRange `json:"dateRanges"`
}

func (in CreateMilestoneInput) validate() error {
	switch {
	case in.ContractID == "":
		return validationError("contractId is required")
	case in.TypeID == "":
		return validationError("typeId is required")
	case in.Name == "":
		return validationError("name is required")
	case !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate):
		return validationError("endDate precedes startDate")
	}
	return nil
}

// CreateMilestone adds a milestone with its default cases and tasks under an
// existing contract: folder first, then one transaction, then the board.
func (s *Service) CreateMilestone(ctx context.Context, in CreateMilestoneInput, session Session) (store.Milestone, []Warning, error) {
	if err := in.validate(); err != nil {
		return store.Milestone{}, nil, err
	}

	contract, err := s.store.GetContract(ctx, in.ContractID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Milestone{}, nil, validationError("contract not found")
	}
	if err != nil {
		return store.Milestone{}, nil, err
	}
	mtype, err := s.store.GetMilestoneType(ctx, in.TypeID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Milestone{}, nil, validationError("milestone type not found")
	}
	if err != nil {
		return store.Milestone{}, nil, err
	}
	if mtype.IsUniquePerParent {
		exists, err := s.store.MilestoneTypeExists(ctx, contract.ID, mtype.ID)
		if err != nil {
			return store.Milestone{}, nil, err
		}
		if exists {
			return store.Milestone{}, nil, duplicateError("milestone type already present on contract", map[string]string{"typeId": mtype.ID})
		}
	}

	milestone := store.Milestone{
		ID:         util.NewID("mls"),
		ContractID: contract.ID,
		TypeID:     mtype.ID,
		Name:       in.Name,
		Status:     in.Status,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}

	var folderName string
	if mtype.IsUniquePerParent {
		folderName = folders.UniqueTypeFolderName(mtype.FolderNumber, mtype.Name)
	} else {
		number, err := s.store.NextMilestoneNumber(ctx, contract.ID, mtype.ID)
		if err != nil {
			return store.Milestone{}, nil, err
		}
		milestone.SequenceNumber = &number
		folderName = folders.NumberedFolderName(folders.MilestonePrefix, number, milestone.Name)
	}

	var created []createdFolder
	folderID, err := s.folders.EnsureFolder(ctx, contract.FolderID, folderName)
	if err != nil {
		return store.Milestone{}, nil, externalServiceError("milestone folder creation failed", err.Error())
	}
	created = append(created, createdFolder{id: folderID, name: folderName})
	milestone.FolderID = folderID

	cases, err := s.defaultCases(ctx, milestone, &created)
	if err != nil {
		s.compensateFolders(ctx, created)
		return store.Milestone{}, nil, err
	}

	ranges := in.DateRanges
	if len(ranges) == 0 {
		ranges = []store.DateRange{{Start: in.StartDate, End: in.EndDate}}
	}
	graph := store.MilestoneGraph{Milestone: milestone, DateRanges: ranges, Cases: cases}
	if err := s.store.CreateMilestoneGraph(ctx, graph); err != nil {
		s.compensateFolders(ctx, created)
		return store.Milestone{}, nil, fmt.Errorf("persist milestone: %w", err)
	}

	warnings := gather(func() *Warning {
		return s.resyncContractQuiet(ctx, contract.ID)
	})
	for _, cg := range graph.Cases {
		for _, t := range cg.Tasks {
			s.search.IndexTask(search.TaskRecord{
				ID: t.ID, Name: t.Name, Status: t.Status, ContractID: contract.ID,
			})
		}
	}
	return milestone, warnings, nil
}

// EditMilestone applies a field-level update. Switching to a unique-per-parent
// type clears the sequence number and flags the old numbered folder for
// manual file migration.
func (s *Service) EditMilestone(ctx context.Context, payload store.Milestone, fields []string, session Session) (store.Milestone, []Warning, error) {
	existing, err := s.store.GetMilestone(ctx, payload.ID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Milestone{}, nil, notFoundError("milestone not found")
	}
	if err != nil {
		return store.Milestone{}, nil, err
	}
	updated := mergeMilestone(existing, payload, fields)

	mtype, err := s.store.GetMilestoneType(ctx, updated.TypeID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Milestone{}, nil, validationError("milestone type not found")
	}
	if err != nil {
		return store.Milestone{}, nil, err
	}
	if updated.TypeID != existing.TypeID && mtype.IsUniquePerParent {
		exists, err := s.store.MilestoneTypeExists(ctx, existing.ContractID, mtype.ID)
		if err != nil {
			return store.Milestone{}, nil, err
		}
		if exists {
			return store.Milestone{}, nil, duplicateError("milestone type already present on contract", map[string]string{"typeId": mtype.ID})
		}
	}

	migrating := false
	if mtype.IsUniquePerParent && existing.SequenceNumber != nil {
		updated.SequenceNumber = nil
		fields = withField(fields, "sequenceNumber")
		migrating = true
	}

	if err := s.store.UpdateMilestone(ctx, updated, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Milestone{}, nil, notFoundError("milestone not found")
		}
		return store.Milestone{}, nil, err
	}

	if fieldsTouchOnly(fields, milestoneDBOnlyFields) {
		return updated, nil, nil
	}

	warnings := gather(
		func() *Warning {
			return s.syncMilestoneFolder(ctx, existing, updated, mtype, migrating)
		},
		func() *Warning {
			return s.resyncContractQuiet(ctx, existing.ContractID)
		},
	)
	return updated, warnings, nil
}

// mergeMilestone overlays the named fields (or all editable fields when the
// list is empty) from payload onto the stored milestone.
func mergeMilestone(existing, payload store.Milestone, fields []string) store.Milestone {
	merged := existing
	apply := func(field string) {
		switch field {
		case "name":
			merged.Name = payload.Name
		case "status":
			merged.Status = payload.Status
		case "startDate":
			merged.StartDate = payload.StartDate
		case "endDate":
			merged.EndDate = payload.EndDate
		case "typeId":
			merged.TypeID = payload.TypeID
		}
	}
	if len(fields) == 0 {
		fields = []string{"name", "status", "startDate", "endDate", "typeId"}
	}
	for _, f := range fields {
		apply(f)
	}
	return merged
}

// syncMilestoneFolder re-derives the folder name from the edited identity and
// renames, or re-creates the folder when it has gone missing.
func (s *Service) syncMilestoneFolder(ctx context.Context, existing, updated store.Milestone, mtype store.MilestoneType, migrating bool) *Warning {
	name := milestoneFolderName(mtype, updated.SequenceNumber, updated.Name)
	if migrating {
		name += folders.MigrateSuffix
	}

	exists, err := s.folders.Exists(ctx, existing.FolderID)
	if err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	if !exists {
		contract, err := s.store.GetContract(ctx, existing.ContractID)
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		folderID, err := s.folders.EnsureFolder(ctx, contract.FolderID, name)
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		updated.FolderID = folderID
		if err := s.store.UpdateMilestone(ctx, updated, []string{"folderId"}); err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		return nil
	}

	if err := s.folders.Rename(ctx, existing.FolderID, name); err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	return nil
}

func milestoneFolderName(mtype store.MilestoneType, number *int, name string) string {
	if mtype.IsUniquePerParent || number == nil {
		return folders.UniqueTypeFolderName(mtype.FolderNumber, mtype.Name)
	}
	return folders.NumberedFolderName(folders.MilestonePrefix, *number, name)
}

// DeleteMilestone cascades in the database, then cleans folders and board
// rows best effort.
func (s *Service) DeleteMilestone(ctx context.Context, id string, session Session) ([]Warning, error) {
	milestone, err := s.store.GetMilestone(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("milestone not found")
	}
	if err != nil {
		return nil, err
	}

	folderIDs, err := s.store.MilestoneFolderIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	taskIDs, err := s.descendantTaskIDs(ctx, milestone.ContractID, func(t store.BoardTask) bool {
		return t.MilestoneID == id
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteMilestone(ctx, id); err != nil {
		return nil, err
	}

	warnings := gather(
		func() *Warning {
			return s.trashFolders(ctx, milestone.ID, folderIDs)
		},
		func() *Warning {
			return s.removeTaskRows(ctx, milestone.ID, taskIDs)
		},
	)
	for _, taskID := range taskIDs {
		s.search.DeleteTask(taskID)
	}
	return warnings, nil
}

// removeTaskRows removes a pre-fetched list of task rows from the board.
func (s *Service) removeTaskRows(ctx context.Context, entityID string, taskIDs []string) *Warning {
	for _, taskID := range taskIDs {
		if err := s.board.RemoveByKey(ctx, board.ColTaskID, taskID); err != nil {
			return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: entityID}
		}
	}
	return nil
}

// descendantTaskIDs filters a contract's task set down to one subtree.
func (s *Service) descendantTaskIDs(ctx context.Context, contractID string, keep func(store.BoardTask) bool) ([]string, error) {
	tasks, err := s.store.ContractBoardTasks(ctx, contractID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, t := range tasks {
		if keep(t) {
			ids = append(ids, t.TaskID)
		}
	}
	return ids, nil
}

// withField appends a field to an explicit field list. A nil list already
// means "all fields", so it stays nil.
func withField(fields []string, field string) []string {
	if len(fields) == 0 {
		return fields
	}
	for _, f := range fields {
		if f == field {
			return fields
		}
	}
	return append(fields, field)
}

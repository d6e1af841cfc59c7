package app

import (
	"context"
	"errors"
	"fmt"

	"planroom/api/internal/folders"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
	"planroom/api/internal/util"
)

var caseDBOnlyFields = []string{"description"}

type CreateCaseInput struct {
	MilestoneID string `json:"milestoneId"`
	TypeID      string `json:"typeId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CreateCaseInput) validate() error {
	switch {
	case in.MilestoneID == "":
		return validationError("milestoneId is required")
	case in.TypeID == "":
		return validationError("typeId is required")
	case in.Name == "":
		return validationError("name is required")
	}
	return nil
}

// CreateCase adds a case with its default tasks under an existing milestone.
// Unique-per-milestone case types get no folder; their files live in the
// milestone type's folder directly.
func (s *Service) CreateCase(ctx context.Context, in CreateCaseInput, session Session) (store.Case, []Warning, error) {
	if err := in.validate(); err != nil {
		return store.Case{}, nil, err
	}

	milestone, err := s.store.GetMilestone(ctx, in.MilestoneID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Case{}, nil, validationError("milestone not found")
	}
	if err != nil {
		return store.Case{}, nil, err
	}
	ctype, err := s.store.GetCaseType(ctx, in.TypeID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Case{}, nil, validationError("case type not found")
	}
	if err != nil {
		return store.Case{}, nil, err
	}
	if ctype.IsUniquePerParent {
		exists, err := s.store.CaseTypeExists(ctx, milestone.ID, ctype.ID)
		if err != nil {
			return store.Case{}, nil, err
		}
		if exists {
			return store.Case{}, nil, duplicateError("case type already present on milestone", map[string]string{"typeId": ctype.ID})
		}
	}

	entry := store.Case{
		ID:          util.NewID("cas"),
		MilestoneID: milestone.ID,
		TypeID:      ctype.ID,
		Name:        in.Name,
		Description: in.Description,
	}

	var created []createdFolder
	if !ctype.IsUniquePerParent {
		number, err := s.store.NextCaseNumber(ctx, milestone.ID, ctype.ID)
		if err != nil {
			return store.Case{}, nil, err
		}
		entry.SequenceNumber = &number
		folderName := folders.NumberedFolderName(folders.CasePrefix, number, entry.Name)
		folderID, err := s.folders.EnsureFolder(ctx, milestone.FolderID, folderName)
		if err != nil {
			return store.Case{}, nil, externalServiceError("case folder creation failed", err.Error())
		}
		created = append(created, createdFolder{id: folderID, name: folderName})
		entry.FolderID = &folderID
	}

	taskTemplates, err := s.store.DefaultTasks(ctx, ctype.ID)
	if err != nil {
		s.compensateFolders(ctx, created)
		return store.Case{}, nil, err
	}
	var tasks []store.Task
	for _, tt := range taskTemplates {
		id := util.NewID("tsk")
		tasks = append(tasks, store.Task{
			ID:     id,
			CaseID: entry.ID,
			Name:   tt.Name,
			Status: tt.Status,
			RowKey: id,
		})
	}

	if err := s.store.CreateCaseGraph(ctx, store.CaseGraph{Case: entry, Tasks: tasks}); err != nil {
		s.compensateFolders(ctx, created)
		return store.Case{}, nil, fmt.Errorf("persist case: %w", err)
	}

	warnings := gather(func() *Warning {
		return s.resyncContractQuiet(ctx, milestone.ContractID)
	})
	for _, t := range tasks {
		s.search.IndexTask(search.TaskRecord{
			ID: t.ID, Name: t.Name, Status: t.Status, ContractID: milestone.ContractID,
		})
	}
	return entry, warnings, nil
}

// EditCase applies a field-level update. Only the description commits without
// side effects: a rename must reach the folder, and a type change moves the
// row grouping on the board.
func (s *Service) EditCase(ctx context.Context, payload store.Case, fields []string, session Session) (store.Case, []Warning, error) {
	existing, err := s.store.GetCase(ctx, payload.ID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Case{}, nil, notFoundError("case not found")
	}
	if err != nil {
		return store.Case{}, nil, err
	}
	updated := mergeCase(existing, payload, fields)

	ctype, err := s.store.GetCaseType(ctx, updated.TypeID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Case{}, nil, validationError("case type not found")
	}
	if err != nil {
		return store.Case{}, nil, err
	}
	if updated.TypeID != existing.TypeID && ctype.IsUniquePerParent {
		exists, err := s.store.CaseTypeExists(ctx, existing.MilestoneID, ctype.ID)
		if err != nil {
			return store.Case{}, nil, err
		}
		if exists {
			return store.Case{}, nil, duplicateError("case type already present on milestone", map[string]string{"typeId": ctype.ID})
		}
	}

	// Switching to a unique-per-milestone type makes the case folderless: the
	// number is cleared and the old numbered folder is flagged for manual
	// file migration.
	migrating := false
	if ctype.IsUniquePerParent && existing.SequenceNumber != nil {
		updated.SequenceNumber = nil
		updated.FolderID = nil
		fields = withField(fields, "sequenceNumber")
		fields = withField(fields, "folderId")
		migrating = true
	}

	if err := s.store.UpdateCase(ctx, updated, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Case{}, nil, notFoundError("case not found")
		}
		return store.Case{}, nil, err
	}

	if fieldsTouchOnly(fields, caseDBOnlyFields) {
		return updated, nil, nil
	}

	milestone, err := s.store.GetMilestone(ctx, existing.MilestoneID)
	if err != nil {
		return updated, []Warning{{Code: warnConsistency, Message: err.Error(), EntityID: updated.ID}}, nil
	}

	warnings := gather(
		func() *Warning {
			return s.syncCaseFolder(ctx, existing, updated, milestone, migrating)
		},
		func() *Warning {
			return s.resyncContractQuiet(ctx, milestone.ContractID)
		},
	)
	return updated, warnings, nil
}

// mergeCase overlays the named fields (or all editable fields when the list
// is empty) from payload onto the stored case.
func mergeCase(existing, payload store.Case, fields []string) store.Case {
	merged := existing
	apply := func(field string) {
		switch field {
		case "name":
			merged.Name = payload.Name
		case "description":
			merged.Description = payload.Description
		case "typeId":
			merged.TypeID = payload.TypeID
		}
	}
	if len(fields) == 0 {
		fields = []string{"name", "description", "typeId"}
	}
	for _, f := range fields {
		apply(f)
	}
	return merged
}

// syncCaseFolder renames the case folder, or re-creates it if missing.
// Folderless cases (unique-per-milestone types) have nothing to sync. On a
// transition to a unique type the orphaned numbered folder is renamed with
// the migration suffix instead.
func (s *Service) syncCaseFolder(ctx context.Context, existing, updated store.Case, milestone store.Milestone, migrating bool) *Warning {
	if migrating {
		if existing.FolderID == nil || existing.SequenceNumber == nil {
			return nil
		}
		name := folders.NumberedFolderName(folders.CasePrefix, *existing.SequenceNumber, updated.Name) + folders.MigrateSuffix
		if err := s.folders.Rename(ctx, *existing.FolderID, name); err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		return nil
	}
	if updated.FolderID == nil || updated.SequenceNumber == nil {
		return nil
	}
	name := folders.NumberedFolderName(folders.CasePrefix, *updated.SequenceNumber, updated.Name)

	exists, err := s.folders.Exists(ctx, *updated.FolderID)
	if err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	if !exists {
		folderID, err := s.folders.EnsureFolder(ctx, milestone.FolderID, name)
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		updated.FolderID = &folderID
		if err := s.store.UpdateCase(ctx, updated, []string{"folderId"}); err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		return nil
	}

	if err := s.folders.Rename(ctx, *updated.FolderID, name); err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	return nil
}

// DeleteCase cascades in the database, then cleans the case folder (if any)
// and the tasks' board rows best effort.
func (s *Service) DeleteCase(ctx context.Context, id string, session Session) ([]Warning, error) {
	entry, err := s.store.GetCase(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("case not found")
	}
	if err != nil {
		return nil, err
	}
	milestone, err := s.store.GetMilestone(ctx, entry.MilestoneID)
	if err != nil {
		return nil, err
	}
	taskIDs, err := s.descendantTaskIDs(ctx, milestone.ContractID, func(t store.BoardTask) bool {
		return t.CaseID == id
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteCase(ctx, id); err != nil {
		return nil, err
	}

	warnings := gather(
		func() *Warning {
			if entry.FolderID == nil {
				return nil
			}
			return s.trashFolders(ctx, entry.ID, []string{*entry.FolderID})
		},
		func() *Warning {
			return s.removeTaskRows(ctx, entry.ID, taskIDs)
		},
	)
	for _, taskID := range taskIDs {
		s.search.DeleteTask(taskID)
	}
	return warnings, nil
}

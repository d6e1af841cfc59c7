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

// contractDBOnlyFields may change without touching the folder tree or the
// board projection.
var contractDBOnlyFields = []string{"status", "comment", "startDate", "endDate", "value"}

type CreateContractInput struct {
	Kind              string               `json:"kind"`
	OurID             string               `json:"ourId"`
	RelatedContractID *string              `json:"relatedContractId"`
	ProjectID         string               `json:"projectId"`
	TypeID            string               `json:"typeId"`
	Name              string               `json:"name"`
	Comment           string               `json:"comment"`
	StartDate         time.Time            `json:"startDate"`
	EndDate           time.Time            `json:"endDate"`
	Value             float64              `json:"value"`
	Status            string               `json:"status"`
	ManagerID         *string              `json:"managerId"`
	AdminID           *string              `json:"adminId"`
	Roles             []store.ContractRole `json:"roles"`
}

func (in CreateContractInput) validate() error {
	switch {
	case in.ProjectID == "":
		return validationError("projectId is required")
	case in.TypeID == "":
		return validationError("typeId is required")
	case in.Name == "":
		return validationError("name is required")
	case in.Kind != store.ContractKindOwn && in.Kind != store.ContractKindOther:
		return validationError("kind must be own or other")
	case in.Kind == store.ContractKindOwn && in.OurID == "":
		return validationError("own contracts require ourId")
	case in.Kind == store.ContractKindOther && in.OurID != "":
		return validationError("other contracts carry no ourId")
	case !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate):
		return validationError("endDate precedes startDate")
	}
	return nil
}

// CreateContract runs the full creation saga: folder tree first, then one
// database transaction inserting the contract with its default milestone,
// case and task children, then the board and search projections. Warnings
// describe post-commit projection failures; the contract exists regardless.
func (s *Service) CreateContract(ctx context.Context, in CreateContractInput, session Session) (store.Contract, []Warning, error) {
	if err := in.validate(); err != nil {
		return store.Contract{}, nil, err
	}
	if in.Kind == store.ContractKindOwn {
		exists, err := s.store.ContractOurIDExists(ctx, in.OurID)
		if err != nil {
			return store.Contract{}, nil, err
		}
		if exists {
			return store.Contract{}, nil, duplicateError("contract identifier already in use", map[string]string{"ourId": in.OurID})
		}
	}

	project, err := s.store.GetProject(ctx, in.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Contract{}, nil, validationError("project not found")
	}
	if err != nil {
		return store.Contract{}, nil, err
	}
	if _, err := s.store.GetContractType(ctx, in.TypeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Contract{}, nil, validationError("contract type not found")
		}
		return store.Contract{}, nil, err
	}

	projectFolderID, err := s.folders.EnsureFolder(ctx, s.cfg.RootFolderID, folders.ContractFolderName(project.OurID, project.Name))
	if err != nil {
		return store.Contract{}, nil, externalServiceError("project folder creation failed", err.Error())
	}

	var created []createdFolder
	contractFolderName := folders.ContractFolderName(in.OurID, in.Name)
	contractFolderID, err := s.folders.EnsureFolder(ctx, projectFolderID, contractFolderName)
	if err != nil {
		return store.Contract{}, nil, externalServiceError("contract folder creation failed", err.Error())
	}
	created = append(created, createdFolder{id: contractFolderID, name: contractFolderName})

	contract := store.Contract{
		ID:                util.NewID("ctr"),
		Kind:              in.Kind,
		OurID:             in.OurID,
		RelatedContractID: in.RelatedContractID,
		ProjectID:         in.ProjectID,
		TypeID:            in.TypeID,
		Name:              in.Name,
		Comment:           in.Comment,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Value:             in.Value,
		Status:            in.Status,
		FolderID:          contractFolderID,
		ManagerID:         in.ManagerID,
		AdminID:           in.AdminID,
	}

	milestones, err := s.defaultMilestones(ctx, contract, &created)
	if err != nil {
		s.compensateFolders(ctx, created)
		return store.Contract{}, nil, err
	}

	graph := store.ContractGraph{Contract: contract, Roles: in.Roles, Milestones: milestones}
	if err := s.store.CreateContractGraph(ctx, graph); err != nil {
		s.compensateFolders(ctx, created)
		return store.Contract{}, nil, fmt.Errorf("persist contract: %w", err)
	}

	warnings := gather(func() *Warning {
		return s.resyncContractQuiet(ctx, contract.ID)
	})
	s.search.IndexContract(search.ContractRecord{
		ID: contract.ID, OurID: contract.OurID, Name: contract.Name, Status: contract.Status,
	})
	return contract, warnings, nil
}

// defaultMilestones expands the contract type's milestone templates into full
// milestone graphs, creating a folder per milestone as it goes. Numbers for
// non-unique types are handed out from local counters so a batch stays
// gapless inside one creation.
func (s *Service) defaultMilestones(ctx context.Context, contract store.Contract, created *[]createdFolder) ([]store.MilestoneGraph, error) {
	templates, err := s.store.DefaultMilestones(ctx, contract.TypeID)
	if err != nil {
		return nil, err
	}

	counters := map[string]int{}
	var graphs []store.MilestoneGraph
	for _, tpl := range templates {
		mtype, err := s.store.GetMilestoneType(ctx, tpl.TypeID)
		if err != nil {
			return nil, fmt.Errorf("load milestone type %s: %w", tpl.TypeID, err)
		}

		milestone := store.Milestone{
			ID:         util.NewID("mls"),
			ContractID: contract.ID,
			TypeID:     mtype.ID,
			Name:       tpl.Name,
			Status:     tpl.Status,
			StartDate:  contract.StartDate.AddDate(0, 0, tpl.StartDays),
			EndDate:    contract.StartDate.AddDate(0, 0, tpl.EndDays),
		}

		var folderName string
		if mtype.IsUniquePerParent {
			folderName = folders.UniqueTypeFolderName(mtype.FolderNumber, mtype.Name)
		} else {
			number, err := s.nextInBatch(ctx, counters, mtype.ID, func() (int, error) {
				return s.store.NextMilestoneNumber(ctx, contract.ID, mtype.ID)
			})
			if err != nil {
				return nil, err
			}
			milestone.SequenceNumber = &number
			folderName = folders.NumberedFolderName(folders.MilestonePrefix, number, milestone.Name)
		}

		folderID, err := s.folders.EnsureFolder(ctx, contract.FolderID, folderName)
		if err != nil {
			return nil, externalServiceError("milestone folder creation failed", err.Error())
		}
		*created = append(*created, createdFolder{id: folderID, name: folderName})
		milestone.FolderID = folderID

		cases, err := s.defaultCases(ctx, milestone, created)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, store.MilestoneGraph{
			Milestone:  milestone,
			DateRanges: []store.DateRange{{Start: milestone.StartDate, End: milestone.EndDate}},
			Cases:      cases,
		})
	}
	return graphs, nil
}

// defaultCases expands a milestone type's case templates, with each case's
// default tasks. Unique-per-milestone case types get no folder of their own.
func (s *Service) defaultCases(ctx context.Context, milestone store.Milestone, created *[]createdFolder) ([]store.CaseGraph, error) {
	templates, err := s.store.DefaultCases(ctx, milestone.TypeID)
	if err != nil {
		return nil, err
	}

	counters := map[string]int{}
	var graphs []store.CaseGraph
	for _, tpl := range templates {
		ctype, err := s.store.GetCaseType(ctx, tpl.TypeID)
		if err != nil {
			return nil, fmt.Errorf("load case type %s: %w", tpl.TypeID, err)
		}

		entry := store.Case{
			ID:          util.NewID("cas"),
			MilestoneID: milestone.ID,
			TypeID:      ctype.ID,
			Name:        tpl.Name,
		}
		if !ctype.IsUniquePerParent {
			number, err := s.nextInBatch(ctx, counters, ctype.ID, func() (int, error) {
				return s.store.NextCaseNumber(ctx, milestone.ID, ctype.ID)
			})
			if err != nil {
				return nil, err
			}
			entry.SequenceNumber = &number
			folderName := folders.NumberedFolderName(folders.CasePrefix, number, entry.Name)
			folderID, err := s.folders.EnsureFolder(ctx, milestone.FolderID, folderName)
			if err != nil {
				return nil, externalServiceError("case folder creation failed", err.Error())
			}
			*created = append(*created, createdFolder{id: folderID, name: folderName})
			entry.FolderID = &folderID
		}

		taskTemplates, err := s.store.DefaultTasks(ctx, ctype.ID)
		if err != nil {
			return nil, err
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
		graphs = append(graphs, store.CaseGraph{Case: entry, Tasks: tasks})
	}
	return graphs, nil
}

// nextInBatch hands out sequence numbers during a batch creation: the first
// number per scope comes from the database, the rest are incremented locally
// since nothing is committed yet.
func (s *Service) nextInBatch(ctx context.Context, counters map[string]int, scope string, seed func() (int, error)) (int, error) {
	if n, ok := counters[scope]; ok {
		counters[scope] = n + 1
		return n + 1, nil
	}
	n, err := seed()
	if err != nil {
		return 0, fmt.Errorf("next number for %s: %w", scope, err)
	}
	counters[scope] = n
	return n, nil
}

// EditContract applies a field-level update. Database-only fields commit
// without side effects; anything else re-runs folder rename and board
// projection concurrently after the commit. An empty field list means every
// editable field changed.
func (s *Service) EditContract(ctx context.Context, payload store.Contract, fields []string, session Session) (store.Contract, []Warning, error) {
	existing, err := s.store.GetContract(ctx, payload.ID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Contract{}, nil, notFoundError("contract not found")
	}
	if err != nil {
		return store.Contract{}, nil, err
	}
	updated := mergeContract(existing, payload, fields)

	if updated.Kind == store.ContractKindOwn && updated.OurID != existing.OurID {
		exists, err := s.store.ContractOurIDExists(ctx, updated.OurID)
		if err != nil {
			return store.Contract{}, nil, err
		}
		if exists {
			return store.Contract{}, nil, duplicateError("contract identifier already in use", map[string]string{"ourId": updated.OurID})
		}
	}

	if err := s.store.UpdateContract(ctx, updated, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Contract{}, nil, notFoundError("contract not found")
		}
		return store.Contract{}, nil, err
	}

	if fieldsTouchOnly(fields, contractDBOnlyFields) {
		s.search.IndexContract(search.ContractRecord{
			ID: updated.ID, OurID: updated.OurID, Name: updated.Name, Status: updated.Status,
		})
		return updated, nil, nil
	}

	warnings := gather(
		func() *Warning {
			return s.syncContractFolder(ctx, existing, updated)
		},
		func() *Warning {
			return s.resyncContractQuiet(ctx, updated.ID)
		},
	)
	s.search.IndexContract(search.ContractRecord{
		ID: updated.ID, OurID: updated.OurID, Name: updated.Name, Status: updated.Status,
	})
	return updated, warnings, nil
}

// mergeContract overlays the fields named in fields (or every editable field
// when the list is empty) from payload onto the stored contract.
func mergeContract(existing, payload store.Contract, fields []string) store.Contract {
	merged := existing
	apply := func(field string) {
		switch field {
		case "name":
			merged.Name = payload.Name
		case "ourId":
			merged.OurID = payload.OurID
		case "comment":
			merged.Comment = payload.Comment
		case "startDate":
			merged.StartDate = payload.StartDate
		case "endDate":
			merged.EndDate = payload.EndDate
		case "value":
			merged.Value = payload.Value
		case "status":
			merged.Status = payload.Status
		case "managerId":
			merged.ManagerID = payload.ManagerID
		case "adminId":
			merged.AdminID = payload.AdminID
		}
	}
	if len(fields) == 0 {
		fields = []string{"name", "ourId", "comment", "startDate", "endDate", "value", "status", "managerId", "adminId"}
	}
	for _, f := range fields {
		apply(f)
	}
	return merged
}

// syncContractFolder renames the contract folder to match the edited
// identity, or re-creates it when it has gone missing from the store.
func (s *Service) syncContractFolder(ctx context.Context, existing, updated store.Contract) *Warning {
	name := folders.ContractFolderName(updated.OurID, updated.Name)

	exists, err := s.folders.Exists(ctx, existing.FolderID)
	if err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	if !exists {
		project, err := s.store.GetProject(ctx, existing.ProjectID)
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		projectFolderID, err := s.folders.EnsureFolder(ctx, s.cfg.RootFolderID, folders.ContractFolderName(project.OurID, project.Name))
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		folderID, err := s.folders.EnsureFolder(ctx, projectFolderID, name)
		if err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		updated.FolderID = folderID
		if err := s.store.UpdateContract(ctx, updated, []string{"folderId"}); err != nil {
			return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
		}
		return nil
	}

	if err := s.folders.Rename(ctx, existing.FolderID, name); err != nil {
		return &Warning{Code: warnFolderSync, Message: err.Error(), EntityID: updated.ID}
	}
	return nil
}

// DeleteContract removes the contract and its descendants. The database
// delete is authoritative; folder and board cleanup run afterwards in
// parallel and only ever produce warnings.
func (s *Service) DeleteContract(ctx context.Context, id string, session Session) ([]Warning, error) {
	contract, err := s.store.GetContract(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundError("contract not found")
	}
	if err != nil {
		return nil, err
	}

	folderIDs, err := s.store.ContractFolderIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	taskIDs, err := s.contractTaskIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteContract(ctx, id); err != nil {
		return nil, err
	}

	warnings := gather(
		func() *Warning {
			return s.trashFolders(ctx, contract.ID, folderIDs)
		},
		func() *Warning {
			if err := s.board.RemoveByKey(ctx, board.ColContractDBID, contract.ID); err != nil {
				return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: contract.ID}
			}
			return nil
		},
	)
	s.search.DeleteContract(contract.ID)
	for _, taskID := range taskIDs {
		s.search.DeleteTask(taskID)
	}
	return warnings, nil
}

// trashFolders soft-deletes a pre-fetched folder id list, deepest first.
func (s *Service) trashFolders(ctx context.Context, entityID string, folderIDs []string) *Warning {
	for _, folderID := range folderIDs {
		if err := s.folders.SoftDelete(ctx, folderID, ""); err != nil {
			return &Warning{Code: warnFolderOrphan, Message: err.Error(), EntityID: entityID}
		}
	}
	return nil
}

func (s *Service) contractTaskIDs(ctx context.Context, contractID string) ([]string, error) {
	tasks, err := s.store.ContractBoardTasks(ctx, contractID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.TaskID)
	}
	return ids, nil
}

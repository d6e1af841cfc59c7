package app

import (
	"context"
	"errors"
	"time"

	"planroom/api/internal/board"
	"planroom/api/internal/search"
	"planroom/api/internal/store"
	"planroom/api/internal/util"
)

type CreateTaskInput struct {
	CaseID   string     `json:"caseId"`
	Name     string     `json:"name"`
	Deadline *time.Time `json:"deadline"`
	Status   string     `json:"status"`
	OwnerID  *string    `json:"ownerId"`
}

func (in CreateTaskInput) validate() error {
	switch {
	case in.CaseID == "":
		return validationError("caseId is required")
	case in.Name == "":
		return validationError("name is required")
	case in.Status == "":
		return validationError("status is required")
	}
	return nil
}

// CreateTask persists a task and projects it onto the board if the visibility
// predicate holds. Tasks own no folder, so there is nothing to compensate.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput, session Session) (store.Task, []Warning, error) {
	if err := in.validate(); err != nil {
		return store.Task{}, nil, err
	}

	if _, err := s.store.GetCase(ctx, in.CaseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Task{}, nil, validationError("case not found")
		}
		return store.Task{}, nil, err
	}
	if in.OwnerID != nil {
		if _, err := s.store.GetPerson(ctx, *in.OwnerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Task{}, nil, validationError("owner not found")
			}
			return store.Task{}, nil, err
		}
	}

	id := util.NewID("tsk")
	task := store.Task{
		ID:       id,
		CaseID:   in.CaseID,
		Name:     in.Name,
		Deadline: in.Deadline,
		Status:   in.Status,
		OwnerID:  in.OwnerID,
		RowKey:   id,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return store.Task{}, nil, err
	}

	warnings, boardTask := s.projectTask(ctx, task.ID)
	s.search.IndexTask(search.TaskRecord{
		ID: task.ID, Name: task.Name, Status: task.Status, ContractID: boardTask.ContractID,
	})
	return task, warnings, nil
}

// EditTask has no database-only shortcut: every field a task carries is
// rendered on the board, so the visibility predicate is re-evaluated on each
// edit and the row added, rewritten or removed accordingly.
func (s *Service) EditTask(ctx context.Context, payload store.Task, fields []string, session Session) (store.Task, []Warning, error) {
	existing, err := s.store.GetTask(ctx, payload.ID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Task{}, nil, notFoundError("task not found")
	}
	if err != nil {
		return store.Task{}, nil, err
	}
	updated := mergeTask(existing, payload, fields)

	if updated.OwnerID != nil {
		if _, err := s.store.GetPerson(ctx, *updated.OwnerID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.Task{}, nil, validationError("owner not found")
			}
			return store.Task{}, nil, err
		}
	}

	if err := s.store.UpdateTask(ctx, updated, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Task{}, nil, notFoundError("task not found")
		}
		return store.Task{}, nil, err
	}

	warnings, boardTask := s.projectTask(ctx, updated.ID)
	s.search.IndexTask(search.TaskRecord{
		ID: updated.ID, Name: updated.Name, Status: updated.Status, ContractID: boardTask.ContractID,
	})
	return updated, warnings, nil
}

// mergeTask overlays the named fields (or all editable fields when the list
// is empty) from payload onto the stored task.
func mergeTask(existing, payload store.Task, fields []string) store.Task {
	merged := existing
	apply := func(field string) {
		switch field {
		case "name":
			merged.Name = payload.Name
		case "deadline":
			merged.Deadline = payload.Deadline
		case "status":
			merged.Status = payload.Status
		case "ownerId":
			merged.OwnerID = payload.OwnerID
		}
	}
	if len(fields) == 0 {
		fields = []string{"name", "deadline", "status", "ownerId"}
	}
	for _, f := range fields {
		apply(f)
	}
	return merged
}

// projectTask loads the joined board view of a task and pushes it through the
// visibility predicate.
func (s *Service) projectTask(ctx context.Context, taskID string) ([]Warning, store.BoardTask) {
	boardTask, err := s.store.BoardTaskByID(ctx, taskID)
	if err != nil {
		return []Warning{{Code: warnConsistency, Message: err.Error(), EntityID: taskID}}, boardTask
	}
	if w := s.pushTask(ctx, boardTask); w != nil {
		return []Warning{*w}, boardTask
	}
	return nil, boardTask
}

// DeleteTask removes the row from the database, then the board and the search
// index, best effort.
func (s *Service) DeleteTask(ctx context.Context, id string, session Session) ([]Warning, error) {
	if _, err := s.store.GetTask(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("task not found")
		}
		return nil, err
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return nil, err
	}

	warnings := gather(func() *Warning {
		if err := s.board.RemoveByKey(ctx, board.ColTaskID, id); err != nil {
			return &Warning{Code: warnBoardSync, Message: err.Error(), EntityID: id}
		}
		return nil
	})
	s.search.DeleteTask(id)
	return warnings, nil
}

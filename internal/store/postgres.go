package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ErrNotFound reports a missing row for any of the Get* lookups.
var ErrNotFound = errors.New("not found")

func (s *PostgresStore) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, our_id, name, status, created_at FROM projects WHERE id=$1
	`, id).Scan(&p.ID, &p.OurID, &p.Name, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id string) (Person, error) {
	var p Person
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role_rank FROM persons WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.RoleRank)
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetContractType(ctx context.Context, id string) (ContractType, error) {
	var t ContractType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, folder_number, is_own FROM contract_types WHERE id=$1
	`, id).Scan(&t.ID, &t.Name, &t.FolderNumber, &t.IsOwn)
	if errors.Is(err, sql.ErrNoRows) {
		return ContractType{}, ErrNotFound
	}
	if err != nil {
		return ContractType{}, fmt.Errorf("get contract type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetMilestoneType(ctx context.Context, id string) (MilestoneType, error) {
	var t MilestoneType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, folder_number, is_unique_per_contract FROM milestone_types WHERE id=$1
	`, id).Scan(&t.ID, &t.Name, &t.FolderNumber, &t.IsUniquePerParent)
	if errors.Is(err, sql.ErrNoRows) {
		return MilestoneType{}, ErrNotFound
	}
	if err != nil {
		return MilestoneType{}, fmt.Errorf("get milestone type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetCaseType(ctx context.Context, id string) (CaseType, error) {
	var t CaseType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, folder_number, is_unique_per_milestone FROM case_types WHERE id=$1
	`, id).Scan(&t.ID, &t.Name, &t.FolderNumber, &t.IsUniquePerParent)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseType{}, ErrNotFound
	}
	if err != nil {
		return CaseType{}, fmt.Errorf("get case type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) GetContract(ctx context.Context, id string) (Contract, error) {
	var c Contract
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, our_id, related_contract_id, project_id, type_id, name,
		       comment, start_date, end_date, value, status, folder_id,
		       manager_id, admin_id, created_at, updated_at
		FROM contracts WHERE id=$1
	`, id).Scan(&c.ID, &c.Kind, &c.OurID, &c.RelatedContractID, &c.ProjectID,
		&c.TypeID, &c.Name, &c.Comment, &c.StartDate, &c.EndDate, &c.Value,
		&c.Status, &c.FolderID, &c.ManagerID, &c.AdminID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Contract{}, ErrNotFound
	}
	if err != nil {
		return Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetMilestone(ctx context.Context, id string) (Milestone, error) {
	var m Milestone
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contract_id, type_id, sequence_number, name, status,
		       start_date, end_date, folder_id
		FROM milestones WHERE id=$1
	`, id).Scan(&m.ID, &m.ContractID, &m.TypeID, &m.SequenceNumber, &m.Name,
		&m.Status, &m.StartDate, &m.EndDate, &m.FolderID)
	if errors.Is(err, sql.ErrNoRows) {
		return Milestone{}, ErrNotFound
	}
	if err != nil {
		return Milestone{}, fmt.Errorf("get milestone: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetCase(ctx context.Context, id string) (Case, error) {
	var c Case
	err := s.db.QueryRowContext(ctx, `
		SELECT id, milestone_id, type_id, sequence_number, name, description, folder_id
		FROM cases WHERE id=$1
	`, id).Scan(&c.ID, &c.MilestoneID, &c.TypeID, &c.SequenceNumber, &c.Name,
		&c.Description, &c.FolderID)
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, ErrNotFound
	}
	if err != nil {
		return Case{}, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx, `
		SELECT id, case_id, name, deadline, status, owner_id, row_key
		FROM tasks WHERE id=$1
	`, id).Scan(&t.ID, &t.CaseID, &t.Name, &t.Deadline, &t.Status, &t.OwnerID, &t.RowKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Duplicate checks run before any side effect is taken.

func (s *PostgresStore) ContractOurIDExists(ctx context.Context, ourID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contracts WHERE our_id=$1)`, ourID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check contract our_id: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) MilestoneTypeExists(ctx context.Context, contractID, typeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM milestones WHERE contract_id=$1 AND type_id=$2)`,
		contractID, typeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check milestone type: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CaseTypeExists(ctx context.Context, milestoneID, typeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cases WHERE milestone_id=$1 AND type_id=$2)`,
		milestoneID, typeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check case type: %w", err)
	}
	return exists, nil
}

// Sequence numbering. Numbers come from a dedicated column, MAX+1 scoped to
// (type, parent). The number is read before the folder step, outside the
// insert transaction, because the folder name carries it; two creations
// racing on one scope can draw the same number. The partial unique index on
// (parent, type, sequence_number) turns that race into a failed insert, which
// the creation saga compensates like any other transaction failure.

func (s *PostgresStore) NextMilestoneNumber(ctx context.Context, contractID, typeID string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence_number), 0) + 1
		FROM milestones WHERE contract_id=$1 AND type_id=$2
	`, contractID, typeID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next milestone number: %w", err)
	}
	return next, nil
}

func (s *PostgresStore) NextCaseNumber(ctx context.Context, milestoneID, typeID string) (int, error) {
	var next int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence_number), 0) + 1
		FROM cases WHERE milestone_id=$1 AND type_id=$2
	`, milestoneID, typeID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next case number: %w", err)
	}
	return next, nil
}

// Default-children templates.

func (s *PostgresStore) DefaultMilestones(ctx context.Context, contractTypeID string) ([]MilestoneTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT milestone_type_id, name, status, start_offset_days, end_offset_days
		FROM milestone_templates WHERE contract_type_id=$1 ORDER BY sort_order
	`, contractTypeID)
	if err != nil {
		return nil, fmt.Errorf("list milestone templates: %w", err)
	}
	defer rows.Close()

	var templates []MilestoneTemplate
	for rows.Next() {
		var t MilestoneTemplate
		if err := rows.Scan(&t.TypeID, &t.Name, &t.Status, &t.StartDays, &t.EndDays); err != nil {
			return nil, fmt.Errorf("scan milestone template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *PostgresStore) DefaultCases(ctx context.Context, milestoneTypeID string) ([]CaseTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT case_type_id, name
		FROM case_templates WHERE milestone_type_id=$1 ORDER BY sort_order
	`, milestoneTypeID)
	if err != nil {
		return nil, fmt.Errorf("list case templates: %w", err)
	}
	defer rows.Close()

	var templates []CaseTemplate
	for rows.Next() {
		var t CaseTemplate
		if err := rows.Scan(&t.TypeID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan case template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *PostgresStore) DefaultTasks(ctx context.Context, caseTypeID string) ([]TaskTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status
		FROM task_templates WHERE case_type_id=$1 ORDER BY sort_order
	`, caseTypeID)
	if err != nil {
		return nil, fmt.Errorf("list task templates: %w", err)
	}
	defer rows.Close()

	var templates []TaskTemplate
	for rows.Next() {
		var t TaskTemplate
		if err := rows.Scan(&t.Name, &t.Status); err != nil {
			return nil, fmt.Errorf("scan task template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Graph creation. Each graph is persisted in a single transaction so a
// failure anywhere leaves no database trace.

func (s *PostgresStore) CreateContractGraph(ctx context.Context, g ContractGraph) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		c := g.Contract
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contracts (id, kind, our_id, related_contract_id, project_id,
			                       type_id, name, comment, start_date, end_date,
			                       value, status, folder_id, manager_id, admin_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		`, c.ID, c.Kind, c.OurID, c.RelatedContractID, c.ProjectID, c.TypeID,
			c.Name, c.Comment, c.StartDate, c.EndDate, c.Value, c.Status,
			c.FolderID, c.ManagerID, c.AdminID)
		if err != nil {
			return fmt.Errorf("insert contract: %w", err)
		}
		for _, role := range g.Roles {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO contract_roles (contract_id, entity_id, role)
				VALUES ($1,$2,$3)
			`, c.ID, role.EntityID, role.Role); err != nil {
				return fmt.Errorf("insert contract role: %w", err)
			}
		}
		for _, mg := range g.Milestones {
			if err := insertMilestoneGraph(ctx, tx, mg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) CreateMilestoneGraph(ctx context.Context, g MilestoneGraph) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertMilestoneGraph(ctx, tx, g)
	})
}

func (s *PostgresStore) CreateCaseGraph(ctx context.Context, g CaseGraph) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertCaseGraph(ctx, tx, g)
	})
}

func (s *PostgresStore) CreateTask(ctx context.Context, t Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, case_id, name, deadline, status, owner_id, row_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.CaseID, t.Name, t.Deadline, t.Status, t.OwnerID, t.RowKey)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func insertMilestoneGraph(ctx context.Context, tx *sql.Tx, g MilestoneGraph) error {
	m := g.Milestone
	_, err := tx.ExecContext(ctx, `
		INSERT INTO milestones (id, contract_id, type_id, sequence_number, name,
		                        status, start_date, end_date, folder_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, m.ID, m.ContractID, m.TypeID, m.SequenceNumber, m.Name, m.Status,
		m.StartDate, m.EndDate, m.FolderID)
	if err != nil {
		return fmt.Errorf("insert milestone: %w", err)
	}
	for _, dr := range g.DateRanges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO milestone_date_ranges (milestone_id, start_date, end_date)
			VALUES ($1,$2,$3)
		`, m.ID, dr.Start, dr.End); err != nil {
			return fmt.Errorf("insert milestone date range: %w", err)
		}
	}
	for _, cg := range g.Cases {
		if err := insertCaseGraph(ctx, tx, cg); err != nil {
			return err
		}
	}
	return nil
}

func insertCaseGraph(ctx context.Context, tx *sql.Tx, g CaseGraph) error {
	c := g.Case
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cases (id, milestone_id, type_id, sequence_number, name,
		                   description, folder_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, c.ID, c.MilestoneID, c.TypeID, c.SequenceNumber, c.Name, c.Description, c.FolderID)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	for _, t := range g.Tasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, case_id, name, deadline, status, owner_id, row_key)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, t.ID, t.CaseID, t.Name, t.Deadline, t.Status, t.OwnerID, t.RowKey); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Field-level updates. Only columns named in the allow-lists below can be
// touched; unknown fields are rejected so callers cannot bypass the
// folder/board resync decision made upstream.

var contractColumns = map[string]string{
	"name":      "name",
	"ourId":     "our_id",
	"comment":   "comment",
	"startDate": "start_date",
	"endDate":   "end_date",
	"value":     "value",
	"status":    "status",
	"managerId": "manager_id",
	"adminId":   "admin_id",
	"folderId":  "folder_id",
}

var milestoneColumns = map[string]string{
	"name":           "name",
	"status":         "status",
	"startDate":      "start_date",
	"endDate":        "end_date",
	"typeId":         "type_id",
	"sequenceNumber": "sequence_number",
	"folderId":       "folder_id",
}

var caseColumns = map[string]string{
	"name":           "name",
	"description":    "description",
	"typeId":         "type_id",
	"sequenceNumber": "sequence_number",
	"folderId":       "folder_id",
}

var taskColumns = map[string]string{
	"name":     "name",
	"deadline": "deadline",
	"status":   "status",
	"ownerId":  "owner_id",
	"rowKey":   "row_key",
}

func (s *PostgresStore) UpdateContract(ctx context.Context, c Contract, fields []string) error {
	values := map[string]any{
		"name": c.Name, "ourId": c.OurID, "comment": c.Comment,
		"startDate": c.StartDate, "endDate": c.EndDate, "value": c.Value,
		"status": c.Status, "managerId": c.ManagerID, "adminId": c.AdminID,
		"folderId": c.FolderID,
	}
	return s.updateRow(ctx, "contracts", contractColumns, c.ID, fields, values, true)
}

func (s *PostgresStore) UpdateMilestone(ctx context.Context, m Milestone, fields []string) error {
	values := map[string]any{
		"name": m.Name, "status": m.Status, "startDate": m.StartDate,
		"endDate": m.EndDate, "typeId": m.TypeID,
		"sequenceNumber": m.SequenceNumber, "folderId": m.FolderID,
	}
	return s.updateRow(ctx, "milestones", milestoneColumns, m.ID, fields, values, false)
}

func (s *PostgresStore) UpdateCase(ctx context.Context, c Case, fields []string) error {
	values := map[string]any{
		"name": c.Name, "description": c.Description, "typeId": c.TypeID,
		"sequenceNumber": c.SequenceNumber, "folderId": c.FolderID,
	}
	return s.updateRow(ctx, "cases", caseColumns, c.ID, fields, values, false)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, t Task, fields []string) error {
	values := map[string]any{
		"name": t.Name, "deadline": t.Deadline, "status": t.Status,
		"ownerId": t.OwnerID, "rowKey": t.RowKey,
	}
	return s.updateRow(ctx, "tasks", taskColumns, t.ID, fields, values, false)
}

func (s *PostgresStore) updateRow(ctx context.Context, table string, columns map[string]string, id string, fields []string, values map[string]any, touch bool) error {
	if len(fields) == 0 {
		for f := range columns {
			fields = append(fields, f)
		}
	}
	set := ""
	args := []any{id}
	for _, field := range fields {
		column, ok := columns[field]
		if !ok {
			return fmt.Errorf("update %s: unknown field %q", table, field)
		}
		args = append(args, values[field])
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("%s=$%d", column, len(args))
	}
	if touch {
		set += ", updated_at=NOW()"
	}
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET %s WHERE id=$1`, table, set), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deletes. Child rows cascade via foreign keys; the database is authoritative
// and folder/board cleanup happens afterwards, best effort.

func (s *PostgresStore) DeleteContract(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "contracts", id)
}

func (s *PostgresStore) DeleteMilestone(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "milestones", id)
}

func (s *PostgresStore) DeleteCase(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "cases", id)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "tasks", id)
}

func (s *PostgresStore) deleteRow(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ContractFolderIDs collects the folder ids of a contract and all of its
// descendants, deepest first, so cleanup can trash children before parents.
func (s *PostgresStore) ContractFolderIDs(ctx context.Context, contractID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.folder_id FROM cases c
		JOIN milestones m ON m.id = c.milestone_id
		WHERE m.contract_id = $1 AND c.folder_id IS NOT NULL
		UNION ALL
		SELECT m.folder_id FROM milestones m WHERE m.contract_id = $1
		UNION ALL
		SELECT folder_id FROM contracts WHERE id = $1
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list contract folder ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan folder id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) MilestoneFolderIDs(ctx context.Context, milestoneID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT folder_id FROM cases WHERE milestone_id=$1 AND folder_id IS NOT NULL
		UNION ALL
		SELECT folder_id FROM milestones WHERE id=$1
	`, milestoneID)
	if err != nil {
		return nil, fmt.Errorf("list milestone folder ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan folder id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const boardTaskSelect = `
	SELECT t.id, t.name, t.status, t.deadline, t.owner_id,
	       COALESCE(p.name, ''), COALESCE(p.email, ''), COALESCE(p.role_rank, 0),
	       c.id, c.type_id, m.id, m.type_id,
	       ct.id, ct.our_id, pr.our_id
	FROM tasks t
	LEFT JOIN persons p ON p.id = t.owner_id
	JOIN cases c ON c.id = t.case_id
	JOIN milestones m ON m.id = c.milestone_id
	JOIN contracts ct ON ct.id = m.contract_id
	JOIN projects pr ON pr.id = ct.project_id
`

// ContractBoardTasks returns the joined board view of every task under a
// contract, in the board's composite sort order.
func (s *PostgresStore) ContractBoardTasks(ctx context.Context, contractID string) ([]BoardTask, error) {
	rows, err := s.db.QueryContext(ctx, boardTaskSelect+`
		WHERE ct.id = $1
		ORDER BY m.type_id, c.type_id, t.owner_id NULLS FIRST, t.id
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list contract board tasks: %w", err)
	}
	defer rows.Close()
	return scanBoardTasks(rows)
}

// BoardTaskByID returns the joined board view of a single task.
func (s *PostgresStore) BoardTaskByID(ctx context.Context, taskID string) (BoardTask, error) {
	rows, err := s.db.QueryContext(ctx, boardTaskSelect+` WHERE t.id = $1`, taskID)
	if err != nil {
		return BoardTask{}, fmt.Errorf("get board task: %w", err)
	}
	defer rows.Close()
	tasks, err := scanBoardTasks(rows)
	if err != nil {
		return BoardTask{}, err
	}
	if len(tasks) == 0 {
		return BoardTask{}, ErrNotFound
	}
	return tasks[0], nil
}

func scanBoardTasks(rows *sql.Rows) ([]BoardTask, error) {
	var tasks []BoardTask
	for rows.Next() {
		var bt BoardTask
		var deadline *time.Time
		if err := rows.Scan(&bt.TaskID, &bt.Name, &bt.Status, &deadline, &bt.OwnerID,
			&bt.OwnerName, &bt.OwnerEmail, &bt.OwnerRoleRank,
			&bt.CaseID, &bt.CaseTypeID, &bt.MilestoneID, &bt.MilestoneTypeID,
			&bt.ContractID, &bt.ContractOurID, &bt.ProjectOurID); err != nil {
			return nil, fmt.Errorf("scan board task: %w", err)
		}
		bt.Deadline = deadline
		tasks = append(tasks, bt)
	}
	return tasks, rows.Err()
}

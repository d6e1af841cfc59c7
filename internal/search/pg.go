package search

import (
	"context"
	"database/sql"
	"fmt"
)

// PgSearch is the fallback search over the source-of-truth database.
type PgSearch struct {
	db *sql.DB
}

func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

func (p *PgSearch) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	var results []Result

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, our_id, status FROM contracts
		WHERE name ILIKE '%' || $1 || '%' OR our_id ILIKE '%' || $1 || '%'
		ORDER BY updated_at DESC
		LIMIT $2
	`, q.Text, limit)
	if err != nil {
		return nil, fmt.Errorf("search contracts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r := Result{Type: ResultContract}
		if err := rows.Scan(&r.ID, &r.Title, &r.OurID, &r.Status); err != nil {
			return nil, fmt.Errorf("scan contract result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	taskRows, err := p.db.QueryContext(ctx, `
		SELECT id, name, status FROM tasks
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT $2
	`, q.Text, limit)
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	defer taskRows.Close()
	for taskRows.Next() {
		r := Result{Type: ResultTask}
		if err := taskRows.Scan(&r.ID, &r.Title, &r.Status); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		results = append(results, r)
	}
	return results, taskRows.Err()
}

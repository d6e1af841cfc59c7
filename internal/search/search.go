// Package search indexes contracts and tasks so the office can find them by
// name or identifier. Meilisearch serves queries when available; Postgres
// pattern matching is the fallback.
package search

type ResultType string

const (
	ResultContract ResultType = "contract"
	ResultTask     ResultType = "task"
)

type Query struct {
	Text  string
	Limit int
}

type Result struct {
	ID     string     `json:"id"`
	Type   ResultType `json:"type"`
	Title  string     `json:"title"`
	OurID  string     `json:"ourId,omitempty"`
	Status string     `json:"status,omitempty"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// ContractRecord is the indexed projection of a contract.
type ContractRecord struct {
	ID     string `json:"id"`
	OurID  string `json:"ourId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TaskRecord is the indexed projection of a task.
type TaskRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ContractID string `json:"contractId"`
}

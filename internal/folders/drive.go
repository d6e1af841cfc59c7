// Package folders maintains the document-store folder tree that mirrors the
// entity hierarchy.
package folders

import "context"

// Metadata describes a folder in the document store.
type Metadata struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ParentID      string `json:"parentId"`
	Owner         string `json:"owner"`
	Trashed       bool   `json:"trashed"`
	OwnedByCaller bool   `json:"-"`
}

// Drive is the capability interface over the folder-based document store.
type Drive interface {
	CreateFolder(ctx context.Context, parentID, name string) (string, error)
	RenameFolder(ctx context.Context, id, name string) error
	Trash(ctx context.Context, id string) error
	Metadata(ctx context.Context, id string) (Metadata, error)
	Exists(ctx context.Context, id string) (bool, error)
	// FindFolder looks up a non-trashed child of parentID by exact name.
	FindFolder(ctx context.Context, parentID, name string) (string, bool, error)
}

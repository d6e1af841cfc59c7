package folders

import (
	"context"
	"fmt"
	"sync"
)

// Manager creates, renames and soft-deletes the folders mirroring the entity
// tree. Ensure calls under the same parent are serialized so concurrent
// creations cannot produce duplicate siblings.
type Manager struct {
	drive  Drive
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewManager(drive Drive) *Manager {
	return &Manager{
		drive: drive,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *Manager) parentLock(parentID string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	lock, ok := m.locks[parentID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[parentID] = lock
	}
	return lock
}

// EnsureFolder returns the id of the child of parentID named name, creating
// it if absent. Idempotent by (parent, name).
func (m *Manager) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	lock := m.parentLock(parentID)
	lock.Lock()
	defer lock.Unlock()

	id, found, err := m.drive.FindFolder(ctx, parentID, name)
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	if found {
		return id, nil
	}
	id, err = m.drive.CreateFolder(ctx, parentID, name)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", name, err)
	}
	return id, nil
}

func (m *Manager) Rename(ctx context.Context, id, name string) error {
	if err := m.drive.RenameFolder(ctx, id, name); err != nil {
		return fmt.Errorf("rename folder %s: %w", id, err)
	}
	return nil
}

func (m *Manager) Exists(ctx context.Context, id string) (bool, error) {
	return m.drive.Exists(ctx, id)
}

// SoftDelete trashes a folder the service owns. Foreign folders are renamed
// with the TO DELETE suffix instead, as a request to whoever does own them.
// An empty displayName falls back to the folder's current name.
func (m *Manager) SoftDelete(ctx context.Context, id, displayName string) error {
	meta, err := m.drive.Metadata(ctx, id)
	if err != nil {
		return fmt.Errorf("folder metadata %s: %w", id, err)
	}
	if displayName == "" {
		displayName = meta.Name
	}
	if meta.OwnedByCaller {
		if err := m.drive.Trash(ctx, id); err != nil {
			return fmt.Errorf("trash folder %s: %w", id, err)
		}
		return nil
	}
	if err := m.drive.RenameFolder(ctx, id, displayName+ToDeleteSuffix); err != nil {
		return fmt.Errorf("mark folder %s for deletion: %w", id, err)
	}
	return nil
}

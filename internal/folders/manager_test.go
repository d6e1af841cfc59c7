package folders

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
)

type fakeDrive struct {
	mu      sync.Mutex
	nextID  int
	folders map[string]*Metadata
	trashed []string
	renamed map[string]string
	owner   string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		folders: make(map[string]*Metadata),
		renamed: make(map[string]string),
		owner:   "svc",
	}
}

func (d *fakeDrive) CreateFolder(_ context.Context, parentID, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := "f" + strconv.Itoa(d.nextID)
	d.folders[id] = &Metadata{ID: id, Name: name, ParentID: parentID, Owner: d.owner}
	return id, nil
}

func (d *fakeDrive) RenameFolder(_ context.Context, id, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	meta, ok := d.folders[id]
	if !ok {
		return errors.New("no such folder")
	}
	meta.Name = name
	d.renamed[id] = name
	return nil
}

func (d *fakeDrive) Trash(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	meta, ok := d.folders[id]
	if !ok {
		return errors.New("no such folder")
	}
	meta.Trashed = true
	d.trashed = append(d.trashed, id)
	return nil
}

func (d *fakeDrive) Metadata(_ context.Context, id string) (Metadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	meta, ok := d.folders[id]
	if !ok {
		return Metadata{}, errors.New("no such folder")
	}
	out := *meta
	out.OwnedByCaller = meta.Owner == d.owner
	return out, nil
}

func (d *fakeDrive) Exists(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	meta, ok := d.folders[id]
	return ok && !meta.Trashed, nil
}

func (d *fakeDrive) FindFolder(_ context.Context, parentID, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, meta := range d.folders {
		if meta.ParentID == parentID && meta.Name == name && !meta.Trashed {
			return id, true, nil
		}
	}
	return "", false, nil
}

func TestEnsureFolderIdempotent(t *testing.T) {
	drive := newFakeDrive()
	m := NewManager(drive)
	ctx := context.Background()

	first, err := m.EnsureFolder(ctx, "root", "ENG.2026.04 Pump station")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.EnsureFolder(ctx, "root", "ENG.2026.04 Pump station")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("EnsureFolder created a duplicate: %s vs %s", first, second)
	}
	if len(drive.folders) != 1 {
		t.Errorf("want 1 folder, got %d", len(drive.folders))
	}
}

func TestSoftDeleteOwnedFolderIsTrashed(t *testing.T) {
	drive := newFakeDrive()
	m := NewManager(drive)
	ctx := context.Background()

	id, _ := m.EnsureFolder(ctx, "root", "M01 Design stage")
	if err := m.SoftDelete(ctx, id, "M01 Design stage"); err != nil {
		t.Fatal(err)
	}
	if len(drive.trashed) != 1 || drive.trashed[0] != id {
		t.Errorf("folder was not trashed: %v", drive.trashed)
	}
}

func TestSoftDeleteForeignFolderIsRenamed(t *testing.T) {
	drive := newFakeDrive()
	m := NewManager(drive)
	ctx := context.Background()

	id, _ := drive.CreateFolder(ctx, "root", "S01 Permits")
	drive.folders[id].Owner = "someone-else"

	if err := m.SoftDelete(ctx, id, "S01 Permits"); err != nil {
		t.Fatal(err)
	}
	if len(drive.trashed) != 0 {
		t.Error("foreign folder must not be trashed")
	}
	if got := drive.renamed[id]; got != "S01 Permits"+ToDeleteSuffix {
		t.Errorf("foreign folder renamed to %q", got)
	}
}

func TestEnsureFolderConcurrentSameName(t *testing.T) {
	drive := newFakeDrive()
	m := NewManager(drive)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := m.EnsureFolder(ctx, "parent", "03 Correspondence")
			if err != nil {
				t.Error(err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent EnsureFolder returned different ids: %v", ids)
		}
	}
}

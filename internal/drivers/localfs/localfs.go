// Package localfs is a document store over a local directory, used for
// offline runs and as a mirror of the SharePoint folder layout.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ruitoque/fronteras/internal/inventory"
)

// Store keeps documents under Root. Folder paths use forward slashes.
type Store struct {
	Root string
}

var (
	_ inventory.Store  = Store{}
	_ inventory.Pinger = Store{}
)

func New(root string) Store { return Store{Root: root} }

// resolve maps a store path below Root and never escapes it.
func (s Store) resolve(parts ...string) string {
	p := filepath.Join(parts...)
	return filepath.Join(s.Root, filepath.FromSlash(filepath.Clean("/"+filepath.ToSlash(p))))
}

func (s Store) List(ctx context.Context, folder string) ([]inventory.Item, error) {
	entries, err := os.ReadDir(s.resolve(folder))
	if errors.Is(err, fs.ErrNotExist) {
		return []inventory.Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}
	items := make([]inventory.Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", folder, err)
		}
		items = append(items, inventory.Item{Name: e.Name(), Size: info.Size(), Modified: info.ModTime()})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s Store) Download(ctx context.Context, folder, name string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(folder, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("download %s/%s: %w", folder, name, inventory.ErrNotFound)
	}
	return data, err
}

func (s Store) Upload(ctx context.Context, folder, name string, data []byte) error {
	dir := s.resolve(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("upload %s/%s: %w", folder, name, err)
	}
	return os.WriteFile(s.resolve(folder, name), data, 0o644)
}

func (s Store) Delete(ctx context.Context, folder, name string) error {
	err := os.Remove(s.resolve(folder, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s/%s: %w", folder, name, inventory.ErrNotFound)
	}
	return err
}

// Ping creates Root when missing.
func (s Store) Ping(ctx context.Context) error {
	return os.MkdirAll(s.Root, 0o755)
}

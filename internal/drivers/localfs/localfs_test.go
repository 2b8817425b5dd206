package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ruitoque/fronteras/internal/inventory"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := New(root)

	items, err := s.List(ctx, "aenc_pruebas/2025/01")
	if err != nil || len(items) != 0 {
		t.Fatalf("List missing folder = %v, %v", items, err)
	}

	for _, name := range []string{"tfroc0101.TxR", "aenc0101.TxR"} {
		if err := s.Upload(ctx, "aenc_pruebas/2025/01", name, []byte(name)); err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "aenc_pruebas", "2025", "01", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	items, err = s.List(ctx, "aenc_pruebas/2025/01")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if want := []string{"aenc0101.TxR", "tfroc0101.TxR"}; !reflect.DeepEqual(inventory.Names(items), want) {
		t.Errorf("names = %v, want %v", inventory.Names(items), want)
	}

	data, err := s.Download(ctx, "aenc_pruebas/2025/01", "aenc0101.TxR")
	if err != nil || string(data) != "aenc0101.TxR" {
		t.Errorf("Download = %q, %v", data, err)
	}

	if err := s.Delete(ctx, "aenc_pruebas/2025/01", "aenc0101.TxR"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if _, err := s.Download(ctx, "aenc_pruebas/2025/01", "aenc0101.TxR"); !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("Download deleted: err = %v", err)
	}
	if err := s.Delete(ctx, "aenc_pruebas/2025/01", "aenc0101.TxR"); !errors.Is(err, inventory.ErrNotFound) {
		t.Errorf("Delete deleted: err = %v", err)
	}
}

func TestStoreStaysBelowRoot(t *testing.T) {
	root := t.TempDir()
	s := New(filepath.Join(root, "store"))
	if err := s.Upload(context.Background(), "../../escape", "x.csv", []byte("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "store", "escape", "x.csv")); err != nil {
		t.Errorf("file not kept below root: %v", err)
	}
}

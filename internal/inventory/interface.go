// Package inventory declares the storage capabilities the pipeline depends on:
// the vendor transfer source and the document store.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/ruitoque/fronteras/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrNotConnected is returned when a source is used before Connect.
	ErrNotConnected = errors.New("source not connected")
)

// Source is the vendor transfer capability. One directory per period holds
// every file published for that month.
type Source interface {
	Connect(ctx context.Context) error
	List(ctx context.Context, period models.Period) ([]string, error)
	Retrieve(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// Item describes one document in a store folder.
type Item struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store is the document-store capability. A missing folder lists as empty.
type Store interface {
	List(ctx context.Context, folder string) ([]Item, error)
	Download(ctx context.Context, folder, name string) ([]byte, error)
	Upload(ctx context.Context, folder, name string, data []byte) error
	Delete(ctx context.Context, folder, name string) error
}

// Pinger is implemented by stores that can verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Names extracts item names.
func Names(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

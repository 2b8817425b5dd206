package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ruitoque/fronteras/internal/models"
)

// Area is the local directory holding retrieved files between the download
// and upload steps, one subdirectory per period.
type Area struct {
	Root string
}

// Dir returns the period subdirectory.
func (a Area) Dir(period models.Period) string {
	return filepath.Join(a.Root, period.String())
}

// Write stores one retrieved file.
func (a Area) Write(period models.Period, name string, data []byte) error {
	if err := os.MkdirAll(a.Dir(period), 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	return os.WriteFile(filepath.Join(a.Dir(period), filepath.Base(name)), data, 0o644)
}

// Read loads one staged file.
func (a Area) Read(period models.Period, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(a.Dir(period), filepath.Base(name)))
}

// List returns the staged vendor files of the period, that is the names
// starting with aenc{MM} or tfroc{MM}. A missing directory lists empty.
func (a Area) List(period models.Period) ([]string, error) {
	entries, err := os.ReadDir(a.Dir(period))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, feed := range models.Feeds {
			if strings.HasPrefix(e.Name(), feed.Prefix()+period.MM()) {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clear removes the period subdirectory.
func (a Area) Clear(period models.Period) error {
	return os.RemoveAll(a.Dir(period))
}

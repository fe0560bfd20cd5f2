package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DiskScreenshots writes evidence captures to a local directory served
// under /screenshots.
type DiskScreenshots struct {
	dir string
}

// NewDiskScreenshots prepares the storage directory. An empty dir disables
// the store.
func NewDiskScreenshots(dir string) (*DiskScreenshots, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &DiskScreenshots{dir: dir}, nil
}

// Save writes the capture and returns its serving path.
func (d *DiskScreenshots) Save(companyID uuid.UUID, png []byte) (string, error) {
	name := fmt.Sprintf("%s_%d.png", companyID, time.Now().Unix())
	if err := os.WriteFile(filepath.Join(d.dir, name), png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return "/screenshots/" + name, nil
}

// Dir exposes the storage directory for the static route.
func (d *DiskScreenshots) Dir() string {
	return d.dir
}

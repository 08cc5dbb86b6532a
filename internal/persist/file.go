package persist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dockhand/pkg/logging"

	"gopkg.in/yaml.v3"
)

const fileSubsystem = "Persistence"

// FileStore persists one YAML file per service record under a directory.
// It serves nodes that run without a relational store.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create record directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Upsert writes the record to <dir>/<service_id>.yaml.
func (s *FileStore) Upsert(_ context.Context, rec Record) error {
	if rec.ServiceID == "" {
		return fmt.Errorf("record has empty service id")
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ServiceID, err)
	}

	path := s.path(rec.ServiceID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ServiceID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit record %s: %w", rec.ServiceID, err)
	}

	logging.Debug(fileSubsystem, "Saved record %s", rec.ServiceID)
	return nil
}

// LoadAll reads every .yaml record in the directory. Unparseable files are
// logged and skipped so one corrupt record does not block recovery.
func (s *FileStore) LoadAll(_ context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read record directory %s: %w", s.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logging.Warn(fileSubsystem, "Failed to read record file %s: %v", entry.Name(), err)
			continue
		}

		var rec Record
		if err := yaml.Unmarshal(data, &rec); err != nil {
			logging.Warn(fileSubsystem, "Failed to parse record file %s: %v", entry.Name(), err)
			continue
		}
		if rec.ServiceID == "" {
			logging.Warn(fileSubsystem, "Record file %s has no service id, skipping", entry.Name())
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

// Delete removes the record file. A missing file is a no-op.
func (s *FileStore) Delete(_ context.Context, serviceID string) error {
	err := os.Remove(s.path(serviceID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record %s: %w", serviceID, err)
	}
	return nil
}

func (s *FileStore) path(serviceID string) string {
	return filepath.Join(s.dir, serviceID+".yaml")
}

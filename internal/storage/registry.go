package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/andresjosehr/dollarspy/internal/model"
)

// Registry persists the monitored groups as a JSON array in a single file.
//
// Every read loads the whole file and every write replaces it through a
// rename, so readers never observe a partial write. The mutex only serializes
// writers inside this process: another process editing the same file can still
// lose updates (last writer wins).
type Registry struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
}

// NewRegistry creates a registry backed by the file at path. The file itself is
// created on the first write; its directory is created eagerly.
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	return &Registry{
		path:   path,
		logger: logger,
	}, nil
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// List returns the monitored groups in stored order. A missing or unreadable
// file is an empty registry.
func (r *Registry) List(ctx context.Context) ([]model.Group, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return r.load(), nil
}

// ReplaceAll overwrites the registry with groups and returns how many were stored.
// Repeated ids are dropped, keeping the first occurrence.
func (r *Registry) ReplaceAll(ctx context.Context, groups []model.Group) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unique := dedupe(groups)
	if dropped := len(groups) - len(unique); dropped > 0 {
		r.logger.Warn("Dropped duplicate group ids", "dropped", dropped)
	}

	if err := r.save(unique); err != nil {
		return 0, err
	}
	return len(unique), nil
}

// Contains reports whether id is monitored.
func (r *Registry) Contains(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return indexOf(r.load(), id) >= 0, nil
}

// Add appends a group. It returns false when the id is already present.
func (r *Registry) Add(ctx context.Context, id, name string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	groups := r.load()
	if indexOf(groups, id) >= 0 {
		return false, nil
	}

	groups = append(groups, model.Group{ID: id, Name: name})
	if err := r.save(groups); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes a group. It returns false when the id is absent.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	groups := r.load()
	filtered := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if g.ID != id {
			filtered = append(filtered, g)
		}
	}
	if len(filtered) == len(groups) {
		return false, nil
	}

	if err := r.save(filtered); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) load() []model.Group {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Failed to read registry, treating as empty", "path", r.path, "error", err)
		}
		return []model.Group{}
	}

	var groups []model.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		r.logger.Warn("Registry file is corrupt, treating as empty", "path", r.path, "error", err)
		return []model.Group{}
	}
	if groups == nil {
		groups = []model.Group{}
	}
	return groups
}

func (r *Registry) save(groups []model.Group) error {
	if groups == nil {
		groups = []model.Group{}
	}

	data, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal groups: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".monitored-groups-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close registry: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}

	r.logger.Debug("Saved monitored groups", "path", r.path, "count", len(groups))
	return nil
}

func indexOf(groups []model.Group, id string) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(groups []model.Group) []model.Group {
	seen := make(map[string]struct{}, len(groups))
	out := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	return out
}

package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/blocks/pkg/domain"
)

const ext = ".json"

// Store implements ports.PageStore using the local filesystem.
// It stores one indented JSON document per page in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".blocks/pages".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".blocks", "pages")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(pageID string) (string, error) {
	if pageID == "" {
		return "", fmt.Errorf("pageID cannot be empty")
	}
	if strings.ContainsAny(pageID, `/\`) || pageID == "." || pageID == ".." {
		return "", fmt.Errorf("invalid pageID %q", pageID)
	}
	return filepath.Join(s.BasePath, pageID+ext), nil
}

// Save persists the page to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, page *domain.Page) error {
	destPath, err := s.path(page.ID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure page directory: %w", err)
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+page.ID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing page file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to page file: %w", err)
	}
	return nil
}

// Load reads the page from its JSON file.
func (s *Store) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	filePath, err := s.path(pageID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}

	var page domain.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return &page, nil
}

// Delete removes the page file.
func (s *Store) Delete(ctx context.Context, pageID string) error {
	filePath, err := s.path(pageID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete page file: %w", err)
	}
	return nil
}

// List returns the IDs of every page file, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

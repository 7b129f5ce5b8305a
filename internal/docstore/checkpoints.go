package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CheckpointMetadata describes one snapshot of a document taken before an
// edit was applied.
type CheckpointMetadata struct {
	CheckpointID string `json:"checkpoint_id"`
	CreatedAt    string `json:"created_at"`
	Reason       string `json:"reason"`
	Description  string `json:"description,omitempty"`
}

func (m *Manager) checkpointsRoot(id string) (string, error) {
	root, err := m.documentRoot(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "checkpoints"), nil
}

// CheckpointCreate snapshots the document's current content and comments.
func (m *Manager) CheckpointCreate(id, reason, description string) (string, error) {
	root, err := m.documentRoot(id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(root, contentFile)); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	checkpointsRoot, err := m.checkpointsRoot(id)
	if err != nil {
		return "", err
	}
	checkpointID := newID()
	dir := filepath.Join(checkpointsRoot, checkpointID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := copyFile(filepath.Join(root, contentFile), filepath.Join(dir, contentFile)); err != nil {
		return "", err
	}
	if err := copyFile(filepath.Join(root, commentsFile), filepath.Join(dir, commentsFile)); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	meta := CheckpointMetadata{
		CheckpointID: checkpointID,
		CreatedAt:    now(),
		Reason:       reason,
		Description:  description,
	}
	if err := writeJSON(filepath.Join(checkpointsRoot, checkpointID+".json"), meta); err != nil {
		return "", err
	}
	return checkpointID, nil
}

func (m *Manager) CheckpointsList(id string) ([]CheckpointMetadata, error) {
	root, err := m.checkpointsRoot(id)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []CheckpointMetadata{}, nil
		}
		return nil, err
	}
	var results []CheckpointMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var meta CheckpointMetadata
		if err := readJSON(filepath.Join(root, entry.Name()), &meta); err != nil {
			continue
		}
		results = append(results, meta)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt > results[j].CreatedAt
	})
	return results, nil
}

// CheckpointRestore replaces the document's content and comments with the
// checkpoint's snapshot.
func (m *Manager) CheckpointRestore(id, checkpointID string) error {
	root, err := m.documentRoot(id)
	if err != nil {
		return err
	}
	checkpointsRoot, err := m.checkpointsRoot(id)
	if err != nil {
		return err
	}
	if checkpointID == "" || strings.ContainsAny(checkpointID, "/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, checkpointID)
	}
	dir := filepath.Join(checkpointsRoot, checkpointID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrNotFound
	}
	if err := copyFile(filepath.Join(dir, contentFile), filepath.Join(root, contentFile)); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(dir, commentsFile), filepath.Join(root, commentsFile)); err != nil && !os.IsNotExist(err) {
		return err
	}
	var doc Document
	if err := readJSON(filepath.Join(root, metaFile), &doc); err == nil {
		doc.UpdatedAt = now()
		_ = writeJSON(filepath.Join(root, metaFile), doc)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}

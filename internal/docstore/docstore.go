// Package docstore keeps review documents on disk under the data dir. Each
// document lives in its own folder holding the contract text, its comments
// and any checkpoints taken before edits were applied.
package docstore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lexgate/engine/internal/document"
)

const (
	maxSize = 10 * 1024 * 1024
	schema  = 1

	contentFile  = "content.txt"
	commentsFile = "comments.json"
	metaFile     = "document.json"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("invalid path")
	ErrTooLarge    = errors.New("document too large")
)

// Document describes a stored contract document.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourcePath string `json:"source_path,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type commentsManifest struct {
	SchemaVersion int                `json:"schema_version"`
	Comments      []document.Comment `json:"comments"`
}

// Manager owns the documents directory.
type Manager struct {
	root string
}

func NewManager(root string) *Manager {
	return &Manager{root: root}
}

func (m *Manager) Init() error {
	return os.MkdirAll(m.root, 0o755)
}

// Import copies a contract text file into the store. Symlinks are
// rejected, matching how the host hands files over.
func (m *Manager) Import(path string) (Document, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Document{}, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Document{}, fmt.Errorf("%w: symlink", ErrInvalidPath)
	}
	if !info.Mode().IsRegular() {
		return Document{}, fmt.Errorf("%w: not a regular file", ErrInvalidPath)
	}
	if info.Size() > maxSize {
		return Document{}, ErrTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc := Document{
		ID:         newID(),
		Name:       filepath.Base(path),
		SourcePath: path,
		CreatedAt:  now(),
		UpdatedAt:  now(),
	}
	root := filepath.Join(m.root, doc.ID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Document{}, err
	}
	if err := os.WriteFile(filepath.Join(root, contentFile), data, 0o600); err != nil {
		return Document{}, err
	}
	if err := writeJSON(filepath.Join(root, commentsFile), commentsManifest{SchemaVersion: schema}); err != nil {
		return Document{}, err
	}
	if err := writeJSON(filepath.Join(root, metaFile), doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (m *Manager) List() ([]Document, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Document{}, nil
		}
		return nil, err
	}
	var docs []Document
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		var doc Document
		if err := readJSON(filepath.Join(m.root, entry.Name(), metaFile), &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt > docs[j].CreatedAt
	})
	return docs, nil
}

func (m *Manager) Get(id string) (Document, error) {
	root, err := m.documentRoot(id)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := readJSON(filepath.Join(root, metaFile), &doc); err != nil {
		if os.IsNotExist(err) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// LoadBuffer loads the document into a paragraph buffer whose syncs
// persist back to the store.
func (m *Manager) LoadBuffer(id string) (*document.Buffer, error) {
	root, err := m.documentRoot(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(root, contentFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var manifest commentsManifest
	if err := readJSON(filepath.Join(root, commentsFile), &manifest); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	buffer := document.NewBufferFromText(strings.TrimRight(string(data), "\n"))
	for _, comment := range manifest.Comments {
		buffer.InsertComment(comment.Range, comment.Text)
	}
	// A stored comment whose range no longer fits the content is dropped
	// rather than making the document unloadable.
	if err := buffer.Sync(); err != nil && !errors.Is(err, document.ErrInvalidRange) {
		return nil, err
	}
	buffer.SetSyncHook(func(snapshot document.Snapshot) error {
		return m.persist(id, snapshot)
	})
	return buffer, nil
}

func (m *Manager) persist(id string, snapshot document.Snapshot) error {
	root, err := m.documentRoot(id)
	if err != nil {
		return err
	}
	content := strings.Join(snapshot.Paragraphs, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(root, contentFile), []byte(content), 0o600); err != nil {
		return err
	}
	manifest := commentsManifest{SchemaVersion: schema, Comments: snapshot.Comments}
	if err := writeJSON(filepath.Join(root, commentsFile), manifest); err != nil {
		return err
	}
	var doc Document
	if err := readJSON(filepath.Join(root, metaFile), &doc); err == nil {
		doc.UpdatedAt = now()
		_ = writeJSON(filepath.Join(root, metaFile), doc)
	}
	return nil
}

func (m *Manager) Delete(id string) error {
	root, err := m.documentRoot(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return ErrNotFound
	}
	return os.RemoveAll(root)
}

func (m *Manager) documentRoot(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, id)
	}
	return filepath.Join(m.root, id), nil
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("doc-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readJSON(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, value)
}

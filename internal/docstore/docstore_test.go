package docstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"lexgate/engine/internal/document"
)

func writeContract(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestImportAndList(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := writeContract(t, root, "contract.txt", "Clause one.\nClause two.\n")

	doc, err := mgr.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if doc.Name != "contract.txt" || doc.ID == "" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	docs, err := mgr.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("expected imported document listed, got %+v", docs)
	}

	got, err := mgr.Get(doc.ID)
	if err != nil || got.Name != "contract.txt" {
		t.Fatalf("get: %+v %v", got, err)
	}
}

func TestImportRejectsSymlink(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	target := writeContract(t, root, "real.txt", "text")
	link := filepath.Join(root, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := mgr.Import(link); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected invalid path, got %v", err)
	}
}

func TestLoadBufferRoundTrip(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := writeContract(t, root, "contract.txt", "Clause one.\nClause two.\n")
	doc, err := mgr.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	buffer, err := mgr.LoadBuffer(doc.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := buffer.Paragraphs(); len(got) != 2 || got[0] != "Clause one." {
		t.Fatalf("unexpected paragraphs: %v", got)
	}

	buffer.ReplaceParagraph(0, "Amended clause one.")
	buffer.InsertComment(document.Range{StartPar: 0, StartOff: 0, EndPar: 0, EndOff: 7}, "amended")
	if err := buffer.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	reloaded, err := mgr.LoadBuffer(doc.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Paragraphs()[0]; got != "Amended clause one." {
		t.Fatalf("edit must persist across loads, got %q", got)
	}
	if comments := reloaded.Comments(); len(comments) != 1 || comments[0].Text != "amended" {
		t.Fatalf("comments must persist, got %+v", comments)
	}
}

func TestLoadBufferDropsStaleStoredComment(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := writeContract(t, root, "contract.txt", "Clause one.\nClause two.\n")
	doc, err := mgr.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	docRoot, err := mgr.documentRoot(doc.ID)
	if err != nil {
		t.Fatalf("document root: %v", err)
	}
	stale := commentsManifest{SchemaVersion: schema, Comments: []document.Comment{
		{Range: document.Range{StartPar: 5, StartOff: 0, EndPar: 5, EndOff: 3}, Text: "orphaned"},
		{Range: document.Range{StartPar: 1, StartOff: 0, EndPar: 1, EndOff: 6}, Text: "still valid"},
	}}
	if err := writeJSON(filepath.Join(docRoot, commentsFile), stale); err != nil {
		t.Fatalf("write comments: %v", err)
	}

	buffer, err := mgr.LoadBuffer(doc.ID)
	if err != nil {
		t.Fatalf("stale comment must not make the document unloadable: %v", err)
	}
	comments := buffer.Comments()
	if len(comments) != 1 || comments[0].Text != "still valid" {
		t.Fatalf("expected only the resolvable comment, got %+v", comments)
	}
}

func TestLoadBufferUnknownDocument(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := mgr.LoadBuffer("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckpointCreateAndRestore(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := writeContract(t, root, "contract.txt", "Original clause.\n")
	doc, err := mgr.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	checkpointID, err := mgr.CheckpointCreate(doc.ID, "pre_apply", "before approving item 0")
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	buffer, err := mgr.LoadBuffer(doc.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	buffer.ReplaceParagraph(0, "Mutated clause.")
	if err := buffer.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	list, err := mgr.CheckpointsList(doc.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 checkpoint, got %v %v", list, err)
	}
	if list[0].Reason != "pre_apply" {
		t.Fatalf("unexpected metadata: %+v", list[0])
	}

	if err := mgr.CheckpointRestore(doc.ID, checkpointID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored, err := mgr.LoadBuffer(doc.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := restored.Paragraphs()[0]; got != "Original clause." {
		t.Fatalf("expected restored content, got %q", got)
	}
}

func TestCheckpointRestoreUnknown(t *testing.T) {
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "documents"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	path := writeContract(t, root, "contract.txt", "Clause.\n")
	doc, err := mgr.Import(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := mgr.CheckpointRestore(doc.ID, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

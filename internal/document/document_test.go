package document

import (
	"errors"
	"testing"
)

func TestMutationsInvisibleUntilSync(t *testing.T) {
	b := NewBuffer([]string{"alpha", "beta"})
	b.ReplaceParagraph(0, "gamma")
	if b.Paragraphs()[0] != "alpha" {
		t.Fatalf("queued mutation must not be observable before sync")
	}
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if b.Paragraphs()[0] != "gamma" {
		t.Fatalf("expected gamma after sync, got %q", b.Paragraphs()[0])
	}
}

func TestRunFlushesOnErrorPath(t *testing.T) {
	b := NewBuffer([]string{"alpha"})
	wantErr := errors.New("boom")
	err := b.Run(func(b *Buffer) error {
		b.ReplaceParagraph(0, "beta")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if b.Paragraphs()[0] != "beta" {
		t.Fatalf("pending ops must flush even when the callback fails")
	}
}

func TestSyncHookReceivesSnapshot(t *testing.T) {
	b := NewBuffer([]string{"alpha"})
	var got Snapshot
	b.SetSyncHook(func(s Snapshot) error {
		got = s
		return nil
	})
	b.ReplaceParagraph(0, "beta")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(got.Paragraphs) != 1 || got.Paragraphs[0] != "beta" {
		t.Fatalf("hook saw stale snapshot: %+v", got)
	}
}

func TestReplaceSelectionSingleParagraph(t *testing.T) {
	b := NewBuffer([]string{"the quick brown fox"})
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 4, EndPar: 0, EndOff: 9}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if b.SelectionText() != "quick" {
		t.Fatalf("selection text: %q", b.SelectionText())
	}
	b.ReplaceSelection("slow")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if b.Paragraphs()[0] != "the slow brown fox" {
		t.Fatalf("got %q", b.Paragraphs()[0])
	}
	if b.SelectionText() != "slow" {
		t.Fatalf("selection should cover the inserted text, got %q", b.SelectionText())
	}
}

func TestReplaceSelectionAcrossParagraphs(t *testing.T) {
	b := NewBuffer([]string{"first line", "middle line", "last line"})
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 6, EndPar: 2, EndOff: 4}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	b.ReplaceSelection("replacement")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	paragraphs := b.Paragraphs()
	if len(paragraphs) != 1 {
		t.Fatalf("expected collapse to 1 paragraph, got %d: %v", len(paragraphs), paragraphs)
	}
	if paragraphs[0] != "first replacement line" {
		t.Fatalf("got %q", paragraphs[0])
	}
}

func TestReplaceSelectionWithoutSelection(t *testing.T) {
	b := NewBuffer([]string{"alpha"})
	b.ReplaceSelection("beta")
	if err := b.Sync(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if b.Paragraphs()[0] != "alpha" {
		t.Fatalf("document must be untouched")
	}
}

func TestDeleteParagraphShiftsCommentsAndSelection(t *testing.T) {
	b := NewBuffer([]string{"one", "two", "three"})
	b.InsertComment(Range{StartPar: 2, StartOff: 0, EndPar: 2, EndOff: 5}, "note")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := b.SetSelection(Range{StartPar: 2, StartOff: 0, EndPar: 2, EndOff: 3}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	b.DeleteParagraph(1)
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	comments := b.Comments()
	if comments[0].Range.StartPar != 1 {
		t.Fatalf("comment should shift up, got %+v", comments[0].Range)
	}
	sel, ok := b.Selection()
	if !ok || sel.StartPar != 1 {
		t.Fatalf("selection should shift up, got %+v", sel)
	}
}

func TestDeleteParagraphClearsSelectionOnDeleted(t *testing.T) {
	b := NewBuffer([]string{"one", "two"})
	if err := b.SetSelection(Range{StartPar: 1, StartOff: 0, EndPar: 1, EndOff: 3}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	b.DeleteParagraph(1)
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, ok := b.Selection(); ok {
		t.Fatalf("selection on the deleted paragraph must be cleared")
	}
	if got := b.SelectionText(); got != "" {
		t.Fatalf("expected empty selection text, got %q", got)
	}
}

func TestDeleteParagraphDropsCoveredComment(t *testing.T) {
	b := NewBuffer([]string{"one", "two", "three"})
	b.InsertComment(Range{StartPar: 1, StartOff: 0, EndPar: 1, EndOff: 3}, "covered")
	b.InsertComment(Range{StartPar: 2, StartOff: 0, EndPar: 2, EndOff: 5}, "after")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	b.DeleteParagraph(1)
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	comments := b.Comments()
	if len(comments) != 1 {
		t.Fatalf("comment on the deleted paragraph must be dropped, got %+v", comments)
	}
	if comments[0].Text != "after" || comments[0].Range.StartPar != 1 {
		t.Fatalf("surviving comment should shift up, got %+v", comments[0])
	}
}

func TestReplaceParagraphClampsStaleRanges(t *testing.T) {
	b := NewBuffer([]string{"a fairly long opening paragraph"})
	b.InsertComment(Range{StartPar: 0, StartOff: 9, EndPar: 0, EndOff: 30}, "note")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 9, EndPar: 0, EndOff: 30}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	b.ReplaceParagraph(0, "short")
	if err := b.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	comments := b.Comments()
	if len(comments) != 1 || comments[0].Range.StartOff != 5 || comments[0].Range.EndOff != 5 {
		t.Fatalf("comment offsets must clamp to the new length, got %+v", comments)
	}
	if _, ok := b.Selection(); ok {
		t.Fatalf("out-of-bounds selection must be cleared")
	}
	if got := b.SelectionText(); got != "" {
		t.Fatalf("expected empty selection text, got %q", got)
	}
}

func TestSearchFirstCaseInsensitive(t *testing.T) {
	b := NewBuffer([]string{"Employee may be terminated", "Employee SHALL receive severance"})
	r, ok := b.SearchFirst("employee shall")
	if !ok {
		t.Fatalf("expected match")
	}
	if r.StartPar != 1 || r.StartOff != 0 {
		t.Fatalf("unexpected range: %+v", r)
	}
	if _, ok := b.SearchFirst("no such phrase"); ok {
		t.Fatalf("expected miss")
	}
}

func TestSetSelectionValidatesRange(t *testing.T) {
	b := NewBuffer([]string{"short"})
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 0, EndPar: 0, EndOff: 99}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if err := b.SetSelection(Range{StartPar: 3, EndPar: 3}); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

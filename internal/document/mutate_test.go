package document

import (
	"errors"
	"testing"
)

func TestApplyToDocumentReplacesAnchor(t *testing.T) {
	b := NewBuffer([]string{
		"Employee may be terminated without notice.",
		"",
		"Employee shall receive 30 days severance pay.",
	})
	recommended := "Employee may be terminated with 30 days written notice per Malaysian Employment Act."
	if err := ApplyToDocument(b, "Employee may be terminated without notice.", recommended); err != nil {
		t.Fatalf("apply: %v", err)
	}
	paragraphs := b.Paragraphs()
	if paragraphs[0] != recommended {
		t.Fatalf("anchor not replaced: %q", paragraphs[0])
	}
	if paragraphs[2] != "Employee shall receive 30 days severance pay." {
		t.Fatalf("unrelated paragraph must survive: %q", paragraphs[2])
	}
}

func TestApplyToDocumentRemovesSpannedParagraphs(t *testing.T) {
	p1 := "The Employer reserves the right to amend the terms of this agreement at any time without prior consultation."
	p2 := "Any such amendment takes effect immediately upon internal publication."
	b := NewBuffer([]string{"Preamble.", p1, p2, "Closing."})
	if err := ApplyToDocument(b, p1+"\n"+p2, "Amendments require thirty days written notice to the Employee."); err != nil {
		t.Fatalf("apply: %v", err)
	}
	paragraphs := b.Paragraphs()
	if len(paragraphs) != 3 {
		t.Fatalf("expected spanned paragraph removed, got %v", paragraphs)
	}
	if paragraphs[1] != "Amendments require thirty days written notice to the Employee." {
		t.Fatalf("unexpected anchor content: %q", paragraphs[1])
	}
	if paragraphs[2] != "Closing." {
		t.Fatalf("following text must shift up intact: %q", paragraphs[2])
	}
}

func TestApplyToDocumentAcrossBlankLine(t *testing.T) {
	p1 := "The Employer may terminate this agreement at any time without notice and without assigning any reason whatsoever to the Employee."
	p2 := "The employee shall not be entitled to any severance payment upon such termination."
	b := NewBuffer([]string{p1, "", p2, "Closing clause."})
	recommended := "Termination requires four weeks written notice and severance per the Employment Act."
	if err := ApplyToDocument(b, p1+" "+p2, recommended); err != nil {
		t.Fatalf("apply: %v", err)
	}
	paragraphs := b.Paragraphs()
	if len(paragraphs) != 2 {
		t.Fatalf("blank-separated span must be removed whole, got %v", paragraphs)
	}
	if paragraphs[0] != recommended {
		t.Fatalf("unexpected anchor content: %q", paragraphs[0])
	}
	if paragraphs[1] != "Closing clause." {
		t.Fatalf("no stale clause text may survive: %q", paragraphs[1])
	}
}

func TestApplyToDocumentSpanNotFound(t *testing.T) {
	b := NewBuffer([]string{"Completely unrelated paragraph about working hours."})
	err := ApplyToDocument(b, "Employee may be terminated without notice during probation.", "replacement")
	if !errors.Is(err, ErrSpanNotFound) {
		t.Fatalf("expected ErrSpanNotFound, got %v", err)
	}
	if b.Paragraphs()[0] != "Completely unrelated paragraph about working hours." {
		t.Fatalf("miss must not mutate the document")
	}
	if len(b.Comments()) != 0 {
		t.Fatalf("miss must not add comments")
	}
}

func TestApplyToDocumentConvertsNewlineMarkers(t *testing.T) {
	b := NewBuffer([]string{"Employee may be terminated without notice at any time by the Employer."})
	if err := ApplyToDocument(b, "Employee may be terminated without notice at any time by the Employer.", `First line.\nSecond line.`); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.Paragraphs()[0] != "First line.\nSecond line." {
		t.Fatalf("escaped newline markers must become line breaks: %q", b.Paragraphs()[0])
	}
}

func TestApplySelection(t *testing.T) {
	b := NewBuffer([]string{"Employee may be terminated without notice."})
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 0, EndPar: 0, EndOff: len("Employee may be terminated without notice.")}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if err := ApplySelection(b, "Employee must receive written notice."); err != nil {
		t.Fatalf("apply selection: %v", err)
	}
	if b.Paragraphs()[0] != "Employee must receive written notice." {
		t.Fatalf("got %q", b.Paragraphs()[0])
	}
}

func TestApplySelectionWithoutSelection(t *testing.T) {
	b := NewBuffer([]string{"text"})
	if err := ApplySelection(b, "replacement"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestAttachCommentWholeDocument(t *testing.T) {
	b := NewBuffer([]string{"intro", "Employee must receive written notice per the Act."})
	attached, err := AttachComment(b, "Employee must receive written notice per the Act.", "Aligned with Employment Act 1955.", false)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !attached {
		t.Fatalf("expected comment attached")
	}
	comments := b.Comments()
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}
	if comments[0].Range.StartPar != 1 {
		t.Fatalf("comment must target the replacement paragraph, got %+v", comments[0].Range)
	}
	if comments[0].Text != "Aligned with Employment Act 1955." {
		t.Fatalf("unexpected comment text: %q", comments[0].Text)
	}
}

func TestAttachCommentTargetMissIsSilent(t *testing.T) {
	b := NewBuffer([]string{"nothing matching here"})
	attached, err := AttachComment(b, "phrase that does not exist in the document", "note", false)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if attached {
		t.Fatalf("miss must skip the comment")
	}
	if len(b.Comments()) != 0 {
		t.Fatalf("no comment expected")
	}
}

func TestAttachCommentEmptyTextNoop(t *testing.T) {
	b := NewBuffer([]string{"anything"})
	attached, err := AttachComment(b, "anything", "", false)
	if err != nil || attached {
		t.Fatalf("empty comment must be a no-op, got attached=%v err=%v", attached, err)
	}
}

func TestAttachCommentSelectionMode(t *testing.T) {
	b := NewBuffer([]string{"Employee must receive written notice."})
	if err := b.SetSelection(Range{StartPar: 0, StartOff: 0, EndPar: 0, EndOff: 8}); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	attached, err := AttachComment(b, "irrelevant", "note on selection", true)
	if err != nil || !attached {
		t.Fatalf("expected attached, got attached=%v err=%v", attached, err)
	}
	if got := b.Comments()[0].Range; got.EndOff != 8 {
		t.Fatalf("comment must target the selection, got %+v", got)
	}
}

func TestConvertNewlines(t *testing.T) {
	if got := ConvertNewlines(`a\nb`); got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}

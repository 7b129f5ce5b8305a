// Package document models the word-processor surface the engine edits: an
// ordered paragraph sequence, a live selection, and range comments.
// Mutations queue on a batch and only become observable after Sync, the
// same contract the host editor imposes on the engine.
package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSelection      = errors.New("no selection")
	ErrInvalidRange     = errors.New("invalid range")
	ErrInvalidParagraph = errors.New("invalid paragraph index")
)

// Range addresses a contiguous region of the document in paragraph/byte
// coordinates. End is exclusive.
type Range struct {
	StartPar int `json:"start_par"`
	StartOff int `json:"start_off"`
	EndPar   int `json:"end_par"`
	EndOff   int `json:"end_off"`
}

// Comment is an annotation attached to a range.
type Comment struct {
	Range Range  `json:"range"`
	Text  string `json:"text"`
}

// Snapshot is the synced document state handed to the persistence hook.
type Snapshot struct {
	Paragraphs []string
	Comments   []Comment
}

// Buffer holds the synced document state plus any queued mutations. The
// review session is its sole owner; access is single-threaded by design.
type Buffer struct {
	paragraphs []string
	comments   []Comment
	selection  *Range
	pending    []func() error
	onSync     func(Snapshot) error
}

func NewBuffer(paragraphs []string) *Buffer {
	copied := make([]string, len(paragraphs))
	copy(copied, paragraphs)
	return &Buffer{paragraphs: copied}
}

func NewBufferFromText(text string) *Buffer {
	return NewBuffer(strings.Split(text, "\n"))
}

// SetSyncHook installs a callback invoked after every successful Sync with
// the post-sync state. Used by the store to persist the document.
func (b *Buffer) SetSyncHook(fn func(Snapshot) error) {
	b.onSync = fn
}

func (b *Buffer) Paragraphs() []string {
	out := make([]string, len(b.paragraphs))
	copy(out, b.paragraphs)
	return out
}

func (b *Buffer) ParagraphCount() int {
	return len(b.paragraphs)
}

func (b *Buffer) Text() string {
	return strings.Join(b.paragraphs, "\n")
}

func (b *Buffer) Comments() []Comment {
	out := make([]Comment, len(b.comments))
	copy(out, b.comments)
	return out
}

// SetSelection pins the live selection. Selection is UI state, not a
// mutation, so it takes effect immediately.
func (b *Buffer) SetSelection(r Range) error {
	if err := b.validateRange(r); err != nil {
		return err
	}
	b.selection = &r
	return nil
}

func (b *Buffer) ClearSelection() {
	b.selection = nil
}

func (b *Buffer) Selection() (Range, bool) {
	if b.selection == nil {
		return Range{}, false
	}
	if b.validateRange(*b.selection) != nil {
		b.selection = nil
		return Range{}, false
	}
	return *b.selection, true
}

// SelectionText returns the plain text of the live selection, with
// paragraph boundaries rendered as newlines. A selection the mutators
// failed to keep in bounds reads as empty rather than panicking.
func (b *Buffer) SelectionText() string {
	if b.selection == nil {
		return ""
	}
	if b.validateRange(*b.selection) != nil {
		b.selection = nil
		return ""
	}
	return b.rangeText(*b.selection)
}

func (b *Buffer) rangeText(r Range) string {
	if r.StartPar == r.EndPar {
		return b.paragraphs[r.StartPar][r.StartOff:r.EndOff]
	}
	var parts []string
	parts = append(parts, b.paragraphs[r.StartPar][r.StartOff:])
	for i := r.StartPar + 1; i < r.EndPar; i++ {
		parts = append(parts, b.paragraphs[i])
	}
	parts = append(parts, b.paragraphs[r.EndPar][:r.EndOff])
	return strings.Join(parts, "\n")
}

func (b *Buffer) validateRange(r Range) error {
	if r.StartPar < 0 || r.StartPar >= len(b.paragraphs) || r.EndPar < r.StartPar || r.EndPar >= len(b.paragraphs) {
		return fmt.Errorf("%w: paragraphs %d..%d", ErrInvalidRange, r.StartPar, r.EndPar)
	}
	if r.StartOff < 0 || r.StartOff > len(b.paragraphs[r.StartPar]) {
		return fmt.Errorf("%w: start offset %d", ErrInvalidRange, r.StartOff)
	}
	if r.EndOff < 0 || r.EndOff > len(b.paragraphs[r.EndPar]) {
		return fmt.Errorf("%w: end offset %d", ErrInvalidRange, r.EndOff)
	}
	if r.StartPar == r.EndPar && r.EndOff < r.StartOff {
		return fmt.Errorf("%w: end before start", ErrInvalidRange)
	}
	return nil
}

// clampComments fits comment offsets to the current paragraph lengths and
// drops comments whose range no longer resolves at all.
func (b *Buffer) clampComments() {
	kept := b.comments[:0]
	for _, comment := range b.comments {
		r := comment.Range
		if r.StartPar < 0 || r.EndPar >= len(b.paragraphs) || r.EndPar < r.StartPar {
			continue
		}
		if max := len(b.paragraphs[r.StartPar]); r.StartOff > max {
			r.StartOff = max
		}
		if max := len(b.paragraphs[r.EndPar]); r.EndOff > max {
			r.EndOff = max
		}
		if r.StartPar == r.EndPar && r.EndOff < r.StartOff {
			continue
		}
		comment.Range = r
		kept = append(kept, comment)
	}
	b.comments = kept
}

// ReplaceParagraph queues a full-content replacement of one paragraph.
// The replacement may contain newlines; the paragraph stays a single
// entry until a later sync of the host renders it, which matches how the
// editor treats inserted text.
func (b *Buffer) ReplaceParagraph(index int, text string) {
	b.pending = append(b.pending, func() error {
		if index < 0 || index >= len(b.paragraphs) {
			return fmt.Errorf("%w: %d", ErrInvalidParagraph, index)
		}
		b.paragraphs[index] = text
		b.clampComments()
		if b.selection != nil && b.validateRange(*b.selection) != nil {
			b.selection = nil
		}
		return nil
	})
}

// DeleteParagraph queues removal of one paragraph. Comments anchored to
// later paragraphs shift up with the text; comments and the selection
// lose their anchor when the deleted paragraph was part of their range.
func (b *Buffer) DeleteParagraph(index int) {
	b.pending = append(b.pending, func() error {
		if index < 0 || index >= len(b.paragraphs) {
			return fmt.Errorf("%w: %d", ErrInvalidParagraph, index)
		}
		b.paragraphs = append(b.paragraphs[:index], b.paragraphs[index+1:]...)
		kept := b.comments[:0]
		for _, comment := range b.comments {
			if comment.Range.StartPar <= index && index <= comment.Range.EndPar {
				continue
			}
			if comment.Range.StartPar > index {
				comment.Range.StartPar--
			}
			if comment.Range.EndPar > index {
				comment.Range.EndPar--
			}
			kept = append(kept, comment)
		}
		b.comments = kept
		if b.selection != nil {
			switch {
			case b.selection.StartPar > index:
				b.selection.StartPar--
				b.selection.EndPar--
			case b.selection.EndPar >= index:
				b.selection = nil
			}
		}
		return nil
	})
}

// ReplaceSelection queues replacement of the live selection's content.
// A multi-paragraph selection collapses into the start paragraph.
func (b *Buffer) ReplaceSelection(text string) {
	b.pending = append(b.pending, func() error {
		if b.selection == nil {
			return ErrNoSelection
		}
		r := *b.selection
		if err := b.validateRange(r); err != nil {
			return err
		}
		prefix := b.paragraphs[r.StartPar][:r.StartOff]
		suffix := b.paragraphs[r.EndPar][r.EndOff:]
		b.paragraphs[r.StartPar] = prefix + text + suffix
		if r.EndPar > r.StartPar {
			b.paragraphs = append(b.paragraphs[:r.StartPar+1], b.paragraphs[r.EndPar+1:]...)
		}
		selected := Range{
			StartPar: r.StartPar,
			StartOff: r.StartOff,
			EndPar:   r.StartPar,
			EndOff:   r.StartOff + len(text),
		}
		b.selection = &selected
		return nil
	})
}

// InsertComment queues an annotation on the given range.
func (b *Buffer) InsertComment(target Range, text string) {
	b.pending = append(b.pending, func() error {
		if err := b.validateRange(target); err != nil {
			return err
		}
		b.comments = append(b.comments, Comment{Range: target, Text: text})
		return nil
	})
}

// SearchFirst finds the first case-insensitive occurrence of phrase in the
// synced paragraph text.
func (b *Buffer) SearchFirst(phrase string) (Range, bool) {
	if phrase == "" {
		return Range{}, false
	}
	needle := strings.ToLower(phrase)
	for i, para := range b.paragraphs {
		if idx := strings.Index(strings.ToLower(para), needle); idx >= 0 {
			return Range{StartPar: i, StartOff: idx, EndPar: i, EndOff: idx + len(phrase)}, true
		}
	}
	return Range{}, false
}

// Sync applies every queued mutation in order. The queue is always
// drained, even when an operation fails; a failed operation is dropped
// and its error reported after the rest have applied.
func (b *Buffer) Sync() error {
	var firstErr error
	for _, op := range b.pending {
		if err := op(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.pending = nil
	if firstErr != nil {
		return firstErr
	}
	if b.onSync != nil {
		return b.onSync(Snapshot{Paragraphs: b.Paragraphs(), Comments: b.Comments()})
	}
	return nil
}

// Run executes fn against the buffer and guarantees pending operations are
// flushed on every exit path, so no mutation is left queued when control
// returns to the caller.
func (b *Buffer) Run(fn func(*Buffer) error) error {
	err := fn(b)
	if syncErr := b.Sync(); err == nil {
		err = syncErr
	}
	return err
}

// Package review owns the stateful walk through one batch of edit
// candidates: ordered items, a current position, a mode, and the dialog
// surface the user decides on. The session is the sole mutator of its
// items and of the document buffer; every document-touching step is
// flushed before the next dialog interaction is dispatched.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lexgate/engine/internal/dialog"
	"lexgate/engine/internal/diffview"
	"lexgate/engine/internal/document"
	"lexgate/engine/internal/logging"
	"lexgate/engine/internal/suggest"
)

// Mode selects what text the session reviews.
type Mode int

const (
	WholeDocument Mode = iota
	SelectionOnly
)

func (m Mode) String() string {
	if m == SelectionOnly {
		return "selection"
	}
	return "document"
}

// State of the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StatePresenting
	StateCompleted
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StatePresenting:
		return "presenting"
	case StateCompleted:
		return "completed"
	case StateCanceled:
		return "canceled"
	default:
		return "idle"
	}
}

var (
	ErrNoSuggestions = errors.New("no suggestions in response")
	ErrNotPresenting = errors.New("session is not presenting")
)

// Suggester generates suggestions. ReviewContract takes the full source
// text; ReviseClause takes one clause and returns a single alternate.
type Suggester interface {
	ReviewContract(ctx context.Context, text string) (string, error)
	ReviseClause(ctx context.Context, originalText string) (string, error)
}

// Config wires a session to its collaborators.
type Config struct {
	DocumentID string
	Mode       Mode
	Suggester  Suggester
	Dialog     *dialog.Channel
	Buffer     *document.Buffer

	// Checkpoint snapshots the document before an approve lands. Errors
	// are logged and do not block the approve.
	Checkpoint func(reason, description string) error

	// Status surfaces a user-visible status line. Optional.
	Status func(message string)

	Logger *slog.Logger
}

// Session is the review state machine. Not safe for concurrent use; the
// engine dispatches to it from a single goroutine.
type Session struct {
	cfg      Config
	state    State
	items    []suggest.Candidate
	position int
	logger   *slog.Logger
}

func NewSession(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Session{cfg: cfg, state: StateIdle, logger: logger}
}

func (s *Session) State() State  { return s.state }
func (s *Session) Mode() Mode    { return s.cfg.Mode }
func (s *Session) Position() int { return s.position }
func (s *Session) Total() int    { return len(s.items) }

// Done reports a terminal state; the engine discards done sessions so a
// new start may begin.
func (s *Session) Done() bool {
	return s.state == StateCompleted || s.state == StateCanceled
}

// Item returns a copy of the candidate at index.
func (s *Session) Item(index int) (suggest.Candidate, bool) {
	if index < 0 || index >= len(s.items) {
		return suggest.Candidate{}, false
	}
	return s.items[index], true
}

// Start requests suggestions for the session's source text and, when at
// least one candidate comes back, opens the dialog on the first item. On
// failure or an empty yield the session returns to idle and no dialog is
// shown.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateIdle {
		return fmt.Errorf("start from %s state", s.state)
	}
	sourceText := s.cfg.Buffer.Text()
	if s.cfg.Mode == SelectionOnly {
		sourceText = s.cfg.Buffer.SelectionText()
	}

	s.state = StateRequesting
	s.status("Requesting AI recommendations...")
	raw, err := s.cfg.Suggester.ReviewContract(ctx, sourceText)
	if err != nil {
		s.state = StateIdle
		s.status("Error: could not get recommendations from AI.")
		return err
	}

	selection := s.cfg.Mode == SelectionOnly
	parseSource := ""
	if selection {
		parseSource = sourceText
	}
	items := suggest.Parse(raw, parseSource, selection)
	if len(items) == 0 {
		s.state = StateIdle
		s.status("No recommendations received from AI.")
		return ErrNoSuggestions
	}

	s.items = items
	s.position = 0
	s.state = StatePresenting
	s.logger.Info("review.start", "document_id", s.cfg.DocumentID,
		"mode", s.cfg.Mode.String(), "items", len(items))
	if selection {
		s.status(fmt.Sprintf("Received %d recommendations for selected text. Starting review...", len(items)))
	} else {
		s.status(fmt.Sprintf("Received %d recommendations from AI. Starting review...", len(items)))
	}
	return s.cfg.Dialog.Open(s.currentData())
}

// HandleMessage processes one action message from the dialog surface.
func (s *Session) HandleMessage(ctx context.Context, msg dialog.Message) error {
	if s.state != StatePresenting {
		return ErrNotPresenting
	}
	switch msg.Action {
	case dialog.ActionReady:
		// The surface retains nothing across open/close; resend in full.
		return s.pushCurrentItem()
	case dialog.ActionApprove:
		return s.approve(msg.EditedText)
	case dialog.ActionAddComment:
		return s.addComment(msg.CommentText)
	case dialog.ActionNext:
		return s.advance()
	case dialog.ActionCancel:
		s.Cancel()
		return nil
	case dialog.ActionRequestNewSuggestion:
		return s.requestAlternate(ctx, msg.OriginalText)
	default:
		return fmt.Errorf("unknown dialog action %q", msg.Action)
	}
}

// HandleDialogClosed reacts to the surface going away out-of-band. The
// channel reference is cleared first so nothing later in the turn sends
// into a dead surface.
func (s *Session) HandleDialogClosed() {
	s.cfg.Dialog.MarkClosed()
	if s.state == StatePresenting || s.state == StateRequesting {
		s.state = StateCanceled
		s.status("Review window closed.")
		s.logger.Info("review.dialog_closed", "document_id", s.cfg.DocumentID, "position", s.position)
	}
}

// Cancel ends the session and closes the dialog.
func (s *Session) Cancel() {
	if s.Done() {
		return
	}
	s.state = StateCanceled
	s.cfg.Dialog.Close()
	s.status("Review canceled.")
	s.logger.Info("review.cancel", "document_id", s.cfg.DocumentID, "position", s.position)
}

// approve commits the current candidate to the document, then asks the
// surface for an optional comment. A span that cannot be located is a
// recoverable per-item failure: status surfaced, mutation skipped, and
// the comment prompt still goes out so the user's flow continues.
func (s *Session) approve(editedText string) error {
	item := &s.items[s.position]
	if editedText != "" {
		item.Recommended = editedText
	}

	if s.cfg.Checkpoint != nil {
		desc := fmt.Sprintf("before applying recommendation %d of %d", s.position+1, len(s.items))
		if err := s.cfg.Checkpoint("pre_apply", desc); err != nil {
			s.logger.Warn("review.checkpoint_failed", "error", err)
		}
	}

	var err error
	if s.cfg.Mode == SelectionOnly {
		err = document.ApplySelection(s.cfg.Buffer, item.Recommended)
	} else {
		err = document.ApplyToDocument(s.cfg.Buffer, item.Original, item.Recommended)
	}
	switch {
	case errors.Is(err, document.ErrSpanNotFound):
		s.status(fmt.Sprintf("Error: could not find the text to replace for item %d.", s.position+1))
		s.logger.Warn("review.span_not_found", "position", s.position)
	case err != nil:
		s.status("Error: could not apply the recommendation.")
		s.logger.Error("review.apply_failed", "position", s.position, "error", err)
	default:
		s.status(fmt.Sprintf("Applied recommendation %d of %d.", s.position+1, len(s.items)))
	}

	return s.cfg.Dialog.Push(dialog.PromptComment{MessageType: dialog.TypePromptComment})
}

// addComment attaches the annotation when text is non-empty, then
// advances.
func (s *Session) addComment(text string) error {
	if strings.TrimSpace(text) != "" {
		item := s.items[s.position]
		attached, err := document.AttachComment(s.cfg.Buffer, item.Recommended, text, s.cfg.Mode == SelectionOnly)
		if err != nil {
			s.status("Error: could not add the comment.")
			s.logger.Error("review.comment_failed", "position", s.position, "error", err)
		} else if !attached {
			s.logger.Warn("review.comment_target_missing", "position", s.position)
		}
	}
	return s.advance()
}

// advance moves to the next item or completes the session.
func (s *Session) advance() error {
	if s.position < len(s.items)-1 {
		s.position++
		return s.pushCurrentItem()
	}
	s.state = StateCompleted
	s.cfg.Dialog.Close()
	s.status("Review completed! All recommendations have been processed.")
	s.logger.Info("review.complete", "document_id", s.cfg.DocumentID, "items", len(s.items))
	return nil
}

// requestAlternate fetches a fresh suggestion for the current clause and
// pushes it as a preview. Neither position nor the canonical recommended
// text changes; the user still approves to commit it.
func (s *Session) requestAlternate(ctx context.Context, originalText string) error {
	if originalText == "" {
		originalText = s.items[s.position].Original
	}
	s.status("Requesting new suggestion from AI...")
	alternate, err := s.cfg.Suggester.ReviseClause(ctx, originalText)
	if err != nil {
		s.status("Failed to get new suggestion.")
		s.logger.Warn("review.alternate_failed", "position", s.position, "error", err)
		return s.cfg.Dialog.Push(dialog.NewSuggestion{
			MessageType: dialog.TypeNewSuggestion,
			Error:       "Could not generate a new suggestion. Please try again.",
		})
	}
	s.status("New suggestion received from AI.")
	return s.cfg.Dialog.Push(dialog.NewSuggestion{
		MessageType: dialog.TypeNewSuggestion,
		NewText:     alternate,
	})
}

func (s *Session) pushCurrentItem() error {
	if err := s.cfg.Dialog.Push(s.currentData()); err != nil {
		s.status("Error: review window is not available.")
		s.logger.Warn("review.push_failed", "position", s.position, "error", err)
		return err
	}
	return nil
}

func (s *Session) currentData() dialog.ReviewData {
	item := s.items[s.position]
	hunks, _ := diffview.TextDiffWithLimit(item.Original, item.Recommended, diffview.MaxDiffLines)
	return dialog.ReviewData{
		MessageType: dialog.TypeReviewData,
		ItemIndex:   s.position,
		TotalItems:  len(s.items),
		IsSelection: s.cfg.Mode == SelectionOnly,
		CurrentItem: dialog.Item{Original: item.Original, Recommended: item.Recommended},
		Diff:        hunks,
	}
}

func (s *Session) status(message string) {
	if s.cfg.Status != nil {
		s.cfg.Status(message)
	}
}

package engine

import (
	"context"
	"encoding/json"
	"errors"

	"lexgate/engine/internal/advisor"
	"lexgate/engine/internal/dialog"
	"lexgate/engine/internal/diffview"
	"lexgate/engine/internal/errinfo"
	"lexgate/engine/internal/review"
)

// sessionSuggester binds the advisor to one session's credentials and
// records an egress event per provider call.
type sessionSuggester struct {
	engine      *Engine
	adv         *advisor.Advisor
	apiKey      string
	documentID  string
	reviewModel string
	reviseModel string
}

func (s *sessionSuggester) ReviewContract(ctx context.Context, text string) (string, error) {
	s.engine.appendEgressEvent("contract_review", s.reviewModel, s.documentID)
	return s.adv.ReviewContract(ctx, s.apiKey, text)
}

func (s *sessionSuggester) ReviseClause(ctx context.Context, originalText string) (string, error) {
	s.engine.appendEgressEvent("clause_revision", s.reviseModel, s.documentID)
	return s.adv.ReviseClause(ctx, s.apiKey, originalText)
}

func (e *Engine) ReviewStart(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	return e.startReview(ctx, params, review.WholeDocument)
}

func (e *Engine) ReviewStartSelection(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	return e.startReview(ctx, params, review.SelectionOnly)
}

func (e *Engine) startReview(ctx context.Context, params json.RawMessage, mode review.Mode) (any, *errinfo.ErrorInfo) {
	documentID, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	if e.session != nil && !e.session.Done() {
		return nil, errinfo.SessionActive("a review is already in progress")
	}
	key, errInfo := e.providerKey(errinfo.PhaseReview)
	if errInfo != nil {
		return nil, errInfo
	}
	buffer, errInfo := e.bufferFor(documentID)
	if errInfo != nil {
		return nil, errInfo
	}
	if mode == review.SelectionOnly {
		if _, ok := buffer.Selection(); !ok {
			return nil, errinfo.NoSelection(documentID)
		}
	}
	settingsData, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}

	suggester := &sessionSuggester{
		engine:      e,
		adv:         advisor.New(e.client, settingsData.Provider.ReviewModel, settingsData.Provider.ReviseModel),
		apiKey:      key,
		documentID:  documentID,
		reviewModel: settingsData.Provider.ReviewModel,
		reviseModel: settingsData.Provider.ReviseModel,
	}
	session := review.NewSession(review.Config{
		DocumentID: documentID,
		Mode:       mode,
		Suggester:  suggester,
		Dialog:     dialog.NewChannel(e.sendNotification, e.logger.With("component", "dialog")),
		Buffer:     buffer,
		Checkpoint: func(reason, description string) error {
			_, err := e.documents.CheckpointCreate(documentID, reason, description)
			return err
		},
		Status: e.statusChanged,
		Logger: e.logger.With("component", "review"),
	})
	if err := session.Start(ctx); err != nil {
		if errors.Is(err, review.ErrNoSuggestions) {
			return nil, errinfo.NoSuggestions(errinfo.PhaseReview)
		}
		return nil, mapLLMError(errinfo.PhaseReview, err)
	}
	e.session = session
	e.sessionDocID = documentID
	return e.sessionState(), nil
}

func (e *Engine) ReviewGetState(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	return e.sessionState(), nil
}

func (e *Engine) ReviewGetTextDiff(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ItemIndex int `json:"item_index"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseReview, "invalid params")
	}
	if e.session == nil {
		return nil, errinfo.SessionNotActive()
	}
	item, ok := e.session.Item(req.ItemIndex)
	if !ok {
		info := errinfo.ValidationFailed(errinfo.PhaseReview, "item_index out of range")
		info.ItemIndex = req.ItemIndex
		return nil, info
	}
	hunks, truncated := diffview.TextDiffWithLimit(item.Original, item.Recommended, diffview.MaxDiffLines)
	return map[string]any{
		"item_index": req.ItemIndex,
		"hunks":      hunks,
		"truncated":  truncated,
	}, nil
}

func (e *Engine) ReviewCancel(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	if e.session == nil {
		return nil, errinfo.SessionNotActive()
	}
	e.session.Cancel()
	state := e.sessionState()
	e.session = nil
	e.sessionDocID = ""
	return state, nil
}

func (e *Engine) DialogMessage(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	msg, err := dialog.DecodeMessage(params)
	if err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseDialog, err.Error())
	}
	if e.session == nil {
		return nil, errinfo.SessionNotActive()
	}
	if err := e.session.HandleMessage(ctx, msg); err != nil {
		switch {
		case errors.Is(err, review.ErrNotPresenting):
			return nil, errinfo.SessionNotActive()
		case errors.Is(err, dialog.ErrClosed):
			return nil, errinfo.DialogClosed(err.Error())
		default:
			return nil, errinfo.ValidationFailed(errinfo.PhaseDialog, err.Error())
		}
	}
	state := e.sessionState()
	if e.session.Done() {
		e.session = nil
		e.sessionDocID = ""
	}
	return state, nil
}

func (e *Engine) DialogClosed(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	if e.session == nil {
		return map[string]any{"state": review.StateIdle.String()}, nil
	}
	e.session.HandleDialogClosed()
	state := e.sessionState()
	e.session = nil
	e.sessionDocID = ""
	return state, nil
}

func (e *Engine) sessionState() map[string]any {
	if e.session == nil {
		return map[string]any{"state": review.StateIdle.String()}
	}
	return map[string]any{
		"state":       e.session.State().String(),
		"mode":        e.session.Mode().String(),
		"document_id": e.sessionDocID,
		"position":    e.session.Position(),
		"total":       e.session.Total(),
	}
}

package engine

import (
	"context"
	"encoding/json"
	"errors"

	"lexgate/engine/internal/docstore"
	"lexgate/engine/internal/document"
	"lexgate/engine/internal/errinfo"
)

func (e *Engine) DocumentImport(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, "invalid params")
	}
	doc, err := e.documents.Import(req.Path)
	if err != nil {
		switch {
		case errors.Is(err, docstore.ErrInvalidPath):
			return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, "path is not a regular file")
		case errors.Is(err, docstore.ErrTooLarge):
			return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, "file too large")
		default:
			return nil, errinfo.FileReadFailed(errinfo.PhaseDocuments, err.Error())
		}
	}
	e.logger.Info("documents.import", "document_id", doc.ID, "name", doc.Name)
	return map[string]any{"document": doc}, nil
}

func (e *Engine) DocumentList(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	docs, err := e.documents.List()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseDocuments, err.Error())
	}
	return map[string]any{"documents": docs}, nil
}

func (e *Engine) DocumentGet(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	req, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	doc, err := e.documents.Get(req)
	if err != nil {
		return nil, documentError(req, err)
	}
	buffer, errInfo := e.bufferFor(req)
	if errInfo != nil {
		return nil, errInfo
	}
	return map[string]any{
		"document":   doc,
		"text":       buffer.Text(),
		"paragraphs": buffer.Paragraphs(),
		"comments":   buffer.Comments(),
	}, nil
}

func (e *Engine) DocumentDelete(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	req, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	if e.session != nil && !e.session.Done() && e.sessionDocID == req {
		return nil, errinfo.SessionActive("document is under review")
	}
	if err := e.documents.Delete(req); err != nil {
		return nil, documentError(req, err)
	}
	delete(e.buffers, req)
	e.logger.Info("documents.delete", "document_id", req)
	return map[string]any{}, nil
}

func (e *Engine) DocumentSetSelection(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		DocumentID string         `json:"document_id"`
		Range      document.Range `json:"range"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, "invalid params")
	}
	buffer, errInfo := e.bufferFor(req.DocumentID)
	if errInfo != nil {
		return nil, errInfo
	}
	if err := buffer.SetSelection(req.Range); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, err.Error())
	}
	return map[string]any{"text": buffer.SelectionText()}, nil
}

func (e *Engine) DocumentClearSelection(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	req, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	buffer, errInfo := e.bufferFor(req)
	if errInfo != nil {
		return nil, errInfo
	}
	buffer.ClearSelection()
	return map[string]any{}, nil
}

func (e *Engine) DocumentGetSelection(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	req, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	buffer, errInfo := e.bufferFor(req)
	if errInfo != nil {
		return nil, errInfo
	}
	sel, ok := buffer.Selection()
	if !ok {
		return map[string]any{"selected": false}, nil
	}
	return map[string]any{
		"selected": true,
		"range":    sel,
		"text":     buffer.SelectionText(),
	}, nil
}

func (e *Engine) CheckpointsList(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	req, errInfo := decodeDocumentID(params)
	if errInfo != nil {
		return nil, errInfo
	}
	checkpoints, err := e.documents.CheckpointsList(req)
	if err != nil {
		return nil, documentError(req, err)
	}
	return map[string]any{"checkpoints": checkpoints}, nil
}

func (e *Engine) CheckpointRestore(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		DocumentID   string `json:"document_id"`
		CheckpointID string `json:"checkpoint_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseDocuments, "invalid params")
	}
	if e.session != nil && !e.session.Done() && e.sessionDocID == req.DocumentID {
		return nil, errinfo.SessionActive("cannot restore while a review is in progress")
	}
	if err := e.documents.CheckpointRestore(req.DocumentID, req.CheckpointID); err != nil {
		return nil, documentError(req.DocumentID, err)
	}
	// Restored content invalidates the cached buffer; reload on next use.
	delete(e.buffers, req.DocumentID)
	e.logger.Info("checkpoints.restore", "document_id", req.DocumentID, "checkpoint_id", req.CheckpointID)
	return map[string]any{}, nil
}

func (e *Engine) bufferFor(documentID string) (*document.Buffer, *errinfo.ErrorInfo) {
	if buffer, ok := e.buffers[documentID]; ok {
		return buffer, nil
	}
	buffer, err := e.documents.LoadBuffer(documentID)
	if err != nil {
		return nil, documentError(documentID, err)
	}
	e.buffers[documentID] = buffer
	return buffer, nil
}

func decodeDocumentID(params json.RawMessage) (string, *errinfo.ErrorInfo) {
	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return "", errinfo.ValidationFailed(errinfo.PhaseDocuments, "invalid params")
	}
	if req.DocumentID == "" {
		return "", errinfo.ValidationFailed(errinfo.PhaseDocuments, "document_id is required")
	}
	return req.DocumentID, nil
}

func documentError(documentID string, err error) *errinfo.ErrorInfo {
	if errors.Is(err, docstore.ErrNotFound) {
		return errinfo.DocumentNotFound(documentID)
	}
	return errinfo.FileReadFailed(errinfo.PhaseDocuments, err.Error())
}

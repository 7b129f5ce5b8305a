package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"lexgate/engine/internal/errinfo"
)

type egressEvent struct {
	Timestamp  string `json:"timestamp"`
	Kind       string `json:"kind"`
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
	DocumentID string `json:"document_id,omitempty"`
}

func (e *Engine) appendEgressEvent(kind, modelID, documentID string) {
	path := filepath.Join(e.dataDir, "meta", "egress_events.jsonl")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.logger.Warn("egress.event_mkdir_failed", "error", err.Error())
		return
	}
	entry := egressEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
		ProviderID: providerOpenAI,
		ModelID:    modelID,
		DocumentID: documentID,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(append(data, '\n'))
}

func (e *Engine) EgressListEvents(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	path := filepath.Join(e.dataDir, "meta", "egress_events.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{"events": []any{}}, nil
		}
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	lines := bytes.Split(data, []byte("\n"))
	var events []any
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var evt map[string]any
		if err := json.Unmarshal(line, &evt); err != nil {
			continue
		}
		events = append(events, evt)
	}
	return map[string]any{"events": events}, nil
}

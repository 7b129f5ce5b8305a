// Package engine is the RPC facade over the document stores, the provider
// client, and the review session. One engine serves one host connection;
// requests are dispatched sequentially, so no handler ever races another.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lexgate/engine/internal/appdirs"
	"lexgate/engine/internal/docstore"
	"lexgate/engine/internal/document"
	"lexgate/engine/internal/errinfo"
	"lexgate/engine/internal/llm"
	"lexgate/engine/internal/logging"
	"lexgate/engine/internal/openai"
	"lexgate/engine/internal/review"
	"lexgate/engine/internal/secrets"
	"lexgate/engine/internal/settings"
)

const (
	EngineVersion = "0.1.0"
	APIVersion    = "1"
)

const providerOpenAI = "openai"

type Notifier func(method string, params any)

// LLMClient is the slice of the provider client the engine drives.
type LLMClient interface {
	ValidateKey(ctx context.Context, apiKey string) error
	Chat(ctx context.Context, apiKey string, params openai.ChatParams, messages []llm.Message) (string, error)
}

type Engine struct {
	dataDir   string
	settings  *settings.Store
	secrets   *secrets.Store
	documents *docstore.Manager
	client    LLMClient
	notify    Notifier
	logger    *slog.Logger

	// Loaded document buffers, keyed by document ID. Single-threaded
	// access via sequential RPC dispatch.
	buffers map[string]*document.Buffer

	session      *review.Session
	sessionDocID string
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClient(client LLMClient) Option {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

func New(opts ...Option) (*Engine, error) {
	engine := &Engine{logger: logging.Nop()}
	for _, opt := range opts {
		opt(engine)
	}
	dataDir, err := appdirs.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	documents := docstore.NewManager(appdirs.DocumentsDir(dataDir))
	if err := documents.Init(); err != nil {
		return nil, err
	}
	engine.dataDir = dataDir
	engine.settings = settings.NewStore(filepath.Join(dataDir, "settings.json"))
	engine.secrets = secrets.NewStore(filepath.Join(dataDir, "secrets.enc"), filepath.Join(dataDir, "master.key"))
	engine.documents = documents
	if engine.client == nil {
		engine.client = openai.NewClient()
	}
	engine.buffers = make(map[string]*document.Buffer)
	engine.logger.Debug("engine.init", "data_dir", dataDir)
	return engine, nil
}

func (e *Engine) SetNotifier(notify Notifier) {
	e.notify = notify
}

func (e *Engine) sendNotification(method string, params any) {
	if e.notify != nil {
		e.notify(method, params)
	}
}

func (e *Engine) statusChanged(message string) {
	e.sendNotification("StatusChanged", map[string]any{"message": message})
}

func (e *Engine) EngineGetInfo(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	return map[string]any{
		"engine_version": EngineVersion,
		"api_version":    APIVersion,
		"data_dir":       e.dataDir,
	}, nil
}

func (e *Engine) ProvidersGetStatus(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	settingsData, err := e.settings.Load()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	key, err := e.secrets.GetOpenAIKey()
	if err != nil {
		return nil, errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	return map[string]any{
		"providers": []map[string]any{{
			"provider_id":  providerOpenAI,
			"display_name": "OpenAI",
			"auth_mode":    "api_key",
			"enabled":      settingsData.Provider.Enabled,
			"configured":   strings.TrimSpace(key) != "",
			"review_model": settingsData.Provider.ReviewModel,
			"revise_model": settingsData.Provider.ReviseModel,
		}},
	}, nil
}

func (e *Engine) ProvidersSetApiKey(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "api_key must not be empty")
	}
	e.logger.Debug("providers.set_api_key", "api_key", logging.RedactValue(req.APIKey))
	if err := e.secrets.SetOpenAIKey(req.APIKey); err != nil {
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	return map[string]any{}, nil
}

func (e *Engine) ProvidersClearApiKey(_ context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	if err := e.secrets.ClearOpenAIKey(); err != nil {
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	e.logger.Info("providers.clear_api_key")
	return map[string]any{}, nil
}

func (e *Engine) ProvidersValidate(ctx context.Context, _ json.RawMessage) (any, *errinfo.ErrorInfo) {
	key, errInfo := e.providerKey(errinfo.PhaseSettings)
	if errInfo != nil {
		return nil, errInfo
	}
	if err := e.client.ValidateKey(ctx, key); err != nil {
		return nil, mapLLMError(errinfo.PhaseSettings, err)
	}
	return map[string]any{"ok": true}, nil
}

func (e *Engine) ProvidersSetEnabled(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	e.logger.Info("providers.set_enabled", "enabled", req.Enabled)
	_, err := e.settings.Update(func(s *settings.Settings) {
		s.Provider.Enabled = req.Enabled
	})
	if err != nil {
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	return map[string]any{}, nil
}

func (e *Engine) ProvidersSetModel(_ context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		ReviewModel string `json:"review_model"`
		ReviseModel string `json:"revise_model"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseSettings, "invalid params")
	}
	e.logger.Info("providers.set_model", "review_model", req.ReviewModel, "revise_model", req.ReviseModel)
	_, err := e.settings.Update(func(s *settings.Settings) {
		if strings.TrimSpace(req.ReviewModel) != "" {
			s.Provider.ReviewModel = req.ReviewModel
		}
		if strings.TrimSpace(req.ReviseModel) != "" {
			s.Provider.ReviseModel = req.ReviseModel
		}
	})
	if err != nil {
		return nil, errinfo.FileWriteFailed(errinfo.PhaseSettings, err.Error())
	}
	return map[string]any{}, nil
}

// providerKey loads the stored key and converts absence into a
// not-configured error for the given phase.
func (e *Engine) providerKey(phase string) (string, *errinfo.ErrorInfo) {
	settingsData, err := e.settings.Load()
	if err != nil {
		return "", errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	if !settingsData.Provider.Enabled {
		info := errinfo.ProviderNotConfigured(phase)
		info.ProviderID = providerOpenAI
		info.Detail = "provider disabled"
		return "", info
	}
	key, err := e.secrets.GetOpenAIKey()
	if err != nil {
		return "", errinfo.FileReadFailed(errinfo.PhaseSettings, err.Error())
	}
	if strings.TrimSpace(key) == "" {
		info := errinfo.ProviderNotConfigured(phase)
		info.ProviderID = providerOpenAI
		return "", info
	}
	return key, nil
}

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const schemaVersion = 1

const (
	defaultReviewModel = "gpt-4"
	defaultReviseModel = "gpt-3.5-turbo"
)

type ProviderSettings struct {
	Enabled     bool   `json:"enabled"`
	ReviewModel string `json:"review_model,omitempty"`
	ReviseModel string `json:"revise_model,omitempty"`
}

type Settings struct {
	SchemaVersion int              `json:"schema_version"`
	Provider      ProviderSettings `json:"provider"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	backfillSettings(&settings)
	return &settings, nil
}

func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backfillSettings(settings)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	settings, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(settings)
	return settings, s.Save(settings)
}

func defaultSettings() *Settings {
	return &Settings{
		SchemaVersion: schemaVersion,
		Provider: ProviderSettings{
			Enabled:     true,
			ReviewModel: defaultReviewModel,
			ReviseModel: defaultReviseModel,
		},
	}
}

func backfillSettings(settings *Settings) {
	if settings.SchemaVersion == 0 {
		settings.SchemaVersion = schemaVersion
	}
	settings.Provider.ReviewModel = normalizeModel(settings.Provider.ReviewModel, defaultReviewModel)
	settings.Provider.ReviseModel = normalizeModel(settings.Provider.ReviseModel, defaultReviseModel)
}

func normalizeModel(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

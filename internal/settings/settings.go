// Package settings manages the per-user settings blobs and the global theme
// key in the flat key-value store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lextrack/lextrack/internal/kv"
)

const (
	themeKey          = "theme"
	settingsKeyPrefix = "settings_"
)

type Settings struct {
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	LegalLogic           string `json:"legalLogic"` // BNS | IPC
	Verbosity            string `json:"verbosity"`  // concise | detailed
	FontSize             string `json:"fontSize"`   // small | medium | large
	AutoSave             bool   `json:"autoSave"`
}

func Defaults() Settings {
	return Settings{
		NotificationsEnabled: true,
		LegalLogic:           "BNS",
		Verbosity:            "detailed",
		FontSize:             "medium",
		AutoSave:             true,
	}
}

func (s Settings) Validate() error {
	switch s.LegalLogic {
	case "BNS", "IPC":
	default:
		return fmt.Errorf("invalid legalLogic %q", s.LegalLogic)
	}
	switch s.Verbosity {
	case "concise", "detailed":
	default:
		return fmt.Errorf("invalid verbosity %q", s.Verbosity)
	}
	switch s.FontSize {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("invalid fontSize %q", s.FontSize)
	}
	return nil
}

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Load returns the user's settings, falling back to defaults when the blob
// is missing or corrupt.
func (s *Store) Load(ctx context.Context, userID string) (Settings, error) {
	raw, err := s.kv.Get(ctx, settingsKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Defaults(), nil
		}
		return Defaults(), err
	}
	out := Defaults()
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		zap.S().Warnw("corrupt settings blob, using defaults", "user", userID, "error", err)
		return Defaults(), nil
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, userID string, cfg Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, settingsKeyPrefix+userID, string(b))
}

func (s *Store) Theme(ctx context.Context) (string, error) {
	raw, err := s.kv.Get(ctx, themeKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "dark", nil
		}
		return "", err
	}
	if raw != "dark" && raw != "light" {
		return "dark", nil
	}
	return raw, nil
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("invalid theme %q", theme)
	}
	return s.kv.Set(ctx, themeKey, theme)
}

// PurgeAll removes every settings blob and the theme key.
func (s *Store) PurgeAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, settingsKeyPrefix+"*")
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, append(keys, themeKey)...)
}

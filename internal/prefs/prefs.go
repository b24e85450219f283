package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/i18n"
)

const (
	fileName    = "preferences.json"
	keyDarkMode = "darkMode"
	keyLanguage = "language"

	// EnvDir overrides the preference directory.
	EnvDir = "CANDYRAG_PREFS_DIR"
)

// Preferences are the two user choices that survive restarts.
type Preferences struct {
	DarkMode bool
	Language i18n.Language
}

// Defaults returns light mode and English.
func Defaults() Preferences {
	return Preferences{DarkMode: false, Language: i18n.Default}
}

// Store reads and writes preferences under a single directory. Values are
// kept as strings keyed by name: darkMode holds a JSON boolean, language the
// raw tag.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir. An empty dir resolves through
// $CANDYRAG_PREFS_DIR and then the user config directory.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: resolveDir(dir), logger: logger.Named("prefs")}
}

func resolveDir(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv(EnvDir); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".candyrag"
	}
	return filepath.Join(base, "candyrag")
}

// Path is the location of the preference file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Load never fails. Each key falls back to its default independently when it
// is missing or unreadable.
func (s *Store) Load() Preferences {
	prefs := Defaults()
	values, err := s.read()
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("preferences unreadable, using defaults", zap.String("path", s.Path()), zap.Error(err))
		}
		return prefs
	}
	if raw, ok := values[keyDarkMode]; ok {
		var dark bool
		if err := json.Unmarshal([]byte(raw), &dark); err == nil {
			prefs.DarkMode = dark
		} else {
			s.logger.Warn("ignoring stored darkMode", zap.String("value", raw), zap.Error(err))
		}
	}
	if raw, ok := values[keyLanguage]; ok {
		if lang, valid := i18n.Parse(raw); valid {
			prefs.Language = lang
		} else {
			s.logger.Warn("ignoring stored language", zap.String("value", raw))
		}
	}
	return prefs
}

// Save persists prefs. Failures are logged and returned, and callers in the UI
// ignore them.
func (s *Store) Save(prefs Preferences) error {
	values, err := s.read()
	if err != nil {
		values = map[string]string{}
	}
	values[keyDarkMode] = strconv.FormatBool(prefs.DarkMode)
	values[keyLanguage] = string(prefs.Language)

	if err := s.write(values); err != nil {
		s.logger.Error("saving preferences failed", zap.String("path", s.Path()), zap.Error(err))
		return err
	}
	s.logger.Debug("preferences saved", zap.Bool("dark_mode", prefs.DarkMode), zap.String("language", string(prefs.Language)))
	return nil
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path(), err)
	}
	return values, nil
}

func (s *Store) write(values map[string]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, fileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path())
}

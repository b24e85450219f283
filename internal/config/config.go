package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	appDir         = "candyrag"
	configFileName = "config.toml"
	logFileName    = "candyrag.log"
	envPrefix      = "CANDYRAG_"
	// EnvConfig names an explicit config file.
	EnvConfig = envPrefix + "CONFIG"
)

// Duration wraps time.Duration for TOML and env parsing.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string such as "2s".
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(strings.TrimSpace(string(text)))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds every runtime setting.
type Config struct {
	APIURL         string   `toml:"api_url" env:"API_URL" validate:"required,url"`
	Interval       Duration `toml:"interval" env:"INTERVAL" validate:"gt=0"`
	RequestTimeout Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gt=0"`
	PrefsDir       string   `toml:"prefs_dir" env:"PREFS_DIR"`
	LogFile        string   `toml:"log_file" env:"LOG_FILE" validate:"required"`
	LogLevel       string   `toml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	AltScreen      bool     `toml:"alt_screen" env:"ALT_SCREEN"`
	Listen         string   `toml:"listen" env:"LISTEN" validate:"required,hostname_port"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:8000",
		Interval:       Duration{2 * time.Second},
		RequestTimeout: Duration{30 * time.Second},
		LogFile:        defaultLogFile(),
		LogLevel:       "info",
		AltScreen:      true,
		Listen:         ":8000",
	}
}

func defaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDir, logFileName)
}

// DefaultFile is where the config file lives when none is named.
func DefaultFile() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, appDir, configFileName)
}

// LoadOptions says where settings come from. Zero values use the process
// environment, $CANDYRAG_CONFIG or DefaultFile, and ./.env.
type LoadOptions struct {
	// File is an explicit config path. It must exist.
	File string
	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load layers defaults, the TOML file, the dotenv file and CANDYRAG_*
// variables, then validates the result. Flags are applied by the caller.
func Load(opts LoadOptions) (Config, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()

	path, explicit := opts.File, opts.File != ""
	if !explicit {
		if env, ok := lookup(EnvConfig); ok && strings.TrimSpace(env) != "" {
			path, explicit = env, true
		} else {
			path = DefaultFile()
		}
	}
	if err := cfg.decodeFile(path, explicit); err != nil {
		return Config{}, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}
	merged := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(merged); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config file not found: %s", path)
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv reads CANDYRAG_<env tag> for every field.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	val := reflect.ValueOf(c).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		key := envPrefix + field.Tag.Get("env")
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		target := val.Field(i)
		switch target.Interface().(type) {
		case string:
			target.SetString(raw)
		case bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			target.SetBool(b)
		case Duration:
			var d Duration
			if err := d.UnmarshalText([]byte(raw)); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			target.Set(reflect.ValueOf(d))
		}
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			return v.Interface().(Duration).Duration
		}, Duration{})
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			return field.Tag.Get("toml")
		})
	})
	return validate
}

// Validate checks the settings and names each offending key.
func (c Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Package config loads chat-top settings from a TOML file. Keys missing
// from the file keep their defaults; unknown top-level keys produce
// warnings; invalid values are reported together in one error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// AuthEnvVar overrides api.auth_token when set.
const AuthEnvVar = "CHAT_TOP_AUTH"

type Config struct {
	API            APIConfig            `toml:"api"`
	Display        DisplayConfig        `toml:"display"`
	Storage        StorageConfig        `toml:"storage"`
	Server         ServerConfig         `toml:"server"`
	Log            LogConfig            `toml:"log"`
	Classification ClassificationConfig `toml:"classification"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	AuthToken      string `toml:"auth_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout; zero means none.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type DisplayConfig struct {
	Locale          string `toml:"locale"`
	EventBufferSize int    `toml:"event_buffer_size"`
	DefaultChatID   string `toml:"default_chat_id"`
	DefaultFromDate string `toml:"default_from_date"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

type LogConfig struct {
	Level string `toml:"level"`
}

// ClassificationConfig overrides parts of the built-in metric
// classification. A nil list keeps the built-in list.
type ClassificationConfig struct {
	Common         []string `toml:"common"`
	Photo          []string `toml:"photo"`
	Audio          []string `toml:"audio"`
	Video          []string `toml:"video"`
	PrimaryMetrics []string `toml:"primary_metrics"`
	MinContactDays float64  `toml:"min_contact_days"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:3005/strategies/",
			TimeoutSeconds: 30,
		},
		Display: DisplayConfig{
			Locale:          "ru",
			EventBufferSize: 50,
			DefaultChatID:   "738792308",
			DefaultFromDate: "2024-03-07",
		},
		Storage: StorageConfig{
			DBPath: "~/.config/chat-top/chat-top.db",
		},
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Classification: ClassificationConfig{
			MinContactDays: 7,
		},
	}
}

// DefaultPath returns ~/.config/chat-top/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chat-top", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config at path. A missing file yields the defaults.
func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadFromString("")
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	result, err := LoadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return result, nil
}

var knownTopLevel = map[string]bool{
	"api":            true,
	"display":        true,
	"storage":        true,
	"server":         true,
	"log":            true,
	"classification": true,
}

// LoadFromString parses TOML text on top of the defaults.
func LoadFromString(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if data != "" {
		var raw map[string]any
		if _, err := toml.Decode(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}

		for key := range raw {
			if !knownTopLevel[key] {
				result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
			}
		}

		var tf tomlFile
		if _, err := toml.Decode(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}

		mergeFromRaw(&result.Config, &tf, raw)
	}

	if token := os.Getenv(AuthEnvVar); token != "" {
		result.Config.API.AuthToken = token
	}

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	API            *APIConfig            `toml:"api"`
	Display        *DisplayConfig        `toml:"display"`
	Storage        *StorageConfig        `toml:"storage"`
	Server         *ServerConfig         `toml:"server"`
	Log            *LogConfig            `toml:"log"`
	Classification *ClassificationConfig `toml:"classification"`
}

func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.API != nil {
		if section, ok := rawSection(raw, "api"); ok {
			if _, exists := section["base_url"]; exists {
				cfg.API.BaseURL = tf.API.BaseURL
			}
			if _, exists := section["auth_token"]; exists {
				cfg.API.AuthToken = tf.API.AuthToken
			}
			if _, exists := section["timeout_seconds"]; exists {
				cfg.API.TimeoutSeconds = tf.API.TimeoutSeconds
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["locale"]; exists {
				cfg.Display.Locale = tf.Display.Locale
			}
			if _, exists := section["event_buffer_size"]; exists {
				cfg.Display.EventBufferSize = tf.Display.EventBufferSize
			}
			if _, exists := section["default_chat_id"]; exists {
				cfg.Display.DefaultChatID = tf.Display.DefaultChatID
			}
			if _, exists := section["default_from_date"]; exists {
				cfg.Display.DefaultFromDate = tf.Display.DefaultFromDate
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
		}
	}
	if tf.Server != nil {
		if section, ok := rawSection(raw, "server"); ok {
			if _, exists := section["bind"]; exists {
				cfg.Server.Bind = tf.Server.Bind
			}
			if _, exists := section["port"]; exists {
				cfg.Server.Port = tf.Server.Port
			}
		}
	}
	if tf.Log != nil {
		if section, ok := rawSection(raw, "log"); ok {
			if _, exists := section["level"]; exists {
				cfg.Log.Level = tf.Log.Level
			}
		}
	}
	if tf.Classification != nil {
		if section, ok := rawSection(raw, "classification"); ok {
			lists := map[string]*[]string{
				"common":          &cfg.Classification.Common,
				"photo":           &cfg.Classification.Photo,
				"audio":           &cfg.Classification.Audio,
				"video":           &cfg.Classification.Video,
				"primary_metrics": &cfg.Classification.PrimaryMetrics,
			}
			from := map[string][]string{
				"common":          tf.Classification.Common,
				"photo":           tf.Classification.Photo,
				"audio":           tf.Classification.Audio,
				"video":           tf.Classification.Video,
				"primary_metrics": tf.Classification.PrimaryMetrics,
			}
			for key, dst := range lists {
				if _, exists := section[key]; exists {
					*dst = append([]string{}, from[key]...)
				}
			}
			if _, exists := section["min_contact_days"]; exists {
				cfg.Classification.MinContactDays = tf.Classification.MinContactDays
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	if u, err := url.Parse(cfg.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api base_url must be an absolute http(s) URL, got %q", cfg.API.BaseURL))
	}
	if cfg.API.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("api timeout_seconds must not be negative, got %d", cfg.API.TimeoutSeconds))
	}

	if _, err := language.Parse(cfg.Display.Locale); err != nil {
		errs = append(errs, fmt.Sprintf("display locale %q is not a valid language tag", cfg.Display.Locale))
	}
	if cfg.Display.EventBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("event_buffer_size must be positive, got %d", cfg.Display.EventBufferSize))
	}
	if d := cfg.Display.DefaultFromDate; d != "" {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			errs = append(errs, fmt.Sprintf("default_from_date must be YYYY-MM-DD, got %q", d))
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server port must be 1-65535, got %d", cfg.Server.Port))
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil {
		errs = append(errs, fmt.Sprintf("log level %q is not recognized", cfg.Log.Level))
	}

	if cfg.Classification.MinContactDays < 0 {
		errs = append(errs, fmt.Sprintf("min_contact_days must not be negative, got %g", cfg.Classification.MinContactDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}

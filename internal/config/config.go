package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/deskhub/internal/persist"
	"github.com/five82/deskhub/internal/resource"
)

// Config is everything deskhub reads from config.toml and the environment.
type Config struct {
	UserID     string
	FetchLimit int
	Endpoints  Endpoints
	Storage    Storage
	Logging    Logging
	Metrics    Metrics
	HTTP       HTTP
}

// Endpoints are the hub webhook URLs. Empty values are allowed; the kind
// then shows a configuration placeholder.
type Endpoints struct {
	Tasks               string `toml:"tasks"`
	Notifications       string `toml:"notifications"`
	Actions             string `toml:"actions"`
	Conversations       string `toml:"conversations"`
	ConversationHistory string `toml:"conversation_history"`
	TaskUpdate          string `toml:"task_update"`
	NotificationUpdate  string `toml:"notification_update"`
	ChatSend            string `toml:"chat_send"`
}

// Storage selects the persistence backend for cached collections.
type Storage struct {
	Backend   string
	Path      string
	RedisURL  string
	Namespace string
}

// Logging configures the slog handler.
type Logging struct {
	Level  string
	Format string
	File   string
}

// Metrics configures the Prometheus listener. Empty Listen disables it.
type Metrics struct {
	Listen string
}

// HTTP configures the hub client.
type HTTP struct {
	Timeout time.Duration
}

const (
	defaultConfigPath  = "~/.config/deskhub/config.toml"
	defaultStoragePath = "~/.local/share/deskhub"
	defaultLogFile     = "~/.local/state/deskhub/deskhub.log"
	defaultRedisURL    = "redis://localhost:6379/0"
	defaultUserID      = "default_user"
	defaultFetchLimit  = 50
	defaultTimeout     = 30 * time.Second
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	envPrefix          = "DESKHUB_"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		UserID:     defaultUserID,
		FetchLimit: defaultFetchLimit,
		Storage: Storage{
			Backend:   persist.BackendFile,
			Path:      mustExpand(defaultStoragePath),
			RedisURL:  defaultRedisURL,
			Namespace: persist.DefaultNamespace,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   mustExpand(defaultLogFile),
		},
		HTTP: HTTP{Timeout: defaultTimeout},
	}
}

type rawConfig struct {
	UserID     string    `toml:"user_id"`
	FetchLimit int       `toml:"fetch_limit"`
	Endpoints  Endpoints `toml:"endpoints"`
	Storage    struct {
		Backend   string `toml:"backend"`
		Path      string `toml:"path"`
		RedisURL  string `toml:"redis_url"`
		Namespace string `toml:"namespace"`
	} `toml:"storage"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"logging"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
	HTTP struct {
		Timeout string `toml:"timeout"`
	} `toml:"http"`
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies DESKHUB_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	data, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if data != nil {
		var raw rawConfig
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.merge(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return data, nil
}

func (c *Config) merge(raw rawConfig) error {
	if v := strings.TrimSpace(raw.UserID); v != "" {
		c.UserID = v
	}
	if raw.FetchLimit > 0 {
		c.FetchLimit = raw.FetchLimit
	}
	c.Endpoints = raw.Endpoints.trimmed()

	if v := strings.TrimSpace(raw.Storage.Backend); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Storage.Path); v != "" {
		c.Storage.Path = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Storage.RedisURL); v != "" {
		c.Storage.RedisURL = v
	}
	if v := strings.TrimSpace(raw.Storage.Namespace); v != "" {
		c.Storage.Namespace = v
	}

	if v := strings.TrimSpace(raw.Logging.Level); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Logging.Format); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Logging.File); v != "" {
		c.Logging.File = mustExpand(v)
	}

	c.Metrics.Listen = strings.TrimSpace(raw.Metrics.Listen)

	if v := strings.TrimSpace(raw.HTTP.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: http.timeout: %w", err)
		}
		c.HTTP.Timeout = d
	}
	return nil
}

func (e Endpoints) trimmed() Endpoints {
	return Endpoints{
		Tasks:               strings.TrimSpace(e.Tasks),
		Notifications:       strings.TrimSpace(e.Notifications),
		Actions:             strings.TrimSpace(e.Actions),
		Conversations:       strings.TrimSpace(e.Conversations),
		ConversationHistory: strings.TrimSpace(e.ConversationHistory),
		TaskUpdate:          strings.TrimSpace(e.TaskUpdate),
		NotificationUpdate:  strings.TrimSpace(e.NotificationUpdate),
		ChatSend:            strings.TrimSpace(e.ChatSend),
	}
}

// For returns the list endpoint of kind.
func (e Endpoints) For(kind resource.Kind) string {
	switch kind {
	case resource.Tasks:
		return e.Tasks
	case resource.Notifications:
		return e.Notifications
	case resource.Actions:
		return e.Actions
	case resource.Conversations:
		return e.Conversations
	case resource.ConversationHistory:
		return e.ConversationHistory
	default:
		return ""
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	urls := map[string]*string{
		"TASKS_URL":                &c.Endpoints.Tasks,
		"NOTIFICATIONS_URL":        &c.Endpoints.Notifications,
		"ACTIONS_URL":              &c.Endpoints.Actions,
		"CONVERSATIONS_URL":        &c.Endpoints.Conversations,
		"CONVERSATION_HISTORY_URL": &c.Endpoints.ConversationHistory,
		"TASK_UPDATE_URL":          &c.Endpoints.TaskUpdate,
		"NOTIFICATION_UPDATE_URL":  &c.Endpoints.NotificationUpdate,
		"CHAT_SEND_URL":            &c.Endpoints.ChatSend,
	}
	for name, dest := range urls {
		if v, ok := get(name); ok {
			*dest = v
		}
	}
	if v, ok := get("USER_ID"); ok {
		c.UserID = v
	}
	if v, ok := get("STORAGE_BACKEND"); ok {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := get("REDIS_URL"); ok {
		c.Storage.RedisURL = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case persist.BackendFile, persist.BackendSQLite, persist.BackendRedis, persist.BackendMemory:
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("invalid http timeout %s", c.HTTP.Timeout)
	}
	return nil
}

// PersistOptions converts the storage section for persist.Open.
func (c Config) PersistOptions() persist.Options {
	return persist.Options{
		Backend:  c.Storage.Backend,
		Path:     c.Storage.Path,
		RedisURL: c.Storage.RedisURL,
	}
}

// LogPath returns the log file used while the dashboard owns the terminal.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.Logging.File) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.Logging.File
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

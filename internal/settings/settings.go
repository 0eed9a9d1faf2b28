// Package settings loads server settings from defaults, an optional file and
// SOKOBAN_* environment variables.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/wricardo/mcp-training/sokoban/internal/logs"
)

// EnvPrefix is prepended to every environment override, e.g. SOKOBAN_PORT
const EnvPrefix = "SOKOBAN"

// Settings is everything the server reads at startup
type Settings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	LevelDir        string        `mapstructure:"level_dir"`
	WatchLevels     bool          `mapstructure:"watch_levels"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	HintBudget      int           `mapstructure:"hint_budget"`
	Log             logs.Config   `mapstructure:"log"`
	Ngrok           Ngrok         `mapstructure:"ngrok"`
}

// Ngrok configures the optional public tunnel
type Ngrok struct {
	Enabled   bool   `mapstructure:"enabled"`
	AuthToken string `mapstructure:"authtoken"`
	Domain    string `mapstructure:"domain"`
}

// Addr is the host:port the HTTP server binds
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "localhost")
	v.SetDefault("port", 8080)
	v.SetDefault("level_dir", "levels")
	v.SetDefault("watch_levels", true)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("cleanup_interval", time.Hour)
	v.SetDefault("hint_budget", 250000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.dev", false)

	v.SetDefault("ngrok.enabled", false)
	v.SetDefault("ngrok.authtoken", "")
	v.SetDefault("ngrok.domain", "")
}

// Loader reads settings and can follow changes to the settings file
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader prepares a loader. An empty path means defaults and environment only;
// a non-empty path must name a readable file.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("settings file: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	}

	return &Loader{v: v, path: path}, nil
}

// Settings decodes the current values
func (l *Loader) Settings() (*Settings, error) {
	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", s.Port)
	}
	return &s, nil
}

// OnChange calls fn with freshly decoded settings whenever the file changes.
// It does nothing when no file was given.
func (l *Loader) OnChange(fn func(*Settings, error)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		fn(l.Settings())
	})
	l.v.WatchConfig()
}

// Load is NewLoader followed by Settings
func Load(path string) (*Settings, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Settings()
}

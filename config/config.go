// Package config loads playground settings from defaults, an optional
// config file, a .env file and DBNPLAY_* environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/dbn-playground/dbn"
	"github.com/wippyai/dbn-playground/errors"
)

const (
	EnvPrefix  = "DBNPLAY"
	EnvConfig  = EnvPrefix + "_CONFIG"
	configName = "dbnplay"
)

// Config holds application configuration.
type Config struct {
	Engine  EngineConfig
	Catalog CatalogConfig
	Server  ServerConfig
	UI      UIConfig
	Log     LogConfig
}

// EngineConfig selects and tunes the engine. An empty Path selects the
// built-in DBN engine; otherwise Path names a WASI command module.
type EngineConfig struct {
	Path             string
	WIT              string `mapstructure:"wit"`
	Primary          string
	Secondary        string
	CacheDir         string `mapstructure:"cache_dir"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages"`
	MaxFrames        int    `mapstructure:"max_frames"`
	Scale            int
}

// CatalogConfig locates the catalog manifest and the example contents.
// With neither BaseURL nor Dir set the bundled examples are used.
type CatalogConfig struct {
	Manifest    string
	BaseURL     string `mapstructure:"base_url"`
	Dir         string
	Default     string
	Concurrency int
}

type ServerConfig struct {
	Addr string
}

// UIConfig holds front end preferences.
type UIConfig struct {
	// Secondary is the initial state of the secondary output toggle.
	Secondary bool
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads configuration. path overrides the DBNPLAY_CONFIG variable and
// the default search locations; a missing file is only an error when a
// path was given explicitly.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dbn-playground"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindConfig, err, "read config file")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindConfig, err, "unmarshal config")
	}
	return c, nil
}

// Default returns the configuration with nothing but defaults applied.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.path", "")
	v.SetDefault("engine.wit", "")
	v.SetDefault("engine.primary", dbn.EntryPNG)
	v.SetDefault("engine.secondary", dbn.EntryGIF)
	v.SetDefault("engine.cache_dir", "")
	v.SetDefault("engine.memory_limit_pages", 0)
	v.SetDefault("engine.max_frames", dbn.DefaultMaxFrames)
	v.SetDefault("engine.scale", 1)
	v.SetDefault("catalog.manifest", "")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.dir", "")
	v.SetDefault("catalog.default", "")
	v.SetDefault("catalog.concurrency", 8)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("ui.secondary", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
}

// loadDotEnv loads name into the process environment when it exists.
// Variables already set are not overridden.
func loadDotEnv(name string) error {
	if _, err := os.Stat(name); err != nil {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindConfig, err, "load "+name)
	}
	return nil
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	switch {
	case c.Engine.Primary == "":
		return errors.Config("engine.primary", "primary entry point must be set")
	case c.Engine.Secondary != "" && c.Engine.Secondary == c.Engine.Primary:
		return errors.Config("engine.secondary", fmt.Sprintf("secondary entry point must differ from primary %q", c.Engine.Primary))
	case c.Engine.MaxFrames < 0:
		return errors.Config("engine.max_frames", "must not be negative")
	case c.Engine.Scale < 1 || c.Engine.Scale > dbn.MaxScale:
		return errors.Config("engine.scale", fmt.Sprintf("must be between 1 and %d", dbn.MaxScale))
	case c.Catalog.BaseURL != "" && c.Catalog.Dir != "":
		return errors.Config("catalog.base_url", "catalog.base_url and catalog.dir are mutually exclusive")
	case c.Catalog.Concurrency < 1:
		return errors.Config("catalog.concurrency", "must be at least 1")
	case c.Log.Format != "console" && c.Log.Format != "json":
		return errors.Config("log.format", fmt.Sprintf("unknown format %q (want console or json)", c.Log.Format))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Config("log.level", err.Error())
	}
	if c.Server.Addr == "" {
		return errors.Config("server.addr", "must not be empty")
	}
	return nil
}

// BuiltinEngine reports whether the built-in DBN engine is selected.
func (c EngineConfig) BuiltinEngine() bool {
	return c.Path == ""
}

// EntryWIT returns the WIT text declaring the entry points. Without an
// explicit declaration both configured entries are declared as
// func(source: string) -> string.
func (c EngineConfig) EntryWIT() string {
	if c.WIT != "" {
		return c.WIT
	}
	var b strings.Builder
	for _, name := range []string{c.Primary, c.Secondary} {
		if name != "" {
			fmt.Fprintf(&b, "export %s: func(source: string) -> string;\n", name)
		}
	}
	return b.String()
}

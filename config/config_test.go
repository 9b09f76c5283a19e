package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/dbn-playground/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.True(t, c.Engine.BuiltinEngine())
	assert.Equal(t, "generate-png", c.Engine.Primary)
	assert.Equal(t, "generate-gif", c.Engine.Secondary)
	assert.Equal(t, 200, c.Engine.MaxFrames)
	assert.Equal(t, 1, c.Engine.Scale)
	assert.Equal(t, 8, c.Catalog.Concurrency)
	assert.Equal(t, "127.0.0.1:8080", c.Server.Addr)
	assert.True(t, c.UI.Secondary)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbnplay.toml")
	content := `
[engine]
path = "engine.wasm"
secondary = ""
memory_limit_pages = 512

[catalog]
base_url = "http://localhost:9000/examples/"
default = "paper.dbn"

[log]
level = "debug"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "engine.wasm", c.Engine.Path)
	assert.False(t, c.Engine.BuiltinEngine())
	assert.Equal(t, "", c.Engine.Secondary)
	assert.Equal(t, uint32(512), c.Engine.MemoryLimitPages)
	assert.Equal(t, "http://localhost:9000/examples/", c.Catalog.BaseURL)
	assert.Equal(t, "paper.dbn", c.Catalog.Default)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "generate-png", c.Engine.Primary, "unset keys keep defaults")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("DBNPLAY_SERVER_ADDR", ":9999")
	t.Setenv("DBNPLAY_ENGINE_MAX_FRAMES", "50")
	t.Setenv("DBNPLAY_UI_SECONDARY", "false")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Server.Addr)
	assert.Equal(t, 50, c.Engine.MaxFrames)
	assert.False(t, c.UI.Secondary)
}

func TestLoad_EnvConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\n"), 0o644))
	t.Setenv(EnvConfig, path)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", c.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindConfig}))
}

func TestLoadDotEnv(t *testing.T) {
	const key = "DBNPLAY_TEST_DOTENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"no primary", func(c *Config) { c.Engine.Primary = "" }, "engine.primary"},
		{"secondary equals primary", func(c *Config) { c.Engine.Secondary = c.Engine.Primary }, "engine.secondary"},
		{"negative frames", func(c *Config) { c.Engine.MaxFrames = -1 }, "engine.max_frames"},
		{"zero scale", func(c *Config) { c.Engine.Scale = 0 }, "engine.scale"},
		{"huge scale", func(c *Config) { c.Engine.Scale = 99 }, "engine.scale"},
		{"both sources", func(c *Config) {
			c.Catalog.BaseURL = "http://x/"
			c.Catalog.Dir = "examples"
		}, "catalog.base_url"},
		{"zero concurrency", func(c *Config) { c.Catalog.Concurrency = 0 }, "catalog.concurrency"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)

			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, errors.KindConfig, e.Kind)
			assert.Equal(t, []string{tc.key}, e.Path)
		})
	}
}

func TestEntryWIT(t *testing.T) {
	c := Default().Engine
	wit := c.EntryWIT()
	assert.Contains(t, wit, "export generate-png: func(source: string) -> string;")
	assert.Contains(t, wit, "export generate-gif: func(source: string) -> string;")

	c.Secondary = ""
	assert.Equal(t, 1, strings.Count(c.EntryWIT(), "export "))

	c.WIT = "export compile: func(s: string) -> string;"
	assert.Equal(t, c.WIT, c.EntryWIT())
}

package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wippyai/dbn-playground/config"
	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/internal/wasmtest"
	"github.com/wippyai/dbn-playground/playground"
)

func TestBootstrap_Builtin(t *testing.T) {
	a := New(config.Default(), zaptest.NewLogger(t))
	s, err := a.Bootstrap(context.Background())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.True(t, s.Report().OK())
	assert.Equal(t, "lines.dbn", s.Initial().Selected)
	assert.NotEmpty(t, s.Initial().Text)
	assert.True(t, s.Binding().HasSecondary())

	board := &playground.Board{}
	out := s.Runner().Run(context.Background(), s.Initial().Text, true, board)
	assert.IsType(t, playground.Image{}, out.Result)
	assert.True(t, strings.HasPrefix(board.Snapshot().Secondary, "data:image/gif"))
}

func TestBootstrap_BuiltinUnknownEntry(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Primary = "generate-svg"

	_, err := New(cfg, nil).Bootstrap(context.Background())
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInstantiation}))
	assert.ErrorContains(t, err, "generate-svg")
}

func TestBootstrap_WASM(t *testing.T) {
	const image = "data:image/png;base64,AAAA"
	path := filepath.Join(t.TempDir(), "engine.wasm")
	require.NoError(t, os.WriteFile(path, wasmtest.Command(image), 0o644))

	cfg := config.Default()
	cfg.Engine.Path = path
	cfg.Engine.Secondary = ""

	a := New(cfg, zaptest.NewLogger(t))
	s, err := a.Bootstrap(context.Background())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.False(t, s.Binding().HasSecondary())
	out := s.Runner().Run(context.Background(), "Paper 50", false, &playground.Board{})
	assert.Equal(t, playground.Image{Data: image}, out.Result)
}

func TestBootstrap_WASMMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Path = filepath.Join(t.TempDir(), "absent.wasm")

	s, err := New(cfg, nil).Bootstrap(context.Background())
	assert.Nil(t, s)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseBootstrap, Kind: errors.KindInstantiation}))
}

func TestCatalog_Sources(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "catalog.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte("example \"one.dbn\" {}\nexample \"two.dbn\" {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.dbn"), []byte("Paper 100"), 0o644))

	t.Run("dir", func(t *testing.T) {
		cfg := config.Default()
		cfg.Catalog.Manifest = manifest
		cfg.Catalog.Dir = dir
		cfg.Catalog.Default = "one.dbn"

		s, err := New(cfg, nil).Bootstrap(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Paper 100", s.Initial().Text)
		assert.Contains(t, s.Report().Failed, "two.dbn")
	})

	t.Run("http", func(t *testing.T) {
		srv := httptest.NewServer(http.StripPrefix("/examples/", http.FileServer(http.Dir(dir))))
		defer srv.Close()

		cfg := config.Default()
		cfg.Catalog.Manifest = manifest
		cfg.Catalog.BaseURL = srv.URL + "/examples/"

		src, err := New(cfg, nil).Catalog()
		require.NoError(t, err)
		assert.Equal(t, []string{"one.dbn", "two.dbn"}, src.Catalog.Names())
		assert.Empty(t, src.Default)

		got, err := src.Fetcher.Fetch(context.Background(), "one.dbn")
		require.NoError(t, err)
		assert.Equal(t, "Paper 100", got)
	})

	t.Run("bad default", func(t *testing.T) {
		cfg := config.Default()
		cfg.Catalog.Default = "line.dbn"

		_, err := New(cfg, nil).Bootstrap(context.Background())
		assert.ErrorContains(t, err, `did you mean "lines.dbn"`)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, closeFn())
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, _, err = NewLogger(config.LogConfig{Level: "warn", Format: "console"}, &buf)
	require.NoError(t, err)
	logger.Info("dropped")
	assert.Empty(t, buf.String())

	path := filepath.Join(t.TempDir(), "play.log")
	logger, closeFn, err = NewLogger(config.LogConfig{Level: "info", Format: "console", File: path}, &buf)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closeFn())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	_, _, err = NewLogger(config.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

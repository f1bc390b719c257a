package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARTM2000/guise"
	"github.com/ARTM2000/guise/inspect"
)

// unsetenv removes keys for the duration of the test. godotenv never
// overrides a variable that is set, even to an empty string.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without env file", func(t *testing.T) {
		unsetenv(t, envAddr, envLogLevel, envDatabaseURL)

		cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, defaultAddr, cfg.addr)
		assert.Equal(t, slog.LevelInfo, cfg.logLevel)
		assert.Equal(t, defaultDatabaseURL, cfg.databaseURL)
	})

	t.Run("env file values", func(t *testing.T) {
		unsetenv(t, envAddr, envLogLevel)

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("GUISE_INSPECT_ADDR=127.0.0.1:9000\nGUISE_LOG_LEVEL=debug\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.addr)
		assert.Equal(t, slog.LevelDebug, cfg.logLevel)
	})

	t.Run("environment wins over env file", func(t *testing.T) {
		unsetenv(t, envLogLevel)
		t.Setenv(envAddr, ":7000")

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("GUISE_INSPECT_ADDR=:9000\n"), 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.addr)
	})

	t.Run("invalid log level", func(t *testing.T) {
		unsetenv(t, envAddr)
		t.Setenv(envLogLevel, "loud")

		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func newTestRegistry(t *testing.T) *guise.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := guise.New(guise.WithLogger(logger))
	registerServices(r, appConfig{databaseURL: "postgres://test/app"}, logger)
	return r
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewRouter(t *testing.T) {
	h := newRouter(newTestRegistry(t))

	rr := do(t, h, mountPath+"/registrations/count")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":7}`, rr.Body.String())

	rr = do(t, h, mountPath+"/containers/exporters")
	require.Equal(t, http.StatusOK, rr.Code)

	var entries []inspect.Entry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "csv", entries[0].Name)
	assert.Equal(t, "text/csv", entries[0].Metadata)
	assert.Equal(t, "json", entries[1].Name)

	rr = do(t, h, mountPath+"/registrations?type=*main.UserService")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"holding":"weak"`)
}

func TestUserRoute(t *testing.T) {
	r := newTestRegistry(t)
	h := newRouter(r)

	t.Run("json by default", func(t *testing.T) {
		rr := do(t, h, "/users/42")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":42,"user":"row-result"}`, rr.Body.String())
	})

	t.Run("csv format", func(t *testing.T) {
		rr := do(t, h, "/users/7?format=csv")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
		assert.Equal(t, "id,user\n7,row-result\n", rr.Body.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		rr := do(t, h, "/users/7?format=xml")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := do(t, h, "/users/abc")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("database is shared", func(t *testing.T) {
		a, err := need(r, guise.TypeKey[*UserRepository]())
		require.NoError(t, err)
		b, err := need(r, guise.TypeKey[*UserRepository]())
		require.NoError(t, err)
		assert.NotSame(t, a, b)
		assert.Same(t, a.DB, b.DB)
		assert.Equal(t, "postgres://test/app", a.DB.URL)
	})

	t.Run("missing dependency", func(t *testing.T) {
		r := guise.New(guise.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		registerServices(r, appConfig{}, slog.Default())
		r.Unregister(guise.TypeKey[*Database]())

		rr := do(t, newRouter(r), "/users/1")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "is not registered")
	})
}

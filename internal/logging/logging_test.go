package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})
	log.Info("hidden")
	log.Warn("span rejected", "span_m", 50.0)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "span rejected", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, 50.0, line["span_m"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Info("ready", "port", "8080")
	assert.Contains(t, buf.String(), "msg=ready")
	assert.Contains(t, buf.String(), "port=8080")
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	h := Middleware(New(Config{Format: "json", Output: &buf}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "/api/v1/stats", line["path"])
	assert.Equal(t, 500.0, line["status"])
}

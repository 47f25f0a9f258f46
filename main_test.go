package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pontis/internal/artifact"
	"Pontis/internal/knowledge"
	"Pontis/internal/llm"
	"Pontis/internal/pipeline"
	"Pontis/internal/repo"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	stats := llm.NewPromStats(reg)
	pstats := &pipeline.Stats{}
	require.NoError(t, pstats.Register(reg))
	analyzer := llm.NewAnalyzer(stats, nil,
		&llm.FakeClient{ProviderName: "DeepSeek", Errs: []error{llm.ErrNotConfigured}},
		llm.NewQwen(),
	)
	mem := repo.NewMemory()
	d := deps{
		log:       slog.New(slog.DiscardHandler),
		tokenKey:  []byte("test"),
		svc:       pipeline.New(analyzer, kb, pstats, nil),
		llmStats:  stats,
		users:     mem,
		designs:   mem,
		artifacts: artifact.NewMemoryStore(),
		registry:  reg,
	}
	r := mux.NewRouter()
	HandleList(r, d)
	return CORS(r)
}

func call(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEndToEnd(t *testing.T) {
	h := testServer(t)

	rec := call(t, h, "POST", "/api/register", `{"login": "anna", "email": "anna@example.com", "password": "secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = call(t, h, "POST", "/api/user/designs", `{"user_requirements": "预应力混凝土连续梁，跨度100米，双向四车道"}`, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d pipeline.Design
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, "Qwen", d.Provider)
	assert.Equal(t, 5.56, d.Params.GirderDepthM)

	rec = call(t, h, "GET", "/api/user/designs/"+d.ID+"/svg", "", cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, "GET", "/api/user/designs", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, h, "GET", "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"successful_designs":1`)

	rec = call(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pontis_llm_calls_total{outcome="success",provider="Qwen"} 1`)
	assert.Contains(t, rec.Body.String(), "pontis_design_succeeded_total 1")
}

func TestCORSPreflight(t *testing.T) {
	rec := call(t, testServer(t), "OPTIONS", "/api/v1/generate_design", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	rec := call(t, testServer(t), "GET", "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

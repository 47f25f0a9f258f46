package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepSeekSkipsWithoutKey(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hit = true }))
	defer srv.Close()

	for _, key := range []string{"", "  ", placeholderKey} {
		_, err := NewDeepSeek(DeepSeekConfig{APIKey: key, BaseURL: srv.URL}).GenerateJSON(context.Background(), "p")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
	assert.False(t, hit)
}

func TestDeepSeekChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultDeepSeekModel, req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{
				"role":    "assistant",
				"content": "```json\n{\"bridge_type_preference\": \"arch\"}\n```",
			}}},
		})
	}))
	defer srv.Close()

	raw, err := NewDeepSeek(DeepSeekConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}).GenerateJSON(context.Background(), "hello")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bridge_type_preference": "arch"}`, string(raw))
}

func TestProviderErrorsClassified(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		temporary bool
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "overloaded", temporary: true},
		{name: "bad request", status: http.StatusBadRequest, body: "bad", temporary: false},
		{name: "unauthorised", status: http.StatusUnauthorized, body: "nope", temporary: false},
		{name: "malformed content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"not json"}}]}`, temporary: false},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, temporary: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewDeepSeek(DeepSeekConfig{APIKey: "k", BaseURL: srv.URL}).GenerateJSON(context.Background(), "p")
			require.Error(t, err)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "DeepSeek", se.Provider)
			assert.Equal(t, tc.temporary, Retryable(err))
		})
	}
}

func TestTransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewOllama(OllamaConfig{BaseURL: url}).GenerateJSON(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, Retryable(err))
	assert.Contains(t, err.Error(), "server unreachable")
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: `{"span_length_description": "about 80m"}`})
	}))
	defer srv.Close()

	raw, err := NewOllama(OllamaConfig{BaseURL: srv.URL + "/api", Model: "qwen2"}).GenerateJSON(context.Background(), "p")
	require.NoError(t, err)
	assert.JSONEq(t, `{"span_length_description": "about 80m"}`, string(raw))
}

func TestOllamaEmptyResponseIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{})
	}))
	defer srv.Close()

	_, err := NewOllama(OllamaConfig{BaseURL: srv.URL}).GenerateJSON(context.Background(), "p")
	require.Error(t, err)
	assert.False(t, Retryable(err))
}

func TestOllamaWithoutURLIsSkipped(t *testing.T) {
	_, err := NewOllama(OllamaConfig{}).GenerateJSON(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestQwenExtractsChineseRequirements(t *testing.T) {
	prompt, err := Prompt(ExtractBridgeParameters, "需要一座预应力混凝土连续梁桥，跨度100米，双向四车道，抗震设防烈度8度")
	require.NoError(t, err)

	raw, err := NewQwen().GenerateJSON(context.Background(), prompt)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "prestressed concrete continuous beam", got["bridge_type_preference"])
	assert.Equal(t, 100.0, got["estimated_span_meters"])
	assert.Equal(t, "跨度100米", got["span_length_description"])
	assert.Equal(t, "双向四车道", got["road_lanes_description"])
	assert.Equal(t, "8度", got["seismic_description"])
	assert.Equal(t, "抗震设防烈度8度", got["environmental_factors"])
	assert.Equal(t, "prestressed, concrete", got["specific_materials"])
}

func TestQwenExtractsEnglishRequirements(t *testing.T) {
	prompt, err := Prompt(ExtractBridgeParameters, `A steel truss bridge spanning 60 m, two lanes, "urgent"`)
	require.NoError(t, err)
	assert.Equal(t, "A steel truss bridge spanning 60 m, two lanes, 'urgent'", userInput(prompt))

	raw, err := NewQwen().GenerateJSON(context.Background(), prompt)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "steel truss", got["bridge_type_preference"])
	assert.Equal(t, 60.0, got["estimated_span_meters"])
	assert.Equal(t, "two lanes", got["road_lanes_description"])
	assert.NotContains(t, got, "seismic_description")
}

func TestQwenRejectsEmptyRequirement(t *testing.T) {
	prompt, err := Prompt(ExtractBridgeParameters, "   ")
	require.NoError(t, err)
	_, err = NewQwen().GenerateJSON(context.Background(), prompt)
	require.Error(t, err)
	assert.False(t, Retryable(err))
}

func TestUnknownPromptTemplate(t *testing.T) {
	_, err := Prompt("summarise", "x")
	assert.Error(t, err)
}

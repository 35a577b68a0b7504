package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

func TestGenerate_JSONFormat(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"{\"issues\":[]}","done":true}`))
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL})
	reply, err := svc.Generate(context.Background(), "scan", driven.GenerateOptions{JSON: true, MaxTokens: 10})
	require.NoError(t, err)

	assert.Equal(t, `{"issues":[]}`, reply)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, DefaultLLMModel, got.Model)
	require.NotNil(t, got.Options)
	assert.Equal(t, 10, got.Options.NumPredict)
}

func TestChat_BearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer company", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"hi"},"done":true}`))
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL + "/", APIKey: "company", Model: "mistral"})
	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hello"}}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)
	assert.Equal(t, "mistral", svc.ModelName())
}

func TestPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	svc := NewLLMService(LLMConfig{BaseURL: srv.URL})
	_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "status 404")
	assert.Error(t, svc.Ping(context.Background()))
}

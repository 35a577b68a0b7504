package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
)

type captured struct {
	Model     string            `json:"model"`
	System    string            `json:"system"`
	MaxTokens int               `json:"max_tokens"`
	Messages  []json.RawMessage `json:"messages"`
}

func server(t *testing.T, reply string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestChat_SystemAndJSONPrefill(t *testing.T) {
	var got captured
	srv := server(t, `{"content":[{"type":"text","text":"\"subject\":\"x\"}"}]}`, &got)

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "draft emails"},
		{Role: "user", Content: "inputs"},
	}, driven.ChatOptions{JSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"subject":"x"}`, reply)
	assert.Equal(t, "draft emails", got.System)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.JSONEq(t, `{"role":"assistant","content":"{"}`, string(got.Messages[1]))
}

func TestGenerateWithFile_SendsDocumentBlock(t *testing.T) {
	var got captured
	srv := server(t, `{"content":[{"type":"text","text":"ok"}]}`, &got)

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	pdf := []byte("%PDF-1.7")
	reply, err := svc.GenerateWithFile(context.Background(), "review", driven.Attachment{Name: "a.pdf", Data: pdf},
		driven.GenerateOptions{MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)

	require.Len(t, got.Messages, 1)
	var msg struct {
		Content []contentBlock `json:"content"`
	}
	require.NoError(t, json.Unmarshal(got.Messages[0], &msg))
	require.Len(t, msg.Content, 2)
	assert.Equal(t, "document", msg.Content[0].Type)
	assert.Equal(t, "application/pdf", msg.Content[0].Source.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), msg.Content[0].Source.Data)
	assert.Equal(t, "review", msg.Content[1].Text)
}

func TestSendMessages_APIError(t *testing.T) {
	var got captured
	srv := server(t, `{"error":{"type":"overloaded_error","message":"Overloaded"}}`, &got)

	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "hi", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "Overloaded")
}

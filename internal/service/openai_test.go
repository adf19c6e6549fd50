package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"property-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestOpenAIClient(t *testing.T, h http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(&config.OpenAIConfig{
		APIKey:         "sk-test",
		APIBase:        srv.URL,
		ChatModel:      "gpt-4",
		EmbeddingModel: "text-embedding-ada-002",
		BatchSize:      2,
		Timeout:        5,
		Enabled:        true,
	}, zaptest.NewLogger(t))
}

func TestOpenAIClient_ChatCompletion(t *testing.T) {
	var body map[string]any
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("OpenAI-Beta"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		_, _ = io.WriteString(w, `{"model":"gpt-4","choices":[{"index":0,"message":{"role":"assistant","content":"hallo"}}]}`)
	})

	resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages:    []ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: float64Ptr(0),
	})

	require.NoError(t, err)
	assert.Equal(t, "hallo", resp.FirstContent())
	assert.Equal(t, "gpt-4", body["model"], "empty model falls back to the configured one")
	temp, ok := body["temperature"]
	require.True(t, ok, "temperature 0 must be sent")
	assert.Equal(t, 0.0, temp)
}

func TestOpenAIClient_APIError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	})

	_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{Model: "gpt-4"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestOpenAIClient_Disabled(t *testing.T) {
	client := NewOpenAIClient(&config.OpenAIConfig{}, zaptest.NewLogger(t))

	_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{})
	assert.Error(t, err)
	_, err = client.CreateEmbeddings(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestOpenAIClient_CreateEmbeddingsBatches(t *testing.T) {
	var batches [][]string
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req EmbeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-ada-002", req.Model)
		batches = append(batches, req.Input)

		// answer out of order to check index placement
		resp := EmbeddingResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(len(req.Input[i]))}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, batches)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, vectors)
}

func TestOpenAIClient_AssistantsFlow(t *testing.T) {
	var paths []string
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		paths = append(paths, r.Method+" "+r.URL.RequestURI())

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			_, _ = io.WriteString(w, `{"id":"thread_abc"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/messages":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user", body["role"])
			assert.Equal(t, "Hallo", body["content"])
			_, _ = io.WriteString(w, `{"id":"msg_1"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_abc/runs":
			_, _ = io.WriteString(w, `{"id":"run_1","status":"queued"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/runs/run_1":
			_, _ = io.WriteString(w, `{"id":"run_1","status":"failed","last_error":{"code":"server_error","message":"oops"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_abc/messages":
			_, _ = io.WriteString(w, `{"data":[{"id":"msg_2","role":"assistant","content":[{"type":"text","text":{"value":"Hoi!"}}]}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	threadID, err := client.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", threadID)

	require.NoError(t, client.CreateMessage(ctx, threadID, "user", "Hallo"))

	run, err := client.CreateRun(ctx, threadID, "asst_1")
	require.NoError(t, err)
	assert.Equal(t, RunQueued, run.Status)

	run, err = client.GetRun(ctx, threadID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	require.NotNil(t, run.LastError)
	assert.Equal(t, "oops", run.LastError.Message)

	messages, err := client.ListMessages(ctx, threadID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Hoi!", messages[0].Text())

	assert.Equal(t, []string{
		"POST /threads",
		"POST /threads/thread_abc/messages",
		"POST /threads/thread_abc/runs",
		"GET /threads/thread_abc/runs/run_1",
		"GET /threads/thread_abc/messages?order=desc&limit=20",
	}, paths)
}

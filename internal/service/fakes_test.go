package service

import (
	"context"
	"sync"

	"property-assistant/internal/model"
)

// fakeChat answers chat completions through respond and records every request
type fakeChat struct {
	mu      sync.Mutex
	calls   []ChatCompletionRequest
	respond func(req ChatCompletionRequest) (string, error)
}

func (f *fakeChat) ChatCompletion(_ context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	content, err := f.respond(req)
	if err != nil {
		return nil, err
	}
	resp := &ChatCompletionResponse{}
	resp.Choices = append(resp.Choices, struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	}{Message: ChatMessage{Role: "assistant", Content: content}})
	return resp, nil
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func replyWith(content string) *fakeChat {
	return &fakeChat{respond: func(ChatCompletionRequest) (string, error) { return content, nil }}
}

type fakeEmbeddings struct {
	vectors [][]float32
	err     error
	inputs  [][]string
}

func (f *fakeEmbeddings) CreateEmbeddings(_ context.Context, texts []string) ([][]float32, error) {
	f.inputs = append(f.inputs, texts)
	return f.vectors, f.err
}

type fakeStore struct {
	listings []model.Listing
	err      error
	params   []model.MatchParams
}

func (f *fakeStore) MatchProperties(_ context.Context, p model.MatchParams) ([]model.Listing, error) {
	f.params = append(f.params, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

// fakeThreads scripts the assistants API. runs is consumed one status per
// GetRun call; the last status repeats.
type fakeThreads struct {
	mu         sync.Mutex
	createErr  error
	initial    string
	runs       []string
	lastError  string
	messages   []ThreadMessage
	posted     []string
	getRuns    int
	threadsNew int
}

func (f *fakeThreads) CreateThread(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.threadsNew++
	return "thread_1", nil
}

func (f *fakeThreads) CreateMessage(_ context.Context, _, role, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, role+":"+content)
	return nil
}

func (f *fakeThreads) CreateRun(_ context.Context, threadID, assistantID string) (*Run, error) {
	return f.run(threadID, assistantID, f.initial), nil
}

func (f *fakeThreads) GetRun(_ context.Context, threadID, _ string) (*Run, error) {
	f.mu.Lock()
	status := ""
	if len(f.runs) > 0 {
		i := min(f.getRuns, len(f.runs)-1)
		status = f.runs[i]
	}
	f.getRuns++
	f.mu.Unlock()
	return f.run(threadID, "asst_1", status), nil
}

func (f *fakeThreads) ListMessages(context.Context, string) ([]ThreadMessage, error) {
	return f.messages, nil
}

func (f *fakeThreads) run(threadID, assistantID, status string) *Run {
	r := &Run{ID: "run_1", ThreadID: threadID, AssistantID: assistantID, Status: status}
	if f.lastError != "" {
		r.LastError = &struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}{Code: "server_error", Message: f.lastError}
	}
	return r
}

func threadMessage(role, text string) ThreadMessage {
	m := ThreadMessage{Role: role}
	m.Content = append(m.Content, struct {
		Type string `json:"type"`
		Text *struct {
			Value string `json:"value"`
		} `json:"text,omitempty"`
	}{Type: "text", Text: &struct {
		Value string `json:"value"`
	}{Value: text}})
	return m
}

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func sampleListing(ref string, beds int) model.Listing {
	price := 325000.0
	built := 98.0
	return model.Listing{
		Ref:         strPtr(ref),
		Description: strPtr("Bright apartment close to the beach with sea views."),
		Features:    model.StringList{"Terrace", "Air conditioning"},
		Town:        strPtr("Alicante"),
		Province:    strPtr("Alicante"),
		Country:     strPtr("Spain"),
		Price:       &price,
		Currency:    strPtr("EUR"),
		Bedrooms:    intPtr(beds),
		Bathrooms:   intPtr(1),
		Pool:        intPtr(1),
		BuiltArea:   &built,
		ImageURL:    model.StringList{"https://img.example.com/" + ref + ".jpg"},
		URL:         strPtr("https://listings.example.com/" + ref),
	}
}

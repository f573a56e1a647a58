package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
)

func chatBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	}
}

func makeTestServer(t *testing.T, statusCode int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_Success(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, chatBody(`{"jobs":[]}`))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	got, err := provider.Complete(context.Background(), Request{Prompt: "extract this"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"jobs":[]}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := makeTestServer(t, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{"message": "server error", "type": "server_error"},
	})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	if _, err := provider.Complete(context.Background(), Request{Prompt: "extract this"}); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv := makeTestServer(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"message": "rate limited", "type": "rate_limit"},
	})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	if _, err := provider.Complete(context.Background(), Request{Prompt: "extract this"}); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, map[string]any{"id": "x", "choices": []any{}})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", srv.Client())
	if _, err := provider.Complete(context.Background(), Request{Prompt: "extract this"}); err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_SetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatBody("ok"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL, "my-secret-key", "test-model", srv.Client())
	_, _ = provider.Complete(context.Background(), Request{Prompt: "hello"})

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer my-secret-key")
	}
}

func TestComplete_SendsStructuredOutputFormat(t *testing.T) {
	var gotReq struct {
		Model          string `json:"model"`
		Messages       []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type       string `json:"type"`
			JSONSchema struct {
				Name   string         `json:"name"`
				Schema map[string]any `json:"schema"`
			} `json:"json_schema"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatBody("{}"))
	}))
	defer srv.Close()

	schema := &jsonschema.Definition{
		Type:       jsonschema.Object,
		Properties: map[string]jsonschema.Definition{"description": {Type: jsonschema.String}},
		Required:   []string{"description"},
	}
	provider := NewOpenAIProvider(srv.URL, "key", "gpt-4o-mini", srv.Client())
	_, err := provider.Complete(context.Background(), Request{
		System:     "system prompt",
		Prompt:     "page text",
		SchemaName: "job_description",
		Schema:     schema,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "page text" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.ResponseFormat.Type != "json_schema" {
		t.Errorf("response_format.type = %q, want json_schema", gotReq.ResponseFormat.Type)
	}
	if gotReq.ResponseFormat.JSONSchema.Name != "job_description" {
		t.Errorf("response_format.json_schema.name = %q, want job_description", gotReq.ResponseFormat.JSONSchema.Name)
	}
	if gotReq.ResponseFormat.JSONSchema.Schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", gotReq.ResponseFormat.JSONSchema.Schema["type"])
	}
}

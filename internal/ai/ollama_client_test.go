package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/BitCodeHub/analytics-storyteller/internal/apperrors"
)

func TestOllamaCompleteSuccess(t *testing.T) {
	var numPredict float64
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if opts, ok := body["options"].(map[string]any); ok {
			numPredict, _ = opts["num_predict"].(float64)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "llama3:latest",
			"message": map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := c.Complete(ctx, CompletionRequest{Model: "llama3:latest", Prompt: "hi", MaxTokens: 16})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out.Text != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.RequestID == "" {
		t.Fatalf("expected simulated request id")
	}
	if numPredict != 16 {
		t.Fatalf("expected num_predict=16, got %v", numPredict)
	}
}

func TestOllamaCompleteBadRequest(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "bad request"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second)
	_, err := c.Complete(context.Background(), CompletionRequest{Model: "llama3:latest", Prompt: "hi"})
	if !errors.Is(err, apperrors.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestOllamaUnreachable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", time.Second)
	_, err := c.Complete(context.Background(), CompletionRequest{Model: "m", Prompt: "hi"})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T %v", err, err)
	}
}

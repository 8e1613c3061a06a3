package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"WenyanScene-server/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(
		config.LLMBackendConfig{APIURL: ts.URL, APIKey: "dummy", Model: "ecnu-max", Timeout: 5 * time.Second},
		config.LLMBackendConfig{APIURL: ts.URL + "/", APIKey: "dummy", Model: "ecnu-reasoner", MaxTokens: 8192, Temperature: 0.7, Timeout: 5 * time.Second},
	)
}

func TestCallSendsPromptsAndReturnsContent(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: want=/chat/completions got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer dummy" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"【句1】…"}}]}`))
	})

	res, err := client.Call(context.Background(), Reasoning, "sys", "user")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res != "【句1】…" {
		t.Fatalf("content: got %q", res)
	}
	if got.Model != "ecnu-reasoner" || got.MaxTokens != 8192 || got.Stream {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "sys" || got.Messages[1].Content != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCallNonSuccessStatusIsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})
	_, err := client.Call(context.Background(), Fast, "sys", "user")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusBadGateway || ue.Backend != Fast {
		t.Fatalf("unexpected error: %+v", ue)
	}
}

func TestCallErrorBodyTruncatedOnRuneBoundary(t *testing.T) {
	body := "x" + strings.Repeat("服务暂不可用", 100)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(body))
	})
	_, err := client.Call(context.Background(), Fast, "sys", "user")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !utf8.ValidString(err.Error()) {
		t.Fatalf("error message is not valid utf-8: %q", err.Error())
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) || utf8.RuneCountInString(ue.Message) != 500+len("...") {
		t.Fatalf("unexpected truncated message: %v", err)
	}
}

func TestCallMissingContentIsUpstreamError(t *testing.T) {
	bodies := []string{
		`{"choices":[]}`,
		`{"choices":[{}]}`,
		`{"choices":[{"message":{"content":""}}]}`,
		`{"error":"x"}`,
	}
	for _, body := range bodies {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		_, err := client.Call(context.Background(), Fast, "sys", "user")
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("body %s: expected UpstreamError, got %v", body, err)
		}
	}
}

func TestCallTimeoutIsUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer ts.Close()
	cfg := config.LLMBackendConfig{APIURL: ts.URL, Model: "m", Timeout: 20 * time.Millisecond}
	client := NewClient(cfg, cfg)

	_, err := client.Call(context.Background(), Fast, "sys", "user")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError on timeout, got %v", err)
	}
}

func TestCallUnknownBackend(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := client.Call(context.Background(), Backend("vision"), "s", "u"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

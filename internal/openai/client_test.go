package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"lexgate/engine/internal/llm"
)

type mockRT struct {
	roundTrip func(req *http.Request) (*http.Response, error)
}

func (m *mockRT) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTrip(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(rt func(req *http.Request) (*http.Response, error)) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Transport: &mockRT{roundTrip: rt}},
	}
}

func TestValidateKey(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/models" {
			t.Fatalf("expected /v1/models, got %s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		return response(http.StatusOK, "{}"), nil
	})
	if err := client.ValidateKey(context.Background(), "sk-test"); err != nil {
		t.Fatalf("validate key failed: %v", err)
	}
}

func TestValidateKeyEmpty(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request expected for empty key")
		return nil, nil
	})
	if err := client.ValidateKey(context.Background(), "  "); err != llm.ErrUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestChatSendsParams(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/chat/completions" {
			t.Fatalf("expected chat completions path, got %s", req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if payload["model"] != "gpt-4" {
			t.Fatalf("expected gpt-4, got %v", payload["model"])
		}
		if payload["max_tokens"] != float64(2500) {
			t.Fatalf("expected max_tokens 2500, got %v", payload["max_tokens"])
		}
		return response(http.StatusOK, `{"choices":[{"message":{"content":"reviewed"}}]}`), nil
	})
	content, err := client.Chat(context.Background(), "sk-test", ChatParams{Model: "gpt-4", MaxTokens: 2500}, []llm.Message{
		{Role: "system", Content: "advisor"},
		{Role: "user", Content: "contract"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if content != "reviewed" {
		t.Fatalf("expected reviewed, got %q", content)
	}
}

func TestChatStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:    llm.ErrUnauthorized,
		http.StatusForbidden:       llm.ErrUnauthorized,
		http.StatusTooManyRequests: llm.ErrRateLimited,
		http.StatusBadGateway:      llm.ErrUnavailable,
	}
	for status, want := range cases {
		client := testClient(func(req *http.Request) (*http.Response, error) {
			return response(status, "{}"), nil
		})
		_, err := client.Chat(context.Background(), "sk-test", ChatParams{Model: "gpt-4"}, []llm.Message{{Role: "user", Content: "x"}})
		if err != want {
			t.Fatalf("status %d: expected %v, got %v", status, want, err)
		}
	}
}

func TestChatContentBlocks(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"choices":[{"message":{"content":[{"text":"part one "},{"text":"part two"}]}}]}`), nil
	})
	content, err := client.Chat(context.Background(), "sk-test", ChatParams{Model: "gpt-4"}, []llm.Message{{Role: "user", Content: "x"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if content != "part one part two" {
		t.Fatalf("expected joined blocks, got %q", content)
	}
}

func TestChatEmptyResponse(t *testing.T) {
	client := testClient(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"choices":[]}`), nil
	})
	if _, err := client.Chat(context.Background(), "sk-test", ChatParams{Model: "gpt-4"}, []llm.Message{{Role: "user", Content: "x"}}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

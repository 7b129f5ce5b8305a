package egress

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"lexgate/engine/internal/llm"
)

type recordingTransport struct {
	called bool
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.called = true
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func request(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	parsed, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return &http.Request{URL: parsed}
}

func TestAllowlistBlocksUnknownHost(t *testing.T) {
	base := &recordingTransport{}
	rt := NewAllowlistRoundTripper(base, []string{"api.openai.com"})
	_, err := rt.RoundTrip(request(t, "https://example.com/v1/chat"))
	if !errors.Is(err, llm.ErrEgressBlocked) {
		t.Fatalf("expected egress blocked, got %v", err)
	}
	if base.called {
		t.Fatalf("base transport must not be reached")
	}
}

func TestAllowlistBlocksPlainHTTP(t *testing.T) {
	rt := NewAllowlistRoundTripper(nil, []string{"api.openai.com"})
	_, err := rt.RoundTrip(request(t, "http://api.openai.com/v1/chat"))
	if !errors.Is(err, llm.ErrEgressBlocked) {
		t.Fatalf("expected egress blocked, got %v", err)
	}
}

func TestAllowlistBlocksIPLiteral(t *testing.T) {
	rt := NewAllowlistRoundTripper(nil, []string{"api.openai.com"})
	_, err := rt.RoundTrip(request(t, "https://93.184.216.34/v1/chat"))
	if !errors.Is(err, llm.ErrEgressBlocked) {
		t.Fatalf("expected egress blocked, got %v", err)
	}
}

func TestAllowlistPassesAllowedHost(t *testing.T) {
	base := &recordingTransport{}
	rt := NewAllowlistRoundTripper(base, []string{"api.openai.com"})
	resp, err := rt.RoundTrip(request(t, "https://api.openai.com/v1/chat/completions"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !base.called {
		t.Fatalf("expected base transport hit")
	}
}

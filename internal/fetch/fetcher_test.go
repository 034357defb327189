package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestClient() *Client {
	return NewClient(Options{Timeout: 5 * time.Second, UserAgent: "test-agent", MaxBytes: 1 << 20})
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("Expected User-Agent test-agent, got %s", got)
		}
		if got := r.URL.Query().Get("country"); got != "us" {
			t.Errorf("Expected country=us, got %s", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "k" {
			t.Errorf("Expected X-Api-Key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"status":"ok","total":2}`)
	}))
	defer server.Close()

	var out struct {
		Status string `json:"status"`
		Total  int    `json:"total"`
	}
	err := newTestClient().GetJSON(context.Background(), server.URL, url.Values{"country": {"us"}}, map[string]string{"X-Api-Key": "k"}, &out)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Status != "ok" || out.Total != 2 {
		t.Errorf("Unexpected decode result: %+v", out)
	}
}

func TestGet_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient().Get(context.Background(), server.URL, nil, nil)
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("Expected ErrUnexpectedStatus, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *StatusError, got %T", err)
	}
	if se.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", se.StatusCode)
	}
}

func TestGetJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<html>not json</html>")
	}))
	defer server.Close()

	var out map[string]any
	err := newTestClient().GetJSON(context.Background(), server.URL, nil, nil, &out)
	if err == nil {
		t.Fatal("Expected decode error, got nil")
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("Decode error should not be a status error: %v", err)
	}
}

func TestGet_RespectsMaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "0123456789")
	}))
	defer server.Close()

	c := NewClientWithHTTP(server.Client(), "", 4)
	body, err := c.Get(context.Background(), server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(body) != "0123" {
		t.Errorf("Expected truncated body, got %q", body)
	}
}

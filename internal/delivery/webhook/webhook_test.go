package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSend_PostsPayload(t *testing.T) {
	t.Parallel()

	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := New(srv.URL)
	if err := p.Send(context.Background(), "guest@example.com", "service disruption update"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got.To != "guest@example.com" {
		t.Errorf("to = %q, want guest@example.com", got.To)
	}
	if got.Message != "service disruption update" {
		t.Errorf("message = %q, want the original text", got.Message)
	}
}

func TestSend_RelayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("smtp upstream down"))
	}))
	defer srv.Close()

	p := New(srv.URL)
	err := p.Send(context.Background(), "guest@example.com", "msg")
	if err == nil {
		t.Fatal("Send() error = nil, want relay error")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q does not contain status code", err)
	}
	if !strings.Contains(err.Error(), "smtp upstream down") {
		t.Errorf("error %q does not contain relay body", err)
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(srv.URL)
	if err := p.Send(ctx, "guest@example.com", "msg"); err == nil {
		t.Fatal("Send() error = nil, want context error")
	}
}

func TestSend_UnreachableRelay(t *testing.T) {
	t.Parallel()

	p := New("http://127.0.0.1:1") // nothing listens here
	if err := p.Send(context.Background(), "guest@example.com", "msg"); err == nil {
		t.Fatal("Send() error = nil, want transport error")
	}
}

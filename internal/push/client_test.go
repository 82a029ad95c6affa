package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"commoditybot/internal/render"
)

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New() expected error without token, got nil")
	}
}

func TestSend_Text(t *testing.T) {
	var got pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != pushPath {
			t.Errorf("request = %s %s, want POST %s", r.Method, r.URL.Path, pushPath)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", auth)
		}
		if r.Header.Get(retryKeyHeader) == "" {
			t.Errorf("missing %s header", retryKeyHeader)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, err := New(Options{BaseURL: server.URL + "/", Token: "secret"})
	if err != nil {
		t.Fatalf("New() returned unexpected error: %v", err)
	}
	defer c.Close()

	if err := c.Send(context.Background(), "U1", render.Message{Text: "hello"}); err != nil {
		t.Fatalf("Send() returned unexpected error: %v", err)
	}
	if got.To != "U1" || len(got.Messages) != 1 {
		t.Fatalf("body = %+v", got)
	}
	if m := got.Messages[0]; m.Type != "text" || m.Text != "hello" {
		t.Errorf("message = %+v, want text hello", m)
	}
}

func TestSend_Card(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, _ := New(Options{BaseURL: server.URL, Token: "t"})
	msg := render.Message{
		Text: "fallback",
		Card: &render.Card{
			Title:    render.Block{Text: "📊 原物料價格報告", Subtext: "2025-06-13 08:00"},
			Sections: []render.Section{{Heading: "🧪 溴素最新價格：", Lines: []string{"溴素：105.00"}}},
		},
	}
	if err := c.Send(context.Background(), "U2", msg); err != nil {
		t.Fatalf("Send() returned unexpected error: %v", err)
	}

	m := raw["messages"].([]any)[0].(map[string]any)
	if m["type"] != "flex" {
		t.Errorf("type = %v, want flex", m["type"])
	}
	if m["altText"] != "fallback" {
		t.Errorf("altText = %v", m["altText"])
	}
	body := m["contents"].(map[string]any)["body"].(map[string]any)
	contents := body["contents"].([]any)
	// title, subtext, separator, section box
	if len(contents) != 4 {
		t.Fatalf("body has %d components, want 4", len(contents))
	}
	section := contents[3].(map[string]any)["contents"].([]any)
	if section[1].(map[string]any)["text"] != "溴素：105.00" {
		t.Errorf("section line = %v", section[1])
	}
}

func TestSend_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"The property, 'to', in the request body is invalid"}`))
	}))
	defer server.Close()

	c, _ := New(Options{BaseURL: server.URL, Token: "t", RetryCount: 2})
	err := c.Send(context.Background(), "bad", render.Message{Text: "x"})

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Send() error = %v, want *Error", err)
	}
	if perr.StatusCode != http.StatusBadRequest || perr.Retryable() {
		t.Errorf("Error = %+v, want non-retryable 400", perr)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestSend_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c, _ := New(Options{BaseURL: server.URL, Token: "t", RetryCount: 1})
	if err := c.Send(context.Background(), "U1", render.Message{Text: "x"}); err != nil {
		t.Fatalf("Send() returned unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

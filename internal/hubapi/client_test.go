package hubapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/deskhub/internal/resource"
)

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "https", in: "https://hub.example.com/webhook/tasks"},
		{name: "http with port", in: " http://localhost:5678/webhook/x "},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "no scheme", in: "hub.example.com/tasks", wantErr: true},
		{name: "ftp", in: "ftp://hub.example.com/tasks", wantErr: true},
		{name: "hostless", in: "https:///tasks", wantErr: true},
		{name: "garbage", in: "http://[::1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateEndpoint(tt.in)
			if tt.wantErr {
				if !IsConfigurationError(err) {
					t.Fatalf("ValidateEndpoint(%q) err = %v, want ConfigurationError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateEndpoint(%q) returned error: %v", tt.in, err)
			}
		})
	}
}

func TestClient_FetchPostsJSON(t *testing.T) {
	t.Parallel()

	var gotMethod, gotUA, gotCT, gotAccept string
	var gotBody FetchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotUA = r.Header.Get("User-Agent")
		gotCT = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"tasks":[],"count":0}`)
	}))
	t.Cleanup(server.Close)

	c := NewClient(Options{UserAgent: "deskhub/1.2.3"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	body, err := c.Fetch(ctx, server.URL+"/webhook/tasks", RequestParams{}.Body(resource.Tasks))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != `{"tasks":[],"count":0}` {
		t.Fatalf("body = %q", body)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %q, want POST", gotMethod)
	}
	if gotUA != "deskhub/1.2.3" {
		t.Fatalf("user agent = %q, want deskhub/1.2.3", gotUA)
	}
	if gotCT != "application/json" || gotAccept != "application/json" {
		t.Fatalf("content-type = %q accept = %q, want application/json", gotCT, gotAccept)
	}
	if gotBody.UserID != DefaultUserID || gotBody.Limit != DefaultLimit {
		t.Fatalf("request body = %+v, want default user and limit", gotBody)
	}
}

func TestClient_EmptyEndpointSendsNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	c := NewClient(Options{})
	_, err := c.Fetch(context.Background(), "", nil)
	if !IsConfigurationError(err) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
	if IsTransportError(err) {
		t.Fatalf("configuration error classified as transport")
	}
	if hits.Load() != 0 {
		t.Fatalf("server hit %d times, want 0", hits.Load())
	}
}

func TestClient_Non2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not active", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := NewClient(Options{}).Fetch(context.Background(), server.URL, struct{}{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", se.StatusCode)
	}
	if !strings.Contains(se.Body, "workflow not active") {
		t.Fatalf("body = %q, want server message", se.Body)
	}
	if !IsTransportError(err) || Class(err) != "status" {
		t.Fatalf("classification = %q, want status transport error", Class(err))
	}
}

func TestClient_ConnectionFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Fetch(context.Background(), addr, nil)
	if !IsTransportError(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if Class(err) != "transport" {
		t.Fatalf("Class = %q, want transport", Class(err))
	}
}

func TestClient_OversizedBodyIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("["))
		_, _ = w.Write([]byte(strings.Repeat(" ", maxResponseBytes)))
		_, _ = w.Write([]byte("]"))
	}))
	defer server.Close()

	_, err := NewClient(Options{Timeout: 5 * time.Second}).Fetch(context.Background(), server.URL, nil)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("err = %v, want ErrResponseTooLarge", err)
	}
	if Class(err) != "transport" {
		t.Fatalf("Class = %q, want transport", Class(err))
	}

	exact := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(" ", maxResponseBytes-2) + "[]"))
	}))
	defer exact.Close()

	data, err := NewClient(Options{Timeout: 5 * time.Second}).Fetch(context.Background(), exact.URL, nil)
	if err != nil {
		t.Fatalf("body at the limit: err = %v", err)
	}
	if len(data) != maxResponseBytes {
		t.Fatalf("len(data) = %d, want %d", len(data), maxResponseBytes)
	}
}

func TestClient_UpdateAndTrigger(t *testing.T) {
	type seen struct {
		method string
		path   string
		body   map[string]any
	}
	calls := make(chan seen, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls <- seen{method: r.Method, path: r.URL.Path, body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c := NewClient(Options{})
	at := time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)
	if err := c.Update(context.Background(), server.URL+"/task-update", NewUpdateRequest("t1", "close", at)); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	got := <-calls
	if got.path != "/task-update" || got.body["id"] != "t1" || got.body["action"] != "close" {
		t.Fatalf("update call = %+v", got)
	}
	if got.body["timestamp"] != "2026-04-05T06:07:08.000Z" {
		t.Fatalf("timestamp = %v", got.body["timestamp"])
	}

	action := resource.Action{ID: "a1", URL: server.URL + "/deploy", Method: "put", Payload: map[string]any{"env": "prod"}}
	if err := c.Trigger(context.Background(), action); err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}
	got = <-calls
	if got.method != http.MethodPut || got.body["env"] != "prod" {
		t.Fatalf("trigger call = %+v", got)
	}
}

func TestRequestParams_Body(t *testing.T) {
	p := RequestParams{UserID: "alice", Limit: 10, ConversationID: "c9"}

	if got, ok := p.Body(resource.Notifications).(FetchRequest); !ok || got.UserID != "alice" || got.Limit != 10 {
		t.Fatalf("notifications body = %#v", p.Body(resource.Notifications))
	}
	encoded, _ := json.Marshal(p.Body(resource.Conversations))
	if string(encoded) != "{}" {
		t.Fatalf("conversations body = %s, want {}", encoded)
	}
	if got, ok := p.Body(resource.ConversationHistory).(HistoryRequest); !ok || got.ConversationID != "c9" {
		t.Fatalf("history body = %#v", p.Body(resource.ConversationHistory))
	}
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/campushub/admissions-agent-api/internal/models"
)

func TestListSessionsDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/institutions/inst-1/agent-sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"id":             "sess-1",
					"agent_type":     "ranking",
					"institution_id": "inst-1",
					"status":         "running",
					"created_at":     "2026-08-30T10:00:00Z",
				},
			},
		})
	}))
	defer server.Close()

	c := NewSessionClient(server.URL, "token-1", time.Second)
	sessions, err := c.ListSessions(context.Background(), "inst-1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].AgentKind != models.AgentKindRanking {
		t.Fatalf("AgentKind = %q", sessions[0].AgentKind)
	}
	if sessions[0].Status != models.SessionStatusRunning {
		t.Fatalf("Status = %q", sessions[0].Status)
	}
	if sessions[0].CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not parsed")
	}
}

func TestCreateSessionPostsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["agent_type"] != "ranking" {
			t.Errorf("agent_type = %q", body["agent_type"])
		}
		if body["instructions"] != "rank cs applicants" {
			t.Errorf("instructions = %q", body["instructions"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":             "sess-9",
				"agent_type":     "ranking",
				"institution_id": "inst-1",
				"status":         "queued",
				"created_at":     "2026-08-30T10:00:00Z",
			},
		})
	}))
	defer server.Close()

	c := NewSessionClient(server.URL, "", time.Second)
	session, err := c.CreateSession(context.Background(), "inst-1", models.AgentKindRanking, "rank cs applicants")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID != "sess-9" {
		t.Fatalf("ID = %q", session.ID)
	}
	if session.Status != models.SessionStatusQueued {
		t.Fatalf("Status = %q", session.Status)
	}
}

func TestClientSurfacesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "FORBIDDEN", "message": "wrong tenant"},
		})
	}))
	defer server.Close()

	c := NewSessionClient(server.URL, "token-1", time.Second)
	_, err := c.ListSessions(context.Background(), "inst-2")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); got != "FORBIDDEN: wrong tenant" {
		t.Fatalf("error = %q", got)
	}
}

func TestClientStatusOnlyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewSessionClient(server.URL, "", time.Second)
	if _, err := c.ListSessions(context.Background(), "inst-1"); err == nil {
		t.Fatalf("expected error for 502 without envelope")
	}
}

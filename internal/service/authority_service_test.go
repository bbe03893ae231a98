package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/pkg/config"
)

func TestAuthorityModeFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		remote bool
		want   models.AuthorityMode
	}{
		{"defaults to local", false, models.AuthorityLocal},
		{"remote flag enables remote", true, models.AuthorityRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthorityService(config.AuthorityConfig{RemoteSessions: tt.remote}, nil)
			if got := svc.Mode(); got != tt.want {
				t.Fatalf("Mode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthoritySetModeFlipsAtRuntime(t *testing.T) {
	svc := NewAuthorityService(config.AuthorityConfig{}, nil)
	resolve := svc.Resolver()

	if resolve() != models.AuthorityLocal {
		t.Fatalf("expected local mode before flip")
	}
	if err := svc.SetMode(models.AuthorityRemote); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if resolve() != models.AuthorityRemote {
		t.Fatalf("resolver did not observe the flip")
	}
}

func TestAuthoritySetModeRejectsUnknown(t *testing.T) {
	svc := NewAuthorityService(config.AuthorityConfig{}, nil)
	if err := svc.SetMode(models.AuthorityMode("hybrid")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if svc.Mode() != models.AuthorityLocal {
		t.Fatalf("mode changed after rejected SetMode")
	}
}

func TestAuthorityHeadersDefault(t *testing.T) {
	svc := NewAuthorityService(config.AuthorityConfig{RemoteSessions: true}, nil)
	headers := svc.Headers()
	if headers.ModeHeader != "X-Authority-Mode" {
		t.Fatalf("ModeHeader = %q, want default", headers.ModeHeader)
	}
	if headers.Mode != models.AuthorityRemote {
		t.Fatalf("Mode = %q, want remote", headers.Mode)
	}
}

func TestAuthorityHeadersConfigured(t *testing.T) {
	svc := NewAuthorityService(config.AuthorityConfig{ModeHeader: "X-Session-Authority"}, nil)
	if got := svc.Headers().ModeHeader; got != "X-Session-Authority" {
		t.Fatalf("ModeHeader = %q", got)
	}
}

func TestPingRemoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewAuthorityService(config.AuthorityConfig{RemoteHealthURL: server.URL}, nil)
	svc.client = server.Client()

	result, err := svc.PingRemote(context.Background())
	if err != nil {
		t.Fatalf("PingRemote: %v", err)
	}
	if !result.Reachable {
		t.Fatalf("expected reachable result")
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d", result.StatusCode)
	}
}

func TestPingRemoteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewAuthorityService(config.AuthorityConfig{RemoteHealthURL: server.URL}, nil)
	svc.client = server.Client()

	result, err := svc.PingRemote(context.Background())
	if err == nil {
		t.Fatalf("expected error for 5xx response")
	}
	if result.Reachable {
		t.Fatalf("5xx must not count as reachable")
	}
	if result.Error == "" {
		t.Fatalf("expected error detail in result")
	}
}

func TestPingRemoteMissingURL(t *testing.T) {
	svc := NewAuthorityService(config.AuthorityConfig{}, nil)
	if _, err := svc.PingRemote(context.Background()); err == nil {
		t.Fatalf("expected error when remote health URL is not configured")
	}
}

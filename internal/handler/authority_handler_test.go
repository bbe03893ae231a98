package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/service"
	"github.com/campushub/admissions-agent-api/pkg/config"
)

func newAuthorityRouter(cfg config.AuthorityConfig) (*gin.Engine, *service.AuthorityService) {
	gin.SetMode(gin.TestMode)
	svc := service.NewAuthorityService(cfg, nil)
	h := NewAuthorityHandler(svc)

	r := gin.New()
	r.GET("/authority/status", h.Status)
	r.GET("/authority/ping", h.PingRemote)
	r.PUT("/authority/mode", h.SetMode)
	return r, svc
}

func TestAuthorityHandlerStatus(t *testing.T) {
	r, _ := newAuthorityRouter(config.AuthorityConfig{RemoteSessions: true})

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/authority/status", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["mode"] != "remote" {
		t.Fatalf("mode = %q, want remote", body["mode"])
	}
	if body["mode_header"] != "X-Authority-Mode" {
		t.Fatalf("mode_header = %q", body["mode_header"])
	}
}

func TestAuthorityHandlerSetMode(t *testing.T) {
	r, svc := newAuthorityRouter(config.AuthorityConfig{})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/authority/mode", strings.NewReader(`{"mode":"remote"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if got := string(svc.Mode()); got != "remote" {
		t.Fatalf("mode = %q after flip", got)
	}
}

func TestAuthorityHandlerSetModeRejectsUnknown(t *testing.T) {
	r, svc := newAuthorityRouter(config.AuthorityConfig{})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/authority/mode", strings.NewReader(`{"mode":"hybrid"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
	if got := string(svc.Mode()); got != "local" {
		t.Fatalf("mode = %q, must stay local", got)
	}
}

func TestAuthorityHandlerPingWithoutURL(t *testing.T) {
	r, _ := newAuthorityRouter(config.AuthorityConfig{})

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/authority/ping", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", recorder.Code)
	}
	if recorder.Header().Get("X-Authority-Error") == "" {
		t.Fatalf("expected error header")
	}
}

func TestAuthorityHandlerNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthorityHandler(nil)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/authority/status", nil)

	h.Status(c)
	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", recorder.Code)
	}
}

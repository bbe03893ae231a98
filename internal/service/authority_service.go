package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/pkg/config"
)

// AuthorityService coordinates the dual-authority migration flag. The mode
// starts from configuration and can be toggled at runtime; every consumer
// reads it through Resolver so a toggle is observed by the very next
// operation while in-flight operations finish in the mode they started in.
type AuthorityService struct {
	cfg     config.AuthorityConfig
	metrics *MetricsService
	client  *http.Client
	mode    atomic.Value // models.AuthorityMode
}

// NewAuthorityService constructs the service with the configured initial mode.
func NewAuthorityService(cfg config.AuthorityConfig, metrics *MetricsService) *AuthorityService {
	timeout := cfg.HealthCheckTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	s := &AuthorityService{
		cfg:     cfg,
		metrics: metrics,
		client:  &http.Client{Timeout: timeout},
	}
	mode := models.AuthorityLocal
	if cfg.RemoteSessions {
		mode = models.AuthorityRemote
	}
	s.mode.Store(mode)
	return s
}

// Mode returns the current authority mode.
func (s *AuthorityService) Mode() models.AuthorityMode {
	if s == nil {
		return models.AuthorityLocal
	}
	return s.mode.Load().(models.AuthorityMode)
}

// SetMode flips the migration flag at runtime.
func (s *AuthorityService) SetMode(mode models.AuthorityMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("unknown authority mode %q", mode)
	}
	s.mode.Store(mode)
	return nil
}

// Resolver returns the fresh-read function handed to the orchestrator and
// the feed subscriber.
func (s *AuthorityService) Resolver() models.AuthorityResolver {
	return s.Mode
}

// Headers returns the rollout observability header for responses.
func (s *AuthorityService) Headers() models.AuthorityHeaders {
	if s == nil {
		return models.AuthorityHeaders{}
	}
	header := s.cfg.ModeHeader
	if header == "" {
		header = "X-Authority-Mode"
	}
	return models.AuthorityHeaders{ModeHeader: header, Mode: s.Mode()}
}

// AuthorityPingResult describes the outcome of probing the remote
// authoritative subsystem.
type AuthorityPingResult struct {
	Reachable  bool                 `json:"reachable"`
	Mode       models.AuthorityMode `json:"mode"`
	StatusCode int                  `json:"status_code"`
	Duration   time.Duration        `json:"duration"`
	ObservedAt time.Time            `json:"observed_at"`
	Error      string               `json:"error,omitempty"`
}

// PingRemote probes the remote subsystem's health endpoint. Operators use it
// to verify the other side is alive before flipping the flag.
func (s *AuthorityService) PingRemote(ctx context.Context) (AuthorityPingResult, error) {
	result := AuthorityPingResult{
		Mode:       s.Mode(),
		ObservedAt: time.Now().UTC(),
	}

	if s.cfg.RemoteHealthURL == "" {
		err := errors.New("remote health URL not configured")
		result.Error = err.Error()
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.RemoteHealthURL, nil)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	duration := time.Since(start)
	result.Duration = duration

	statusCode := http.StatusServiceUnavailable
	if err != nil {
		result.Error = err.Error()
	} else {
		defer resp.Body.Close()
		statusCode = resp.StatusCode
		result.StatusCode = resp.StatusCode
		if resp.StatusCode >= http.StatusInternalServerError {
			result.Error = fmt.Sprintf("received status %d", resp.StatusCode)
			err = fmt.Errorf("remote health check failed: %s", result.Error)
		}
		result.Reachable = resp.StatusCode < http.StatusInternalServerError
	}

	if s.metrics != nil {
		s.metrics.ObserveHTTPRequest(http.MethodGet, "authority_remote_health", statusCode, duration)
	}

	return result, err
}

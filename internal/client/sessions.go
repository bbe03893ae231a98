package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// SessionClient is the HTTP implementation of the remote session API the
// local cache talks to. Responses carry snake_case rows inside the standard
// envelope; mapping to the internal shape happens here and nowhere else.
type SessionClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewSessionClient constructs a client for the given API root
// (e.g. "https://gateway.internal/api/v1").
func NewSessionClient(baseURL, token string, timeout time.Duration) *SessionClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SessionClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListSessions fetches the tenant's sessions.
func (c *SessionClient) ListSessions(ctx context.Context, institutionID string) ([]models.AgentSession, error) {
	url := fmt.Sprintf("%s/institutions/%s/agent-sessions", c.baseURL, institutionID)
	var rows []models.SessionRow
	if err := c.do(ctx, http.MethodGet, url, nil, &rows); err != nil {
		return nil, err
	}
	sessions := make([]models.AgentSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.Session())
	}
	return sessions, nil
}

// CreateSession starts a new session for the tenant.
func (c *SessionClient) CreateSession(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) (*models.AgentSession, error) {
	url := fmt.Sprintf("%s/institutions/%s/agent-sessions", c.baseURL, institutionID)
	body := map[string]string{
		"agent_type":   string(kind),
		"instructions": instructions,
	}
	var row models.SessionRow
	if err := c.do(ctx, http.MethodPost, url, body, &row); err != nil {
		return nil, err
	}
	session := row.Session()
	return &session, nil
}

func (c *SessionClient) do(ctx context.Context, method, url string, body, dest interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if env.Error != nil {
			return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}
	if dest != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// RemoteAPI is the slice of the session HTTP API the cache depends on.
type RemoteAPI interface {
	ListSessions(ctx context.Context, institutionID string) ([]models.AgentSession, error)
	CreateSession(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) (*models.AgentSession, error)
}

// SortOrder controls the CreatedAt ordering of the derived projection.
type SortOrder string

const (
	SortNewestFirst SortOrder = "newest_first"
	SortOldestFirst SortOrder = "oldest_first"
)

// StatusFilter selects sessions by lifecycle state. FilterAll passes
// everything through.
type StatusFilter string

// FilterAll disables status filtering.
const FilterAll StatusFilter = "all"

// SessionCache holds the working set of agent sessions for one tenant plus
// purely client-local UI state. The source behaviour relied on a
// single-threaded event loop to serialize access; here a mutex provides the
// same guarantee.
//
// All network failures are converted to a single stored error string;
// nothing escapes the component boundary.
type SessionCache struct {
	mu     sync.Mutex
	api    RemoteAPI
	logger *zap.Logger

	institutionID string
	sessions      []models.AgentSession // newest-first
	generation    uint64

	activeSessionID string
	statusFilter    StatusFilter
	sortOrder       SortOrder
	expanded        map[string]bool
	loading         bool
	lastError       string
}

// NewSessionCache constructs an empty cache bound to the remote API.
func NewSessionCache(api RemoteAPI, logger *zap.Logger) *SessionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionCache{
		api:          api,
		logger:       logger,
		statusFilter: FilterAll,
		sortOrder:    SortNewestFirst,
		expanded:     make(map[string]bool),
	}
}

// FetchAll replaces the cache wholesale from a remote read. On failure the
// prior contents are left untouched (stale-but-available) and the error is
// stored. A generation token fences responses that arrive after the tenant
// context has already moved on; such responses are discarded silently.
func (c *SessionCache) FetchAll(ctx context.Context, institutionID string) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.institutionID = institutionID
	c.loading = true
	c.lastError = ""
	c.mu.Unlock()

	sessions, err := c.api.ListSessions(ctx, institutionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding stale session list",
			zap.String("institution_id", institutionID))
		return
	}
	c.loading = false
	if err != nil {
		c.lastError = err.Error()
		return
	}
	c.sessions = append([]models.AgentSession(nil), sessions...)
}

// Create sends a creation request and, on success, prepends the new record
// and marks it active. A nil return means the session was not created; the
// reason is available through LastError.
func (c *SessionCache) Create(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) *models.AgentSession {
	session, err := c.api.CreateSession(ctx, institutionID, kind, instructions)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastError = err.Error()
		return nil
	}
	c.sessions = append([]models.AgentSession{*session}, c.sessions...)
	c.activeSessionID = session.ID
	c.lastError = ""
	copied := *session
	return &copied
}

// UpdateStatus merges a new lifecycle state into the record with the given
// id. Unknown ids are a no-op; such calls can legitimately race a deletion.
func (c *SessionCache) UpdateStatus(id string, status models.SessionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.sessions[i].Status = status
	}
}

// UpdateProgress merges progress counters into the record with the given id.
// Unknown ids are a no-op.
func (c *SessionCache) UpdateProgress(id string, processed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.sessions[i].ProcessedItems = processed
		c.sessions[i].TotalItems = total
	}
}

// Upsert replaces-or-inserts a record. New ids are inserted at the front;
// existing ids keep their position so a reconciliation update never reorders
// the list under a scrolling user.
func (c *SessionCache) Upsert(session models.AgentSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(session.ID); i >= 0 {
		c.sessions[i] = session
		return
	}
	c.sessions = append([]models.AgentSession{session}, c.sessions...)
}

// Remove deletes the record with the given id. Unknown ids are a no-op. The
// active selection is cleared when it pointed at the removed record.
func (c *SessionCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return
	}
	c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)
	delete(c.expanded, id)
	if c.activeSessionID == id {
		c.activeSessionID = ""
	}
}

// FilteredSorted returns the derived projection: status filter applied,
// then sorted by CreatedAt per the current sort order. It is recomputed from
// current state on every call and safe for callers to retain.
func (c *SessionCache) FilteredSorted() []models.AgentSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.AgentSession, 0, len(c.sessions))
	for _, s := range c.sessions {
		if c.statusFilter == FilterAll || string(s.Status) == string(c.statusFilter) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c.sortOrder == SortOldestFirst {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns a copy of the record with the given id.
func (c *SessionCache) Get(id string) (models.AgentSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.sessions[i], true
	}
	return models.AgentSession{}, false
}

// Len returns the number of cached records.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// SetActive records the active selection without touching session data. Used
// when the remote subsystem owns state and the local record has not arrived
// through the feed yet.
func (c *SessionCache) SetActive(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeSessionID = id
}

// ActiveSessionID returns the current selection, or "".
func (c *SessionCache) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSessionID
}

// ActiveSession returns the selected record when it is present locally.
func (c *SessionCache) ActiveSession() (models.AgentSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeSessionID == "" {
		return models.AgentSession{}, false
	}
	if i := c.indexOf(c.activeSessionID); i >= 0 {
		return c.sessions[i], true
	}
	return models.AgentSession{}, false
}

// SetStatusFilter updates the projection filter.
func (c *SessionCache) SetStatusFilter(filter StatusFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusFilter = filter
}

// SetSortOrder updates the projection ordering.
func (c *SessionCache) SetSortOrder(order SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortOrder = order
}

// ToggleExpanded flips the expanded/collapsed UI state for one session.
// UI preferences live apart from session data so removing the local-cache
// code path later does not touch them.
func (c *SessionCache) ToggleExpanded(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expanded[id] {
		delete(c.expanded, id)
		return
	}
	c.expanded[id] = true
}

// Expanded reports the expanded/collapsed UI state for one session.
func (c *SessionCache) Expanded(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded[id]
}

// Loading reports whether a FetchAll is outstanding.
func (c *SessionCache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the stored error string, or "".
func (c *SessionCache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// RecordError stores a human-readable failure for the UI to surface.
func (c *SessionCache) RecordError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = msg
}

// ClearError resets the stored error. Errors never expire on their own.
func (c *SessionCache) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
}

// Clear drops all session data and UI selection state and invalidates any
// in-flight FetchAll. Persisted UI preferences are dropped with it; they are
// tenant-scoped.
func (c *SessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.institutionID = ""
	c.sessions = nil
	c.activeSessionID = ""
	c.expanded = make(map[string]bool)
	c.loading = false
	c.lastError = ""
}

// InstitutionID returns the tenant the cache is currently bound to.
func (c *SessionCache) InstitutionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.institutionID
}

func (c *SessionCache) indexOf(id string) int {
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

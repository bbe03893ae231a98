package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/feed"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/store"
)

// SessionOrchestrator routes every session operation through the
// dual-authority switch: either the local session cache is mutated directly,
// or the call defers to the server-authoritative cache and performs only the
// UI-local bookkeeping a frontend depends on synchronously.
//
// The authority mode is read fresh at the top of each operation and held for
// its duration, so a runtime toggle is observed by the next call while
// in-flight operations complete in the mode they started in.
type SessionOrchestrator struct {
	cache      *store.SessionCache
	subscriber *feed.Subscriber
	api        store.RemoteAPI
	authority  models.AuthorityResolver
	logger     *zap.Logger

	// Under remote authority the record never lands in the cache (the other
	// subsystem owns it), but the active conversation's kind and status must
	// still be resolvable locally or the switch confirmation gate cannot
	// hold. The copy retained here is that bookkeeping.
	mu           sync.Mutex
	remoteActive *models.AgentSession
}

// NewSessionOrchestrator wires the switch over the cache, subscriber and
// remote API.
func NewSessionOrchestrator(cache *store.SessionCache, subscriber *feed.Subscriber, api store.RemoteAPI, authority models.AuthorityResolver, logger *zap.Logger) *SessionOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if authority == nil {
		authority = func() models.AuthorityMode { return models.AuthorityLocal }
	}
	return &SessionOrchestrator{
		cache:      cache,
		subscriber: subscriber,
		api:        api,
		authority:  authority,
		logger:     logger,
	}
}

// Cache exposes the underlying local cache for derived reads.
func (o *SessionOrchestrator) Cache() *store.SessionCache {
	return o.cache
}

// Mode returns the authority mode as of this call.
func (o *SessionOrchestrator) Mode() models.AuthorityMode {
	return o.authority()
}

// FetchAll loads the tenant's working set into the local cache. Under remote
// authority the external cache owns reads and the call is a local no-op.
func (o *SessionOrchestrator) FetchAll(ctx context.Context, institutionID string) {
	if o.authority() == models.AuthorityRemote {
		o.logger.Debug("fetch deferred to remote authority", zap.String("institution_id", institutionID))
		return
	}
	o.cache.FetchAll(ctx, institutionID)
}

// Create starts a new session. Under local authority the cache performs the
// full optimistic insert. Under remote authority the record is not written
// locally (the feed owned by the other subsystem will deliver it), but the
// active selection is still set synchronously so the UI never renders a
// frame without one.
func (o *SessionOrchestrator) Create(ctx context.Context, institutionID string, kind models.AgentKind, instructions string) *models.AgentSession {
	if o.authority() == models.AuthorityLocal {
		return o.cache.Create(ctx, institutionID, kind, instructions)
	}

	session, err := o.api.CreateSession(ctx, institutionID, kind, instructions)
	if err != nil {
		o.cache.RecordError(err.Error())
		return nil
	}
	o.cache.SetActive(session.ID)
	o.setRemoteActive(session)
	return session
}

// ActiveConversation resolves the currently active session in either
// authority mode: from the cache record when one is present, otherwise from
// the bookkeeping copy retained by remote-mode creation.
func (o *SessionOrchestrator) ActiveConversation() (models.AgentSession, bool) {
	if session, ok := o.cache.ActiveSession(); ok {
		return session, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.remoteActive != nil && o.cache.ActiveSessionID() == o.remoteActive.ID {
		return *o.remoteActive, true
	}
	return models.AgentSession{}, false
}

// UpdateStatus merges a lifecycle change into the local cache. Under remote
// authority the record change arrives through the other subsystem's feed;
// only the retained bookkeeping copy is touched.
func (o *SessionOrchestrator) UpdateStatus(id string, status models.SessionStatus) {
	if o.authority() == models.AuthorityRemote {
		o.mu.Lock()
		if o.remoteActive != nil && o.remoteActive.ID == id {
			o.remoteActive.Status = status
		}
		o.mu.Unlock()
		return
	}
	o.cache.UpdateStatus(id, status)
}

// UpdateProgress merges progress counters into the local cache. Under remote
// authority only the retained bookkeeping copy is touched.
func (o *SessionOrchestrator) UpdateProgress(id string, processed, total int) {
	if o.authority() == models.AuthorityRemote {
		o.mu.Lock()
		if o.remoteActive != nil && o.remoteActive.ID == id {
			o.remoteActive.ProcessedItems = processed
			o.remoteActive.TotalItems = total
		}
		o.mu.Unlock()
		return
	}
	o.cache.UpdateProgress(id, processed, total)
}

// AddSession inserts an externally produced record and selects it. Under
// remote authority only the selection is recorded.
func (o *SessionOrchestrator) AddSession(session models.AgentSession) {
	if o.authority() == models.AuthorityLocal {
		o.cache.Upsert(session)
	} else {
		o.setRemoteActive(&session)
	}
	o.cache.SetActive(session.ID)
}

// RemoveSession drops a record. Under remote authority only the selection is
// cleared when it pointed at the removed record.
func (o *SessionOrchestrator) RemoveSession(id string) {
	if o.authority() == models.AuthorityLocal {
		o.cache.Remove(id)
		return
	}
	if o.cache.ActiveSessionID() == id {
		o.cache.SetActive("")
	}
	o.mu.Lock()
	if o.remoteActive != nil && o.remoteActive.ID == id {
		o.remoteActive = nil
	}
	o.mu.Unlock()
}

// Subscribe opens the tenant's change-feed subscription. The subscriber
// consults the same resolver and no-ops under remote authority.
func (o *SessionOrchestrator) Subscribe(ctx context.Context, institutionID string) error {
	return o.subscriber.Subscribe(ctx, institutionID)
}

// Reset tears the subscriber down before clearing cache state, so no
// reconciliation callback can fire against an already-cleared cache.
func (o *SessionOrchestrator) Reset() {
	o.subscriber.Unsubscribe()
	o.cache.Clear()
	o.setRemoteActive(nil)
}

func (o *SessionOrchestrator) setRemoteActive(session *models.AgentSession) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if session == nil {
		o.remoteActive = nil
		return
	}
	copied := *session
	o.remoteActive = &copied
}

package feed

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// Reconciler is the narrow slice of the session cache the subscriber drives.
type Reconciler interface {
	Upsert(session models.AgentSession)
	Remove(id string)
}

// Stream is one live notification stream. Events delivers raw payloads in
// arrival order; the channel closes when the stream is torn down.
type Stream interface {
	Events() <-chan []byte
	Close() error
}

// Source opens notification streams. The Redis implementation is the
// production source; tests inject a fake.
type Source interface {
	Subscribe(ctx context.Context, channel string) (Stream, error)
}

// EventObserver receives one callback per applied notification.
type EventObserver interface {
	RecordFeedEvent(eventType string)
}

// Subscriber maintains at most one live change-feed subscription per tenant
// and translates each notification into a cache reconciliation call.
//
// Notifications are applied strictly in arrival order by a single goroutine.
// Reconciliation is last-write-wins per record; a stale retransmit can
// regress a field and this layer does not correct for it.
type Subscriber struct {
	source    Source
	cache     Reconciler
	prefix    string
	authority models.AuthorityResolver
	observer  EventObserver
	logger    *zap.Logger

	mu            sync.Mutex
	institutionID string
	stream        Stream
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewSubscriber constructs a subscriber. The resolver decides whether this
// process owns the subscription at all; observer may be nil.
func NewSubscriber(source Source, cache Reconciler, prefix string, authority models.AuthorityResolver, observer EventObserver, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if authority == nil {
		authority = func() models.AuthorityMode { return models.AuthorityLocal }
	}
	return &Subscriber{
		source:    source,
		cache:     cache,
		prefix:    prefix,
		authority: authority,
		observer:  observer,
		logger:    logger,
	}
}

// Subscribe opens the per-tenant subscription, tearing down any existing one
// first so that no duplicate delivery is possible. When the remote subsystem
// owns server state this is a no-op; the other subsystem is presumed to run
// its own subscription and a second one here would double-deliver.
func (s *Subscriber) Subscribe(ctx context.Context, institutionID string) error {
	if s.authority() == models.AuthorityRemote {
		s.logger.Debug("feed subscription skipped, remote authority",
			zap.String("institution_id", institutionID))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.source.Subscribe(ctx, ChannelFor(s.prefix, institutionID))
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	s.institutionID = institutionID
	s.stream = stream
	s.cancel = cancel
	s.done = done

	go s.consume(streamCtx, stream, done)

	s.logger.Info("feed subscription opened", zap.String("institution_id", institutionID))
	return nil
}

// Unsubscribe tears down the live subscription. Idempotent; safe to call
// when nothing is active.
func (s *Subscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
}

// InstitutionID returns the tenant of the live subscription, or "".
func (s *Subscriber) InstitutionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.institutionID
}

// teardownLocked releases the current stream and waits for its consumer to
// drain, guaranteeing no reconciliation callback fires after return.
func (s *Subscriber) teardownLocked() {
	if s.stream == nil {
		return
	}
	s.cancel()
	_ = s.stream.Close()
	<-s.done
	s.stream = nil
	s.cancel = nil
	s.done = nil
	s.institutionID = ""
}

func (s *Subscriber) consume(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-stream.Events():
			if !ok {
				return
			}
			s.apply(payload)
		}
	}
}

func (s *Subscriber) apply(payload []byte) {
	var event models.FeedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn("malformed feed event dropped", zap.Error(err))
		return
	}

	switch event.EventType {
	case models.FeedEventInsert, models.FeedEventUpdate:
		if event.New == nil {
			s.logger.Warn("feed event missing row", zap.String("event_type", string(event.EventType)))
			return
		}
		s.cache.Upsert(event.New.Session())
	case models.FeedEventDelete:
		if event.Old == nil || event.Old.ID == "" {
			s.logger.Warn("delete event missing row id")
			return
		}
		s.cache.Remove(event.Old.ID)
	default:
		s.logger.Warn("unknown feed event type", zap.String("event_type", string(event.EventType)))
		return
	}

	if s.observer != nil {
		s.observer.RecordFeedEvent(string(event.EventType))
	}
}

package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// ChannelFor returns the per-tenant change-feed channel name.
func ChannelFor(prefix, institutionID string) string {
	if prefix == "" {
		prefix = "feed:agent_sessions"
	}
	return fmt.Sprintf("%s:%s", prefix, institutionID)
}

// Publisher pushes row-level change notifications onto the per-tenant
// channel after every authoritative mutation.
type Publisher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewPublisher constructs a publisher. A nil client disables publication.
func NewPublisher(client *redis.Client, prefix string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, prefix: prefix, logger: logger}
}

// Insert publishes an INSERT notification carrying the full row.
func (p *Publisher) Insert(ctx context.Context, session models.AgentSession) {
	row := session.Row()
	p.publish(ctx, session.InstitutionID, models.FeedEvent{EventType: models.FeedEventInsert, New: &row})
}

// Update publishes an UPDATE notification carrying the full row.
func (p *Publisher) Update(ctx context.Context, session models.AgentSession) {
	row := session.Row()
	p.publish(ctx, session.InstitutionID, models.FeedEvent{EventType: models.FeedEventUpdate, New: &row})
}

// Delete publishes a DELETE notification carrying only the row identifier.
func (p *Publisher) Delete(ctx context.Context, institutionID, sessionID string) {
	p.publish(ctx, institutionID, models.FeedEvent{EventType: models.FeedEventDelete, Old: &models.FeedRowRef{ID: sessionID}})
}

func (p *Publisher) publish(ctx context.Context, institutionID string, event models.FeedEvent) {
	if p == nil || p.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal feed event", zap.Error(err))
		return
	}
	channel := ChannelFor(p.prefix, institutionID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Warn("publish feed event failed",
			zap.String("channel", channel),
			zap.String("event_type", string(event.EventType)),
			zap.Error(err))
	}
}

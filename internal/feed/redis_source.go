package feed

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisSource adapts Redis pub/sub to the Source interface.
type RedisSource struct {
	client *redis.Client
	buffer int
}

// NewRedisSource constructs a source over the given client.
func NewRedisSource(client *redis.Client, buffer int) *RedisSource {
	if buffer <= 0 {
		buffer = 64
	}
	return &RedisSource{client: client, buffer: buffer}
}

// Subscribe opens a single-channel subscription and confirms it before
// returning, so callers never race the broker handshake.
func (s *RedisSource) Subscribe(ctx context.Context, channel string) (Stream, error) {
	pubsub := s.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	stream := &redisStream{
		pubsub: pubsub,
		events: make(chan []byte, s.buffer),
		done:   make(chan struct{}),
	}
	go stream.forward()

	return stream, nil
}

type redisStream struct {
	pubsub *redis.PubSub
	events chan []byte
	done   chan struct{}
	once   sync.Once
}

// forward copies pub/sub payloads onto the buffered events channel until the
// subscription or the stream closes.
func (s *redisStream) forward() {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		if !s.send([]byte(msg.Payload)) {
			return
		}
	}
}

// send races the delivery against teardown so Close never leaves the
// forwarding goroutine blocked on a full buffer with no consumer left.
func (s *redisStream) send(payload []byte) bool {
	select {
	case s.events <- payload:
		return true
	case <-s.done:
		return false
	}
}

func (s *redisStream) Events() <-chan []byte { return s.events }

func (s *redisStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

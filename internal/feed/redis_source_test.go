package feed

import (
	"testing"
	"time"
)

func TestRedisSourceDefaultBuffer(t *testing.T) {
	s := NewRedisSource(nil, 0)
	if s.buffer != 64 {
		t.Fatalf("buffer = %d, want default 64", s.buffer)
	}
	s = NewRedisSource(nil, 8)
	if s.buffer != 8 {
		t.Fatalf("buffer = %d, want 8", s.buffer)
	}
}

func TestRedisStreamSendUnblocksOnClose(t *testing.T) {
	s := &redisStream{events: make(chan []byte, 1), done: make(chan struct{})}

	if !s.send([]byte("a")) {
		t.Fatalf("send into a free buffer must succeed")
	}

	result := make(chan bool, 1)
	go func() { result <- s.send([]byte("b")) }()

	// Buffer full, no consumer: the send must stay parked, not drop.
	select {
	case <-result:
		t.Fatalf("send returned with a full buffer and no consumer")
	case <-time.After(50 * time.Millisecond):
	}

	s.once.Do(func() { close(s.done) })

	select {
	case delivered := <-result:
		if delivered {
			t.Fatalf("send after teardown must report failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send must unblock when the stream closes")
	}
}

package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
}

func (s *recordingSink) Log(_ context.Context, ev Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	sink := &recordingSink{err: errors.New("ignored")}
	d := NewDispatcher(sink, zerolog.Nop())

	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: "appointment_created", Entity: "appointment"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.Equal(t, 10, sink.count())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, zerolog.Nop())

	for i := 0; i < 150; i++ {
		d.Dispatch(Event{Action: "x"})
	}
	close(sink.block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	// the worker may hold one event while the buffer fills
	assert.LessOrEqual(t, sink.count(), 101)
	assert.GreaterOrEqual(t, sink.count(), 100)
}

package events

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/logic"
)

var (
	// ErrQueueFull is returned when an event is dropped because the queue is full.
	ErrQueueFull = errors.New("event queue full")
	// ErrQueueClosed is returned when publishing after Close.
	ErrQueueClosed = errors.New("event queue closed")
)

// DefaultQueueSize is enough for several minutes of round events.
const DefaultQueueSize = 256

type queued struct {
	event  *logic.Event
	system *SystemEvent
}

// Queue fans events out to a set of publishers from a single worker
// goroutine. Enqueueing never blocks; when the queue is full the event is
// dropped and counted.
//
// Queue implements Publisher, so it can stand in for the publishers it wraps.
type Queue struct {
	pubs []Publisher
	ch   chan queued
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped atomic.Int64
}

// NewQueue starts the worker. A size below 1 uses DefaultQueueSize.
func NewQueue(size int, pubs ...Publisher) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	q := &Queue{
		pubs: pubs,
		ch:   make(chan queued, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Publish enqueues a timer event.
func (q *Queue) Publish(event logic.Event) error {
	return q.enqueue(queued{event: &event})
}

// PublishSystem enqueues a system event.
func (q *Queue) PublishSystem(event SystemEvent) error {
	return q.enqueue(queued{system: &event})
}

// Dropped returns how many events were discarded because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Close delivers everything already queued, then closes every publisher.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done

	var errs []error
	for _, p := range q.pubs {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) enqueue(item queued) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		if q.dropped.Add(1) == 1 {
			log.Warn().Int("capacity", cap(q.ch)).Msg("event queue full, dropping events")
		}
		return ErrQueueFull
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for item := range q.ch {
		for _, p := range q.pubs {
			if err := deliver(p, item); err != nil {
				log.Error().Err(err).Msg("publish failed")
			}
		}
	}
}

func deliver(p Publisher, item queued) error {
	if item.event != nil {
		if err := p.Publish(*item.event); err != nil {
			return fmt.Errorf("event %s: %w", item.event.Type, err)
		}
		return nil
	}
	if err := p.PublishSystem(*item.system); err != nil {
		return fmt.Errorf("system %s: %w", item.system.Event, err)
	}
	return nil
}

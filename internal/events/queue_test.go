package events

import (
	"errors"
	"slices"
	"testing"

	"github.com/sweeney/emom-timer/internal/logic"
)

// blockingPublisher holds every delivery until release is closed.
type blockingPublisher struct {
	*FakePublisher
	entered chan struct{}
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		FakePublisher: NewFakePublisher(),
		entered:       make(chan struct{}, 16),
		release:       make(chan struct{}),
	}
}

func (b *blockingPublisher) Publish(event logic.Event) error {
	b.entered <- struct{}{}
	<-b.release
	return b.FakePublisher.Publish(event)
}

func TestQueueFansOutInOrder(t *testing.T) {
	a := NewFakePublisher()
	b := NewFakePublisher()
	q := NewQueue(16, a, b)

	q.Publish(logic.Event{Type: logic.EventStarted})
	q.Publish(logic.Event{Type: logic.EventRoundStart})
	q.PublishSystem(SystemEvent{Event: SystemHeartbeat})
	q.Publish(logic.Event{Type: logic.EventStopped})

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := []logic.EventType{logic.EventStarted, logic.EventRoundStart, logic.EventStopped}
	for name, p := range map[string]*FakePublisher{"a": a, "b": b} {
		if got := p.EventTypes(); !slices.Equal(got, want) {
			t.Errorf("%s events: got %v, want %v", name, got, want)
		}
		if got := p.SystemEventNames(); !slices.Equal(got, []string{SystemHeartbeat}) {
			t.Errorf("%s system events: got %v", name, got)
		}
		if !p.Closed {
			t.Errorf("%s: publisher not closed", name)
		}
	}
}

func TestQueuePublisherErrorDoesNotStopOthers(t *testing.T) {
	failing := NewFakePublisher()
	failing.PublishError = errors.New("broker down")
	ok := NewFakePublisher()
	q := NewQueue(4, failing, ok)

	q.Publish(logic.Event{Type: logic.EventFinished})
	q.Close()

	if got := ok.EventTypes(); !slices.Equal(got, []logic.EventType{logic.EventFinished}) {
		t.Errorf("got %v, want [FINISHED]", got)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	slow := newBlockingPublisher()
	q := NewQueue(1, slow)

	// First event is taken by the worker and blocks there.
	if err := q.Publish(logic.Event{Type: logic.EventStarted}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	<-slow.entered

	// Second fills the buffer, third is dropped.
	if err := q.Publish(logic.Event{Type: logic.EventRoundStart}); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if err := q.Publish(logic.Event{Type: logic.EventStopped}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third publish: got %v, want ErrQueueFull", err)
	}
	if q.Dropped() != 1 {
		t.Errorf("dropped: got %d, want 1", q.Dropped())
	}

	close(slow.release)
	q.Close()

	want := []logic.EventType{logic.EventStarted, logic.EventRoundStart}
	if got := slow.EventTypes(); !slices.Equal(got, want) {
		t.Errorf("delivered: got %v, want %v", got, want)
	}
}

func TestQueuePublishAfterClose(t *testing.T) {
	q := NewQueue(4)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Publish(logic.Event{Type: logic.EventStarted}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("got %v, want ErrQueueClosed", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

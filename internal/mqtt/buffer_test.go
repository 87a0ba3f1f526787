package mqtt

import (
	"testing"
)

func pushN(b *backlog, from, n int) {
	for i := from; i < from+n; i++ {
		b.push(pendingMsg{topic: Topic, payload: []byte{byte(i)}})
	}
}

func payloads(msgs []pendingMsg) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestBacklogEmptyDrain(t *testing.T) {
	b := newBacklog(10)
	if got := b.drainAll(); got != nil {
		t.Errorf("drain: got %d messages, want none", len(got))
	}
}

func TestBacklogDrainOrder(t *testing.T) {
	tests := []struct {
		name   string
		limit  int
		pushed int
		want   []byte
	}{
		{"partial", 10, 5, []byte{0, 1, 2, 3, 4}},
		{"exactly full", 4, 4, []byte{0, 1, 2, 3}},
		{"overflow keeps newest", 5, 8, []byte{3, 4, 5, 6, 7}},
		{"single slot", 1, 3, []byte{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBacklog(tt.limit)
			pushN(b, 0, tt.pushed)
			if got := payloads(b.drainAll()); string(got) != string(tt.want) {
				t.Errorf("payloads: got %v, want %v", got, tt.want)
			}
			if got := b.drainAll(); got != nil {
				t.Errorf("second drain: got %d messages, want none", len(got))
			}
		})
	}
}

func TestBacklogDropCountResetsOnDrain(t *testing.T) {
	b := newBacklog(2)
	pushN(b, 0, 5)
	if b.len() != 2 {
		t.Errorf("len: got %d, want 2", b.len())
	}
	if b.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", b.dropped)
	}

	b.drainAll()
	if b.len() != 0 || b.dropped != 0 {
		t.Errorf("after drain: len=%d dropped=%d", b.len(), b.dropped)
	}

	pushN(b, 10, 1)
	if got := payloads(b.drainAll()); len(got) != 1 || got[0] != 10 {
		t.Errorf("reuse: got %v, want [10]", got)
	}
}

func TestBacklogZeroLimitDropsEverything(t *testing.T) {
	b := newBacklog(0)
	pushN(b, 0, 3)
	if b.len() != 0 || b.dropped != 3 {
		t.Errorf("got len=%d dropped=%d, want 0 and 3", b.len(), b.dropped)
	}
}

func TestBacklogRetainedKeepsLatestPerTopic(t *testing.T) {
	b := newBacklog(10)
	b.push(pendingMsg{topic: TopicSystem, payload: []byte("startup"), qos: 1, retained: true})
	b.push(pendingMsg{topic: Topic, payload: []byte("round")})
	b.push(pendingMsg{topic: TopicSystem, payload: []byte("heartbeat-1"), qos: 1, retained: true})
	b.push(pendingMsg{topic: TopicSystem, payload: []byte("heartbeat-2"), qos: 1, retained: true})

	got := b.drainAll()
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if string(got[0].payload) != "round" {
		t.Errorf("first: got %s, want round", got[0].payload)
	}
	if got[1].topic != TopicSystem || string(got[1].payload) != "heartbeat-2" {
		t.Errorf("second: got %s %s, want %s heartbeat-2", got[1].topic, got[1].payload, TopicSystem)
	}
	if got[1].qos != 1 || !got[1].retained {
		t.Errorf("qos/retained: got %d/%v, want 1/true", got[1].qos, got[1].retained)
	}
}

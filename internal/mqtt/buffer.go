package mqtt

import "github.com/rs/zerolog/log"

// pendingMsg is a serialized message waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog holds messages while disconnected, oldest first. When full the
// oldest message is dropped. A retained message replaces an earlier retained
// message on the same topic, since the broker would only keep the last one.
// Not safe for concurrent use.
type backlog struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newBacklog(limit int) *backlog {
	return &backlog{limit: limit}
}

func (b *backlog) push(msg pendingMsg) {
	if msg.retained {
		for i, m := range b.msgs {
			if m.retained && m.topic == msg.topic {
				b.msgs = append(b.msgs[:i], b.msgs[i+1:]...)
				break
			}
		}
	}
	if b.limit <= 0 {
		b.dropped++
		return
	}
	if len(b.msgs) >= b.limit {
		if b.dropped == 0 {
			log.Warn().Int("limit", b.limit).Msg("mqtt backlog full, dropping oldest")
		}
		n := copy(b.msgs, b.msgs[1:])
		b.msgs = b.msgs[:n]
		b.dropped++
	}
	b.msgs = append(b.msgs, msg)
}

// drainAll empties the backlog and returns its messages oldest first.
func (b *backlog) drainAll() []pendingMsg {
	if b.dropped > 0 {
		log.Warn().Int("dropped", b.dropped).Msg("mqtt backlog overflowed while disconnected")
		b.dropped = 0
	}
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	return out
}

func (b *backlog) len() int {
	return len(b.msgs)
}

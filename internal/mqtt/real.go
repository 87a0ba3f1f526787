package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/emom-timer/internal/events"
	"github.com/sweeney/emom-timer/internal/logic"
)

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed, oldest first, when it
// comes back.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	connected bool
	backlog   *backlog
}

// NewRealPublisher starts connecting to the broker in the background and
// returns immediately. A retained OFFLINE message is registered as the will.
func NewRealPublisher(opts Options) *RealPublisher {
	opts = opts.withDefaults()
	p := newPublisher(nil, opts.BufferSize)

	will, _ := events.FormatSystemPayload(events.SystemEvent{
		Timestamp: time.Now(),
		Event:     events.SystemOffline,
	})

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(clientOpts)
	p.client.Connect()

	log.Info().Str("broker", opts.Broker).Str("client_id", opts.ClientID).Msg("mqtt connecting")
	return p
}

// newPublisher wraps client, which may be set later. Connection changes
// arrive through onConnect and onConnectionLost.
func newPublisher(client paho.Client, bufferSize int) *RealPublisher {
	return &RealPublisher{
		client:  client,
		backlog: newBacklog(bufferSize),
	}
}

// Publish sends a timer event (QoS 0, not retained).
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := events.FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(pendingMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event events.SystemEvent) error {
	payload, err := events.FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backlog.len()
}

// Close disconnects from the broker. Buffered messages are discarded.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if n := p.backlog.len(); n > 0 {
		log.Warn().Int("messages", n).Msg("mqtt closing with undelivered messages")
	}
	p.connected = false
	p.mu.Unlock()

	p.client.Disconnect(1000)
	return nil
}

func (p *RealPublisher) publish(msg pendingMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		p.backlog.push(msg)
		return nil
	}
	if err := p.send(msg); err != nil {
		p.backlog.push(msg)
		return err
	}
	return nil
}

// send must be called with p.mu held.
func (p *RealPublisher) send(msg pendingMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

func (p *RealPublisher) onConnect(paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connected = true
	pending := p.backlog.drainAll()
	log.Info().Int("replayed", len(pending)).Msg("mqtt connected")

	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			log.Error().Err(err).Msg("mqtt replay failed")
			for _, rest := range pending[i:] {
				p.backlog.push(rest)
			}
			return
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Warn().Err(err).Msg("mqtt connection lost")
}

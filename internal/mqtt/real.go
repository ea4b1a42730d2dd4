package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/lift-controller/internal/logic"
)

// outboxLimit bounds how many messages are held while disconnected.
const outboxLimit = 100

// RealPublisher publishes to an actual MQTT broker.
// Messages published while disconnected are held in an outbox and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string

	mu     sync.Mutex
	outbox *outbox
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background; it does not block startup.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{
		topic:  Topic,
		outbox: newOutbox(outboxLimit),
	}

	will, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "connection lost"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			p.replay(c)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()

	return p, nil
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends a command event to the MQTT broker. It does not wait for the
// broker so a slow network cannot stall relay control.
func (p *RealPublisher) Publish(event logic.CommandEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	token, sent := p.send(pendingMsg{topic: p.topic, payload: payload})
	if !sent {
		return nil
	}
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: publish timeout")
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish: %v", err)
		}
	}()
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	token, sent := p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	if !sent {
		return nil
	}
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// send hands msg to the client when connected and holds it otherwise. The
// check and the hand-off happen under p.mu, which replay holds while draining.
func (p *RealPublisher) send(msg pendingMsg) (paho.Token, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.client.IsConnectionOpen() {
		p.outbox.add(msg)
		return nil, false
	}
	return p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload), true
}

// replay publishes everything held while disconnected, oldest first. It runs
// from the connect handler, after the client reports the connection open.
func (p *RealPublisher) replay(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.outbox.take()
	tokens := make([]paho.Token, len(msgs))
	for i, m := range msgs {
		tokens[i] = c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	p.mu.Unlock()

	log.Printf("mqtt: connected, replayed %d held messages (%d dropped)", len(msgs), dropped)
	for i, token := range tokens {
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", msgs[i].topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay %s: %v", msgs[i].topic, err)
		}
	}
}

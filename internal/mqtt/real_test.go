package mqtt

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/lift-controller/internal/logic"
)

// doneToken is a paho.Token that has already completed.
type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// stubClient records publishes and reports whatever connection state it is
// given. Methods the publisher never calls are left to the nil embedded Client.
type stubClient struct {
	paho.Client
	open atomic.Bool

	mu        sync.Mutex
	published []pendingMsg
}

func (c *stubClient) IsConnectionOpen() bool { return c.open.Load() }

func (c *stubClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	c.published = append(c.published, pendingMsg{topic: topic, payload: payload.([]byte), qos: qos, retained: retained})
	c.mu.Unlock()
	return doneToken{}
}

func (c *stubClient) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.published))
	for i, m := range c.published {
		out[i] = m.topic
	}
	return out
}

func newStubPublisher() (*RealPublisher, *stubClient) {
	c := &stubClient{}
	return &RealPublisher{client: c, topic: Topic, outbox: newOutbox(outboxLimit)}, c
}

func TestRealPublisherReplaysHeldBeforeLive(t *testing.T) {
	p, c := newStubPublisher()

	if err := p.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("PublishSystem offline: %v", err)
	}
	if err := p.Publish(logic.CommandEvent{Command: logic.DirectionUp}); err != nil {
		t.Fatalf("Publish offline: %v", err)
	}
	if n := len(c.topics()); n != 0 {
		t.Fatalf("published while offline: %d", n)
	}

	c.open.Store(true)
	p.replay(c)
	if err := p.Publish(logic.CommandEvent{Command: logic.DirectionStop}); err != nil {
		t.Fatalf("Publish online: %v", err)
	}

	want := []string{TopicSystem, Topic, Topic}
	got := c.topics()
	if len(got) != len(want) {
		t.Fatalf("published: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("published[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
	if !c.published[0].retained || c.published[0].qos != 1 {
		t.Errorf("replayed STARTUP lost its flags: %+v", c.published[0])
	}
	if n := p.outbox.len(); n != 0 {
		t.Errorf("outbox after replay: got %d, want 0", n)
	}
}

func TestRealPublisherReconnectLeavesNothingHeld(t *testing.T) {
	const n = 50
	p, c := newStubPublisher()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			p.Publish(logic.CommandEvent{Command: logic.DirectionDown})
		}()
	}

	close(start)
	// The connect handler runs only after the client reports the connection open.
	c.open.Store(true)
	p.replay(c)
	wg.Wait()

	p.mu.Lock()
	held := p.outbox.len()
	p.mu.Unlock()
	if held != 0 {
		t.Errorf("held after reconnect: got %d, want 0", held)
	}
	if got := len(c.topics()); got != n {
		t.Errorf("published: got %d, want %d", got, n)
	}
}

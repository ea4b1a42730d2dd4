package mqtt

// pendingMsg is a serialized MQTT message held until the broker is reachable.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while the broker is unreachable.
//
// A retained message supersedes any queued retained message on the same topic,
// since the broker would only keep the last one. Otherwise the outbox is a
// bounded FIFO that drops its oldest entry when full.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type outbox struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: limit}
}

func (o *outbox) add(m pendingMsg) {
	if m.retained {
		for i := range o.msgs {
			if o.msgs[i].retained && o.msgs[i].topic == m.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}
	if len(o.msgs) == o.limit {
		o.msgs = o.msgs[1:]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// take empties the outbox, returning its messages oldest first and how many
// were dropped for lack of room since the last take.
func (o *outbox) take() ([]pendingMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs, o.dropped = nil, 0
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}

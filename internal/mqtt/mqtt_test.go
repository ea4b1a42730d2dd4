package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/lift-controller/internal/logic"
	"github.com/sweeney/lift-controller/internal/status"
)

func testEvent(d logic.Direction) logic.CommandEvent {
	return logic.CommandEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Command:   d,
		State:     logic.Apply(logic.InitialState(), d, logic.LimitState{Top: d == logic.DirectionUp}),
		Counts:    logic.CommandCounts{Up: 1},
	}
}

func TestFormatPayload(t *testing.T) {
	payload, err := FormatPayload(testEvent(logic.DirectionUp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Lift.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Lift.Timestamp)
	}
	if parsed.Lift.Command != "up" {
		t.Errorf("unexpected command: %s", parsed.Lift.Command)
	}
	if parsed.Lift.Relay != (status.RelayJSON{Up: true}) {
		t.Errorf("unexpected relay: %+v", parsed.Lift.Relay)
	}
	if !parsed.Lift.Limit.Top || parsed.Lift.Limit.Bottom {
		t.Errorf("unexpected limit: %+v", parsed.Lift.Limit)
	}
	if parsed.Lift.Counts.Up != 1 {
		t.Errorf("unexpected counts: %+v", parsed.Lift.Counts)
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	payload, err := FormatPayload(testEvent(logic.DirectionDown))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"lift":{"timestamp":"2026-02-02T22:18:12Z","command":"down",` +
		`"relay":{"up":false,"stop":false,"down":true},"limit":{"top":false,"bottom":false},` +
		`"command_counts":{"up":1,"stop":0,"down":0,"unknown":0}}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ev := testEvent(logic.DirectionStop)
	ev.Timestamp = time.Date(2026, 2, 3, 12, 0, 0, 0, loc)

	payload, _ := FormatPayload(ev)

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Lift.Timestamp != "2026-02-03T10:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Lift.Timestamp)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish(testEvent(logic.DirectionUp)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Command != logic.DirectionUp {
		t.Errorf("unexpected command: %s", f.Events[0].Command)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(testEvent(logic.DirectionUp)); err == nil {
		t.Error("expected error")
	}

	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherClose(t *testing.T) {
	f := NewFakePublisher()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(testEvent(logic.DirectionUp))
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true
	f.PublishError = errors.New("error")

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 {
		t.Error("events should be cleared")
	}
	if len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("system events should be cleared")
	}
	if f.Closed {
		t.Error("closed should be reset")
	}
	if f.Connected {
		t.Error("connected should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
}

func TestFakePublisherSnapshots(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(testEvent(logic.DirectionUp))
	f.PublishSystem(SystemEvent{Event: "STARTUP"})

	events := f.EventsSnapshot()
	f.Publish(testEvent(logic.DirectionDown))

	if len(events) != 1 {
		t.Errorf("snapshot should be a copy, got %d events", len(events))
	}
	if got := f.SystemEventsSnapshot(); len(got) != 1 || got[0].Event != "STARTUP" {
		t.Errorf("SystemEventsSnapshot: got %+v", got)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "home/lift/controller/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "home/lift/controller/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "connection lost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"event":"OFFLINE","reason":"connection lost"}}`
	if string(payload) != expected {
		t.Errorf("unexpected will payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFakePublisherRecordsRetainedFlag(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "SHUTDOWN", Retained: false})

	if !f.SystemEvents[0].Retained {
		t.Error("STARTUP should be retained")
	}
	if f.SystemEvents[1].Retained {
		t.Error("SHUTDOWN should not be retained")
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("broker down")

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Errorf("expected no system events on error, got %d", len(f.SystemEvents))
	}
}

func TestObserverPublishes(t *testing.T) {
	f := NewFakePublisher()
	o := Observer{Publisher: f}

	o.CommandApplied(testEvent(logic.DirectionStop))

	if len(f.Events) != 1 || f.Events[0].Command != logic.DirectionStop {
		t.Errorf("expected stop event, got %+v", f.Events)
	}
}

func TestObserverSwallowsErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	// Must not panic or propagate.
	Observer{Publisher: f}.CommandApplied(testEvent(logic.DirectionUp))

	if len(f.Events) != 0 {
		t.Errorf("expected no events, got %d", len(f.Events))
	}
}

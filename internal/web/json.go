package web

import (
	"encoding/json"
	"fmt"

	"github.com/sweeney/lift-controller/internal/controller"
	"github.com/sweeney/lift-controller/internal/status"
)

// Envelope is one frame on the realtime channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CommandPayload is the data of a client "command" event. Action is kept raw
// so that non-string actions can be reported verbatim.
type CommandPayload struct {
	Action json.RawMessage `json:"action"`
}

// encodeMessage renders a controller message as an Envelope.
func encodeMessage(msg controller.Message) ([]byte, error) {
	var data any
	switch msg.Event {
	case controller.EventStatus:
		data = status.FormatLift(msg.State)
	case controller.EventLog:
		data = msg.Text
	default:
		return nil, fmt.Errorf("unsupported event %q", msg.Event)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: string(msg.Event), Data: raw})
}

// decodeCommand extracts the action from a command payload. If the action is
// a JSON string it is returned as text with isString=true; otherwise raw holds
// the JSON as sent (nil if absent or null).
func decodeCommand(data json.RawMessage) (text string, raw json.RawMessage, isString bool, err error) {
	var p CommandPayload
	if len(data) == 0 {
		return "", nil, false, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return "", nil, false, fmt.Errorf("invalid command payload: %w", err)
	}
	if len(p.Action) > 0 && p.Action[0] == '"' {
		if err := json.Unmarshal(p.Action, &text); err != nil {
			return "", nil, false, fmt.Errorf("invalid action: %w", err)
		}
		return text, nil, true, nil
	}
	if string(p.Action) == "null" {
		return "", nil, false, nil
	}
	return "", p.Action, false, nil
}

package relay

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event names crossing the websocket boundary. Every frame is an Envelope;
// unrecognized names are rejected at the boundary instead of being passed
// through.
const (
	// client -> server
	EventWebMessage = "webmsg"

	// server -> client
	EventDiscordMessage = "discordmsg"
	EventError          = "error"
	EventNewProject     = "new_project"
	EventProjectUpdate  = "project_update"
	EventNewBid         = "new_bid"
)

// Envelope is the wire shape of every websocket frame, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WebMessagePayload is the client->server chat payload.
type WebMessagePayload struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

// DiscordMessagePayload is the translated shape of a channel message
// broadcast to web clients.
type DiscordMessagePayload struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Avatar    string `json:"avatar,omitempty"`
}

// ErrorPayload is delivered to a single session when its own request failed.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodeClientFrame parses and validates one inbound client frame. Only
// webmsg is accepted from clients; the schema is checked here so nothing
// malformed ever reaches the gateway.
func DecodeClientFrame(raw []byte) (*WebMessagePayload, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid message frame: %w", err)
	}

	switch env.Event {
	case EventWebMessage:
		var payload WebMessagePayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("invalid webmsg payload: %w", err)
		}
		if strings.TrimSpace(payload.Message) == "" {
			return nil, fmt.Errorf("webmsg requires a non-empty message field")
		}
		return &payload, nil
	case "":
		return nil, fmt.Errorf("missing event name")
	default:
		return nil, fmt.Errorf("unknown event name: %s", env.Event)
	}
}

// FormatOutbound renders the text sent to the external channel. A present
// display name is prefixed in bold, otherwise the raw text passes through.
func FormatOutbound(p *WebMessagePayload) string {
	if p.Username != "" {
		return fmt.Sprintf("**%s**: %s", p.Username, p.Message)
	}
	return p.Message
}

// encodeFrame marshals an outbound envelope. Payload types here are all
// marshal-safe; an error still short-circuits rather than sending a broken
// frame.
func encodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

package relay

import "time"

// ChatMessage represents one message observed in the external chat channel.
type ChatMessage struct {
	ExternalID string
	ChannelID  string
	AuthorName string
	AuthorBot  bool
	Content    string
	CreatedAt  time.Time
	AvatarURL  string
}

// MessageBus decouples the channel gateway from the relay service: the
// gateway produces, the service consumes.
type MessageBus struct {
	Inbound chan ChatMessage
}

// NewMessageBus creates a message bus with a buffered inbound channel.
func NewMessageBus(bufferSize int) *MessageBus {
	return &MessageBus{
		Inbound: make(chan ChatMessage, bufferSize),
	}
}

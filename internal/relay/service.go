package relay

import (
	"context"

	"github.com/radarjoki/backend/pkg/logger"
)

// ChannelSender is the outbound half of the external chat channel: one
// attempt, no retry, failures reported uniformly as an error.
type ChannelSender interface {
	SendText(ctx context.Context, channelID, text string) error
}

// Broadcaster is the sole write path domain producers get into the realtime
// layer. They never touch the Registry directly.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Service couples the bound external channel to the set of connected web
// sessions. It is stateless between events: the only state is the registry's
// live session set and the bound channel id, both fixed for process lifetime.
type Service struct {
	registry  *Registry
	sender    ChannelSender
	bus       *MessageBus
	channelID string
	logger    *logger.Logger
}

// NewService wires the relay once at startup. The service handle is passed
// explicitly into every producer that needs Broadcast.
func NewService(registry *Registry, sender ChannelSender, bus *MessageBus, channelID string, log *logger.Logger) *Service {
	return &Service{
		registry:  registry,
		sender:    sender,
		bus:       bus,
		channelID: channelID,
		logger:    log.WithComponent("relay"),
	}
}

// Registry exposes the session registry to the websocket transport.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Run consumes inbound channel messages until ctx is cancelled. Each message
// is handled independently; there is no cross-message state.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("relay running", "channel", s.channelID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.bus.Inbound:
			s.HandleChannelMessage(msg)
		}
	}
}

// HandleClientMessage processes one raw frame from a web session: validate,
// format, send to the external channel. Failures of any kind are answered to
// the originating session only, never broadcast and never escalated.
func (s *Service) HandleClientMessage(ctx context.Context, sessionID string, raw []byte) {
	payload, err := DecodeClientFrame(raw)
	if err != nil {
		s.logger.Debug("rejected client frame", "session", sessionID, "error", err)
		s.registry.SendToOne(sessionID, EventError, ErrorPayload{Message: err.Error()})
		return
	}

	text := FormatOutbound(payload)
	if err := s.sender.SendText(ctx, s.channelID, text); err != nil {
		s.logger.Warn("channel send failed", "session", sessionID, "error", err)
		s.registry.SendToOne(sessionID, EventError, ErrorPayload{Message: "failed to deliver message: " + err.Error()})
		return
	}
}

// HandleChannelMessage translates one external channel message into a
// discordmsg broadcast. Bot-authored messages are discarded to prevent the
// relay's own sends from echoing back; messages from any other channel are
// discarded because the relay is bound to exactly one.
func (s *Service) HandleChannelMessage(msg ChatMessage) {
	if msg.AuthorBot {
		return
	}
	if msg.ChannelID != s.channelID {
		return
	}

	s.registry.BroadcastAll(EventDiscordMessage, DiscordMessagePayload{
		ID:        msg.ExternalID,
		User:      msg.AuthorName,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Avatar:    msg.AvatarURL,
	})
}

// Broadcast fans a named event out to every connected session, best-effort.
func (s *Service) Broadcast(event string, data any) {
	s.registry.BroadcastAll(event, data)
}

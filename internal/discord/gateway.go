// Package discord wraps the external chat platform behind the two
// primitives the relay needs: send text to the bound channel, and surface
// channel messages as a stream.
package discord

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/radarjoki/backend/internal/config"
	"github.com/radarjoki/backend/internal/relay"
	"github.com/radarjoki/backend/pkg/logger"
)

// maxMessageLen is the platform's hard limit per message.
const maxMessageLen = 2000

// Gateway owns the bot session bound to a single channel.
type Gateway struct {
	session     *discordgo.Session
	bus         *relay.MessageBus
	config      config.DiscordConfig
	logger      *logger.Logger
	sendTimeout time.Duration
	botUserID   string
}

// NewGateway creates the gateway. The session is not opened until Start.
func NewGateway(bus *relay.MessageBus, cfg config.DiscordConfig, log *logger.Logger) (*Gateway, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	g := &Gateway{
		session:     dg,
		bus:         bus,
		config:      cfg,
		logger:      log.WithComponent("discord"),
		sendTimeout: cfg.SendTimeoutDuration(),
	}

	dg.AddHandler(g.handleReady)
	dg.AddHandler(g.handleMessageCreate)

	return g, nil
}

func (g *Gateway) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	g.botUserID = r.User.ID
	g.logger.Info("discord bot connected", "user", r.User.Username)
}

func (g *Gateway) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Never re-observe our own sends
	if m.Author.ID == g.botUserID {
		return
	}

	g.bus.Inbound <- relay.ChatMessage{
		ExternalID: m.ID,
		ChannelID:  m.ChannelID,
		AuthorName: m.Author.Username,
		AuthorBot:  m.Author.Bot,
		Content:    m.Content,
		CreatedAt:  m.Timestamp,
		AvatarURL:  m.Author.AvatarURL(""),
	}
}

// Start opens the connection, verifies the bound channel, and blocks until
// ctx is cancelled. A missing or non-text channel is returned as an error:
// a relay bound to one can never function, so the process refuses to run.
func (g *Gateway) Start(ctx context.Context) error {
	g.logger.Info("starting discord gateway", "channel", g.config.ChannelID)

	if err := g.session.Open(); err != nil {
		return errors.Wrap(err, "failed to open discord connection")
	}

	if err := g.validateChannel(); err != nil {
		_ = g.session.Close()
		return err
	}

	<-ctx.Done()
	return g.session.Close()
}

// Stop closes the connection.
func (g *Gateway) Stop() error {
	return g.session.Close()
}

func (g *Gateway) validateChannel() error {
	ch, err := g.session.Channel(g.config.ChannelID)
	if err != nil {
		return errors.Wrapf(err, "bound channel %s not found", g.config.ChannelID)
	}
	if !isTextCapable(ch.Type) {
		return errors.Errorf("bound channel %s is not text-capable (type %d)", g.config.ChannelID, ch.Type)
	}
	return nil
}

func isTextCapable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeDM, discordgo.ChannelTypeGuildNews:
		return true
	default:
		return false
	}
}

// SendText posts text to the channel, exactly one attempt per chunk, bounded
// by the configured send timeout. Oversize text is split at newline
// boundaries. All failure modes come back uniformly as an error; there is no
// automatic retry because platform delivery is not safe to retry blindly.
func (g *Gateway) SendText(ctx context.Context, channelID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, g.sendTimeout)
	defer cancel()

	for _, chunk := range splitMessage(text, maxMessageLen) {
		_, err := g.session.ChannelMessageSend(channelID, chunk, discordgo.WithContext(ctx))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return errors.New("timeout")
			}
			return errors.Wrap(err, "failed to send discord message")
		}
	}
	return nil
}

// splitMessage splits text into chunks at newline boundaries, respecting maxLen.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		// Find last newline within limit
		cutAt := maxLen
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > 0 {
			cutAt = idx + 1
		}

		chunks = append(chunks, text[:cutAt])
		text = text[cutAt:]
	}
	return chunks
}

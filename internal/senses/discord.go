package senses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/vthunder/nana/internal/agent"
	"github.com/vthunder/nana/internal/config"
	"github.com/vthunder/nana/internal/logging"
)

// maxMessageLen is Discord's per-message content limit
const maxMessageLen = 2000

// Responder produces a reply for one message (agent.Agent in production)
type Responder interface {
	Respond(ctx context.Context, input string) (*agent.Thought, error)
}

// DiscordSense listens to Discord and answers through the agent
type DiscordSense struct {
	session   *discordgo.Session
	channelID string
	botID     string
	responder Responder
	afterTurn func() // called after each answered message, e.g. to checkpoint

	send func(channelID, content string) error
}

// NewDiscordSense creates a new Discord sense
func NewDiscordSense(cfg config.DiscordConfig, responder Responder, afterTurn func()) (*DiscordSense, error) {
	if cfg.Token == "" {
		return nil, errors.New("DISCORD_TOKEN is required")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	sense := &DiscordSense{
		session:   session,
		channelID: cfg.ChannelID,
		responder: responder,
		afterTurn: afterTurn,
	}
	sense.send = func(channelID, content string) error {
		_, err := session.ChannelMessageSend(channelID, content)
		return err
	}

	// Register message handler
	session.AddHandler(sense.handleMessage)

	// We only need message content
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	return sense, nil
}

// Start connects to Discord and begins listening
func (d *DiscordSense) Start() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Get bot's user ID for self-filtering
	d.botID = d.session.State.User.ID
	logging.Info("discord", "connected as %s", d.session.State.User.Username)

	return nil
}

// Stop disconnects from Discord
func (d *DiscordSense) Stop() error {
	return d.session.Close()
}

// handleMessage answers incoming Discord messages
func (d *DiscordSense) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	content, ok := d.accept(m)
	if !ok {
		return
	}

	logging.Info("discord", "message from %s: %s", m.Author.Username, logging.Truncate(content, 50))

	thought, err := d.responder.Respond(context.Background(), content)
	if err != nil {
		logging.Warn("discord", "respond failed: %v", err)
		return
	}

	for _, chunk := range splitMessage(thought.Text, maxMessageLen) {
		if err := d.send(m.ChannelID, chunk); err != nil {
			logging.Warn("discord", "send failed (permanent=%v): %v", isNonRetryableError(err), err)
			break
		}
	}

	if d.afterTurn != nil {
		d.afterTurn()
	}
}

// accept filters messages and returns the text to answer
func (d *DiscordSense) accept(m *discordgo.MessageCreate) (string, bool) {
	if m.Message == nil || m.Author == nil {
		return "", false
	}

	// Ignore messages from self and other bots
	if m.Author.ID == d.botID || m.Author.Bot {
		return "", false
	}

	// Only process messages from configured channel (if set); DMs always pass
	if d.channelID != "" && m.GuildID != "" && m.ChannelID != d.channelID {
		return "", false
	}

	content := stripMention(m.Content, d.botID)
	if content == "" {
		return "", false
	}
	return content, true
}

// stripMention removes <@id> and <@!id> mentions of the bot
func stripMention(content, botID string) string {
	if botID != "" {
		content = strings.ReplaceAll(content, "<@"+botID+">", "")
		content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	}
	return strings.TrimSpace(content)
}

// splitMessage cuts text into chunks of at most limit bytes, preferring to
// break at whitespace
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexAny(text[:limit], " \n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// isNonRetryableError returns true for Discord client errors (4xx)
func isNonRetryableError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode >= 400 && restErr.Response.StatusCode < 500
	}
	return false
}

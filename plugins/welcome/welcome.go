package welcome

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/config"
)

// WelcomePlugin greets new members in the configured welcome channel.
// Channel lookups go through the connector once per guild and are
// cached; a guild without a welcome channel is greeted nowhere.
type WelcomePlugin struct {
	b bot.Bot
	c *config.Config

	mu       sync.Mutex
	channels map[string]string
}

func New(b bot.Bot) *WelcomePlugin {
	p := &WelcomePlugin{
		b:        b,
		c:        b.Config(),
		channels: map[string]string{},
	}
	b.Register(p, bot.Join, p.welcome)
	return p
}

// findChannel resolves and caches a named channel within a guild
func (p *WelcomePlugin) findChannel(conn bot.Connector, guildID, name string) string {
	key := guildID + ":" + name
	p.mu.Lock()
	if id, ok := p.channels[key]; ok {
		p.mu.Unlock()
		return id
	}
	p.mu.Unlock()

	id := conn.FindChannel(guildID, name)
	if id == "" {
		return ""
	}
	p.mu.Lock()
	p.channels[key] = id
	p.mu.Unlock()
	return id
}

// channelRef renders a linked channel mention, falling back to #name
func (p *WelcomePlugin) channelRef(conn bot.Connector, guildID, name string) string {
	if id := p.findChannel(conn, guildID, name); id != "" {
		return fmt.Sprintf("<#%s>", id)
	}
	return "#" + name
}

func (p *WelcomePlugin) welcome(conn bot.Connector, k bot.Kind, m msg.Message, args ...any) bool {
	if m.User == nil || m.User.Bot || m.Guild == "" {
		return false
	}

	channel := p.findChannel(conn, m.Guild, p.c.Get("welcome.channel", "welcome"))
	if channel == "" {
		log.Debug().Msgf("no welcome channel in guild %s", m.Guild)
		return false
	}

	lines := []string{
		fmt.Sprintf("Welcome to %s, <@%s>!", conn.GuildName(m.Guild), m.User.ID),
	}
	if created := m.AdditionalData["created"]; created != "" {
		lines = append(lines, fmt.Sprintf("Account created: %s", created))
	}
	if joined := m.AdditionalData["joined"]; joined != "" {
		lines = append(lines, fmt.Sprintf("Joined: %s", joined))
	}
	lines = append(lines, fmt.Sprintf("Read the rules in %s, then come say hi in %s. Type `!help` if you get lost.",
		p.channelRef(conn, m.Guild, p.c.Get("welcome.ruleschannel", "rules")),
		p.channelRef(conn, m.Guild, p.c.Get("welcome.chatchannel", "chat"))))

	p.b.Send(conn, bot.Message, channel, strings.Join(lines, "\n"))
	return true
}

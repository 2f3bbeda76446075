package automod

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/config"
	"github.com/wardenbot/warden/plugins/blacklist"
)

// AutoModPlugin runs the moderation filter pipeline over every inbound
// guild message: exemption check, banned-word match, delete, warn,
// escalate. The word list is owned by the blacklist store; this plugin
// holds its own compiled matcher and resynchronizes via the store's
// change feed.
type AutoModPlugin struct {
	b bot.Bot
	c *config.Config
	h bot.HandlerTable

	store   *blacklist.Store
	updates <-chan []string
	matcher atomic.Pointer[Matcher]

	oracle *Oracle
	ledger *Ledger
}

func New(b bot.Bot, store *blacklist.Store) *AutoModPlugin {
	p := &AutoModPlugin{
		b:      b,
		c:      b.Config(),
		store:  store,
		oracle: NewOracle(1024),
		ledger: NewLedger(b.DB()),
	}
	p.matcher.Store(Compile(store.Words()))
	p.updates = store.Subscribe()
	p.register()
	return p
}

func (p *AutoModPlugin) register() {
	// the pipeline sees every message before any command handler does
	p.b.RegisterRegex(p, bot.Message, regexp.MustCompile(`.*`), p.moderate)

	p.h = bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^warnings\s?(?P<user>.*)$`),
			HelpText: "warnings [@user] - show a user's warning count (mods)",
			Handler:  p.warningsCmd,
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^resetwarnings (?P<user>.+)$`),
			HelpText: "resetwarnings <@user> - reset a user's warnings (admin)",
			Handler:  p.isAdmin(p.resetCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^automod reload$`),
			HelpText: "automod reload - reload the word list and recompile (admin)",
			Handler:  p.isAdmin(p.reloadCmd),
		},
	}
	p.b.RegisterTable(p, p.h)

	p.b.Register(p, bot.MemberChange, p.memberChanged)
	p.b.Register(p, bot.Leave, p.memberChanged)
}

func (p *AutoModPlugin) isAdmin(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if !p.b.CheckAdmin(r.Msg.User.ID) {
			log.Debug().Msgf("User %s is not an admin", r.Msg.User.Name)
			return false
		}
		return rh(r)
	}
}

func (p *AutoModPlugin) maxWarnings() int {
	return p.c.GetInt("automod.maxwarnings", DefaultMaxWarnings)
}

// refresh folds in any pending word-list change before the next message
// is judged; a stale matcher would be a correctness bug
func (p *AutoModPlugin) refresh() {
	for {
		select {
		case words := <-p.updates:
			p.matcher.Store(Compile(words))
			p.oracle.Invalidate()
			log.Info().Msgf("blacklist updated: %d words", len(words))
		default:
			return
		}
	}
}

func (p *AutoModPlugin) moderate(r bot.Request) bool {
	p.refresh()

	m := r.Msg
	// bots, direct messages, and empty bodies are not moderated
	if m.User == nil || m.User.Bot || m.Guild == "" || strings.TrimSpace(m.Body) == "" {
		return false
	}
	if p.oracle.IsExempt(r.Conn, m.Guild, m.User.ID) {
		return false
	}
	if !p.matcher.Load().Match(m.Body) {
		return false
	}

	if _, err := p.b.Send(r.Conn, bot.Delete, m.Channel, m.ID); err != nil {
		// can't remove the message; warn anyway but don't count it
		log.Error().Err(err).Msg("could not delete message")
		p.sendWarning(r, p.ledger.Get(m.User.ID), false)
		return true
	}

	count := p.ledger.Increment(m.User.ID)
	d := Decide(true, false, count-1, p.maxWarnings())
	switch d.Action {
	case RemoveUser:
		p.removeUser(r, d)
	case WarnAndDelete:
		p.sendWarning(r, d.Count, d.Final)
	}
	return true
}

func (p *AutoModPlugin) sendWarning(r bot.Request, count int, final bool) {
	text := fmt.Sprintf("%s, your message contained banned content and was removed.\nWarnings: %d/%d",
		r.Msg.User.Name, count, p.maxWarnings())
	if final {
		text += "\nFinal warning: the next violation will result in a kick!"
	}
	if _, err := p.b.Send(r.Conn, bot.Notice, r.Msg.Channel, text); err != nil {
		log.Error().Err(err).Msg("could not send warning")
	}
}

func (p *AutoModPlugin) removeUser(r bot.Request, d Decision) {
	m := r.Msg
	err := r.Conn.KickUser(m.Guild, m.User.ID, "Exceeded maximum warnings for banned words")
	if err != nil {
		// threshold reached but we could not act; the count stands
		log.Error().Err(err).Msgf("could not kick %s", m.User.Name)
		p.b.Send(r.Conn, bot.Notice, m.Channel, fmt.Sprintf(
			"%s has reached the maximum warning limit but cannot be removed (insufficient permissions).",
			m.User.Name))
		return
	}
	p.ledger.Reset(m.User.ID)
	p.b.Send(r.Conn, bot.Notice, m.Channel, fmt.Sprintf(
		"%s has been removed for repeated rule violations.", m.User.Name))
}

func (p *AutoModPlugin) memberChanged(c bot.Connector, k bot.Kind, m msg.Message, args ...any) bool {
	if m.User != nil && m.Guild != "" {
		p.oracle.InvalidateUser(m.Guild, m.User.ID)
	}
	return false
}

func (p *AutoModPlugin) warningsCmd(r bot.Request) bool {
	if !p.canInspect(r) {
		return false
	}
	target := parseMention(r.Values["user"])
	name := target
	if target == "" {
		target = r.Msg.User.ID
		name = r.Msg.User.Name
	}
	count := p.ledger.Get(target)
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("Warnings for %s: %d/%d", name, count, p.maxWarnings()))
	return true
}

func (p *AutoModPlugin) resetCmd(r bot.Request) bool {
	target := parseMention(r.Values["user"])
	if target == "" {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Who do you want me to forgive?")
		return true
	}
	p.ledger.Reset(target)
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("Warnings for %s reset to 0.", target))
	return true
}

func (p *AutoModPlugin) reloadCmd(r bot.Request) bool {
	words := p.store.Reload()
	p.matcher.Store(Compile(words))
	p.oracle.Invalidate()
	p.refresh()
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("Blacklist reloaded: %d words loaded.", len(words)))
	return true
}

// canInspect allows admins and guild moderators to read warning state
func (p *AutoModPlugin) canInspect(r bot.Request) bool {
	if p.b.CheckAdmin(r.Msg.User.ID) {
		return true
	}
	if r.Msg.Guild == "" {
		return false
	}
	ok, err := r.Conn.IsModerator(r.Msg.Guild, r.Msg.User.ID)
	if err != nil {
		return false
	}
	return ok
}

func parseMention(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	return strings.TrimSuffix(s, ">")
}

package moderation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/config"
	"github.com/wardenbot/warden/connectors/discord"
)

// ModPlugin provides the manual moderation commands: kick, ban, mute,
// unmute, clear, and self-service role toggling. All destructive
// commands are gated on guild moderator permission.
type ModPlugin struct {
	b bot.Bot
	c *config.Config
	h bot.HandlerTable

	mu        sync.Mutex
	lastGreet map[string]time.Time

	now func() time.Time
}

func New(b bot.Bot) *ModPlugin {
	p := &ModPlugin{
		b:         b,
		c:         b.Config(),
		lastGreet: map[string]time.Time{},
		now:       time.Now,
	}
	p.register()
	return p
}

func (p *ModPlugin) register() {
	p.h = bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^kick (?P<user>\S+)\s?(?P<reason>.*)$`),
			HelpText: "kick <@user> [reason] - remove a member (mods)",
			Handler:  p.isMod(p.kickCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^ban (?P<user>\S+)\s?(?P<reason>.*)$`),
			HelpText: "ban <@user> [reason] - ban a member (mods)",
			Handler:  p.isMod(p.banCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^mute (?P<user>\S+)\s?(?P<mins>\d*)$`),
			HelpText: "mute <@user> [minutes] - time a member out (mods)",
			Handler:  p.isMod(p.muteCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^unmute (?P<user>\S+)$`),
			HelpText: "unmute <@user> - lift a member's timeout (mods)",
			Handler:  p.isMod(p.unmuteCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^clear\s?(?P<n>\d*)$`),
			HelpText: "clear [n] - delete the last n messages (mods)",
			Handler:  p.isMod(p.clearCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^role (?P<role>.+)$`),
			HelpText: "role <name> - toggle a role on yourself",
			Handler:  p.roleCmd,
		},
	}
	p.b.RegisterTable(p, p.h)
	p.b.RegisterRegex(p, bot.Message, regexp.MustCompile(`.*`), p.greet)
}

func (p *ModPlugin) isMod(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if r.Msg.Guild == "" {
			return false
		}
		if p.b.CheckAdmin(r.Msg.User.ID) {
			return rh(r)
		}
		ok, err := r.Conn.IsModerator(r.Msg.Guild, r.Msg.User.ID)
		if err != nil {
			log.Debug().Err(err).Msgf("could not resolve permissions for %s", r.Msg.User.Name)
			return false
		}
		if !ok {
			return false
		}
		return rh(r)
	}
}

// canTarget rejects self-harm and attacks on the untouchable
func (p *ModPlugin) canTarget(r bot.Request, target string) (bool, string) {
	if target == "" {
		return false, "Please mention a user."
	}
	if target == r.Msg.User.ID {
		return false, "You can't target yourself."
	}
	if u, err := r.Conn.Profile(target); err == nil && u.Bot {
		return false, "I don't act against bots."
	}
	if owner, err := r.Conn.GuildOwner(r.Msg.Guild); err == nil && owner == target {
		return false, "The server owner is off limits."
	}
	return true, ""
}

func (p *ModPlugin) actionFailed(r bot.Request, verb string, err error) {
	log.Error().Err(err).Msgf("could not %s", verb)
	if discord.IsForbidden(err) {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
			fmt.Sprintf("I don't have permission to %s that member.", verb))
		return
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Couldn't %s that member: %s", verb, err))
}

func (p *ModPlugin) kickCmd(r bot.Request) bool {
	target := parseMention(r.Values["user"])
	if ok, why := p.canTarget(r, target); !ok {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, why)
		return true
	}
	reason := strings.TrimSpace(r.Values["reason"])
	if reason == "" {
		reason = "No reason given"
	}
	if err := r.Conn.KickUser(r.Msg.Guild, target, reason); err != nil {
		p.actionFailed(r, "kick", err)
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Kicked <@%s>. Reason: %s", target, reason))
	return true
}

func (p *ModPlugin) banCmd(r bot.Request) bool {
	target := parseMention(r.Values["user"])
	if ok, why := p.canTarget(r, target); !ok {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, why)
		return true
	}
	reason := strings.TrimSpace(r.Values["reason"])
	if reason == "" {
		reason = "No reason given"
	}
	if err := r.Conn.BanUser(r.Msg.Guild, target, reason); err != nil {
		p.actionFailed(r, "ban", err)
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Banned <@%s>. Reason: %s", target, reason))
	return true
}

func (p *ModPlugin) muteCmd(r bot.Request) bool {
	target := parseMention(r.Values["user"])
	if ok, why := p.canTarget(r, target); !ok {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, why)
		return true
	}
	mins := p.c.GetInt("moderation.mutemins", 10)
	if v := r.Values["mins"]; v != "" {
		mins, _ = strconv.Atoi(v)
	}
	if mins < 1 {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Mute duration must be at least one minute.")
		return true
	}
	until := p.now().Add(time.Duration(mins) * time.Minute)
	if err := r.Conn.TimeoutUser(r.Msg.Guild, target, &until, "muted by moderator"); err != nil {
		p.actionFailed(r, "mute", err)
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Muted <@%s> for %d minute(s).", target, mins))
	return true
}

func (p *ModPlugin) unmuteCmd(r bot.Request) bool {
	target := parseMention(r.Values["user"])
	if target == "" {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Please mention a user.")
		return true
	}
	if err := r.Conn.TimeoutUser(r.Msg.Guild, target, nil, "unmuted by moderator"); err != nil {
		p.actionFailed(r, "unmute", err)
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Unmuted <@%s>.", target))
	return true
}

func (p *ModPlugin) clearCmd(r bot.Request) bool {
	n := 10
	if v := r.Values["n"]; v != "" {
		n, _ = strconv.Atoi(v)
	}
	if n < 1 {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Give me a positive number of messages to clear.")
		return true
	}
	if max := p.c.GetInt("moderation.clearmax", 100); n > max {
		n = max
	}
	deleted, err := r.Conn.Purge(r.Msg.Channel, n)
	if err != nil {
		p.actionFailed(r, "clear", err)
		return true
	}
	p.b.Send(r.Conn, bot.Notice, r.Msg.Channel, fmt.Sprintf("Deleted %d message(s).", deleted))
	return true
}

func (p *ModPlugin) roleCmd(r bot.Request) bool {
	if r.Msg.Guild == "" {
		return false
	}
	want := strings.TrimSpace(r.Values["role"])
	roles, err := r.Conn.GetRoles(r.Msg.Guild)
	if err != nil {
		log.Error().Err(err).Msg("could not list roles")
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "I couldn't look up the roles here.")
		return true
	}
	for _, role := range roles {
		if strings.EqualFold(role.Name, want) {
			if err := r.Conn.SetRole(r.Msg.Guild, r.Msg.User.ID, role.ID); err != nil {
				p.actionFailed(r, "toggle that role for", err)
				return true
			}
			p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
				fmt.Sprintf("Toggled role `%s` for %s.", role.Name, r.Msg.User.Name))
			return true
		}
	}
	known := make([]string, 0, len(roles))
	for _, role := range roles {
		known = append(known, role.Name)
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("I don't know the role `%s`. Roles here: %s", want, strings.Join(known, ", ")))
	return true
}

// greet answers a plain ping so people know the bot is alive
func (p *ModPlugin) greet(r bot.Request) bool {
	m := r.Msg
	if m.Command || m.User == nil || m.User.Bot || m.AdditionalData["mentionsMe"] != "true" {
		return false
	}
	p.mu.Lock()
	now := p.now()
	if last, ok := p.lastGreet[m.User.ID]; ok && now.Sub(last) < 5*time.Second {
		p.mu.Unlock()
		return false
	}
	p.lastGreet[m.User.ID] = now
	p.mu.Unlock()

	p.b.Send(r.Conn, bot.Message, m.Channel,
		fmt.Sprintf("Hi %s! I'm %s. Try `!help` to see what I can do.", m.User.Name, p.b.WhoAmI()))
	return true
}

func parseMention(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<@")
	s = strings.TrimPrefix(s, "!")
	return strings.TrimSuffix(s, ">")
}

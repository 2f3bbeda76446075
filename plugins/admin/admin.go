package admin

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/config"
)

// forbiddenKeys never travel through chat, in either direction
var forbiddenKeys = map[string]bool{
	"discordbottoken": true,
	"gemini_api_key":  true,
}

// AdminPlugin covers bot housekeeping: runtime config edits, the plugin
// list, and putting the bot to sleep.
type AdminPlugin struct {
	b bot.Bot
	c *config.Config
	h bot.HandlerTable
}

func New(b bot.Bot) *AdminPlugin {
	p := &AdminPlugin{
		b: b,
		c: b.Config(),
	}
	p.register()
	return p
}

func (p *AdminPlugin) register() {
	p.h = bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^shut up$`),
			HelpText: "shut up - silence the bot for a while (admin)",
			Handler:  p.isAdmin(p.shutupCmd),
		},
		{
			Kind: bot.Message, IsCmd: false,
			Regex:   regexp.MustCompile(`(?i)^come back$`),
			Handler: p.isAdmin(p.comeBackCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^set (?P<key>\S+) (?P<value>.*)$`),
			HelpText: "set <key> <value> - set a config value (admin)",
			Handler:  p.isAdmin(p.setConfigCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^push (?P<key>\S+) (?P<value>.*)$`),
			HelpText: "push <key> <value> - append to a config list (admin)",
			Handler:  p.isAdmin(p.pushConfigCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^unset (?P<key>\S+)$`),
			HelpText: "unset <key> - remove a config value (admin)",
			Handler:  p.isAdmin(p.unsetConfigCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^get (?P<key>\S+)$`),
			HelpText: "get <key> - read a config value (admin)",
			Handler:  p.isAdmin(p.getConfigCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^plugins$`),
			HelpText: "plugins - list the loaded plugins (admin)",
			Handler:  p.isAdmin(p.pluginsCmd),
		},
	}
	p.b.RegisterTable(p, p.h)
}

func (p *AdminPlugin) isAdmin(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if !p.b.CheckAdmin(r.Msg.User.ID) {
			log.Debug().Msgf("User %s is not an admin", r.Msg.User.Name)
			return false
		}
		return rh(r)
	}
}

func (p *AdminPlugin) shutupCmd(r bot.Request) bool {
	dur := time.Duration(p.c.GetInt("admin.quietmins", 5)) * time.Minute
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Okay. I'll be back later.")
	p.b.SetQuiet(true)
	log.Info().Msgf("going quiet until %v", time.Now().Add(dur))
	time.AfterFunc(dur, func() {
		p.b.SetQuiet(false)
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "I'm back.")
	})
	return true
}

func (p *AdminPlugin) comeBackCmd(r bot.Request) bool {
	p.b.SetQuiet(false)
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Okay, I'm back.")
	return true
}

func (p *AdminPlugin) setConfigCmd(r bot.Request) bool {
	key, value := strings.ToLower(r.Values["key"]), r.Values["value"]
	if forbiddenKeys[key] {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "You cannot access that key.")
		return true
	}
	if err := p.c.Set(key, value); err != nil {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set %s", key))
	return true
}

func (p *AdminPlugin) pushConfigCmd(r bot.Request) bool {
	key, value := strings.ToLower(r.Values["key"]), r.Values["value"]
	if forbiddenKeys[key] {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "You cannot access that key.")
		return true
	}
	items := p.c.GetArray(key, []string{})
	items = append(items, value)
	if err := p.c.SetArray(key, items); err != nil {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Set error: %s", err))
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Pushed to %s (%d items)", key, len(items)))
	return true
}

func (p *AdminPlugin) unsetConfigCmd(r bot.Request) bool {
	key := strings.ToLower(r.Values["key"])
	if forbiddenKeys[key] {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "You cannot access that key.")
		return true
	}
	if err := p.c.Unset(key); err != nil {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Unset error: %s", err))
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Unset %s", key))
	return true
}

func (p *AdminPlugin) getConfigCmd(r bot.Request) bool {
	key := strings.ToLower(r.Values["key"])
	if forbiddenKeys[key] {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "You cannot access that key.")
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("%s: %s", key, p.c.Get(key, "<unknown>")))
	return true
}

func (p *AdminPlugin) pluginsCmd(r bot.Request) bool {
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("Loaded plugins: %s", strings.Join(p.b.GetPluginNames(), ", ")))
	return true
}

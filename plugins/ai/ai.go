package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/config"
)

var (
	userMention    = regexp.MustCompile(`<@!?\d+>`)
	roleMention    = regexp.MustCompile(`<@&\d+>`)
	channelMention = regexp.MustCompile(`<#\d+>`)
)

var jokePrompts = []string{
	"Tell me a short, clean joke.",
	"Tell me a pun about computers.",
	"Tell me a one-liner a moderator would enjoy.",
	"Tell me a dad joke.",
}

// AIPlugin answers questions through a generative model, with a short
// per-user cooldown so one chatty member can't hog it.
type AIPlugin struct {
	b bot.Bot
	c *config.Config
	h bot.HandlerTable

	client generator

	mu      sync.Mutex
	lastAsk map[string]time.Time

	now func() time.Time
}

func New(b bot.Bot) *AIPlugin {
	p := &AIPlugin{
		b:       b,
		c:       b.Config(),
		lastAsk: map[string]time.Time{},
		now:     time.Now,
	}
	client, err := newGemini(p.c)
	if err != nil {
		// the bot still moderates without a model; ask just apologizes
		log.Error().Err(err).Msg("AI unavailable")
	} else {
		p.client = client
	}
	p.register()
	return p
}

func (p *AIPlugin) register() {
	p.h = bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^ask (?P<text>.+)$`),
			HelpText: "ask <question> - ask the AI a question",
			Handler:  p.askCmd,
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^joke$`),
			HelpText: "joke - get a joke from the AI",
			Handler:  p.jokeCmd,
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^aistatus$`),
			HelpText: "aistatus - show AI availability (admin)",
			Handler:  p.statusCmd,
		},
	}
	p.b.RegisterTable(p, p.h)
}

func (p *AIPlugin) cooldown() time.Duration {
	return time.Duration(p.c.GetInt("ai.cooldown", 3)) * time.Second
}

// onCooldown records the ask time when the user is clear to proceed
func (p *AIPlugin) onCooldown(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if last, ok := p.lastAsk[userID]; ok && now.Sub(last) < p.cooldown() {
		return true
	}
	p.lastAsk[userID] = now
	return false
}

func (p *AIPlugin) coolingDown() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	now := p.now()
	for _, last := range p.lastAsk {
		if now.Sub(last) < p.cooldown() {
			n++
		}
	}
	return n
}

// cleanMessage strips chat markup so the model sees plain text
func cleanMessage(text string) string {
	text = userMention.ReplaceAllString(text, "")
	text = roleMention.ReplaceAllString(text, "")
	text = channelMention.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (p *AIPlugin) askCmd(r bot.Request) bool {
	question := cleanMessage(r.Values["text"])
	if len(question) < 3 {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Please ask a real question.")
		return true
	}
	p.generate(r, question)
	return true
}

func (p *AIPlugin) jokeCmd(r bot.Request) bool {
	p.generate(r, jokePrompts[rand.Intn(len(jokePrompts))])
	return true
}

func (p *AIPlugin) generate(r bot.Request, prompt string) {
	if p.client == nil {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "The AI service is unavailable right now.")
		return
	}
	if p.onCooldown(r.Msg.User.ID) {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
			fmt.Sprintf("%s, give me a few seconds between questions.", r.Msg.User.Name))
		return
	}

	timeout := time.Duration(p.c.GetInt("ai.timeout", 30)) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	answer, err := p.client.Generate(ctx, prompt)
	if errors.Is(err, context.DeadlineExceeded) {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "That took too long to answer. Try again in a bit.")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("generate failed")
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "I couldn't get an answer. Try again in a bit.")
		return
	}

	max := p.c.GetInt("ai.maxresponse", 1500)
	if len(answer) > max {
		answer = answer[:max] + "…"
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, answer)
}

func (p *AIPlugin) statusCmd(r bot.Request) bool {
	if !p.b.CheckAdmin(r.Msg.User.ID) {
		return false
	}
	state := "ready"
	if p.client == nil {
		state = "unavailable"
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("AI service: %s. Users cooling down: %d.", state, p.coolingDown()))
	return true
}

package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
)

type fakeModel struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func makeAI(t *testing.T) (*AIPlugin, *bot.MockBot, *fakeModel) {
	t.Helper()
	mb := bot.NewMockBot()
	model := &fakeModel{answer: "42"}
	clock := time.Now()
	p := &AIPlugin{
		b:       mb,
		c:       mb.Config(),
		client:  model,
		lastAsk: map[string]time.Time{},
		now:     func() time.Time { return clock },
	}
	p.register()
	return p, mb, model
}

func ask(body string) msg.Message {
	return msg.Message{
		ID:      "m1",
		User:    &user.User{ID: "u1", Name: "tester"},
		Channel: "c1",
		Guild:   "g1",
		Body:    body,
		Command: true,
	}
}

func TestAsk(t *testing.T) {
	_, mb, model := makeAI(t)
	mb.Receive(nil, bot.Message, ask("ask what is the answer?"))

	assert.Equal(t, []string{"what is the answer?"}, model.prompts)
	assert.Equal(t, []string{"42"}, mb.Messages)
}

func TestAskStripsMentions(t *testing.T) {
	_, mb, model := makeAI(t)
	mb.Receive(nil, bot.Message, ask("ask <@!123> what about <#456> and <@&789>?"))

	assert.Len(t, model.prompts, 1)
	assert.NotContains(t, model.prompts[0], "<")
	assert.Len(t, mb.Messages, 1)
}

func TestAskTooShort(t *testing.T) {
	_, mb, model := makeAI(t)
	mb.Receive(nil, bot.Message, ask("ask <@!123>"))

	assert.Empty(t, model.prompts)
	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "real question")
	}
}

func TestAskCooldown(t *testing.T) {
	p, mb, model := makeAI(t)
	mb.Receive(nil, bot.Message, ask("ask first question"))
	mb.Receive(nil, bot.Message, ask("ask second question"))

	assert.Len(t, model.prompts, 1, "second ask lands inside the cooldown")
	assert.Contains(t, mb.Messages[1], "few seconds")

	// another user is not affected
	m := ask("ask other user question")
	m.User = &user.User{ID: "u2", Name: "other"}
	mb.Receive(nil, bot.Message, m)
	assert.Len(t, model.prompts, 2)

	// and time clears it
	later := time.Now().Add(10 * time.Second)
	p.now = func() time.Time { return later }
	mb.Receive(nil, bot.Message, ask("ask third question"))
	assert.Len(t, model.prompts, 3)
}

func TestAskTruncatesLongAnswers(t *testing.T) {
	_, mb, model := makeAI(t)
	model.answer = strings.Repeat("a", 2000)
	mb.Receive(nil, bot.Message, ask("ask long answer please"))

	if assert.Len(t, mb.Messages, 1) {
		assert.True(t, strings.HasSuffix(mb.Messages[0], "…"))
		assert.LessOrEqual(t, len(mb.Messages[0]), 1500+len("…"))
	}
}

func TestAskModelError(t *testing.T) {
	_, mb, model := makeAI(t)
	model.err = errors.New("quota exceeded")
	mb.Receive(nil, bot.Message, ask("ask anything at all"))

	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "couldn't get an answer")
	}
}

func TestAskTimeout(t *testing.T) {
	_, mb, model := makeAI(t)
	model.err = context.DeadlineExceeded
	mb.Receive(nil, bot.Message, ask("ask anything at all"))

	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "too long")
	}
}

func TestAskUnavailable(t *testing.T) {
	p, mb, _ := makeAI(t)
	p.client = nil
	mb.Receive(nil, bot.Message, ask("ask anything at all"))

	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "unavailable")
	}
}

func TestJoke(t *testing.T) {
	_, mb, model := makeAI(t)
	model.answer = "a horse walks into a bar"
	mb.Receive(nil, bot.Message, ask("joke"))

	assert.Len(t, model.prompts, 1)
	assert.Equal(t, []string{"a horse walks into a bar"}, mb.Messages)
}

func TestStatusAdminOnly(t *testing.T) {
	_, mb, _ := makeAI(t)
	mb.Receive(nil, bot.Message, ask("aistatus"))
	assert.Empty(t, mb.Messages)

	mb.Admin = true
	mb.Receive(nil, bot.Message, ask("aistatus"))
	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "AI service: ready")
	}
}

package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
)

func makeAdmin(t *testing.T) (*AdminPlugin, *bot.MockBot) {
	t.Helper()
	mb := bot.NewMockBot()
	mb.Admin = true
	return New(mb), mb
}

func command(body string) msg.Message {
	return msg.Message{
		User:    &user.User{ID: "u1", Name: "tester"},
		Channel: "c1",
		Guild:   "g1",
		Body:    body,
		Command: true,
	}
}

func TestSetGetConfig(t *testing.T) {
	p, mb := makeAdmin(t)
	mb.Receive(nil, bot.Message, command("set welcome.channel lobby"))
	assert.Equal(t, "lobby", p.c.Get("welcome.channel", ""))

	mb.Receive(nil, bot.Message, command("get welcome.channel"))
	assert.Contains(t, mb.Messages[1], "welcome.channel: lobby")
}

func TestUnsetConfig(t *testing.T) {
	p, mb := makeAdmin(t)
	p.c.Set("some.key", "value")
	mb.Receive(nil, bot.Message, command("unset some.key"))
	assert.Equal(t, "gone", p.c.Get("some.key", "gone"))
}

func TestPushConfig(t *testing.T) {
	p, mb := makeAdmin(t)
	mb.Receive(nil, bot.Message, command("push admins alice"))
	mb.Receive(nil, bot.Message, command("push admins bob"))
	assert.Equal(t, []string{"alice", "bob"}, p.c.GetArray("admins", nil))
}

func TestForbiddenKeys(t *testing.T) {
	p, mb := makeAdmin(t)
	mb.Receive(nil, bot.Message, command("get DISCORDBOTTOKEN"))
	mb.Receive(nil, bot.Message, command("set gemini_api_key hunter2"))

	assert.Equal(t, "", p.c.Get("gemini_api_key", ""))
	for _, m := range mb.Messages {
		assert.Contains(t, m, "cannot access")
	}
}

func TestConfigCommandsRequireAdmin(t *testing.T) {
	p, mb := makeAdmin(t)
	mb.Admin = false
	mb.Receive(nil, bot.Message, command("set custom.key lobby"))

	assert.Empty(t, mb.Messages)
	assert.Equal(t, "", p.c.Get("custom.key", ""))
}

func TestPluginsCmd(t *testing.T) {
	_, mb := makeAdmin(t)
	mb.Receive(nil, bot.Message, command("plugins"))
	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "admin")
	}
}

package moderation

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
)

type fakeConn struct {
	mods  map[string]bool
	bots  map[string]bool
	owner string
	roles []bot.Role

	kicked   []string
	banned   []string
	timeouts map[string]*time.Time
	toggled  []string
	purged   int

	actErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		mods:     map[string]bool{},
		bots:     map[string]bool{},
		timeouts: map[string]*time.Time{},
	}
}

func (f *fakeConn) RegisterEvent(bot.Callback)            {}
func (f *fakeConn) Send(bot.Kind, ...any) (string, error) { return "", nil }
func (f *fakeConn) Serve() error                          { return nil }
func (f *fakeConn) Who(string) []string                   { return nil }

func (f *fakeConn) Profile(id string) (user.User, error) {
	return user.User{ID: id, Name: id, Bot: f.bots[id]}, nil
}

func (f *fakeConn) GetChannelName(id string) string           { return id }
func (f *fakeConn) FindChannel(guildID, name string) string   { return "" }
func (f *fakeConn) GuildName(guildID string) string           { return guildID }
func (f *fakeConn) GuildOwner(guildID string) (string, error) { return f.owner, nil }

func (f *fakeConn) IsModerator(guildID, userID string) (bool, error) {
	return f.mods[guildID+":"+userID], nil
}

func (f *fakeConn) KickUser(guildID, userID, reason string) error {
	if f.actErr != nil {
		return f.actErr
	}
	f.kicked = append(f.kicked, userID)
	return nil
}

func (f *fakeConn) BanUser(guildID, userID, reason string) error {
	if f.actErr != nil {
		return f.actErr
	}
	f.banned = append(f.banned, userID)
	return nil
}

func (f *fakeConn) TimeoutUser(guildID, userID string, until *time.Time, reason string) error {
	if f.actErr != nil {
		return f.actErr
	}
	f.timeouts[userID] = until
	return nil
}

func (f *fakeConn) Purge(channelID string, amount int) (int, error) {
	if f.actErr != nil {
		return 0, f.actErr
	}
	f.purged = amount
	return amount, nil
}

func (f *fakeConn) GetRoles(guildID string) ([]bot.Role, error) { return f.roles, nil }

func (f *fakeConn) SetRole(guildID, userID, roleID string) error {
	if f.actErr != nil {
		return f.actErr
	}
	f.toggled = append(f.toggled, roleID)
	return nil
}

func makeMod(t *testing.T) (*ModPlugin, *bot.MockBot, *fakeConn) {
	t.Helper()
	mb := bot.NewMockBot()
	p := New(mb)
	c := newFakeConn()
	c.mods["g1:mod"] = true
	return p, mb, c
}

func command(from, body string) msg.Message {
	return msg.Message{
		ID:      "m1",
		User:    &user.User{ID: from, Name: from},
		Channel: "c1",
		Guild:   "g1",
		Body:    body,
		Command: true,
	}
}

func TestKick(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("mod", "kick <@!u2> being a jerk"))

	assert.Equal(t, []string{"u2"}, c.kicked)
	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "Kicked <@u2>")
		assert.Contains(t, mb.Messages[0], "being a jerk")
	}
}

func TestKickRequiresModerator(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("pleb", "kick <@!u2>"))

	assert.Empty(t, c.kicked)
	assert.Empty(t, mb.Messages)
}

func TestKickGuards(t *testing.T) {
	_, mb, c := makeMod(t)
	c.owner = "boss"
	c.bots["robo"] = true

	mb.Receive(c, bot.Message, command("mod", "kick <@!mod>"))
	mb.Receive(c, bot.Message, command("mod", "kick <@!robo>"))
	mb.Receive(c, bot.Message, command("mod", "kick <@!boss>"))

	assert.Empty(t, c.kicked)
	if assert.Len(t, mb.Messages, 3) {
		assert.Contains(t, mb.Messages[0], "yourself")
		assert.Contains(t, mb.Messages[1], "bots")
		assert.Contains(t, mb.Messages[2], "owner")
	}
}

func TestKickForbidden(t *testing.T) {
	_, mb, c := makeMod(t)
	c.actErr = &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	mb.Receive(c, bot.Message, command("mod", "kick <@!u2>"))

	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "don't have permission")
	}
}

func TestKickOtherError(t *testing.T) {
	_, mb, c := makeMod(t)
	c.actErr = errors.New("api exploded")
	mb.Receive(c, bot.Message, command("mod", "kick <@!u2>"))

	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "Couldn't kick")
	}
}

func TestBan(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("mod", "ban <@!u2>"))

	assert.Equal(t, []string{"u2"}, c.banned)
	if assert.Len(t, mb.Messages, 1) {
		assert.Contains(t, mb.Messages[0], "Banned <@u2>")
		assert.Contains(t, mb.Messages[0], "No reason given")
	}
}

func TestMuteDefaultDuration(t *testing.T) {
	p, mb, c := makeMod(t)
	start := time.Now()
	p.now = func() time.Time { return start }

	mb.Receive(c, bot.Message, command("mod", "mute <@!u2>"))

	if assert.NotNil(t, c.timeouts["u2"]) {
		assert.Equal(t, start.Add(10*time.Minute), *c.timeouts["u2"])
	}
	assert.Contains(t, mb.Messages[0], "10 minute(s)")
}

func TestMuteExplicitDuration(t *testing.T) {
	p, mb, c := makeMod(t)
	start := time.Now()
	p.now = func() time.Time { return start }

	mb.Receive(c, bot.Message, command("mod", "mute <@!u2> 45"))

	if assert.NotNil(t, c.timeouts["u2"]) {
		assert.Equal(t, start.Add(45*time.Minute), *c.timeouts["u2"])
	}
}

func TestUnmute(t *testing.T) {
	_, mb, c := makeMod(t)
	until := time.Now()
	c.timeouts["u2"] = &until

	mb.Receive(c, bot.Message, command("mod", "unmute <@!u2>"))

	assert.Nil(t, c.timeouts["u2"])
	assert.Contains(t, mb.Messages[0], "Unmuted <@u2>")
}

func TestClearDefaults(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("mod", "clear"))

	assert.Equal(t, 10, c.purged)
	if assert.Len(t, mb.Notices, 1) {
		assert.Contains(t, mb.Notices[0], "Deleted 10 message(s)")
	}
}

func TestClearCapped(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("mod", "clear 5000"))
	assert.Equal(t, 100, c.purged)
}

func TestClearRejectsZero(t *testing.T) {
	_, mb, c := makeMod(t)
	mb.Receive(c, bot.Message, command("mod", "clear 0"))

	assert.Equal(t, 0, c.purged)
	assert.Contains(t, mb.Messages[0], "positive number")
}

func TestRoleToggle(t *testing.T) {
	_, mb, c := makeMod(t)
	c.roles = []bot.Role{{ID: "r1", Name: "Gamer"}, {ID: "r2", Name: "Artist"}}

	mb.Receive(c, bot.Message, command("pleb", "role gamer"))

	assert.Equal(t, []string{"r1"}, c.toggled)
	assert.Contains(t, mb.Messages[0], "Toggled role `Gamer`")
}

func TestRoleUnknown(t *testing.T) {
	_, mb, c := makeMod(t)
	c.roles = []bot.Role{{ID: "r1", Name: "Gamer"}}

	mb.Receive(c, bot.Message, command("pleb", "role dj"))

	assert.Empty(t, c.toggled)
	assert.Contains(t, mb.Messages[0], "I don't know the role `dj`")
	assert.Contains(t, mb.Messages[0], "Gamer")
}

func TestGreetOnMention(t *testing.T) {
	p, mb, c := makeMod(t)
	clock := time.Now()
	p.now = func() time.Time { return clock }

	m := msg.Message{
		User: &user.User{ID: "u1", Name: "friend"}, Channel: "c1", Guild: "g1",
		Body:           "hey bot",
		AdditionalData: map[string]string{"mentionsMe": "true"},
	}
	mb.Receive(c, bot.Message, m)
	mb.Receive(c, bot.Message, m)

	assert.Len(t, mb.Messages, 1, "second ping lands inside the cooldown")
	assert.Contains(t, mb.Messages[0], "Hi friend")

	clock = clock.Add(6 * time.Second)
	mb.Receive(c, bot.Message, m)
	assert.Len(t, mb.Messages, 2)
}

func TestNoGreetWithoutMention(t *testing.T) {
	_, mb, c := makeMod(t)
	m := msg.Message{
		User: &user.User{ID: "u1", Name: "friend"}, Channel: "c1", Guild: "g1",
		Body: "just chatting",
	}
	mb.Receive(c, bot.Message, m)
	assert.Empty(t, mb.Messages)
}

package discord

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
	"github.com/wardenbot/warden/config"
)

type Discord struct {
	config *config.Config
	client *discordgo.Session

	event bot.Callback
}

func New(config *config.Config) *Discord {
	client, err := discordgo.New("Bot " + config.Secret("DISCORDBOTTOKEN"))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to Discord")
	}
	d := &Discord{
		config: config,
		client: client,
	}
	return d
}

func (d *Discord) RegisterEvent(callback bot.Callback) {
	d.event = callback
}

func (d *Discord) Send(kind bot.Kind, args ...any) (string, error) {
	switch kind {
	case bot.Message, bot.Action:
		return d.sendMessage(args[0].(string), args[1].(string), kind == bot.Action)
	case bot.Reply:
		original, err := d.client.ChannelMessage(args[0].(string), args[1].(string))
		message := args[2].(string)
		if err != nil {
			log.Error().Err(err).Msg("could not get original")
		} else {
			message = fmt.Sprintf("> %s\n%s", original.Content, message)
		}
		return d.sendMessage(args[0].(string), message, false)
	case bot.Notice:
		id, err := d.sendMessage(args[0].(string), args[1].(string), false)
		if err != nil {
			return id, err
		}
		d.scheduleDelete(args[0].(string), id)
		return id, nil
	case bot.Delete:
		ch := args[0].(string)
		id := args[1].(string)
		err := d.client.ChannelMessageDelete(ch, id)
		if isNotFound(err) {
			// somebody beat us to it, same outcome
			err = nil
		}
		if err != nil {
			log.Error().Err(err).Msg("cannot delete message")
		}
		return id, err
	default:
		log.Error().Msgf("discord.Send: unknown kind, %+v", kind)
		return "", errors.New("unknown message type")
	}
}

func (d *Discord) sendMessage(channel, message string, meMessage bool) (string, error) {
	if meMessage && !strings.HasPrefix(message, "_") && !strings.HasSuffix(message, "_") {
		message = "_" + message + "_"
	}

	st, err := d.client.ChannelMessageSend(channel, message)
	if err != nil {
		log.Error().Err(err).Msg("Error sending message")
		return "", err
	}
	return st.ID, nil
}

// Notices clean themselves up so moderation chatter does not pile up in
// the channel
func (d *Discord) scheduleDelete(channel, id string) {
	ttl := time.Duration(d.config.GetInt("automod.noticettl", 10)) * time.Second
	time.AfterFunc(ttl, func() {
		if err := d.client.ChannelMessageDelete(channel, id); err != nil && !isNotFound(err) {
			log.Debug().Err(err).Msg("could not clean up notice")
		}
	})
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

func IsForbidden(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode == http.StatusForbidden
	}
	return false
}

func (d *Discord) Who(id string) []string {
	ch, err := d.client.Channel(id)
	if err != nil {
		log.Error().Err(err).Msg("Error getting users")
		return []string{}
	}
	users := []string{}
	for _, u := range ch.Recipients {
		users = append(users, u.Username)
	}
	return users
}

func (d *Discord) Profile(id string) (user.User, error) {
	u, err := d.client.User(id)
	if err != nil {
		log.Error().Err(err).Msg("Error getting user")
		return user.User{}, err
	}
	return *d.convertUser(u), nil
}

func (d *Discord) convertUser(u *discordgo.User) *user.User {
	return &user.User{
		ID:   u.ID,
		Name: u.Username,
		Bot:  u.Bot,
	}
}

func (d *Discord) GetChannelName(id string) string {
	ch, err := d.client.Channel(id)
	if err != nil {
		log.Error().Err(err).Msg("could not get channel")
		return id
	}
	return ch.Name
}

func (d *Discord) FindChannel(guildID, name string) string {
	channels, err := d.client.GuildChannels(guildID)
	if err != nil {
		log.Error().Err(err).Msg("could not list channels")
		return ""
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return ch.ID
		}
	}
	return ""
}

func (d *Discord) GuildName(guildID string) string {
	g, err := d.guild(guildID)
	if err != nil {
		return guildID
	}
	return g.Name
}

func (d *Discord) GuildOwner(guildID string) (string, error) {
	g, err := d.guild(guildID)
	if err != nil {
		return "", err
	}
	return g.OwnerID, nil
}

func (d *Discord) guild(guildID string) (*discordgo.Guild, error) {
	if g, err := d.client.State.Guild(guildID); err == nil {
		return g, nil
	}
	return d.client.Guild(guildID)
}

func (d *Discord) member(guildID, userID string) (*discordgo.Member, error) {
	if m, err := d.client.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	return d.client.GuildMember(guildID, userID)
}

// IsModerator reports whether the member holds manage-messages or
// administrator permission or owns the guild. Unknown guilds and members
// are never moderators.
func (d *Discord) IsModerator(guildID, userID string) (bool, error) {
	g, err := d.guild(guildID)
	if err != nil {
		return false, fmt.Errorf("unknown guild %s: %w", guildID, err)
	}
	if g.OwnerID == userID {
		return true, nil
	}
	m, err := d.member(guildID, userID)
	if err != nil {
		return false, fmt.Errorf("unknown member %s: %w", userID, err)
	}
	var perms int64
	for _, roleID := range m.Roles {
		for _, role := range g.Roles {
			if role.ID == roleID {
				perms |= role.Permissions
			}
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	return perms&discordgo.PermissionManageMessages != 0, nil
}

func (d *Discord) KickUser(guildID, userID, reason string) error {
	return d.client.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (d *Discord) BanUser(guildID, userID, reason string) error {
	return d.client.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

func (d *Discord) TimeoutUser(guildID, userID string, until *time.Time, reason string) error {
	return d.client.GuildMemberTimeout(guildID, userID, until)
}

func (d *Discord) Purge(channelID string, amount int) (int, error) {
	messages, err := d.client.ChannelMessages(channelID, amount, "", "", "")
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := d.client.ChannelMessagesBulkDelete(channelID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (d *Discord) GetRoles(guildID string) ([]bot.Role, error) {
	ret := []bot.Role{}
	roles, err := d.client.GuildRoles(guildID)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		ret = append(ret, bot.Role{
			ID:   r.ID,
			Name: r.Name,
		})
	}
	return ret, nil
}

// SetRole toggles the given role for the member
func (d *Discord) SetRole(guildID, userID, roleID string) error {
	m, err := d.member(guildID, userID)
	if err != nil {
		return err
	}
	for _, r := range m.Roles {
		if r == roleID {
			return d.client.GuildMemberRoleRemove(guildID, userID, roleID)
		}
	}
	return d.client.GuildMemberRoleAdd(guildID, userID, roleID)
}

func (d *Discord) Serve() error {
	log.Debug().Msg("starting discord serve function")

	d.client.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent)

	err := d.client.Open()
	if err != nil {
		log.Debug().Err(err).Msg("error opening client")
		return err
	}

	log.Debug().Msg("discord connection open")

	d.client.AddHandler(d.messageCreate)
	d.client.AddHandler(d.memberAdd)
	d.client.AddHandler(d.memberUpdate)
	d.client.AddHandler(d.memberRemove)

	return nil
}

func (d *Discord) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	isCmd, text := bot.IsCmd(d.config, m.Content)

	mentions := make([]string, 0, len(m.Mentions))
	mentionsMe := false
	for _, u := range m.Mentions {
		mentions = append(mentions, u.ID)
		if u.ID == s.State.User.ID {
			mentionsMe = true
		}
	}

	message := msg.Message{
		ID:          m.ID,
		User:        d.convertUser(m.Author),
		Channel:     m.ChannelID,
		ChannelName: d.GetChannelName(m.ChannelID),
		Guild:       m.GuildID,
		Body:        text,
		IsIM:        m.GuildID == "",
		Raw:         m,
		Command:     isCmd,
		Time:        m.Timestamp,
		Mentions:    mentions,
	}
	if mentionsMe {
		message.AdditionalData = map[string]string{"mentionsMe": "true"}
	}

	d.event(d, bot.Message, message)
}

func (d *Discord) memberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	created, _ := discordgo.SnowflakeTimestamp(m.User.ID)
	message := msg.Message{
		User:  d.convertUser(m.User),
		Guild: m.GuildID,
		Time:  m.JoinedAt,
		AdditionalData: map[string]string{
			"created": created.Format("January 2, 2006"),
			"joined":  m.JoinedAt.Format("January 2, 2006"),
		},
	}
	d.event(d, bot.Join, message)
}

func (d *Discord) memberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	message := msg.Message{
		User:  d.convertUser(m.User),
		Guild: m.GuildID,
		Time:  time.Now(),
	}
	d.event(d, bot.MemberChange, message)
}

func (d *Discord) memberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	message := msg.Message{
		User:  d.convertUser(m.User),
		Guild: m.GuildID,
		Time:  time.Now(),
	}
	d.event(d, bot.Leave, message)
}

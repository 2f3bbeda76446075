package bot

import (
	"net/http"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
	"github.com/wardenbot/warden/config"
)

const (
	_ Kind = iota

	// Message any standard chat
	Message
	// Reply something containing a message reference
	Reply
	// Action any /me action
	Action
	// Notice a transient moderation/system notice (auto-deleted where supported)
	Notice
	// Delete removes a message by reference
	Delete
	// Event unknown platform event
	Event
	// Join a member joined a guild
	Join
	// Leave a member left or was removed from a guild
	Leave
	// MemberChange roles/permissions changed for a member
	MemberChange
	// Help is used when the bot help system is triggered
	Help
	// SelfMessage triggers when the bot is sending a message
	SelfMessage
)

type Kind int

type Callback func(Connector, Kind, msg.Message, ...any) bool
type ResponseHandler func(Request) bool

type CallbackMap map[string]map[Kind][]HandlerSpec

// Request is the fully formed message context handed to a plugin handler
type Request struct {
	Conn   Connector
	Kind   Kind
	Msg    msg.Message
	Values RegexValues
	Args   []any
}

type RegexValues map[string]string

// HandlerSpec bundles a regex-triggered handler with its help entry
type HandlerSpec struct {
	Kind     Kind
	IsCmd    bool
	Regex    *regexp.Regexp
	HelpText string
	Handler  ResponseHandler
}

type HandlerTable []HandlerSpec

type Role struct {
	ID   string
	Name string
}

type Bot interface {
	Config() *config.Config
	DB() *sqlx.DB
	WhoAmI() string
	DefaultConnector() Connector

	// Send transmits a message of the given Kind over a connector.
	// First arg should be one of bot.Message/Reply/Notice/etc
	Send(Connector, Kind, ...any) (string, error)
	// Receive accepts an inbound event for dispatch to the plugins
	Receive(Connector, Kind, msg.Message, ...any) bool

	AddPlugin(Plugin)
	Register(Plugin, Kind, Callback)
	RegisterRegex(Plugin, Kind, *regexp.Regexp, ResponseHandler)
	RegisterRegexCmd(Plugin, Kind, *regexp.Regexp, ResponseHandler)
	RegisterTable(Plugin, HandlerTable)

	RegisterWeb(http.Handler, string)
	RegisterWebName(http.Handler, string, string)
	GetWebNavigation() []EndPoint
	ListenAndServe(string)

	GetPluginNames() []string
	CheckAdmin(userID string) bool
	SetQuiet(bool)
}

type Connector interface {
	RegisterEvent(Callback)

	Send(Kind, ...any) (string, error)
	Serve() error

	Who(channelID string) []string
	Profile(userID string) (user.User, error)
	GetChannelName(id string) string
	// FindChannel resolves a channel name within a guild, "" when absent
	FindChannel(guildID, name string) string
	GuildName(guildID string) string
	GuildOwner(guildID string) (string, error)

	// IsModerator reports whether the user may bypass or apply moderation
	// in the guild. Unknown guilds and members are not moderators.
	IsModerator(guildID, userID string) (bool, error)

	KickUser(guildID, userID, reason string) error
	BanUser(guildID, userID, reason string) error
	TimeoutUser(guildID, userID string, until *time.Time, reason string) error
	Purge(channelID string, amount int) (int, error)

	GetRoles(guildID string) ([]Role, error)
	SetRole(guildID, userID, roleID string) error
}

// Plugin is any plugin registered with the bot. Identification happens
// via reflection at registration time.
type Plugin any

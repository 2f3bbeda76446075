package bot

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot/user"
	"github.com/wardenbot/warden/config"

	_ "github.com/mattn/go-sqlite3"
)

// bot provides storage for bot-wide information, the plugin registry, and
// the database handle shared by plugins
type bot struct {
	config *config.Config
	db     *sqlx.DB

	conn Connector

	// me represents the bot against the connected platform
	me user.User

	plugins        map[string]Plugin
	pluginOrdering []string

	callbacks CallbackMap

	quiet bool

	router        *chi.Mux
	httpEndPoints []EndPoint
}

// New creates a Bot for a given connection and set of handlers.
func New(c *config.Config, conn Connector) Bot {
	b := &bot{
		config:         c,
		db:             c.DB,
		conn:           conn,
		plugins:        make(map[string]Plugin),
		pluginOrdering: []string{},
		callbacks:      make(CallbackMap),
		httpEndPoints:  []EndPoint{},
		me: user.User{
			Name: c.Get("nick", "warden"),
		},
	}

	b.migrateDB()
	b.setupHTTP()

	conn.RegisterEvent(b.Receive)

	return b
}

// migrateDB creates any tables needed for core bot operation.
// Plugins create their own tables. Database issues are fatal at this stage.
func (b *bot) migrateDB() {
	if _, err := b.db.Exec(`create table if not exists variables (
			name string,
			value string
		);`); err != nil {
		log.Fatal().Err(err).Msg("could not create variables table")
	}
}

func (b *bot) Config() *config.Config     { return b.config }
func (b *bot) DB() *sqlx.DB               { return b.db }
func (b *bot) WhoAmI() string             { return b.me.Name }
func (b *bot) DefaultConnector() Connector { return b.conn }

func (b *bot) GetPluginNames() []string {
	out := make([]string, len(b.pluginOrdering))
	copy(out, b.pluginOrdering)
	return out
}

func (b *bot) SetQuiet(quiet bool) { b.quiet = quiet }

// AddPlugin registers a plugin for dispatch ordering. Plugins are
// consulted in the order they were added.
func (b *bot) AddPlugin(h Plugin) {
	name := pluginNameFor(h)
	if _, ok := b.plugins[name]; ok {
		return
	}
	b.plugins[name] = h
	b.pluginOrdering = append(b.pluginOrdering, name)
}

func (b *bot) Register(p Plugin, kind Kind, cb Callback) {
	b.RegisterRegex(p, kind, regexp.MustCompile(`.*`), func(r Request) bool {
		return cb(r.Conn, r.Kind, r.Msg, r.Args...)
	})
}

func (b *bot) RegisterRegex(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	t := HandlerSpec{
		Kind:    kind,
		Regex:   r,
		Handler: resp,
	}
	b.registerSpec(p, t)
}

// RegisterRegexCmd is a shortcut to register a regex handler that only
// responds to commands
func (b *bot) RegisterRegexCmd(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	t := HandlerSpec{
		Kind:    kind,
		IsCmd:   true,
		Regex:   r,
		Handler: resp,
	}
	b.registerSpec(p, t)
}

func (b *bot) RegisterTable(p Plugin, handlers HandlerTable) {
	for _, h := range handlers {
		b.registerSpec(p, h)
	}
}

func (b *bot) registerSpec(p Plugin, spec HandlerSpec) {
	b.AddPlugin(p)
	name := pluginNameFor(p)
	if _, ok := b.callbacks[name]; !ok {
		b.callbacks[name] = make(map[Kind][]HandlerSpec)
	}
	b.callbacks[name][spec.Kind] = append(b.callbacks[name][spec.Kind], spec)
}

// CheckAdmin returns a user's admin status by ID or name
func (b *bot) CheckAdmin(identifier string) bool {
	for _, admin := range b.config.GetArray("admins", []string{}) {
		if admin == identifier {
			return true
		}
	}
	return false
}

func pluginNameFor(p Plugin) string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.String()
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToLower(name)
}

// IsCmd checks if message is a command and returns its curtailed version
func IsCmd(c *config.Config, message string) (bool, string) {
	cmdcs := c.GetArray("commandchar", []string{"!"})
	botnick := strings.ToLower(c.Get("nick", "warden"))
	iscmd := false
	lowerMessage := strings.ToLower(message)

	if strings.HasPrefix(lowerMessage, botnick) &&
		len(lowerMessage) > len(botnick) &&
		strings.ContainsAny(lowerMessage[len(botnick):len(botnick)+1], ",:") {
		iscmd = true
		message = strings.TrimSpace(message[len(botnick)+1:])
	} else {
		for _, cmdc := range cmdcs {
			if strings.HasPrefix(message, cmdc) && len(cmdc) > 0 {
				iscmd = true
				message = message[len(cmdc):]
				break
			}
		}
	}

	return iscmd, message
}

// ParseValues extracts named capture groups into a values map
func ParseValues(r *regexp.Regexp, body string) RegexValues {
	out := RegexValues{}
	subs := r.FindStringSubmatch(body)
	if len(subs) == 0 {
		return out
	}
	for i, n := range r.SubexpNames() {
		if n != "" && i < len(subs) {
			out[n] = strings.TrimSpace(subs[i])
		}
	}
	return out
}

package bot

import (
	"net/http"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/config"
)

// MockBot is a Bot implementation for plugin tests. Sent messages are
// captured per kind and admin status is controlled by the Admin field.
type MockBot struct {
	mock.Mock
	db  *sqlx.DB
	Cfg *config.Config

	Admin bool
	// SendErr forces Send to fail for the given kinds
	SendErr map[Kind]error

	Messages []string
	Notices  []string
	Actions  []string
	Deleted  []string

	callbacks CallbackMap
	ordering  []string
	plugins   map[string]Plugin
}

func NewMockBot() *MockBot {
	cfg := config.ReadConfig(":memory:")
	b := MockBot{
		Cfg:       cfg,
		db:        cfg.DB,
		SendErr:   map[Kind]error{},
		Messages:  []string{},
		Notices:   []string{},
		Actions:   []string{},
		Deleted:   []string{},
		callbacks: make(CallbackMap),
		plugins:   make(map[string]Plugin),
	}
	return &b
}

func (mb *MockBot) Config() *config.Config      { return mb.Cfg }
func (mb *MockBot) DB() *sqlx.DB                { return mb.db }
func (mb *MockBot) WhoAmI() string              { return "tester" }
func (mb *MockBot) DefaultConnector() Connector { return nil }

func (mb *MockBot) Send(c Connector, kind Kind, args ...any) (string, error) {
	if err, ok := mb.SendErr[kind]; ok {
		return "", err
	}
	switch kind {
	case Message, Reply:
		mb.Messages = append(mb.Messages, args[1].(string))
	case Notice:
		mb.Notices = append(mb.Notices, args[1].(string))
	case Action:
		mb.Actions = append(mb.Actions, args[1].(string))
	case Delete:
		mb.Deleted = append(mb.Deleted, args[1].(string))
	}
	return "mock-id", nil
}

func (mb *MockBot) Receive(c Connector, kind Kind, message msg.Message, args ...any) bool {
	for _, name := range mb.ordering {
		for _, spec := range mb.callbacks[name][kind] {
			if spec.IsCmd && !message.Command {
				continue
			}
			if !spec.Regex.MatchString(message.Body) {
				continue
			}
			if spec.Handler(Request{
				Conn:   c,
				Kind:   kind,
				Msg:    message,
				Values: ParseValues(spec.Regex, message.Body),
				Args:   args,
			}) {
				return true
			}
		}
	}
	return false
}

func (mb *MockBot) AddPlugin(p Plugin) {
	name := pluginNameFor(p)
	if _, ok := mb.plugins[name]; ok {
		return
	}
	mb.plugins[name] = p
	mb.ordering = append(mb.ordering, name)
}

func (mb *MockBot) Register(p Plugin, kind Kind, cb Callback) {
	mb.RegisterRegex(p, kind, regexp.MustCompile(`.*`), func(r Request) bool {
		return cb(r.Conn, r.Kind, r.Msg, r.Args...)
	})
}

func (mb *MockBot) RegisterRegex(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	mb.registerSpec(p, HandlerSpec{Kind: kind, Regex: r, Handler: resp})
}

func (mb *MockBot) RegisterRegexCmd(p Plugin, kind Kind, r *regexp.Regexp, resp ResponseHandler) {
	mb.registerSpec(p, HandlerSpec{Kind: kind, IsCmd: true, Regex: r, Handler: resp})
}

func (mb *MockBot) RegisterTable(p Plugin, handlers HandlerTable) {
	for _, h := range handlers {
		mb.registerSpec(p, h)
	}
}

func (mb *MockBot) registerSpec(p Plugin, spec HandlerSpec) {
	mb.AddPlugin(p)
	name := pluginNameFor(p)
	if _, ok := mb.callbacks[name]; !ok {
		mb.callbacks[name] = make(map[Kind][]HandlerSpec)
	}
	mb.callbacks[name][spec.Kind] = append(mb.callbacks[name][spec.Kind], spec)
}

func (mb *MockBot) RegisterWeb(r http.Handler, root string)           {}
func (mb *MockBot) RegisterWebName(r http.Handler, root, name string) {}
func (mb *MockBot) GetWebNavigation() []EndPoint                      { return nil }
func (mb *MockBot) ListenAndServe(addr string)                        {}

func (mb *MockBot) GetPluginNames() []string {
	out := make([]string, len(mb.ordering))
	copy(out, mb.ordering)
	return out
}

func (mb *MockBot) CheckAdmin(identifier string) bool { return mb.Admin }
func (mb *MockBot) SetQuiet(bool)                     {}

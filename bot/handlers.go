package bot

import (
	"fmt"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot/msg"
)

// Receive dispatches an inbound event to each plugin in order until one
// of them claims it. A panicking handler is logged and skipped so a
// single bad message can never stop the dispatcher.
func (b *bot) Receive(conn Connector, kind Kind, message msg.Message, args ...any) bool {
	if kind == Message && strings.HasPrefix(message.Body, "help") && message.Command {
		parts := strings.Fields(strings.ToLower(message.Body))
		b.checkHelp(conn, message.Channel, parts)
		return true
	}

	for _, name := range b.pluginOrdering {
		if b.runCallback(conn, b.plugins[name], kind, message, args...) {
			return true
		}
	}

	return false
}

func (b *bot) runCallback(conn Connector, plugin Plugin, evt Kind, message msg.Message, args ...any) (handled bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msgf("plugin %s panicked handling a message", pluginNameFor(plugin))
			handled = false
		}
	}()

	t := pluginNameFor(plugin)
	for _, spec := range b.callbacks[t][evt] {
		if spec.IsCmd && !message.Command {
			continue
		}
		if !spec.Regex.MatchString(message.Body) {
			continue
		}
		req := Request{
			Conn:   conn,
			Kind:   evt,
			Msg:    message,
			Values: ParseValues(spec.Regex, message.Body),
			Args:   args,
		}
		if spec.Handler(req) {
			return true
		}
	}
	return false
}

// Send transmits a message over the connector unless the bot has been
// quieted. Moderation kinds are never quieted.
func (b *bot) Send(conn Connector, kind Kind, args ...any) (string, error) {
	if b.quiet && kind != Delete && kind != Notice {
		return "", nil
	}
	return conn.Send(kind, args...)
}

// Checks if the user is asking for help and handles it.
func (b *bot) checkHelp(conn Connector, channel string, parts []string) {
	if len(parts) == 1 {
		// just print out a list of help topics
		topics := strings.Join(b.GetPluginNames(), ", ")
		b.Send(conn, Message, channel, fmt.Sprintf("Help topics: %s\nUse `help <topic>` for commands.", topics))
		return
	}
	name := parts[1]
	specs, ok := b.callbacks[name]
	if !ok {
		b.Send(conn, Message, channel, fmt.Sprintf("I'm sorry, I don't know what %s is!", name))
		return
	}
	entries := []string{}
	for _, kindSpecs := range specs {
		for _, spec := range kindSpecs {
			if spec.HelpText == "" {
				continue
			}
			entries = append(entries, fmt.Sprintf("• %s", spec.HelpText))
		}
	}
	sort.Strings(entries)
	if len(entries) == 0 {
		b.Send(conn, Message, channel, fmt.Sprintf("%s has no commands.", name))
		return
	}
	b.Send(conn, Message, channel, fmt.Sprintf("%s commands:\n%s", name, strings.Join(entries, "\n")))
}

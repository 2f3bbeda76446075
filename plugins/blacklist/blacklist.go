package blacklist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
)

// wordsPerPage matches what fits comfortably in one chat message
const wordsPerPage = 100

// pageCharMax keeps a page under the platform's message length cap
const pageCharMax = 1990

type BlacklistPlugin struct {
	b bot.Bot
	h bot.HandlerTable

	store *Store
}

func New(b bot.Bot, store *Store) *BlacklistPlugin {
	p := &BlacklistPlugin{
		b:     b,
		store: store,
	}
	p.register()
	p.registerWeb()
	return p
}

func (p *BlacklistPlugin) register() {
	p.h = bot.HandlerTable{
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^addword (?P<word>.+)$`),
			HelpText: "addword <word> - add a word to the banned list (admin)",
			Handler:  p.isAdmin(p.addWordCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^rmword (?P<word>.+)$`),
			HelpText: "rmword <word> - remove a word from the banned list (admin)",
			Handler:  p.isAdmin(p.rmWordCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^listwords\s?(?P<page>\d*)$`),
			HelpText: "listwords [page] - browse the banned list (admin)",
			Handler:  p.isAdmin(p.listWordsCmd),
		},
		{
			Kind: bot.Message, IsCmd: true,
			Regex:    regexp.MustCompile(`(?i)^reloadwords$`),
			HelpText: "reloadwords - reload the banned list from storage (admin)",
			Handler:  p.isAdmin(p.reloadCmd),
		},
	}
	p.b.RegisterTable(p, p.h)
}

func (p *BlacklistPlugin) isAdmin(rh bot.ResponseHandler) bot.ResponseHandler {
	return func(r bot.Request) bool {
		if !p.b.CheckAdmin(r.Msg.User.ID) {
			log.Debug().Msgf("User %s is not an admin", r.Msg.User.Name)
			return false
		}
		return rh(r)
	}
}

func (p *BlacklistPlugin) addWordCmd(r bot.Request) bool {
	word := r.Values["word"]
	applied, err := p.store.Add(word)
	if err == ErrEmptyWord {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Please provide a valid word or phrase.")
		return true
	}
	if err != nil {
		log.Error().Err(err).Msg("could not persist blacklist")
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("I couldn't save the list: %s", err))
		return true
	}
	if !applied {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("`%s` is already blacklisted.", Normalize(word)))
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Added `%s` to the blacklist.", Normalize(word)))
	return true
}

func (p *BlacklistPlugin) rmWordCmd(r bot.Request) bool {
	word := r.Values["word"]
	applied, err := p.store.Remove(word)
	if err == ErrEmptyWord {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Please provide a valid word or phrase.")
		return true
	}
	if err != nil {
		log.Error().Err(err).Msg("could not persist blacklist")
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("I couldn't save the list: %s", err))
		return true
	}
	if !applied {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("`%s` not found in the blacklist.", Normalize(word)))
		return true
	}
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, fmt.Sprintf("Removed `%s` from the blacklist.", Normalize(word)))
	return true
}

func (p *BlacklistPlugin) listWordsCmd(r bot.Request) bool {
	words := p.store.Words()
	if len(words) == 0 {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, "Blacklist is empty.")
		return true
	}

	if r.Values["page"] == "" {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel, preview(words))
		return true
	}

	page, _ := strconv.Atoi(r.Values["page"])
	pages := chunkWords(words, wordsPerPage)
	if page < 1 || page > len(pages) {
		p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
			fmt.Sprintf("No such page. The blacklist has %d page(s).", len(pages)))
		return true
	}
	first := (page-1)*wordsPerPage + 1
	last := min(page*wordsPerPage, len(words))
	body := fmt.Sprintf("Blacklist page %d/%d\n\n%s\n\nShowing words %d-%d of %d",
		page, len(pages), pages[page-1], first, last, len(words))
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel, body)
	return true
}

func (p *BlacklistPlugin) reloadCmd(r bot.Request) bool {
	words := p.store.Reload()
	p.b.Send(r.Conn, bot.Message, r.Msg.Channel,
		fmt.Sprintf("Blacklist reloaded: %d words loaded.", len(words)))
	return true
}

func preview(words []string) string {
	n := min(20, len(words))
	out := fmt.Sprintf("Blacklist preview (%d words)\n\n%s", len(words), strings.Join(words[:n], ", "))
	if len(words) > n {
		out += fmt.Sprintf("\n\n(%d more words not shown; use `listwords <page>`)", len(words)-n)
	}
	return out
}

// chunkWords splits the word list into display pages of at most perPage
// entries, also capping each page's rendered length
func chunkWords(words []string, perPage int) []string {
	pages := []string{}
	page := []string{}
	length := 0
	for _, w := range words {
		addLen := len(w)
		if len(page) > 0 {
			addLen += 2
		}
		if len(page) > 0 && length+addLen > pageCharMax {
			pages = append(pages, strings.Join(page, ", "))
			page = []string{w}
			length = len(w)
		} else {
			page = append(page, w)
			length += addLen
		}
		if len(page) >= perPage {
			pages = append(pages, strings.Join(page, ", "))
			page = []string{}
			length = 0
		}
	}
	if len(page) > 0 {
		pages = append(pages, strings.Join(page, ", "))
	}
	return pages
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package automod

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Matcher is an immutable containment test compiled from a word list.
// It is replaced wholesale when the list changes; a Matcher is never
// mutated after Compile returns.
type Matcher struct {
	re *regexp.Regexp
}

// Compile builds a single combined pattern so every message is scanned
// once regardless of list size. Words match only as whole tokens,
// case-insensitively. An empty list compiles to a matcher that matches
// nothing, and a pattern error fails closed the same way.
func Compile(words []string) *Matcher {
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	if len(escaped) == 0 {
		return &Matcher{}
	}

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(escaped, "|") + `)\b`)
	if err != nil {
		log.Error().Err(err).Msg("could not compile blacklist pattern, matching nothing until reload")
		return &Matcher{}
	}
	return &Matcher{re: re}
}

func (m *Matcher) Match(text string) bool {
	if m == nil || m.re == nil {
		return false
	}
	return m.re.MatchString(text)
}

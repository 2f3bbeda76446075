package automod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchWholeWords(t *testing.T) {
	m := Compile([]string{"crap", "darn"})
	assert.True(t, m.Match("well crap"))
	assert.True(t, m.Match("crap."))
	assert.False(t, m.Match("crappy"), "substrings must not match")
	assert.False(t, m.Match("scrap"))
}

func TestMatchCaseInsensitive(t *testing.T) {
	m := Compile([]string{"crap"})
	assert.True(t, m.Match("CRAP"))
	assert.True(t, m.Match("CrAp happens"))
}

func TestEmptyListMatchesNothing(t *testing.T) {
	m := Compile(nil)
	assert.False(t, m.Match("anything at all"))
	assert.False(t, m.Match(""))
}

func TestWordsAreEscaped(t *testing.T) {
	m := Compile([]string{"a.b"})
	assert.True(t, m.Match("say a.b now"))
	assert.False(t, m.Match("say aXb now"), "metacharacters must be literal")
}

func TestCompileNormalizes(t *testing.T) {
	m := Compile([]string{"  CRAP  ", "", "   "})
	assert.True(t, m.Match("crap"))
}

func TestNilMatcherIsSafe(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("crap"))
}

package automod

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wardenbot/warden/bot"
)

func TestLedgerIncrementAndGet(t *testing.T) {
	mb := bot.NewMockBot()
	l := NewLedger(mb.DB())

	assert.Equal(t, 0, l.Get("u1"))
	assert.Equal(t, 1, l.Increment("u1"))
	assert.Equal(t, 2, l.Increment("u1"))
	assert.Equal(t, 2, l.Get("u1"))
	assert.Equal(t, 1, l.Increment("u2"), "counts are per user")
	assert.False(t, l.Degraded())
}

func TestLedgerReset(t *testing.T) {
	mb := bot.NewMockBot()
	l := NewLedger(mb.DB())

	l.Increment("u1")
	l.Increment("u1")
	l.Reset("u1")
	assert.Equal(t, 0, l.Get("u1"))
	assert.Equal(t, 1, l.Increment("u1"), "counting restarts after reset")
}

func TestLedgerSurvivesSameDB(t *testing.T) {
	mb := bot.NewMockBot()
	l := NewLedger(mb.DB())
	l.Increment("u1")
	l.Increment("u1")

	// a second ledger over the same database sees the persisted counts
	l2 := NewLedger(mb.DB())
	assert.Equal(t, 2, l2.Get("u1"))
}

func TestLedgerDegradesToMemory(t *testing.T) {
	mb := bot.NewMockBot()
	l := NewLedger(mb.DB())
	mb.DB().Close()

	assert.Equal(t, 1, l.Increment("u1"))
	assert.True(t, l.Degraded())
	assert.Equal(t, 2, l.Increment("u1"))
	assert.Equal(t, 2, l.Get("u1"))

	l.Reset("u1")
	assert.Equal(t, 0, l.Get("u1"))
	assert.Equal(t, 1, l.Increment("u2"), "fresh users start at zero in memory")
	assert.True(t, l.Degraded(), "degradation is one-way")
}

package blacklist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wardenbot/warden/bot"
)

func makeStore(t *testing.T) *Store {
	t.Helper()
	mb := bot.NewMockBot()
	return NewStore(mb.DB())
}

func TestAddRemove(t *testing.T) {
	s := makeStore(t)

	applied, err := s.Add("crap")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, s.Contains("crap"))

	applied, err = s.Remove("crap")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, s.Contains("crap"))
	assert.Equal(t, 0, s.Len())
}

func TestAddIsIdempotent(t *testing.T) {
	s := makeStore(t)
	s.Add("crap")

	applied, err := s.Add("crap")
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 1, s.Len())
}

func TestRemoveMissingIsNoOp(t *testing.T) {
	s := makeStore(t)
	applied, err := s.Remove("never added")
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestNormalization(t *testing.T) {
	s := makeStore(t)
	s.Add("  CRAP  ")
	assert.True(t, s.Contains("crap"))
	assert.True(t, s.Contains("CrAp"))
	assert.Equal(t, []string{"crap"}, s.Words())

	applied, _ := s.Add("crap")
	assert.False(t, applied, "case variants are the same word")
}

func TestEmptyWordRejected(t *testing.T) {
	s := makeStore(t)
	_, err := s.Add("   ")
	assert.ErrorIs(t, err, ErrEmptyWord)
	_, err = s.Remove("")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestWordsSorted(t *testing.T) {
	s := makeStore(t)
	s.Add("zebra")
	s.Add("apple")
	s.Add("mango")
	assert.Equal(t, []string{"apple", "mango", "zebra"}, s.Words())
}

func TestPersistenceAcrossStores(t *testing.T) {
	mb := bot.NewMockBot()
	s := NewStore(mb.DB())
	s.Add("crap")
	s.Add("darn")

	s2 := NewStore(mb.DB())
	assert.Equal(t, []string{"crap", "darn"}, s2.Words())
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	s := makeStore(t)
	ch := s.Subscribe()

	s.Add("crap")
	assert.Equal(t, []string{"crap"}, <-ch)

	s.Add("darn")
	assert.Equal(t, []string{"crap", "darn"}, <-ch)
}

func TestSubscribeLatestWins(t *testing.T) {
	s := makeStore(t)
	ch := s.Subscribe()

	// no reads in between; only the newest snapshot survives
	s.Add("one")
	s.Add("two")
	s.Add("three")

	assert.Len(t, <-ch, 3)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot: %v", extra)
	default:
	}
}

func TestNoOpDoesNotBroadcast(t *testing.T) {
	s := makeStore(t)
	s.Add("crap")
	ch := s.Subscribe()

	s.Add("crap")
	s.Remove("missing")

	select {
	case snap := <-ch:
		t.Fatalf("no-op changes must not broadcast, got %v", snap)
	default:
	}
}

func TestSlowSubscriberDoesNotBlockPeers(t *testing.T) {
	s := makeStore(t)
	s.Subscribe() // never drained
	fast := s.Subscribe()

	s.Add("one")
	s.Add("two")

	assert.Len(t, <-fast, 2)
}

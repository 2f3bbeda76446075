package automod

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

type exemptKey struct {
	guild string
	user  string
}

// permissioner is the slice of the connector the oracle needs
type permissioner interface {
	IsModerator(guildID, userID string) (bool, error)
}

// Oracle answers "may this member bypass moderation" with a bounded
// cache, since the question is asked for every message. Entries are
// dropped explicitly whenever member state changes. Exemption must be
// proven: unknown guilds or members resolve to not exempt, and failed
// lookups are not cached.
type Oracle struct {
	cache *lru.Cache[exemptKey, bool]
}

func NewOracle(size int) *Oracle {
	cache, err := lru.New[exemptKey, bool](size)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create exemption cache")
	}
	return &Oracle{cache: cache}
}

func (o *Oracle) IsExempt(perms permissioner, guildID, userID string) bool {
	if guildID == "" || userID == "" {
		return false
	}
	k := exemptKey{guildID, userID}
	if v, ok := o.cache.Get(k); ok {
		return v
	}
	exempt, err := perms.IsModerator(guildID, userID)
	if err != nil {
		log.Debug().Err(err).Msgf("could not resolve permissions for %s in %s", userID, guildID)
		return false
	}
	o.cache.Add(k, exempt)
	return exempt
}

// InvalidateUser drops the cached answer for one member
func (o *Oracle) InvalidateUser(guildID, userID string) {
	o.cache.Remove(exemptKey{guildID, userID})
}

// Invalidate drops everything, used on reload
func (o *Oracle) Invalidate() {
	o.cache.Purge()
}

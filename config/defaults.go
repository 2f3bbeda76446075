package config

import (
	"github.com/rs/zerolog/log"
)

var defaults = map[string]string{
	"nick":                 "warden",
	"commandchar":          "!;;-",
	"type":                 "discord",
	"httpaddr":             "127.0.0.1:1337",
	"admin.quietmins":      "5",
	"automod.maxwarnings":  "10",
	"automod.noticettl":    "10",
	"ai.model":             "gemini-1.5-flash",
	"ai.timeout":           "30",
	"ai.cooldown":          "3",
	"ai.maxresponse":       "1500",
	"moderation.mutemins":  "10",
	"moderation.clearmax":  "100",
	"welcome.channel":      "welcome",
	"welcome.ruleschannel": "rules",
	"welcome.chatchannel":  "chat",
}

// SetDefaults seeds a fresh config database
func (c *Config) SetDefaults() {
	tx, err := c.Beginx()
	if err != nil {
		log.Fatal().Err(err).Msg("could not begin defaults transaction")
	}
	for key, value := range defaults {
		if _, err := tx.Exec(`insert into config (key, value) values (?, ?)
			on conflict(key) do nothing;`, key, value); err != nil {
			tx.Rollback()
			log.Fatal().Err(err).Msgf("could not seed config key %s", key)
		}
	}
	if _, err := tx.Exec(`insert into config (key, value) values ('init', '1')
		on conflict(key) do update set value='1';`); err != nil {
		tx.Rollback()
		log.Fatal().Err(err).Msg("could not mark config initialized")
	}
	if err := tx.Commit(); err != nil {
		log.Fatal().Err(err).Msg("could not commit defaults")
	}
	log.Info().Msg("configuration initialized")
}

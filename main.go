package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/config"
	"github.com/wardenbot/warden/connectors/cli"
	"github.com/wardenbot/warden/connectors/discord"
	"github.com/wardenbot/warden/plugins/admin"
	"github.com/wardenbot/warden/plugins/ai"
	"github.com/wardenbot/warden/plugins/automod"
	"github.com/wardenbot/warden/plugins/blacklist"
	"github.com/wardenbot/warden/plugins/moderation"
	"github.com/wardenbot/warden/plugins/welcome"
)

var (
	dbpath = flag.String("db", "warden.db", "Database file to load")
	key    = flag.String("set", "", "Configuration key to set")
	val    = flag.String("val", "", "Configuration value to set")
	debug  = flag.Bool("debug", false, "Debug logging")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	c := config.ReadConfig(*dbpath)

	if *key != "" && *val != "" {
		if err := c.Set(*key, *val); err != nil {
			log.Fatal().Err(err).Msgf("could not set %s", *key)
		}
		log.Info().Msgf("Set config %s: %s", *key, *val)
		return
	}

	var conn bot.Connector
	switch c.Get("type", "discord") {
	case "discord":
		conn = discord.New(c)
	case "cli":
		conn = cli.New(c)
	default:
		log.Fatal().Msgf("unknown connector type %s", c.Get("type", "discord"))
	}

	b := bot.New(c, conn)

	store := blacklist.NewStore(b.DB())
	b.AddPlugin(automod.New(b, store))
	b.AddPlugin(blacklist.New(b, store))
	b.AddPlugin(ai.New(b))
	b.AddPlugin(moderation.New(b))
	b.AddPlugin(welcome.New(b))
	b.AddPlugin(admin.New(b))

	if err := conn.Serve(); err != nil {
		log.Fatal().Err(err).Msg("could not connect")
	}
	log.Info().Msgf("%s is running", c.Get("nick", "warden"))

	b.ListenAndServe(c.Get("httpaddr", "127.0.0.1:1337"))
}

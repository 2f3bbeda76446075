package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	_ "github.com/mattn/go-sqlite3"
)

// Config stores all bot configuration as key/value pairs in the bot's
// database. Keys are case-insensitive and may be overridden by an
// environment variable of the same name with dots replaced by
// underscores (e.g. ai.timeout -> AI_TIMEOUT).
type Config struct {
	*sqlx.DB

	DBFile string
}

// ReadConfig opens (or creates) the config store at dbpath
func ReadConfig(dbpath string) *Config {
	if dbpath == "" {
		dbpath = "warden.db"
	}

	sqlDB, err := sqlx.Open("sqlite3", dbpath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open config database")
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("could not ping config database")
	}

	c := &Config{
		DB:     sqlDB,
		DBFile: dbpath,
	}
	if _, err := c.Exec(`create table if not exists config (
		key string primary key,
		value string
	);`); err != nil {
		log.Fatal().Err(err).Msg("could not create config table")
	}

	if c.GetInt("init", 0) != 1 {
		c.SetDefaults()
	}

	log.Info().Msgf("using %s as config database", dbpath)
	return c
}

func envkey(key string) string {
	key = strings.ToUpper(key)
	return strings.ReplaceAll(key, ".", "_")
}

// Get returns the config value for a key or the fallback
func (c *Config) Get(key, fallback string) string {
	return c.GetString(key, fallback)
}

func (c *Config) GetString(key, fallback string) string {
	key = strings.ToLower(key)
	if v, ok := os.LookupEnv(envkey(key)); ok {
		return v
	}
	var configValue string
	err := c.DB.Get(&configValue, `select value from config where key=?`, key)
	if err != nil {
		return fallback
	}
	return configValue
}

func (c *Config) GetInt(key string, fallback int) int {
	str := c.GetString(key, strconv.Itoa(fallback))
	i, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return i
}

func (c *Config) GetFloat64(key string, fallback float64) float64 {
	str := c.GetString(key, fmt.Sprintf("%f", fallback))
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fallback
	}
	return f
}

// GetArray returns the string slice config stored under key, items
// separated by ;;
func (c *Config) GetArray(key string, fallback []string) []string {
	val := c.GetString(key, "")
	if val == "" {
		return fallback
	}
	return strings.Split(val, ";;")
}

// Set stores the value for a key, replacing any prior value
func (c *Config) Set(key, value string) error {
	key = strings.ToLower(key)
	q := `insert into config (key, value) values (?, ?)
		on conflict(key) do update set value=?;`
	if _, err := c.Exec(q, key, value, value); err != nil {
		return err
	}
	return nil
}

func (c *Config) SetArray(key string, values []string) error {
	return c.Set(key, strings.Join(values, ";;"))
}

// Unset removes a key from the config store
func (c *Config) Unset(key string) error {
	key = strings.ToLower(key)
	if _, err := c.Exec(`delete from config where key=?`, key); err != nil {
		return err
	}
	return nil
}

// Secret returns sensitive values; these are environment-first so tokens
// need never be written into the database
func (c *Config) Secret(key string) string {
	return c.GetString(key, "")
}

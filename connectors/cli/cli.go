package cli

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenbot/warden/bot"
	"github.com/wardenbot/warden/bot/msg"
	"github.com/wardenbot/warden/bot/user"
	"github.com/wardenbot/warden/config"
)

// Cli is a terminal connector for poking at the bot without a chat
// platform. Lines typed on stdin arrive as messages from a fake guild;
// moderation actions print instead of acting.
type Cli struct {
	config  *config.Config
	event   bot.Callback
	counter int
}

func New(c *config.Config) *Cli {
	return &Cli{config: c}
}

func (c *Cli) RegisterEvent(cb bot.Callback) {
	c.event = cb
}

func (c *Cli) Send(kind bot.Kind, args ...any) (string, error) {
	switch kind {
	case bot.Message, bot.Reply, bot.Action, bot.Notice:
		fmt.Printf("%s> %s\n", c.config.Get("nick", "warden"), args[1].(string))
	case bot.Delete:
		fmt.Printf("* deleted message %s\n", args[1].(string))
	}
	c.counter++
	return fmt.Sprintf("cli-%d", c.counter), nil
}

func (c *Cli) Serve() error {
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			body := scanner.Text()
			if body == "" {
				continue
			}
			isCmd, text := bot.IsCmd(c.config, body)
			c.event(c, bot.Message, msg.Message{
				ID:      fmt.Sprintf("stdin-%d", time.Now().UnixNano()),
				User:    &user.User{ID: "cli", Name: "cli"},
				Channel: "cli",
				Guild:   "cli",
				Body:    text,
				Command: isCmd,
				Time:    time.Now(),
			})
		}
		if err := scanner.Err(); err != nil {
			log.Error().Err(err).Msg("stdin closed")
		}
	}()
	return nil
}

func (c *Cli) Who(channelID string) []string { return []string{"cli"} }

func (c *Cli) Profile(userID string) (user.User, error) {
	return user.User{ID: userID, Name: userID}, nil
}

func (c *Cli) GetChannelName(id string) string         { return id }
func (c *Cli) FindChannel(guildID, name string) string { return name }
func (c *Cli) GuildName(guildID string) string         { return guildID }

func (c *Cli) GuildOwner(guildID string) (string, error) { return "", nil }

func (c *Cli) IsModerator(guildID, userID string) (bool, error) { return false, nil }

func (c *Cli) KickUser(guildID, userID, reason string) error {
	fmt.Printf("* kicked %s (%s)\n", userID, reason)
	return nil
}

func (c *Cli) BanUser(guildID, userID, reason string) error {
	fmt.Printf("* banned %s (%s)\n", userID, reason)
	return nil
}

func (c *Cli) TimeoutUser(guildID, userID string, until *time.Time, reason string) error {
	if until == nil {
		fmt.Printf("* unmuted %s\n", userID)
		return nil
	}
	fmt.Printf("* muted %s until %s (%s)\n", userID, until.Format(time.Kitchen), reason)
	return nil
}

func (c *Cli) Purge(channelID string, amount int) (int, error) {
	fmt.Printf("* purged %d messages from %s\n", amount, channelID)
	return amount, nil
}

func (c *Cli) GetRoles(guildID string) ([]bot.Role, error) { return []bot.Role{}, nil }

func (c *Cli) SetRole(guildID, userID, roleID string) error {
	fmt.Printf("* toggled role %s for %s\n", roleID, userID)
	return nil
}

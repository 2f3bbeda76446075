package msg

import (
	"time"

	"github.com/wardenbot/warden/bot/user"
)

type Messages []Message

type Message struct {
	ID   string
	User *user.User
	// Channel is the ID of a channel
	Channel string
	// ChannelName is the nice name of a channel
	ChannelName string
	// Guild is empty for direct messages
	Guild   string
	Body    string
	IsIM    bool
	Raw     interface{}
	Command bool
	Action  bool
	Time    time.Time
	// Mentions holds user IDs referenced in the body
	Mentions       []string
	AdditionalData map[string]string
}

// Package commands describes slash commands registered with the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command represents a bot command with its handler, description, and metadata.
// AdminOnly commands are wrapped with the admin check and hidden from the menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
}

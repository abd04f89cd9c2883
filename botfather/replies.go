package botfather

import (
	"chat-relay/domain"
	"fmt"
	"strings"
)

const (
	replyAskName     = "Alright, a new bot. How are we going to call it? Please choose a name for your bot."
	replyAskUsername = "Good. Now let's choose a username for your bot. It must end in 'bot'. Like this, for example: TetrisBot or tetris_bot."
	replyBadSuffix   = "Sorry, the username must end in 'bot'. Try again."
	replyTaken       = "Sorry, this username is already taken. Please try something different."
	replyInvalid     = "Sorry, this username is invalid. It must start with a letter and contain only letters, digits and underscores, 3 to 32 characters long. Try again."
	replyFailed      = "Sorry, there was an error creating your bot. Please try again later."
	replyEmptyName   = "Sorry, the name can't be empty. Please choose a name for your bot."
	replyHelp        = "I can help you create and manage Telegram bots. Here are the available commands:\n/newbot - create a new bot\n/mybots - manage your bots\n/help - show this help message"
	replyNoBots      = "You don't have any bots yet. Use /newbot to create your first bot."
	replyUnknown     = "I don't understand that command. Use /help to see available commands."

	// Greeting is posted in the bot chat of every new user.
	Greeting = "Hello! I'm BotFather. I can help you create and manage Telegram bots. Use /newbot to create a new bot."
)

func replyCreated(bot domain.Bot) string {
	return fmt.Sprintf(`Done! Congratulations on your new bot. You will find it at t.me/%s. You can now add a description, about section and profile picture for your bot, see /help for a list of commands. By the way, when you've finished creating your cool bot, ping our Bot Support if you want a better username for it. Just make sure the bot is fully operational before you do this.

Use this token to access the HTTP API:
%s
Keep your token secure and store it safely, it can be used by anyone to control your bot.

For a description of the Bot API, see this page: https://core.telegram.org/bots/api`, bot.Username, bot.Token)
}

func replyBotList(bots []domain.Bot) string {
	if len(bots) == 0 {
		return replyNoBots
	}
	lines := make([]string, 0, len(bots))
	for _, bot := range bots {
		lines = append(lines, fmt.Sprintf("@%s - %s", bot.Username, bot.Name))
	}
	return "Your bots:\n" + strings.Join(lines, "\n")
}

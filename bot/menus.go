package bot

import (
	"guestlist/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

var commandsAdmin = []tgbotapi.BotCommand{
	{Command: "stats", Description: "Guest list totals"},
	{Command: "pending", Description: "Pending requests"},
	{Command: "approve", Description: "Approve a request by id"},
	{Command: "reject", Description: "Reject a request by id"},
	{Command: "help", Description: "Show available commands"},
}

func (t *TgBot) setCommands() {
	for _, id := range t.config.AdminIds {
		_, err := t.api.SetMyCommands(commandsAdmin, &tgbotapi.SetMyCommandsOpts{
			Scope: tgbotapi.BotCommandScopeChat{ChatId: id},
		})
		if err != nil {
			t.log.With("id", id).Warn("set commands", sl.Err(err))
		}
	}
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"guestlist/entity"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const (
	commandTimeout = 10 * time.Second
	pendingLimit   = 20
)

func (t *TgBot) help(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, fmt.Sprintf("Not authorized\\. Your chat id is `%d`\\.", chatId))
		return nil
	}
	t.plainResponse(chatId, helpText)
	return nil
}

func (t *TgBot) stats(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireCore(chatId) {
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stats, err := t.core.GuestStats(c)
	if err != nil {
		t.reportError(chatId, "/stats", err)
		return nil
	}
	t.plainResponse(chatId, formatStats(stats))
	return nil
}

func (t *TgBot) pending(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireCore(chatId) {
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	guests, err := t.core.ListGuests(c)
	if err != nil {
		t.reportError(chatId, "/pending", err)
		return nil
	}
	t.plainResponse(chatId, formatPending(guests, pendingLimit))
	return nil
}

func (t *TgBot) approve(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireCore(chatId) {
		return nil
	}
	id := commandArg(ctx.EffectiveMessage.Text)
	if id == "" {
		t.plainResponse(chatId, "Usage: `/approve <id>`")
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	guest, notified, err := t.core.ApproveGuest(c, id)
	if err != nil {
		t.reportError(chatId, "/approve", err)
		return nil
	}
	msg := fmt.Sprintf("Approved: %s", Sanitize(guest.FullName()))
	if !notified {
		msg += "\n⚠️ admission email was NOT sent"
	}
	t.plainResponse(chatId, msg)
	return nil
}

func (t *TgBot) reject(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveChat.Id
	if !t.requireCore(chatId) {
		return nil
	}
	id := commandArg(ctx.EffectiveMessage.Text)
	if id == "" {
		t.plainResponse(chatId, "Usage: `/reject <id>`")
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := t.core.RejectGuest(c, id); err != nil {
		t.reportError(chatId, "/reject", err)
		return nil
	}
	t.plainResponse(chatId, fmt.Sprintf("Rejected: `%s`", Sanitize(id)))
	return nil
}

func (t *TgBot) requireCore(chatId int64) bool {
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, "Admin access required\\.")
		return false
	}
	if t.core == nil {
		t.plainResponse(chatId, "Guest service not connected\\.")
		return false
	}
	return true
}

func (t *TgBot) reportError(chatId int64, command string, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		t.plainResponse(chatId, "Guest not found\\.")
	case errors.Is(err, entity.ErrInvalidTransition):
		t.plainResponse(chatId, Sanitize(err.Error()))
	default:
		t.log.With("command", command).Warn("command failed", "error", err.Error())
		t.plainResponse(chatId, fmt.Sprintf("%s failed: %s", Sanitize(command), Sanitize(err.Error())))
	}
}

// commandArg returns the first argument after the command word.
func commandArg(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func formatStats(stats entity.GuestStats) string {
	var sb strings.Builder
	sb.WriteString("*Guest list*\n")
	sb.WriteString(fmt.Sprintf("Total: %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("Pending: %d\n", stats.Pending))
	sb.WriteString(fmt.Sprintf("Approved: %d\n", stats.Approved))
	sb.WriteString(fmt.Sprintf("Rejected: %d\n", stats.Rejected))
	sb.WriteString(fmt.Sprintf("Admitted: %d", stats.Admitted))
	return sb.String()
}

func formatPending(guests []*entity.Guest, limit int) string {
	var pending []*entity.Guest
	for _, g := range guests {
		if g.IsPending() {
			pending = append(pending, g)
		}
	}
	if len(pending) == 0 {
		return "No pending requests\\."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Pending* \\(%d\\):\n", len(pending)))
	for i, g := range pending {
		if i == limit {
			sb.WriteString(fmt.Sprintf("\\.\\.\\. and %d more", len(pending)-limit))
			break
		}
		line := Sanitize(g.FullName())
		if g.Instagram != "" {
			line += " " + Sanitize(g.Instagram)
		}
		sb.WriteString(fmt.Sprintf("%s\n`/approve %s`\n", line, Sanitize(g.Id)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

const helpText = `*Guest list bot*
/stats \- totals per status
/pending \- pending requests
/approve \<id\> \- approve and send the QR email
/reject \<id\> \- reject a request`

package logger

import (
	"context"
	"fmt"
	"guestlist/entity"
	"log/slog"
	"strings"
	"sync"
)

// TopicKey tags a record with one of the entity topics; it is rendered as a hashtag.
const TopicKey = "tg_topic"

// Sender delivers a formatted log message to Telegram admins.
type Sender interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that forwards records at or above minLevel to Telegram
type TelegramHandler struct {
	handler  slog.Handler
	sender   Sender
	minLevel slog.Level
	mu       *sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, sender Sender, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		sender:   sender,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled reports whether the wrapped handler accepts the level; records below
// minLevel are still written locally.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level < h.minLevel || h.sender == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var msg string
	if h.group != "" {
		msg = fmt.Sprintf("*%s* `%s.%s`", record.Level.String(), h.group, record.Message)
	} else {
		msg = fmt.Sprintf("*%s* `%s`", record.Level.String(), record.Message)
	}

	topic := ""
	add := func(attr slog.Attr) {
		if attr.Key == TopicKey {
			topic = attr.Value.String()
			return
		}
		msg += formatAttr(attr)
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		add(attr)
		return true
	})
	if entity.IsValidTopic(topic) {
		msg = fmt.Sprintf("\\#%s %s", topic, msg)
	}

	h.sender.SendMessageWithLevel(msg, record.Level)
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		sender:   h.sender,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		sender:   h.sender,
		minLevel: h.minLevel,
		mu:       h.mu,
		attrs:    h.attrs,
		group:    group,
	}
}

func formatAttr(attr slog.Attr) string {
	if attr.Key == "error" {
		return fmt.Sprintf("\n%s: ```error %v ```", attr.Key, attr.Value)
	}
	return escape(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
}

// escape applies Telegram MarkdownV2 escaping.
func escape(input string) string {
	reserved := "\\_{}#+-.!|()[]=*>~`"
	var sb strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reserved, char) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}

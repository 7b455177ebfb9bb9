// Package entity defines domain types shared across the application.

package entity

// Notification topics used to tag messages sent to Telegram admins.
// Log calls can tag messages with slog.String(logger.TopicKey, entity.TopicXxx).
const (
	TopicRegistration = "registration"
	TopicModeration   = "moderation"
	TopicEntry        = "entry"
	TopicError        = "error"
	TopicSystem       = "system"
)

var allTopics = []string{
	TopicRegistration,
	TopicModeration,
	TopicEntry,
	TopicError,
	TopicSystem,
}

func IsValidTopic(topic string) bool {
	for _, t := range allTopics {
		if t == topic {
			return true
		}
	}
	return false
}

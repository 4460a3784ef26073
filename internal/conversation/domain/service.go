package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrConversationNotFound = errors.New("conversation_not_found")
	ErrInvalidRole          = errors.New("invalid_message_role")
)

type Service interface {
	// GetOrCreate returns the conversation for the triple, creating it
	// with an empty summary and zero count on first access. Safe under
	// concurrent callers for the same triple.
	GetOrCreate(ctx context.Context, tenantID, actorID, botID snowflake.ID) (*Conversation, error)

	AppendMessage(ctx context.Context, conversationID snowflake.ID, role, content string) (*Message, error)
	BumpMessageCount(ctx context.Context, conversationID snowflake.ID, delta int) error

	// LoadRecent returns up to limit of the newest messages, re-ordered
	// oldest-first. Each call queries independently; there is no cursor.
	LoadRecent(ctx context.Context, conversationID snowflake.ID, limit int) ([]Message, error)

	// LoadOldest returns up to limit of the oldest messages, oldest
	// first. Summarization folds from this end so the pruned prefix is
	// always the summarized one.
	LoadOldest(ctx context.Context, conversationID snowflake.ID, limit int) ([]Message, error)

	// CompleteSummarization persists the new summary, decrements the
	// count by the folded window size, and deletes the summarized
	// prefix (id <= throughMessageID). Messages that arrive after the
	// window was loaded have larger ids and stay counted. The summary
	// write happens before the prune so a retry is safe.
	CompleteSummarization(ctx context.Context, conversationID snowflake.ID, summary string, throughMessageID snowflake.ID, folded int) error

	// Reset clears summary and count, then deletes all messages. The
	// conversation id stays stable.
	Reset(ctx context.Context, conversationID snowflake.ID) error

	// DeleteByBot removes all conversations and their messages for a
	// bot. Used by the bot deletion cascade.
	DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error
}

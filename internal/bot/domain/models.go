package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Bot is one assistant inside a tenant. OwnerActorID nil means the bot
// is shared across the whole agency; non-nil means it is private to
// that actor.
type Bot struct {
	ID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID snowflake.ID `gorm:"index" json:"tenant_id"`

	OwnerActorID *snowflake.ID `gorm:"index" json:"owner_actor_id,omitempty"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	Instructions string `gorm:"type:text" json:"instructions"`

	// KnowledgeIndexHandle is nil until an index was provisioned. A
	// bot without one cannot accept uploads or answer from documents.
	KnowledgeIndexHandle *string `gorm:"type:varchar(128)" json:"knowledge_index_handle,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Bot) TableName() string { return "bots" }

// Shared reports whether the bot is agency-wide.
func (b *Bot) Shared() bool { return b.OwnerActorID == nil }

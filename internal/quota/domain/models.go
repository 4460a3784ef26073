// Package domain contains the per-tenant-per-day quota ledger model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DayFormat is the ledger's calendar-day key layout, always UTC.
const DayFormat = "2006-01-02"

// LedgerEntry stores one tenant's counters for one UTC calendar day.
// Rows are created on first increment and never deleted; counts are
// monotonically non-decreasing within a day.
type LedgerEntry struct {
	TenantID      snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"tenant_id"`
	Day           string       `gorm:"primaryKey;type:text" json:"day"`
	MessagesCount int          `gorm:"not null;default:0" json:"messages_count"`
	UploadsCount  int          `gorm:"not null;default:0" json:"uploads_count"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "quota_ledger" }

// DayOf returns the ledger key for a point in time.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

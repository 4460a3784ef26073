// Package domain contains persistence models for tenancy and membership.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tenant represents an agency, the billing and isolation boundary.
type Tenant struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"type:text;not null" json:"name"`
	Slug         string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	ContactEmail string            `gorm:"type:text;not null;column:contact_email" json:"contact_email"`
	Plan         string            `gorm:"type:text;not null;default:'free'" json:"plan"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// Actor represents a human identity inside a tenant. Rows are never
// hard-deleted; blocked is terminal but reversible. Role and status are
// stored as loose text and normalized on every read.
type Actor struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_actors_tenant_email,priority:1" json:"tenant_id"`
	Email     string        `gorm:"type:text;not null;uniqueIndex:ux_actors_tenant_email,priority:2" json:"email"`
	Role      string        `gorm:"type:text;not null" json:"role"`
	Status    string        `gorm:"type:text;not null" json:"status"`
	InvitedBy *snowflake.ID `gorm:"column:invited_by" json:"invited_by,omitempty"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Actor) TableName() string { return "actors" }

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Indexing outcome recorded on the document row.
const (
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

// Document is one uploaded file that was pushed into a bot's knowledge
// index. Rows are written only after indexing finished.
type Document struct {
	ID       snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID snowflake.ID `gorm:"index:idx_documents_tenant_bot" json:"tenant_id"`
	BotID    snowflake.ID `gorm:"index:idx_documents_tenant_bot" json:"bot_id"`

	Filename  string `gorm:"type:varchar(255)" json:"filename"`
	SizeBytes int64  `json:"size_bytes"`

	// DocumentRef is the knowledge service's identifier for the
	// indexed document, used for status polling.
	DocumentRef string `gorm:"type:varchar(128)" json:"document_ref"`
	Status      string `gorm:"type:varchar(16)" json:"status"`

	UploadedBy snowflake.ID `json:"uploaded_by"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (Document) TableName() string { return "documents" }

// ExtractionRecord holds structured fields pulled out of an indexed
// document. Available on plans with the extraction feature.
type ExtractionRecord struct {
	ID         snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID   snowflake.ID `gorm:"index:idx_extractions_tenant_bot" json:"tenant_id"`
	BotID      snowflake.ID `gorm:"index:idx_extractions_tenant_bot" json:"bot_id"`
	DocumentID snowflake.ID `gorm:"index" json:"document_id"`

	Field string `gorm:"type:varchar(128)" json:"field"`
	Value string `gorm:"type:text" json:"value"`

	CreatedAt time.Time `json:"created_at"`
}

func (ExtractionRecord) TableName() string { return "extraction_records" }

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	InsertDocument(ctx context.Context, doc *Document) error
	ListByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]Document, error)
	DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error

	InsertExtraction(ctx context.Context, rec *ExtractionRecord) error
	ListExtractionsByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]ExtractionRecord, error)
	DeleteExtractionsByBot(ctx context.Context, tenantID, botID snowflake.ID) error
}

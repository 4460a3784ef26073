package domain

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/tenantctx"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrEmptyDocument   = errors.New("empty_document")
	ErrNoIndexHandle   = errors.New("bot_has_no_index")
	ErrIndexingFailed  = errors.New("indexing_failed")
	ErrIndexingTimeout = errors.New("indexing_timeout")
)

type UploadInput struct {
	BotID    snowflake.ID
	Filename string
	Content  []byte
}

type Service interface {
	// Upload pushes a file into the bot's knowledge index, waits for
	// indexing to finish, records the document, and only then charges
	// the daily upload quota.
	Upload(ctx context.Context, authed *tenantctx.AuthedContext, in UploadInput) (*Document, error)
	List(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]Document, error)
	// ListExtractions is gated on the plan's extraction feature.
	ListExtractions(ctx context.Context, authed *tenantctx.AuthedContext, botID snowflake.ID) ([]ExtractionRecord, error)
}

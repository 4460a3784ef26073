package repository

import (
	"context"

	"github.com/agencydesk/agencydesk/internal/document/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) InsertDocument(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repository) ListByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Order("created_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Delete(&domain.Document{}).Error
}

func (r *repository) InsertExtraction(ctx context.Context, rec *domain.ExtractionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) ListExtractionsByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]domain.ExtractionRecord, error) {
	var recs []domain.ExtractionRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repository) DeleteExtractionsByBot(ctx context.Context, tenantID, botID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Delete(&domain.ExtractionRecord{}).Error
}

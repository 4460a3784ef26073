package repository

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/bot/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, bot *domain.Bot) error {
	return r.db.WithContext(ctx).Create(bot).Error
}

func (r *repository) Get(ctx context.Context, tenantID, botID snowflake.ID) (*domain.Bot, error) {
	var bot domain.Bot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, botID).
		First(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *repository) ListVisible(ctx context.Context, tenantID, actorID snowflake.ID) ([]domain.Bot, error) {
	var bots []domain.Bot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND (owner_actor_id IS NULL OR owner_actor_id = ?)", tenantID, actorID).
		Order("created_at ASC").
		Find(&bots).Error
	if err != nil {
		return nil, err
	}
	return bots, nil
}

func (r *repository) CountShared(ctx context.Context, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Bot{}).
		Where("tenant_id = ? AND owner_actor_id IS NULL", tenantID).
		Count(&count).Error
	return count, err
}

func (r *repository) DeleteMatching(ctx context.Context, tenantID, botID snowflake.ID, ownerActorID *snowflake.ID) (bool, error) {
	tx := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, botID)
	if ownerActorID == nil {
		tx = tx.Where("owner_actor_id IS NULL")
	} else {
		tx = tx.Where("owner_actor_id = ?", *ownerActorID)
	}
	res := tx.Delete(&domain.Bot{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

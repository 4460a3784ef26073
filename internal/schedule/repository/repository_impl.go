package repository

import (
	"context"
	"errors"

	"github.com/agencydesk/agencydesk/internal/schedule/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) InsertEvent(ctx context.Context, ev *domain.ScheduleEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *repository) ListEventsByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]domain.ScheduleEvent, error) {
	var events []domain.ScheduleEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) InsertTask(ctx context.Context, task *domain.ScheduleTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *repository) ListTasksByBot(ctx context.Context, tenantID, botID snowflake.ID) ([]domain.ScheduleTask, error) {
	var tasks []domain.ScheduleTask
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *repository) GetTask(ctx context.Context, tenantID, taskID snowflake.ID) (*domain.ScheduleTask, error) {
	var task domain.ScheduleTask
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, taskID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *repository) MarkTaskDone(ctx context.Context, tenantID, taskID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Model(&domain.ScheduleTask{}).
		Where("tenant_id = ? AND id = ?", tenantID, taskID).
		Update("done", true).Error
}

func (r *repository) DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error {
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Delete(&domain.ScheduleEvent{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Delete(&domain.ScheduleTask{}).Error
}

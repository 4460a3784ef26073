package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/agencydesk/agencydesk/internal/tenant/domain"
	pkgdb "github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) GetTenant(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) UpdateTenantPlan(ctx context.Context, id snowflake.ID, plan string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", id).
		Update("plan", plan).Error
}

func (r *repository) CountActors(ctx context.Context, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountBillableSeats(ctx context.Context, tenantID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("tenant_id = ? AND role = ? AND status = ?", tenantID, "member", "active").
		Count(&count).Error
	return count, err
}

func (r *repository) GetActorByID(ctx context.Context, tenantID, actorID snowflake.ID) (*domain.Actor, error) {
	var actor domain.Actor
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, actorID).
		First(&actor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &actor, nil
}

func (r *repository) GetActorByEmail(ctx context.Context, tenantID snowflake.ID, email string) (*domain.Actor, error) {
	var actor domain.Actor
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email))).
		First(&actor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &actor, nil
}

func (r *repository) ListActors(ctx context.Context, tenantID snowflake.ID) ([]domain.Actor, error) {
	var actors []domain.Actor
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&actors).Error
	if err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *repository) InsertActorIfAbsent(ctx context.Context, actor *domain.Actor) (bool, error) {
	actor.Email = strings.ToLower(strings.TrimSpace(actor.Email))
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "email"}},
			DoNothing: true,
		}).
		Create(actor)
	if result.Error != nil {
		// Some drivers surface the conflict instead of honoring the clause.
		if pkgdb.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateActorRole(ctx context.Context, tenantID, actorID snowflake.ID, role string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("tenant_id = ? AND id = ?", tenantID, actorID).
		Update("role", role).Error
}

func (r *repository) UpdateActorStatus(ctx context.Context, tenantID, actorID snowflake.ID, status string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Actor{}).
		Where("tenant_id = ? AND id = ?", tenantID, actorID).
		Update("status", status).Error
}

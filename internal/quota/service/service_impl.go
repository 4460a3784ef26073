package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/plan"
	"github.com/agencydesk/agencydesk/internal/quota/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("quota.service"),
	}
}

func (s *Service) GetDailyUsage(ctx context.Context, tenantID snowflake.ID, day string) (domain.Usage, error) {
	var entry domain.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND day = ?", tenantID, day).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Usage{}, nil
		}
		return domain.Usage{}, err
	}
	return domain.Usage{
		MessagesCount: entry.MessagesCount,
		UploadsCount:  entry.UploadsCount,
	}, nil
}

func (s *Service) IncrementMessages(ctx context.Context, tenantID snowflake.ID, day string) error {
	return s.upsertAdd(ctx, tenantID, day, 1, 0)
}

func (s *Service) IncrementUploads(ctx context.Context, tenantID snowflake.ID, day string, by int) error {
	if by <= 0 {
		return nil
	}
	return s.upsertAdd(ctx, tenantID, day, 0, by)
}

// upsertAdd is a single-statement increment-or-create so concurrent
// writers for the same (tenant, day) key never lose an update.
func (s *Service) upsertAdd(ctx context.Context, tenantID snowflake.ID, day string, messages, uploads int) error {
	if tenantID == 0 || strings.TrimSpace(day) == "" {
		return errors.New("invalid_ledger_key")
	}
	now := time.Now().UTC()
	if strings.EqualFold(s.db.Dialector.Name(), "mysql") {
		return s.db.WithContext(ctx).Exec(
			`INSERT INTO quota_ledger (tenant_id, day, messages_count, uploads_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE
			   messages_count = messages_count + VALUES(messages_count),
			   uploads_count = uploads_count + VALUES(uploads_count),
			   updated_at = VALUES(updated_at)`,
			tenantID,
			day,
			messages,
			uploads,
			now,
			now,
		).Error
	}
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO quota_ledger (tenant_id, day, messages_count, uploads_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, day) DO UPDATE SET
		   messages_count = quota_ledger.messages_count + excluded.messages_count,
		   uploads_count = quota_ledger.uploads_count + excluded.uploads_count,
		   updated_at = excluded.updated_at`,
		tenantID,
		day,
		messages,
		uploads,
		now,
		now,
	).Error
}

func (s *Service) EnforceDailyLimit(ctx context.Context, tenantID snowflake.ID, tier plan.Tier, day string) error {
	usage, err := s.GetDailyUsage(ctx, tenantID, day)
	if err != nil {
		return err
	}
	limit := plan.LimitsFor(tier).DailyMessages
	if limit == nil {
		return nil
	}
	if usage.MessagesCount >= *limit {
		return &domain.ExceededError{Used: usage.MessagesCount, Cap: *limit, Plan: tier}
	}
	return nil
}

func (s *Service) EnforceUploadLimit(ctx context.Context, tenantID snowflake.ID, tier plan.Tier, day string) error {
	limits := plan.LimitsFor(tier)
	if limits.DailyUploads == nil {
		return nil
	}
	usage, err := s.GetDailyUsage(ctx, tenantID, day)
	if err != nil {
		return err
	}
	if usage.UploadsCount >= *limits.DailyUploads {
		return &domain.ExceededError{Used: usage.UploadsCount, Cap: *limits.DailyUploads, Plan: tier}
	}
	return nil
}

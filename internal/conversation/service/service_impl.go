package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/agencydesk/agencydesk/internal/conversation/domain"
	pkgdb "github.com/agencydesk/agencydesk/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("conversation.service"),
		genID: p.GenID,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, tenantID, actorID, botID snowflake.ID) (*domain.Conversation, error) {
	existing, err := s.find(ctx, tenantID, actorID, botID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	conv := &domain.Conversation{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		ActorID:   actorID,
		BotID:     botID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "actor_id"}, {Name: "bot_id"}},
			DoNothing: true,
		}).
		Create(conv)
	if result.Error != nil && !pkgdb.IsDuplicateKeyErr(result.Error) {
		return nil, result.Error
	}
	if result.Error == nil && result.RowsAffected > 0 {
		return conv, nil
	}
	// Lost the race: a concurrent request created the row first.
	return s.find(ctx, tenantID, actorID, botID)
}

func (s *Service) find(ctx context.Context, tenantID, actorID, botID snowflake.ID) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND actor_id = ? AND bot_id = ?", tenantID, actorID, botID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (s *Service) AppendMessage(ctx context.Context, conversationID snowflake.ID, role, content string) (*domain.Message, error) {
	switch role {
	case domain.RoleUser, domain.RoleAssistant:
	default:
		return nil, domain.ErrInvalidRole
	}
	msg := &domain.Message{
		ID:             s.genID.Generate(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) BumpMessageCount(ctx context.Context, conversationID snowflake.ID, delta int) error {
	return s.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"message_count": gorm.Expr("message_count + ?", delta),
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (s *Service) LoadRecent(ctx context.Context, conversationID snowflake.ID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 40
	}
	var newest []domain.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, err
	}
	// Reverse to oldest-first for prompt assembly.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

func (s *Service) LoadOldest(ctx context.Context, conversationID snowflake.ID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 40
	}
	var oldest []domain.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&oldest).Error
	if err != nil {
		return nil, err
	}
	return oldest, nil
}

func (s *Service) CompleteSummarization(ctx context.Context, conversationID snowflake.ID, summary string, throughMessageID snowflake.ID, folded int) error {
	summary = strings.TrimSpace(summary)
	err := s.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"message_count": gorm.Expr("message_count - ?", folded),
			"summary":       summary,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("conversation_id = ? AND id <= ?", conversationID, throughMessageID).
		Delete(&domain.Message{}).Error
}

func (s *Service) Reset(ctx context.Context, conversationID snowflake.ID) error {
	err := s.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"summary":       nil,
			"message_count": 0,
			"updated_at":    time.Now().UTC(),
		}).Error
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&domain.Message{}).Error
}

func (s *Service) DeleteByBot(ctx context.Context, tenantID, botID snowflake.ID) error {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Delete(&domain.Message{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("tenant_id = ? AND bot_id = ?", tenantID, botID).
		Delete(&domain.Conversation{}).Error
}

package service

import (
	"context"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"go.uber.org/zap"
)

// AuditService 审计日志服务。写入失败只告警，不影响主流程。
type AuditService struct {
	repo   *repository.AuditLogRepository
	logger *zap.Logger
}

// NewAuditService 创建审计日志服务
func NewAuditService(repo *repository.AuditLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record 记录一次变更操作
func (s *AuditService) Record(ctx context.Context, actor Actor, action, entityType, entityID, details string) {
	log := &entity.AuditLog{
		UserID:    actor.ID,
		Action:    action,
		Entity:    entityType,
		EntityID:  entityID,
		Details:   details,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// ListByEntity 查询某实体的审计日志
func (s *AuditService) ListByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	return s.repo.FindByEntity(ctx, entityType, entityID, page, pageSize)
}

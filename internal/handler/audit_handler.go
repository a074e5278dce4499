package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// AuditHandler 审计日志处理器
type AuditHandler struct {
	svc *service.AuditService
}

// NewAuditHandler 创建审计日志处理器
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// ListByEntity 按实体查询审计日志
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	entityType := c.Query("entity")
	entityID := c.Query("entity_id")
	if entityType == "" || entityID == "" {
		BadRequest(c, "entity and entity_id are required")
		return
	}

	page, pageSize := GetPagination(c)
	logs, total, err := h.svc.ListByEntity(c.Request.Context(), entityType, entityID, page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{
		"items":     logs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// MaintenanceHandler 维护计划处理器
type MaintenanceHandler struct {
	svc *service.MaintenanceService
}

// NewMaintenanceHandler 创建维护计划处理器
func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

// List 维护计划列表
func (h *MaintenanceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	query := service.MaintenanceListQuery{
		Page:            page,
		PageSize:        pageSize,
		Status:          c.Query("status"),
		MachineID:       c.Query("machine_id"),
		TechnicianID:    c.Query("technician_id"),
		MaintenanceType: c.Query("maintenance_type"),
		Keyword:         c.Query("keyword"),
		StartDate:       parseDate(c.Query("start_date")),
		EndDate:         parseDate(c.Query("end_date")),
	}

	result, err := h.svc.List(c.Request.Context(), query)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Get 维护计划详情
func (h *MaintenanceHandler) Get(c *gin.Context) {
	schedule, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, schedule)
}

// CreateMaintenanceRequest 创建维护计划请求
type CreateMaintenanceRequest struct {
	Title             string                 `json:"title" binding:"required,min=5,max=200"`
	Description       string                 `json:"description"`
	MachineID         string                 `json:"machine_id" binding:"required"`
	TechnicianID      string                 `json:"technician_id"`
	ScheduledDate     time.Time              `json:"scheduled_date" binding:"required"`
	EstimatedDuration int                    `json:"estimated_duration" binding:"omitempty,min=15,max=1440"`
	MaintenanceType   string                 `json:"maintenance_type" binding:"omitempty,oneof=preventive corrective emergency inspection"`
	Priority          string                 `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Frequency         string                 `json:"frequency" binding:"omitempty,oneof=once daily weekly monthly quarterly yearly"`
	RecurrencePattern map[string]interface{} `json:"recurrence_pattern"`
	Checklist         []interface{}          `json:"checklist"`
	RequiredParts     []interface{}          `json:"required_parts"`
	EstimatedCost     float64                `json:"estimated_cost" binding:"omitempty,min=0"`
	Notes             string                 `json:"notes"`
}

// Create 创建维护计划
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var req CreateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.svc.Create(c.Request.Context(), GetActor(c), service.CreateMaintenanceInput{
		Title:             req.Title,
		Description:       req.Description,
		MachineID:         req.MachineID,
		TechnicianID:      req.TechnicianID,
		ScheduledDate:     req.ScheduledDate,
		EstimatedDuration: req.EstimatedDuration,
		MaintenanceType:   req.MaintenanceType,
		Priority:          req.Priority,
		Frequency:         req.Frequency,
		RecurrencePattern: entity.JSONB(req.RecurrencePattern),
		Checklist:         entity.JSONBArray(req.Checklist),
		RequiredParts:     entity.JSONBArray(req.RequiredParts),
		EstimatedCost:     req.EstimatedCost,
		Notes:             req.Notes,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, schedule)
}

// UpdateMaintenanceRequest 更新维护计划请求
type UpdateMaintenanceRequest struct {
	Title             *string                `json:"title" binding:"omitempty,min=5,max=200"`
	Description       *string                `json:"description"`
	TechnicianID      *string                `json:"technician_id"`
	ScheduledDate     *time.Time             `json:"scheduled_date"`
	EstimatedDuration *int                   `json:"estimated_duration" binding:"omitempty,min=15,max=1440"`
	MaintenanceType   *string                `json:"maintenance_type" binding:"omitempty,oneof=preventive corrective emergency inspection"`
	Priority          *string                `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Status            *string                `json:"status" binding:"omitempty,oneof=scheduled in_progress completed cancelled overdue"`
	Frequency         *string                `json:"frequency" binding:"omitempty,oneof=once daily weekly monthly quarterly yearly"`
	RecurrencePattern map[string]interface{} `json:"recurrence_pattern"`
	Checklist         []interface{}          `json:"checklist"`
	RequiredParts     []interface{}          `json:"required_parts"`
	EstimatedCost     *float64               `json:"estimated_cost" binding:"omitempty,min=0"`
	ActualCost        *float64               `json:"actual_cost" binding:"omitempty,min=0"`
	Notes             *string                `json:"notes"`
}

// Update 更新维护计划
func (h *MaintenanceHandler) Update(c *gin.Context) {
	var req UpdateMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), service.UpdateMaintenanceInput{
		Title:             req.Title,
		Description:       req.Description,
		TechnicianID:      req.TechnicianID,
		ScheduledDate:     req.ScheduledDate,
		EstimatedDuration: req.EstimatedDuration,
		MaintenanceType:   req.MaintenanceType,
		Priority:          req.Priority,
		Status:            req.Status,
		Frequency:         req.Frequency,
		RecurrencePattern: entity.JSONB(req.RecurrencePattern),
		Checklist:         entity.JSONBArray(req.Checklist),
		RequiredParts:     entity.JSONBArray(req.RequiredParts),
		EstimatedCost:     req.EstimatedCost,
		ActualCost:        req.ActualCost,
		Notes:             req.Notes,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, schedule)
}

// Complete 完成维护，multipart表单可携带附件
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	var input service.CompleteMaintenanceInput
	input.CompletionNotes = c.PostForm("completion_notes")
	if v := c.PostForm("actual_cost"); v != "" {
		if _, err := fmt.Sscanf(v, "%f", &input.ActualCost); err != nil {
			BadRequest(c, "Invalid actual_cost")
			return
		}
	}

	files, closeAll, err := CollectUploads(c, "files")
	if err != nil {
		BadRequest(c, "Invalid attachment: "+err.Error())
		return
	}
	defer closeAll()

	schedule, err := h.svc.Complete(c.Request.Context(), GetActor(c), c.Param("id"), input, files)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, schedule)
}

// Delete 删除维护计划
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, nil)
}

// Overdue 逾期的维护计划
func (h *MaintenanceHandler) Overdue(c *gin.Context) {
	schedules, err := h.svc.Overdue(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": schedules, "total": len(schedules)})
}

// Stats 维护统计
func (h *MaintenanceHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), parseDate(c.Query("start_date")), parseDate(c.Query("end_date")))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, stats)
}

// ExportStats 导出维护统计xlsx
func (h *MaintenanceHandler) ExportStats(c *gin.Context) {
	buf, err := h.svc.ExportStats(c.Request.Context(), parseDate(c.Query("start_date")), parseDate(c.Query("end_date")))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	filename := fmt.Sprintf("maintenance-stats-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// ReportHandler 工作报告处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建工作报告处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// CreateReportRequest 创建报告请求，multipart表单
type CreateReportRequest struct {
	Title              string `form:"title" binding:"required,min=5,max=200"`
	WorkDate           string `form:"work_date" binding:"required"`
	StartTime          string `form:"start_time" binding:"required"`
	EndTime            string `form:"end_time" binding:"required"`
	MachineID          string `form:"machine_id" binding:"required"`
	WorkType           string `form:"work_type" binding:"omitempty,oneof=maintenance repair inspection installation other"`
	ProblemDescription string `form:"problem_description" binding:"required,min=10"`
	ActionsTaken       string `form:"actions_taken" binding:"required,min=10"`
	PartsUsed          string `form:"parts_used"` // JSON数组
	ToolsUsed          string `form:"tools_used"` // JSON数组
	Observations       string `form:"observations"`
	Recommendations    string `form:"recommendations"`
	Priority           string `form:"priority" binding:"omitempty,oneof=low medium high critical"`
}

func parseJSONArray(value string) entity.JSONBArray {
	if value == "" {
		return nil
	}
	var arr []interface{}
	if err := json.Unmarshal([]byte(value), &arr); err != nil {
		return nil
	}
	return entity.JSONBArray(arr)
}

// Create 创建报告
func (h *ReportHandler) Create(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		BadRequest(c, "Invalid work_date, expected YYYY-MM-DD")
		return
	}

	files, closeAll, err := CollectUploads(c, "files")
	if err != nil {
		BadRequest(c, "Invalid attachment: "+err.Error())
		return
	}
	defer closeAll()

	report, err := h.svc.Create(c.Request.Context(), GetActor(c), service.CreateReportInput{
		Title:              req.Title,
		WorkDate:           workDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		MachineID:          req.MachineID,
		WorkType:           req.WorkType,
		ProblemDescription: req.ProblemDescription,
		ActionsTaken:       req.ActionsTaken,
		PartsUsed:          parseJSONArray(req.PartsUsed),
		ToolsUsed:          parseJSONArray(req.ToolsUsed),
		Observations:       req.Observations,
		Recommendations:    req.Recommendations,
		Priority:           req.Priority,
	}, files)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, report)
}

// List 报告列表
func (h *ReportHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	query := service.ReportListQuery{
		Page:         page,
		PageSize:     pageSize,
		Status:       c.Query("status"),
		MachineID:    c.Query("machine_id"),
		TechnicianID: c.Query("technician_id"),
		WorkDate:     parseDate(c.Query("work_date")),
		Keyword:      c.Query("keyword"),
	}

	result, err := h.svc.List(c.Request.Context(), GetActor(c), query)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Get 报告详情
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, report)
}

// UpdateReportRequest 更新报告请求
type UpdateReportRequest struct {
	Title              *string       `json:"title" binding:"omitempty,min=5,max=200"`
	WorkDate           *string       `json:"work_date"`
	StartTime          *string       `json:"start_time"`
	EndTime            *string       `json:"end_time"`
	MachineID          *string       `json:"machine_id"`
	WorkType           *string       `json:"work_type" binding:"omitempty,oneof=maintenance repair inspection installation other"`
	ProblemDescription *string       `json:"problem_description" binding:"omitempty,min=10"`
	ActionsTaken       *string       `json:"actions_taken" binding:"omitempty,min=10"`
	PartsUsed          []interface{} `json:"parts_used"`
	ToolsUsed          []interface{} `json:"tools_used"`
	Observations       *string       `json:"observations"`
	Recommendations    *string       `json:"recommendations"`
	Priority           *string       `json:"priority" binding:"omitempty,oneof=low medium high critical"`
}

// Update 更新报告
func (h *ReportHandler) Update(c *gin.Context) {
	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	input := service.UpdateReportInput{
		Title:              req.Title,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		MachineID:          req.MachineID,
		WorkType:           req.WorkType,
		ProblemDescription: req.ProblemDescription,
		ActionsTaken:       req.ActionsTaken,
		PartsUsed:          entity.JSONBArray(req.PartsUsed),
		ToolsUsed:          entity.JSONBArray(req.ToolsUsed),
		Observations:       req.Observations,
		Recommendations:    req.Recommendations,
		Priority:           req.Priority,
	}
	if req.WorkDate != nil {
		workDate, err := time.Parse("2006-01-02", *req.WorkDate)
		if err != nil {
			BadRequest(c, "Invalid work_date, expected YYYY-MM-DD")
			return
		}
		input.WorkDate = &workDate
	}

	report, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), input)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, report)
}

// Submit 提交报告
func (h *ReportHandler) Submit(c *gin.Context) {
	report, err := h.svc.Submit(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, report)
}

// Delete 删除报告
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, nil)
}

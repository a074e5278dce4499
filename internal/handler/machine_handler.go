package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// MachineHandler 设备处理器
type MachineHandler struct {
	svc *service.MachineService
}

// NewMachineHandler 创建设备处理器
func NewMachineHandler(svc *service.MachineService) *MachineHandler {
	return &MachineHandler{svc: svc}
}

// List 设备列表
func (h *MachineHandler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), c.Query("status"), c.Query("keyword"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Get 设备详情
func (h *MachineHandler) Get(c *gin.Context) {
	machine, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, machine)
}

// CreateMachineRequest 创建设备请求，multipart表单
type CreateMachineRequest struct {
	Name             string `form:"name" binding:"required,min=2,max=100"`
	Reference        string `form:"reference" binding:"required"`
	Brand            string `form:"brand"`
	Model            string `form:"model"`
	SerialNumber     string `form:"serial_number"`
	Location         string `form:"location" binding:"required"`
	Department       string `form:"department" binding:"required"`
	Description      string `form:"description"`
	InstallationDate string `form:"installation_date"` // YYYY-MM-DD
	WarrantyEndDate  string `form:"warranty_end_date"` // YYYY-MM-DD
	Status           string `form:"status" binding:"omitempty,oneof=operational maintenance breakdown retired"`
	Priority         string `form:"priority" binding:"omitempty,oneof=low medium high critical"`
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}

// Create 创建设备，可携带图片文件
func (h *MachineHandler) Create(c *gin.Context) {
	var req CreateMachineRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var image *service.FileUpload
	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		image = &service.FileUpload{
			Reader:      file,
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		}
	}

	machine, err := h.svc.Create(c.Request.Context(), GetActor(c), service.CreateMachineInput{
		Name:             req.Name,
		Reference:        req.Reference,
		Brand:            req.Brand,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Location:         req.Location,
		Department:       req.Department,
		Description:      req.Description,
		InstallationDate: parseDate(req.InstallationDate),
		WarrantyEndDate:  parseDate(req.WarrantyEndDate),
		Status:           req.Status,
		Priority:         req.Priority,
	}, image)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, machine)
}

// UpdateMachineRequest 更新设备请求
type UpdateMachineRequest struct {
	Name             *string `form:"name" binding:"omitempty,min=2,max=100"`
	Reference        *string `form:"reference"`
	Brand            *string `form:"brand"`
	Model            *string `form:"model"`
	SerialNumber     *string `form:"serial_number"`
	Location         *string `form:"location"`
	Department       *string `form:"department"`
	Description      *string `form:"description"`
	InstallationDate *string `form:"installation_date"`
	WarrantyEndDate  *string `form:"warranty_end_date"`
	Status           *string `form:"status" binding:"omitempty,oneof=operational maintenance breakdown retired"`
	Priority         *string `form:"priority" binding:"omitempty,oneof=low medium high critical"`
}

// Update 更新设备
func (h *MachineHandler) Update(c *gin.Context) {
	var req UpdateMachineRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var image *service.FileUpload
	if file, header, err := c.Request.FormFile("image"); err == nil {
		defer file.Close()
		image = &service.FileUpload{
			Reader:      file,
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		}
	}

	input := service.UpdateMachineInput{
		Name:         req.Name,
		Reference:    req.Reference,
		Brand:        req.Brand,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		Department:   req.Department,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
	}
	if req.InstallationDate != nil {
		input.InstallationDate = parseDate(*req.InstallationDate)
	}
	if req.WarrantyEndDate != nil {
		input.WarrantyEndDate = parseDate(*req.WarrantyEndDate)
	}

	machine, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), input, image)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, machine)
}

// Delete 删除设备
func (h *MachineHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, nil)
}

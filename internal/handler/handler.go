package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/config"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Machine     *MachineHandler
	Maintenance *MaintenanceHandler
	Report      *ReportHandler
	Audit       *AuditHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(svc.Auth, cfg),
		User:        NewUserHandler(svc.User),
		Machine:     NewMachineHandler(svc.Machine),
		Maintenance: NewMaintenanceHandler(svc.Maintenance),
		Report:      NewReportHandler(svc.Report),
		Audit:       NewAuditHandler(svc.Audit),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError 将业务错误映射为响应
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidTechnician),
		errors.Is(err, service.ErrEmailTaken):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrAlreadySubmitted):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrUserInactive):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetActor 从上下文提取操作者信息
func GetActor(c *gin.Context) service.Actor {
	return service.Actor{
		ID:        GetUserID(c),
		Role:      c.GetString("user_role"),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// CollectUploads 收集multipart表单中指定字段的所有文件。
// 返回的closer须在请求结束前调用。
func CollectUploads(c *gin.Context, field string) ([]*service.FileUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, nil
	}

	var uploads []*service.FileUpload
	var closers []func()
	for _, header := range form.File[field] {
		f, err := header.Open()
		if err != nil {
			for _, closeFn := range closers {
				closeFn()
			}
			return nil, func() {}, err
		}
		file := f
		closers = append(closers, func() { file.Close() })
		uploads = append(uploads, &service.FileUpload{
			Reader:      f,
			Filename:    header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	closeAll := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
	return uploads, closeAll, nil
}

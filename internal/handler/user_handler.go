package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bitfantasy/nimo-cmms/internal/service"
)

// UserHandler 用户处理器
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List 用户列表
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context(), c.Query("keyword"), c.Query("role"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"users": users})
}

// Get 用户详情
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, user)
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"omitempty,oneof=admin technician administration"`
	Phone     string `json:"phone"`
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.Create(c.Request.Context(), GetActor(c), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Phone:     req.Phone,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Created(c, user)
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
	Role      *string `json:"role" binding:"omitempty,oneof=admin technician administration"`
	Phone     *string `json:"phone"`
	IsActive  *bool   `json:"is_active"`
}

// Update 更新用户
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), service.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		Phone:     req.Phone,
		IsActive:  req.IsActive,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, user)
}

// UpdateAvatar 更新用户头像
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		BadRequest(c, "Avatar file is required")
		return
	}
	defer file.Close()

	upload := &service.FileUpload{
		Reader:      file,
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}

	user, err := h.svc.UpdateAvatar(c.Request.Context(), GetActor(c), c.Param("id"), upload)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, user)
}

// ToggleStatus 启用/停用用户
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	user, err := h.svc.ToggleStatus(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, user)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), c.Param("id")); err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, nil)
}

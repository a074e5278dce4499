package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
)

// bcryptCost 密码哈希强度
const bcryptCost = 12

// UserService 用户管理服务
type UserService struct {
	userRepo       *repository.UserRepository
	attachmentRepo *repository.AttachmentRepository
	storage        *StorageService
	audit          *AuditService
}

// NewUserService 创建用户服务
func NewUserService(userRepo *repository.UserRepository, attachmentRepo *repository.AttachmentRepository, storage *StorageService, audit *AuditService) *UserService {
	return &UserService{
		userRepo:       userRepo,
		attachmentRepo: attachmentRepo,
		storage:        storage,
		audit:          audit,
	}
}

// CreateUserInput 创建用户参数
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
	Phone     string
}

// UpdateUserInput 更新用户参数，nil字段表示不修改
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *string
	Phone     *string
	IsActive  *bool
}

// List 用户列表
func (s *UserService) List(ctx context.Context, keyword, role string) ([]entity.User, error) {
	filters := map[string]interface{}{}
	if keyword != "" {
		filters["keyword"] = keyword
	}
	if role != "" && role != "all" {
		filters["role"] = role
	}
	return s.userRepo.List(ctx, filters)
}

// Get 用户详情
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// Create 创建用户
func (s *UserService) Create(ctx context.Context, actor Actor, input CreateUserInput) (*entity.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: 密码长度至少8位", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = entity.RoleTechnician
	}

	user := &entity.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hashed),
		Role:      role,
		Phone:     input.Phone,
		IsActive:  true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionCreate, "user", user.ID,
		fmt.Sprintf("创建用户 %s %s", user.FirstName, user.LastName))

	return user, nil
}

// Update 更新用户
func (s *UserService) Update(ctx context.Context, actor Actor, id string, input UpdateUserInput) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.userRepo.FindByEmail(ctx, *input.Email)
		if err != nil && err != repository.ErrNotFound {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
		user.Email = *input.Email
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, fmt.Errorf("%w: 密码长度至少8位", ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "user", user.ID,
		fmt.Sprintf("更新用户 %s %s", user.FirstName, user.LastName))

	return user, nil
}

// UpdateAvatar 更新用户头像，上传新文件并替换旧附件记录
func (s *UserService) UpdateAvatar(ctx context.Context, actor Actor, id string, file *FileUpload) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.storage.Save(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	// 删除旧头像附件
	old, err := s.attachmentRepo.ListByUser(ctx, user.ID)
	if err == nil {
		for _, att := range old {
			if att.FileType == entity.FileTypeAvatar {
				s.storage.Delete(ctx, att.Path)
				s.attachmentRepo.Delete(ctx, att.ID)
			}
		}
	}

	attachment := &entity.FileAttachment{
		Filename:     file.Filename,
		OriginalName: file.Filename,
		Path:         path,
		Size:         file.Size,
		Mimetype:     file.ContentType,
		Category:     entity.CategoryForMime(file.ContentType),
		FileType:     entity.FileTypeAvatar,
		UserID:       user.ID,
		UploadedBy:   actor.ID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, err
	}

	user.Avatar = s.storage.PublicURL(path)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "user", user.ID, "更新头像")

	return user, nil
}

// ToggleStatus 启用/停用用户
func (s *UserService) ToggleStatus(ctx context.Context, actor Actor, id string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	action := "停用"
	if user.IsActive {
		action = "启用"
	}
	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "user", user.ID,
		fmt.Sprintf("%s用户 %s %s", action, user.FirstName, user.LastName))

	return user, nil
}

// Delete 删除用户及其附件
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.ListByUser(ctx, id)
	if err == nil {
		for _, att := range attachments {
			s.storage.Delete(ctx, att.Path)
			s.attachmentRepo.Delete(ctx, att.ID)
		}
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionDelete, "user", id,
		fmt.Sprintf("删除用户 %s %s", user.FirstName, user.LastName))

	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
)

// MachineService 设备管理服务
type MachineService struct {
	machineRepo    *repository.MachineRepository
	attachmentRepo *repository.AttachmentRepository
	storage        *StorageService
	audit          *AuditService
}

// NewMachineService 创建设备服务
func NewMachineService(machineRepo *repository.MachineRepository, attachmentRepo *repository.AttachmentRepository, storage *StorageService, audit *AuditService) *MachineService {
	return &MachineService{
		machineRepo:    machineRepo,
		attachmentRepo: attachmentRepo,
		storage:        storage,
		audit:          audit,
	}
}

// CreateMachineInput 创建设备参数
type CreateMachineInput struct {
	Name             string
	Reference        string
	Brand            string
	Model            string
	SerialNumber     string
	Location         string
	Department       string
	Description      string
	InstallationDate *time.Time
	WarrantyEndDate  *time.Time
	Status           string
	Priority         string
}

// UpdateMachineInput 更新设备参数，nil字段表示不修改
type UpdateMachineInput struct {
	Name             *string
	Reference        *string
	Brand            *string
	Model            *string
	SerialNumber     *string
	Location         *string
	Department       *string
	Description      *string
	InstallationDate *time.Time
	WarrantyEndDate  *time.Time
	Status           *string
	Priority         *string
}

// MachineListResult 设备列表及状态统计
type MachineListResult struct {
	Machines     []entity.Machine `json:"machines"`
	StatusCounts map[string]int64 `json:"status_counts"`
}

// List 设备列表，附带各状态数量统计
func (s *MachineService) List(ctx context.Context, status, keyword string) (*MachineListResult, error) {
	filters := map[string]interface{}{}
	if status != "" {
		filters["status"] = status
	}
	if keyword != "" {
		filters["keyword"] = keyword
	}

	machines, err := s.machineRepo.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	counts, err := s.machineRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &MachineListResult{Machines: machines, StatusCounts: counts}, nil
}

// Get 设备详情
func (s *MachineService) Get(ctx context.Context, id string) (*entity.Machine, error) {
	return s.machineRepo.FindByID(ctx, id)
}

// Create 创建设备
func (s *MachineService) Create(ctx context.Context, actor Actor, input CreateMachineInput, image *FileUpload) (*entity.Machine, error) {
	status := input.Status
	if status == "" {
		status = entity.MachineStatusOperational
	}
	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}

	machine := &entity.Machine{
		Name:             input.Name,
		Reference:        input.Reference,
		Brand:            input.Brand,
		Model:            input.Model,
		SerialNumber:     input.SerialNumber,
		Location:         input.Location,
		Department:       input.Department,
		Description:      input.Description,
		InstallationDate: input.InstallationDate,
		WarrantyEndDate:  input.WarrantyEndDate,
		Status:           status,
		Priority:         priority,
	}

	if err := s.machineRepo.Create(ctx, machine); err != nil {
		return nil, err
	}

	if image != nil {
		if err := s.attachImage(ctx, actor, machine, image); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actor, entity.AuditActionCreate, "machine", machine.ID,
		fmt.Sprintf("创建设备 %s", machine.Name))

	return machine, nil
}

// Update 更新设备
func (s *MachineService) Update(ctx context.Context, actor Actor, id string, input UpdateMachineInput, image *FileUpload) (*entity.Machine, error) {
	machine, err := s.machineRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		machine.Name = *input.Name
	}
	if input.Reference != nil {
		machine.Reference = *input.Reference
	}
	if input.Brand != nil {
		machine.Brand = *input.Brand
	}
	if input.Model != nil {
		machine.Model = *input.Model
	}
	if input.SerialNumber != nil {
		machine.SerialNumber = *input.SerialNumber
	}
	if input.Location != nil {
		machine.Location = *input.Location
	}
	if input.Department != nil {
		machine.Department = *input.Department
	}
	if input.Description != nil {
		machine.Description = *input.Description
	}
	if input.InstallationDate != nil {
		machine.InstallationDate = input.InstallationDate
	}
	if input.WarrantyEndDate != nil {
		machine.WarrantyEndDate = input.WarrantyEndDate
	}
	if input.Status != nil {
		machine.Status = *input.Status
	}
	if input.Priority != nil {
		machine.Priority = *input.Priority
	}

	if err := s.machineRepo.Update(ctx, machine); err != nil {
		return nil, err
	}

	if image != nil {
		if err := s.attachImage(ctx, actor, machine, image); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "machine", machine.ID,
		fmt.Sprintf("更新设备 %s", machine.Name))

	return machine, nil
}

// attachImage 保存设备图片并替换旧图
func (s *MachineService) attachImage(ctx context.Context, actor Actor, machine *entity.Machine, image *FileUpload) error {
	path, err := s.storage.Save(ctx, image)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}

	old, err := s.attachmentRepo.ListByMachine(ctx, machine.ID)
	if err == nil {
		for _, att := range old {
			if att.FileType == entity.FileTypeMachine {
				s.storage.Delete(ctx, att.Path)
				s.attachmentRepo.Delete(ctx, att.ID)
			}
		}
	}

	attachment := &entity.FileAttachment{
		Filename:     image.Filename,
		OriginalName: image.Filename,
		Path:         path,
		Size:         image.Size,
		Mimetype:     image.ContentType,
		Category:     entity.CategoryForMime(image.ContentType),
		FileType:     entity.FileTypeMachine,
		MachineID:    machine.ID,
		UploadedBy:   actor.ID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return err
	}

	machine.Image = s.storage.PublicURL(path)
	return s.machineRepo.Update(ctx, machine)
}

// Delete 删除设备及其附件
func (s *MachineService) Delete(ctx context.Context, actor Actor, id string) error {
	machine, err := s.machineRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.ListByMachine(ctx, id)
	if err == nil {
		for _, att := range attachments {
			s.storage.Delete(ctx, att.Path)
			s.attachmentRepo.Delete(ctx, att.ID)
		}
	}

	if err := s.machineRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionDelete, "machine", id,
		fmt.Sprintf("删除设备 %s", machine.Name))

	return nil
}

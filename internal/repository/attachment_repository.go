package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"gorm.io/gorm"
)

// AttachmentRepository 文件附件仓库
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建文件附件仓库
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// FindByID 根据ID查找附件
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.FileAttachment, error) {
	var attachment entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &attachment, nil
}

// Create 创建附件
func (r *AttachmentRepository) Create(ctx context.Context, attachment *entity.FileAttachment) error {
	if attachment.ID == "" {
		attachment.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(attachment).Error
}

// Delete 删除附件
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.FileAttachment{}).Error
}

// ListByMaintenanceSchedule 获取维护计划的附件
func (r *AttachmentRepository) ListByMaintenanceSchedule(ctx context.Context, scheduleID string) ([]entity.FileAttachment, error) {
	var attachments []entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("maintenance_schedule_id = ?", scheduleID).
		Find(&attachments).Error
	return attachments, err
}

// ListByReport 获取报告的附件
func (r *AttachmentRepository) ListByReport(ctx context.Context, reportID string) ([]entity.FileAttachment, error) {
	var attachments []entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Find(&attachments).Error
	return attachments, err
}

// ListByMachine 获取设备的附件
func (r *AttachmentRepository) ListByMachine(ctx context.Context, machineID string) ([]entity.FileAttachment, error) {
	var attachments []entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("machine_id = ?", machineID).
		Find(&attachments).Error
	return attachments, err
}

// ListByUser 获取用户的附件（头像）
func (r *AttachmentRepository) ListByUser(ctx context.Context, userID string) ([]entity.FileAttachment, error) {
	var attachments []entity.FileAttachment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&attachments).Error
	return attachments, err
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"gorm.io/gorm"
)

// ReportRepository 工作报告仓库
type ReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建工作报告仓库
func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByID 根据ID查找报告
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*entity.Report, error) {
	var report entity.Report
	err := r.db.WithContext(ctx).
		Preload("Machine").
		Preload("Technician").
		Preload("Reviewer").
		Preload("Attachments").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// Create 创建报告
func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	if report.ID == "" {
		report.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(report).Error
}

// Update 更新报告
func (r *ReportRepository) Update(ctx context.Context, report *entity.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}

// Delete 删除报告
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.Report{}).Error
}

// List 获取报告列表（分页），按工作日期倒序
func (r *ReportRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Report, int64, error) {
	var reports []entity.Report
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Report{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if machineID, ok := filters["machine_id"].(string); ok && machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	if technicianID, ok := filters["technician_id"].(string); ok && technicianID != "" {
		query = query.Where("technician_id = ?", technicianID)
	}
	if workDate, ok := filters["work_date"].(time.Time); ok {
		query = query.Where("work_date = ?", workDate)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("title ILIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Machine").
		Preload("Technician").
		Preload("Attachments").
		Order("work_date DESC, created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&reports).Error

	return reports, total, err
}

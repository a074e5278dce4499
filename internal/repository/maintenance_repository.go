package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"gorm.io/gorm"
)

// MaintenanceRepository 维护计划仓库
type MaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository 创建维护计划仓库
func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// FindByID 根据ID查找维护计划
func (r *MaintenanceRepository) FindByID(ctx context.Context, id string) (*entity.MaintenanceSchedule, error) {
	var schedule entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Preload("Machine").
		Preload("Technician").
		Preload("CompletedByUser").
		Preload("Attachments").
		Where("id = ?", id).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// Create 创建维护计划
func (r *MaintenanceRepository) Create(ctx context.Context, schedule *entity.MaintenanceSchedule) error {
	if schedule.ID == "" {
		schedule.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(schedule).Error
}

// Update 更新维护计划
func (r *MaintenanceRepository) Update(ctx context.Context, schedule *entity.MaintenanceSchedule) error {
	return r.db.WithContext(ctx).Save(schedule).Error
}

// Delete 删除维护计划
func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.MaintenanceSchedule{}).Error
}

// List 获取维护计划列表（分页），按计划日期升序
func (r *MaintenanceRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.MaintenanceSchedule, int64, error) {
	var schedules []entity.MaintenanceSchedule
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaintenanceSchedule{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("maintenance_schedules.status = ?", status)
	}
	if machineID, ok := filters["machine_id"].(string); ok && machineID != "" {
		query = query.Where("maintenance_schedules.machine_id = ?", machineID)
	}
	if technicianID, ok := filters["technician_id"].(string); ok && technicianID != "" {
		query = query.Where("maintenance_schedules.technician_id = ?", technicianID)
	}
	if maintenanceType, ok := filters["maintenance_type"].(string); ok && maintenanceType != "" {
		query = query.Where("maintenance_schedules.maintenance_type = ?", maintenanceType)
	}

	startDate, hasStart := filters["start_date"].(time.Time)
	endDate, hasEnd := filters["end_date"].(time.Time)
	if hasStart && hasEnd {
		query = query.Where("maintenance_schedules.scheduled_date BETWEEN ? AND ?", startDate, endDate)
	}

	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("JOIN machines ON machines.id = maintenance_schedules.machine_id").
			Where("maintenance_schedules.title ILIKE ? OR maintenance_schedules.description ILIKE ? OR machines.name ILIKE ? OR machines.reference ILIKE ?",
				like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Machine").
		Preload("Technician").
		Order("maintenance_schedules.scheduled_date ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&schedules).Error

	return schedules, total, err
}

// CountByStatus 按状态统计维护计划数量
func (r *MaintenanceRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.MaintenanceSchedule{}).
		Select("status, COUNT(id) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListOverdue 获取逾期维护计划：仍为scheduled且计划日期已过，按日期升序
func (r *MaintenanceRepository) ListOverdue(ctx context.Context, now time.Time) ([]entity.MaintenanceSchedule, error) {
	var schedules []entity.MaintenanceSchedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_date < ?", entity.MaintenanceStatusScheduled, now).
		Preload("Machine").
		Preload("Technician").
		Order("scheduled_date ASC").
		Find(&schedules).Error
	return schedules, err
}

// CountOverdue 统计逾期数量：仍为scheduled且计划日期已过，可带日期范围
func (r *MaintenanceRepository) CountOverdue(ctx context.Context, now time.Time, startDate, endDate *time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.MaintenanceSchedule{}).
		Where("status = ? AND scheduled_date < ?", entity.MaintenanceStatusScheduled, now)

	if startDate != nil && endDate != nil {
		query = query.Where("scheduled_date BETWEEN ? AND ?", *startDate, *endDate)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// StatRow 按状态与维护类型聚合的统计行
type StatRow struct {
	Status          string  `gorm:"column:status"`
	MaintenanceType string  `gorm:"column:maintenance_type"`
	Count           int64   `gorm:"column:count"`
	TotalCost       float64 `gorm:"column:total_cost"`
}

// Stats 按(状态,维护类型)聚合数量与实际费用
func (r *MaintenanceRepository) Stats(ctx context.Context, startDate, endDate *time.Time) ([]StatRow, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.MaintenanceSchedule{}).
		Select("status, maintenance_type, COUNT(id) as count, COALESCE(SUM(actual_cost), 0) as total_cost").
		Group("status, maintenance_type")

	if startDate != nil && endDate != nil {
		query = query.Where("scheduled_date BETWEEN ? AND ?", *startDate, *endDate)
	}

	var rows []StatRow
	err := query.Scan(&rows).Error
	return rows, err
}

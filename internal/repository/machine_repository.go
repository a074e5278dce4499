package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"gorm.io/gorm"
)

// MachineRepository 设备仓库
type MachineRepository struct {
	db *gorm.DB
}

// NewMachineRepository 创建设备仓库
func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

// FindByID 根据ID查找设备
func (r *MachineRepository) FindByID(ctx context.Context, id string) (*entity.Machine, error) {
	var machine entity.Machine
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&machine).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &machine, nil
}

// Create 创建设备
func (r *MachineRepository) Create(ctx context.Context, machine *entity.Machine) error {
	if machine.ID == "" {
		machine.ID = generateID()
	}
	return r.db.WithContext(ctx).Create(machine).Error
}

// Update 更新设备
func (r *MachineRepository) Update(ctx context.Context, machine *entity.Machine) error {
	return r.db.WithContext(ctx).Save(machine).Error
}

// UpdateFields 按字段更新设备
func (r *MachineRepository) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entity.Machine{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete 删除设备
func (r *MachineRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&entity.Machine{}).Error
}

// List 获取设备列表
func (r *MachineRepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.Machine, error) {
	var machines []entity.Machine

	query := r.db.WithContext(ctx).Model(&entity.Machine{})

	if status, ok := filters["status"].(string); ok && status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}

	err := query.Order("created_at DESC").Find(&machines).Error
	return machines, err
}

// CountByStatus 按状态统计设备数量
func (r *MachineRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Machine{}).
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

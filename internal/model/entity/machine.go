package entity

import (
	"time"
)

// 设备状态
const (
	MachineStatusOperational = "operational"
	MachineStatusMaintenance = "maintenance"
	MachineStatusBreakdown   = "breakdown"
	MachineStatusRetired     = "retired"
)

// Machine 设备实体
type Machine struct {
	ID                  string     `json:"id" gorm:"primaryKey;size:32"`
	Name                string     `json:"name" gorm:"size:100;not null"`
	Reference           string     `json:"reference" gorm:"size:50;not null;uniqueIndex"`
	Brand               string     `json:"brand" gorm:"size:50"`
	Model               string     `json:"model" gorm:"size:50"`
	SerialNumber        string     `json:"serial_number" gorm:"size:100"`
	Location            string     `json:"location" gorm:"size:100;not null"`
	Department          string     `json:"department" gorm:"size:50;not null"`
	Description         string     `json:"description" gorm:"type:text"`
	InstallationDate    *time.Time `json:"installation_date" gorm:"type:date"`
	WarrantyEndDate     *time.Time `json:"warranty_end_date" gorm:"type:date"`
	Status              string     `json:"status" gorm:"size:16;not null;default:operational"`
	Priority            string     `json:"priority" gorm:"size:16;not null;default:medium"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
	Image               string     `json:"image" gorm:"size:255"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// 关联
	Schedules   []MaintenanceSchedule `json:"schedules,omitempty" gorm:"foreignKey:MachineID"`
	Attachments []FileAttachment      `json:"attachments,omitempty" gorm:"foreignKey:MachineID"`
}

func (Machine) TableName() string {
	return "machines"
}

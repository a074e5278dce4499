package entity

import (
	"time"
)

// 维护计划状态
const (
	MaintenanceStatusScheduled  = "scheduled"
	MaintenanceStatusInProgress = "in_progress"
	MaintenanceStatusCompleted  = "completed"
	MaintenanceStatusCancelled  = "cancelled"
	MaintenanceStatusOverdue    = "overdue"
)

// 维护类型
const (
	MaintenanceTypePreventive = "preventive"
	MaintenanceTypeCorrective = "corrective"
	MaintenanceTypeEmergency  = "emergency"
	MaintenanceTypeInspection = "inspection"
)

// 优先级
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// 重复频率
const (
	FrequencyOnce      = "once"
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// MaintenanceSchedule 维护计划实体
type MaintenanceSchedule struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	Title             string     `json:"title" gorm:"size:200;not null"`
	Description       string     `json:"description" gorm:"type:text"`
	MachineID         string     `json:"machine_id" gorm:"size:32;not null;index"`
	TechnicianID      string     `json:"technician_id" gorm:"size:32;index"`
	ScheduledDate     time.Time  `json:"scheduled_date" gorm:"not null;index"`
	EstimatedDuration int        `json:"estimated_duration" gorm:"not null;default:60"` // 分钟
	MaintenanceType   string     `json:"maintenance_type" gorm:"size:16;not null;default:preventive;index"`
	Priority          string     `json:"priority" gorm:"size:16;not null;default:medium"`
	Status            string     `json:"status" gorm:"size:16;not null;default:scheduled;index"`
	Frequency         string     `json:"frequency" gorm:"size:16;not null;default:once"`
	RecurrencePattern JSONB      `json:"recurrence_pattern" gorm:"type:jsonb"`
	Checklist         JSONBArray `json:"checklist" gorm:"type:jsonb"`
	RequiredParts     JSONBArray `json:"required_parts" gorm:"type:jsonb"` // [{name, quantity, estimated_cost}]
	EstimatedCost     float64    `json:"estimated_cost" gorm:"type:decimal(10,2);default:0"`
	ActualCost        float64    `json:"actual_cost" gorm:"type:decimal(10,2);default:0"`
	Notes             string     `json:"notes" gorm:"type:text"`
	CompletedAt       *time.Time `json:"completed_at"`
	CompletedBy       string     `json:"completed_by" gorm:"size:32"`
	CompletionNotes   string     `json:"completion_notes" gorm:"type:text"`
	NextScheduledDate *time.Time `json:"next_scheduled_date"` // 下一次维护日期（仅周期性计划）
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// 关联
	Machine         *Machine         `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	Technician      *User            `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	CompletedByUser *User            `json:"completed_by_user,omitempty" gorm:"foreignKey:CompletedBy"`
	Attachments     []FileAttachment `json:"attachments,omitempty" gorm:"foreignKey:MaintenanceScheduleID"`
}

func (MaintenanceSchedule) TableName() string {
	return "maintenance_schedules"
}

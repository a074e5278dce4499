package entity

import (
	"time"
)

// 工作报告状态
const (
	ReportStatusDraft     = "draft"
	ReportStatusSubmitted = "submitted"
	ReportStatusReviewed  = "reviewed"
	ReportStatusApproved  = "approved"
)

// 工作类型
const (
	WorkTypeMaintenance  = "maintenance"
	WorkTypeRepair       = "repair"
	WorkTypeInspection   = "inspection"
	WorkTypeInstallation = "installation"
	WorkTypeOther        = "other"
)

// Report 工作报告实体
type Report struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	Title              string     `json:"title" gorm:"size:200;not null"`
	WorkDate           time.Time  `json:"work_date" gorm:"type:date;not null;index"`
	StartTime          string     `json:"start_time" gorm:"size:5;not null"` // HH:MM
	EndTime            string     `json:"end_time" gorm:"size:5;not null"`   // HH:MM
	Duration           int        `json:"duration" gorm:"not null"`          // 分钟
	MachineID          string     `json:"machine_id" gorm:"size:32;not null;index"`
	TechnicianID       string     `json:"technician_id" gorm:"size:32;not null;index"`
	WorkType           string     `json:"work_type" gorm:"size:16;not null"`
	ProblemDescription string     `json:"problem_description" gorm:"type:text;not null"`
	ActionsTaken       string     `json:"actions_taken" gorm:"type:text;not null"`
	PartsUsed          JSONBArray `json:"parts_used" gorm:"type:jsonb"` // [{name, reference, quantity}]
	ToolsUsed          JSONBArray `json:"tools_used" gorm:"type:jsonb"`
	Observations       string     `json:"observations" gorm:"type:text"`
	Recommendations    string     `json:"recommendations" gorm:"type:text"`
	Status             string     `json:"status" gorm:"size:16;not null;default:draft;index"`
	ReviewedBy         string     `json:"reviewed_by" gorm:"size:32"`
	ReviewedAt         *time.Time `json:"reviewed_at"`
	ReviewNotes        string     `json:"review_notes" gorm:"type:text"`
	Priority           string     `json:"priority" gorm:"size:16;not null;default:medium"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// 关联
	Machine     *Machine         `json:"machine,omitempty" gorm:"foreignKey:MachineID"`
	Technician  *User            `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	Reviewer    *User            `json:"reviewer,omitempty" gorm:"foreignKey:ReviewedBy"`
	Attachments []FileAttachment `json:"attachments,omitempty" gorm:"foreignKey:ReportID"`
}

func (Report) TableName() string {
	return "reports"
}

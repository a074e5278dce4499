package entity

import "time"

// 审计动作
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionLogin  = "LOGIN"
	AuditActionLogout = "LOGOUT"
)

// AuditLog 审计日志，只追加不修改
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	UserID    string    `json:"user_id" gorm:"size:32;index"` // 系统操作时为空
	Action    string    `json:"action" gorm:"size:20;not null"`
	Entity    string    `json:"entity" gorm:"size:50;not null;index:idx_audit_entity"`
	EntityID  string    `json:"entity_id" gorm:"size:32;index:idx_audit_entity"`
	Details   string    `json:"details" gorm:"type:text"`
	Metadata  JSONB     `json:"metadata" gorm:"type:jsonb"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	UserAgent string    `json:"user_agent" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

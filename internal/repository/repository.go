package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// generateID 生成32位ID
func generateID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:32]
}

// Repositories 仓库集合
type Repositories struct {
	User        *UserRepository
	Machine     *MachineRepository
	Maintenance *MaintenanceRepository
	Report      *ReportRepository
	Attachment  *AttachmentRepository
	AuditLog    *AuditLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Machine:     NewMachineRepository(db),
		Maintenance: NewMaintenanceRepository(db),
		Report:      NewReportRepository(db),
		Attachment:  NewAttachmentRepository(db),
		AuditLog:    NewAuditLogRepository(db),
	}
}

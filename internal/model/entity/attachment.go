package entity

import (
	"time"
)

// 附件分类
const (
	FileCategoryImage    = "image"
	FileCategoryVideo    = "video"
	FileCategoryDocument = "document"
	FileCategoryAudio    = "audio"
	FileCategoryOther    = "other"
)

// 附件归属类型
const (
	FileTypeAvatar      = "avatar"
	FileTypeMachine     = "machine"
	FileTypeReport      = "report"
	FileTypeMaintenance = "maintenance"
)

// FileAttachment 文件附件实体，归属于设备/用户/报告/维护计划之一
type FileAttachment struct {
	ID                    string    `json:"id" gorm:"primaryKey;size:32"`
	Filename              string    `json:"filename" gorm:"size:255;not null"`
	OriginalName          string    `json:"original_name" gorm:"size:255;not null"`
	Path                  string    `json:"path" gorm:"size:512;not null"`
	Mimetype              string    `json:"mimetype" gorm:"size:100;not null"`
	Size                  int64     `json:"size" gorm:"not null"`
	Category              string    `json:"category" gorm:"size:16;not null;default:other"`
	FileType              string    `json:"file_type" gorm:"size:50;not null"`
	Description           string    `json:"description" gorm:"size:255"`
	MachineID             string    `json:"machine_id" gorm:"size:32;index"`
	UserID                string    `json:"user_id" gorm:"size:32;index"`
	ReportID              string    `json:"report_id" gorm:"size:32;index"`
	MaintenanceScheduleID string    `json:"maintenance_schedule_id" gorm:"size:32;index"`
	UploadedBy            string    `json:"uploaded_by" gorm:"size:32;not null"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (FileAttachment) TableName() string {
	return "file_attachments"
}

// CategoryForMime 根据mimetype推断附件分类
func CategoryForMime(mimetype string) string {
	switch {
	case len(mimetype) >= 6 && mimetype[:6] == "image/":
		return FileCategoryImage
	case len(mimetype) >= 6 && mimetype[:6] == "video/":
		return FileCategoryVideo
	case len(mimetype) >= 6 && mimetype[:6] == "audio/":
		return FileCategoryAudio
	case mimetype != "":
		return FileCategoryDocument
	default:
		return FileCategoryOther
	}
}

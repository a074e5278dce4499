package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
)

// ReportService 工作报告服务
type ReportService struct {
	reportRepo     *repository.ReportRepository
	machineRepo    *repository.MachineRepository
	attachmentRepo *repository.AttachmentRepository
	storage        *StorageService
	audit          *AuditService
}

// NewReportService 创建工作报告服务
func NewReportService(reportRepo *repository.ReportRepository, machineRepo *repository.MachineRepository, attachmentRepo *repository.AttachmentRepository, storage *StorageService, audit *AuditService) *ReportService {
	return &ReportService{
		reportRepo:     reportRepo,
		machineRepo:    machineRepo,
		attachmentRepo: attachmentRepo,
		storage:        storage,
		audit:          audit,
	}
}

// ComputeDuration 根据起止时间(HH:MM)计算工时分钟数，结束须晚于开始
func ComputeDuration(startTime, endTime string) (int, error) {
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return 0, fmt.Errorf("%w: 开始时间格式须为HH:MM", ErrValidation)
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return 0, fmt.Errorf("%w: 结束时间格式须为HH:MM", ErrValidation)
	}

	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: 结束时间须晚于开始时间", ErrValidation)
	}
	return minutes, nil
}

// CreateReportInput 创建报告参数
type CreateReportInput struct {
	Title              string
	WorkDate           time.Time
	StartTime          string
	EndTime            string
	MachineID          string
	WorkType           string
	ProblemDescription string
	ActionsTaken       string
	PartsUsed          entity.JSONBArray
	ToolsUsed          entity.JSONBArray
	Observations       string
	Recommendations    string
	Priority           string
}

// UpdateReportInput 更新报告参数，nil字段表示不修改
type UpdateReportInput struct {
	Title              *string
	WorkDate           *time.Time
	StartTime          *string
	EndTime            *string
	MachineID          *string
	WorkType           *string
	ProblemDescription *string
	ActionsTaken       *string
	PartsUsed          entity.JSONBArray
	ToolsUsed          entity.JSONBArray
	Observations       *string
	Recommendations    *string
	Priority           *string
}

// ReportListQuery 报告列表查询参数
type ReportListQuery struct {
	Page         int
	PageSize     int
	Status       string
	MachineID    string
	TechnicianID string
	WorkDate     *time.Time
	Keyword      string
}

// ReportListResult 报告列表结果
type ReportListResult struct {
	Items    []entity.Report `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// validateReport 校验报告字段，长度按字符数计
func validateReport(title, problemDescription, actionsTaken string) error {
	if n := utf8.RuneCountInString(title); n < 5 || n > 200 {
		return fmt.Errorf("%w: 标题长度须在5到200之间", ErrValidation)
	}
	if utf8.RuneCountInString(problemDescription) < 10 {
		return fmt.Errorf("%w: 问题描述至少10个字符", ErrValidation)
	}
	if utf8.RuneCountInString(actionsTaken) < 10 {
		return fmt.Errorf("%w: 处理措施至少10个字符", ErrValidation)
	}
	return nil
}

// Create 创建报告，技术员为当前操作者，初始状态为草稿
func (s *ReportService) Create(ctx context.Context, actor Actor, input CreateReportInput, files []*FileUpload) (*entity.Report, error) {
	if err := validateReport(input.Title, input.ProblemDescription, input.ActionsTaken); err != nil {
		return nil, err
	}

	duration, err := ComputeDuration(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.machineRepo.FindByID(ctx, input.MachineID); err != nil {
		return nil, err
	}

	workType := input.WorkType
	if workType == "" {
		workType = entity.WorkTypeMaintenance
	}
	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}

	report := &entity.Report{
		Title:              input.Title,
		WorkDate:           input.WorkDate,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		Duration:           duration,
		MachineID:          input.MachineID,
		TechnicianID:       actor.ID,
		WorkType:           workType,
		ProblemDescription: input.ProblemDescription,
		ActionsTaken:       input.ActionsTaken,
		PartsUsed:          input.PartsUsed,
		ToolsUsed:          input.ToolsUsed,
		Observations:       input.Observations,
		Recommendations:    input.Recommendations,
		Status:             entity.ReportStatusDraft,
		Priority:           priority,
	}

	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	for _, file := range files {
		path, err := s.storage.Save(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("save attachment: %w", err)
		}
		attachment := &entity.FileAttachment{
			Filename:     file.Filename,
			OriginalName: file.Filename,
			Path:         path,
			Size:         file.Size,
			Mimetype:     file.ContentType,
			Category:     entity.CategoryForMime(file.ContentType),
			FileType:     entity.FileTypeReport,
			ReportID:     report.ID,
			UploadedBy:   actor.ID,
		}
		if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actor, entity.AuditActionCreate, "report", report.ID,
		fmt.Sprintf("创建工作报告 %s", report.Title))

	return s.reportRepo.FindByID(ctx, report.ID)
}

// List 报告列表，技术员只能看到自己的报告
func (s *ReportService) List(ctx context.Context, actor Actor, query ReportListQuery) (*ReportListResult, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 || query.PageSize > 100 {
		query.PageSize = 20
	}

	filters := map[string]interface{}{}
	if query.Status != "" && query.Status != "all" {
		filters["status"] = query.Status
	}
	if query.MachineID != "" {
		filters["machine_id"] = query.MachineID
	}
	if query.WorkDate != nil {
		filters["work_date"] = *query.WorkDate
	}
	if query.Keyword != "" {
		filters["keyword"] = query.Keyword
	}

	if actor.Role == entity.RoleTechnician {
		filters["technician_id"] = actor.ID
	} else if query.TechnicianID != "" {
		filters["technician_id"] = query.TechnicianID
	}

	items, total, err := s.reportRepo.List(ctx, query.Page, query.PageSize, filters)
	if err != nil {
		return nil, err
	}

	return &ReportListResult{
		Items:    items,
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
	}, nil
}

// Get 报告详情，技术员只能查看自己的报告
func (s *ReportService) Get(ctx context.Context, actor Actor, id string) (*entity.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == entity.RoleTechnician && report.TechnicianID != actor.ID {
		return nil, ErrForbidden
	}

	return report, nil
}

// Update 更新报告。技术员只能修改自己的草稿。
func (s *ReportService) Update(ctx context.Context, actor Actor, id string, input UpdateReportInput) (*entity.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == entity.RoleTechnician {
		if report.TechnicianID != actor.ID {
			return nil, ErrForbidden
		}
		if report.Status != entity.ReportStatusDraft {
			return nil, ErrForbidden
		}
	}

	if input.Title != nil {
		report.Title = *input.Title
	}
	if input.WorkDate != nil {
		report.WorkDate = *input.WorkDate
	}
	if input.StartTime != nil {
		report.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		report.EndTime = *input.EndTime
	}
	if input.MachineID != nil {
		if _, err := s.machineRepo.FindByID(ctx, *input.MachineID); err != nil {
			return nil, err
		}
		report.MachineID = *input.MachineID
	}
	if input.WorkType != nil {
		report.WorkType = *input.WorkType
	}
	if input.ProblemDescription != nil {
		report.ProblemDescription = *input.ProblemDescription
	}
	if input.ActionsTaken != nil {
		report.ActionsTaken = *input.ActionsTaken
	}
	if input.PartsUsed != nil {
		report.PartsUsed = input.PartsUsed
	}
	if input.ToolsUsed != nil {
		report.ToolsUsed = input.ToolsUsed
	}
	if input.Observations != nil {
		report.Observations = *input.Observations
	}
	if input.Recommendations != nil {
		report.Recommendations = *input.Recommendations
	}
	if input.Priority != nil {
		report.Priority = *input.Priority
	}

	if err := validateReport(report.Title, report.ProblemDescription, report.ActionsTaken); err != nil {
		return nil, err
	}

	// 起止时间变化则重算工时
	if input.StartTime != nil || input.EndTime != nil {
		duration, err := ComputeDuration(report.StartTime, report.EndTime)
		if err != nil {
			return nil, err
		}
		report.Duration = duration
	}

	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "report", report.ID,
		fmt.Sprintf("更新工作报告 %s", report.Title))

	return s.reportRepo.FindByID(ctx, report.ID)
}

// Submit 提交报告，只能由报告所属技术员从草稿提交，且不可撤回
func (s *ReportService) Submit(ctx context.Context, actor Actor, id string) (*entity.Report, error) {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.TechnicianID != actor.ID {
		return nil, ErrForbidden
	}
	if report.Status != entity.ReportStatusDraft {
		return nil, ErrAlreadySubmitted
	}

	report.Status = entity.ReportStatusSubmitted
	if err := s.reportRepo.Update(ctx, report); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "report", report.ID,
		fmt.Sprintf("提交工作报告 %s", report.Title))

	return s.reportRepo.FindByID(ctx, report.ID)
}

// Delete 删除报告及其附件。技术员只能删除自己的草稿，管理员不受限制。
func (s *ReportService) Delete(ctx context.Context, actor Actor, id string) error {
	report, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role == entity.RoleTechnician {
		if report.TechnicianID != actor.ID {
			return ErrForbidden
		}
		if report.Status != entity.ReportStatusDraft {
			return ErrForbidden
		}
	}

	attachments, err := s.attachmentRepo.ListByReport(ctx, id)
	if err == nil {
		for _, att := range attachments {
			s.storage.Delete(ctx, att.Path)
			s.attachmentRepo.Delete(ctx, att.ID)
		}
	}

	if err := s.reportRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionDelete, "report", id,
		fmt.Sprintf("删除工作报告 %s", report.Title))

	return nil
}

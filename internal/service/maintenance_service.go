package service

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
)

// MaintenanceService 维护计划服务
type MaintenanceService struct {
	maintenanceRepo *repository.MaintenanceRepository
	machineRepo     *repository.MachineRepository
	userRepo        *repository.UserRepository
	attachmentRepo  *repository.AttachmentRepository
	storage         *StorageService
	audit           *AuditService
}

// NewMaintenanceService 创建维护计划服务
func NewMaintenanceService(maintenanceRepo *repository.MaintenanceRepository, machineRepo *repository.MachineRepository, userRepo *repository.UserRepository, attachmentRepo *repository.AttachmentRepository, storage *StorageService, audit *AuditService) *MaintenanceService {
	return &MaintenanceService{
		maintenanceRepo: maintenanceRepo,
		machineRepo:     machineRepo,
		userRepo:        userRepo,
		attachmentRepo:  attachmentRepo,
		storage:         storage,
		audit:           audit,
	}
}

// NextScheduledDate 根据频率推算下一次维护日期。
// 月份和年份通过time.AddDate推进，溢出时按日历规则顺延
// （如1月31日加一个月得到3月2日或3日）。
func NextScheduledDate(from time.Time, frequency string) *time.Time {
	var next time.Time
	switch frequency {
	case entity.FrequencyDaily:
		next = from.AddDate(0, 0, 1)
	case entity.FrequencyWeekly:
		next = from.AddDate(0, 0, 7)
	case entity.FrequencyMonthly:
		next = from.AddDate(0, 1, 0)
	case entity.FrequencyQuarterly:
		next = from.AddDate(0, 3, 0)
	case entity.FrequencyYearly:
		next = from.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}

// CreateMaintenanceInput 创建维护计划参数
type CreateMaintenanceInput struct {
	Title             string
	Description       string
	MachineID         string
	TechnicianID      string
	ScheduledDate     time.Time
	EstimatedDuration int
	MaintenanceType   string
	Priority          string
	Frequency         string
	RecurrencePattern entity.JSONB
	Checklist         entity.JSONBArray
	RequiredParts     entity.JSONBArray
	EstimatedCost     float64
	Notes             string
}

// UpdateMaintenanceInput 更新维护计划参数，nil字段表示不修改
type UpdateMaintenanceInput struct {
	Title             *string
	Description       *string
	TechnicianID      *string
	ScheduledDate     *time.Time
	EstimatedDuration *int
	MaintenanceType   *string
	Priority          *string
	Status            *string
	Frequency         *string
	RecurrencePattern entity.JSONB
	Checklist         entity.JSONBArray
	RequiredParts     entity.JSONBArray
	EstimatedCost     *float64
	ActualCost        *float64
	Notes             *string
}

// CompleteMaintenanceInput 完成维护参数
type CompleteMaintenanceInput struct {
	CompletionNotes string
	ActualCost      float64
}

// MaintenanceListQuery 维护计划列表查询参数
type MaintenanceListQuery struct {
	Page            int
	PageSize        int
	Status          string
	MachineID       string
	TechnicianID    string
	MaintenanceType string
	StartDate       *time.Time
	EndDate         *time.Time
	Keyword         string
}

// MaintenanceListResult 维护计划列表结果
type MaintenanceListResult struct {
	Items        []entity.MaintenanceSchedule `json:"items"`
	Total        int64                        `json:"total"`
	Page         int                          `json:"page"`
	PageSize     int                          `json:"page_size"`
	StatusCounts map[string]int64             `json:"status_counts"`
}

// validate 校验维护计划字段，长度按字符数计
func validateMaintenance(title string, duration int) error {
	if n := utf8.RuneCountInString(title); n < 5 || n > 200 {
		return fmt.Errorf("%w: 标题长度须在5到200之间", ErrValidation)
	}
	if duration < 15 || duration > 1440 {
		return fmt.Errorf("%w: 预计耗时须在15到1440分钟之间", ErrValidation)
	}
	return nil
}

// checkTechnician 校验技术员存在且角色允许执行维护
func (s *MaintenanceService) checkTechnician(ctx context.Context, technicianID string) error {
	if technicianID == "" {
		return nil
	}
	technician, err := s.userRepo.FindByID(ctx, technicianID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrInvalidTechnician
		}
		return err
	}
	if !technician.IsTechnicianRole() {
		return ErrInvalidTechnician
	}
	return nil
}

// Create 创建维护计划，并回写设备的维护日期
func (s *MaintenanceService) Create(ctx context.Context, actor Actor, input CreateMaintenanceInput) (*entity.MaintenanceSchedule, error) {
	if input.EstimatedDuration == 0 {
		input.EstimatedDuration = 60
	}
	if err := validateMaintenance(input.Title, input.EstimatedDuration); err != nil {
		return nil, err
	}

	machine, err := s.machineRepo.FindByID(ctx, input.MachineID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTechnician(ctx, input.TechnicianID); err != nil {
		return nil, err
	}

	maintenanceType := input.MaintenanceType
	if maintenanceType == "" {
		maintenanceType = entity.MaintenanceTypePreventive
	}
	priority := input.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}
	frequency := input.Frequency
	if frequency == "" {
		frequency = entity.FrequencyOnce
	}

	schedule := &entity.MaintenanceSchedule{
		Title:             input.Title,
		Description:       input.Description,
		MachineID:         input.MachineID,
		TechnicianID:      input.TechnicianID,
		ScheduledDate:     input.ScheduledDate,
		EstimatedDuration: input.EstimatedDuration,
		MaintenanceType:   maintenanceType,
		Priority:          priority,
		Status:            entity.MaintenanceStatusScheduled,
		Frequency:         frequency,
		RecurrencePattern: input.RecurrencePattern,
		Checklist:         input.Checklist,
		RequiredParts:     input.RequiredParts,
		EstimatedCost:     input.EstimatedCost,
		Notes:             input.Notes,
		NextScheduledDate: NextScheduledDate(input.ScheduledDate, frequency),
	}

	if err := s.maintenanceRepo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionCreate, "maintenance_schedule", schedule.ID,
		fmt.Sprintf("创建维护计划 %s", schedule.Title))

	// 回写设备的上次/下次维护日期
	nextDate := schedule.ScheduledDate
	if schedule.NextScheduledDate != nil {
		nextDate = *schedule.NextScheduledDate
	}
	if err := s.machineRepo.UpdateFields(ctx, machine.ID, map[string]interface{}{
		"last_maintenance_date": schedule.ScheduledDate,
		"next_maintenance_date": nextDate,
	}); err != nil {
		return nil, err
	}

	return s.maintenanceRepo.FindByID(ctx, schedule.ID)
}

// Get 维护计划详情
func (s *MaintenanceService) Get(ctx context.Context, id string) (*entity.MaintenanceSchedule, error) {
	return s.maintenanceRepo.FindByID(ctx, id)
}

// Update 更新维护计划
func (s *MaintenanceService) Update(ctx context.Context, actor Actor, id string, input UpdateMaintenanceInput) (*entity.MaintenanceSchedule, error) {
	schedule, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		schedule.Title = *input.Title
	}
	if input.Description != nil {
		schedule.Description = *input.Description
	}
	if input.TechnicianID != nil {
		if err := s.checkTechnician(ctx, *input.TechnicianID); err != nil {
			return nil, err
		}
		schedule.TechnicianID = *input.TechnicianID
	}
	if input.ScheduledDate != nil {
		schedule.ScheduledDate = *input.ScheduledDate
	}
	if input.EstimatedDuration != nil {
		schedule.EstimatedDuration = *input.EstimatedDuration
	}
	if input.MaintenanceType != nil {
		schedule.MaintenanceType = *input.MaintenanceType
	}
	if input.Priority != nil {
		schedule.Priority = *input.Priority
	}
	if input.Frequency != nil {
		schedule.Frequency = *input.Frequency
	}
	if input.RecurrencePattern != nil {
		schedule.RecurrencePattern = input.RecurrencePattern
	}
	if input.Checklist != nil {
		schedule.Checklist = input.Checklist
	}
	if input.RequiredParts != nil {
		schedule.RequiredParts = input.RequiredParts
	}
	if input.EstimatedCost != nil {
		schedule.EstimatedCost = *input.EstimatedCost
	}
	if input.ActualCost != nil {
		schedule.ActualCost = *input.ActualCost
	}
	if input.Notes != nil {
		schedule.Notes = *input.Notes
	}

	if err := validateMaintenance(schedule.Title, schedule.EstimatedDuration); err != nil {
		return nil, err
	}

	// 完成转换是创建之后唯一改写下一次维护日期的路径，
	// 普通字段修改不重算。
	if input.Status != nil {
		if *input.Status == entity.MaintenanceStatusCompleted {
			if schedule.Status == entity.MaintenanceStatusCompleted {
				return nil, ErrAlreadyCompleted
			}
			now := time.Now()
			schedule.CompletedAt = &now
			schedule.CompletedBy = actor.ID
			schedule.NextScheduledDate = NextScheduledDate(now, schedule.Frequency)
		}
		schedule.Status = *input.Status
	}

	if err := s.maintenanceRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "maintenance_schedule", schedule.ID,
		fmt.Sprintf("更新维护计划 %s", schedule.Title))

	return s.maintenanceRepo.FindByID(ctx, schedule.ID)
}

// Complete 完成维护，回写设备状态和维护日期
func (s *MaintenanceService) Complete(ctx context.Context, actor Actor, id string, input CompleteMaintenanceInput, files []*FileUpload) (*entity.MaintenanceSchedule, error) {
	schedule, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if schedule.Status == entity.MaintenanceStatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now()
	schedule.Status = entity.MaintenanceStatusCompleted
	schedule.CompletedAt = &now
	schedule.CompletedBy = actor.ID
	schedule.CompletionNotes = input.CompletionNotes
	schedule.ActualCost = input.ActualCost
	schedule.NextScheduledDate = NextScheduledDate(now, schedule.Frequency)

	if err := s.maintenanceRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	for _, file := range files {
		path, err := s.storage.Save(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("save attachment: %w", err)
		}
		attachment := &entity.FileAttachment{
			Filename:              file.Filename,
			OriginalName:          file.Filename,
			Path:                  path,
			Size:                  file.Size,
			Mimetype:              file.ContentType,
			Category:              entity.CategoryForMime(file.ContentType),
			FileType:              entity.FileTypeMaintenance,
			MaintenanceScheduleID: schedule.ID,
			UploadedBy:            actor.ID,
		}
		if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actor, entity.AuditActionUpdate, "maintenance_schedule", schedule.ID,
		fmt.Sprintf("完成维护计划 %s", schedule.Title))

	// 维护完成后设备恢复运行
	nextDate := now
	if schedule.NextScheduledDate != nil {
		nextDate = *schedule.NextScheduledDate
	}
	if err := s.machineRepo.UpdateFields(ctx, schedule.MachineID, map[string]interface{}{
		"status":                entity.MachineStatusOperational,
		"last_maintenance_date": now,
		"next_maintenance_date": nextDate,
	}); err != nil {
		return nil, err
	}

	return s.maintenanceRepo.FindByID(ctx, schedule.ID)
}

// Delete 删除维护计划及其附件
func (s *MaintenanceService) Delete(ctx context.Context, actor Actor, id string) error {
	schedule, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	attachments, err := s.attachmentRepo.ListByMaintenanceSchedule(ctx, id)
	if err == nil {
		for _, att := range attachments {
			s.storage.Delete(ctx, att.Path)
			s.attachmentRepo.Delete(ctx, att.ID)
		}
	}

	if err := s.maintenanceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actor, entity.AuditActionDelete, "maintenance_schedule", id,
		fmt.Sprintf("删除维护计划 %s", schedule.Title))

	return nil
}

// List 维护计划列表
func (s *MaintenanceService) List(ctx context.Context, query MaintenanceListQuery) (*MaintenanceListResult, error) {
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
	if query.TechnicianID != "" {
		filters["technician_id"] = query.TechnicianID
	}
	if query.MaintenanceType != "" {
		filters["maintenance_type"] = query.MaintenanceType
	}
	if query.StartDate != nil {
		filters["start_date"] = *query.StartDate
	}
	if query.EndDate != nil {
		filters["end_date"] = *query.EndDate
	}
	if query.Keyword != "" {
		filters["keyword"] = query.Keyword
	}

	items, total, err := s.maintenanceRepo.List(ctx, query.Page, query.PageSize, filters)
	if err != nil {
		return nil, err
	}

	counts, err := s.maintenanceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &MaintenanceListResult{
		Items:        items,
		Total:        total,
		Page:         query.Page,
		PageSize:     query.PageSize,
		StatusCounts: counts,
	}, nil
}

// Overdue 逾期的维护计划：已排期且计划日期早于当前时间。
// 只在查询时判定，不落库。
func (s *MaintenanceService) Overdue(ctx context.Context) ([]entity.MaintenanceSchedule, error) {
	return s.maintenanceRepo.ListOverdue(ctx, time.Now())
}

// TypeStat 按维护类型的统计
type TypeStat struct {
	Count     int64   `json:"count"`
	TotalCost float64 `json:"total_cost"`
}

// MaintenanceStats 维护统计汇总
type MaintenanceStats struct {
	Total      int64               `json:"total"`
	Completed  int64               `json:"completed"`
	InProgress int64               `json:"in_progress"`
	Scheduled  int64               `json:"scheduled"`
	Overdue    int64               `json:"overdue"`
	Cancelled  int64               `json:"cancelled"`
	TotalCost  float64             `json:"total_cost"`
	ByType     map[string]TypeStat `json:"by_type"`
}

// Stats 维护统计，按状态和类型聚合
func (s *MaintenanceService) Stats(ctx context.Context, startDate, endDate *time.Time) (*MaintenanceStats, error) {
	rows, err := s.maintenanceRepo.Stats(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	stats := &MaintenanceStats{ByType: map[string]TypeStat{}}
	for _, row := range rows {
		stats.Total += row.Count
		stats.TotalCost += row.TotalCost

		switch row.Status {
		case entity.MaintenanceStatusCompleted:
			stats.Completed += row.Count
		case entity.MaintenanceStatusInProgress:
			stats.InProgress += row.Count
		case entity.MaintenanceStatusScheduled:
			stats.Scheduled += row.Count
		case entity.MaintenanceStatusCancelled:
			stats.Cancelled += row.Count
		case entity.MaintenanceStatusOverdue:
			stats.Overdue += row.Count
		}

		typeStat := stats.ByType[row.MaintenanceType]
		typeStat.Count += row.Count
		typeStat.TotalCost += row.TotalCost
		stats.ByType[row.MaintenanceType] = typeStat
	}

	// 逾期数按当前时间在同一日期范围内判定
	overdue, err := s.maintenanceRepo.CountOverdue(ctx, time.Now(), startDate, endDate)
	if err != nil {
		return nil, err
	}
	stats.Overdue += overdue

	return stats, nil
}

// ExportStats 导出维护统计为xlsx
func (s *MaintenanceService) ExportStats(ctx context.Context, startDate, endDate *time.Time) (*bytes.Buffer, error) {
	rows, err := s.maintenanceRepo.Stats(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "明细"
	f.SetSheetName("Sheet1", sheet)
	headers := []string{"状态", "维护类型", "数量", "实际费用合计"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), row.Status)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+2), row.MaintenanceType)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", i+2), row.Count)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", i+2), row.TotalCost)
	}

	summary := "汇总"
	f.NewSheet(summary)
	summaryRows := [][]interface{}{
		{"总数", stats.Total},
		{"已完成", stats.Completed},
		{"进行中", stats.InProgress},
		{"已排期", stats.Scheduled},
		{"已逾期", stats.Overdue},
		{"已取消", stats.Cancelled},
		{"费用合计", stats.TotalCost},
	}
	for i, row := range summaryRows {
		f.SetCellValue(summary, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(summary, fmt.Sprintf("B%d", i+1), row[1])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}

package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/nimo-cmms/internal/middleware"
	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"github.com/bitfantasy/nimo-cmms/internal/service"
	"github.com/bitfantasy/nimo-cmms/internal/testutil"
)

func setupMaintenanceTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	testutil.SeedTestUser(t, db, "test-admin-001", "Test", "Admin", "admin@test.com", entity.RoleAdmin)
	testutil.SeedTestUser(t, db, "tech-001", "Marc", "Dupont", "marc@test.com", entity.RoleTechnician)
	testutil.SeedTestUser(t, db, "office-001", "Julie", "Martin", "julie@test.com", entity.RoleAdministration)
	testutil.SeedTestMachine(t, db, "machine-001", "Presse hydraulique", "PRH-001")

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	audit := service.NewAuditService(repos.AuditLog, logger)
	storage := service.NewStorageService(nil, "", logger)
	svc := service.NewMaintenanceService(repos.Maintenance, repos.Machine, repos.User, repos.Attachment, storage, audit)
	h := NewMaintenanceHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	maintenance := api.Group("/maintenance-schedules")
	maintenance.GET("", h.List)
	maintenance.GET("/overdue", h.Overdue)
	maintenance.GET("/stats", h.Stats)
	maintenance.GET("/stats/export", h.ExportStats)
	maintenance.GET("/:id", h.Get)
	maintenance.POST("", middleware.RequireRole(entity.RoleAdmin, entity.RoleTechnician), h.Create)
	maintenance.PUT("/:id", middleware.RequireRole(entity.RoleAdmin, entity.RoleTechnician), h.Update)
	maintenance.POST("/:id/complete", middleware.RequireRole(entity.RoleAdmin, entity.RoleTechnician), h.Complete)
	maintenance.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Delete)

	return router, db
}

func createSchedule(t *testing.T, router *gin.Engine, token string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(router, "POST", "/api/v1/maintenance-schedules", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

func completeSchedule(router *gin.Engine, token, id, notes string) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("completion_notes", notes)
	writer.WriteField("actual_cost", "125.50")
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/maintenance-schedules/"+id+"/complete", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMaintenanceCreateRecurring(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	scheduled := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Graissage hebdomadaire",
		"machine_id":     "machine-001",
		"technician_id":  "tech-001",
		"scheduled_date": scheduled.Format(time.RFC3339),
		"frequency":      "weekly",
	})

	if data["status"] != "scheduled" {
		t.Errorf("Expected status 'scheduled', got %v", data["status"])
	}
	next, _ := time.Parse(time.RFC3339, data["next_scheduled_date"].(string))
	if !next.Equal(scheduled.AddDate(0, 0, 7)) {
		t.Errorf("Expected next date %v, got %v", scheduled.AddDate(0, 0, 7), next)
	}

	// 设备维护日期已回写
	var machine entity.Machine
	if err := db.First(&machine, "id = ?", "machine-001").Error; err != nil {
		t.Fatalf("Failed to load machine: %v", err)
	}
	if machine.LastMaintenanceDate == nil || !machine.LastMaintenanceDate.Equal(scheduled) {
		t.Errorf("Expected last maintenance date %v, got %v", scheduled, machine.LastMaintenanceDate)
	}
	if machine.NextMaintenanceDate == nil || !machine.NextMaintenanceDate.Equal(scheduled.AddDate(0, 0, 7)) {
		t.Errorf("Expected next maintenance date %v, got %v", scheduled.AddDate(0, 0, 7), machine.NextMaintenanceDate)
	}
}

func TestMaintenanceCreateOnceHasNoNextDate(t *testing.T) {
	router, _ := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Remplacement courroie",
		"machine_id":     "machine-001",
		"scheduled_date": time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
	})

	if data["next_scheduled_date"] != nil {
		t.Errorf("Expected nil next_scheduled_date, got %v", data["next_scheduled_date"])
	}
	if data["frequency"] != "once" {
		t.Errorf("Expected frequency 'once', got %v", data["frequency"])
	}
}

func TestMaintenanceCreateValidation(t *testing.T) {
	router, _ := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	// 标题过短
	w := testutil.DoRequest(router, "POST", "/api/v1/maintenance-schedules", map[string]interface{}{
		"title":          "abc",
		"machine_id":     "machine-001",
		"scheduled_date": time.Now().Format(time.RFC3339),
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short title, got %d", w.Code)
	}

	// 设备不存在
	w = testutil.DoRequest(router, "POST", "/api/v1/maintenance-schedules", map[string]interface{}{
		"title":          "Maintenance inconnue",
		"machine_id":     "machine-missing",
		"scheduled_date": time.Now().Format(time.RFC3339),
	}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing machine, got %d", w.Code)
	}

	// 指派的用户不是技术员角色
	w = testutil.DoRequest(router, "POST", "/api/v1/maintenance-schedules", map[string]interface{}{
		"title":          "Maintenance administrative",
		"machine_id":     "machine-001",
		"technician_id":  "office-001",
		"scheduled_date": time.Now().Format(time.RFC3339),
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-technician assignee, got %d", w.Code)
	}
}

func TestMaintenanceComplete(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	db.Model(&entity.Machine{}).Where("id = ?", "machine-001").Update("status", entity.MachineStatusMaintenance)

	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Revision mensuelle",
		"machine_id":     "machine-001",
		"technician_id":  "tech-001",
		"scheduled_date": time.Now().Format(time.RFC3339),
		"frequency":      "monthly",
	})
	id := data["id"].(string)

	w := completeSchedule(router, token, id, "Tout est en ordre")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	completed := resp["data"].(map[string]interface{})
	if completed["status"] != "completed" {
		t.Errorf("Expected status 'completed', got %v", completed["status"])
	}
	if completed["completed_at"] == nil {
		t.Error("Expected completed_at to be set")
	}
	if completed["completed_by"] != "test-admin-001" {
		t.Errorf("Expected completed_by 'test-admin-001', got %v", completed["completed_by"])
	}
	if completed["actual_cost"].(float64) != 125.50 {
		t.Errorf("Expected actual_cost 125.50, got %v", completed["actual_cost"])
	}
	if completed["next_scheduled_date"] == nil {
		t.Error("Expected next_scheduled_date for recurring schedule")
	}

	// 设备恢复运行状态
	var machine entity.Machine
	db.First(&machine, "id = ?", "machine-001")
	if machine.Status != entity.MachineStatusOperational {
		t.Errorf("Expected machine operational, got %s", machine.Status)
	}
}

func TestMaintenanceUpdateKeepsNextDate(t *testing.T) {
	router, _ := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	scheduled := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Graissage hebdomadaire",
		"machine_id":     "machine-001",
		"technician_id":  "tech-001",
		"scheduled_date": scheduled.Format(time.RFC3339),
		"frequency":      "weekly",
	})
	id := data["id"].(string)

	// 修改频率不重算下一次维护日期，完成转换才会
	w := testutil.DoRequest(router, "PUT", "/api/v1/maintenance-schedules/"+id,
		map[string]interface{}{"frequency": "once"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	updated := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if updated["frequency"] != "once" {
		t.Errorf("Expected frequency 'once', got %v", updated["frequency"])
	}
	if updated["next_scheduled_date"] == nil {
		t.Fatal("Expected next_scheduled_date to be preserved")
	}
	next, _ := time.Parse(time.RFC3339, updated["next_scheduled_date"].(string))
	if !next.Equal(scheduled.AddDate(0, 0, 7)) {
		t.Errorf("Expected next date %v, got %v", scheduled.AddDate(0, 0, 7), next)
	}

	// 改计划日期同样保持不变
	w = testutil.DoRequest(router, "PUT", "/api/v1/maintenance-schedules/"+id,
		map[string]interface{}{"scheduled_date": scheduled.AddDate(0, 1, 0).Format(time.RFC3339)}, token)
	updated = testutil.ParseResponse(w)["data"].(map[string]interface{})
	next, _ = time.Parse(time.RFC3339, updated["next_scheduled_date"].(string))
	if !next.Equal(scheduled.AddDate(0, 0, 7)) {
		t.Errorf("Expected next date unchanged at %v, got %v", scheduled.AddDate(0, 0, 7), next)
	}
}

func TestMaintenanceUpdateDoubleCompleteRejected(t *testing.T) {
	router, _ := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Inspection trimestrielle",
		"machine_id":     "machine-001",
		"scheduled_date": time.Now().Format(time.RFC3339),
	})
	id := data["id"].(string)

	w := testutil.DoRequest(router, "PUT", "/api/v1/maintenance-schedules/"+id,
		map[string]interface{}{"status": "completed"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("First completion: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(router, "PUT", "/api/v1/maintenance-schedules/"+id,
		map[string]interface{}{"status": "completed"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	if code := testutil.ParseResponse(w)["code"].(float64); code != 40900 {
		t.Errorf("Expected business code 40900, got %v", code)
	}
}

func TestMaintenanceDoubleCompleteRejected(t *testing.T) {
	router, _ := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	data := createSchedule(t, router, token, map[string]interface{}{
		"title":          "Controle de securite",
		"machine_id":     "machine-001",
		"scheduled_date": time.Now().Format(time.RFC3339),
	})
	id := data["id"].(string)

	if w := completeSchedule(router, token, id, "ok"); w.Code != http.StatusOK {
		t.Fatalf("First complete: expected 200, got %d", w.Code)
	}

	w := completeSchedule(router, token, id, "encore")
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("Expected business code 40900, got %v", resp["code"])
	}
}

func TestMaintenanceOverdue(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	past := time.Now().AddDate(0, 0, -3)
	future := time.Now().AddDate(0, 0, 3)
	testutil.SeedTestSchedule(t, db, "sched-past", "machine-001", "tech-001", past, entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	testutil.SeedTestSchedule(t, db, "sched-future", "machine-001", "tech-001", future, entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	testutil.SeedTestSchedule(t, db, "sched-done", "machine-001", "tech-001", past, entity.MaintenanceStatusCompleted, entity.FrequencyOnce)

	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules/overdue", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected exactly 1 overdue schedule, got %d", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["id"] != "sched-past" {
		t.Errorf("Expected 'sched-past', got %v", first["id"])
	}
	// 逾期状态只在查询时判定，库里仍是scheduled
	if first["status"] != "scheduled" {
		t.Errorf("Expected stored status 'scheduled', got %v", first["status"])
	}
}

func TestMaintenanceStats(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	now := time.Now()
	testutil.SeedTestSchedule(t, db, "st-1", "machine-001", "tech-001", now.AddDate(0, 0, 1), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	testutil.SeedTestSchedule(t, db, "st-2", "machine-001", "tech-001", now.AddDate(0, 0, 2), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	done := testutil.SeedTestSchedule(t, db, "st-3", "machine-001", "tech-001", now, entity.MaintenanceStatusCompleted, entity.FrequencyOnce)
	db.Model(done).Update("actual_cost", 200.0)

	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules/stats", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 3 {
		t.Errorf("Expected total 3, got %v", data["total"])
	}
	if data["scheduled"].(float64) != 2 {
		t.Errorf("Expected scheduled 2, got %v", data["scheduled"])
	}
	if data["completed"].(float64) != 1 {
		t.Errorf("Expected completed 1, got %v", data["completed"])
	}
	if data["total_cost"].(float64) != 200.0 {
		t.Errorf("Expected total_cost 200, got %v", data["total_cost"])
	}
	byType := data["by_type"].(map[string]interface{})
	preventive := byType["preventive"].(map[string]interface{})
	if preventive["count"].(float64) != 3 {
		t.Errorf("Expected 3 preventive, got %v", preventive["count"])
	}
}

func TestMaintenanceStatsRangeFiltersOverdue(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	now := time.Now()
	testutil.SeedTestSchedule(t, db, "ovr-in", "machine-001", "tech-001", now.AddDate(0, 0, -3), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	testutil.SeedTestSchedule(t, db, "ovr-out", "machine-001", "tech-001", now.AddDate(0, 0, -30), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)

	start := now.AddDate(0, 0, -7).Format("2006-01-02")
	end := now.Format("2006-01-02")
	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules/stats?start_date="+start+"&end_date="+end, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	// 逾期数与其他桶一样受日期范围约束
	if data["overdue"].(float64) != 1 {
		t.Errorf("Expected 1 overdue within range, got %v", data["overdue"])
	}
	if data["total"].(float64) != 1 {
		t.Errorf("Expected total 1 within range, got %v", data["total"])
	}
}

func TestMaintenanceStatsCountsStoredOverdue(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestSchedule(t, db, "ovr-st", "machine-001", "tech-001", time.Now().AddDate(0, 0, -1), entity.MaintenanceStatusOverdue, entity.FrequencyOnce)

	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules/stats", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["overdue"].(float64) != 1 {
		t.Errorf("Expected stored overdue row in overdue bucket, got %v", data["overdue"])
	}
	if data["total"].(float64) != 1 {
		t.Errorf("Expected total 1, got %v", data["total"])
	}
}

func TestMaintenanceStatsExport(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	testutil.SeedTestSchedule(t, db, "exp-1", "machine-001", "tech-001", time.Now(), entity.MaintenanceStatusCompleted, entity.FrequencyOnce)

	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules/stats/export", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Unexpected content type: %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("Expected non-empty xlsx body")
	}
}

func TestMaintenanceDeleteCascadesAttachments(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	sched := testutil.SeedTestSchedule(t, db, "del-1", "machine-001", "tech-001", time.Now(), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	for _, attID := range []string{"att-1", "att-2"} {
		att := &entity.FileAttachment{
			ID:                    attID,
			Filename:              attID + ".jpg",
			OriginalName:          attID + ".jpg",
			Path:                  "attachments/2024/01/01/" + attID + ".jpg",
			Mimetype:              "image/jpeg",
			Size:                  1024,
			Category:              entity.FileCategoryImage,
			FileType:              entity.FileTypeMaintenance,
			MaintenanceScheduleID: sched.ID,
			UploadedBy:            "tech-001",
		}
		if err := db.Create(att).Error; err != nil {
			t.Fatalf("Failed to seed attachment: %v", err)
		}
	}

	w := testutil.DoRequest(router, "DELETE", "/api/v1/maintenance-schedules/"+sched.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.FileAttachment{}).Where("maintenance_schedule_id = ?", sched.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 attachments after delete, got %d", count)
	}
	var schedCount int64
	db.Model(&entity.MaintenanceSchedule{}).Where("id = ?", sched.ID).Count(&schedCount)
	if schedCount != 0 {
		t.Errorf("Expected schedule to be deleted")
	}
}

func TestMaintenanceDeleteCascadesDespiteStorageFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedTestUser(t, db, "test-admin-001", "Test", "Admin", "admin@test.com", entity.RoleAdmin)
	testutil.SeedTestUser(t, db, "tech-001", "Marc", "Dupont", "marc@test.com", entity.RoleTechnician)
	testutil.SeedTestMachine(t, db, "machine-001", "Presse hydraulique", "PRH-001")

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	audit := service.NewAuditService(repos.AuditLog, logger)

	// 指向不可达端点的存储客户端，删除文件必然失败
	client, err := minio.New("127.0.0.1:1", &minio.Options{
		Creds:  credentials.NewStaticV4("test", "test", ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("minio client: %v", err)
	}
	storage := service.NewStorageService(client, "cmms-attachments", logger)
	svc := service.NewMaintenanceService(repos.Maintenance, repos.Machine, repos.User, repos.Attachment, storage, audit)
	h := NewMaintenanceHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.DELETE("/maintenance-schedules/:id", middleware.RequireRole(entity.RoleAdmin), h.Delete)

	sched := testutil.SeedTestSchedule(t, db, "del-fail", "machine-001", "tech-001", time.Now(), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	att := &entity.FileAttachment{
		ID:                    "att-fail",
		Filename:              "photo.jpg",
		OriginalName:          "photo.jpg",
		Path:                  "attachments/2024/01/01/photo.jpg",
		Mimetype:              "image/jpeg",
		Size:                  1024,
		Category:              entity.FileCategoryImage,
		FileType:              entity.FileTypeMaintenance,
		MaintenanceScheduleID: sched.ID,
		UploadedBy:            "tech-001",
	}
	if err := db.Create(att).Error; err != nil {
		t.Fatalf("Failed to seed attachment: %v", err)
	}

	w := testutil.DoRequest(router, "DELETE", "/api/v1/maintenance-schedules/"+sched.ID, nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 despite storage failure, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.FileAttachment{}).Where("maintenance_schedule_id = ?", sched.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 attachment rows after delete, got %d", count)
	}
	db.Model(&entity.MaintenanceSchedule{}).Where("id = ?", sched.ID).Count(&count)
	if count != 0 {
		t.Error("Expected schedule to be deleted")
	}
}

func TestMaintenanceDeleteRequiresAdmin(t *testing.T) {
	router, db := setupMaintenanceTest(t)

	sched := testutil.SeedTestSchedule(t, db, "del-2", "machine-001", "tech-001", time.Now(), entity.MaintenanceStatusScheduled, entity.FrequencyOnce)

	w := testutil.DoRequest(router, "DELETE", "/api/v1/maintenance-schedules/"+sched.ID, nil, testutil.TechnicianToken("tech-001"))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technician delete, got %d", w.Code)
	}
}

func TestMaintenanceListFilters(t *testing.T) {
	router, db := setupMaintenanceTest(t)
	token := testutil.AdminToken()

	now := time.Now()
	testutil.SeedTestSchedule(t, db, "ls-1", "machine-001", "tech-001", now, entity.MaintenanceStatusScheduled, entity.FrequencyOnce)
	testutil.SeedTestSchedule(t, db, "ls-2", "machine-001", "tech-001", now, entity.MaintenanceStatusCompleted, entity.FrequencyOnce)

	w := testutil.DoRequest(router, "GET", "/api/v1/maintenance-schedules?status=completed", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Errorf("Expected total 1, got %v", data["total"])
	}
	counts := data["status_counts"].(map[string]interface{})
	if counts["scheduled"].(float64) != 1 {
		t.Errorf("Expected 1 scheduled in status counts, got %v", counts["scheduled"])
	}
}

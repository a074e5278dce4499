package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/nimo-cmms/internal/middleware"
	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"github.com/bitfantasy/nimo-cmms/internal/service"
	"github.com/bitfantasy/nimo-cmms/internal/testutil"
)

func setupReportTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	testutil.SeedTestUser(t, db, "test-admin-001", "Test", "Admin", "admin@test.com", entity.RoleAdmin)
	testutil.SeedTestUser(t, db, "tech-001", "Marc", "Dupont", "marc@test.com", entity.RoleTechnician)
	testutil.SeedTestUser(t, db, "tech-002", "Paul", "Durand", "paul@test.com", entity.RoleTechnician)
	testutil.SeedTestMachine(t, db, "machine-001", "Presse hydraulique", "PRH-001")

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	audit := service.NewAuditService(repos.AuditLog, logger)
	storage := service.NewStorageService(nil, "", logger)
	svc := service.NewReportService(repos.Report, repos.Machine, repos.Attachment, storage, audit)
	h := NewReportHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	reports := api.Group("/reports")
	reports.GET("", h.List)
	reports.GET("/:id", h.Get)
	reports.POST("", middleware.RequireRole(entity.RoleTechnician), h.Create)
	reports.PUT("/:id", h.Update)
	reports.PATCH("/:id/submit", middleware.RequireRole(entity.RoleTechnician), h.Submit)
	reports.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin, entity.RoleTechnician), h.Delete)

	return router, db
}

func createReport(t *testing.T, router *gin.Engine, token string, fields map[string]string, withFile bool) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	defaults := map[string]string{
		"title":               "Intervention sur presse",
		"work_date":           time.Now().Format("2006-01-02"),
		"start_time":          "08:00",
		"end_time":            "10:30",
		"machine_id":          "machine-001",
		"problem_description": "Vibration anormale sur l'axe principal",
		"actions_taken":       "Resserrage des fixations et graissage",
	}
	for k, v := range fields {
		defaults[k] = v
	}
	for k, v := range defaults {
		writer.WriteField(k, v)
	}

	if withFile {
		part, err := writer.CreateFormFile("files", "photo.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		io.Copy(part, strings.NewReader("fake image bytes"))
	}
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/reports", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestReportCreate(t *testing.T) {
	router, _ := setupReportTest(t)

	w := createReport(t, router, testutil.TechnicianToken("tech-001"), nil, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != "draft" {
		t.Errorf("Expected status 'draft', got %v", data["status"])
	}
	if data["duration"].(float64) != 150 {
		t.Errorf("Expected duration 150, got %v", data["duration"])
	}
	if data["technician_id"] != "tech-001" {
		t.Errorf("Expected technician 'tech-001', got %v", data["technician_id"])
	}
	attachments := data["attachments"].([]interface{})
	if len(attachments) != 1 {
		t.Errorf("Expected 1 attachment, got %d", len(attachments))
	}
}

func TestReportCreateInvalidTimes(t *testing.T) {
	router, _ := setupReportTest(t)

	w := createReport(t, router, testutil.TechnicianToken("tech-001"), map[string]string{
		"start_time": "10:30",
		"end_time":   "08:00",
	}, false)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReportSubmitOneWay(t *testing.T) {
	router, _ := setupReportTest(t)
	token := testutil.TechnicianToken("tech-001")

	w := createReport(t, router, token, nil, false)
	resp := testutil.ParseResponse(w)
	id := resp["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(router, "PATCH", "/api/v1/reports/"+id+"/submit", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["status"] != "submitted" {
		t.Errorf("Expected status 'submitted', got %v", data["status"])
	}

	// 重复提交返回冲突
	w3 := testutil.DoRequest(router, "PATCH", "/api/v1/reports/"+id+"/submit", nil, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", w3.Code, w3.Body.String())
	}
	if code := testutil.ParseResponse(w3)["code"].(float64); code != 40900 {
		t.Errorf("Expected business code 40900, got %v", code)
	}
}

func TestReportTechnicianCannotEditSubmitted(t *testing.T) {
	router, db := setupReportTest(t)
	token := testutil.TechnicianToken("tech-001")

	testutil.SeedTestReport(t, db, "rep-sub", "machine-001", "tech-001", entity.ReportStatusSubmitted)

	w := testutil.DoRequest(router, "PUT", "/api/v1/reports/rep-sub",
		map[string]string{"title": "Titre modifie apres coup"}, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReportOwnershipVisibility(t *testing.T) {
	router, db := setupReportTest(t)

	testutil.SeedTestReport(t, db, "rep-own", "machine-001", "tech-001", entity.ReportStatusDraft)

	// 其他技术员看不到
	w := testutil.DoRequest(router, "GET", "/api/v1/reports", nil, testutil.TechnicianToken("tech-002"))
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total"].(float64) != 0 {
		t.Errorf("Expected 0 reports for other technician, got %v", data["total"])
	}

	// 其他技术员直接访问被拒
	w = testutil.DoRequest(router, "GET", "/api/v1/reports/rep-own", nil, testutil.TechnicianToken("tech-002"))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for other technician, got %d", w.Code)
	}

	// 管理员可以看到全部
	w = testutil.DoRequest(router, "GET", "/api/v1/reports", nil, testutil.AdminToken())
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["total"].(float64) != 1 {
		t.Errorf("Expected 1 report for admin, got %v", data["total"])
	}
}

func TestReportAdminDeleteSubmitted(t *testing.T) {
	router, db := setupReportTest(t)

	testutil.SeedTestReport(t, db, "rep-del", "machine-001", "tech-001", entity.ReportStatusSubmitted)

	// 技术员不能删除已提交的报告
	w := testutil.DoRequest(router, "DELETE", "/api/v1/reports/rep-del", nil, testutil.TechnicianToken("tech-001"))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technician, got %d", w.Code)
	}

	// 管理员不受状态限制
	w = testutil.DoRequest(router, "DELETE", "/api/v1/reports/rep-del", nil, testutil.AdminToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.Report{}).Where("id = ?", "rep-del").Count(&count)
	if count != 0 {
		t.Error("Expected report to be deleted")
	}
}

func TestReportCreateRequiresTechnicianRole(t *testing.T) {
	router, _ := setupReportTest(t)

	w := createReport(t, router, testutil.AdminToken(), nil, false)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for admin creating report, got %d", w.Code)
	}
}

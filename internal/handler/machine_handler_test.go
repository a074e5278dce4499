package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bitfantasy/nimo-cmms/internal/middleware"
	"github.com/bitfantasy/nimo-cmms/internal/model/entity"
	"github.com/bitfantasy/nimo-cmms/internal/repository"
	"github.com/bitfantasy/nimo-cmms/internal/service"
	"github.com/bitfantasy/nimo-cmms/internal/testutil"
)

func setupMachineTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	testutil.SeedTestUser(t, db, "test-admin-001", "Test", "Admin", "admin@test.com", entity.RoleAdmin)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	audit := service.NewAuditService(repos.AuditLog, logger)
	storage := service.NewStorageService(nil, "", logger)
	svc := service.NewMachineService(repos.Machine, repos.Attachment, storage, audit)
	h := NewMachineHandler(svc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	machines := api.Group("/machines")
	machines.GET("", h.List)
	machines.GET("/:id", h.Get)
	machines.POST("", middleware.RequireRole(entity.RoleAdmin, entity.RoleAdministration), h.Create)
	machines.PUT("/:id", middleware.RequireRole(entity.RoleAdmin, entity.RoleAdministration), h.Update)
	machines.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Delete)

	return router, db
}

func createMachine(t *testing.T, router *gin.Engine, token string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	defaults := map[string]string{
		"name":       "Tour CNC",
		"reference":  "CNC-042",
		"location":   "Atelier B",
		"department": "production",
	}
	for k, v := range fields {
		defaults[k] = v
	}
	for k, v := range defaults {
		writer.WriteField(k, v)
	}
	writer.Close()

	req, _ := http.NewRequest("POST", "/api/v1/machines", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMachineCreateAndList(t *testing.T) {
	router, _ := setupMachineTest(t)
	token := testutil.AdminToken()

	w := createMachine(t, router, token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "operational" {
		t.Errorf("Expected default status 'operational', got %v", data["status"])
	}

	createMachine(t, router, token, map[string]string{
		"name":      "Compresseur",
		"reference": "CMP-007",
		"status":    "breakdown",
	})

	w = testutil.DoRequest(router, "GET", "/api/v1/machines", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	listData := testutil.ParseResponse(w)["data"].(map[string]interface{})
	machines := listData["machines"].([]interface{})
	if len(machines) != 2 {
		t.Errorf("Expected 2 machines, got %d", len(machines))
	}
	counts := listData["status_counts"].(map[string]interface{})
	if counts["operational"].(float64) != 1 {
		t.Errorf("Expected 1 operational, got %v", counts["operational"])
	}
	if counts["breakdown"].(float64) != 1 {
		t.Errorf("Expected 1 breakdown, got %v", counts["breakdown"])
	}

	// 状态过滤
	w = testutil.DoRequest(router, "GET", "/api/v1/machines?status=breakdown", nil, token)
	listData = testutil.ParseResponse(w)["data"].(map[string]interface{})
	machines = listData["machines"].([]interface{})
	if len(machines) != 1 {
		t.Errorf("Expected 1 breakdown machine, got %d", len(machines))
	}
}

func TestMachineCreateRequiresRole(t *testing.T) {
	router, _ := setupMachineTest(t)

	w := createMachine(t, router, testutil.TechnicianToken("tech-001"), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technician, got %d", w.Code)
	}
}

func TestMachineDeleteCascadesAttachments(t *testing.T) {
	router, db := setupMachineTest(t)
	token := testutil.AdminToken()

	machine := testutil.SeedTestMachine(t, db, "machine-del", "Fraiseuse", "FRS-001")
	att := &entity.FileAttachment{
		ID:           "att-m1",
		Filename:     "machine.jpg",
		OriginalName: "machine.jpg",
		Path:         "attachments/2024/01/01/machine.jpg",
		Mimetype:     "image/jpeg",
		Size:         2048,
		Category:     entity.FileCategoryImage,
		FileType:     entity.FileTypeMachine,
		MachineID:    machine.ID,
		UploadedBy:   "test-admin-001",
	}
	if err := db.Create(att).Error; err != nil {
		t.Fatalf("Failed to seed attachment: %v", err)
	}

	w := testutil.DoRequest(router, "DELETE", "/api/v1/machines/"+machine.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&entity.FileAttachment{}).Where("machine_id = ?", machine.ID).Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 attachments after delete, got %d", count)
	}
}

func TestMachineUpdate(t *testing.T) {
	router, db := setupMachineTest(t)
	token := testutil.AdminToken()

	machine := testutil.SeedTestMachine(t, db, "machine-upd", "Perceuse", "PRC-001")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("status", "maintenance")
	writer.WriteField("location", "Atelier C")
	writer.Close()

	req, _ := http.NewRequest("PUT", "/api/v1/machines/"+machine.ID, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != "maintenance" {
		t.Errorf("Expected status 'maintenance', got %v", data["status"])
	}
	if data["location"] != "Atelier C" {
		t.Errorf("Expected location 'Atelier C', got %v", data["location"])
	}
	// 未提交的字段保持原值
	if data["name"] != "Perceuse" {
		t.Errorf("Expected unchanged name 'Perceuse', got %v", data["name"])
	}
}

package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/leadpocket/leadpocket/internal/db/models"
)

var errDBBoom = errors.New("boom")

var leadCols = []string{"id", "name", "email", "phone", "product_type", "job_value", "status", "organization_id", "created_by", "created_at"}

func newLeadRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/leads", ListHandler(sqlxDB))
	r.POST("/api/leads", CreateHandler(sqlxDB))
	return r, mock
}

func TestListLeadsRequiresOrganizationID(t *testing.T) {
	r, _ := newLeadRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "Organization ID required" {
		t.Errorf("error = %q, want %q", body["error"], "Organization ID required")
	}
}

func TestListLeadsNewestFirst(t *testing.T) {
	r, mock := newLeadRouter(t)

	newer := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT.*FROM leads.*WHERE organization_id.*ORDER BY created_at DESC").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(leadCols).
			AddRow("lead-2", "Jane", "jane@x.com", "0400", models.ProductBlinds, 1200.50, models.StatusNew, "org-1", "user-1", newer).
			AddRow("lead-1", "John", "john@x.com", "0401", models.ProductShutters, 3000.0, models.StatusContacted, "org-1", "user-1", older))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads?organizationId=org-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var leads []models.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &leads); err != nil {
		t.Fatalf("body is not a lead array: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("got %d leads, want 2", len(leads))
	}
	if leads[0].ID != "lead-2" || leads[1].ID != "lead-1" {
		t.Errorf("order = [%s %s], want newest first", leads[0].ID, leads[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListLeadsEmptyIsArrayNotNull(t *testing.T) {
	r, mock := newLeadRouter(t)

	mock.ExpectQuery("SELECT.*FROM leads").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows(leadCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads?organizationId=org-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestListLeadsQueryFailureReturnsStorageError(t *testing.T) {
	r, mock := newLeadRouter(t)

	mock.ExpectQuery("SELECT.*FROM leads").
		WithArgs("org-1").
		WillReturnError(errDBBoom)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads?organizationId=org-1", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if !strings.Contains(body["error"], "boom") {
		t.Errorf("error = %q, want the storage error message", body["error"])
	}
}

func TestCreateLeadForcesStatusNew(t *testing.T) {
	r, mock := newLeadRouter(t)

	created := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO leads.*RETURNING id, status, created_at").
		WithArgs("Jane", "jane@x.com", "0400", models.ProductBlinds, 1200.50, models.StatusNew, "org-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).
			AddRow("lead-1", models.StatusNew, created))

	payload := `{"name":"Jane","email":"jane@x.com","phone":"0400","product_type":"blinds","job_value":1200.50,"status":"won","organizationId":"org-1","createdBy":"user-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var lead models.Lead
	if err := json.Unmarshal(w.Body.Bytes(), &lead); err != nil {
		t.Fatalf("body is not a lead: %v", err)
	}
	if lead.Status != models.StatusNew {
		t.Errorf("status = %q, want %q even when the client sent won", lead.Status, models.StatusNew)
	}
	if lead.ID != "lead-1" {
		t.Errorf("id = %q, want the database-assigned id", lead.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateLeadMalformedJSON(t *testing.T) {
	r, _ := newLeadRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("error = %q, want generic message", body["error"])
	}
}

func TestCreateLeadInsertFailure(t *testing.T) {
	r, mock := newLeadRouter(t)

	mock.ExpectQuery("INSERT INTO leads").
		WillReturnError(errDBBoom)

	payload := `{"name":"Jane","email":"jane@x.com","phone":"0400","product_type":"blinds","job_value":1,"organizationId":"org-1","createdBy":"user-1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "boom") {
		t.Errorf("body = %s, want the storage error message", w.Body.String())
	}
}

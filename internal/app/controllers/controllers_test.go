package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/controllers"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/repositories/mock"
	"github.com/yigit/alumnitrack/internal/app/routes"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/middleware"
	"github.com/yigit/alumnitrack/internal/pkg/auth"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
	"github.com/yigit/alumnitrack/internal/pkg/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopEmail struct{}

func (nopEmail) SendPasswordResetEmail(toEmail, toName, token string) error { return nil }
func (nopEmail) SendAdminWelcomeEmail(toEmail, toName, employeeID string) error {
	return nil
}

type apiEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testAPI struct {
	router *gin.Engine
	store  *mock.AlumniStore
	audit  *mock.AuditStore
	jwt    *auth.JWTService
	clock  *helpers.ManualClock
}

func newTestAPI(t *testing.T, limiter *middleware.TokenBucket) *testAPI {
	t.Helper()
	lgr := zerolog.Nop()
	store := mock.NewAlumniStore()
	auditStore := mock.NewAuditStore()
	clock := helpers.NewManualClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "controller-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnitrack-test",
	})

	audit := services.NewAuditService(queue.NewInMemory(256), auditStore, lgr)
	dashboard := services.NewDashboardService(store, time.Minute, clock, lgr)
	guard := services.NewDuplicateGuard(store, lgr)
	lifecycle := services.NewLifecycleService(&mock.Transactor{}, store, audit, dashboard, clock, lgr)
	authService := services.NewAuthService(services.AuthDeps{
		Tx:        &mock.Transactor{},
		AdminRepo: mock.NewAdminStore(),
		TokenRepo: mock.NewTokenStore(),
		ResetRepo: mock.NewResetTokenStore(),
		JWT:       jwtService,
		Email:     nopEmail{},
		Audit:     audit,
		Clock:     clock,
	}, lgr)

	router := gin.New()
	routes.SetupRouter(router, routes.Controllers{
		Auth: controllers.NewAuthController(authService, lgr),
		Alumni: controllers.NewAlumniController(
			services.NewAlumniService(store, guard, audit, dashboard, lgr),
			guard,
			services.NewCompletionService(store, mock.NewFormCompletionStore(), audit, clock, lgr),
			lifecycle,
			services.NewExportService(store, audit, clock, lgr),
			lgr,
		),
		Archive:    controllers.NewArchiveController(lifecycle, lgr),
		BulkUpload: controllers.NewBulkUploadController(services.NewBulkUploadService(store, guard, audit, dashboard, 8, time.Minute, clock, lgr), 1<<16, lgr),
		Audit:      controllers.NewAuditController(services.NewAuditService(queue.NewInMemory(1), auditStore, lgr), lgr),
		Dashboard:  controllers.NewDashboardController(dashboard),
	}, middleware.NewAuthMiddleware(jwtService), limiter)

	return &testAPI{router: router, store: store, audit: auditStore, jwt: jwtService, clock: clock}
}

func (a *testAPI) token(t *testing.T, role models.AdminRole) string {
	t.Helper()
	pair, err := a.jwt.GenerateTokenPair(&models.Admin{ID: 7, Email: "maria@school.edu", EmployeeID: "EMP-0007", Role: role})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return pair.AccessToken
}

func (a *testAPI) do(t *testing.T, method, path, token, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) doJSON(t *testing.T, method, path, token string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if v != nil {
		var err error
		if body, err = json.Marshal(v); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	return a.do(t, method, path, token, "application/json", body)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func TestRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, path := range []string{"/api/v1/alumni", "/api/v1/archive", "/api/v1/audit-trail", "/api/v1/dashboard/stats"} {
		w := api.do(t, http.MethodGet, path, "", "", nil)
		expectStatus(t, w, http.StatusUnauthorized)
	}
}

func TestAlumniCreateGetAndDuplicate(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)

	req := map[string]interface{}{"studentNumber": "2019-00123", "email": "jane@x.com", "fullName": "Jane Doe", "jobStatus": "employed"}
	w := api.doJSON(t, http.MethodPost, "/api/v1/alumni", token, req)
	expectStatus(t, w, http.StatusCreated)

	var created struct {
		ID    int64  `json:"id"`
		State string `json:"state"`
	}
	decode(t, w, &created)
	if created.ID == 0 || created.State != "active" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	w = api.doJSON(t, http.MethodPost, "/api/v1/alumni", token, map[string]interface{}{
		"studentNumber": "2019-99999", "email": "jane@x.com", "fullName": "Jane Again",
	})
	expectStatus(t, w, http.StatusConflict)

	w = api.doJSON(t, http.MethodPost, "/api/v1/alumni/check-duplicate", token, map[string]interface{}{"studentNumber": "2019-00123"})
	expectStatus(t, w, http.StatusOK)
	var check models.DuplicateCheck
	decode(t, w, &check)
	if !check.Exists {
		t.Fatalf("expected duplicate to be reported")
	}

	w = api.do(t, http.MethodGet, "/api/v1/alumni/abc", token, "", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = api.do(t, http.MethodGet, "/api/v1/alumni/999", token, "", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestAlumniCreateValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)

	w := api.doJSON(t, http.MethodPost, "/api/v1/alumni", token, map[string]interface{}{"fullName": "J"})
	expectStatus(t, w, http.StatusBadRequest)
	env := decode(t, w, nil)
	if env.Error == nil || env.Error.Code != "VAL_001" {
		t.Fatalf("expected VAL_001, got %+v", env.Error)
	}

	w = api.do(t, http.MethodGet, "/api/v1/alumni?jobStatus=astronaut", token, "", nil)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestArchiveLifecycleRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	admin := api.token(t, models.RoleAdmin)
	a := api.store.Seed(&models.Alumni{StudentNumber: "S-1", Email: "a@x.com", FullName: "Ana Cruz", IsActive: true})

	w := api.doJSON(t, http.MethodPost, "/api/v1/alumni/"+itoa(a.ID)+"/archive", admin, map[string]string{"reason": "Graduated twice"})
	expectStatus(t, w, http.StatusOK)

	w = api.doJSON(t, http.MethodPost, "/api/v1/alumni/"+itoa(a.ID)+"/archive", admin, nil)
	expectStatus(t, w, http.StatusConflict)

	w = api.do(t, http.MethodGet, "/api/v1/archive", admin, "", nil)
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Entries []models.ArchiveEntry `json:"entries"`
	}
	decode(t, w, &list)
	if len(list.Entries) != 1 || list.Entries[0].Status != models.ArchiveStatusArchived {
		t.Fatalf("unexpected archive listing: %+v", list.Entries)
	}

	w = api.do(t, http.MethodGet, "/api/v1/archive?status=bogus", admin, "", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = api.do(t, http.MethodPost, "/api/v1/archive/cleanup", admin, "", nil)
	expectStatus(t, w, http.StatusForbidden)

	w = api.do(t, http.MethodPost, "/api/v1/archive/cleanup", api.token(t, models.RoleSuperAdmin), "", nil)
	expectStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodPost, "/api/v1/archive/"+itoa(a.ID)+"/restore", admin, "", nil)
	expectStatus(t, w, http.StatusOK)

	w = api.do(t, http.MethodDelete, "/api/v1/archive/"+itoa(a.ID), admin, "", nil)
	expectStatus(t, w, http.StatusConflict)
}

func TestBulkArchiveReportsEachID(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)
	a := api.store.Seed(&models.Alumni{StudentNumber: "S-1", FullName: "Ana", IsActive: true})

	w := api.doJSON(t, http.MethodPost, "/api/v1/alumni/bulk-archive", token, map[string]interface{}{"ids": []int64{a.ID, 404}})
	expectStatus(t, w, http.StatusOK)
	var result models.BatchResult
	decode(t, w, &result)
	if result.Succeeded != 1 || result.Failed != 1 || len(result.Results) != 2 {
		t.Fatalf("unexpected batch result: %+v", result)
	}

	w = api.doJSON(t, http.MethodPost, "/api/v1/alumni/bulk-archive", token, map[string]interface{}{"ids": []int64{}})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestExportWritesCSVAttachment(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)
	api.store.Seed(&models.Alumni{StudentNumber: "S-1", Email: "a@x.com", FullName: "Ana Cruz", IsActive: true})

	w := api.do(t, http.MethodGet, "/api/v1/alumni/export", token, "", nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "alumni_export_2025-03-01.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(w.Body.String(), "Ana Cruz") {
		t.Fatalf("expected the record in the export, got %q", w.Body.String())
	}

	w = api.do(t, http.MethodGet, "/api/v1/alumni/export?scope=deleted", token, "", nil)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestBulkUploadStageAndConfirm(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)
	csv := "Full Name,Email,Student\nAna Cruz,ana@x.com,S-1\nBen Reyes,ben@x.com,S-2\n"

	w := api.do(t, http.MethodPost, "/api/v1/bulk-uploads", token, "text/csv", []byte(csv))
	expectStatus(t, w, http.StatusOK)
	var batch models.StagedBatch
	decode(t, w, &batch)
	if batch.BatchID == "" || len(batch.Candidates) != 2 {
		t.Fatalf("unexpected staged batch: %+v", batch)
	}
	if api.store.Len() != 0 {
		t.Fatalf("staging must not write records")
	}

	w = api.doJSON(t, http.MethodPost, "/api/v1/bulk-uploads/"+batch.BatchID+"/confirm", token, map[string][]int{"selected": {0}})
	expectStatus(t, w, http.StatusOK)
	var summary models.UploadSummary
	decode(t, w, &summary)
	if summary.Succeeded != 1 || api.store.Len() != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	w = api.doJSON(t, http.MethodPost, "/api/v1/bulk-uploads/"+batch.BatchID+"/confirm", token, map[string][]int{"selected": {1}})
	expectStatus(t, w, http.StatusNotFound)

	w = api.do(t, http.MethodPost, "/api/v1/bulk-uploads", token, "text/csv", nil)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestBulkUploadRejectsOversizedBody(t *testing.T) {
	api := newTestAPI(t, nil)
	body := "Full Name,Student\n" + strings.Repeat("Ana Cruz,S-1\n", 8000)

	w := api.do(t, http.MethodPost, "/api/v1/bulk-uploads", api.token(t, models.RoleAdmin), "text/csv", []byte(body))
	expectStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestBulkUploadRejectsOversizedMultipartFile(t *testing.T) {
	api := newTestAPI(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "alumni.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("Full Name,Student\n" + strings.Repeat("Ana Cruz,S-1\n", 8000))); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	w := api.do(t, http.MethodPost, "/api/v1/bulk-uploads", api.token(t, models.RoleAdmin), mw.FormDataContentType(), buf.Bytes())
	expectStatus(t, w, http.StatusRequestEntityTooLarge)
}

func TestAuditTrailFilters(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.token(t, models.RoleAdmin)
	adminID := int64(7)
	if err := api.audit.Insert(context.Background(), &models.AuditEntry{AdminID: &adminID, Action: models.ActionArchiveAlumni, Status: models.AuditSuccess, CreatedAt: api.clock.Now()}); err != nil {
		t.Fatalf("seed audit: %v", err)
	}

	w := api.do(t, http.MethodGet, "/api/v1/audit-trail?action=archive_alumni", token, "", nil)
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Entries []models.AuditEntry `json:"entries"`
	}
	decode(t, w, &list)
	if len(list.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(list.Entries))
	}

	for _, q := range []string{"status=maybe", "adminId=-1", "since=yesterday"} {
		w = api.do(t, http.MethodGet, "/api/v1/audit-trail?"+q, token, "", nil)
		expectStatus(t, w, http.StatusBadRequest)
	}
}

func TestDashboardStats(t *testing.T) {
	api := newTestAPI(t, nil)
	api.store.Seed(&models.Alumni{StudentNumber: "S-1", FullName: "Ana", JobStatus: models.JobStatusEmployed, IsActive: true})

	w := api.do(t, http.MethodGet, "/api/v1/dashboard/stats", api.token(t, models.RoleAdmin), "", nil)
	expectStatus(t, w, http.StatusOK)
	var stats models.DashboardStats
	decode(t, w, &stats)
	if stats.TotalActive != 1 || stats.ByJobStatus["employed"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPublicAuthRoutesAreRateLimited(t *testing.T) {
	api := newTestAPI(t, middleware.NewTokenBucket(1, 1))

	w := api.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{})
	expectStatus(t, w, http.StatusBadRequest)

	w = api.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{})
	expectStatus(t, w, http.StatusTooManyRequests)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

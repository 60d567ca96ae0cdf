package middleware_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/middleware"
	"github.com/yigit/alumnitrack/internal/pkg/apperrors"
	"github.com/yigit/alumnitrack/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "alumnitrack-test",
	})
}

func accessToken(t *testing.T, jwtService *auth.JWTService, role models.AdminRole) string {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(&models.Admin{ID: 42, Email: "maria@school.edu", EmployeeID: "EMP-0042", Role: role})
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return pair.AccessToken
}

func protectedRouter(jwtService *auth.JWTService, extra ...gin.HandlerFunc) *gin.Engine {
	m := middleware.NewAuthMiddleware(jwtService)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{m.JWTAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor := middleware.ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"adminID": actor.AdminID, "employeeID": actor.EmployeeID, "role": actor.Role})
	})
	r.GET("/me", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtService := newJWT()
	token := accessToken(t, jwtService, models.RoleAdmin)
	router := protectedRouter(jwtService)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"bearer", "Bearer " + token, http.StatusOK},
		{"raw token", token, http.StatusOK},
		{"quoted", `"Bearer ` + token + `"`, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + accessToken(t, auth.NewJWTService(auth.JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "alumnitrack-test"}), models.RoleAdmin), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				AdminID    int64  `json:"adminID"`
				EmployeeID string `json:"employeeID"`
				Role       string `json:"role"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.AdminID != 42 || body.EmployeeID != "EMP-0042" || body.Role != string(models.RoleAdmin) {
				t.Fatalf("unexpected actor %+v", body)
			}
		})
	}
}

func TestSuperAdminRequired(t *testing.T) {
	jwtService := newJWT()
	m := middleware.NewAuthMiddleware(jwtService)
	router := protectedRouter(jwtService, m.SuperAdminRequired())

	for role, want := range map[models.AdminRole]int{
		models.RoleAdmin:      http.StatusForbidden,
		models.RoleSuperAdmin: http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, jwtService, role))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("role %s: expected %d, got %d", role, want, w.Code)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    dto.ErrorCode
		message string
	}{
		{apperrors.ErrAlumniNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Alumni record not found"},
		{fmt.Errorf("error loading alumni: %w", apperrors.ErrAlumniNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Alumni record not found"},
		{apperrors.NewDuplicateAlumniError("Alumni already exists: Jane Doe"), http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Alumni already exists: Jane Doe"},
		{apperrors.ErrAlumniAlreadyArchived, http.StatusConflict, dto.ErrorCodeConflict, "Alumni record is already archived"},
		{apperrors.ErrSuperAdminRequired, http.StatusForbidden, dto.ErrorCodeForbidden, "Super admin role required"},
		{apperrors.NewCustomError(apperrors.ErrAccountDisabled, "Your account has been disabled."), http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Your account has been disabled."},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
		{apperrors.ErrStagedBatchNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Upload batch not found or expired"},
		{fmt.Errorf("wrapped: %w", apperrors.ErrStoreUnavailable), http.StatusServiceUnavailable, dto.ErrorCodeDatabaseError, "Record store unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, detail := middleware.ErrorStatus(tt.err)
			if status != tt.status || detail.Code != tt.code || detail.Message != tt.message {
				t.Fatalf("got %d %s %q", status, detail.Code, detail.Message)
			}
		})
	}
}

func TestValidationDetailsKeepCause(t *testing.T) {
	_, detail := middleware.ErrorStatus(fmt.Errorf("%w: select at least one candidate", apperrors.ErrValidationFailed))
	if detail.Details != "validation failed: select at least one candidate" {
		t.Fatalf("unexpected details %v", detail.Details)
	}
}

func TestTokenBucket(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := middleware.NewTokenBucket(2, 60).WithClock(func() time.Time { return now })

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatalf("expected the first two requests allowed")
	}
	if limiter.Allow("a") {
		t.Fatalf("expected third request rejected")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected other client unaffected")
	}
	now = now.Add(time.Second)
	if !limiter.Allow("a") {
		t.Fatalf("expected refill after one second at 60 per minute")
	}
}

func TestRateLimitHandler(t *testing.T) {
	r := gin.New()
	r.Use(middleware.NewTokenBucket(1, 1).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

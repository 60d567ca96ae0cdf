package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/middleware"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

// AuditController exposes the admin audit trail
type AuditController struct {
	auditService services.AuditService
	logger       zerolog.Logger
}

// NewAuditController creates a new AuditController
func NewAuditController(auditService services.AuditService, logger zerolog.Logger) *AuditController {
	return &AuditController{
		auditService: auditService,
		logger:       logger,
	}
}

// List returns a page of audit entries, newest first
// @Summary List the audit trail
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action, e.g. ARCHIVE_ALUMNI"
// @Param status query string false "success or failed"
// @Param adminId query int false "Acting admin ID"
// @Param since query string false "RFC 3339 timestamp"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.AuditListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /audit-trail [get]
func (c *AuditController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := models.AuditFilter{
		Action: strings.ToUpper(strings.TrimSpace(ctx.Query("action"))),
		Page:   page,
		Size:   size,
	}

	switch status := models.AuditStatus(strings.ToLower(ctx.Query("status"))); status {
	case "":
	case models.AuditSuccess, models.AuditFailed:
		filter.Status = status
	default:
		badRequest(ctx, "Invalid audit status", "status must be success or failed")
		return
	}

	if raw := ctx.Query("adminId"); raw != "" {
		adminID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || adminID <= 0 {
			badRequest(ctx, "Invalid admin ID", "adminId must be a positive number")
			return
		}
		filter.AdminID = &adminID
	}

	if raw := ctx.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(ctx, "Invalid since timestamp", "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = &since
	}

	entries, total, err := c.auditService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.AuditListResponse{
		Entries:    entries,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	})
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/middleware"
	"github.com/yigit/alumnitrack/internal/pkg/helpers"
)

// ArchiveController serves the archive view and its restore, delete and cleanup operations
type ArchiveController struct {
	lifecycleService services.LifecycleService
	logger           zerolog.Logger
}

// NewArchiveController creates a new ArchiveController
func NewArchiveController(lifecycleService services.LifecycleService, logger zerolog.Logger) *ArchiveController {
	return &ArchiveController{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// List returns a page of archive entries
// @Summary List the archive
// @Tags archive
// @Produce json
// @Security BearerAuth
// @Param status query string false "archived (default), restored or pending"
// @Param search query string false "Matches name, email or student number"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.ArchiveListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid status"
// @Router /archive [get]
func (c *ArchiveController) List(ctx *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(ctx.DefaultQuery("status", "archived")))
	switch status {
	case "archived", "restored", "pending":
	default:
		badRequest(ctx, "Invalid archive status", "status must be archived, restored or pending")
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	entries, total, err := c.lifecycleService.ListArchive(ctx.Request.Context(), models.ArchiveFilter{
		Status: status,
		Search: strings.TrimSpace(ctx.Query("search")),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.ArchiveListResponse{
		Entries:    entries,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	})
}

// Stats returns archive counters
// @Summary Archive statistics
// @Tags archive
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.ArchiveStats}
// @Router /archive/stats [get]
func (c *ArchiveController) Stats(ctx *gin.Context) {
	stats, err := c.lifecycleService.ArchiveStats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, stats)
}

// Restore brings an archived record back to active
// @Summary Restore alumni
// @Tags archive
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=models.OperationResult}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Failure 409 {object} dto.ErrorResponse "Record is not archived"
// @Router /archive/{id}/restore [post]
func (c *ArchiveController) Restore(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	result, err := c.lifecycleService.Restore(ctx.Request.Context(), id, middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// Delete removes an archived record permanently
// @Summary Delete alumni permanently
// @Description Only archived records can be deleted.
// @Tags archive
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=models.OperationResult}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Failure 409 {object} dto.ErrorResponse "Record is not archived"
// @Router /archive/{id} [delete]
func (c *ArchiveController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	result, err := c.lifecycleService.DeletePermanently(ctx.Request.Context(), id, middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, result)
}

// Cleanup deletes archived records past retention. Failures are reported in the result body.
// @Summary Run retention cleanup
// @Tags archive
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.CleanupResult}
// @Failure 403 {object} dto.ErrorResponse "Super admin required"
// @Router /archive/cleanup [post]
func (c *ArchiveController) Cleanup(ctx *gin.Context) {
	result := c.lifecycleService.Cleanup(ctx.Request.Context(), middleware.ActorFromContext(ctx))
	if !result.Success {
		c.logger.Warn().Str("message", result.Message).Msg("Archive cleanup did not complete")
	}
	respond(ctx, http.StatusOK, result)
}

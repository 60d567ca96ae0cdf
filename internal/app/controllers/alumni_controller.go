package controllers

import (
	"bytes"
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

// AlumniController serves alumni records, their completion and their lifecycle entry points
type AlumniController struct {
	alumniService     services.AlumniService
	guard             services.DuplicateGuard
	completionService services.CompletionService
	lifecycleService  services.LifecycleService
	exportService     services.ExportService
	logger            zerolog.Logger
}

// NewAlumniController creates a new AlumniController
func NewAlumniController(
	alumniService services.AlumniService,
	guard services.DuplicateGuard,
	completionService services.CompletionService,
	lifecycleService services.LifecycleService,
	exportService services.ExportService,
	logger zerolog.Logger,
) *AlumniController {
	return &AlumniController{
		alumniService:     alumniService,
		guard:             guard,
		completionService: completionService,
		lifecycleService:  lifecycleService,
		exportService:     exportService,
		logger:            logger,
	}
}

func parseState(raw string, fallback models.LifecycleState) (models.LifecycleState, bool) {
	switch s := models.LifecycleState(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return fallback, true
	case models.StateActive, models.StateArchived, models.StateAll:
		return s, true
	default:
		return "", false
	}
}

// List returns a page of alumni records
// @Summary List alumni
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name, email or student number"
// @Param jobStatus query string false "employed, self-employed, freelancer, unemployed or other"
// @Param graduatedYear query string false "Graduation year"
// @Param degree query string false "Degree"
// @Param state query string false "active (default), archived or all"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.AlumniListResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /alumni [get]
func (c *AlumniController) List(ctx *gin.Context) {
	jobStatus, ok := models.ParseJobStatus(ctx.Query("jobStatus"))
	if !ok {
		badRequest(ctx, "Invalid job status", "")
		return
	}
	state, ok := parseState(ctx.Query("state"), models.StateActive)
	if !ok {
		badRequest(ctx, "Invalid state", "state must be active, archived or all")
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	records, completions, total, err := c.alumniService.List(ctx.Request.Context(), models.AlumniFilter{
		Search:        strings.TrimSpace(ctx.Query("search")),
		JobStatus:     jobStatus,
		GraduatedYear: strings.TrimSpace(ctx.Query("graduatedYear")),
		Degree:        strings.TrimSpace(ctx.Query("degree")),
		State:         state,
		Page:          page,
		Size:          size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.AlumniResponse, len(records))
	for i, a := range records {
		items[i] = dto.AlumniResponse{Alumni: a, State: a.State(), Completion: completions[i]}
	}
	respond(ctx, http.StatusOK, dto.AlumniListResponse{
		Alumni:     items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	})
}

// Create adds an alumni record
// @Summary Create alumni
// @Tags alumni
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AlumniRequest true "Alumni profile"
// @Success 201 {object} dto.APIResponse{data=dto.AlumniResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid profile"
// @Failure 409 {object} dto.ErrorResponse "Alumni already exists"
// @Router /alumni [post]
func (c *AlumniController) Create(ctx *gin.Context) {
	var req dto.AlumniRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	created, err := c.alumniService.Create(ctx.Request.Context(), req.ToModel(), middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	status := services.ComputeCompletion(created)
	respond(ctx, http.StatusCreated, dto.AlumniResponse{Alumni: created, State: created.State(), Completion: &status})
}

// GetByID returns one alumni record
// @Summary Get alumni
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=dto.AlumniResponse}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Router /alumni/{id} [get]
func (c *AlumniController) GetByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	alumni, completion, err := c.alumniService.GetByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.AlumniResponse{Alumni: alumni, State: alumni.State(), Completion: completion})
}

// Update replaces an alumni profile
// @Summary Update alumni
// @Tags alumni
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Param request body dto.AlumniRequest true "Alumni profile"
// @Success 200 {object} dto.APIResponse{data=dto.AlumniResponse}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Failure 409 {object} dto.ErrorResponse "Alumni already exists"
// @Router /alumni/{id} [put]
func (c *AlumniController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}
	var req dto.AlumniRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	updated, err := c.alumniService.Update(ctx.Request.Context(), id, req.ToModel(), middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	status := services.ComputeCompletion(updated)
	respond(ctx, http.StatusOK, dto.AlumniResponse{Alumni: updated, State: updated.State(), Completion: &status})
}

// CheckDuplicate reports whether an email or student number is taken
// @Summary Check for an existing record
// @Description Archived records still count. Pass excludeId to ignore the record being edited.
// @Tags alumni
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DuplicateCheckRequest true "Keys to check"
// @Success 200 {object} dto.APIResponse{data=models.DuplicateCheck}
// @Failure 503 {object} dto.ErrorResponse "Record store unavailable"
// @Router /alumni/check-duplicate [post]
func (c *AlumniController) CheckDuplicate(ctx *gin.Context) {
	var req dto.DuplicateCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	check, err := c.guard.CheckExists(ctx.Request.Context(), req.Email, req.StudentNumber, req.ExcludeID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, check)
}

// Duplicates lists groups of records sharing an email or student number
// @Summary List duplicate groups
// @Tags alumni
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.DuplicateGroup}
// @Router /alumni/duplicates [get]
func (c *AlumniController) Duplicates(ctx *gin.Context) {
	groups, err := c.guard.FindDuplicateGroups(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, groups)
}

// Export streams alumni records as CSV
// @Summary Export alumni as CSV
// @Tags alumni
// @Produce text/csv
// @Security BearerAuth
// @Param scope query string false "active (default), archived or all"
// @Success 200 {file} file "alumni_export_YYYY-MM-DD.csv"
// @Failure 400 {object} dto.ErrorResponse "Invalid scope"
// @Router /alumni/export [get]
func (c *AlumniController) Export(ctx *gin.Context) {
	scope, ok := parseState(ctx.Query("scope"), models.StateActive)
	if !ok {
		badRequest(ctx, "Invalid scope", "scope must be active, archived or all")
		return
	}

	var buf bytes.Buffer
	count, err := c.exportService.Export(ctx.Request.Context(), &buf, scope, middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int("count", count).Str("scope", string(scope)).Msg("Alumni exported")
	ctx.Header("Content-Disposition", `attachment; filename="`+c.exportService.Filename()+`"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Completion returns the derived completion of one record
// @Summary Get profile completion
// @Tags completion
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=models.CompletionStatus}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Router /alumni/{id}/completion [get]
func (c *AlumniController) Completion(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	status, err := c.completionService.GetCompletion(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, status)
}

// Forms lists the legacy form completion rows of one record
// @Summary List form completions
// @Tags completion
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Success 200 {object} dto.APIResponse{data=dto.FormCompletionListResponse}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Router /alumni/{id}/forms [get]
func (c *AlumniController) Forms(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	forms, err := c.completionService.ListFormCompletions(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, dto.FormCompletionListResponse{AlumniID: id, Forms: forms})
}

// MarkFormComplete records a legacy form as completed
// @Summary Mark a form complete
// @Tags completion
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Param formType path string true "basic_info, education_details or career_info"
// @Success 200 {object} dto.APIResponse{data=models.FormCompletion}
// @Failure 400 {object} dto.ErrorResponse "Invalid form type"
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Router /alumni/{id}/forms/{formType}/complete [put]
func (c *AlumniController) MarkFormComplete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}

	form, err := c.completionService.MarkFormComplete(ctx.Request.Context(), id,
		models.FormType(ctx.Param("formType")), middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, form)
}

// Archive moves one record into the archive
// @Summary Archive alumni
// @Tags archive
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alumni ID"
// @Param request body dto.ArchiveRequest false "Archive reason"
// @Success 200 {object} dto.APIResponse{data=models.OperationResult}
// @Failure 404 {object} dto.ErrorResponse "Alumni record not found"
// @Failure 409 {object} dto.ErrorResponse "Already archived"
// @Router /alumni/{id}/archive [post]
func (c *AlumniController) Archive(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id", "Alumni")
	if !ok {
		return
	}
	var req dto.ArchiveRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			middleware.HandleBindError(ctx, err)
			return
		}
	}

	if err := c.lifecycleService.Archive(ctx.Request.Context(), id, req.Reason, middleware.ActorFromContext(ctx)); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, models.OperationResult{Success: true, Message: "Record archived"})
}

// BulkArchive archives several records, reporting each id
// @Summary Archive several alumni
// @Tags archive
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkArchiveRequest true "Ids and reason"
// @Success 200 {object} dto.APIResponse{data=models.BatchResult}
// @Failure 400 {object} dto.ErrorResponse "Invalid ids"
// @Router /alumni/bulk-archive [post]
func (c *AlumniController) BulkArchive(ctx *gin.Context) {
	var req dto.BulkArchiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	result := c.lifecycleService.BulkArchive(ctx.Request.Context(), req.IDs, req.Reason, middleware.ActorFromContext(ctx))
	respond(ctx, http.StatusOK, result)
}

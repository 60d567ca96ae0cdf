package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/alumnitrack/internal/app/models/dto"
	"github.com/yigit/alumnitrack/internal/app/services"
	"github.com/yigit/alumnitrack/internal/middleware"
)

// BulkUploadController stages CSV uploads for review and confirms selected rows
type BulkUploadController struct {
	uploadService services.BulkUploadService
	maxBytes      int64
	logger        zerolog.Logger
}

// NewBulkUploadController creates a new BulkUploadController. maxBytes caps the accepted upload size.
func NewBulkUploadController(uploadService services.BulkUploadService, maxBytes int64, logger zerolog.Logger) *BulkUploadController {
	return &BulkUploadController{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

var errUploadTooLarge = errors.New("upload too large")

// tooLarge reports whether err came from the MaxBytesReader limit. The multipart
// reader does not always wrap the limit error, so its message is checked as well.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// readUpload returns the CSV text from a multipart "file" field or the raw request body
func (c *BulkUploadController) readUpload(ctx *gin.Context) (string, error) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxBytes)

	var src io.Reader = ctx.Request.Body
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return "", errUploadTooLarge
			}
			return "", err
		}
		f, err := fileHeader.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(src)
	if err != nil {
		if tooLarge(err) {
			return "", errUploadTooLarge
		}
		return "", err
	}
	return string(data), nil
}

// Stage parses an uploaded CSV and holds the candidates for review
// @Summary Stage a CSV upload
// @Description Parses the CSV without writing anything. Confirm the returned batch to insert selected rows.
// @Tags upload
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Security BearerAuth
// @Param file formData file false "CSV file"
// @Success 200 {object} dto.APIResponse{data=models.StagedBatch}
// @Failure 400 {object} dto.ErrorResponse "Empty or unreadable upload"
// @Failure 413 {object} dto.ErrorResponse "Upload too large"
// @Router /bulk-uploads [post]
func (c *BulkUploadController) Stage(ctx *gin.Context) {
	text, err := c.readUpload(ctx)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Upload too large")
			ctx.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
			return
		}
		c.logger.Warn().Err(err).Msg("Failed to read upload")
		badRequest(ctx, "Could not read upload", err.Error())
		return
	}

	batch, err := c.uploadService.Stage(ctx.Request.Context(), text, middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, batch)
}

// Confirm inserts the selected candidates of a staged batch
// @Summary Confirm a staged upload
// @Tags upload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batchId path string true "Staged batch ID"
// @Param request body dto.ConfirmUploadRequest true "Selected candidate indexes"
// @Success 200 {object} dto.APIResponse{data=models.UploadSummary}
// @Failure 400 {object} dto.ErrorResponse "Invalid selection"
// @Failure 404 {object} dto.ErrorResponse "Staged batch not found or expired"
// @Router /bulk-uploads/{batchId}/confirm [post]
func (c *BulkUploadController) Confirm(ctx *gin.Context) {
	var req dto.ConfirmUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	summary, err := c.uploadService.Confirm(ctx.Request.Context(), ctx.Param("batchId"), req.Selected, middleware.ActorFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respond(ctx, http.StatusOK, summary)
}

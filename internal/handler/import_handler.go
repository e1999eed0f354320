package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinjin-academy/schedule-api/internal/dto"
	"github.com/jinjin-academy/schedule-api/internal/service"
	appErrors "github.com/jinjin-academy/schedule-api/pkg/errors"
	"github.com/jinjin-academy/schedule-api/pkg/response"
)

// maxImportSize caps uploads at 5 MiB; schedule exports are far smaller.
const maxImportSize = 5 << 20

// ImportHandler accepts CSV uploads for bulk entry import.
type ImportHandler struct {
	service *service.CSVImportService
}

// NewImportHandler constructs handler.
func NewImportHandler(svc *service.CSVImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Import godoc
// @Summary Import schedule entries from a CSV file
// @Tags Entries
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Template ID"
// @Param file formData file true "CSV file"
// @Param mode formData string false "replace or append" default(replace)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /templates/{id}/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a CSV file upload is required"))
		return
	}
	if fileHeader.Size > maxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "CSV file exceeds the 5MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to open uploaded file"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}

	mode := dto.ImportMode(c.DefaultPostForm("mode", string(dto.ImportModeReplace)))
	summary, err := h.service.Import(c.Request.Context(), c.Param("id"), raw, mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

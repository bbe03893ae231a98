package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/admissions-agent-api/internal/dto"
	"github.com/campushub/admissions-agent-api/internal/models"
	"github.com/campushub/admissions-agent-api/internal/service"
	appErrors "github.com/campushub/admissions-agent-api/pkg/errors"
	"github.com/campushub/admissions-agent-api/pkg/response"
)

// RankingHandler exposes the admission ranking classifier and its exports.
type RankingHandler struct {
	exports *service.ExportService
}

// NewRankingHandler constructs the handler.
func NewRankingHandler(exports *service.ExportService) *RankingHandler {
	return &RankingHandler{exports: exports}
}

// Classify godoc
// @Summary Classify applicants into admission tiers
// @Tags Rankings
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param body body dto.RankingRequest true "Applicants and intake limit"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/rankings/classify [post]
func (h *RankingHandler) Classify(c *gin.Context) {
	var req dto.RankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ranking payload"))
		return
	}
	result, err := service.ClassifyApplicants(service.RankingInput{
		Applicants:  req.Models(),
		IntakeLimit: req.IntakeLimit,
		CutoffAPS:   req.CutoffAPS,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Classify applicants and export the result
// @Tags Rankings
// @Accept json
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Param courseId query string true "Course ID"
// @Param format query string true "csv or pdf"
// @Param body body dto.RankingRequest true "Applicants and intake limit"
// @Success 200 {object} response.Envelope
// @Router /institutions/{institutionId}/rankings/export [post]
func (h *RankingHandler) Export(c *gin.Context) {
	courseID := c.Query("courseId")
	format := models.ExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	if courseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseId required"))
		return
	}
	if !format.IsValid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	var req dto.RankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ranking payload"))
		return
	}
	result, err := service.ClassifyApplicants(service.RankingInput{
		Applicants:  req.Models(),
		IntakeLimit: req.IntakeLimit,
		CutoffAPS:   req.CutoffAPS,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	export, err := h.exports.Generate(courseID, result, format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate export"))
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// Download godoc
// @Summary Download a previously generated ranking export
// @Tags Rankings
// @Param token path string true "Signed download token"
// @Success 200
// @Router /rankings/download/{token} [get]
func (h *RankingHandler) Download(c *gin.Context) {
	file, relPath, err := h.exports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
		return
	}
	defer file.Close() //nolint:errcheck
	c.FileAttachment(file.Name(), relPath)
}

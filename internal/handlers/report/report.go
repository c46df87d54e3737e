// internal/handlers/report/report.go
package report

import (
	"net/http"
	"time"

	"insurance-service/internal/domain/report"
	"insurance-service/internal/export"
	"insurance-service/internal/middleware"
	"insurance-service/internal/pkg/response"
	service "insurance-service/internal/service/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, logger: logger}
}

// Export builds /reports/:kind and returns it as JSON or streams it as
// ?format=csv|xlsx|pdf.
func (h *ReportHandler) Export(c *gin.Context) {
	kind, err := report.ParseKind(c.Param("kind"))
	if err != nil {
		response.FromError(c, err, "")
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.FromError(c, err, "")
		return
	}
	var filters report.Filters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	table, err := h.reportService.Build(c.Request.Context(), middleware.Actor(c), kind, &filters)
	if err != nil {
		response.FromError(c, err, "failed to build report")
		return
	}

	if format == export.FormatJSON {
		response.Success(c, http.StatusOK, "report generated", table)
		return
	}

	filename := format.Filename(service.Filename(kind, time.Now()))
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, table); err != nil {
		// Headers are already sent; the client sees a truncated file.
		h.logger.Error("report export failed",
			zap.String("kind", string(kind)),
			zap.String("format", string(format)),
			zap.Error(err),
		)
	}
}

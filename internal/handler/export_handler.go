package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/service"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/response"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

type exporter interface {
	Export(ctx context.Context, format service.ExportFormat, filter models.ApplicationFilter) (*service.ExportFile, error)
}

// ExportHandler serves report downloads.
type ExportHandler struct {
	sessions flashStore
	service  exporter
}

// NewExportHandler creates a new handler.
func NewExportHandler(sessions flashStore, svc exporter) *ExportHandler {
	return &ExportHandler{sessions: sessions, service: svc}
}

// Export godoc
// @Summary Download the request report
// @Tags Export
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param estatus query string false "Only requests with this status"
// @Success 200 {file} file
// @Router /exportar_pdf [get]
// @Router /exportar_excel [get]
// @Router /exportar_csv [get]
func (h *ExportHandler) Export(format service.ExportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := service.ParseFilter(c.Query("estatus"))
		if err != nil {
			flash(c, h.sessions, session.FlashWarning, appErrors.FromError(err).Message)
			c.Redirect(http.StatusFound, "/admin")
			return
		}

		file, err := h.service.Export(c.Request.Context(), format, filter)
		if err != nil {
			response.HTMLError(c, err)
			return
		}
		response.Attachment(c, file.Filename, file.ContentType, file.Payload)
	}
}

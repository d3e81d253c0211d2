package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/service"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/response"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

type reviewer interface {
	List(ctx context.Context, filter models.ApplicationFilter) (*service.ReviewListing, error)
	Counts(ctx context.Context) (models.StatusCounts, error)
	UpdateStatus(ctx context.Context, id int64, raw string) (models.ApplicationStatus, error)
	Delete(ctx context.Context, id int64) error
	OpenDocument(ctx context.Context, filename string) (*service.DocumentDownload, error)
}

// AdminHandler serves the review console.
type AdminHandler struct {
	sessions flashStore
	service  reviewer
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(sessions flashStore, svc reviewer) *AdminHandler {
	return &AdminHandler{sessions: sessions, service: svc}
}

// Dashboard lists requests, optionally filtered by ?estatus=.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	filter, err := service.ParseFilter(c.Query("estatus"))
	if err != nil {
		flash(c, h.sessions, session.FlashWarning, appErrors.FromError(err).Message)
		c.Redirect(http.StatusFound, "/admin")
		return
	}

	listing, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.HTMLError(c, err)
		return
	}

	page(c, h.sessions, http.StatusOK, "admin.html", gin.H{
		"Title":        "Panel",
		"Applications": listing.Applications,
		"Counts":       listing.Counts,
		"Total":        listing.Counts.Total(),
		"Statuses":     models.ApplicationStatuses,
		"Filter":       listing.Filter,
	})
}

// Summary godoc
// @Summary Request counts per status
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.StatusSummaryResponse}
// @Router /admin/resumen [get]
func (h *AdminHandler) Summary(c *gin.Context) {
	counts, err := h.service.Counts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	out := dto.StatusSummaryResponse{Counts: make(map[string]int, len(counts)), Total: counts.Total()}
	for status, n := range counts {
		out.Counts[string(status)] = n
	}
	response.JSON(c, http.StatusOK, out)
}

// UpdateStatus godoc
// @Summary Change the status of a request
// @Tags Admin
// @Accept x-www-form-urlencoded
// @Param id formData int true "Request id"
// @Param estatus formData string true "Pendiente, En revisión, Aprobado or Rechazado"
// @Success 303
// @Router /actualizar_estatus [post]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		flash(c, h.sessions, session.FlashWarning, service.MsgApplicationMissing)
		response.Redirect(c, "/admin")
		return
	}

	status, err := h.service.UpdateStatus(c.Request.Context(), req.ID, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	flash(c, h.sessions, session.FlashSuccess, service.MsgStatusUpdated+": "+string(status))
	response.Redirect(c, "/admin")
}

// DeleteApplication godoc
// @Summary Delete a request and its documents
// @Tags Admin
// @Accept x-www-form-urlencoded
// @Param id formData int true "Request id"
// @Success 303
// @Router /eliminar_solicitud [post]
func (h *AdminHandler) DeleteApplication(c *gin.Context) {
	var req dto.DeleteApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		flash(c, h.sessions, session.FlashWarning, service.MsgApplicationMissing)
		response.Redirect(c, "/admin")
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		h.fail(c, err)
		return
	}
	flash(c, h.sessions, session.FlashSuccess, service.MsgApplicationDeleted)
	response.Redirect(c, "/admin")
}

// Download streams a stored document.
func (h *AdminHandler) Download(c *gin.Context) {
	doc, err := h.service.OpenDocument(c.Request.Context(), c.Param("filename"))
	if err != nil {
		response.HTMLError(c, err)
		return
	}
	defer doc.File.Close()

	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Disposition", "inline; filename="+strconv.Quote(doc.Filename))
	http.ServeContent(c.Writer, c.Request, doc.Filename, doc.ModTime, doc.File)
}

func (h *AdminHandler) fail(c *gin.Context, err error) {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		flash(c, h.sessions, session.FlashWarning, appErr.Message)
		response.Redirect(c, "/admin")
		return
	}
	response.HTMLError(c, err)
}

package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/service"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/response"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

// Multipart field names of the three required documents.
const (
	FieldPaymentFile      = "file_pago"
	FieldSchoolRecordFile = "file_escolar"
	FieldIdentityFile     = "file_curp"
)

var documentFields = map[models.DocumentType]string{
	models.DocumentPayment:      FieldPaymentFile,
	models.DocumentSchoolRecord: FieldSchoolRecordFile,
	models.DocumentIdentity:     FieldIdentityFile,
}

type intakeSessions interface {
	flashStore
	Progress(c *gin.Context) int
	SetProgress(c *gin.Context, step int) error
}

type wizardFlow interface {
	Answer(step models.WizardStep, answer dto.WizardAnswer) service.WizardOutcome
	Advance(progress int, next models.WizardStep) int
}

type submitter interface {
	Submit(ctx context.Context, req dto.SubmissionRequest, files service.SubmissionFiles) (*models.Application, error)
}

// IntakeHandler serves the public wizard and the submission endpoint.
type IntakeHandler struct {
	sessions  intakeSessions
	wizard    wizardFlow
	registrar submitter
	maxFile   int64
	maxBody   int64
	logger    *zap.Logger
}

// NewIntakeHandler creates a new handler. maxFileSize bounds each uploaded
// document; the whole request may carry three of them plus the text fields.
func NewIntakeHandler(sessions intakeSessions, wizard wizardFlow, registrar submitter, maxFileSize int64, logger *zap.Logger) *IntakeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := int64(0)
	if maxFileSize > 0 {
		maxBody = 3*maxFileSize + 1<<20
	}
	return &IntakeHandler{sessions: sessions, wizard: wizard, registrar: registrar, maxFile: maxFileSize, maxBody: maxBody, logger: logger}
}

// Home renders the landing page.
func (h *IntakeHandler) Home(c *gin.Context) {
	page(c, h.sessions, http.StatusOK, "index.html", gin.H{"Title": "Inicio"})
}

// ShowStep renders one wizard step.
func (h *IntakeHandler) ShowStep(step models.WizardStep) gin.HandlerFunc {
	return func(c *gin.Context) {
		page(c, h.sessions, http.StatusOK, step.Template(), gin.H{"Step": step})
	}
}

// AnswerStep handles the yes/no and consent forms. An unsatisfied answer
// re-renders the step with its warning; otherwise progress is recorded and
// the applicant is sent to the next step.
func (h *IntakeHandler) AnswerStep(step models.WizardStep) gin.HandlerFunc {
	return func(c *gin.Context) {
		var answer dto.WizardAnswer
		_ = c.ShouldBind(&answer)

		outcome := h.wizard.Answer(step, answer)
		if !outcome.Advanced {
			page(c, h.sessions, http.StatusOK, step.Template(), gin.H{"Step": step, "Warning": outcome.Warning})
			return
		}

		progress := h.wizard.Advance(h.sessions.Progress(c), outcome.Step)
		if err := h.sessions.SetProgress(c, progress); err != nil {
			response.HTMLError(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message))
			return
		}
		response.Redirect(c, outcome.Step.Path())
	}
}

// Register godoc
// @Summary Submit a certificate request
// @Description Multipart form with the applicant data and three PDF documents
// @Tags Intake
// @Accept multipart/form-data
// @Produce html
// @Param paterno formData string true "Apellido paterno"
// @Param materno formData string true "Apellido materno"
// @Param nombre formData string true "Nombre(s)"
// @Param curp formData string true "CURP"
// @Param control formData string true "Número de control"
// @Param especialidad formData string true "Especialidad"
// @Param turno formData string true "Turno"
// @Param generacion formData string true "Generación"
// @Param correo formData string true "Correo electrónico"
// @Param telefono formData string true "Teléfono"
// @Param banco formData string true "Banco"
// @Param llave formData string true "Llave de pago"
// @Param monto formData string true "Monto"
// @Param file_pago formData file true "Comprobante de pago"
// @Param file_escolar formData file true "Documento escolar"
// @Param file_curp formData file true "CURP"
// @Success 303
// @Router /registrar [post]
func (h *IntakeHandler) Register(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	var req dto.SubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, service.TooLargeMessage(h.maxFile)))
			return
		}
		h.reject(c, appErrors.Clone(appErrors.ErrValidation, service.MsgMissingFields))
		return
	}

	files := make(service.SubmissionFiles, len(documentFields))
	for doc, field := range documentFields {
		header, err := c.FormFile(field)
		if err != nil {
			continue
		}
		files[doc] = uploadedFile(header)
	}

	app, err := h.registrar.Submit(c.Request.Context(), req, files)
	if err != nil {
		h.reject(c, err)
		return
	}

	if err := h.sessions.SetProgress(c, int(models.StepSubmitted)); err != nil {
		h.logger.Warn("failed to record wizard completion", zap.Error(err))
	}
	flash(c, h.sessions, session.FlashSuccess, service.MsgSubmissionSaved)
	h.logger.Debug("submission accepted", zap.Int64("id", app.ID))
	response.Redirect(c, models.StepSubmitted.Path())
}

// reject sends the applicant back to the form with the error message. Server
// faults render the error page instead.
func (h *IntakeHandler) reject(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		response.HTMLError(c, err)
		return
	}
	flash(c, h.sessions, session.FlashDanger, appErr.Message)
	response.Redirect(c, models.StepForm.Path())
}

func uploadedFile(header *multipart.FileHeader) *service.UploadedFile {
	return &service.UploadedFile{
		Filename: header.Filename,
		Size:     header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

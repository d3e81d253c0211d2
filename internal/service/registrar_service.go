package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/repository"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/storage"
)

// Messages shown to applicants.
const (
	MsgDuplicateCURP   = "Esta CURP ya tiene una solicitud registrada"
	MsgMissingFields   = "Todos los campos son obligatorios"
	MsgInvalidCURP     = "La CURP solo puede contener letras y números"
	MsgMissingFiles    = "Debes adjuntar los tres documentos en PDF"
	MsgInvalidFiles    = "Archivos inválidos: solo se aceptan documentos PDF"
	MsgSubmissionSaved = "Solicitud registrada correctamente"
	MsgSubmissionBusy  = "Hay una solicitud en proceso con esta CURP, intenta de nuevo en unos minutos"
)

// DefaultStaleUploadAge is how old an unreferenced document must be before a
// new submission for the same CURP may replace it.
const DefaultStaleUploadAge = 5 * time.Minute

// errUploadInProgress marks a document that exists without a record but is
// too recent to be treated as a leftover.
var errUploadInProgress = errors.New("document written by a submission still in progress")

type registrarStore interface {
	ExistsByCURP(ctx context.Context, curp string) (bool, error)
	Create(ctx context.Context, app *models.Application) error
}

type documentWriter interface {
	SaveExclusive(filename string, r io.Reader, maxBytes int64) (string, error)
	Stat(filename string) (storage.FileInfo, error)
	Delete(filename string) error
}

type countsInvalidator interface {
	InvalidateCounts(ctx context.Context) error
}

// UploadedFile is one file field of the intake form.
type UploadedFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// SubmissionFiles maps each required document to its upload. Missing
// entries are nil.
type SubmissionFiles map[models.DocumentType]*UploadedFile

// RegistrarConfig holds upload validation parameters. StaleUploadAge is the
// age after which a document without a record is considered left over from
// an interrupted submission.
type RegistrarConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	StaleUploadAge    time.Duration
	Now               func() time.Time
}

// RegistrarService files new certificate requests.
type RegistrarService struct {
	repo       registrarStore
	documents  documentWriter
	cache      countsInvalidator
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        RegistrarConfig
	extensions map[string]struct{}
}

// NewRegistrarService constructs the service with defaults.
func NewRegistrarService(repo registrarStore, documents documentWriter, cache countsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RegistrarConfig) *RegistrarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"pdf"}
	}
	if cfg.StaleUploadAge <= 0 {
		cfg.StaleUploadAge = DefaultStaleUploadAge
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	extensions := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &RegistrarService{
		repo:       repo,
		documents:  documents,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		extensions: extensions,
	}
}

// Submit validates the form, stores the three documents and inserts the
// request with status Pendiente. Nothing is written unless every field and
// file is valid and the CURP is unused. Documents written by a call whose
// insert fails are removed again. A document already on disk for an unused
// CURP is replaced when it is older than StaleUploadAge; a newer one belongs
// to a concurrent submission and the applicant is asked to retry.
func (s *RegistrarService) Submit(ctx context.Context, req dto.SubmissionRequest, files SubmissionFiles) (*models.Application, error) {
	req = req.Trimmed()
	if err := s.validateRequest(req); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, err
	}
	if err := s.validateFiles(files); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, err
	}

	curp := strings.ToUpper(req.CURP)
	exists, err := s.repo.ExistsByCURP(ctx, curp)
	if err != nil {
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check curp")
	}
	if exists {
		s.metrics.RecordSubmission(SubmissionDuplicate)
		return nil, appErrors.Clone(appErrors.ErrConflict, MsgDuplicateCURP)
	}

	stored, err := s.storeDocuments(curp, files)
	if err != nil {
		s.discard(stored)
		if errors.Is(err, errUploadInProgress) || errors.Is(err, storage.ErrExists) {
			s.metrics.RecordSubmission(SubmissionDuplicate)
			return nil, appErrors.Clone(appErrors.ErrConflict, MsgSubmissionBusy)
		}
		if errors.Is(err, storage.ErrTooLarge) {
			s.metrics.RecordSubmission(SubmissionInvalid)
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, s.tooLargeMessage())
		}
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store documents")
	}

	paternal := strings.ToUpper(req.PaternalSurname)
	maternal := strings.ToUpper(req.MaternalSurname)
	given := strings.ToUpper(req.GivenName)
	app := &models.Application{
		PaternalSurname:  paternal,
		MaternalSurname:  maternal,
		GivenName:        given,
		FullName:         models.ComposeFullName(paternal, maternal, given),
		CURP:             curp,
		ControlNumber:    req.ControlNumber,
		Specialty:        req.Specialty,
		Shift:            req.Shift,
		Cohort:           req.Cohort,
		Email:            req.Email,
		Phone:            req.Phone,
		PaymentBank:      req.PaymentBank,
		PaymentKey:       req.PaymentKey,
		PaymentAmount:    req.PaymentAmount,
		PaymentFile:      ref(stored[models.DocumentPayment]),
		SchoolRecordFile: ref(stored[models.DocumentSchoolRecord]),
		IdentityFile:     ref(stored[models.DocumentIdentity]),
		Status:           models.StatusPending,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		s.discard(stored)
		if errors.Is(err, repository.ErrDuplicateCURP) {
			s.metrics.RecordSubmission(SubmissionDuplicate)
			return nil, appErrors.Clone(appErrors.ErrConflict, MsgDuplicateCURP)
		}
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	if s.cache != nil {
		_ = s.cache.InvalidateCounts(ctx)
	}
	s.metrics.RecordSubmission(SubmissionAccepted)
	s.logger.Info("application submitted", zap.Int64("id", app.ID), zap.String("curp", app.CURP))
	return app, nil
}

func (s *RegistrarService) validateRequest(req dto.SubmissionRequest) error {
	err := s.validator.Struct(req)
	if err == nil {
		if strings.IndexFunc(req.CURP, func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		}) >= 0 {
			return appErrors.Clone(appErrors.ErrValidation, MsgInvalidCURP)
		}
		return nil
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, MsgMissingFields)
}

func (s *RegistrarService) validateFiles(files SubmissionFiles) error {
	for _, doc := range models.DocumentTypes {
		file := files[doc]
		if file == nil || file.Open == nil || file.Filename == "" {
			return appErrors.Clone(appErrors.ErrValidation, MsgMissingFiles)
		}
		if !s.allowed(file.Filename) {
			return appErrors.Clone(appErrors.ErrValidation, MsgInvalidFiles)
		}
		if s.cfg.MaxFileSize > 0 && file.Size > s.cfg.MaxFileSize {
			return appErrors.Clone(appErrors.ErrPayloadTooLarge, s.tooLargeMessage())
		}
	}
	return nil
}

// allowed checks the text after the last dot against the allow-list.
func (s *RegistrarService) allowed(filename string) bool {
	ext := filepath.Ext(filename)
	if ext == "" || ext == "." {
		return false
	}
	_, ok := s.extensions[strings.ToLower(ext[1:])]
	return ok
}

func (s *RegistrarService) storeDocuments(curp string, files SubmissionFiles) (map[models.DocumentType]string, error) {
	stored := make(map[models.DocumentType]string, len(models.DocumentTypes))
	for _, doc := range models.DocumentTypes {
		name := storage.SanitizeFilename(models.DocumentFilename(curp, doc))
		saved, err := s.writeDocument(name, files[doc])
		if errors.Is(err, storage.ErrExists) {
			if err = s.reclaim(name); err == nil {
				saved, err = s.writeDocument(name, files[doc])
			}
		}
		if err != nil {
			return stored, err
		}
		stored[doc] = saved
	}
	return stored, nil
}

func (s *RegistrarService) writeDocument(name string, file *UploadedFile) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload for %s: %w", name, err)
	}
	defer src.Close()
	return s.documents.SaveExclusive(name, src, s.cfg.MaxFileSize)
}

// reclaim removes a document that no record references once it is older
// than StaleUploadAge. Callers only get here after the CURP lookup found no
// record, so the file is either a leftover or belongs to a submission racing
// this one.
func (s *RegistrarService) reclaim(name string) error {
	info, err := s.documents.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if s.cfg.Now().Sub(info.ModTime) < s.cfg.StaleUploadAge {
		return errUploadInProgress
	}
	if err := s.documents.Delete(name); err != nil {
		return err
	}
	s.logger.Warn("replaced orphaned document", zap.String("file", name), zap.Time("modified", info.ModTime))
	return nil
}

func (s *RegistrarService) discard(stored map[models.DocumentType]string) {
	for _, name := range stored {
		if err := s.documents.Delete(name); err != nil {
			s.logger.Warn("failed to remove document after rejected submission", zap.String("file", name), zap.Error(err))
		}
	}
}

func (s *RegistrarService) tooLargeMessage() string {
	return TooLargeMessage(s.cfg.MaxFileSize)
}

// TooLargeMessage tells the applicant the per-document size ceiling.
func TooLargeMessage(maxFileSize int64) string {
	mb := maxFileSize / (1024 * 1024)
	if mb < 1 {
		mb = 1
	}
	return fmt.Sprintf("Cada archivo debe pesar como máximo %d MB", mb)
}

func ref(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

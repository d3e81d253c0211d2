package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/models"
	appErrors "github.com/noah-isme/egresados-intake/pkg/errors"
	"github.com/noah-isme/egresados-intake/pkg/storage"
)

// Messages shown to reviewers.
const (
	MsgInvalidStatus      = "Estatus no válido"
	MsgApplicationMissing = "Solicitud no encontrada"
	MsgDocumentMissing    = "Documento no encontrado"
	MsgStatusUpdated      = "Estatus actualizado"
	MsgApplicationDeleted = "Solicitud eliminada"
)

type reviewStore interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
	FindByID(ctx context.Context, id int64) (*models.Application, error)
	UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
	Delete(ctx context.Context, id int64) error
}

type documentStore interface {
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type countsCache interface {
	Counts(ctx context.Context) (models.StatusCounts, bool, error)
	StoreCounts(ctx context.Context, counts models.StatusCounts) error
	InvalidateCounts(ctx context.Context) error
}

// ReviewListing is what the admin dashboard renders.
type ReviewListing struct {
	Applications []models.Application
	Counts       models.StatusCounts
	Filter       models.ApplicationStatus
}

// DocumentDownload is an open stored document ready to stream.
type DocumentDownload struct {
	File     *os.File
	Filename string
	ModTime  time.Time
}

// ReviewService backs the admin console.
type ReviewService struct {
	repo      reviewStore
	documents documentStore
	cache     countsCache
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewStore, documents documentStore, cache countsCache, metrics *MetricsService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, documents: documents, cache: cache, metrics: metrics, logger: logger}
}

// ParseFilter turns the estatus query parameter into a filter. An empty value
// means no filter; an unknown status is a validation error.
func ParseFilter(raw string) (models.ApplicationFilter, error) {
	if raw == "" {
		return models.ApplicationFilter{}, nil
	}
	status, ok := models.ParseStatus(raw)
	if !ok {
		return models.ApplicationFilter{}, appErrors.Clone(appErrors.ErrValidation, MsgInvalidStatus)
	}
	return models.ApplicationFilter{Status: status}, nil
}

// List returns the filtered requests together with counts over all requests.
func (s *ReviewService) List(ctx context.Context, filter models.ApplicationFilter) (*ReviewListing, error) {
	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &ReviewListing{Applications: apps, Counts: counts, Filter: filter.Status}, nil
}

// Counts returns the number of requests per status, every status included.
func (s *ReviewService) Counts(ctx context.Context) (models.StatusCounts, error) {
	if s.cache != nil {
		if cached, hit, err := s.cache.Counts(ctx); err == nil && hit {
			return fillCounts(cached), nil
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count applications")
	}
	counts = fillCounts(counts)
	if s.cache != nil {
		_ = s.cache.StoreCounts(ctx, counts)
	}
	return counts, nil
}

// UpdateStatus applies a reviewer's decision. Only the four known statuses
// are accepted.
func (s *ReviewService) UpdateStatus(ctx context.Context, id int64, raw string) (models.ApplicationStatus, error) {
	status, ok := models.ParseStatus(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, MsgInvalidStatus)
	}
	if id <= 0 {
		return "", appErrors.Clone(appErrors.ErrNotFound, MsgApplicationMissing)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, MsgApplicationMissing)
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.invalidate(ctx)
	s.metrics.RecordStatusUpdate(status.Slug())
	s.logger.Info("application status updated", zap.Int64("id", id), zap.String("status", string(status)))
	return status, nil
}

// Delete removes a request and its stored documents. Documents already gone
// are ignored. A document that cannot be removed is logged and left for the
// orphan sweep; the row is deleted regardless.
func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, MsgApplicationMissing)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	for _, name := range app.FileReferences() {
		if err := s.documents.Delete(name); err != nil {
			s.logger.Warn("failed to delete document, leaving it to the orphan sweep",
				zap.Int64("id", id), zap.String("file", name), zap.Error(err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, MsgApplicationMissing)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete application")
	}

	s.invalidate(ctx)
	s.metrics.RecordDeletion()
	s.logger.Info("application deleted", zap.Int64("id", id), zap.String("curp", app.CURP))
	return nil
}

// OpenDocument opens a stored document for download.
func (s *ReviewService) OpenDocument(ctx context.Context, filename string) (*DocumentDownload, error) {
	name := storage.SanitizeFilename(filename)
	if name == "" || name != filename {
		return nil, appErrors.Clone(appErrors.ErrNotFound, MsgDocumentMissing)
	}
	file, err := s.documents.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, MsgDocumentMissing)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	download := &DocumentDownload{File: file, Filename: name}
	if info, err := file.Stat(); err == nil {
		download.ModTime = info.ModTime()
	}
	return download, nil
}

func (s *ReviewService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateCounts(ctx)
	}
}

func fillCounts(counts models.StatusCounts) models.StatusCounts {
	filled := models.NewStatusCounts()
	for status, n := range counts {
		if _, known := filled[status]; known {
			filled[status] = n
		}
	}
	return filled
}

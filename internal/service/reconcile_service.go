package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/pkg/jobs"
	"github.com/noah-isme/egresados-intake/pkg/storage"
)

// ReconcileJobType identifies the orphaned-document sweep on the job queue.
const ReconcileJobType = "documents.reconcile"

type referenceStore interface {
	ListFileReferences(ctx context.Context) ([]string, error)
}

type documentLister interface {
	List() ([]storage.FileInfo, error)
	Delete(filename string) error
}

// ReconcileService removes stored documents no request refers to. These are
// left behind when a process dies between writing files and inserting the row,
// or when a delete could not remove a file.
type ReconcileService struct {
	repo      referenceStore
	documents documentLister
	metrics   *MetricsService
	logger    *zap.Logger
	grace     time.Duration
	now       func() time.Time
}

// NewReconcileService constructs a ReconcileService. Files younger than grace
// are never touched so in-flight submissions survive.
func NewReconcileService(repo referenceStore, documents documentLister, metrics *MetricsService, logger *zap.Logger, grace time.Duration) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if grace < 0 {
		grace = 0
	}
	return &ReconcileService{repo: repo, documents: documents, metrics: metrics, logger: logger, grace: grace, now: time.Now}
}

// Sweep deletes unreferenced documents older than the grace period and
// returns how many were removed.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	files, err := s.documents.List()
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	refs, err := s.repo.ListFileReferences(ctx)
	if err != nil {
		return 0, fmt.Errorf("list file references: %w", err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[ref] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if _, ok := referenced[file.Name]; ok {
			continue
		}
		if file.ModTime.After(cutoff) {
			continue
		}
		if err := s.documents.Delete(file.Name); err != nil {
			s.logger.Warn("failed to remove orphaned document", zap.String("file", file.Name), zap.Error(err))
			continue
		}
		removed++
		s.logger.Info("orphaned document removed", zap.String("file", file.Name), zap.Time("modified", file.ModTime))
	}

	s.metrics.RecordOrphansRemoved(removed)
	return removed, nil
}

// Handle runs the sweep as a job queue handler.
func (s *ReconcileService) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != ReconcileJobType {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	removed, err := s.Sweep(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("reconcile sweep finished", zap.String("job_id", job.ID), zap.Int("removed", removed))
	return nil
}

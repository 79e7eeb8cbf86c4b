package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/metrics"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

const (
	defaultMaxReportedErrors = 10
	defaultSlabLimit         = 20
)

// jobResult is implemented by every job result type
type jobResult interface {
	Envelope() *models.JobResult
	Affected() int
}

// SyncService runs the synchronization jobs. Each invocation is a single sequential
// worker: it opens a sync log entry, does its work record by record, and seals the
// entry exactly once. Runs of different kinds may overlap; runs of the same kind
// are not coordinated here.
type SyncService struct {
	db         *gorm.DB
	catalog    *CatalogClient
	prices     *PriceChartingClient
	throttle   Throttle
	reconciler *Reconciler
	recorder   *PriceRecorder
	valuation  *ValuationAggregator
	logs       *SyncLogStore

	maxErrors int
	slabLimit int

	mu      sync.Mutex
	running map[models.SyncKind]int
}

// SyncServiceConfig carries the collaborators of a SyncService
type SyncServiceConfig struct {
	DB                *gorm.DB
	Catalog           *CatalogClient
	Prices            *PriceChartingClient
	Throttle          Throttle
	MaxReportedErrors int
	SlabDefaultLimit  int
}

// NewSyncService wires the job runner. A nil throttle disables throttling.
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	s := &SyncService{
		db:         cfg.DB,
		catalog:    cfg.Catalog,
		prices:     cfg.Prices,
		throttle:   cfg.Throttle,
		reconciler: NewReconciler(cfg.DB),
		recorder:   NewPriceRecorder(cfg.DB),
		valuation:  NewValuationAggregator(cfg.DB),
		logs:       NewSyncLogStore(cfg.DB),
		maxErrors:  cfg.MaxReportedErrors,
		slabLimit:  cfg.SlabDefaultLimit,
		running:    make(map[models.SyncKind]int),
	}
	if s.throttle == nil {
		s.throttle = NoThrottle{}
	}
	if s.maxErrors <= 0 {
		s.maxErrors = defaultMaxReportedErrors
	}
	if s.slabLimit <= 0 {
		s.slabLimit = defaultSlabLimit
	}
	return s
}

// Logs exposes the sync log store for read endpoints
func (s *SyncService) Logs() *SyncLogStore {
	return s.logs
}

// Prices exposes the price recorder for read endpoints
func (s *SyncService) Prices() *PriceRecorder {
	return s.recorder
}

// Running reports whether a job of kind is in progress in this process
func (s *SyncService) Running(kind models.SyncKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[kind] > 0
}

func (s *SyncService) track(kind models.SyncKind, delta int) {
	s.mu.Lock()
	s.running[kind] += delta
	n := s.running[kind]
	s.mu.Unlock()
	metrics.SyncRunning.WithLabelValues(string(kind)).Set(float64(n))
}

// run wraps a job body with the sync log lifecycle. The body reports per-record
// problems through the result's error list and returns an error only when the
// job cannot continue. The success flag is false on a fatal error, or when
// errors occurred and nothing was written.
func (s *SyncService) run(ctx context.Context, kind models.SyncKind, result jobResult, body func(ctx context.Context) error) error {
	start := time.Now()
	env := result.Envelope()

	s.track(kind, 1)
	defer s.track(kind, -1)

	entry, err := s.logs.Open(ctx, kind)
	if err != nil {
		env.Success = false
		env.Message = "Failed to open sync log"
		env.Errors = []string{err.Error()}
		env.DurationMS = time.Since(start).Milliseconds()
		metrics.SyncRunsTotal.WithLabelValues(string(kind), string(models.SyncStatusFailed)).Inc()
		return fmt.Errorf("failed to open sync log: %w", err)
	}
	env.RunID = entry.RunID

	log.Info().Str("kind", string(kind)).Str("run_id", entry.RunID).Msg("Sync started")

	bodyErr := body(ctx)

	total := len(env.Errors)
	if total > s.maxErrors {
		env.Errors = env.Errors[:s.maxErrors]
	}
	if env.Errors == nil {
		env.Errors = []string{}
	}

	var errMsg *string
	switch {
	case bodyErr != nil:
		env.Success = false
		if env.Message == "" {
			env.Message = bodyErr.Error()
		}
		msg := bodyErr.Error()
		errMsg = &msg
	default:
		env.Success = total == 0 || result.Affected() > 0
		if total > 0 {
			msg := fmt.Sprintf("%d errors, first: %s", total, env.Errors[0])
			errMsg = &msg
		}
	}

	status := models.SyncStatusCompleted
	if !env.Success {
		status = models.SyncStatusFailed
	}

	// Seal even if the caller has gone away
	if err := s.logs.Seal(context.WithoutCancel(ctx), entry, status, result.Affected(), errMsg); err != nil {
		log.Error().Err(err).Str("run_id", entry.RunID).Msg("Failed to seal sync log")
	}

	elapsed := time.Since(start)
	env.DurationMS = elapsed.Milliseconds()
	metrics.SyncRunsTotal.WithLabelValues(string(kind), string(status)).Inc()
	metrics.SyncDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())

	logEvent := log.Info()
	if !env.Success {
		logEvent = log.Warn()
	}
	logEvent.Str("kind", string(kind)).
		Str("run_id", entry.RunID).
		Str("status", string(status)).
		Int("affected", result.Affected()).
		Int("errors", total).
		Int64("duration_ms", env.DurationMS).
		Msg(env.Message)

	return bodyErr
}

// addErrors appends record errors to a result, keeping batch order
func addErrors(env *models.JobResult, errs []RecordError) {
	for _, e := range errs {
		env.Errors = append(env.Errors, e.Error())
	}
}

func countRecords(kind models.SyncKind, r ReconcileResult) {
	k := string(kind)
	metrics.SyncRecordsTotal.WithLabelValues(k, "created").Add(float64(r.Created))
	metrics.SyncRecordsTotal.WithLabelValues(k, "updated").Add(float64(r.Updated))
	metrics.SyncRecordsTotal.WithLabelValues(k, "skipped").Add(float64(r.Skipped))
	metrics.SyncRecordsTotal.WithLabelValues(k, "failed").Add(float64(len(r.Errors) - r.Skipped))
}

// findSet looks a set up by code; a missing set yields ErrNoSets
func (s *SyncService) findSet(ctx context.Context, code string) (*models.Set, error) {
	var set models.Set
	err := s.db.WithContext(ctx).Where("code = ?", code).Take(&set).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSets, code)
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

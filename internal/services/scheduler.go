package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/julianjca/op-portfolio-tracker/internal/models"
)

// Scheduler triggers sync jobs from cron specs. A kind that is still running,
// whether from a previous tick or an HTTP trigger, is skipped for that tick.
type Scheduler struct {
	sync *SyncService
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the given service
func NewScheduler(syncService *SyncService) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sync:   syncService,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job kind on a standard five-field cron spec. An empty spec is ignored.
func (s *Scheduler) Add(kind models.SyncKind, spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.trigger(kind) }); err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", kind, err)
	}
	log.Info().Str("kind", string(kind)).Str("schedule", spec).Msg("Sync job scheduled")
	return nil
}

// Start begins firing scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Sync scheduler started")
}

// Stop stops new ticks, cancels running scheduled jobs and waits for them to return
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.wg.Wait()
	log.Info().Msg("Sync scheduler stopped")
}

func (s *Scheduler) trigger(kind models.SyncKind) {
	if s.sync.Running(kind) {
		log.Info().Str("kind", string(kind)).Msg("Sync already running, skipping scheduled run")
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("kind", string(kind)).Str("panic", fmt.Sprint(r)).Msg("PANIC in scheduled sync")
		}
	}()

	if _, err := s.sync.RunDefault(s.ctx, kind); err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Msg("Scheduled sync failed")
	}
}

// RunDefault runs a job kind with its default filters. Used by the scheduler
// and the one-shot CLI.
func (s *SyncService) RunDefault(ctx context.Context, kind models.SyncKind) (any, error) {
	switch kind {
	case models.SyncKindSets:
		return s.SyncSets(ctx, SetSyncRequest{})
	case models.SyncKindCards:
		return s.SyncCards(ctx, CardSyncRequest{RecalculateValues: true})
	case models.SyncKindSlabPrices:
		return s.SyncSlabPrices(ctx, SlabPriceSyncRequest{RecalculateValues: true})
	case models.SyncKindSetValues:
		return s.CalculateSetValues(ctx, CalculateRequest{})
	default:
		return nil, fmt.Errorf("%w: %s cannot run without input", ErrUnknownAction, kind)
	}
}

// Package scheduler runs the periodic maintenance jobs: rebuilding the
// keyword index and marking unpaid payments overdue.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/CyberPidgi/rentiful/internal/config"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// Store is the persistence the jobs read and update
type Store interface {
	GetAllProperties(ctx context.Context) ([]models.Property, error)
	MarkOverduePayments(ctx context.Context, now time.Time) (int64, error)
}

// Indexer receives the full listing set on reindex
type Indexer interface {
	IndexListings(properties []models.Property) error
}

// Scheduler handles scheduled maintenance tasks
type Scheduler struct {
	cron    *cron.Cron
	store   Store
	indexer Indexer
	config  config.SchedulerConfig
	now     func() time.Time

	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler. indexer may be nil when keyword
// search is disabled; the reindex job is then skipped.
func NewScheduler(store Store, indexer Indexer, cfg config.SchedulerConfig, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		store:   store,
		indexer: indexer,
		config:  cfg,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		log.Println("[Scheduler] disabled in configuration")
		return nil
	}

	if s.indexer != nil {
		spec := parseDailyRunTime(s.config.ReindexTime)
		if _, err := s.cron.AddFunc(spec, func() {
			if _, err := s.RunReindex(context.Background()); err != nil {
				log.Printf("[Scheduler] reindex failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule reindex: %w", err)
		}
		log.Printf("[Scheduler] reindex at %s (cron: %s)", s.config.ReindexTime, spec)
	}

	overdueSpec := s.config.OverdueSpec
	if overdueSpec == "" {
		overdueSpec = "@hourly"
	}
	if _, err := s.cron.AddFunc(overdueSpec, func() {
		if _, err := s.RunOverdueSweep(context.Background()); err != nil {
			log.Printf("[Scheduler] overdue sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}

	if s.config.RunReindexOnBoot && s.indexer != nil {
		go func() {
			if _, err := s.RunReindex(context.Background()); err != nil {
				log.Printf("[Scheduler] boot reindex failed: %v", err)
			}
		}()
	}

	s.mu.Lock()
	s.cron.Start()
	s.isRunning = true
	s.mu.Unlock()
	log.Printf("[Scheduler] started jobs=%d", len(s.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("[Scheduler] stopped")
	}
}

// RunReindex pushes every listing to the keyword index
func (s *Scheduler) RunReindex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}
	start := s.now()
	properties, err := s.store.GetAllProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("load listings: %w", err)
	}
	if len(properties) == 0 {
		log.Println("[Scheduler] reindex skipped, no listings")
		return 0, nil
	}
	if err := s.indexer.IndexListings(properties); err != nil {
		return 0, fmt.Errorf("index listings: %w", err)
	}
	log.Printf("[Scheduler] reindex done listings=%d duration_ms=%d", len(properties), s.now().Sub(start).Milliseconds())
	return len(properties), nil
}

// RunOverdueSweep marks payments past due as Overdue
func (s *Scheduler) RunOverdueSweep(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverduePayments(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[Scheduler] marked overdue payments=%d", n)
	}
	return n, nil
}

// parseDailyRunTime converts HH:MM to a cron spec, e.g. "03:00" -> "0 3 * * *"
func parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("[Scheduler] failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}

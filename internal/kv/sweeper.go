package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper periodically removes expired entries from stores that lack
// native expiry.
type Sweeper struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	interval  time.Duration
	purger    Purger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	mu        sync.RWMutex
}

// NewSweeper creates a new sweeper
func NewSweeper(p Purger, interval time.Duration) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		interval: interval,
		purger:   p,
	}
}

// Start schedules the purge job
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("sweeper is already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be greater than 0")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweep)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Store sweeper started with interval: %s", s.interval)
	return nil
}

// Stop stops the sweeper and waits for a running purge to finish
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Store sweeper stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Store sweeper stop timeout, forcing shutdown")
	}

	s.cron.Remove(s.entryID)
	s.isRunning = false
	return nil
}

// IsRunning returns whether the sweeper is running
func (s *Sweeper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce purges expired entries immediately
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	return s.purger.PurgeExpired(ctx)
}

// NextRun returns the time of the next scheduled purge
func (s *Sweeper) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// LastRun returns the time of the last purge
func (s *Sweeper) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Prev
}

func (s *Sweeper) sweep() {
	// s.ctx is only replaced by Start while the cron is stopped.
	ctx, cancel := context.WithTimeout(s.ctx, time.Minute)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		logrus.Errorf("Failed to purge expired store entries: %v", err)
		return
	}
	if n > 0 {
		logrus.Infof("Purged %d expired store entries", n)
	}
}

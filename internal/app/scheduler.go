package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"textweight/internal/domain"
)

const (
	// PendingTimeout is how long an unconfirmed measurement waits before
	// auto-commit.
	PendingTimeout = 5 * time.Minute
	// CheckInterval is the scheduler tick period; shorter than the timeout
	// so an expired entry is promoted within one interval of its deadline.
	CheckInterval = time.Minute
	// AuthCodeRetention is how long login codes are kept before pruning.
	AuthCodeRetention = time.Hour
)

// Scheduler is the reconciliation loop: on every tick it promotes any
// expired pending entry into the entry store, then prunes expired auth
// codes and sessions. A tick's failure is logged and the loop continues;
// nothing here can crash the host process.
type Scheduler struct {
	entries  domain.EntryRepository
	pending  *PendingSlot
	codes    domain.AuthCodeRepository
	sessions domain.SessionRepository
	settings domain.SettingsRepository
	sender   domain.MessageSender

	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler creates a Scheduler with the fixed production interval and
// timeout.
func NewScheduler(entries domain.EntryRepository, pending *PendingSlot, codes domain.AuthCodeRepository, sessions domain.SessionRepository, settings domain.SettingsRepository, sender domain.MessageSender) *Scheduler {
	return &Scheduler{
		entries:  entries,
		pending:  pending,
		codes:    codes,
		sessions: sessions,
		settings: settings,
		sender:   sender,
		interval: CheckInterval,
		timeout:  PendingTimeout,
		now:      time.Now,
	}
}

// Start runs one pass immediately, covering entries that expired while the
// process was down, then ticks at the fixed interval until Stop.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		log.Printf("scheduler: already running")
		return
	}
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	log.Printf("scheduler: starting")
	s.Tick(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick(context.Background())
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight tick. A pending entry is
// never force-promoted on shutdown; the next startup pass picks it up with
// its original created_at.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.done == nil {
		s.mu.Unlock()
		return
	}
	close(s.done)
	s.done = nil
	s.mu.Unlock()

	s.wg.Wait()
	log.Printf("scheduler: stopped")
}

// Tick runs one promotion-and-cleanup pass.
func (s *Scheduler) Tick(ctx context.Context) {
	s.processPending(ctx)
	s.cleanup(ctx)
}

func (s *Scheduler) processPending(ctx context.Context) {
	now := s.now()
	promoted, ok, err := s.pending.PromoteExpired(ctx, s.timeout, now, func(p *domain.PendingEntry) error {
		date := currentDate(now, configuredTimezone(ctx, s.settings))
		_, err := s.entries.Upsert(ctx, date, p.Weight)
		return err
	})
	if err != nil {
		log.Printf("scheduler: promote pending: %v", err)
		if promoted != nil {
			s.notifyFailure(ctx, promoted)
		}
		return
	}
	if ok {
		log.Printf("scheduler: committed pending entry %s", formatNumber(promoted.Weight))
	}
}

// notifyFailure sends a best-effort SMS about a failed promotion. The entry
// stays in the slot for retry, so a lost notification costs nothing.
func (s *Scheduler) notifyFailure(ctx context.Context, p *domain.PendingEntry) {
	phone, err := s.settings.Get(ctx, domain.SettingPhoneNumber)
	if err != nil || phone == "" {
		return
	}
	s.sender.Send(ctx, phone, fmt.Sprintf("Failed to log %s. Please try again.", formatNumber(p.Weight)))
}

func (s *Scheduler) cleanup(ctx context.Context) {
	now := s.now()
	if err := s.codes.DeleteOlderThan(ctx, now.Add(-AuthCodeRetention)); err != nil {
		log.Printf("scheduler: prune auth codes: %v", err)
	}
	if err := s.sessions.DeleteExpired(ctx, now); err != nil {
		log.Printf("scheduler: prune sessions: %v", err)
	}
}

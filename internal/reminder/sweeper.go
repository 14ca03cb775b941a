package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulselog-lab/pulselog/internal/core/period"
	"github.com/pulselog-lab/pulselog/internal/core/storage"
	"github.com/pulselog-lab/pulselog/internal/notify"
)

// Sweeper periodically checks each reminder rule's subject for a logged event
// in the current period and hands misses to the notification dispatcher.
// It is stateless: each tick independently re-checks every rule.
type Sweeper struct {
	interval    time.Duration
	events      storage.EventStore
	dispatcher  *notify.Dispatcher
	rules       []Rule
	workerCount int
	nowFn       func() time.Time
}

// NewSweeper creates a sweeper over the given rules.
func NewSweeper(
	interval time.Duration,
	events storage.EventStore,
	dispatcher *notify.Dispatcher,
	rules []Rule,
	workerCount int,
) *Sweeper {
	if workerCount <= 0 {
		workerCount = 4
	}
	return &Sweeper{
		interval:    interval,
		events:      events,
		dispatcher:  dispatcher,
		rules:       rules,
		workerCount: workerCount,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins periodic sweeps. Runs until context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Sweeper] Starting reminder sweeper",
		"interval", s.interval,
		"rules", len(s.rules),
		"workers", s.workerCount,
	)

	for {
		select {
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				slog.Error("[Sweeper] Sweep failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[Sweeper] Stopping (context cancelled)")
			return nil
		}
	}
}

// Sweep runs one pass over all rules, fanning out across workers.
// Each rule uses an atomic existence check against the uniqueness-constrained
// store — never a read-then-decide scan that could race concurrent writers.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.nowFn()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workerCount)

	for _, rule := range s.rules {
		g.Go(func() error {
			return s.checkRule(gctx, rule, now)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("reminder sweep: %w", err)
	}
	return nil
}

func (s *Sweeper) checkRule(ctx context.Context, rule Rule, now time.Time) error {
	p := period.Normalize(now, rule.PeriodKind)

	logged, err := s.periodLogged(ctx, rule.SubjectID, p)
	if err != nil {
		return fmt.Errorf("rule %q: %w", rule.Name, err)
	}
	if logged {
		return nil
	}

	slog.Debug("[Sweeper] Period not yet logged, enqueueing reminder",
		"rule", rule.Name,
		"subject_id", rule.SubjectID,
		"period_key", p.Key)

	s.dispatcher.Enqueue(notify.Task{
		Recipient: rule.Recipient,
		Subject:   fmt.Sprintf("Reminder: %s", rule.Name),
		Body:      rule.Message,
	})
	return nil
}

// periodLogged reports whether the subject logged anything inside the period.
// Events are stamped with daily keys at ingest, so a week rule is satisfied by
// any of its seven days; each check stays an atomic point lookup.
func (s *Sweeper) periodLogged(ctx context.Context, subjectID string, p period.Period) (bool, error) {
	if p.Kind != period.Week {
		return s.events.HasEventInPeriod(ctx, subjectID, p.Key)
	}

	for d := 0; d < 7; d++ {
		key := period.Normalize(p.Start.AddDate(0, 0, d), period.Day).Key
		logged, err := s.events.HasEventInPeriod(ctx, subjectID, key)
		if err != nil {
			return false, err
		}
		if logged {
			return true, nil
		}
	}
	return false, nil
}

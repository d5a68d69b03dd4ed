package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

// ErrLimitReached is a business outcome, not a failure.
var ErrLimitReached = errors.New("monthly AI check limit reached")

// Snapshot is the read model of a hospital's usage.
type Snapshot struct {
	Used        int        `json:"used"`
	Max         int        `json:"max"`
	Unlimited   bool       `json:"unlimited"`
	Remaining   *int       `json:"remaining"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

// Ledger owns the AI usage counter and the billing window of a hospital.
type Ledger struct {
	Hospitals hospital.Repository
	Clock     application.Clock
	Logger    *zap.Logger
}

func NewLedger(repo hospital.Repository, clock application.Clock, logger *zap.Logger) *Ledger {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{Hospitals: repo, Clock: clock, Logger: logger}
}

// NextWindow is one calendar month starting at now.
func NextWindow(now time.Time) (time.Time, time.Time) {
	return now, now.AddDate(0, 1, 0)
}

// Rollover opens a new billing window when the current one is unset or in
// the past. h is updated in place. It reports whether a window was opened
// by this call.
func (l *Ledger) Rollover(ctx context.Context, h *hospital.Hospital) (bool, error) {
	now := l.Clock.Now()
	if !h.WindowExpired(now) {
		return false, nil
	}
	start, end := NextWindow(now)
	changed, err := l.Hospitals.OpenBillingWindow(ctx, h.ID, start, end, now)
	if err != nil {
		return false, fmt.Errorf("open billing window: %w", err)
	}
	if !changed {
		// another request rolled the window first; take its values
		fresh, err := l.Hospitals.FindByID(ctx, h.ID)
		if err != nil {
			return false, fmt.Errorf("reload hospital: %w", err)
		}
		copyBilling(h, fresh)
		return false, nil
	}

	h.BillingPeriodStart = &start
	h.BillingPeriodEnd = &end
	h.AIChecksUsedThisMonth = 0
	l.Logger.Info("billing window opened",
		zap.String("hospital_id", h.ID),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return true, nil
}

// Check rolls the window over if needed and rejects with ErrLimitReached
// when the cap is reached. It never changes the counter upwards.
func (l *Ledger) Check(ctx context.Context, h *hospital.Hospital) error {
	if _, err := l.Rollover(ctx, h); err != nil {
		return err
	}
	if h.LimitReached() {
		return ErrLimitReached
	}
	return nil
}

// Commit charges one check after a successful assessment. The increment is
// conditional in storage, so a lost race at the cap returns ErrLimitReached
// and leaves the counter at the cap. A window that ended after Check is
// rolled over and the check is charged to the new one.
func (l *Ledger) Commit(ctx context.Context, h *hospital.Hospital) error {
	now := l.Clock.Now()
	ok, err := l.Hospitals.IncrementUsage(ctx, h.ID, now)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if !ok && h.WindowExpired(now) {
		if _, err := l.Rollover(ctx, h); err != nil {
			return err
		}
		if ok, err = l.Hospitals.IncrementUsage(ctx, h.ID, l.Clock.Now()); err != nil {
			return fmt.Errorf("increment usage: %w", err)
		}
	}
	if !ok {
		return ErrLimitReached
	}
	h.AIChecksUsedThisMonth++
	return nil
}

// Usage returns the current counters after applying any rollover.
func (l *Ledger) Usage(ctx context.Context, h *hospital.Hospital) (Snapshot, error) {
	if _, err := l.Rollover(ctx, h); err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Used:        h.AIChecksUsedThisMonth,
		Max:         h.MaxAIChecksPerMonth,
		Unlimited:   h.Unlimited(),
		PeriodStart: h.BillingPeriodStart,
		PeriodEnd:   h.BillingPeriodEnd,
	}
	if !s.Unlimited {
		left := h.MaxAIChecksPerMonth - h.AIChecksUsedThisMonth
		if left < 0 {
			left = 0
		}
		s.Remaining = &left
	}
	return s, nil
}

func copyBilling(dst, src *hospital.Hospital) {
	dst.BillingPeriodStart = src.BillingPeriodStart
	dst.BillingPeriodEnd = src.BillingPeriodEnd
	dst.AIChecksUsedThisMonth = src.AIChecksUsedThisMonth
	dst.MaxAIChecksPerMonth = src.MaxAIChecksPerMonth
}

package hospital

import (
	"context"
	"time"
)

// Finder looks hospitals up; implementations return ErrNotFound on a miss.
type Finder interface {
	FindBySubdomain(ctx context.Context, subdomain string) (*Hospital, error)
	FindByID(ctx context.Context, id string) (*Hospital, error)
}

// Repository port (interface untuk persistence)
type Repository interface {
	Finder

	// OpenBillingWindow sets a new window and resets the counter, but only if
	// the stored window is unset or ended before now. It reports whether the
	// row was changed.
	OpenBillingWindow(ctx context.Context, id string, start, end, now time.Time) (bool, error)

	// IncrementUsage adds one check only if the cap is not reached and the
	// window has not ended at now. It reports whether the row was changed.
	IncrementUsage(ctx context.Context, id string, now time.Time) (bool, error)

	SetPlan(ctx context.Context, id string, maxAIChecksPerMonth int, now time.Time) error
}

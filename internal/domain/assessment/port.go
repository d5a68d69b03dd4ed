package assessment

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, r *Report) error
	Get(ctx context.Context, hospitalID, id string) (*Report, error)
}

// Archive keeps a copy of a finished report outside the database.
type Archive interface {
	ArchiveReport(ctx context.Context, r *Report) (string, error)
}

// Notifier hands a finished report to the notification pipeline.
type Notifier interface {
	ReportCompleted(ctx context.Context, r *Report) error
}

package usage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application"
	domain "github.com/bryanwahyu/medassist/internal/domain/usage"
)

// writeTimeout bounds the audit write so it cannot hold the response.
const writeTimeout = 3 * time.Second

// Recorder appends usage audit rows. Failures are logged, never returned.
type Recorder struct {
	Repo   domain.Repository
	Clock  application.Clock
	Logger *zap.Logger
}

func NewRecorder(repo domain.Repository, clock application.Clock, logger *zap.Logger) *Recorder {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{Repo: repo, Clock: clock, Logger: logger}
}

// Record stores e. Entries without a hospital are skipped.
func (r *Recorder) Record(ctx context.Context, e domain.Entry) {
	if r == nil || r.Repo == nil {
		return
	}
	e.HospitalID = strings.TrimSpace(e.HospitalID)
	if e.HospitalID == "" {
		return
	}
	e.Provider = strings.TrimSpace(e.Provider)
	e.Model = strings.TrimSpace(e.Model)
	if e.Category == "" {
		e.Category = domain.CategoryAIAssessment
	}
	if e.Tokens < 0 {
		e.Tokens = 0
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.Clock.Now()
	}

	// detach from request cancellation; the response may already be written
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.Repo.Append(wctx, &e); err != nil {
		r.Logger.Error("usage log write failed",
			zap.Error(err),
			zap.String("hospital_id", e.HospitalID),
			zap.String("category", e.Category),
			zap.String("provider", e.Provider),
			zap.Int("tokens", e.Tokens),
		)
	}
}

package plans

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application/quota"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

var ErrInvalidPlan = errors.New("invalid plan")

// Service assigns subscription plans to hospitals.
type Service struct {
	Hospitals hospital.Repository
	Ledger    *quota.Ledger
	Logger    *zap.Logger
}

// AssignCommand sets the monthly AI check cap. 0 means unlimited.
type AssignCommand struct {
	HospitalID          string
	MaxAIChecksPerMonth int
}

// Assign stores the new cap and opens a fresh billing window when the
// current one is unset or already expired.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*hospital.Hospital, error) {
	if cmd.MaxAIChecksPerMonth < 0 {
		return nil, fmt.Errorf("%w: max AI checks per month must be >= 0", ErrInvalidPlan)
	}
	h, err := s.Hospitals.FindByID(ctx, cmd.HospitalID)
	if err != nil {
		return nil, err
	}
	if err := s.Hospitals.SetPlan(ctx, h.ID, cmd.MaxAIChecksPerMonth, s.Ledger.Clock.Now()); err != nil {
		return nil, fmt.Errorf("set plan: %w", err)
	}
	h.MaxAIChecksPerMonth = cmd.MaxAIChecksPerMonth

	opened, err := s.Ledger.Rollover(ctx, h)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("plan assigned",
			zap.String("hospital_id", h.ID),
			zap.Int("max_ai_checks_per_month", h.MaxAIChecksPerMonth),
			zap.Bool("window_reset", opened),
		)
	}
	return h, nil
}

package doctor

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("doctor not found")

// Repository is read-only for the assessment flow.
type Repository interface {
	ListActive(ctx context.Context, hospitalID string) ([]*Doctor, error)
	// FindActive returns ErrNotFound when the doctor does not exist, belongs
	// to another hospital, or is inactive.
	FindActive(ctx context.Context, hospitalID, id string) (*Doctor, error)
}

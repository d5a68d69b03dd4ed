package hospital

import "errors"

var (
	ErrNotFound = errors.New("hospital not found")
	// ErrInactive is returned for suspended or banned hospitals outside public routes.
	ErrInactive = errors.New("hospital is not active")
)

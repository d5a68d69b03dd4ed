package assessment

import "errors"

var (
	ErrNotFound     = errors.New("report not found")
	ErrInvalidInput = errors.New("invalid assessment input")
	// ErrNoTenant means the request carries no hospital context at all.
	ErrNoTenant = errors.New("hospital context is required")
	// ErrHospitalNotFound means a hospital was requested but does not exist.
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrForbidden        = errors.New("forbidden")
)

// Package memory holds in-process repositories for the memory driver and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bryanwahyu/medassist/internal/domain/hospital"
)

type HospitalRepository struct {
	mu    sync.Mutex
	byID  map[string]*hospital.Hospital
	bySub map[string]string
}

func NewHospitalRepository() *HospitalRepository {
	return &HospitalRepository{byID: map[string]*hospital.Hospital{}, bySub: map[string]string{}}
}

// Put inserts or replaces a hospital.
func (r *HospitalRepository) Put(h *hospital.Hospital) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	cp.Subdomain = hospital.NormalizeSubdomain(cp.Subdomain)
	if old, ok := r.byID[cp.ID]; ok {
		delete(r.bySub, old.Subdomain)
	}
	r.byID[cp.ID] = &cp
	r.bySub[cp.Subdomain] = cp.ID
}

func (r *HospitalRepository) FindBySubdomain(_ context.Context, subdomain string) (*hospital.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bySub[hospital.NormalizeSubdomain(subdomain)]
	if !ok {
		return nil, hospital.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *HospitalRepository) FindByID(_ context.Context, id string) (*hospital.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return nil, hospital.ErrNotFound
	}
	return clone(h), nil
}

func (r *HospitalRepository) OpenBillingWindow(_ context.Context, id string, start, end, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok || !h.WindowExpired(now) {
		return false, nil
	}
	h.BillingPeriodStart, h.BillingPeriodEnd = &start, &end
	h.AIChecksUsedThisMonth = 0
	h.UpdatedAt = now
	return true, nil
}

func (r *HospitalRepository) IncrementUsage(_ context.Context, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok || h.BillingPeriodEnd == nil || h.BillingPeriodEnd.Before(now) || h.LimitReached() {
		return false, nil
	}
	h.AIChecksUsedThisMonth++
	h.UpdatedAt = now
	return true, nil
}

func (r *HospitalRepository) SetPlan(_ context.Context, id string, maxAIChecksPerMonth int, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byID[id]
	if !ok {
		return hospital.ErrNotFound
	}
	h.MaxAIChecksPerMonth = maxAIChecksPerMonth
	h.UpdatedAt = now
	return nil
}

func clone(h *hospital.Hospital) *hospital.Hospital {
	cp := *h
	if h.BillingPeriodStart != nil {
		t := *h.BillingPeriodStart
		cp.BillingPeriodStart = &t
	}
	if h.BillingPeriodEnd != nil {
		t := *h.BillingPeriodEnd
		cp.BillingPeriodEnd = &t
	}
	return &cp
}

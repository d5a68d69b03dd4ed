package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bryanwahyu/medassist/internal/domain/doctor"
)

type DoctorRepository struct {
	mu   sync.RWMutex
	byID map[string]doctor.Doctor
}

func NewDoctorRepository() *DoctorRepository {
	return &DoctorRepository{byID: map[string]doctor.Doctor{}}
}

func (r *DoctorRepository) Put(d *doctor.Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.Expertise = append([]string(nil), d.Expertise...)
	r.byID[d.ID] = cp
}

func (r *DoctorRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

func (r *DoctorRepository) ListActive(_ context.Context, hospitalID string) ([]*doctor.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*doctor.Doctor
	for _, d := range r.byID {
		if d.HospitalID == hospitalID && d.IsActive() {
			cp := d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *DoctorRepository) FindActive(_ context.Context, hospitalID, id string) (*doctor.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok || d.HospitalID != hospitalID || !d.IsActive() {
		return nil, doctor.ErrNotFound
	}
	return &d, nil
}

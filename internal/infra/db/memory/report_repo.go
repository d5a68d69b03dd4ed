package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
)

// ReportRepository stores reports JSON-encoded so reads never alias writes.
type ReportRepository struct {
	mu   sync.RWMutex
	byID map[string][]byte
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{byID: map[string][]byte{}}
}

func (r *ReportRepository) Create(_ context.Context, rep *assessment.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rep.ID] = b
	return nil
}

func (r *ReportRepository) Get(_ context.Context, hospitalID, id string) (*assessment.Report, error) {
	r.mu.RLock()
	b, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, assessment.ErrNotFound
	}
	var rep assessment.Report
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, err
	}
	if rep.HospitalID != hospitalID {
		return nil, assessment.ErrNotFound
	}
	return &rep, nil
}

func (r *ReportRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

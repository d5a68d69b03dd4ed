package memory

import (
	"context"
	"sync"

	"github.com/bryanwahyu/medassist/internal/domain/usage"
)

type UsageRepository struct {
	mu      sync.Mutex
	entries []usage.Entry
}

func NewUsageRepository() *UsageRepository { return &UsageRepository{} }

func (r *UsageRepository) Append(_ context.Context, e *usage.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

// Entries returns a copy of everything appended so far.
func (r *UsageRepository) Entries() []usage.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]usage.Entry(nil), r.entries...)
}

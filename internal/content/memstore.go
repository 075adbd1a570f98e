package content

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/ids"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store for tests and local development. Review
// transitions follow the PG store: only pending questions can be reviewed.
type MemStore struct {
	mu    sync.Mutex
	items map[string]*Question
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]*Question)}
}

func (s *MemStore) Create(ctx context.Context, q *Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		q.ID = ids.New()
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	now := time.Now().UTC()
	q.CreatedAt, q.UpdatedAt = now, now
	cp := *q
	s.items[q.ID] = &cp
	return nil
}

func (s *MemStore) Find(ctx context.Context, id string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *MemStore) List(ctx context.Context, status string, limit int) ([]Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Question
	for _, q := range s.items {
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) SetReview(ctx context.Context, id, reviewerID, status, note string) error {
	if status != StatusApproved && status != StatusRejected {
		return fmt.Errorf("%w: unsupported review status %s", ErrInvalidInput, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.items[id]
	if !ok || q.Status != StatusPending {
		return ErrNotFound
	}
	q.Status = status
	q.ReviewedBy = reviewerID
	q.ReviewNote = note
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemStore) StatsForUser(ctx context.Context, userID string) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats Statistics
	for _, q := range s.items {
		if q.AuthorID == userID {
			stats.Generated++
			if q.Status == StatusApproved {
				stats.Approved++
			}
		}
		if q.ReviewedBy == userID {
			stats.Reviewed++
		}
	}
	return stats, nil
}

package content

import "context"

// Store describes the persistence the content handlers need. Review state
// transitions happen in the store so a question is never approved twice
// concurrently; the database is the only synchronization point.
type Store interface {
	Create(ctx context.Context, q *Question) error
	Find(ctx context.Context, id string) (*Question, error)
	List(ctx context.Context, status string, limit int) ([]Question, error)
	SetReview(ctx context.Context, id, reviewerID, status, note string) error
	StatsForUser(ctx context.Context, userID string) (Statistics, error)
}

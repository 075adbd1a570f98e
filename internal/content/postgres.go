package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = ids.New()
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`insert into questions(id, author_id, stem, answer, difficulty, status)
		 values($1,$2,$3,$4,$5,$6)`,
		q.ID, q.AuthorID, q.Stem, q.Answer, q.Difficulty, q.Status,
	)
	return err
}

func (s *PGStore) Find(ctx context.Context, id string) (*Question, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, author_id, stem, answer, difficulty, status,
		        coalesce(reviewed_by, ''), coalesce(review_note, ''), created_at, updated_at
		 from questions where id=$1`, id)
	var q Question
	err := row.Scan(&q.ID, &q.AuthorID, &q.Stem, &q.Answer, &q.Difficulty, &q.Status,
		&q.ReviewedBy, &q.ReviewNote, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (s *PGStore) List(ctx context.Context, status string, limit int) ([]Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `select id, author_id, stem, answer, difficulty, status,
	                 coalesce(reviewed_by, ''), coalesce(review_note, ''), created_at, updated_at
	          from questions`
	args := []any{}
	if status != "" {
		query += ` where status=$1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` order by created_at desc limit %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.AuthorID, &q.Stem, &q.Answer, &q.Difficulty, &q.Status,
			&q.ReviewedBy, &q.ReviewNote, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PGStore) SetReview(ctx context.Context, id, reviewerID, status, note string) error {
	if status != StatusApproved && status != StatusRejected {
		return fmt.Errorf("%w: unsupported review status %s", ErrInvalidInput, status)
	}
	res, err := s.db.ExecContext(ctx,
		`update questions set status=$2, reviewed_by=$3, review_note=$4, updated_at=now()
		 where id=$1 and status=$5`,
		id, status, reviewerID, note, StatusPending,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) StatsForUser(ctx context.Context, userID string) (Statistics, error) {
	row := s.db.QueryRowContext(ctx,
		`select
		   count(*) filter (where author_id=$1),
		   count(*) filter (where reviewed_by=$1),
		   count(*) filter (where author_id=$1 and status='approved')
		 from questions`, userID)
	var stats Statistics
	if err := row.Scan(&stats.Generated, &stats.Reviewed, &stats.Approved); err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

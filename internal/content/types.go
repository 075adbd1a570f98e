package content

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("content: not found")
	ErrInvalidInput = errors.New("content: invalid input")
)

// Question statuses. A question enters review as pending and leaves it
// approved or rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Question is a generated exam question awaiting or past review.
type Question struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Stem       string    `json:"stem"`
	Answer     string    `json:"answer"`
	Difficulty string    `json:"difficulty,omitempty"`
	Status     string    `json:"status"`
	ReviewedBy string    `json:"reviewed_by,omitempty"`
	ReviewNote string    `json:"review_note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Statistics summarizes a user's activity for the profile endpoint.
type Statistics struct {
	Generated int `json:"generated"`
	Reviewed  int `json:"reviewed"`
	Approved  int `json:"approved"`
}

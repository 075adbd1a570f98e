package content

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreReviewTransitions(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	q := &Question{AuthorID: "author-1", Stem: "2+2?", Answer: "4"}
	if err := store.Create(ctx, q); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if q.ID == "" || q.Status != StatusPending {
		t.Fatalf("created question: %+v", q)
	}

	if err := store.SetReview(ctx, q.ID, "reviewer-1", "published", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad status: want ErrInvalidInput, got %v", err)
	}
	if err := store.SetReview(ctx, q.ID, "reviewer-1", StatusApproved, "lgtm"); err != nil {
		t.Fatalf("SetReview: %v", err)
	}
	// Only pending questions can be reviewed.
	if err := store.SetReview(ctx, q.ID, "reviewer-2", StatusRejected, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double review: want ErrNotFound, got %v", err)
	}

	got, err := store.Find(ctx, q.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Status != StatusApproved || got.ReviewedBy != "reviewer-1" || got.ReviewNote != "lgtm" {
		t.Fatalf("reviewed question: %+v", got)
	}

	stats, err := store.StatsForUser(ctx, "author-1")
	if err != nil {
		t.Fatalf("StatsForUser: %v", err)
	}
	if stats.Generated != 1 || stats.Approved != 1 || stats.Reviewed != 0 {
		t.Fatalf("author stats: %+v", stats)
	}
	stats, _ = store.StatsForUser(ctx, "reviewer-1")
	if stats.Reviewed != 1 || stats.Generated != 0 {
		t.Fatalf("reviewer stats: %+v", stats)
	}
}

func TestMemStoreListFilters(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, &Question{AuthorID: "a", Stem: "s", Answer: "x"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	q := &Question{AuthorID: "a", Stem: "s", Answer: "x"}
	_ = store.Create(ctx, q)
	_ = store.SetReview(ctx, q.ID, "r", StatusApproved, "")

	pending, err := store.List(ctx, StatusPending, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d", len(pending))
	}
	all, _ := store.List(ctx, "", 2)
	if len(all) != 2 {
		t.Fatalf("limit not applied: %d", len(all))
	}
}

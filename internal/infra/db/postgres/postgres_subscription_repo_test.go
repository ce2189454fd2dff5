//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"edupay/internal/domain/model"
)

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewSubscriptionRepo(testPool)

	t.Run("should insert once per natural key", func(t *testing.T) {
		cleanup(t)
		seedCatalog(t)

		expiry := time.Now().Add(365 * 24 * time.Hour)
		sub, err := model.NewSubscription(uuid.NewString(), "user-1", "prod-sys", "tx-1", expiry)
		if err != nil {
			t.Fatalf("new subscription: %v", err)
		}

		inserted, err := repo.SaveIdempotent(ctx, nil, sub)
		if err != nil {
			t.Fatalf("first insert: %v", err)
		}
		if !inserted {
			t.Fatal("expected the first insert to land")
		}

		// Same natural key, fresh surrogate id: the replayed callback path.
		dup, _ := model.NewSubscription(uuid.NewString(), "user-1", "prod-sys", "tx-1", expiry)
		inserted, err = repo.SaveIdempotent(ctx, nil, dup)
		if err != nil {
			t.Fatalf("duplicate insert: %v", err)
		}
		if inserted {
			t.Error("a duplicate natural key must not insert")
		}

		n, err := repo.CountByUserAndProduct(ctx, nil, "user-1", "prod-sys")
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 row, got %d", n)
		}
	})

	t.Run("should keep one row when two callbacks race", func(t *testing.T) {
		cleanup(t)
		seedCatalog(t)

		expiry := time.Now().Add(365 * 24 * time.Hour)
		results := make(chan bool, 2)
		errs := make(chan error, 2)
		var start sync.WaitGroup
		start.Add(1)
		for i := 0; i < 2; i++ {
			go func() {
				sub, err := model.NewSubscription(uuid.NewString(), "user-1", "prod-sys", "tx-1", expiry)
				if err != nil {
					errs <- err
					return
				}
				start.Wait()
				inserted, err := repo.SaveIdempotent(ctx, nil, sub)
				if err != nil {
					errs <- err
					return
				}
				results <- inserted
			}()
		}
		start.Done()

		inserted := 0
		for i := 0; i < 2; i++ {
			select {
			case err := <-errs:
				t.Fatalf("concurrent insert: %v", err)
			case ok := <-results:
				if ok {
					inserted++
				}
			}
		}
		if inserted != 1 {
			t.Errorf("expected exactly one insert to win, got %d", inserted)
		}
		n, err := repo.CountByUserAndProduct(ctx, nil, "user-1", "prod-sys")
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 row after the race, got %d", n)
		}
	})

	t.Run("should allow the same product from a different transaction", func(t *testing.T) {
		cleanup(t)
		seedCatalog(t)

		expiry := time.Now().Add(365 * 24 * time.Hour)
		a, _ := model.NewSubscription(uuid.NewString(), "user-1", "prod-sys", "tx-1", expiry)
		b, _ := model.NewSubscription(uuid.NewString(), "user-1", "prod-sys", "tx-2", expiry)

		if inserted, _ := repo.SaveIdempotent(ctx, nil, a); !inserted {
			t.Fatal("first insert should land")
		}
		if inserted, _ := repo.SaveIdempotent(ctx, nil, b); !inserted {
			t.Error("a renewal from a new transaction should land")
		}
	})
}

func TestBookPurchaseRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewBookPurchaseRepo(testPool)

	t.Run("should return the stored row on conflict", func(t *testing.T) {
		cleanup(t)
		seedCatalog(t)

		first, err := model.NewBookPurchase(uuid.NewString(), "user-1", "prod-book", "tx-1", "user-1_booklet_b.pdf")
		if err != nil {
			t.Fatalf("new purchase: %v", err)
		}
		first.DownloadLink = "https://pay.example.com/pay/download/user-1_booklet_b.pdf?token=a"
		first.PersonalID = "312456789"

		stored, err := repo.SaveIdempotent(ctx, nil, first)
		if err != nil {
			t.Fatalf("first insert: %v", err)
		}
		if stored.ID != first.ID {
			t.Errorf("expected the new row back, got %s", stored.ID)
		}

		dup, _ := model.NewBookPurchase(uuid.NewString(), "user-1", "prod-book", "tx-2", "user-1_booklet_b.pdf")
		dup.PersonalID = "999999999"
		stored, err = repo.SaveIdempotent(ctx, nil, dup)
		if err != nil {
			t.Fatalf("conflicting insert: %v", err)
		}
		if stored.ID != first.ID {
			t.Error("a conflicting insert must return the original row")
		}
		if stored.PersonalID != "312456789" {
			t.Errorf("the original password must survive a replay, got %q", stored.PersonalID)
		}
	})
}

func TestLegacyFulfillmentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewLegacyFulfillmentRepo(testPool)

	t.Run("should begin once per email", func(t *testing.T) {
		cleanup(t)

		lf := &model.LegacyFulfillment{
			Email: "old@example.com", PlanID: "plan-book", Amount: 4900,
			StudentName: "Dana", CreatedAt: time.Now(),
		}
		began, err := repo.TryBegin(ctx, nil, lf)
		if err != nil {
			t.Fatalf("first begin: %v", err)
		}
		if !began {
			t.Fatal("expected the first marker to land")
		}

		began, err = repo.TryBegin(ctx, nil, lf)
		if err != nil {
			t.Fatalf("second begin: %v", err)
		}
		if began {
			t.Error("a second delivery for the same email must not begin")
		}
	})
}

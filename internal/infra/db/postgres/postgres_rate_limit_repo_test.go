//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
	"swapscribe/internal/usecase"
)

func TestRateLimitRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewRateLimitRepo(testPool)

	t.Run("should require a transaction for the advisory lock", func(t *testing.T) {
		if err := repo.LockKey(ctx, repository.NoTX, "k"); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Errorf("expected ErrInvalidExecContext, got %v", err)
		}
	})

	t.Run("should count and prune by window", func(t *testing.T) {
		resetInvoiceStore(t)
		now := time.Now()
		for _, at := range []time.Time{now.Add(-2 * time.Hour), now.Add(-time.Minute), now} {
			if err := repo.Insert(ctx, repository.NoTX, &model.RateLimitRecord{Origin: "1.2.3.4", Action: model.ActionCreateInvoice, CreatedAt: at}); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
		}
		n, err := repo.CountSince(ctx, repository.NoTX, "1.2.3.4", model.ActionCreateInvoice, now.Add(-time.Hour))
		if err != nil || n != 2 {
			t.Fatalf("expected 2 records in window, got %d (%v)", n, err)
		}
		deleted, err := repo.DeleteBefore(ctx, repository.NoTX, now.Add(-time.Hour))
		if err != nil || deleted != 1 {
			t.Errorf("expected 1 pruned record, got %d (%v)", deleted, err)
		}
	})

	t.Run("should never admit more than the limit under concurrency", func(t *testing.T) {
		resetInvoiceStore(t)
		logger := zerolog.Nop()
		limiter := usecase.NewRateLimiter(repo, NewTxManager(testPool), usecase.RateLimitPolicy{Limit: 10, Window: time.Hour}, &logger)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := limiter.Admit(ctx, "9.9.9.9", model.ActionCreateInvoice)
				if err != nil {
					t.Errorf("Admit failed: %v", err)
					return
				}
				if ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if allowed != 10 {
			t.Errorf("expected exactly 10 admitted attempts, got %d", allowed)
		}
	})
}

package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrihealth/nutriwallet-gobackend/internal/models"
)

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("credit increases balance and records transaction", func(t *testing.T) {
		store := NewMemoryStore(0)
		tx, err := store.Apply(ctx, models.KindTopUpDirect, 500, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, tx.Status)
		assert.Equal(t, int64(500), tx.Amount)
		require.NotNil(t, tx.ConfirmedAt)

		balance, err := store.Balance(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(500), balance)
	})

	t.Run("debit with sufficient funds", func(t *testing.T) {
		store := NewMemoryStore(1500)
		_, err := store.Apply(ctx, models.KindRedeem, 1000, "")
		require.NoError(t, err)

		balance, _ := store.Balance(ctx)
		assert.Equal(t, int64(500), balance)
	})

	t.Run("debit with insufficient funds leaves balance untouched", func(t *testing.T) {
		store := NewMemoryStore(500)
		_, err := store.Apply(ctx, models.KindRedeem, 1000, "")

		var insufficient *InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(1000), insufficient.Required)
		assert.Equal(t, int64(500), insufficient.Current)

		balance, _ := store.Balance(ctx)
		assert.Equal(t, int64(500), balance)
		assert.Empty(t, store.Transactions())
	})

	t.Run("debit to exactly zero succeeds", func(t *testing.T) {
		store := NewMemoryStore(1000)
		_, err := store.Apply(ctx, models.KindRedeem, 1000, "")
		require.NoError(t, err)

		balance, _ := store.Balance(ctx)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		store := NewMemoryStore(0)
		_, err := store.Apply(ctx, models.KindTopUpDirect, 0, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = store.Apply(ctx, models.KindTopUpDirect, -5, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		store := NewMemoryStore(0)
		_, err := store.Apply(ctx, "TRANSFER", 100, "")
		assert.Error(t, err)
	})
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("first reservation wins, second is refused", func(t *testing.T) {
		store := NewMemoryStore(0)
		ok, err := store.Reserve(ctx, "nh_1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Reserve(ctx, "nh_1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release allows a retry to reserve again", func(t *testing.T) {
		store := NewMemoryStore(0)
		ok, _ := store.Reserve(ctx, "nh_2")
		require.True(t, ok)
		require.NoError(t, store.Release(ctx, "nh_2"))

		ok, err := store.Reserve(ctx, "nh_2")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release does not forget an applied reference", func(t *testing.T) {
		store := NewMemoryStore(0)
		ok, _ := store.Reserve(ctx, "nh_3")
		require.True(t, ok)
		_, err := store.Apply(ctx, models.KindTopUpGateway, 500, "nh_3")
		require.NoError(t, err)

		require.NoError(t, store.Release(ctx, "nh_3"))
		ok, _ = store.Reserve(ctx, "nh_3")
		assert.False(t, ok, "an applied reference must stay reserved")
	})

	t.Run("exactly one winner under concurrent reservation", func(t *testing.T) {
		store := NewMemoryStore(0)
		const attempts = 50

		var wg sync.WaitGroup
		results := make(chan bool, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, _ := store.Reserve(ctx, "nh_race")
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for ok := range results {
			if ok {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	t.Run("complete unknown session", func(t *testing.T) {
		_, err := store.CompleteSession(ctx, "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("create then complete", func(t *testing.T) {
		require.NoError(t, store.CreateSession(ctx, &models.PaymentSession{
			TxRef:  "nh_s1",
			Amount: 500,
			Status: models.SessionCreated,
		}))

		session, err := store.CompleteSession(ctx, "nh_s1")
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, session.Status)
	})
}

func TestBalanceEqualsConfirmedSum(t *testing.T) {
	// The invariant: after any mix of concurrent applies, balance equals
	// the signed sum of confirmed transactions.
	ctx := context.Background()
	store := NewMemoryStore(10000)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				store.Apply(ctx, models.KindTopUpDirect, 250, "")
			} else {
				store.Apply(ctx, models.KindRedeem, 400, "")
			}
		}(i)
	}
	wg.Wait()

	var sum int64
	for _, tx := range store.Transactions() {
		require.Equal(t, models.StatusConfirmed, tx.Status)
		switch tx.Kind {
		case models.KindRedeem, models.KindPayout:
			sum -= tx.Amount
		default:
			sum += tx.Amount
		}
	}

	balance, err := store.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10000)+sum, balance)
	assert.GreaterOrEqual(t, balance, int64(0))
}

func TestConcurrentTopUpAndRedeem(t *testing.T) {
	// From 500, a top-up of 1000 racing a redemption of 1000 must end at
	// 1500 with the redemption rejected, or 500 with both applied. Never
	// negative, never double-applied.
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		store := NewMemoryStore(500)

		var wg sync.WaitGroup
		var redeemErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Apply(ctx, models.KindTopUpDirect, 1000, "")
		}()
		go func() {
			defer wg.Done()
			_, redeemErr = store.Apply(ctx, models.KindRedeem, 1000, "")
		}()
		wg.Wait()

		balance, err := store.Balance(ctx)
		require.NoError(t, err)
		if redeemErr != nil {
			var insufficient *InsufficientFundsError
			require.ErrorAs(t, redeemErr, &insufficient)
			assert.Equal(t, int64(1500), balance)
			assert.Len(t, store.Transactions(), 1)
		} else {
			assert.Equal(t, int64(500), balance)
			assert.Len(t, store.Transactions(), 2)
		}
	}
}

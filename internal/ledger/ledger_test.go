package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"cinema-booking/internal/ledger"
	"cinema-booking/internal/models"
)

func setupTestLedger(t *testing.T) (*ledger.Ledger, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// SQLite allows a single writer; one connection keeps every goroutine on
	// the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Reservation)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create reservations table: %v", err)
	}

	return ledger.New(bunDB), bunDB
}

func TestReserve(t *testing.T) {
	l, bunDB := setupTestLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	// First reservation wins
	err := l.Reserve(ctx, nil, 1, 7, 100)
	require.NoError(t, err)

	// Second reservation for the same (showing, seat) loses
	err = l.Reserve(ctx, nil, 1, 7, 101)
	assert.ErrorIs(t, err, ledger.ErrSeatConflict)

	// Same seat in a different showing is independent
	err = l.Reserve(ctx, nil, 2, 7, 102)
	assert.NoError(t, err)

	// A different seat in the same showing is independent
	err = l.Reserve(ctx, nil, 1, 8, 103)
	assert.NoError(t, err)
}

func TestReserve_ConcurrentSamePair(t *testing.T) {
	l, bunDB := setupTestLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Reserve(ctx, nil, 5, 42, int64(200+i))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ledger.ErrSeatConflict)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent Reserve must win")

	occupied, err := l.ListOccupied(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, occupied)
}

func TestRelease_Idempotent(t *testing.T) {
	l, bunDB := setupTestLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx, nil, 1, 7, 100))

	// Release frees the seat
	require.NoError(t, l.Release(ctx, 1, 7))
	occupied, err := l.ListOccupied(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, occupied)

	// Releasing again is not an error
	require.NoError(t, l.Release(ctx, 1, 7))

	// The seat can be reserved again
	assert.NoError(t, l.Reserve(ctx, nil, 1, 7, 200))
}

func TestListOccupied(t *testing.T) {
	l, bunDB := setupTestLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	// Empty showing has no occupied seats
	occupied, err := l.ListOccupied(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, occupied)

	require.NoError(t, l.Reserve(ctx, nil, 3, 9, 300))
	require.NoError(t, l.Reserve(ctx, nil, 3, 2, 301))
	require.NoError(t, l.Reserve(ctx, nil, 4, 5, 302))

	occupied, err = l.ListOccupied(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 9}, occupied, "seat ids come back ascending, other showings excluded")
}

func TestSeatsForTickets(t *testing.T) {
	l, bunDB := setupTestLedger(t)
	defer bunDB.Close()
	ctx := context.Background()

	require.NoError(t, l.Reserve(ctx, nil, 1, 10, 400))
	require.NoError(t, l.Reserve(ctx, nil, 1, 11, 401))

	seats, err := l.SeatsForTickets(ctx, []int64{400, 401, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{400: 10, 401: 11}, seats)

	// Released reservations drop out of the mapping
	require.NoError(t, l.Release(ctx, 1, 10))
	seats, err = l.SeatsForTickets(ctx, []int64{400, 401})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{401: 11}, seats)

	// Empty input returns an empty map without touching the database
	seats, err = l.SeatsForTickets(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, seats)
}

package catalog_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"cinema-booking/internal/catalog"
	"cinema-booking/internal/models"
)

func setupTestStore(t *testing.T) (*catalog.Store, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	tables := []interface{}{
		(*models.Cinema)(nil),
		(*models.Auditorium)(nil),
		(*models.Showing)(nil),
		(*models.Seat)(nil),
		(*models.MenuItem)(nil),
		(*models.Discount)(nil),
	}
	for _, table := range tables {
		_, err := bunDB.NewCreateTable().Model(table).Exec(context.Background())
		if err != nil {
			t.Fatalf("Failed to create table for %T: %v", table, err)
		}
	}

	return catalog.NewStore(bunDB), bunDB
}

func TestGetShowing(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()
	ctx := context.Background()

	showing := models.Showing{
		MovieID:      10,
		AuditoriumID: 1,
		StartsAt:     time.Now().Add(24 * time.Hour),
		EndsAt:       time.Now().Add(26 * time.Hour),
		Price:        12.50,
		Status:       "scheduled",
	}
	_, err := bunDB.NewInsert().Model(&showing).Exec(ctx)
	require.NoError(t, err)

	got, err := store.GetShowing(ctx, showing.ID)
	require.NoError(t, err)
	assert.Equal(t, showing.ID, got.ID)
	assert.Equal(t, 12.50, got.Price)

	_, err = store.GetShowing(ctx, 9999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetMenuPrice(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()
	ctx := context.Background()

	items := []models.MenuItem{
		{CinemaID: 1, ItemID: 7, ServingSize: "small", Price: 3.50},
		{CinemaID: 1, ItemID: 7, ServingSize: "large", Price: 5.00},
		{CinemaID: 2, ItemID: 7, ServingSize: "small", Price: 4.00},
	}
	_, err := bunDB.NewInsert().Model(&items).Exec(ctx)
	require.NoError(t, err)

	price, err := store.GetMenuPrice(ctx, 1, 7, "large")
	require.NoError(t, err)
	assert.Equal(t, 5.00, price)

	// The same item at another cinema has its own price
	price, err = store.GetMenuPrice(ctx, 2, 7, "small")
	require.NoError(t, err)
	assert.Equal(t, 4.00, price)

	// Unknown serving size is not on the menu
	_, err = store.GetMenuPrice(ctx, 1, 7, "medium")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetDiscount(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()
	ctx := context.Background()

	discount := models.Discount{Name: "student", Amount: 2.00}
	_, err := bunDB.NewInsert().Model(&discount).Exec(ctx)
	require.NoError(t, err)

	got, err := store.GetDiscount(ctx, discount.ID)
	require.NoError(t, err)
	assert.Equal(t, "student", got.Name)
	assert.Equal(t, 2.00, got.Amount)

	_, err = store.GetDiscount(ctx, 404)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestGetSeats(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()
	ctx := context.Background()

	seats := []models.Seat{
		{AuditoriumID: 1, RowLabel: "B", Number: 2},
		{AuditoriumID: 1, RowLabel: "A", Number: 5},
		{AuditoriumID: 1, RowLabel: "A", Number: 1},
	}
	_, err := bunDB.NewInsert().Model(&seats).Exec(ctx)
	require.NoError(t, err)

	got, err := store.GetSeats(ctx, []int64{seats[0].ID, seats[1].ID, seats[2].ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].RowLabel)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, "A", got[1].RowLabel)
	assert.Equal(t, 5, got[1].Number)
	assert.Equal(t, "B", got[2].RowLabel)

	empty, err := store.GetSeats(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestShowtimesNext7Days(t *testing.T) {
	store, bunDB := setupTestStore(t)
	defer bunDB.Close()
	ctx := context.Background()

	cinemas := []models.Cinema{
		{Name: "Downtown", Address: "1 Main St"},
		{Name: "Riverside", Address: "9 Quay Rd"},
	}
	_, err := bunDB.NewInsert().Model(&cinemas).Exec(ctx)
	require.NoError(t, err)

	auditoriums := []models.Auditorium{
		{CinemaID: cinemas[0].ID, Name: "Screen 1"},
		{CinemaID: cinemas[1].ID, Name: "Screen 1"},
	}
	_, err = bunDB.NewInsert().Model(&auditoriums).Exec(ctx)
	require.NoError(t, err)

	from := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	showings := []models.Showing{
		// Today at Downtown, after the query time but still day 0
		{MovieID: 1, AuditoriumID: auditoriums[0].ID, StartsAt: from.Add(3 * time.Hour), EndsAt: from.Add(5 * time.Hour), Price: 10, Status: "scheduled"},
		// Two days out at Riverside
		{MovieID: 1, AuditoriumID: auditoriums[1].ID, StartsAt: from.AddDate(0, 0, 2), EndsAt: from.AddDate(0, 0, 2).Add(2 * time.Hour), Price: 10, Status: "scheduled"},
		// Outside the window
		{MovieID: 1, AuditoriumID: auditoriums[0].ID, StartsAt: from.AddDate(0, 0, 8), EndsAt: from.AddDate(0, 0, 8).Add(2 * time.Hour), Price: 10, Status: "scheduled"},
		// Another movie
		{MovieID: 2, AuditoriumID: auditoriums[0].ID, StartsAt: from.Add(time.Hour), EndsAt: from.Add(3 * time.Hour), Price: 10, Status: "scheduled"},
	}
	_, err = bunDB.NewInsert().Model(&showings).Exec(ctx)
	require.NoError(t, err)

	days, err := store.ShowtimesNext7Days(ctx, 1, from)
	require.NoError(t, err)
	require.Len(t, days, 7)

	assert.Equal(t, "2026-03-10", days[0].Date)
	require.Len(t, days[0].Cinemas, 2)
	assert.Len(t, days[0].Cinemas[0].Showings, 1, "Downtown screens the movie today")
	assert.Empty(t, days[0].Cinemas[1].Showings)

	assert.Equal(t, "2026-03-12", days[2].Date)
	assert.Empty(t, days[2].Cinemas[0].Showings)
	assert.Len(t, days[2].Cinemas[1].Showings, 1, "Riverside screens it two days out")

	// Days without showings keep the full cinema grid with empty lists
	assert.Empty(t, days[6].Cinemas[0].Showings)
	assert.Empty(t, days[6].Cinemas[1].Showings)
}

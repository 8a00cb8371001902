package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"cinema-booking/internal/models"
)

var ErrNotFound = errors.New("catalog entry not found")

// Store answers the booking core's read-only lookups against the catalog
// tables: showings, seats, menus, discounts. Writes to those tables happen
// through the generic admin endpoints outside this service.
type Store struct {
	DB *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{DB: db}
}

// GetShowing resolves a showing by id, returning ErrNotFound when absent.
func (s *Store) GetShowing(ctx context.Context, id int64) (*models.Showing, error) {
	var showing models.Showing
	err := s.DB.NewSelect().
		Model(&showing).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &showing, nil
}

// GetMenuPrice resolves the current price of one (item, serving size) at a
// cinema. ErrNotFound means the selection does not exist on that cinema's
// menu.
func (s *Store) GetMenuPrice(ctx context.Context, cinemaID, itemID int64, servingSize string) (float64, error) {
	var item models.MenuItem
	err := s.DB.NewSelect().
		Model(&item).
		Where("cinema_id = ?", cinemaID).
		Where("item_id = ?", itemID).
		Where("serving_size = ?", servingSize).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return item.Price, nil
}

// GetDiscount resolves a discount by id, returning ErrNotFound when absent.
func (s *Store) GetDiscount(ctx context.Context, id int64) (*models.Discount, error) {
	var discount models.Discount
	err := s.DB.NewSelect().
		Model(&discount).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// GetSeats loads seats by id, ordered by row label then number for
// deterministic output.
func (s *Store) GetSeats(ctx context.Context, ids []int64) ([]models.Seat, error) {
	if len(ids) == 0 {
		return []models.Seat{}, nil
	}
	var seats []models.Seat
	err := s.DB.NewSelect().
		Model(&seats).
		Where("id IN (?)", bun.In(ids)).
		Order("row_label ASC", "number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

// ShowtimesNext7Days buckets a movie's showings by day for the next seven
// days starting at from, each day listing the cinemas screening it. Days and
// cinemas without showings are still present with empty lists so the client
// can render a stable grid.
func (s *Store) ShowtimesNext7Days(ctx context.Context, movieID int64, from time.Time) ([]models.ShowtimesOfDay, error) {
	var cinemas []models.Cinema
	if err := s.DB.NewSelect().Model(&cinemas).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}

	var auditoriums []models.Auditorium
	if err := s.DB.NewSelect().Model(&auditoriums).Scan(ctx); err != nil {
		return nil, err
	}
	cinemaOfAuditorium := make(map[int64]int64, len(auditoriums))
	for _, a := range auditoriums {
		cinemaOfAuditorium[a.ID] = a.CinemaID
	}

	windowStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	windowEnd := windowStart.AddDate(0, 0, 7)

	var showings []models.Showing
	err := s.DB.NewSelect().
		Model(&showings).
		Where("movie_id = ?", movieID).
		Where("starts_at >= ?", windowStart).
		Where("starts_at < ?", windowEnd).
		Order("starts_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	days := make([]models.ShowtimesOfDay, 7)
	for d := 0; d < 7; d++ {
		day := windowStart.AddDate(0, 0, d)
		bucket := models.ShowtimesOfDay{
			Date:    day.Format("2006-01-02"),
			Cinemas: make([]models.ShowtimesOfCinema, len(cinemas)),
		}
		for i, c := range cinemas {
			bucket.Cinemas[i] = models.ShowtimesOfCinema{Cinema: c, Showings: []models.Showing{}}
		}
		days[d] = bucket
	}

	cinemaIndex := make(map[int64]int, len(cinemas))
	for i, c := range cinemas {
		cinemaIndex[c.ID] = i
	}
	for _, sh := range showings {
		dayIdx := int(sh.StartsAt.Sub(windowStart).Hours() / 24)
		if dayIdx < 0 || dayIdx > 6 {
			continue
		}
		cinemaID, ok := cinemaOfAuditorium[sh.AuditoriumID]
		if !ok {
			continue
		}
		idx, ok := cinemaIndex[cinemaID]
		if !ok {
			continue
		}
		days[dayIdx].Cinemas[idx].Showings = append(days[dayIdx].Cinemas[idx].Showings, sh)
	}
	return days, nil
}

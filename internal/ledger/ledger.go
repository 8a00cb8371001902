package ledger

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"cinema-booking/internal/models"
)

// ErrSeatConflict means the (showing, seat) pair is already reserved. It is
// a business outcome, not a transient fault: callers surface it instead of
// retrying.
var ErrSeatConflict = errors.New("seat already reserved for this showing")

// Ledger is the authoritative record of which seat, in which showing, is
// attached to which ticket. Mutual exclusion comes from the reservations
// table itself: the composite primary key on (showing_id, seat_id) plus an
// insert-if-absent makes exactly one concurrent Reserve win, across any
// number of service instances. Unrelated seats never contend.
type Ledger struct {
	DB *bun.DB
}

func New(db *bun.DB) *Ledger {
	return &Ledger{DB: db}
}

// Reserve binds the seat to the ticket if and only if no reservation for
// (showingID, seatID) exists. idb is usually the booking transaction, so a
// rollback discards the binding together with the rest of the bill; pass
// nil to reserve outside a transaction.
func (l *Ledger) Reserve(ctx context.Context, idb bun.IDB, showingID, seatID, ticketID int64) error {
	if idb == nil {
		idb = l.DB
	}
	reservation := models.Reservation{
		ShowingID: showingID,
		SeatID:    seatID,
		TicketID:  ticketID,
	}
	res, err := idb.NewInsert().
		Model(&reservation).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSeatConflict
	}
	return nil
}

// Release removes the reservation for (showingID, seatID). It is idempotent:
// releasing a seat that holds no reservation is not an error.
func (l *Ledger) Release(ctx context.Context, showingID, seatID int64) error {
	_, err := l.DB.NewDelete().
		Model((*models.Reservation)(nil)).
		Where("showing_id = ?", showingID).
		Where("seat_id = ?", seatID).
		Exec(ctx)
	return err
}

// ListOccupied returns the seat ids with a committed reservation for the
// showing, in ascending order.
func (l *Ledger) ListOccupied(ctx context.Context, showingID int64) ([]int64, error) {
	var seatIDs []int64
	err := l.DB.NewSelect().
		Model((*models.Reservation)(nil)).
		Column("seat_id").
		Where("showing_id = ?", showingID).
		Order("seat_id ASC").
		Scan(ctx, &seatIDs)
	if err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// SeatsForTickets maps ticket id to reserved seat id. Tickets whose
// reservation was released are absent from the result.
func (l *Ledger) SeatsForTickets(ctx context.Context, ticketIDs []int64) (map[int64]int64, error) {
	seats := make(map[int64]int64, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return seats, nil
	}
	var reservations []models.Reservation
	err := l.DB.NewSelect().
		Model(&reservations).
		Where("ticket_id IN (?)", bun.In(ticketIDs)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range reservations {
		seats[r.TicketID] = r.SeatID
	}
	return seats, nil
}

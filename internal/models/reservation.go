package models

import "github.com/uptrace/bun"

// Reservation binds one seat, for one showing, to exactly one ticket.
// The (showing_id, seat_id) composite primary key is what makes double
// booking impossible: a second insert for the same pair hits the key and
// affects zero rows.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ShowingID int64 `bun:"showing_id,pk" json:"showing_id"`
	SeatID    int64 `bun:"seat_id,pk" json:"seat_id"`
	TicketID  int64 `bun:"ticket_id,notnull" json:"ticket_id"`
}

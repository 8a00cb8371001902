package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Bill is the root of one booking. Tickets, orders and reservations hang off
// it; they are written together in one transaction or not at all.
type Bill struct {
	bun.BaseModel `bun:"table:bills"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	DiscountID *int64    `bun:"discount_id,nullzero" json:"discount_id,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

// MenuSelection is one concession line of a checkout request.
type MenuSelection struct {
	ItemID      int64  `json:"item_id"`
	ServingSize string `json:"serving_size"`
}

// BillRequest is the checkout payload.
type BillRequest struct {
	UserID     int64           `json:"user_id"`
	DiscountID *int64          `json:"discount_id,omitempty"`
	ShowingID  int64           `json:"showing_id"`
	CinemaID   int64           `json:"cinema_id"`
	SeatIDs    []int64         `json:"seat_ids"`
	Menus      []MenuSelection `json:"menus,omitempty"`
}

// BillResponse acknowledges a placed booking.
type BillResponse struct {
	BillID int64 `json:"bill_id"`
}

// BookingSummary is the read-only reconstruction of a past booking. Subtotals
// come from the prices stored at booking time.
type BookingSummary struct {
	BillID      int64     `json:"bill_id"`
	UserID      int64     `json:"user_id"`
	Discount    *Discount `json:"discount,omitempty"`
	Showing     *Showing  `json:"showing,omitempty"`
	Seats       []Seat    `json:"seats"`
	TicketsCost float64   `json:"tickets_cost"`
	OrdersCost  float64   `json:"orders_cost"`
}

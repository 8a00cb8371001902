package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Catalog entities are read-only to the booking core. They are created and
// maintained through the generic admin endpoints, which live outside this
// service.

type Cinema struct {
	bun.BaseModel `bun:"table:cinemas"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull" json:"name"`
	Address string `bun:"address" json:"address"`
}

type Auditorium struct {
	bun.BaseModel `bun:"table:auditoriums"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	CinemaID int64  `bun:"cinema_id,notnull" json:"cinema_id"`
	Name     string `bun:"name,notnull" json:"name"`
}

// Showing schedules a movie in an auditorium with a time window and a unit
// seat price. Immutable once created as far as the booking core is concerned.
type Showing struct {
	bun.BaseModel `bun:"table:showings"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	MovieID      int64     `bun:"movie_id,notnull" json:"movie_id"`
	AuditoriumID int64     `bun:"auditorium_id,notnull" json:"auditorium_id"`
	StartsAt     time.Time `bun:"starts_at,notnull" json:"starts_at"`
	EndsAt       time.Time `bun:"ends_at,notnull" json:"ends_at"`
	Price        float64   `bun:"price,notnull" json:"price"`
	Status       string    `bun:"status,notnull,default:'scheduled'" json:"status"`
}

// Seat has a stable identity within an auditorium and no booking state of
// its own; availability is derived from the reservations table.
type Seat struct {
	bun.BaseModel `bun:"table:seats"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	AuditoriumID int64  `bun:"auditorium_id,notnull" json:"auditorium_id"`
	RowLabel     string `bun:"row_label,notnull" json:"row_label"`
	Number       int    `bun:"number,notnull" json:"number"`
}

// MenuItem prices one food or drink item, in one serving size, at one cinema.
type MenuItem struct {
	bun.BaseModel `bun:"table:menus"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	CinemaID    int64   `bun:"cinema_id,notnull" json:"cinema_id"`
	ItemID      int64   `bun:"item_id,notnull" json:"item_id"`
	ServingSize string  `bun:"serving_size,notnull" json:"serving_size"`
	Price       float64 `bun:"price,notnull" json:"price"`
}

// Discount is an opaque priced entity; the core only stores the reference on
// the bill and echoes the amount back on reconstruction.
type Discount struct {
	bun.BaseModel `bun:"table:discounts"`

	ID     int64   `bun:"id,pk,autoincrement" json:"id"`
	Name   string  `bun:"name,notnull" json:"name"`
	Amount float64 `bun:"amount,notnull" json:"amount"`
}

// ShowtimesOfCinema groups a cinema's showings of a movie on one day, for
// the browse endpoint.
type ShowtimesOfCinema struct {
	Cinema   Cinema    `json:"cinema"`
	Showings []Showing `json:"showings"`
}

// ShowtimesOfDay is one day bucket of the seven-day browse window.
type ShowtimesOfDay struct {
	Date    string              `json:"date"`
	Cinemas []ShowtimesOfCinema `json:"cinemas"`
}

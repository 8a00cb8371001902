package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one admission for one reserved seat. Price is captured from the
// showing at booking time and never recomputed.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	BillID    int64     `bun:"bill_id,notnull" json:"bill_id"`
	ShowingID int64     `bun:"showing_id,notnull" json:"showing_id"`
	Price     float64   `bun:"price,notnull" json:"price"`
	Checked   bool      `bun:"checked,notnull,default:false" json:"checked"`
	QRCode    []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	IssuedAt  time.Time `bun:"issued_at,notnull" json:"issued_at"`
}

package models

import "github.com/uptrace/bun"

// Order is one concession line on a bill: a food or drink item in a serving
// size, priced from the cinema's menu at booking time.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	BillID      int64   `bun:"bill_id,notnull" json:"bill_id"`
	ItemID      int64   `bun:"item_id,notnull" json:"item_id"`
	CinemaID    int64   `bun:"cinema_id,notnull" json:"cinema_id"`
	ServingSize string  `bun:"serving_size,notnull" json:"serving_size"`
	Price       float64 `bun:"price,notnull" json:"price"`
}

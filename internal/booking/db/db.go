package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"cinema-booking/internal/models"
)

// DB is the persistence layer for bills and their children. Multi-write
// operations run inside RunInTx so a bill, its tickets, its orders and the
// underlying reservations become visible atomically or not at all.
type DB struct {
	Bun *bun.DB
}

// RunInTx executes fn inside one database transaction.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// ---------------- BILLS ----------------

// CreateBillTx inserts a bill and populates its generated id.
func (d *DB) CreateBillTx(ctx context.Context, tx bun.Tx, bill *models.Bill) error {
	_, err := tx.NewInsert().Model(bill).Returning("id").Exec(ctx)
	return err
}

// GetBillByID fetches one bill, or ErrNoRows-wrapped error when absent.
func (d *DB) GetBillByID(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	err := d.Bun.NewSelect().
		Model(&bill).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ---------------- TICKETS ----------------

// CreateTicketTx inserts a ticket and populates its generated id.
func (d *DB) CreateTicketTx(ctx context.Context, tx bun.Tx, ticket *models.Ticket) error {
	_, err := tx.NewInsert().Model(ticket).Returning("id").Exec(ctx)
	return err
}

// GetTicketsByBill fetches all tickets owned by a bill, oldest id first.
func (d *DB) GetTicketsByBill(ctx context.Context, billID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("bill_id = ?", billID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicketByID fetches one ticket.
func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// SetTicketQRTx attaches the generated QR image to a ticket. The ticket id
// is only known after insert, so the QR lands in a second statement inside
// the same transaction.
func (d *DB) SetTicketQRTx(ctx context.Context, tx bun.Tx, id int64, qr []byte) error {
	_, err := tx.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("qr_code = ?", qr).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// MarkTicketChecked flips the checked-in flag. The returned bool reports
// whether a row was updated.
func (d *DB) MarkTicketChecked(ctx context.Context, id int64) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("checked = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ---------------- ORDERS ----------------

// CreateOrderTx inserts one concession order line.
func (d *DB) CreateOrderTx(ctx context.Context, tx bun.Tx, order *models.Order) error {
	_, err := tx.NewInsert().Model(order).Returning("id").Exec(ctx)
	return err
}

// GetOrdersByBill fetches all concession orders owned by a bill.
func (d *DB) GetOrdersByBill(ctx context.Context, billID int64) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("bill_id = ?", billID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

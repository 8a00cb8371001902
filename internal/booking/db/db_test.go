package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	bookingdb "cinema-booking/internal/booking/db"
	"cinema-booking/internal/models"
)

func setupTestDB(t *testing.T) (*bookingdb.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	tables := []interface{}{
		(*models.Bill)(nil),
		(*models.Ticket)(nil),
		(*models.Order)(nil),
	}
	for _, table := range tables {
		_, err := bunDB.NewCreateTable().Model(table).Exec(context.Background())
		if err != nil {
			t.Fatalf("Failed to create table for %T: %v", table, err)
		}
	}

	return &bookingdb.DB{Bun: bunDB}, bunDB
}

func TestCreateBillAndChildren(t *testing.T) {
	database, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	var billID int64
	err := database.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		bill := models.Bill{UserID: 42, CreatedAt: time.Now().UTC()}
		if err := database.CreateBillTx(ctx, tx, &bill); err != nil {
			return err
		}
		require.NotZero(t, bill.ID, "insert must populate the generated id")
		billID = bill.ID

		for i := 0; i < 2; i++ {
			ticket := models.Ticket{BillID: bill.ID, ShowingID: 1, Price: 9.50, IssuedAt: time.Now().UTC()}
			if err := database.CreateTicketTx(ctx, tx, &ticket); err != nil {
				return err
			}
			require.NotZero(t, ticket.ID)
		}
		order := models.Order{BillID: bill.ID, ItemID: 3, CinemaID: 1, ServingSize: "large", Price: 5.00}
		return database.CreateOrderTx(ctx, tx, &order)
	})
	require.NoError(t, err)

	bill, err := database.GetBillByID(ctx, billID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bill.UserID)

	tickets, err := database.GetTicketsByBill(ctx, billID)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
	assert.Equal(t, 9.50, tickets[0].Price)

	orders, err := database.GetOrdersByBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "large", orders[0].ServingSize)
}

func TestRunInTx_Rollback(t *testing.T) {
	database, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err := database.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		bill := models.Bill{UserID: 42, CreatedAt: time.Now().UTC()}
		if err := database.CreateBillTx(ctx, tx, &bill); err != nil {
			return err
		}
		ticket := models.Ticket{BillID: bill.ID, ShowingID: 1, Price: 9.50, IssuedAt: time.Now().UTC()}
		if err := database.CreateTicketTx(ctx, tx, &ticket); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := bunDB.NewSelect().Model((*models.Bill)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rolled back bill must not persist")

	count, err = bunDB.NewSelect().Model((*models.Ticket)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "rolled back tickets must not persist")
}

func TestGetBillByID_NotFound(t *testing.T) {
	database, bunDB := setupTestDB(t)
	defer bunDB.Close()

	_, err := database.GetBillByID(context.Background(), 12345)
	require.Error(t, err)
	assert.True(t, bookingdb.IsNotFound(err))
}

func TestSetTicketQR(t *testing.T) {
	database, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	var ticketID int64
	err := database.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ticket := models.Ticket{BillID: 1, ShowingID: 1, Price: 9.50, IssuedAt: time.Now().UTC()}
		if err := database.CreateTicketTx(ctx, tx, &ticket); err != nil {
			return err
		}
		ticketID = ticket.ID
		return database.SetTicketQRTx(ctx, tx, ticket.ID, []byte{0x89, 0x50, 0x4e, 0x47})
	})
	require.NoError(t, err)

	ticket, err := database.GetTicketByID(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, ticket.QRCode)
}

func TestMarkTicketChecked(t *testing.T) {
	database, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	var ticketID int64
	err := database.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ticket := models.Ticket{BillID: 1, ShowingID: 1, Price: 9.50, IssuedAt: time.Now().UTC()}
		if err := database.CreateTicketTx(ctx, tx, &ticket); err != nil {
			return err
		}
		ticketID = ticket.ID
		return nil
	})
	require.NoError(t, err)

	checked, err := database.MarkTicketChecked(ctx, ticketID)
	require.NoError(t, err)
	assert.True(t, checked)

	ticket, err := database.GetTicketByID(ctx, ticketID)
	require.NoError(t, err)
	assert.True(t, ticket.Checked)

	checked, err = database.MarkTicketChecked(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, checked, "unknown ticket updates no rows")
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"cinema-booking/internal/booking/db"
	"cinema-booking/internal/catalog"
	"cinema-booking/internal/ledger"
	"cinema-booking/internal/logger"
	"cinema-booking/internal/models"
	"cinema-booking/internal/tickets"
)

// SeatHolds is the redis fast-fail layer in front of the ledger.
type SeatHolds interface {
	HoldSeats(ctx context.Context, showingID int64, seatIDs []int64, token string) (bool, []int64, error)
	ReleaseSeats(ctx context.Context, showingID int64, seatIDs []int64, token string) error
}

// Publisher streams booking lifecycle events. Publishing happens after
// commit and never fails the booking.
type Publisher interface {
	PublishBookingPlaced(bill models.Bill, ticketIDs []int64, total float64) error
	PublishSeatsReserved(showingID int64, seatIDs []int64) error
}

// Service is the booking transaction engine and reconstructor. PlaceBooking
// turns a checkout request into a fully persisted bill or nothing at all;
// LoadBooking rebuilds a past booking from stored prices.
type Service struct {
	DB      *db.DB
	Catalog *catalog.Store
	Ledger  *ledger.Ledger
	Holds   SeatHolds
	Kafka   Publisher
	QR      *tickets.QRGenerator
	Logger  *logger.Logger
}

func NewService(database *db.DB, store *catalog.Store, seatLedger *ledger.Ledger,
	holds SeatHolds, kafka Publisher, qr *tickets.QRGenerator, log *logger.Logger) *Service {
	return &Service{
		DB:      database,
		Catalog: store,
		Ledger:  seatLedger,
		Holds:   holds,
		Kafka:   kafka,
		QR:      qr,
		Logger:  log,
	}
}

// PlaceBooking runs one checkout:
//
//  1. validate shape and capture point-in-time prices, before any write
//  2. take redis holds on the seats, ascending, failing fast on contention
//  3. inside one database transaction: insert the bill, then per seat a
//     ticket priced at the showing's captured price plus its reservation,
//     then the concession orders at their captured prices
//  4. commit, release the holds, publish the event
//
// Any failure rolls the transaction back and releases the holds in reverse,
// so no bill, ticket, order or reservation from this attempt stays visible.
func (s *Service) PlaceBooking(ctx context.Context, req models.BillRequest) (int64, error) {
	if len(req.SeatIDs) == 0 {
		return 0, fmt.Errorf("%w: at least one seat is required", ErrInvalidRequest)
	}

	// Ascending seat order keeps reservation attempts and partial-failure
	// diagnostics deterministic.
	seatIDs := make([]int64, len(req.SeatIDs))
	copy(seatIDs, req.SeatIDs)
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })
	for i := 1; i < len(seatIDs); i++ {
		if seatIDs[i] == seatIDs[i-1] {
			return 0, fmt.Errorf("%w: seat %d is requested twice", ErrInvalidRequest, seatIDs[i])
		}
	}

	showing, err := s.Catalog.GetShowing(ctx, req.ShowingID)
	if errors.Is(err, catalog.ErrNotFound) {
		return 0, ErrShowingNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolve showing: %w", err)
	}

	// Capture every price before the transaction opens. The transaction
	// only ever writes these snapshots, so a catalog price change mid-flight
	// cannot skew a single booking.
	menuPrices := make([]float64, len(req.Menus))
	for i, m := range req.Menus {
		price, err := s.Catalog.GetMenuPrice(ctx, req.CinemaID, m.ItemID, m.ServingSize)
		if errors.Is(err, catalog.ErrNotFound) {
			return 0, fmt.Errorf("%w: item %d (%s) is not on the menu of cinema %d",
				ErrInvalidRequest, m.ItemID, m.ServingSize, req.CinemaID)
		}
		if err != nil {
			return 0, fmt.Errorf("resolve menu price: %w", err)
		}
		menuPrices[i] = price
	}

	if req.DiscountID != nil {
		if _, err := s.Catalog.GetDiscount(ctx, *req.DiscountID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return 0, fmt.Errorf("%w: discount %d does not exist", ErrInvalidRequest, *req.DiscountID)
			}
			return 0, fmt.Errorf("resolve discount: %w", err)
		}
	}

	token := uuid.New().String()
	ok, unavailable, err := s.Holds.HoldSeats(ctx, showing.ID, seatIDs, token)
	if err != nil {
		return 0, fmt.Errorf("seat hold: %w", err)
	}
	if !ok {
		s.Logger.LogLedger("HOLD-MISS", showing.ID, unavailable[0], "seat held by a concurrent checkout")
		return 0, &SeatUnavailableError{SeatID: unavailable[0]}
	}
	// Holds only cover the checkout window; once the transaction has
	// committed or rolled back, the reservations table is authoritative.
	defer func() {
		if err := s.Holds.ReleaseSeats(ctx, showing.ID, seatIDs, token); err != nil {
			s.Logger.Error("LEDGER", fmt.Sprintf("release holds for showing %d: %v", showing.ID, err))
		}
	}()

	bill := models.Bill{
		UserID:     req.UserID,
		DiscountID: req.DiscountID,
		CreatedAt:  time.Now().UTC(),
	}
	ticketIDs := make([]int64, 0, len(seatIDs))
	var total float64

	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := s.DB.CreateBillTx(ctx, tx, &bill); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		for _, seatID := range seatIDs {
			ticket := models.Ticket{
				BillID:    bill.ID,
				ShowingID: showing.ID,
				Price:     showing.Price,
				IssuedAt:  time.Now().UTC(),
			}
			if err := s.DB.CreateTicketTx(ctx, tx, &ticket); err != nil {
				return fmt.Errorf("create ticket for seat %d: %w", seatID, err)
			}
			if err := s.Ledger.Reserve(ctx, tx, showing.ID, seatID, ticket.ID); err != nil {
				if errors.Is(err, ledger.ErrSeatConflict) {
					return &SeatUnavailableError{SeatID: seatID}
				}
				return fmt.Errorf("reserve seat %d: %w", seatID, err)
			}
			if s.QR != nil {
				qr, err := s.QR.Generate(ticket.ID, bill.ID, showing.ID, ticket.IssuedAt)
				if err != nil {
					return fmt.Errorf("generate ticket qr: %w", err)
				}
				if err := s.DB.SetTicketQRTx(ctx, tx, ticket.ID, qr); err != nil {
					return fmt.Errorf("store ticket qr: %w", err)
				}
			}
			ticketIDs = append(ticketIDs, ticket.ID)
			total += showing.Price
		}
		for i, m := range req.Menus {
			order := models.Order{
				BillID:      bill.ID,
				ItemID:      m.ItemID,
				CinemaID:    req.CinemaID,
				ServingSize: m.ServingSize,
				Price:       menuPrices[i],
			}
			if err := s.DB.CreateOrderTx(ctx, tx, &order); err != nil {
				return fmt.Errorf("create order for item %d: %w", m.ItemID, err)
			}
			total += menuPrices[i]
		}
		return nil
	})
	if err != nil {
		var unavailableErr *SeatUnavailableError
		if errors.As(err, &unavailableErr) {
			s.Logger.LogLedger("CONFLICT", showing.ID, unavailableErr.SeatID, "lost the reservation race, booking rolled back")
			return 0, unavailableErr
		}
		return 0, err
	}

	if s.Kafka != nil {
		if err := s.Kafka.PublishBookingPlaced(bill, ticketIDs, total); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish booking placed for bill %d: %v", bill.ID, err))
		}
		if err := s.Kafka.PublishSeatsReserved(showing.ID, seatIDs); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("publish seat status for showing %d: %v", showing.ID, err))
		}
	}
	s.Logger.LogBooking("PLACE", bill.ID, fmt.Sprintf("%d seats, %d orders, total %.2f", len(seatIDs), len(req.Menus), total))
	return bill.ID, nil
}

// LoadBooking rebuilds the read-only view of a past booking. Subtotals are
// summed from the prices stored on tickets and orders at booking time, so a
// later catalog price change never rewrites an old bill. A seat whose
// reservation was released after booking is omitted from the seat list, but
// its ticket stays in the subtotal.
func (s *Service) LoadBooking(ctx context.Context, billID int64) (*models.BookingSummary, error) {
	bill, err := s.DB.GetBillByID(ctx, billID)
	if db.IsNotFound(err) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load bill: %w", err)
	}

	billTickets, err := s.DB.GetTicketsByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	billOrders, err := s.DB.GetOrdersByBill(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	summary := &models.BookingSummary{
		BillID: bill.ID,
		UserID: bill.UserID,
		Seats:  []models.Seat{},
	}
	for _, t := range billTickets {
		summary.TicketsCost += t.Price
	}
	for _, o := range billOrders {
		summary.OrdersCost += o.Price
	}

	if bill.DiscountID != nil {
		discount, err := s.Catalog.GetDiscount(ctx, *bill.DiscountID)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("load discount: %w", err)
		}
		summary.Discount = discount
	}

	if len(billTickets) == 0 {
		return summary, nil
	}

	showing, err := s.Catalog.GetShowing(ctx, billTickets[0].ShowingID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("load showing: %w", err)
	}
	summary.Showing = showing

	ticketIDs := make([]int64, len(billTickets))
	for i, t := range billTickets {
		ticketIDs[i] = t.ID
	}
	seatsByTicket, err := s.Ledger.SeatsForTickets(ctx, ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	seatIDs := make([]int64, 0, len(seatsByTicket))
	for _, t := range billTickets {
		if seatID, ok := seatsByTicket[t.ID]; ok {
			seatIDs = append(seatIDs, seatID)
		}
	}
	seats, err := s.Catalog.GetSeats(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	summary.Seats = seats
	return summary, nil
}

// ListOccupied is the seat-map availability projection for a showing.
func (s *Service) ListOccupied(ctx context.Context, showingID int64) ([]int64, error) {
	return s.Ledger.ListOccupied(ctx, showingID)
}

// CheckInTicket marks a ticket as used at the door.
func (s *Service) CheckInTicket(ctx context.Context, ticketID int64) error {
	checked, err := s.DB.MarkTicketChecked(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("check in ticket %d: %w", ticketID, err)
	}
	if !checked {
		return ErrTicketNotFound
	}
	s.Logger.Info("TICKET", fmt.Sprintf("ticket %d checked in", ticketID))
	return nil
}

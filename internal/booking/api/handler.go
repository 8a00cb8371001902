package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cinema-booking/internal/booking"
	"cinema-booking/internal/catalog"
	"cinema-booking/internal/logger"
	"cinema-booking/internal/models"
	"cinema-booking/internal/utils"
)

// Handler translates the HTTP surface into the two core entry points plus
// the read-only projections. All business decisions stay in the service.
type Handler struct {
	Booking *booking.Service
	Catalog *catalog.Store
	Logger  *logger.Logger
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// PlaceBooking handles POST /api/v1/bills.
func (h *Handler) PlaceBooking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.BillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	billID, err := h.Booking.PlaceBooking(r.Context(), req)
	if err != nil {
		h.writeBookingError(w, err)
		h.Logger.LogAPI(r.Method, r.URL.Path, "error", time.Since(start).String())
		return
	}

	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Booking placed", models.BillResponse{BillID: billID}))
	h.Logger.LogAPI(r.Method, r.URL.Path, strconv.Itoa(http.StatusCreated), time.Since(start).String())
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var unavailable *booking.SeatUnavailableError
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid booking request", err.Error()))
	case errors.Is(err, booking.ErrShowingNotFound):
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Showing not found", err.Error()))
	case errors.As(err, &unavailable):
		h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Seat unavailable", err.Error()))
	default:
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not place booking", err.Error()))
	}
}

// GetBill handles GET /api/v1/bills/{billID}.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid bill id", err.Error()))
		return
	}

	summary, err := h.Booking.LoadBooking(r.Context(), billID)
	if errors.Is(err, booking.ErrBillNotFound) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Bill not found", err.Error()))
		return
	}
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not load booking", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking loaded", summary))
}

// GetOccupiedSeats handles GET /api/v1/showings/{showingID}/seats.
func (h *Handler) GetOccupiedSeats(w http.ResponseWriter, r *http.Request) {
	showingID, err := strconv.ParseInt(chi.URLParam(r, "showingID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid showing id", err.Error()))
		return
	}

	seatIDs, err := h.Booking.ListOccupied(r.Context(), showingID)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not list occupied seats", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Occupied seats", map[string]interface{}{
		"showing_id": showingID,
		"seat_ids":   seatIDs,
	}))
}

// GetShowtimes handles GET /api/v1/showtimes?movie-id=N: the next seven
// days of showings for one movie, bucketed by day and cinema.
func (h *Handler) GetShowtimes(w http.ResponseWriter, r *http.Request) {
	movieID, err := strconv.ParseInt(r.URL.Query().Get("movie-id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid movie id", err.Error()))
		return
	}

	days, err := h.Catalog.ShowtimesNext7Days(r.Context(), movieID, time.Now())
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not list showtimes", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Showtimes", days))
}

// CheckInTicket handles POST /api/v1/tickets/{ticketID}/check-in.
func (h *Handler) CheckInTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid ticket id", err.Error()))
		return
	}

	err = h.Booking.CheckInTicket(r.Context(), ticketID)
	if errors.Is(err, booking.ErrTicketNotFound) {
		h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
		return
	}
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not check in ticket", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Ticket checked in", nil))
}

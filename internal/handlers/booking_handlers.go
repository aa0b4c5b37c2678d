package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/logger"
)

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	session := getSession(r)

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", CodeInvalidInput)
		return
	}

	booking, err := h.bookings.Create(r.Context(), session, &req)
	if err != nil {
		h.writeBookingError(w, r, err, "Failed to create booking")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": booking})
}

func (h *Handlers) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	session := getSession(r)
	limit, offset := parsePagination(r)

	bookings, err := h.bookings.ListForGuest(r.Context(), session, limit, offset, parseStatusFilter(r))
	if err != nil {
		h.writeBookingError(w, r, err, "Failed to list bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	session := getSession(r)

	bookingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || bookingID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid booking id", CodeInvalidInput)
		return
	}

	var req cancelBookingRequest
	// Reason is optional; an empty body is fine.
	_ = json.NewDecoder(r.Body).Decode(&req)

	booking, err := h.bookings.Cancel(r.Context(), session, bookingID, req.Reason)
	if err != nil {
		h.writeBookingError(w, r, err, "Failed to cancel booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}

func (h *Handlers) ListHotelBookings(w http.ResponseWriter, r *http.Request) {
	session := getSession(r)
	limit, offset := parsePagination(r)

	bookings, err := h.bookings.ListForHotel(r.Context(), session, limit, offset, parseStatusFilter(r))
	if err != nil {
		h.writeBookingError(w, r, err, "Failed to list hotel bookings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func (h *Handlers) AcceptBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, domain.BookingAccepted)
}

func (h *Handlers) StartBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, domain.BookingInProgress)
}

func (h *Handlers) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	h.advanceBooking(w, r, domain.BookingCompleted)
}

func (h *Handlers) advanceBooking(w http.ResponseWriter, r *http.Request, to domain.BookingStatus) {
	session := getSession(r)

	bookingID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || bookingID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid booking id", CodeInvalidInput)
		return
	}

	booking, err := h.bookings.Advance(r.Context(), session, bookingID, to)
	if err != nil {
		h.writeBookingError(w, r, err, "Failed to update booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": booking})
}

func (h *Handlers) writeBookingError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Booking not found", CodeNotFound)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "You cannot modify this booking", CodeForbidden)
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Booking is not in a state that allows this change", CodeConflict)
	case strings.Contains(err.Error(), "validation failed"):
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
	default:
		logger.ErrorContext(r.Context(), fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback, CodeInternalError)
	}
}

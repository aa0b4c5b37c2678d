package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/logger"
)

// ListHotels backs the manual-selection path of the registration form.
func (h *Handlers) ListHotels(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	hotels, err := h.hotels.ListActive(r.Context(), limit, offset)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list hotels", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list hotels", CodeInternalError)
		return
	}

	infos := make([]*domain.HotelInfo, 0, len(hotels))
	for i := range hotels {
		infos = append(infos, hotels[i].ToHotelInfo())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"hotels": infos})
}

// CreateHotel registers a hotel and issues its first QR token.
func (h *Handlers) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateHotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", CodeInvalidInput)
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		return
	}

	hotel, err := h.hotels.Create(r.Context(), &req)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to create hotel", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create hotel", CodeInternalError)
		return
	}

	if _, _, err := h.tokens.Regenerate(r.Context(), hotel.ID); err != nil {
		logger.WarnContext(r.Context(), "Failed to issue initial hotel token", "error", err, "hotel_id", hotel.ID)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"hotel": hotel.ToHotelInfo()})
}

// RegenerateToken supersedes the hotel's current QR token.
func (h *Handlers) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := h.authorizedHotelID(w, r)
	if !ok {
		return
	}

	token, expiresAt, err := h.tokens.Regenerate(r.Context(), hotelID)
	if err != nil {
		if errors.Is(err, service.ErrHotelNotFound) {
			writeError(w, http.StatusNotFound, "Hotel not found", CodeNotFound)
			return
		}
		logger.ErrorContext(r.Context(), "Failed to regenerate hotel token", "error", err, "hotel_id", hotelID)
		writeError(w, http.StatusInternalServerError, "Failed to regenerate token", CodeInternalError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// DownloadQR streams the hotel's current QR code as a PNG at the
// requested pixel size.
func (h *Handlers) DownloadQR(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := h.authorizedHotelID(w, r)
	if !ok {
		return
	}

	size := h.config.QR.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be a number", CodeInvalidInput)
			return
		}
		size = n
	}

	png, err := h.tokens.CurrentPNG(r.Context(), hotelID, size)
	if err != nil {
		if errors.Is(err, service.ErrHotelNotFound) {
			writeError(w, http.StatusNotFound, "Hotel not found", CodeNotFound)
			return
		}
		logger.ErrorContext(r.Context(), "Failed to render hotel QR", "error", err, "hotel_id", hotelID)
		writeError(w, http.StatusInternalServerError, "Failed to render QR code", CodeInternalError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="hotel-%d-qr.png"`, hotelID))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// authorizedHotelID parses the {id} route param and checks the caller
// administers that hotel. Super admins may act on any hotel.
func (h *Handlers) authorizedHotelID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	hotelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || hotelID <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid hotel id", CodeInvalidInput)
		return 0, false
	}

	session := getSession(r)
	if session == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required", CodeUnauthorized)
		return 0, false
	}
	if session.Role != domain.RoleSuperAdmin && session.HotelID != hotelID {
		writeError(w, http.StatusForbidden, "You do not manage this hotel", CodeForbidden)
		return 0, false
	}

	return hotelID, true
}

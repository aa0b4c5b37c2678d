package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/staylink/guestgate/internal/qrtoken"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/logger"
)

type validateTokenRequest struct {
	Token string `json:"token"`
}

type validateTokenResponse struct {
	Token string      `json:"token"`
	Hotel interface{} `json:"hotel"`
}

// ValidateToken resolves a scanned payload or bare token to the
// issuing hotel. Safe against arbitrary attacker-supplied strings.
func (h *Handlers) ValidateToken(w http.ResponseWriter, r *http.Request) {
	var req validateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", CodeInvalidInput)
		return
	}

	token, err := qrtoken.ExtractToken(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Scanned code is not a hotel registration code", CodeInvalidInput)
		return
	}

	resolution, err := h.tokens.Validate(r.Context(), token)
	if err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateTokenResponse{Token: token, Hotel: resolution})
}

// DecodeImage accepts an uploaded QR photo, decodes it and chains into
// validation. The upload path of the scanner.
func (h *Handlers) DecodeImage(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.config.QR.MaxImageKB) * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large", CodeInvalidInput)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "An image file is required", CodeInvalidInput)
		return
	}
	defer file.Close()

	payload, err := qrtoken.DecodeImage(file)
	if err != nil {
		switch {
		case errors.Is(err, qrtoken.ErrNoQRCode):
			writeError(w, http.StatusUnprocessableEntity, "No QR code found in the image", CodeNoQRCode)
		default:
			writeError(w, http.StatusBadRequest, "Could not read the image", CodeDecodeFailed)
		}
		return
	}

	token, err := qrtoken.ExtractToken(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Scanned code is not a hotel registration code", CodeInvalidInput)
		return
	}

	resolution, err := h.tokens.Validate(r.Context(), token)
	if err != nil {
		h.writeTokenError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateTokenResponse{Token: token, Hotel: resolution})
}

func (h *Handlers) writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, qrtoken.ErrExpired):
		writeError(w, http.StatusUnauthorized, "This QR code has expired. Ask the front desk for a new one.", CodeExpiredToken)
	case errors.Is(err, service.ErrHotelNotFound):
		writeError(w, http.StatusNotFound, "This hotel is no longer available", CodeNotFound)
	case errors.Is(err, qrtoken.ErrInvalid):
		writeError(w, http.StatusUnauthorized, "Invalid QR code", CodeInvalidToken)
	default:
		logger.ErrorContext(r.Context(), "Token validation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong", CodeInternalError)
	}
}

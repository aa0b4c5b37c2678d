package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/logger"
)

// Register creates a guest account bound to a hotel stay and
// establishes a session in the same round trip.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", CodeInvalidInput)
		return
	}

	user, err := h.registration.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			writeError(w, http.StatusConflict, "An account with this email already exists", CodeEmailExists)
		case errors.Is(err, service.ErrHotelNotFound):
			writeError(w, http.StatusUnprocessableEntity, "Selected hotel is not available", CodeNotFound)
		case strings.Contains(err.Error(), "validation failed"):
			writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		default:
			logger.ErrorContext(r.Context(), "Registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to register", CodeInternalError)
		}
		return
	}

	session, token, err := h.auth.EstablishSession(user)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to establish session after registration", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Registered but failed to sign in", CodeInternalError)
		return
	}

	h.setSessionCookie(w, token, session.ExpiresAt)
	writeJSON(w, http.StatusCreated, domain.SessionResponse{
		Session: session,
		User:    user.ToUserInfo(),
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", CodeInvalidInput)
		return
	}

	session, token, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password", CodeUnauthorized)
		case errors.Is(err, service.ErrRoleMismatch):
			writeError(w, http.StatusForbidden, "This account cannot sign in to the requested portal", CodeRoleMismatch)
		case strings.Contains(err.Error(), "validation failed"):
			writeError(w, http.StatusBadRequest, err.Error(), CodeInvalidInput)
		default:
			logger.ErrorContext(r.Context(), "Login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to sign in", CodeInternalError)
		}
		return
	}

	h.setSessionCookie(w, token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, domain.SessionResponse{Session: session})
}

// Session re-validates the cookie on page load. A missing or invalid
// session is a plain 401; clients treat it as logged out, not as an
// error to surface.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.auth.SessionFromToken(sessionTokenFromRequest(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not signed in", CodeUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, domain.SessionResponse{Session: session})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *Handlers) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required", CodeInvalidInput)
		return
	}

	user, err := h.registration.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, service.ErrVerifyToken) {
			writeError(w, http.StatusUnauthorized, "Invalid or expired verification token", CodeInvalidToken)
			return
		}
		logger.ErrorContext(r.Context(), "Email verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to verify email", CodeInternalError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user.ToUserInfo()})
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required", CodeInvalidInput)
		return
	}

	if err := h.registration.ResendVerification(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		logger.ErrorContext(r.Context(), "Resend verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to resend verification", CodeInternalError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

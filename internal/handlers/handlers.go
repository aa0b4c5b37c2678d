package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/config"
	"github.com/staylink/guestgate/pkg/logger"
)

type Handlers struct {
	tokens       service.TokenService
	registration service.RegistrationService
	auth         service.AuthService
	bookings     service.BookingService
	hotels       repository.HotelRepository
	rateLimit    repository.RateLimitRepository
	config       *config.Config
}

func New(
	tokens service.TokenService,
	registration service.RegistrationService,
	auth service.AuthService,
	bookings service.BookingService,
	hotels repository.HotelRepository,
	rateLimit repository.RateLimitRepository,
	config *config.Config,
) *Handlers {
	return &Handlers{
		tokens:       tokens,
		registration: registration,
		auth:         auth,
		bookings:     bookings,
		hotels:       hotels,
		rateLimit:    rateLimit,
		config:       config,
	}
}

// Error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"
	CodeExpiredToken  = "EXPIRED_TOKEN"
	CodeInvalidToken  = "INVALID_TOKEN"
	CodeRoleMismatch  = "ROLE_MISMATCH"
	CodeEmailExists   = "EMAIL_EXISTS"
	CodeDecodeFailed  = "DECODE_FAILED"
	CodeNoQRCode      = "NO_QR_CODE"
)

const sessionCookie = "gg_session"

type ctxKey string

const ctxSession ctxKey = "session"

// RequireRole authenticates the session cookie (bearer header
// accepted as fallback) and enforces role membership. Super admins
// pass every role gate.
func (h *Handlers) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := h.auth.SessionFromToken(sessionTokenFromRequest(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required", CodeUnauthorized)
				return
			}

			if len(roles) > 0 && session.Role != domain.RoleSuperAdmin {
				allowed := false
				for _, role := range roles {
					if session.Role == role {
						allowed = true
						break
					}
				}
				if !allowed {
					writeError(w, http.StatusForbidden, "Insufficient permissions", CodeForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, session.UserID)
			ctx = context.WithValue(ctx, ctxSession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimited caps requests per client IP on sensitive endpoints.
func (h *Handlers) RateLimited(requests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Path + ":" + getClientIP(r)

			allowed, err := h.rateLimit.Allow(r.Context(), key, requests, window)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
				// Allow request on error (fail open)
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", CodeRateLimit)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Helper functions

func getSession(r *http.Request) *domain.Session {
	if session, ok := r.Context().Value(ctxSession).(*domain.Session); ok {
		return session
	}
	return nil
}

func sessionTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return ""
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	response := map[string]string{
		"error": message,
		"code":  code,
	}
	writeJSON(w, statusCode, response)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

func parseStatusFilter(r *http.Request) *domain.BookingStatus {
	if v := r.URL.Query().Get("status"); v != "" {
		if status, ok := domain.ParseBookingStatus(v); ok {
			return &status
		}
	}
	return nil
}

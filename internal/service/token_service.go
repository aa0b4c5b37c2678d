package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/qrtoken"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/pkg/config"
	"github.com/staylink/guestgate/pkg/events"
	"github.com/staylink/guestgate/pkg/logger"
)

// TokenService owns the hotel QR token lifecycle: issue, regenerate,
// render and validate. One active token per hotel; regeneration
// supersedes the previous token in a single write.
type TokenService interface {
	Regenerate(ctx context.Context, hotelID int64) (token string, expiresAt time.Time, err error)
	Validate(ctx context.Context, token string) (*domain.TokenResolution, error)
	// CurrentPNG renders the hotel's current token as a QR PNG at the
	// requested pixel size, issuing a fresh token when none is active.
	CurrentPNG(ctx context.Context, hotelID int64, size int) ([]byte, error)
}

type tokenService struct {
	hotels   repository.HotelRepository
	eventBus events.Publisher
	config   *config.Config
}

func NewTokenService(hotels repository.HotelRepository, eventBus events.Publisher, config *config.Config) TokenService {
	return &tokenService{
		hotels:   hotels,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *tokenService) Regenerate(ctx context.Context, hotelID int64) (string, time.Time, error) {
	hotel, err := s.hotels.FindByID(ctx, hotelID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load hotel: %w", err)
	}
	if hotel == nil || !hotel.Active {
		return "", time.Time{}, ErrHotelNotFound
	}

	token, expiresAt, err := qrtoken.Sign(hotelID, s.config.Auth.JWTSecret, s.config.QR.TokenTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign hotel token: %w", err)
	}

	if err := s.hotels.UpdateToken(ctx, hotelID, token, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store hotel token: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.HotelTokenRegenerated, events.HotelTokenRegeneratedEvent{
		HotelID:       hotelID,
		ExpiresAt:     expiresAt,
		RegeneratedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish token regeneration event", "error", err, "hotel_id", hotelID)
	}

	return token, expiresAt, nil
}

func (s *tokenService) Validate(ctx context.Context, token string) (*domain.TokenResolution, error) {
	claims, err := qrtoken.Verify(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	hotel, err := s.hotels.FindByID(ctx, claims.HotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel: %w", err)
	}
	if hotel == nil || !hotel.Active {
		return nil, ErrHotelNotFound
	}

	// Only the stored current token validates; a regenerated hotel
	// rejects every earlier token even if its signature still checks.
	if hotel.QRToken != token {
		return nil, qrtoken.ErrInvalid
	}

	return &domain.TokenResolution{
		HotelID:   hotel.ID,
		HotelName: hotel.Name,
		Address:   hotel.Address,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *tokenService) CurrentPNG(ctx context.Context, hotelID int64, size int) ([]byte, error) {
	hotel, err := s.hotels.FindByID(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel: %w", err)
	}
	if hotel == nil || !hotel.Active {
		return nil, ErrHotelNotFound
	}

	token := hotel.QRToken
	if token == "" || hotel.QRTokenExpires == nil || time.Now().After(*hotel.QRTokenExpires) {
		token, _, err = s.Regenerate(ctx, hotelID)
		if err != nil {
			return nil, err
		}
	}

	return qrtoken.EncodePNG(s.registrationURL(token), size)
}

func (s *tokenService) registrationURL(token string) string {
	return fmt.Sprintf("%s/register?qr=%s", s.config.Server.BaseURL, token)
}

// IsTokenError reports whether err belongs to the token failure
// taxonomy rather than an infrastructure fault.
func IsTokenError(err error) bool {
	return errors.Is(err, qrtoken.ErrInvalid) ||
		errors.Is(err, qrtoken.ErrExpired) ||
		errors.Is(err, ErrHotelNotFound)
}

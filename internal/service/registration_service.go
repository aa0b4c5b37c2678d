package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/mailer"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/pkg/config"
	"github.com/staylink/guestgate/pkg/events"
	"github.com/staylink/guestgate/pkg/logger"
)

type RegistrationService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendVerification(ctx context.Context, email string) error
}

type registrationService struct {
	users      repository.UserRepository
	hotels     repository.HotelRepository
	verifyRepo repository.VerifyRepository
	mailer     mailer.Service
	eventBus   events.Publisher
	config     *config.Config
}

func NewRegistrationService(
	users repository.UserRepository,
	hotels repository.HotelRepository,
	verifyRepo repository.VerifyRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) RegistrationService {
	return &registrationService{
		users:      users,
		hotels:     hotels,
		verifyRepo: verifyRepo,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
	}
}

func (s *registrationService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	// Field validation happens before any network or storage work.
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	hotel, err := s.hotels.FindByID(ctx, req.HotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to check hotel: %w", err)
	}
	if hotel == nil || !hotel.Active {
		return nil, ErrHotelNotFound
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateGuest(ctx, req, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verifyToken := uuid.NewString()
	expiresAt := time.Now().Add(s.config.Auth.EmailVerificationTTL)

	if err := s.verifyRepo.CreateEmailVerification(ctx, user.ID, verifyToken, expiresAt); err != nil {
		logger.ErrorContext(ctx, "Failed to create email verification token", "error", err, "user_id", user.ID)
	} else {
		verifyURL := s.buildVerificationURL(verifyToken)
		if err := s.mailer.SendVerificationEmail(user.Email, user.Name, verifyURL, verifyToken); err != nil {
			logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
			// Don't fail registration if email fails
		}
	}

	if err := s.eventBus.Publish(ctx, events.GuestRegistered, events.GuestRegisteredEvent{
		UserID:     user.ID,
		HotelID:    user.HotelID,
		Email:      user.Email,
		RoomNumber: user.RoomNumber,
		QRBased:    req.QRBased,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		CreatedAt:  user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *registrationService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.verifyRepo.ConsumeEmailVerification(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if userID == 0 {
		return nil, ErrVerifyToken
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get verified user: %w", err)
	}
	if user == nil {
		// Account removed after the token was consumed.
		return nil, ErrVerifyToken
	}

	if err := s.eventBus.Publish(ctx, events.EmailVerified, events.EmailVerifiedEvent{
		UserID:     userID,
		Email:      user.Email,
		VerifiedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish verification event", "error", err, "user_id", userID)
	}

	return user, nil
}

func (s *registrationService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal if user exists or not
		return nil
	}

	if user.IsVerified {
		return fmt.Errorf("account is already verified")
	}

	verifyToken := uuid.NewString()
	expiresAt := time.Now().Add(s.config.Auth.EmailVerificationTTL)

	if err := s.verifyRepo.CreateEmailVerification(ctx, user.ID, verifyToken, expiresAt); err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := s.buildVerificationURL(verifyToken)
	if err := s.mailer.SendVerificationEmail(user.Email, user.Name, verifyURL, verifyToken); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (s *registrationService) buildVerificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email?token=%s", s.config.Server.BaseURL, token)
}

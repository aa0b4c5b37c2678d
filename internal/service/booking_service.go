package service

import (
	"context"
	"fmt"
	"time"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/pkg/events"
	"github.com/staylink/guestgate/pkg/logger"
)

type BookingService interface {
	Create(ctx context.Context, guest *domain.Session, req *domain.CreateBookingRequest) (*domain.Booking, error)
	ListForGuest(ctx context.Context, guest *domain.Session, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	Cancel(ctx context.Context, guest *domain.Session, bookingID int64, reason string) (*domain.Booking, error)
	ListForHotel(ctx context.Context, provider *domain.Session, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	Advance(ctx context.Context, provider *domain.Session, bookingID int64, to domain.BookingStatus) (*domain.Booking, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	eventBus events.Publisher
}

func NewBookingService(bookings repository.BookingRepository, eventBus events.Publisher) BookingService {
	return &bookingService{
		bookings: bookings,
		eventBus: eventBus,
	}
}

func (s *bookingService) Create(ctx context.Context, guest *domain.Session, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	booking, err := s.bookings.Create(ctx, guest.HotelID, guest.UserID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:   booking.ID,
		HotelID:     booking.HotelID,
		GuestID:     booking.GuestID,
		ServiceType: string(booking.ServiceType),
		ScheduledAt: booking.ScheduledAt,
		CreatedAt:   booking.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

func (s *bookingService) ListForGuest(ctx context.Context, guest *domain.Session, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByGuest(ctx, guest.UserID, limit, offset, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) Cancel(ctx context.Context, guest *domain.Session, bookingID int64, reason string) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.GuestID != guest.UserID {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransition(domain.BookingCanceled) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, domain.BookingCanceled, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	if updated == nil {
		// Status moved under us; the guarded update matched nothing.
		return nil, ErrInvalidTransition
	}

	if err := s.eventBus.Publish(ctx, events.BookingCanceled, events.BookingCanceledEvent{
		BookingID:  updated.ID,
		HotelID:    updated.HotelID,
		GuestID:    updated.GuestID,
		Reason:     reason,
		CanceledAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking canceled event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) ListForHotel(ctx context.Context, provider *domain.Session, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByHotel(ctx, provider.HotelID, limit, offset, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotel bookings: %w", err)
	}
	return bookings, nil
}

func (s *bookingService) Advance(ctx context.Context, provider *domain.Session, bookingID int64, to domain.BookingStatus) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return nil, ErrNotFound
	}
	if booking.HotelID != provider.HotelID {
		return nil, ErrForbidden
	}
	if !booking.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	providerID := &provider.UserID
	updated, err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, to, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if updated == nil {
		return nil, ErrInvalidTransition
	}

	if err := s.eventBus.Publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: updated.ID,
		HotelID:   updated.HotelID,
		From:      string(booking.Status),
		To:        string(updated.Status),
		ChangedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish booking status event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

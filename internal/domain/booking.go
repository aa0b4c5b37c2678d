package domain

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAccepted   BookingStatus = "accepted"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCanceled   BookingStatus = "canceled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingAccepted, BookingInProgress, BookingCompleted, BookingCanceled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// CanTransition reports whether a provider-driven move from one status
// to the next is allowed.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	switch s {
	case BookingPending:
		return to == BookingAccepted || to == BookingCanceled
	case BookingAccepted:
		return to == BookingInProgress || to == BookingCanceled
	case BookingInProgress:
		return to == BookingCompleted
	default:
		return false
	}
}

type ServiceType string

const (
	ServiceLaundry      ServiceType = "laundry"
	ServiceTransport    ServiceType = "transport"
	ServiceDining       ServiceType = "dining"
	ServiceHousekeeping ServiceType = "housekeeping"
	ServiceTour         ServiceType = "tour"
)

var validServiceTypes = map[ServiceType]bool{
	ServiceLaundry:      true,
	ServiceTransport:    true,
	ServiceDining:       true,
	ServiceHousekeeping: true,
	ServiceTour:         true,
}

type Booking struct {
	ID          int64         `json:"id"`
	HotelID     int64         `json:"hotel_id"`
	GuestID     int64         `json:"guest_id"`
	ProviderID  *int64        `json:"provider_id,omitempty"`
	ServiceType ServiceType   `json:"service_type"`
	Status      BookingStatus `json:"status"`
	ScheduledAt time.Time     `json:"scheduled_at"`
	RoomNumber  string        `json:"room_number"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type CreateBookingRequest struct {
	ServiceType ServiceType `json:"service_type"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	RoomNumber  string      `json:"room_number"`
	Notes       string      `json:"notes"`
}

func (r *CreateBookingRequest) Normalize() {
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *CreateBookingRequest) Validate() error {
	if !validServiceTypes[r.ServiceType] {
		return fmt.Errorf("invalid service type")
	}
	if r.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled_at is required")
	}
	if r.ScheduledAt.Before(time.Now()) {
		return fmt.Errorf("scheduled_at must be in the future")
	}
	return nil
}

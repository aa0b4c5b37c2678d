package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/staylink/guestgate/internal/domain"
)

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.BookingStatus
		to      domain.BookingStatus
		allowed bool
	}{
		{domain.BookingPending, domain.BookingAccepted, true},
		{domain.BookingPending, domain.BookingCanceled, true},
		{domain.BookingPending, domain.BookingInProgress, false},
		{domain.BookingPending, domain.BookingCompleted, false},
		{domain.BookingAccepted, domain.BookingInProgress, true},
		{domain.BookingAccepted, domain.BookingCanceled, true},
		{domain.BookingAccepted, domain.BookingCompleted, false},
		{domain.BookingInProgress, domain.BookingCompleted, true},
		{domain.BookingInProgress, domain.BookingCanceled, false},
		{domain.BookingCompleted, domain.BookingCanceled, false},
		{domain.BookingCanceled, domain.BookingAccepted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseBookingStatus(t *testing.T) {
	status, ok := domain.ParseBookingStatus("in_progress")
	assert.True(t, ok)
	assert.Equal(t, domain.BookingInProgress, status)

	_, ok = domain.ParseBookingStatus("paused")
	assert.False(t, ok)
}

func TestCreateBookingRequestValidate(t *testing.T) {
	req := &domain.CreateBookingRequest{
		ServiceType: domain.ServiceDining,
		ScheduledAt: time.Now().Add(time.Hour),
	}
	assert.NoError(t, req.Validate())

	req.ScheduledAt = time.Now().Add(-time.Minute)
	assert.Error(t, req.Validate())

	req.ScheduledAt = time.Time{}
	assert.Error(t, req.Validate())

	req = &domain.CreateBookingRequest{ServiceType: "spa", ScheduledAt: time.Now().Add(time.Hour)}
	assert.Error(t, req.Validate())
}

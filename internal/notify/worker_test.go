package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/notify"
	"github.com/staylink/guestgate/pkg/events"
)

// syncBus delivers published messages to subscribers inline, so tests
// observe side effects without real NATS.
type syncBus struct {
	handlers map[string]func(*events.Message)
}

func newSyncBus() *syncBus {
	return &syncBus{handlers: make(map[string]func(*events.Message))}
}

func (b *syncBus) Subscribe(subject string, handler func(*events.Message)) error {
	b.handlers[subject] = handler
	return nil
}

func (b *syncBus) QueueSubscribe(subject, _ string, handler func(*events.Message)) error {
	b.handlers[subject] = handler
	return nil
}

func (b *syncBus) Close() error { return nil }

func (b *syncBus) deliver(t *testing.T, subject string, payload interface{}) {
	t.Helper()
	handler, ok := b.handlers[subject]
	require.True(t, ok, "no handler for %s", subject)

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	handler(&events.Message{Subject: subject, Data: data, Timestamp: time.Now()})
}

type stubBookingRepo struct {
	booking *domain.Booking
}

func (s *stubBookingRepo) Create(context.Context, int64, int64, *domain.CreateBookingRequest) (*domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) FindByID(_ context.Context, id int64) (*domain.Booking, error) {
	if s.booking != nil && s.booking.ID == id {
		return s.booking, nil
	}
	return nil, nil
}

func (s *stubBookingRepo) ListByGuest(context.Context, int64, int, int, *domain.BookingStatus) ([]domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) ListByHotel(context.Context, int64, int, int, *domain.BookingStatus) ([]domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingRepo) UpdateStatus(context.Context, int64, domain.BookingStatus, domain.BookingStatus, *int64) (*domain.Booking, error) {
	return nil, nil
}

type stubUserRepo struct {
	user *domain.User
}

func (s *stubUserRepo) CreateGuest(context.Context, *domain.RegisterRequest, string) (*domain.User, error) {
	return nil, nil
}

func (s *stubUserRepo) FindByEmail(context.Context, string) (*domain.User, error) { return nil, nil }

func (s *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserRepo) MarkVerified(context.Context, int64) error { return nil }

type recordingMailer struct {
	emails []string
	status []string
}

func (m *recordingMailer) SendVerificationEmail(string, string, string, string) error { return nil }

func (m *recordingMailer) SendBookingStatusEmail(toEmail, _, status string, _ time.Time) error {
	m.emails = append(m.emails, toEmail)
	m.status = append(m.status, status)
	return nil
}

func fixtureBookingAndGuest() (*domain.Booking, *domain.User) {
	booking := &domain.Booking{
		ID:          5,
		HotelID:     3,
		GuestID:     7,
		ServiceType: domain.ServiceLaundry,
		Status:      domain.BookingAccepted,
		ScheduledAt: time.Now().Add(4 * time.Hour),
	}
	guest := &domain.User{
		ID:    7,
		Email: "guest@example.com",
		Role:  domain.RoleGuest,
	}
	return booking, guest
}

func TestWorkerEmailsOnStatusChange(t *testing.T) {
	bus := newSyncBus()
	booking, guest := fixtureBookingAndGuest()
	mail := &recordingMailer{}

	worker := notify.NewWorker(bus, &stubBookingRepo{booking: booking}, &stubUserRepo{user: guest}, mail)
	require.NoError(t, worker.Start())

	bus.deliver(t, events.BookingStatusChanged, events.BookingStatusChangedEvent{
		BookingID: booking.ID,
		HotelID:   booking.HotelID,
		From:      "pending",
		To:        "accepted",
		ChangedAt: time.Now(),
	})

	require.Len(t, mail.emails, 1)
	assert.Equal(t, "guest@example.com", mail.emails[0])
	assert.Equal(t, "accepted", mail.status[0])
}

func TestWorkerEmailsOnCancel(t *testing.T) {
	bus := newSyncBus()
	booking, guest := fixtureBookingAndGuest()
	mail := &recordingMailer{}

	worker := notify.NewWorker(bus, &stubBookingRepo{booking: booking}, &stubUserRepo{user: guest}, mail)
	require.NoError(t, worker.Start())

	bus.deliver(t, events.BookingCanceled, events.BookingCanceledEvent{
		BookingID:  booking.ID,
		HotelID:    booking.HotelID,
		GuestID:    booking.GuestID,
		Reason:     "changed plans",
		CanceledAt: time.Now(),
	})

	require.Len(t, mail.emails, 1)
	assert.Equal(t, "canceled", mail.status[0])
}

func TestWorkerDropsUnknownBooking(t *testing.T) {
	bus := newSyncBus()
	mail := &recordingMailer{}

	worker := notify.NewWorker(bus, &stubBookingRepo{}, &stubUserRepo{}, mail)
	require.NoError(t, worker.Start())

	bus.deliver(t, events.BookingStatusChanged, events.BookingStatusChangedEvent{BookingID: 999, To: "accepted"})
	assert.Empty(t, mail.emails)
}

func TestWorkerDropsMalformedPayload(t *testing.T) {
	bus := newSyncBus()
	mail := &recordingMailer{}

	worker := notify.NewWorker(bus, &stubBookingRepo{}, &stubUserRepo{}, mail)
	require.NoError(t, worker.Start())

	handler := bus.handlers[events.BookingStatusChanged]
	handler(&events.Message{Subject: events.BookingStatusChanged, Data: []byte("{not json")})
	assert.Empty(t, mail.emails)
}

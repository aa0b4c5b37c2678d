// Package notify turns booking lifecycle events into guest emails.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/staylink/guestgate/internal/mailer"
	"github.com/staylink/guestgate/internal/repository"
	"github.com/staylink/guestgate/pkg/events"
	"github.com/staylink/guestgate/pkg/logger"
)

type Worker struct {
	bus      events.Subscriber
	bookings repository.BookingRepository
	users    repository.UserRepository
	mailer   mailer.Service
}

func NewWorker(bus events.Subscriber, bookings repository.BookingRepository, users repository.UserRepository, mailer mailer.Service) *Worker {
	return &Worker{
		bus:      bus,
		bookings: bookings,
		users:    users,
		mailer:   mailer,
	}
}

// Start registers the queue subscriptions. Handlers run on the event
// bus goroutines; failures are logged and dropped, never retried.
func (w *Worker) Start() error {
	if err := w.bus.QueueSubscribe(events.BookingStatusChanged, "notify", w.onStatusChanged); err != nil {
		return err
	}
	return w.bus.QueueSubscribe(events.BookingCanceled, "notify", w.onCanceled)
}

func (w *Worker) onStatusChanged(msg *events.Message) {
	var evt events.BookingStatusChangedEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode booking status event", "error", err)
		return
	}
	w.notifyGuest(evt.BookingID, evt.To)
}

func (w *Worker) onCanceled(msg *events.Message) {
	var evt events.BookingCanceledEvent
	if err := json.Unmarshal(msg.Data, &evt); err != nil {
		logger.Error("Failed to decode booking canceled event", "error", err)
		return
	}
	w.notifyGuest(evt.BookingID, "canceled")
}

func (w *Worker) notifyGuest(bookingID int64, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	booking, err := w.bookings.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		logger.Error("Failed to load booking for notification", "error", err, "booking_id", bookingID)
		return
	}

	guest, err := w.users.FindByID(ctx, booking.GuestID)
	if err != nil || guest == nil {
		logger.Error("Failed to load guest for notification", "error", err, "booking_id", bookingID)
		return
	}

	if err := w.mailer.SendBookingStatusEmail(guest.Email, string(booking.ServiceType), status, booking.ScheduledAt); err != nil {
		logger.Error("Failed to send booking status email", "error", err, "booking_id", bookingID)
	}
}

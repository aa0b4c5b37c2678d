package mailer

import (
	"time"

	"github.com/staylink/guestgate/pkg/logger"
)

// DevMailer prints emails to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationEmail(toEmail, toName, verifyURL, token string) error {
	logger.Info("[DEV MAIL] Verification Email",
		"to", toEmail,
		"name", toName,
		"verify_url", verifyURL,
		"token", token,
	)
	return nil
}

func (d *DevMailer) SendBookingStatusEmail(toEmail, serviceType, status string, scheduledAt time.Time) error {
	logger.Info("[DEV MAIL] Booking Status Email",
		"to", toEmail,
		"service_type", serviceType,
		"status", status,
		"scheduled_at", scheduledAt.Format(time.RFC3339),
	)
	return nil
}

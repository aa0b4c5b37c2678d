package mailer

import "time"

type Service interface {
	SendVerificationEmail(toEmail, toName, verifyURL, token string) error
	SendBookingStatusEmail(toEmail, serviceType, status string, scheduledAt time.Time) error
}

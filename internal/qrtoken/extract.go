package qrtoken

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrEmptyPayload = errors.New("empty scan payload")
	// ErrForeignToken is returned for payloads that look like an auth
	// refresh token rather than a hotel token. A mis-scanned session
	// artifact must never reach the validator.
	ErrForeignToken = errors.New("payload is not a hotel token")
)

// ExtractToken pulls the hotel token out of a scanned payload. A
// URL-shaped payload carrying a `qr` query parameter yields that
// parameter's value; anything else is treated as the token itself.
func ExtractToken(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", ErrEmptyPayload
	}
	if strings.Contains(payload, "refreshToken") {
		return "", ErrForeignToken
	}

	if strings.Contains(payload, "://") {
		if u, err := url.Parse(payload); err == nil {
			if tok := u.Query().Get("qr"); tok != "" {
				return tok, nil
			}
		}
	}

	return payload, nil
}

package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("account role does not match the requested role")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrHotelNotFound      = errors.New("hotel not found or inactive")
	ErrUnauthenticated    = errors.New("no valid session")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrVerifyToken        = errors.New("invalid or expired verification token")
)

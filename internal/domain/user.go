package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	Role         string     `json:"role"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	HotelID      int64      `json:"hotel_id"`
	RoomNumber   string     `json:"room_number,omitempty"`
	CheckIn      *time.Time `json:"check_in,omitempty"`
	CheckOut     *time.Time `json:"check_out,omitempty"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Valid user roles
const (
	RoleGuest           = "guest"
	RoleHotelAdmin      = "hotel_admin"
	RoleServiceProvider = "service_provider"
	RoleSuperAdmin      = "super_admin"
)

var validRoles = map[string]bool{
	RoleGuest:           true,
	RoleHotelAdmin:      true,
	RoleServiceProvider: true,
	RoleSuperAdmin:      true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// Session is the single normalized identity shape handed to callers.
// Everything downstream reads role from here; nothing re-derives it
// from handler-specific payloads.
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	HotelID   int64     `json:"hotel_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RegisterRequest struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Password   string    `json:"password"`
	HotelID    int64     `json:"hotel_id"`
	RoomNumber string    `json:"room_number"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	QRBased    bool      `json:"qr_based"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type SessionResponse struct {
	Session *Session  `json:"session"`
	User    *UserInfo `json:"user"`
}

type UserInfo struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
	HotelID    int64  `json:"hotel_id,omitempty"`
	RoomNumber string `json:"room_number,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		Role:       u.Role,
		HotelID:    u.HotelID,
		RoomNumber: u.RoomNumber,
		IsVerified: u.IsVerified,
	}
}

// Validation

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.RoomNumber = strings.TrimSpace(r.RoomNumber)
}

func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !isValidPhone(r.Phone) {
		return fmt.Errorf("invalid phone format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if r.HotelID <= 0 {
		return fmt.Errorf("hotel is required")
	}
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return fmt.Errorf("check-in and check-out dates are required")
	}
	if r.CheckOut.Before(r.CheckIn) {
		return fmt.Errorf("check-out date must not be earlier than check-in date")
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Role = strings.TrimSpace(r.Role)
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	if r.Role != "" && !validRoles[r.Role] {
		return fmt.Errorf("invalid role")
	}
	return nil
}

// Helper functions
func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

func isValidPhone(phone string) bool {
	phoneRegex := regexp.MustCompile(`^[\+]?[\d\s\-\(\)]+$`)
	return phoneRegex.MatchString(phone) && len(phone) >= 7
}

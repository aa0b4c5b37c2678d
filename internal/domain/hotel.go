package domain

import (
	"fmt"
	"strings"
	"time"
)

type Hotel struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Active         bool       `json:"active"`
	QRToken        string     `json:"-"`
	QRTokenExpires *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HotelInfo is the public shape returned to clients resolving a QR
// token or browsing the manual-selection list.
type HotelInfo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
}

func (h *Hotel) ToHotelInfo() *HotelInfo {
	return &HotelInfo{
		ID:      h.ID,
		Name:    h.Name,
		Address: h.Address,
		City:    h.City,
	}
}

// TokenResolution is what the validation endpoint returns on success.
type TokenResolution struct {
	HotelID   int64     `json:"hotel_id"`
	HotelName string    `json:"hotel_name"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateHotelRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

func (r *CreateHotelRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)
}

func (r *CreateHotelRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

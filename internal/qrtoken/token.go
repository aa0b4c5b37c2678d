// Package qrtoken implements signing, verification and optical
// encoding of hotel registration tokens.
package qrtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalid = errors.New("invalid hotel token")
	ErrExpired = errors.New("expired hotel token")
)

const subjectHotelQR = "hotel_qr"

type Claims struct {
	HotelID int64 `json:"hid"`
	jwt.RegisteredClaims
}

// Sign issues a hotel token valid for ttl. The jti claim makes every
// issued token distinct; timestamps alone are second-precision, and
// regeneration must supersede even a token minted in the same second.
func Sign(hotelID int64, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		HotelID: hotelID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectHotelQR,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Audience:  []string{"guestgate-qr"},
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks a presented token and returns its claims. Expiry is
// checked on the unverified claims before the signature so an expired
// token reports ErrExpired even when the signature is garbage. Every
// failure maps to ErrInvalid or ErrExpired; arbitrary input never
// panics.
func Verify(tokenString, secret string) (*Claims, error) {
	var unverified Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &unverified); err != nil {
		return nil, ErrInvalid
	}
	if unverified.ExpiresAt == nil {
		return nil, ErrInvalid
	}
	if time.Now().After(unverified.ExpiresAt.Time) {
		return nil, ErrExpired
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject != subjectHotelQR || claims.HotelID <= 0 {
		return nil, ErrInvalid
	}
	return claims, nil
}

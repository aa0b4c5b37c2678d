package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub     int64  `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Scope   string `json:"scope"`
	HotelID int64  `json:"hotel_id,omitempty"`
	jwt.RegisteredClaims
}

func NewSessionToken(sub int64, email, role, scope string, hotelID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:     sub,
		Email:   email,
		Role:    role,
		Scope:   scope,
		HotelID: hotelID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"guestgate-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

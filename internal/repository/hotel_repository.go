package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staylink/guestgate/internal/domain"
)

type HotelRepository interface {
	Create(ctx context.Context, req *domain.CreateHotelRequest) (*domain.Hotel, error)
	FindByID(ctx context.Context, id int64) (*domain.Hotel, error)
	ListActive(ctx context.Context, limit, offset int) ([]domain.Hotel, error)
	// UpdateToken replaces the hotel's current QR token. The previous
	// token is superseded by this single write; only the stored token
	// validates afterwards.
	UpdateToken(ctx context.Context, hotelID int64, token string, expiresAt time.Time) error
	SetActive(ctx context.Context, hotelID int64, active bool) error
}

type hotelRepository struct {
	pool *pgxpool.Pool
}

func NewHotelRepository(pool *pgxpool.Pool) HotelRepository {
	return &hotelRepository{pool: pool}
}

const hotelCols = `id, name, address, city, active, qr_token, qr_token_expires_at, created_at, updated_at`

func (r *hotelRepository) Create(ctx context.Context, req *domain.CreateHotelRequest) (*domain.Hotel, error) {
	const q = `
		INSERT INTO hotels (name, address, city, active)
		VALUES ($1, $2, $3, true)
		RETURNING ` + hotelCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var h domain.Hotel
	err := r.pool.QueryRow(ctx, q, req.Name, req.Address, req.City).Scan(
		&h.ID, &h.Name, &h.Address, &h.City, &h.Active, &h.QRToken, &h.QRTokenExpires, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &h, nil
}

func (r *hotelRepository) FindByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	const q = `SELECT ` + hotelCols + ` FROM hotels WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var h domain.Hotel
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&h.ID, &h.Name, &h.Address, &h.City, &h.Active, &h.QRToken, &h.QRTokenExpires, &h.CreatedAt, &h.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &h, err
}

func (r *hotelRepository) ListActive(ctx context.Context, limit, offset int) ([]domain.Hotel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT ` + hotelCols + `
		FROM hotels
		WHERE active = true
		ORDER BY name
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hotels []domain.Hotel
	for rows.Next() {
		var h domain.Hotel
		if err := rows.Scan(
			&h.ID, &h.Name, &h.Address, &h.City, &h.Active, &h.QRToken, &h.QRTokenExpires, &h.CreatedAt, &h.UpdatedAt,
		); err != nil {
			return nil, err
		}
		hotels = append(hotels, h)
	}

	return hotels, rows.Err()
}

func (r *hotelRepository) UpdateToken(ctx context.Context, hotelID int64, token string, expiresAt time.Time) error {
	const q = `
		UPDATE hotels
		SET qr_token = $2, qr_token_expires_at = $3, updated_at = now()
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, hotelID, token, expiresAt)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func (r *hotelRepository) SetActive(ctx context.Context, hotelID int64, active bool) error {
	const q = `UPDATE hotels SET active = $2, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, hotelID, active)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staylink/guestgate/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, hotelID, guestID int64, req *domain.CreateBookingRequest) (*domain.Booking, error)
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	ListByGuest(ctx context.Context, guestID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	ListByHotel(ctx context.Context, hotelID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error)
	// UpdateStatus moves a booking from one status to another and
	// reports whether the guarded transition matched a row.
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, providerID *int64) (*domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingCols = `id, hotel_id, guest_id, provider_id, service_type, status, scheduled_at, room_number, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.HotelID, &b.GuestID, &b.ProviderID, &b.ServiceType, &b.Status,
		&b.ScheduledAt, &b.RoomNumber, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, hotelID, guestID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	const q = `
		INSERT INTO bookings (hotel_id, guest_id, service_type, status, scheduled_at, room_number, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanBooking(r.pool.QueryRow(ctx, q,
		hotelID, guestID, req.ServiceType, domain.BookingPending,
		req.ScheduledAt, req.RoomNumber, req.Notes,
	))
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

func (r *bookingRepository) ListByGuest(ctx context.Context, guestID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings
		WHERE guest_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY scheduled_at DESC
		LIMIT $3 OFFSET $4`

	return r.list(ctx, q, guestID, limit, offset, status)
}

func (r *bookingRepository) ListByHotel(ctx context.Context, hotelID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	const q = `
		SELECT ` + bookingCols + `
		FROM bookings
		WHERE hotel_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY scheduled_at
		LIMIT $3 OFFSET $4`

	return r.list(ctx, q, hotelID, limit, offset, status)
}

func (r *bookingRepository) list(ctx context.Context, q string, ownerID int64, limit, offset int, status *domain.BookingStatus) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.HotelID, &b.GuestID, &b.ProviderID, &b.ServiceType, &b.Status,
			&b.ScheduledAt, &b.RoomNumber, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, providerID *int64) (*domain.Booking, error) {
	const q = `
		UPDATE bookings
		SET status = $3,
		    provider_id = COALESCE($4, provider_id),
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id, from, to, providerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return b, err
}

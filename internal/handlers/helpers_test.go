package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/internal/handlers"
	"github.com/staylink/guestgate/internal/service"
	"github.com/staylink/guestgate/pkg/config"
)

// ---------- In-memory repositories ----------

type memHotelRepo struct {
	mu     sync.Mutex
	nextID int64
	hotels map[int64]*domain.Hotel
}

func newMemHotelRepo() *memHotelRepo {
	return &memHotelRepo{nextID: 1, hotels: make(map[int64]*domain.Hotel)}
}

func (m *memHotelRepo) addHotel(name string, active bool) *domain.Hotel {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := &domain.Hotel{
		ID:        m.nextID,
		Name:      name,
		Address:   "1 Test Street",
		City:      "Testville",
		Active:    active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.hotels[h.ID] = h
	m.nextID++
	return h
}

func (m *memHotelRepo) Create(_ context.Context, req *domain.CreateHotelRequest) (*domain.Hotel, error) {
	return m.addHotel(req.Name, true), nil
}

func (m *memHotelRepo) FindByID(_ context.Context, id int64) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hotels[id], nil
}

func (m *memHotelRepo) ListActive(_ context.Context, _, _ int) ([]domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Hotel
	for _, h := range m.hotels {
		if h.Active {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *memHotelRepo) UpdateToken(_ context.Context, hotelID int64, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[hotelID].QRToken = token
	m.hotels[hotelID].QRTokenExpires = &expiresAt
	return nil
}

func (m *memHotelRepo) SetActive(_ context.Context, hotelID int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[hotelID].Active = active
	return nil
}

type memUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	byEmail map[string]*domain.User
	byID    map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		nextID:  1,
		byEmail: make(map[string]*domain.User),
		byID:    make(map[int64]*domain.User),
	}
}

func (m *memUserRepo) addUser(email, password, role string, hotelID int64) *domain.User {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		panic(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u := &domain.User{
		ID:           m.nextID,
		Role:         role,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Name:         "Test User",
		Phone:        "+1 555 0100",
		HotelID:      hotelID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	m.nextID++
	return u
}

func (m *memUserRepo) CreateGuest(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	checkIn, checkOut := req.CheckIn, req.CheckOut
	u := &domain.User{
		ID:           m.nextID,
		Role:         domain.RoleGuest,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Phone:        req.Phone,
		HotelID:      req.HotelID,
		RoomNumber:   req.RoomNumber,
		CheckIn:      &checkIn,
		CheckOut:     &checkOut,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byEmail[strings.ToLower(email)], nil
}

func (m *memUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memUserRepo) MarkVerified(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

type memVerifyRepo struct {
	mu     sync.Mutex
	tokens map[string]int64
}

func newMemVerifyRepo() *memVerifyRepo {
	return &memVerifyRepo{tokens: make(map[string]int64)}
}

func (m *memVerifyRepo) CreateEmailVerification(_ context.Context, userID int64, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *memVerifyRepo) ConsumeEmailVerification(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID := m.tokens[token]
	delete(m.tokens, token)
	return userID, nil
}

func (m *memVerifyRepo) DeleteExpiredTokens(context.Context) (int64, error) { return 0, nil }

type memBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *memBookingRepo) Create(_ context.Context, hotelID, guestID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &domain.Booking{
		ID:          m.nextID,
		HotelID:     hotelID,
		GuestID:     guestID,
		ServiceType: req.ServiceType,
		Status:      domain.BookingPending,
		ScheduledAt: req.ScheduledAt,
		RoomNumber:  req.RoomNumber,
		Notes:       req.Notes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.bookings[b.ID] = b
	m.nextID++
	return b, nil
}

func (m *memBookingRepo) FindByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id], nil
}

func (m *memBookingRepo) ListByGuest(_ context.Context, guestID int64, _, _ int, status *domain.BookingStatus) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.bookings {
		if b.GuestID != guestID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBookingRepo) ListByHotel(_ context.Context, hotelID int64, _, _ int, status *domain.BookingStatus) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Booking
	for _, b := range m.bookings {
		if b.HotelID != hotelID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBookingRepo) UpdateStatus(_ context.Context, id int64, from, to domain.BookingStatus, providerID *int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return nil, nil
	}
	b.Status = to
	if providerID != nil {
		b.ProviderID = providerID
	}
	b.UpdatedAt = time.Now()
	return b, nil
}

// ---------- Stubs ----------

type nopBus struct{}

func (nopBus) Publish(context.Context, string, interface{}) error { return nil }

func (nopBus) Close() error { return nil }

type nopMailer struct{}

func (nopMailer) SendVerificationEmail(string, string, string, string) error { return nil }

func (nopMailer) SendBookingStatusEmail(string, string, string, time.Time) error { return nil }

type fixedLimiter struct{ allow bool }

func (l fixedLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return l.allow, nil
}

// ---------- Test application ----------

type testApp struct {
	router   http.Handler
	hotels   *memHotelRepo
	users    *memUserRepo
	verify   *memVerifyRepo
	bookings *memBookingRepo
	auth     service.AuthService
	tokens   service.TokenService
	cfg      *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:5173"},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			SessionTTL:           24 * time.Hour,
			EmailVerificationTTL: 2 * time.Hour,
		},
		QR: config.QRConfig{
			TokenTTL:    30 * 24 * time.Hour,
			MaxImageKB:  2048,
			DefaultSize: 512,
		},
	}

	app := &testApp{
		hotels:   newMemHotelRepo(),
		users:    newMemUserRepo(),
		verify:   newMemVerifyRepo(),
		bookings: newMemBookingRepo(),
		cfg:      cfg,
	}

	bus := nopBus{}
	tokenService := service.NewTokenService(app.hotels, bus, cfg)
	app.tokens = tokenService
	registrationService := service.NewRegistrationService(app.users, app.hotels, app.verify, nopMailer{}, bus, cfg)
	app.auth = service.NewAuthService(app.users, cfg)
	bookingService := service.NewBookingService(app.bookings, bus)

	h := handlers.New(tokenService, registrationService, app.auth, bookingService, app.hotels, fixedLimiter{allow: true}, cfg)

	r := chi.NewRouter()
	r.Get("/hotels", h.ListHotels)
	r.Post("/guest/qr/validate", h.ValidateToken)
	r.Post("/guest/qr/decode", h.DecodeImage)
	r.Post("/guest/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/auth/session", h.Session)
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/verify-email", h.VerifyEmail)
	r.Post("/auth/resend-verification", h.ResendVerification)

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.RequireRole("guest"))
		r.Post("/", h.CreateBooking)
		r.Get("/", h.ListMyBookings)
		r.Post("/{id}/cancel", h.CancelBooking)
	})

	r.Route("/provider/bookings", func(r chi.Router) {
		r.Use(h.RequireRole("service_provider"))
		r.Get("/", h.ListHotelBookings)
		r.Post("/{id}/accept", h.AcceptBooking)
		r.Post("/{id}/start", h.StartBooking)
		r.Post("/{id}/complete", h.CompleteBooking)
	})

	r.Route("/admin/hotels", func(r chi.Router) {
		r.With(h.RequireRole("super_admin")).Post("/", h.CreateHotel)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole("hotel_admin"))
			r.Post("/{id}/qr/regenerate", h.RegenerateToken)
			r.Get("/{id}/qr/download", h.DownloadQR)
		})
	})

	app.router = r
	return app
}

// sessionFor mints a session token for an already-seeded user.
func (a *testApp) sessionFor(t *testing.T, user *domain.User) string {
	t.Helper()
	_, token, err := a.auth.EstablishSession(user)
	require.NoError(t, err)
	return token
}

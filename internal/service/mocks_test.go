package service_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/staylink/guestgate/internal/domain"
	"github.com/staylink/guestgate/pkg/config"
	"github.com/staylink/guestgate/pkg/events"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL: "http://localhost:5173",
		},
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
}

// ---------- Mocks ----------

type mockHotelRepo struct {
	mu        sync.Mutex
	nextID    int64
	hotels    map[int64]*domain.Hotel
	findCalls int
}

func newMockHotelRepo() *mockHotelRepo {
	return &mockHotelRepo{nextID: 1, hotels: make(map[int64]*domain.Hotel)}
}

func (m *mockHotelRepo) addHotel(name string, active bool) *domain.Hotel {
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

func (m *mockHotelRepo) Create(_ context.Context, req *domain.CreateHotelRequest) (*domain.Hotel, error) {
	return m.addHotel(req.Name, true), nil
}

func (m *mockHotelRepo) FindByID(_ context.Context, id int64) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	return m.hotels[id], nil
}

func (m *mockHotelRepo) ListActive(_ context.Context, limit, offset int) ([]domain.Hotel, error) {
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

func (m *mockHotelRepo) UpdateToken(_ context.Context, hotelID int64, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.hotels[hotelID]
	h.QRToken = token
	h.QRTokenExpires = &expiresAt
	return nil
}

func (m *mockHotelRepo) SetActive(_ context.Context, hotelID int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[hotelID].Active = active
	return nil
}

type mockUserRepo struct {
	mu         sync.Mutex
	nextID     int64
	byEmail    map[string]*domain.User
	byID       map[int64]*domain.User
	emailCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		nextID:  1,
		byEmail: make(map[string]*domain.User),
		byID:    make(map[int64]*domain.User),
	}
}

func (m *mockUserRepo) addUser(email, role, passwordHash string, hotelID int64) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &domain.User{
		ID:           m.nextID,
		Role:         role,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
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

func (m *mockUserRepo) CreateGuest(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	u := m.addUser(req.Email, domain.RoleGuest, passwordHash, req.HotelID)
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Name = req.Name
	u.Phone = req.Phone
	u.RoomNumber = req.RoomNumber
	checkIn, checkOut := req.CheckIn, req.CheckOut
	u.CheckIn, u.CheckOut = &checkIn, &checkOut
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailCalls++
	return m.byEmail[strings.ToLower(email)], nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *mockUserRepo) MarkVerified(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

type mockVerifyRepo struct {
	mu     sync.Mutex
	tokens map[string]int64 // token -> user_id
}

func newMockVerifyRepo() *mockVerifyRepo {
	return &mockVerifyRepo{tokens: make(map[string]int64)}
}

func (m *mockVerifyRepo) CreateEmailVerification(_ context.Context, userID int64, token string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = userID
	return nil
}

func (m *mockVerifyRepo) ConsumeEmailVerification(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID := m.tokens[token]
	delete(m.tokens, token)
	return userID, nil
}

func (m *mockVerifyRepo) DeleteExpiredTokens(context.Context) (int64, error) { return 0, nil }

type mockBookingRepo struct {
	mu       sync.Mutex
	nextID   int64
	bookings map[int64]*domain.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{nextID: 1, bookings: make(map[int64]*domain.Booking)}
}

func (m *mockBookingRepo) Create(_ context.Context, hotelID, guestID int64, req *domain.CreateBookingRequest) (*domain.Booking, error) {
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

func (m *mockBookingRepo) FindByID(_ context.Context, id int64) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id], nil
}

func (m *mockBookingRepo) ListByGuest(_ context.Context, guestID int64, _, _ int, status *domain.BookingStatus) ([]domain.Booking, error) {
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

func (m *mockBookingRepo) ListByHotel(_ context.Context, hotelID int64, _, _ int, status *domain.BookingStatus) ([]domain.Booking, error) {
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

func (m *mockBookingRepo) UpdateStatus(_ context.Context, id int64, from, to domain.BookingStatus, providerID *int64) (*domain.Booking, error) {
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

type mockBus struct {
	mu       sync.Mutex
	subjects []string
}

func (m *mockBus) Publish(_ context.Context, subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockBus) Subscribe(string, func(*events.Message)) error { return nil }

func (m *mockBus) QueueSubscribe(string, string, func(*events.Message)) error { return nil }

func (m *mockBus) Close() error { return nil }

func (m *mockBus) published(subject string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s == subject {
			return true
		}
	}
	return false
}

type mockMailer struct {
	mu            sync.Mutex
	verifications []string // recipient emails
	statusEmails  []string
	sendErr       error
}

func (m *mockMailer) SendVerificationEmail(toEmail, _, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, toEmail)
	return m.sendErr
}

func (m *mockMailer) SendBookingStatusEmail(toEmail, _, _ string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusEmails = append(m.statusEmails, toEmail)
	return m.sendErr
}

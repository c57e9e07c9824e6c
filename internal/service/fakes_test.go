package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/queue"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/utils"
)

// memDB is an in-memory stand-in for MySQL shared by the fake stores.
type memDB struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	nextID   uint64
	users    map[uint64]model.User
	turfs    map[uint64]model.Turf
	bookings map[uint64]model.Booking
	sessions map[string]model.Session

	// skipAvailability makes IsSlotAvailable always report true so the
	// unique-index path of Commit can be exercised.
	skipAvailability bool
	// failCreate makes the next n booking inserts fail with err.
	failCreate    int
	failCreateErr error
	createCalls   int
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uint64]model.User{},
		turfs:    map[uint64]model.Turf{},
		bookings: map[uint64]model.Booking{},
		sessions: map[string]model.Session{},
	}
}

func (m *memDB) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) snapshot() (map[uint64]model.User, map[uint64]model.Turf, map[uint64]model.Booking) {
	u := make(map[uint64]model.User, len(m.users))
	for k, v := range m.users {
		u[k] = v
	}
	t := make(map[uint64]model.Turf, len(m.turfs))
	for k, v := range m.turfs {
		t[k] = v
	}
	b := make(map[uint64]model.Booking, len(m.bookings))
	for k, v := range m.bookings {
		b[k] = v
	}
	return u, t, b
}

// Do serialises transactions and restores the previous state when fn
// fails, mimicking a rollback.
func (m *memDB) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	m.mu.Lock()
	u, t, b := m.snapshot()
	m.mu.Unlock()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.users, m.turfs, m.bookings = u, t, b
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memDB) addUser(name string, points int) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, _ := utils.HashPassword("secret", 4)
	u := model.User{ID: m.id(), Username: name, PasswordHash: hash, LoyaltyPoints: points}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addTurf(name, price string) model.Turf {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := model.Turf{ID: m.id(), Name: name, Location: "Town", Description: "grass", PricePerHour: mustDecimal(price), ImageURL: "t.jpg"}
	m.turfs[t.ID] = t
	return t
}

func (m *memDB) user(id uint64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memDB) booking(id uint64) model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memDB) confirmedCount(turfID uint64, at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.TurfID == turfID && b.BookingTime.Equal(at) && b.IsConfirmed() {
			n++
		}
	}
	return n
}

type fakeUsers struct{ *memDB }

func (f fakeUsers) Create(_ context.Context, username, email, password string, isAdmin bool, cost int) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return 0, repository.ErrDuplicate
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := model.User{ID: f.id(), Username: username, Email: email, PasswordHash: hash, IsAdmin: isAdmin}
	f.users[u.ID] = u
	return u.ID, nil
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByIDForUpdate(ctx context.Context, id uint64) (model.User, error) {
	return f.GetByID(ctx, id)
}

func (f fakeUsers) SetLoyaltyPoints(_ context.Context, id uint64, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LoyaltyPoints = points
	f.users[id] = u
	return nil
}

func (f fakeUsers) PromoteToAdmin(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsAdmin = true
	f.users[id] = u
	return nil
}

type fakeSessions struct{ *memDB }

func (f fakeSessions) Store(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[hash] = model.Session{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (f fakeSessions) Validate(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[hash]
	if !ok || s.RevokedAt != nil || time.Now().After(s.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return s.UserID, nil
}

func (f fakeSessions) Revoke(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[hash]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	f.sessions[hash] = s
	return nil
}

type fakeTurfs struct{ *memDB }

func (f fakeTurfs) Create(_ context.Context, t *model.Turf) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.id()
	f.turfs[t.ID] = *t
	return nil
}

func (f fakeTurfs) GetByID(_ context.Context, id uint64) (model.Turf, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.turfs[id]
	if !ok {
		return model.Turf{}, repository.ErrNotFound
	}
	return t, nil
}

func (f fakeTurfs) List(_ context.Context) ([]model.Turf, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Turf, 0, len(f.turfs))
	for _, t := range f.turfs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeTurfs) ListByName(ctx context.Context) ([]model.Turf, error) {
	out, _ := f.List(ctx)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeTurfs) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.turfs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.turfs, id)
	return nil
}

type fakeBookings struct{ *memDB }

func (f fakeBookings) IsSlotAvailable(_ context.Context, turfID uint64, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipAvailability {
		return true, nil
	}
	for _, b := range f.bookings {
		if b.TurfID == turfID && b.BookingTime.Equal(at) && b.IsConfirmed() {
			return false, nil
		}
	}
	return true, nil
}

func (f fakeBookings) BookedSlots(_ context.Context, turfID uint64, from, to time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, b := range f.bookings {
		if b.TurfID == turfID && b.IsConfirmed() && !b.BookingTime.Before(from) && b.BookingTime.Before(to) {
			out = append(out, b.BookingTime)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Create enforces the one-confirmed-booking-per-slot unique index.
func (f fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate > 0 {
		f.failCreate--
		return f.failCreateErr
	}
	for _, o := range f.bookings {
		if o.TurfID == b.TurfID && o.BookingTime.Equal(b.BookingTime) && o.IsConfirmed() {
			return repository.ErrDuplicate
		}
	}
	b.ID = f.id()
	b.CreatedAt = time.Now().UTC()
	f.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) GetByIDForUpdate(_ context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f fakeBookings) SetStatus(_ context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	f.bookings[id] = b
	return nil
}

func (f fakeBookings) DeleteByTurf(_ context.Context, turfID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.bookings {
		if b.TurfID == turfID {
			delete(f.bookings, id)
			n++
		}
	}
	return n, nil
}

func (f fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.UserBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.UserBooking
	for _, b := range f.bookings {
		if b.UserID != userID {
			continue
		}
		t := f.turfs[b.TurfID]
		out = append(out, model.UserBooking{
			ID: b.ID, TurfName: t.Name, TurfLocation: t.Location,
			BookingTime: b.BookingTime, Status: b.Status, AmountPaid: b.AmountPaid,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	return out, nil
}

func (f fakeBookings) ReportRows(_ context.Context, limit int) ([]model.ReportRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReportRow
	for _, b := range f.bookings {
		out = append(out, model.ReportRow{
			BookingID: b.ID, Username: f.users[b.UserID].Username, TurfName: f.turfs[b.TurfID].Name,
			BookingTime: b.BookingTime, Status: b.Status, AmountPaid: b.AmountPaid,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime.After(out[j].BookingTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) all() []queue.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.BookingEvent(nil), p.events...)
}

type countingCache struct {
	mu sync.Mutex
	n  int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

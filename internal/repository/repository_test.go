package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	trmsql "github.com/avito-tech/go-transaction-manager/drivers/sql/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/turf-booking/internal/database/dbtest"
	"github.com/iliyamo/turf-booking/internal/model"
)

// RepoSuite runs against a real MySQL; see dbtest for how it is found.
type RepoSuite struct {
	suite.Suite
	db       *sql.DB
	tr       *manager.Manager
	users    *UserRepo
	turfs    *TurfRepo
	bookings *BookingRepo
	sessions *SessionRepo
}

func TestRepoSuite(t *testing.T) {
	db := dbtest.Open(t)
	suite.Run(t, &RepoSuite{db: db})
}

func (s *RepoSuite) SetupSuite() {
	s.tr = manager.Must(trmsql.NewDefaultFactory(s.db))
	getter := trmsql.DefaultCtxGetter
	s.users = NewUserRepo(s.db, getter)
	s.turfs = NewTurfRepo(s.db, getter)
	s.bookings = NewBookingRepo(s.db, getter)
	s.sessions = NewSessionRepo(s.db, getter)
}

func (s *RepoSuite) SetupTest() {
	dbtest.Truncate(s.T(), s.db)
}

func (s *RepoSuite) newUser(name string) uint64 {
	id, err := s.users.Create(context.Background(), name, name+"@example.com", "secret", false, 4)
	s.Require().NoError(err)
	return id
}

func (s *RepoSuite) newTurf(name string) model.Turf {
	t := model.Turf{
		Name: name, Location: "North", Description: "5-a-side",
		PricePerHour: decimal.RequireFromString("1000.00"), ImageURL: "t.jpg",
	}
	s.Require().NoError(s.turfs.Create(context.Background(), &t))
	return t
}

func (s *RepoSuite) book(userID, turfID uint64, at time.Time) (model.Booking, error) {
	b := model.Booking{UserID: userID, TurfID: turfID, BookingTime: at, AmountPaid: decimal.RequireFromString("750")}
	err := s.bookings.Create(context.Background(), &b)
	return b, err
}

func slot(h int) time.Time { return time.Date(2030, 5, 1, h, 0, 0, 0, time.UTC) }

func (s *RepoSuite) TestUsers() {
	ctx := context.Background()
	id := s.newUser("alice")

	u, err := s.users.GetByUsername(ctx, " alice ")
	s.Require().NoError(err)
	s.Equal(id, u.ID)
	s.Zero(u.LoyaltyPoints)
	s.False(u.IsAdmin)

	_, err = s.users.Create(ctx, "alice", "", "x", false, 4)
	s.ErrorIs(err, ErrDuplicate)

	s.Require().NoError(s.users.SetLoyaltyPoints(ctx, id, 20))
	s.Require().NoError(s.users.SetLoyaltyPoints(ctx, id, 20))
	s.ErrorIs(s.users.SetLoyaltyPoints(ctx, 999999, 5), ErrNotFound)

	s.Require().NoError(s.users.PromoteToAdmin(ctx, id))
	u, err = s.users.GetByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(20, u.LoyaltyPoints)
	s.True(u.IsAdmin)

	_, err = s.users.GetByUsername(ctx, "nobody")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepoSuite) TestTurfs() {
	ctx := context.Background()
	b := s.newTurf("Bravo")
	a := s.newTurf("Alpha")
	s.True(decimal.RequireFromString("1000").Equal(a.PricePerHour))

	all, err := s.turfs.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(b.ID, all[0].ID)

	byName, err := s.turfs.ListByName(ctx)
	s.Require().NoError(err)
	s.Equal("Alpha", byName[0].Name)

	s.ErrorIs(s.turfs.Delete(ctx, 999999), ErrNotFound)
	_, err = s.turfs.GetByID(ctx, 999999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepoSuite) TestAvailability() {
	ctx := context.Background()
	uid := s.newUser("alice")
	t := s.newTurf("Green")

	ok, err := s.bookings.IsSlotAvailable(ctx, t.ID, slot(10))
	s.Require().NoError(err)
	s.True(ok)

	b, err := s.book(uid, t.ID, slot(10))
	s.Require().NoError(err)
	s.Equal(model.StatusConfirmed, b.Status)
	s.Equal(slot(10), b.BookingTime)

	ok, _ = s.bookings.IsSlotAvailable(ctx, t.ID, slot(10))
	s.False(ok)
	ok, _ = s.bookings.IsSlotAvailable(ctx, t.ID, slot(11))
	s.True(ok)
	ok, _ = s.bookings.IsSlotAvailable(ctx, 999999, slot(10))
	s.True(ok)

	booked, err := s.bookings.BookedSlots(ctx, t.ID, slot(0), slot(23))
	s.Require().NoError(err)
	s.Equal([]time.Time{slot(10)}, booked)
}

func (s *RepoSuite) TestActiveSlotUniqueness() {
	ctx := context.Background()
	uid := s.newUser("alice")
	t := s.newTurf("Green")

	first, err := s.book(uid, t.ID, slot(10))
	s.Require().NoError(err)
	_, err = s.book(uid, t.ID, slot(10))
	s.ErrorIs(err, ErrDuplicate)

	s.Require().NoError(s.bookings.SetStatus(ctx, first.ID, model.StatusCancelled))
	_, err = s.book(uid, t.ID, slot(10))
	s.Require().NoError(err, "a cancelled booking frees its slot")

	s.Require().NoError(s.bookings.SetStatus(ctx, first.ID, model.StatusCancelled))
	s.ErrorIs(s.bookings.SetStatus(ctx, 999999, model.StatusCancelled), ErrNotFound)
}

func (s *RepoSuite) TestConcurrentInsertsOneWins() {
	uid := s.newUser("alice")
	t := s.newTurf("Green")

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		dups int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tr.Do(context.Background(), func(ctx context.Context) error {
				ok, err := s.bookings.IsSlotAvailable(ctx, t.ID, slot(12))
				if err != nil || !ok {
					return ErrDuplicate
				}
				b := model.Booking{UserID: uid, TurfID: t.ID, BookingTime: slot(12), AmountPaid: decimal.RequireFromString("1000")}
				return s.bookings.Create(ctx, &b)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrDuplicate), errors.Is(err, ErrRetryable):
				dups++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Equal(n-1, dups)
}

func (s *RepoSuite) TestRemoveTurfCascade() {
	ctx := context.Background()
	uid := s.newUser("alice")
	t := s.newTurf("Green")
	other := s.newTurf("Blue")
	_, err := s.book(uid, t.ID, slot(10))
	s.Require().NoError(err)
	_, err = s.book(uid, t.ID, slot(11))
	s.Require().NoError(err)
	_, err = s.book(uid, other.ID, slot(10))
	s.Require().NoError(err)

	err = s.tr.Do(ctx, func(ctx context.Context) error {
		n, err := s.bookings.DeleteByTurf(ctx, t.ID)
		if err != nil {
			return err
		}
		s.EqualValues(2, n)
		return s.turfs.Delete(ctx, t.ID)
	})
	s.Require().NoError(err)

	var left int
	s.Require().NoError(s.db.QueryRow("SELECT COUNT(*) FROM bookings WHERE turf_id=?", t.ID).Scan(&left))
	s.Zero(left)

	rows, err := s.bookings.ReportRows(ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("Blue", rows[0].TurfName)
	s.Equal("alice", rows[0].Username)
}

func (s *RepoSuite) TestListByUserAndReportOrder() {
	ctx := context.Background()
	alice := s.newUser("alice")
	bob := s.newUser("bob")
	t := s.newTurf("Green")
	for _, h := range []int{9, 15, 12} {
		_, err := s.book(alice, t.ID, slot(h))
		s.Require().NoError(err)
	}
	_, err := s.book(bob, t.ID, slot(20))
	s.Require().NoError(err)

	mine, err := s.bookings.ListByUser(ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(mine, 3)
	s.Equal(slot(15), mine[0].BookingTime.UTC())
	s.Equal("Green", mine[0].TurfName)

	top, err := s.bookings.ReportRows(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal("bob", top[0].Username)
}

func (s *RepoSuite) TestSessions() {
	ctx := context.Background()
	uid := s.newUser("alice")

	s.Require().NoError(s.sessions.Store(ctx, uid, "live", time.Now().Add(time.Hour)))
	s.Require().NoError(s.sessions.Store(ctx, uid, "stale", time.Now().Add(-time.Hour)))

	got, err := s.sessions.Validate(ctx, "live")
	s.Require().NoError(err)
	s.Equal(uid, got)

	_, err = s.sessions.Validate(ctx, "stale")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.sessions.Validate(ctx, "missing")
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(s.sessions.Revoke(ctx, "live"))
	_, err = s.sessions.Validate(ctx, "live")
	s.ErrorIs(err, ErrNotFound)
}

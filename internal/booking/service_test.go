package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chachabrian/venue-backend/internal/apperror"
	"github.com/chachabrian/venue-backend/internal/database/databasetest"
	"github.com/chachabrian/venue-backend/internal/models"
	"github.com/chachabrian/venue-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]EventKind, len(n.events))
	for i, e := range n.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.Open(t)
	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)},
	}
	f.svc = NewService(db, zap.NewNop(),
		WithNotifier(f.notifier),
		WithLocation(time.UTC),
		WithClock(f.clock.Now),
	)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	return databasetest.CreateUser(t, f.db, name, models.RoleUser)
}

func (f *fixture) create(t *testing.T, userID uint, date models.Day) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID:     userID,
		Date:       date,
		EventType:  models.EventTypeWedding,
		GuestCount: 120,
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) liveCount(t *testing.T, id uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Booking{}).Where("id = ?", id).Count(&n).Error)
	return n
}

func (f *fixture) historyFor(t *testing.T, id uint) *models.BookingHistory {
	t.Helper()
	entry, err := repository.NewHistoryRepository(f.db).FindByOriginalID(context.Background(), nil, id)
	require.NoError(t, err)
	return entry
}

func claimCount(t *testing.T, db *gorm.DB, date models.Day) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Booking{}).
		Where("date = ? AND status IN ?", date, models.ClaimStatuses).
		Count(&n).Error)
	return n
}

func TestBookingLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := databasetest.CreateUser(t, f.db, "Admin", models.RoleAdmin)
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	date := models.NewDay(2025, 12, 1)

	// 1. first request on a free date takes the claim
	first := f.create(t, alice.ID, date)
	assert.Equal(t, models.BookingStatusPending, first.Status)
	assert.Nil(t, first.WaitlistPosition)
	require.NotNil(t, first.User)
	assert.Equal(t, "Alice", first.User.Name)
	assert.Equal(t, alice.Email, first.User.Email)

	// 2. second user joins the waitlist
	second := f.create(t, bob.ID, date)
	assert.Equal(t, models.BookingStatusWaitlisted, second.Status)
	require.NotNil(t, second.WaitlistPosition)
	assert.Equal(t, 1, *second.WaitlistPosition)

	// 3. admin rejects the claim; it moves to history
	note := "date reserved for maintenance"
	rejected, err := f.svc.ReviewBooking(ctx, ReviewInput{
		BookingID: first.ID,
		AdminID:   admin.ID,
		Status:    models.BookingStatusRejected,
		Note:      &note,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRejected, rejected.Status)
	assert.Zero(t, f.liveCount(t, first.ID))
	entry := f.historyFor(t, first.ID)
	assert.Equal(t, models.HistoryReasonRejected, entry.Reason)
	assert.Equal(t, "Alice", entry.UserName)
	assert.Equal(t, alice.Email, entry.UserEmail)
	require.NotNil(t, entry.ReviewedByID)
	assert.Equal(t, admin.ID, *entry.ReviewedByID)

	// 4. the waitlisted booking can now be promoted
	promoted, err := f.svc.PromoteWaitlistedBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, promoted.Status)
	assert.Nil(t, promoted.WaitlistPosition)

	// 5. owner cancels it
	cancelled, err := f.svc.CancelBooking(ctx, second.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, cancelled.ID)
	assert.Zero(t, f.liveCount(t, second.ID))
	assert.Equal(t, models.HistoryReasonCancelled, f.historyFor(t, second.ID).Reason)

	assert.Equal(t, []EventKind{
		EventCreated,
		EventWaitlisted,
		EventReviewed,
		EventSpotAvailable,
		EventPromoted,
		EventCancelled,
	}, f.notifier.kinds())
}

func TestMovePastBookingsToHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")

	today := f.svc.Today()
	yesterday := f.create(t, alice.ID, today)
	future := f.create(t, bob.ID, today.AddDays(30))

	f.clock.Advance(24 * time.Hour)

	moved, err := f.svc.MovePastBookingsToHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	assert.Zero(t, f.liveCount(t, yesterday.ID))
	entry := f.historyFor(t, yesterday.ID)
	assert.Equal(t, models.HistoryReasonPastDate, entry.Reason)
	assert.Equal(t, models.BookingStatusPending, entry.Status)
	assert.EqualValues(t, 1, f.liveCount(t, future.ID))

	moved, err = f.svc.MovePastBookingsToHistory(ctx)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestMovePastBookingsToHistory_ArchivesEveryStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := f.svc.Today()

	for i := 0; i < 4; i++ {
		f.create(t, f.user(t, fmt.Sprintf("Guest %d", i)).ID, date)
	}
	f.clock.Advance(48 * time.Hour)

	moved, err := f.svc.MovePastBookingsToHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, moved)

	var live int64
	require.NoError(t, f.db.Model(&models.Booking{}).Count(&live).Error)
	assert.Zero(t, live)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "Alice")
	today := f.svc.Today()

	tests := []struct {
		name string
		in   CreateBookingInput
		want error
	}{
		{"missing date", CreateBookingInput{EventType: models.EventTypeWedding, GuestCount: 1}, ErrDateRequired},
		{"missing event type", CreateBookingInput{Date: today, GuestCount: 1}, ErrInvalidEventType},
		{"unknown event type", CreateBookingInput{Date: today, EventType: "BARBECUE", GuestCount: 1}, ErrInvalidEventType},
		{"zero guests", CreateBookingInput{Date: today, EventType: models.EventTypeWedding}, ErrInvalidGuestCount},
		{"past date", CreateBookingInput{Date: today.AddDays(-1), EventType: models.EventTypeWedding, GuestCount: 1}, ErrDateInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.UserID = user.ID
			_, err := f.svc.CreateBooking(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestCreateBooking_SameUserTwiceOnDate(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "Alice")
	date := f.svc.Today().AddDays(10)
	f.create(t, alice.ID, date)

	ok, err := f.svc.CanUserBook(context.Background(), alice.ID, date)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: alice.ID, Date: date, EventType: models.EventTypeReception, GuestCount: 5,
	})
	assert.ErrorIs(t, err, ErrAlreadyBooked)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	ok, err = f.svc.CanUserBook(context.Background(), alice.ID, date.AddDays(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateBooking_WaitlistPositionsIncrease(t *testing.T) {
	f := newFixture(t)
	date := f.svc.Today().AddDays(60)

	f.create(t, f.user(t, "Holder").ID, date)
	for i := 1; i <= 5; i++ {
		b := f.create(t, f.user(t, fmt.Sprintf("Waiter %d", i)).ID, date)
		require.NotNil(t, b.WaitlistPosition)
		assert.Equal(t, i, *b.WaitlistPosition)
	}
}

func TestCreateBooking_ConcurrentRequestsKeepOneClaim(t *testing.T) {
	f := newFixture(t)
	date := f.svc.Today().AddDays(90)

	const n = 8
	users := make([]*models.User, n)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("Racer %d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(context.Background(), CreateBookingInput{
				UserID: users[i].ID, Date: date, EventType: models.EventTypeWedding, GuestCount: 50,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, claimCount(t, f.db, date))

	var positions []int
	require.NoError(t, f.db.Model(&models.Booking{}).
		Where("date = ? AND status = ?", date, models.BookingStatusWaitlisted).
		Order("waitlist_position ASC").
		Pluck("waitlist_position", &positions).Error)
	require.Len(t, positions, n-1)
	for i, p := range positions {
		assert.Equal(t, i+1, p)
	}
}

// insertRivalClaim registers a callback that slips a competing PENDING booking
// for date into the transaction right before the next booking write, as a
// concurrent request would. The rival is written by rivalID. It fires at most
// limit times; limit <= 0 means on every write.
func (f *fixture) insertRivalClaim(t *testing.T, register func(name string, fn func(*gorm.DB)) error, rivalID uint, date models.Day, limit int) *int {
	t.Helper()
	fired := 0
	inserting := false
	err := register("test:rival_claim", func(tx *gorm.DB) {
		if inserting || tx.Statement.Table != "bookings" || (limit > 0 && fired >= limit) {
			return
		}
		inserting = true
		defer func() { inserting = false }()
		fired++
		rival := &models.Booking{
			UserID:     rivalID,
			Date:       date,
			EventType:  models.EventTypeCorporate,
			GuestCount: 10,
			Status:     models.BookingStatusPending,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(rival).Error; err != nil {
			t.Errorf("insert rival claim: %v", err)
		}
	})
	require.NoError(t, err)
	return &fired
}

func beforeCreate(db *gorm.DB) func(string, func(*gorm.DB)) error {
	return db.Callback().Create().Before("gorm:create").Register
}

func beforeUpdate(db *gorm.DB) func(string, func(*gorm.DB)) error {
	return db.Callback().Update().Before("gorm:update").Register
}

func TestCreateBooking_RetriesAfterLosingRace(t *testing.T) {
	f := newFixture(t)
	date := f.svc.Today().AddDays(45)
	alice := f.user(t, "Alice")
	rival := f.user(t, "Rival")

	fired := f.insertRivalClaim(t, beforeCreate(f.db), rival.ID, date, 1)

	b, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: alice.ID, Date: date, EventType: models.EventTypeWedding, GuestCount: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, *fired)
	assert.Equal(t, alice.ID, b.UserID)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Nil(t, b.WaitlistPosition)
	assert.EqualValues(t, 1, claimCount(t, f.db, date))
	assert.Equal(t, []EventKind{EventCreated}, f.notifier.kinds())
}

func TestCreateBooking_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	date := f.svc.Today().AddDays(45)
	alice := f.user(t, "Alice")
	rival := f.user(t, "Rival")

	fired := f.insertRivalClaim(t, beforeCreate(f.db), rival.ID, date, 0)

	_, err := f.svc.CreateBooking(context.Background(), CreateBookingInput{
		UserID: alice.ID, Date: date, EventType: models.EventTypeWedding, GuestCount: 80,
	})
	assert.ErrorIs(t, err, ErrDateContention)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, maxAdmissionAttempts, *fired)
	assert.EqualValues(t, 0, claimCount(t, f.db, date))
	assert.Empty(t, f.notifier.kinds())
}

func TestClaimRaceOnApproveAndPromote(t *testing.T) {
	ctx := context.Background()

	// setup leaves a WAITLISTED booking on a date nobody holds any more.
	setup := func(t *testing.T) (*fixture, *models.Booking, *models.User, models.Day) {
		f := newFixture(t)
		date := f.svc.Today().AddDays(30)
		alice := f.user(t, "Alice")
		holder := f.create(t, alice.ID, date)
		waiting := f.create(t, f.user(t, "Bob").ID, date)
		_, err := f.svc.CancelBooking(ctx, holder.ID, alice.ID)
		require.NoError(t, err)
		return f, waiting, f.user(t, "Rival"), date
	}

	t.Run("approve", func(t *testing.T) {
		f, waiting, rival, date := setup(t)
		admin := databasetest.CreateUser(t, f.db, "Admin", models.RoleAdmin)
		fired := f.insertRivalClaim(t, beforeUpdate(f.db), rival.ID, date, 1)

		_, err := f.svc.ReviewBooking(ctx, ReviewInput{
			BookingID: waiting.ID, AdminID: admin.ID, Status: models.BookingStatusApproved,
		})
		assert.ErrorIs(t, err, ErrDateTaken)
		assert.Equal(t, 1, *fired)

		after, err := f.svc.GetBooking(ctx, waiting.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusWaitlisted, after.Status)
		assert.EqualValues(t, 0, claimCount(t, f.db, date))
	})

	t.Run("promote", func(t *testing.T) {
		f, waiting, rival, date := setup(t)
		fired := f.insertRivalClaim(t, beforeUpdate(f.db), rival.ID, date, 1)

		_, err := f.svc.PromoteWaitlistedBooking(ctx, waiting.ID)
		assert.ErrorIs(t, err, ErrDateTaken)
		assert.Equal(t, 1, *fired)

		after, err := f.svc.GetBooking(ctx, waiting.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusWaitlisted, after.Status)
		require.NotNil(t, after.WaitlistPosition)
		assert.EqualValues(t, 0, claimCount(t, f.db, date))
	})
}

func TestReviewBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ReviewBooking(ctx, ReviewInput{BookingID: 1, AdminID: 1, Status: models.BookingStatusCancelled})
		assert.ErrorIs(t, err, ErrInvalidReview)
	})

	t.Run("missing booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ReviewBooking(ctx, ReviewInput{BookingID: 42, AdminID: 1, Status: models.BookingStatusApproved})
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("approve then approve again", func(t *testing.T) {
		f := newFixture(t)
		admin := databasetest.CreateUser(t, f.db, "Admin", models.RoleAdmin)
		b := f.create(t, f.user(t, "Alice").ID, f.svc.Today().AddDays(5))

		approved, err := f.svc.ReviewBooking(ctx, ReviewInput{BookingID: b.ID, AdminID: admin.ID, Status: models.BookingStatusApproved})
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusApproved, approved.Status)
		require.NotNil(t, approved.ReviewedByID)
		assert.Equal(t, admin.ID, *approved.ReviewedByID)

		_, err = f.svc.ReviewBooking(ctx, ReviewInput{BookingID: b.ID, AdminID: admin.ID, Status: models.BookingStatusApproved})
		assert.ErrorIs(t, err, ErrAlreadyApproved)
	})

	t.Run("approve waitlisted while date is held", func(t *testing.T) {
		f := newFixture(t)
		date := f.svc.Today().AddDays(5)
		f.create(t, f.user(t, "Alice").ID, date)
		waiting := f.create(t, f.user(t, "Bob").ID, date)

		ok, err := f.svc.CanApproveBooking(ctx, waiting.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = f.svc.ReviewBooking(ctx, ReviewInput{BookingID: waiting.ID, AdminID: 1, Status: models.BookingStatusApproved})
		assert.ErrorIs(t, err, ErrDateTaken)
		assert.EqualValues(t, 1, claimCount(t, f.db, date))
	})

	t.Run("approve waitlisted on a free date clears its position", func(t *testing.T) {
		f := newFixture(t)
		date := f.svc.Today().AddDays(5)
		alice := f.user(t, "Alice")
		holder := f.create(t, alice.ID, date)
		waiting := f.create(t, f.user(t, "Bob").ID, date)
		_, err := f.svc.CancelBooking(ctx, holder.ID, alice.ID)
		require.NoError(t, err)

		ok, err := f.svc.CanApproveBooking(ctx, waiting.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		approved, err := f.svc.ReviewBooking(ctx, ReviewInput{BookingID: waiting.ID, AdminID: 1, Status: models.BookingStatusApproved})
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusApproved, approved.Status)
		assert.Nil(t, approved.WaitlistPosition)
	})

	t.Run("reject an approved booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, f.user(t, "Alice").ID, f.svc.Today().AddDays(5))
		_, err := f.svc.ReviewBooking(ctx, ReviewInput{BookingID: b.ID, AdminID: 1, Status: models.BookingStatusApproved})
		require.NoError(t, err)

		_, err = f.svc.ReviewBooking(ctx, ReviewInput{BookingID: b.ID, AdminID: 1, Status: models.BookingStatusRejected})
		require.NoError(t, err)
		assert.Zero(t, f.liveCount(t, b.ID))
		entry := f.historyFor(t, b.ID)
		assert.Equal(t, models.BookingStatusRejected, entry.Status)
	})
}

func TestCancelBooking_NonOwnerIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	mallory := f.user(t, "Mallory")
	b := f.create(t, alice.ID, f.svc.Today().AddDays(3))

	_, err := f.svc.CancelBooking(ctx, b.ID, mallory.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	after, err := f.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, after.Status)
	assert.Equal(t, b.UpdatedAt.Unix(), after.UpdatedAt.Unix())

	_, err = f.svc.CancelBooking(ctx, 9999, alice.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_ArchiveIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	b := f.create(t, alice.ID, f.svc.Today().AddDays(3))

	// A history row for this booking already exists, so the archive insert fails
	// and the delete must roll back with it.
	require.NoError(t, f.db.Create(&models.BookingHistory{
		OriginalBookingID: b.ID,
		UserID:            alice.ID,
		Date:              b.Date,
		EventType:         b.EventType,
		GuestCount:        b.GuestCount,
		Status:            models.BookingStatusCancelled,
		Reason:            models.HistoryReasonCancelled,
		MovedToHistoryAt:  f.clock.Now(),
	}).Error)

	_, err := f.svc.CancelBooking(ctx, b.ID, alice.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.EqualValues(t, 1, f.liveCount(t, b.ID))
}

func TestPromoteWaitlistedBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("date still held", func(t *testing.T) {
		f := newFixture(t)
		date := f.svc.Today().AddDays(7)
		f.create(t, f.user(t, "Alice").ID, date)
		waiting := f.create(t, f.user(t, "Bob").ID, date)

		_, err := f.svc.PromoteWaitlistedBooking(ctx, waiting.ID)
		assert.ErrorIs(t, err, ErrDateTaken)
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

		after, err := f.svc.GetBooking(ctx, waiting.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusWaitlisted, after.Status)
		require.NotNil(t, after.WaitlistPosition)
		assert.Equal(t, 1, *after.WaitlistPosition)
	})

	t.Run("not waitlisted", func(t *testing.T) {
		f := newFixture(t)
		b := f.create(t, f.user(t, "Alice").ID, f.svc.Today().AddDays(7))

		_, err := f.svc.PromoteWaitlistedBooking(ctx, b.ID)
		assert.ErrorIs(t, err, ErrNotWaitlisted)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.PromoteWaitlistedBooking(ctx, 77)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("positions are not compacted", func(t *testing.T) {
		f := newFixture(t)
		date := f.svc.Today().AddDays(7)
		alice := f.user(t, "Alice")
		holder := f.create(t, alice.ID, date)
		w1 := f.create(t, f.user(t, "Bob").ID, date)
		w2 := f.create(t, f.user(t, "Carol").ID, date)

		_, err := f.svc.CancelBooking(ctx, holder.ID, alice.ID)
		require.NoError(t, err)
		_, err = f.svc.PromoteWaitlistedBooking(ctx, w1.ID)
		require.NoError(t, err)

		after, err := f.svc.GetBooking(ctx, w2.ID)
		require.NoError(t, err)
		require.NotNil(t, after.WaitlistPosition)
		assert.Equal(t, 2, *after.WaitlistPosition)

		w3 := f.create(t, f.user(t, "Dave").ID, date)
		require.NotNil(t, w3.WaitlistPosition)
		assert.Equal(t, 3, *w3.WaitlistPosition)
	})
}

func TestSpotAvailableGoesToWaitlistHead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := f.svc.Today().AddDays(20)
	alice := f.user(t, "Alice")
	holder := f.create(t, alice.ID, date)
	head := f.create(t, f.user(t, "Bob").ID, date)
	f.create(t, f.user(t, "Carol").ID, date)

	_, err := f.svc.CancelBooking(ctx, holder.ID, alice.ID)
	require.NoError(t, err)

	f.notifier.mu.Lock()
	last := f.notifier.events[len(f.notifier.events)-1]
	f.notifier.mu.Unlock()
	assert.Equal(t, EventSpotAvailable, last.Kind)
	assert.Equal(t, head.ID, last.Booking.ID)
	require.NotNil(t, last.Booking.User)
	assert.Equal(t, "Bob", last.Booking.User.Name)
}

func TestGetCalendarDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := models.NewDay(2025, 12, 1)
	end := models.NewDay(2025, 12, 3)

	f.create(t, f.user(t, "Alice").ID, models.NewDay(2025, 12, 2))
	f.create(t, f.user(t, "Bob").ID, models.NewDay(2025, 12, 2))
	f.create(t, f.user(t, "Carol").ID, models.NewDay(2025, 12, 2))
	f.create(t, f.user(t, "Dave").ID, models.NewDay(2025, 12, 4))

	days, err := f.svc.GetCalendarDates(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2025-12-01", days[0].Date.String())
	assert.True(t, days[0].IsAvailable)
	assert.Nil(t, days[0].Status)
	assert.Zero(t, days[0].WaitlistCount)

	assert.False(t, days[1].IsAvailable)
	require.NotNil(t, days[1].Status)
	assert.Equal(t, models.BookingStatusPending, *days[1].Status)
	assert.Equal(t, 2, days[1].WaitlistCount)

	assert.True(t, days[2].IsAvailable)

	_, err = f.svc.GetCalendarDates(ctx, end, start)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = f.svc.GetCalendarDates(ctx, start, start.AddDays(400))
	assert.ErrorIs(t, err, ErrInvalidRange)

	year, err := f.svc.GetCalendarDates(ctx, start, start.AddDays(maxCalendarSpan-1))
	require.NoError(t, err)
	assert.Len(t, year, maxCalendarSpan)

	_, err = f.svc.GetCalendarDates(ctx, start, start.AddDays(maxCalendarSpan))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestListBookingsAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "Alice")
	bob := f.user(t, "Bob")
	a1 := f.create(t, alice.ID, f.svc.Today().AddDays(1))
	f.create(t, alice.ID, f.svc.Today().AddDays(2))
	f.create(t, bob.ID, f.svc.Today().AddDays(1))

	own, total, err := f.svc.ListBookings(ctx, repository.BookingFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, own, 2)

	waitlisted, _, err := f.svc.ListBookings(ctx, repository.BookingFilter{Status: models.BookingStatusWaitlisted})
	require.NoError(t, err)
	require.Len(t, waitlisted, 1)
	assert.Equal(t, bob.ID, waitlisted[0].UserID)

	_, err = f.svc.CancelBooking(ctx, a1.ID, alice.ID)
	require.NoError(t, err)

	history, total, err := f.svc.ListHistory(ctx, repository.HistoryFilter{Reason: models.HistoryReasonCancelled})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, history, 1)
	assert.Equal(t, a1.ID, history[0].OriginalBookingID)
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentora/internal/app/outbox"
	"rentora/internal/app/uow"
	domainauth "rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	"rentora/internal/domain/shared/daterange"
	domainuser "rentora/internal/domain/user"
	infraoutbox "rentora/internal/infra/outbox"
)

var created = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func pending(id domainbooking.ID, offset time.Duration) *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         id,
		PropertyID: "prop-1",
		RenterID:   "renter-1",
		Range:      daterange.MustParse("2025-06-01", "2025-07-01"),
		Status:     domainbooking.StatusPending,
		CreatedAt:  created.Add(offset),
	}
}

func TestBookingRepositoryCommitTransition(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		expected domainbooking.Status
		guard    func(snap domainbooking.Snapshot) *domainbooking.Guard
		wantErr  error
		version  int64
	}{
		{
			name:     "guarded commit bumps ledger",
			expected: domainbooking.StatusPending,
			guard: func(snap domainbooking.Snapshot) *domainbooking.Guard {
				return &domainbooking.Guard{PropertyID: snap.PropertyID, Version: snap.Version}
			},
			version: 1,
		},
		{
			name:     "unguarded commit leaves ledger",
			expected: domainbooking.StatusPending,
			version:  0,
		},
		{
			name:     "stale status",
			expected: domainbooking.StatusApproved,
			wantErr:  domainbooking.ErrStaleSnapshot,
			version:  0,
		},
		{
			name:     "stale ledger version",
			expected: domainbooking.StatusPending,
			guard: func(snap domainbooking.Snapshot) *domainbooking.Guard {
				return &domainbooking.Guard{PropertyID: snap.PropertyID, Version: snap.Version + 5}
			},
			wantErr: domainbooking.ErrStaleSnapshot,
			version: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewBookingRepository()
			require.NoError(t, repo.Create(ctx, pending("b-1", 0)))

			snap, err := repo.Snapshot(ctx, "prop-1")
			require.NoError(t, err)
			require.Len(t, snap.Bookings, 1)

			b := snap.Bookings[0]
			b.Status = domainbooking.StatusApproved
			var guard *domainbooking.Guard
			if tt.guard != nil {
				guard = tt.guard(snap)
			}
			err = repo.CommitTransition(ctx, b, tt.expected, guard)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				stored, err := repo.ByID(ctx, "b-1")
				require.NoError(t, err)
				assert.Equal(t, domainbooking.StatusApproved, stored.Status)
				assert.Equal(t, int64(2), stored.Version)
			}

			after, err := repo.Snapshot(ctx, "prop-1")
			require.NoError(t, err)
			assert.Equal(t, tt.version, after.Version)
		})
	}
}

func TestBookingRepositoryListsAndIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	second := pending("b-2", time.Hour)
	second.RenterID = "renter-2"
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, pending("b-1", 0)))
	assert.ErrorIs(t, repo.Create(ctx, pending("b-1", 0)), ErrBookingExists)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domainbooking.ID("b-1"), all[0].ID, "oldest first")

	mine, err := repo.ListByRenter(ctx, "renter-2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domainbooking.ID("b-2"), mine[0].ID)

	none, err := repo.ListByProperties(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	// callers get copies
	all[0].Status = domainbooking.StatusCancelled
	stored, err := repo.ByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestUnitPublishesOutboxOnCommitOnly(t *testing.T) {
	ctx := context.Background()
	factory := NewFactory()
	box := NewOutboxStore()
	factory.Outbox = box

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.requested", OccurredAt: created}))
	assert.Empty(t, box.Records())
	require.NoError(t, unit.Commit(ctx))
	require.Len(t, box.Records(), 1)

	unit, err = factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "evt-2", Name: "booking.approved", OccurredAt: created}))
	require.NoError(t, unit.Rollback(ctx))
	assert.Len(t, box.Records(), 1)

	_, err = Factory{}.Begin(ctx, uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)
}

func TestOutboxStoreClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	box := NewOutboxStore()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.requested", OccurredAt: created}))
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "evt-1", Name: "booking.requested", OccurredAt: created}))
	require.Len(t, box.Records(), 1, "duplicate ids are ignored")

	require.NoError(t, box.Flush(ctx))
	select {
	case <-box.Wake():
	default:
		t.Fatal("flush did not wake the relay")
	}

	doc, err := box.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "worker-1", doc.ClaimedBy)

	again, err := box.Claim(ctx, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, again, "claimed records are not handed out twice")

	require.NoError(t, box.MarkFailed(ctx, doc.ID, time.Now().Add(time.Hour), "broker down"))
	later, err := box.Claim(ctx, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, later, "failed records wait for their next attempt")

	require.NoError(t, box.MarkFailed(ctx, doc.ID, time.Now().Add(-time.Second), "broker down"))
	retry, err := box.Claim(ctx, "worker-2")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 2, retry.Attempts)

	require.NoError(t, box.MarkSent(ctx, retry.ID))
	assert.Equal(t, infraoutbox.StateSent, box.Records()[0].State)
}

func TestSessionStoreDeleteByUser(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	for _, token := range []domainauth.Token{"t-1", "t-2"} {
		require.NoError(t, store.Save(ctx, &domainauth.Session{Token: token, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}))
	}
	require.NoError(t, store.Save(ctx, &domainauth.Session{Token: "t-3", UserID: "user-2", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, store.DeleteByUser(ctx, "user-1"))
	_, err := store.Get(ctx, "t-1")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	_, err = store.Get(ctx, "t-3")
	assert.NoError(t, err)
}

func TestUserRepositoryEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	first, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-1", Email: "A@rentora.test", Name: "A", PasswordHash: "x", Role: domainuser.RoleRenter, CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	dup, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-2", Email: "a@rentora.test", Name: "B", PasswordHash: "x", Role: domainuser.RoleOwner, CreatedAt: created})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), domainuser.ErrEmailAlreadyUsed)

	found, err := repo.ByEmail(ctx, "a@RENTORA.test")
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("u-1"), found.ID)

	require.NoError(t, repo.Delete(ctx, "u-1"))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInboxSeenAndRelease(t *testing.T) {
	ctx := context.Background()
	inbox := NewInbox()
	seen, err := inbox.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = inbox.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	require.NoError(t, inbox.Release(ctx, "evt-1"))
	seen, err = inbox.Seen(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestSessionStorePruneExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	at := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	for token, expires := range map[domainauth.Token]time.Time{
		"stale":    at.Add(-time.Minute),
		"boundary": at,
		"fresh":    at.Add(time.Minute),
	} {
		require.NoError(t, store.Save(ctx, &domainauth.Session{Token: token, UserID: "user-1", ExpiresAt: expires}))
	}

	assert.Equal(t, 2, store.PruneExpired(at))
	assert.Equal(t, 0, store.PruneExpired(at))
	_, err := store.Get(ctx, "fresh")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "boundary")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	assert.ErrorIs(t, store.Save(ctx, &domainauth.Session{UserID: "user-1"}), domainauth.ErrTokenRequired)
}

func TestUserRepositoryEmailChangeMovesIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	u, err := domainuser.NewUser(domainuser.CreateParams{ID: "u-1", Email: "old@rentora.test", Name: "A", PasswordHash: "x", Role: domainuser.RoleRenter, CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	u.Email = "new@rentora.test"
	require.NoError(t, repo.Save(ctx, u))
	_, err = repo.ByEmail(ctx, "old@rentora.test")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
	found, err := repo.ByEmail(ctx, "NEW@rentora.test")
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("u-1"), found.ID)

	found.Name = "mutated"
	again, err := repo.ByID(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name, "returned users are copies")
}

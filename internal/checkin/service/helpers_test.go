package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC) // a Wednesday

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

type fixture struct {
	store    *sqlite.Store
	clock    *fakeClock
	keys     *KeyRotator
	bindings *BindingStore
	tracker  *AttendanceTracker
	sessions *SessionAuthorizer
}

// newFixture wires the services over an in-memory store. The live key is
// "0007", issued at testEpoch.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	st := newTestStore(t)
	clock := newFakeClock(testEpoch)
	logger := discardLogger()

	keys := newFixedRotator(t, clock, "0007")

	bindings, err := NewBindingStore(ctx, st, logger, nil)
	require.NoError(t, err)
	bindings.Now = clock.Now

	tracker := &AttendanceTracker{
		Store:    st,
		Bindings: bindings,
		Logger:   logger,
		Now:      clock.Now,
	}

	return &fixture{
		store:    st,
		clock:    clock,
		keys:     keys,
		bindings: bindings,
		tracker:  tracker,
		sessions: &SessionAuthorizer{
			Keys:       keys,
			Bindings:   bindings,
			Attendance: tracker,
			Logger:     logger,
		},
	}
}

func newFixedRotator(t *testing.T, clock *fakeClock, code string) *KeyRotator {
	t.Helper()

	source := CodeSourceFunc(func(time.Time) (string, error) { return code, nil })
	keys, err := NewKeyRotator(source, time.Minute, time.Minute, discardLogger())
	require.NoError(t, err)

	keys.Now = clock.Now
	_, err = keys.Rotate()
	require.NoError(t, err)
	return keys
}

func (f *fixture) login(t *testing.T, identity, device string) LoginResult {
	t.Helper()
	res, err := f.sessions.Login(context.Background(), LoginRequest{Identity: identity, Key: "0007", Device: device})
	require.NoError(t, err)
	return res
}

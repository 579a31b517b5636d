package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paxdown/internal/catalog"
	"paxdown/internal/store"
)

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	mu       sync.Mutex
	tracking *store.Tracking
	channel  string
	failSet  bool
}

func (s *fakeStore) TrackedEvent() (*store.Tracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracking == nil {
		return nil, nil
	}
	cp := *s.tracking
	return &cp, nil
}

func (s *fakeStore) SetTrackedEvent(t *store.Tracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("store unavailable")
	}
	s.tracking = t
	return nil
}

func (s *fakeStore) ChannelID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel, nil
}

func (s *fakeStore) SetChannelID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = id
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeRenamer records rename calls and can be told to fail.
type fakeRenamer struct {
	mu    sync.Mutex
	names []string
	fail  bool
}

func (r *fakeRenamer) Rename(_ context.Context, _, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("channel gone")
	}
	r.names = append(r.names, name)
	return nil
}

func (r *fakeRenamer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// anchor of east tracked from 2026-04-10 with a UTC catalog.
var eastAnchor = time.Date(2026, time.April, 10, 10, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T, now time.Time) (*Tracker, *fakeStore, *fakeRenamer, *fakeClock) {
	t.Helper()

	cat, err := catalog.Load(func(string) (*time.Location, error) { return time.UTC, nil })
	require.NoError(t, err)

	st := &fakeStore{channel: "314"}
	rn := &fakeRenamer{}
	clk := &fakeClock{now: now}

	tr := New(cat, st, rn, WithClock(clk.Now), WithTickSpec("@every 1h"))
	t.Cleanup(tr.Close)
	return tr, st, rn, clk
}

func TestTrackNormalizesEventID(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))

	require.NoError(t, tr.Track("EAST", "2026-04-10"))

	require.NotNil(t, st.tracking)
	assert.Equal(t, "east", st.tracking.Event)
	assert.Equal(t, []string{"PAX East: 10 days"}, rn.calls())
}

func TestTrackUnknownEventLeavesStateAlone(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-time.Hour))
	require.NoError(t, tr.Track("east", "2026-04-10"))

	err := tr.Track("prime", "2026-04-10")
	assert.ErrorIs(t, err, catalog.ErrUnknownEvent)

	// Still tracking east, no extra display update.
	assert.Equal(t, "east", st.tracking.Event)
	assert.Len(t, rn.calls(), 1)
}

func TestTrackInvalidDate(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-time.Hour))

	for _, date := range []string{"04/10/2026", "2026-4-10", "tomorrow", ""} {
		err := tr.Track("east", date)
		assert.ErrorIs(t, err, ErrInvalidDate, "date %q", date)
	}
	assert.Nil(t, st.tracking)
	assert.Empty(t, rn.calls())
}

func TestTickSuppressesRedundantUpdates(t *testing.T) {
	tr, _, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	require.NoError(t, tr.Track("east", "2026-04-10"))
	require.Len(t, rn.calls(), 1)

	// No time passed: the rendered string is identical, so no call.
	tr.Tick()
	tr.Tick()
	assert.Len(t, rn.calls(), 1)
}

func TestTickUpdatesWhenStringChanges(t *testing.T) {
	tr, _, rn, clk := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	require.NoError(t, tr.Track("east", "2026-04-10"))

	clk.Set(eastAnchor.Add(-9 * 24 * time.Hour))
	tr.Tick()
	assert.Equal(t, []string{"PAX East: 10 days", "PAX East: 9 days"}, rn.calls())
}

func TestTickOutOfHoursIsSilent(t *testing.T) {
	// Exactly at the opening instant: start-exclusive, so out of hours.
	tr, _, rn, clk := newTestTracker(t, eastAnchor)
	require.NoError(t, tr.Track("east", "2026-04-10"))
	assert.Empty(t, rn.calls())

	// One second in: welcome label.
	clk.Set(eastAnchor.Add(time.Second))
	tr.Tick()
	assert.Equal(t, []string{"PAX East: Welcome Home!"}, rn.calls())

	// Overnight gap: label untouched.
	clk.Set(eastAnchor.Add(18 * time.Hour))
	tr.Tick()
	assert.Len(t, rn.calls(), 1)
}

func TestCompletionClearsTrackingAndStops(t *testing.T) {
	// Final day closing instant: exactly 100%.
	done := time.Date(2026, time.April, 13, 19, 0, 0, 0, time.UTC)
	tr, st, rn, _ := newTestTracker(t, done)

	require.NoError(t, tr.Track("east", "2026-04-10"))

	assert.Equal(t, []string{"PAX East: 100% Complete"}, rn.calls())
	assert.Nil(t, st.tracking)
	assert.False(t, tr.Snapshot().Tracking)

	// Further ticks are no-ops.
	tr.Tick()
	assert.Len(t, rn.calls(), 1)
}

func TestNinetyNinePercentDoesNotComplete(t *testing.T) {
	almost := time.Date(2026, time.April, 13, 18, 30, 0, 0, time.UTC)
	tr, st, _, _ := newTestTracker(t, almost)

	require.NoError(t, tr.Track("east", "2026-04-10"))

	snap := tr.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Equal(t, 99, snap.Phase.Percent)
	assert.NotNil(t, st.tracking)
}

func TestStopIssuesGoodbye(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	require.NoError(t, tr.Track("east", "2026-04-10"))

	require.NoError(t, tr.Stop())
	assert.Nil(t, st.tracking)
	assert.Equal(t, []string{"PAX East: 10 days", "PAX East: See You Next Time!"}, rn.calls())
}

func TestStopWhileIdle(t *testing.T) {
	tr, _, rn, _ := newTestTracker(t, eastAnchor)

	err := tr.Stop()
	assert.ErrorIs(t, err, ErrNoTracking)
	assert.Empty(t, rn.calls())
}

func TestRestorePicksUpPersistedTracking(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-48*time.Hour))
	st.tracking = &store.Tracking{Event: "EAST", StartDate: "2026-04-10"}

	require.NoError(t, tr.Restore())

	snap := tr.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Equal(t, "east", snap.Event)
	assert.Equal(t, []string{"PAX East: ⚠ 2 days ⚠"}, rn.calls())
}

func TestRestoreDiscardsElapsedEvent(t *testing.T) {
	// A week past the final closing instant.
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(10*24*time.Hour))
	st.tracking = &store.Tracking{Event: "east", StartDate: "2026-04-10"}

	require.NoError(t, tr.Restore())

	assert.Nil(t, st.tracking)
	assert.False(t, tr.Snapshot().Tracking)
	assert.Empty(t, rn.calls())
}

func TestRestoreDiscardsCorruptRecord(t *testing.T) {
	tr, st, _, _ := newTestTracker(t, eastAnchor)
	st.tracking = &store.Tracking{Event: "east", StartDate: "next friday"}

	require.NoError(t, tr.Restore())
	assert.Nil(t, st.tracking)

	st.tracking = &store.Tracking{Event: "medieval-times", StartDate: "2026-04-10"}
	require.NoError(t, tr.Restore())
	assert.Nil(t, st.tracking)
}

func TestRestoreNothingPersisted(t *testing.T) {
	tr, _, rn, _ := newTestTracker(t, eastAnchor)
	require.NoError(t, tr.Restore())
	assert.False(t, tr.Snapshot().Tracking)
	assert.Empty(t, rn.calls())
}

func TestRestoreClearedRecordStopsTracking(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	require.NoError(t, tr.Track("east", "2026-04-10"))

	// Another process cleared the record; reload behaves like a stop.
	st.tracking = nil
	require.NoError(t, tr.Restore())

	assert.False(t, tr.Snapshot().Tracking)
	assert.Equal(t, "PAX East: See You Next Time!", rn.calls()[len(rn.calls())-1])
}

func TestFailedRenameRetriesNextTick(t *testing.T) {
	tr, _, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	rn.fail = true

	// The failure is logged, not returned: tracking still starts.
	require.NoError(t, tr.Track("east", "2026-04-10"))
	assert.True(t, tr.Snapshot().Tracking)
	assert.Empty(t, rn.calls())

	// Name was never displayed, so the next tick tries again.
	rn.fail = false
	tr.Tick()
	assert.Equal(t, []string{"PAX East: 10 days"}, rn.calls())
}

func TestNoChannelConfigured(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	st.channel = ""

	require.NoError(t, tr.Track("east", "2026-04-10"))
	assert.Empty(t, rn.calls())

	// Setting a channel pushes the pending label immediately.
	require.NoError(t, tr.SetChannel("628"))
	assert.Equal(t, []string{"PAX East: 10 days"}, rn.calls())
}

func TestTrackPersistFailureLeavesStateAlone(t *testing.T) {
	tr, st, rn, _ := newTestTracker(t, eastAnchor.Add(-10*24*time.Hour))
	st.failSet = true

	err := tr.Track("east", "2026-04-10")
	require.Error(t, err)
	assert.False(t, tr.Snapshot().Tracking)
	assert.Empty(t, rn.calls())
}

// Package tracker owns the countdown lifecycle: one tracked event, one
// periodic tick, one channel label to keep current. All state lives
// behind a single mutex; the cron timer is created when tracking starts
// and fully retired when it stops, so a stale timer can never re-arm
// after a reset.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"paxdown/internal/catalog"
	"paxdown/internal/phase"
	"paxdown/internal/status"
	"paxdown/internal/store"
)

// DateFormat is the only accepted form for event start dates.
const DateFormat = "2006-01-02"

const renameTimeout = 10 * time.Second

var (
	// ErrInvalidDate reports a start date that fails the strict parse.
	ErrInvalidDate = errors.New("invalid date")
	// ErrNoTracking reports an operation that needs a tracked event
	// when none is configured.
	ErrNoTracking = errors.New("no event is being tracked")
)

// Renamer is the external display surface: it renames the target
// channel. The tracker bounds each call with a timeout and logs
// failures without retrying.
type Renamer interface {
	Rename(ctx context.Context, channelID, name string) error
}

// active is the in-memory view of the persisted tracking record.
type active struct {
	def    *catalog.Definition
	anchor time.Time
	record store.Tracking
}

// Tracker is the countdown state machine.
type Tracker struct {
	catalog *catalog.Catalog
	store   store.Store
	renamer Renamer

	now      func() time.Time
	tickSpec string

	mu       sync.Mutex
	cron     *cron.Cron
	tracking *active
	lastName string
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock substitutes the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithTickSpec overrides the cron schedule driving ticks.
func WithTickSpec(spec string) Option {
	return func(t *Tracker) { t.tickSpec = spec }
}

// New creates an idle tracker. Call Restore to pick up persisted state.
func New(cat *catalog.Catalog, st store.Store, renamer Renamer, opts ...Option) *Tracker {
	t := &Tracker{
		catalog:  cat,
		store:    st,
		renamer:  renamer,
		now:      time.Now,
		tickSpec: "@every 1m",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track starts tracking eventID anchored at the given start date. The
// event id is matched case-insensitively; the date must be yyyy-mm-dd.
// Invalid input leaves any current tracking untouched. On success the
// record is persisted, the timer armed, and one tick runs immediately.
func (t *Tracker) Track(eventID, date string) error {
	id := strings.ToLower(eventID)
	def, err := t.catalog.Lookup(id)
	if err != nil {
		return err
	}

	day, err := time.Parse(DateFormat, date)
	if err != nil {
		return fmt.Errorf("%w: %q (use yyyy-mm-dd)", ErrInvalidDate, date)
	}

	rec := store.Tracking{Event: id, StartDate: date}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SetTrackedEvent(&rec); err != nil {
		return fmt.Errorf("persisting tracking: %w", err)
	}

	t.tracking = &active{
		def:    def,
		anchor: def.Anchor(day.Year(), day.Month(), day.Day()),
		record: rec,
	}
	t.lastName = ""
	t.armLocked()
	log.Printf("[tracker] tracking %s starting %s (anchor %s)", id, date, t.tracking.anchor)

	t.tickLocked()
	return nil
}

// Stop cancels tracking: timer retired, persisted record cleared, and a
// final goodbye label pushed to the channel.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tracking == nil {
		return ErrNoTracking
	}

	id := t.tracking.record.Event
	t.disarmLocked()
	if err := t.store.SetTrackedEvent(nil); err != nil {
		return fmt.Errorf("clearing tracking: %w", err)
	}
	t.tracking = nil
	t.lastName = ""

	t.renameLocked(status.Goodbye(id))
	log.Printf("[tracker] stopped tracking %s", id)
	return nil
}

// Restore reconciles in-memory state with the persisted record. Called
// once at boot and again on reload signals. A record whose event window
// has fully elapsed is discarded; a cleared record while tracking is
// treated as a stop issued from outside this process.
func (t *Tracker) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.store.TrackedEvent()
	if err != nil {
		return fmt.Errorf("loading tracking: %w", err)
	}

	if rec == nil {
		if t.tracking != nil {
			id := t.tracking.record.Event
			t.disarmLocked()
			t.tracking = nil
			t.lastName = ""
			t.renameLocked(status.Goodbye(id))
			log.Printf("[tracker] tracking cleared externally, stopped %s", id)
		}
		return nil
	}

	id := strings.ToLower(rec.Event)
	def, err := t.catalog.Lookup(id)
	if err != nil {
		// A record referencing an unknown event cannot be acted on;
		// drop it rather than wedging every future restore.
		log.Printf("[tracker] discarding persisted tracking: %v", err)
		return t.discardLocked()
	}

	day, err := time.Parse(DateFormat, rec.StartDate)
	if err != nil {
		log.Printf("[tracker] discarding persisted tracking: bad date %q", rec.StartDate)
		return t.discardLocked()
	}

	anchor := def.Anchor(day.Year(), day.Month(), day.Day())
	if !t.now().Before(phase.FinalEnd(def, anchor)) {
		log.Printf("[tracker] persisted tracking for %s already over, discarding", id)
		return t.discardLocked()
	}

	t.tracking = &active{def: def, anchor: anchor, record: store.Tracking{Event: id, StartDate: rec.StartDate}}
	t.lastName = ""
	t.armLocked()
	log.Printf("[tracker] restored tracking %s starting %s", id, rec.StartDate)

	t.tickLocked()
	return nil
}

// discardLocked drops both the in-memory and persisted tracking state
// without a goodbye update.
func (t *Tracker) discardLocked() error {
	t.disarmLocked()
	t.tracking = nil
	t.lastName = ""
	return t.store.SetTrackedEvent(nil)
}

// SetChannel persists a new target channel and, when tracking, pushes
// the current label to it right away.
func (t *Tracker) SetChannel(channelID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.SetChannelID(channelID); err != nil {
		return fmt.Errorf("persisting channel: %w", err)
	}
	t.lastName = ""
	if t.tracking != nil {
		t.tickLocked()
	}
	return nil
}

// Snapshot describes the tracker for status display.
type Snapshot struct {
	Tracking  bool
	Event     string
	StartDate string
	Phase     phase.Phase
	Name      string
}

// Snapshot returns the current tracking state and the label the next
// tick would render.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tracking == nil {
		return Snapshot{}
	}
	p := phase.Classify(t.tracking.def, t.tracking.anchor, t.now())
	name, _ := status.Render(t.tracking.record.Event, p)
	return Snapshot{
		Tracking:  true,
		Event:     t.tracking.record.Event,
		StartDate: t.tracking.record.StartDate,
		Phase:     p,
		Name:      name,
	}
}

// Tick recomputes the phase and pushes the label if it changed. Safe to
// call while idle (no-op). This is the cron entry point; the cron chain
// guarantees ticks never overlap.
func (t *Tracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tickLocked()
}

func (t *Tracker) tickLocked() {
	if t.tracking == nil {
		return
	}

	p := phase.Classify(t.tracking.def, t.tracking.anchor, t.now())
	name, ok := status.Render(t.tracking.record.Event, p)
	if !ok {
		// Out of hours: leave the label alone entirely.
		return
	}

	if name != t.lastName {
		if t.renameLocked(name) {
			t.lastName = name
		}
	}

	if p.Kind == phase.Completed {
		id := t.tracking.record.Event
		t.disarmLocked()
		t.tracking = nil
		if err := t.store.SetTrackedEvent(nil); err != nil {
			log.Printf("[tracker] clearing completed tracking: %v", err)
		}
		log.Printf("[tracker] %s complete, tracking cleared", id)
	}
}

// renameLocked pushes name to the configured channel. Failures are
// logged and reported via the return value so the caller can decide
// whether to remember the name as displayed.
func (t *Tracker) renameLocked(name string) bool {
	channelID, err := t.store.ChannelID()
	if err != nil {
		log.Printf("[tracker] reading channel id: %v", err)
		return false
	}
	if channelID == "" {
		log.Printf("[tracker] no channel configured, skipping update %q", name)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), renameTimeout)
	defer cancel()
	if err := t.renamer.Rename(ctx, channelID, name); err != nil {
		log.Printf("[tracker] display update failed: %v", err)
		return false
	}
	log.Printf("[tracker] channel %s renamed to %q", channelID, name)
	return true
}

// armLocked starts the periodic tick, replacing any previous timer.
func (t *Tracker) armLocked() {
	t.disarmLocked()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(t.tickSpec, t.Tick); err != nil {
		// The schedule string comes from config; a bad one means no
		// automatic ticking, which must not take the tracker down.
		log.Printf("[tracker] invalid tick schedule %q: %v", t.tickSpec, err)
		return
	}
	c.Start()
	t.cron = c
}

// disarmLocked retires the timer: no new ticks get scheduled. A tick
// that already fired and is waiting on the mutex finds tracking nil and
// does nothing, so we never block here waiting for it.
func (t *Tracker) disarmLocked() {
	if t.cron == nil {
		return
	}
	t.cron.Stop()
	t.cron = nil
}

// Close retires the timer without touching persisted state. For process
// shutdown.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

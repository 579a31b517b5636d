// Package catalog holds the static registry of PAX event definitions.
// Definitions are compiled in, validated once at load time, and never
// mutated afterwards. Event ids are case-insensitive; callers get back
// the canonical lowercase id.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownEvent is returned by Lookup for ids not in the catalog.
var ErrUnknownEvent = errors.New("unknown event")

// Clock is a time-of-day at second granularity, interpreted in the
// owning definition's timezone.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// Seconds returns the clock as seconds since local midnight.
func (c Clock) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Definition describes one recurring event: where it happens, how many
// days it runs, and the daily active window.
type Definition struct {
	ID       string
	Timezone string // IANA zone id
	Days     int    // calendar days the event runs
	Start    Clock  // doors open, every day
	End      Clock  // doors close, every day except the last
	LastEnd  Clock  // doors close on the final day

	loc *time.Location
}

// Location returns the resolved timezone. Only valid after the owning
// catalog has been loaded.
func (d *Definition) Location() *time.Location {
	return d.loc
}

// Anchor returns the event's start instant for a given first day.
func (d *Definition) Anchor(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, d.Start.Hour, d.Start.Minute, d.Start.Second, 0, d.loc)
}

// Resolver turns an IANA timezone id into a location. Tests substitute
// fixed zones; production uses time.LoadLocation.
type Resolver func(name string) (*time.Location, error)

// Catalog is the validated, read-only set of event definitions.
type Catalog struct {
	defs map[string]*Definition
}

// definitions mirrors the event lineup of the original deployment.
var definitions = []Definition{
	{ID: "east", Timezone: "America/New_York", Days: 4, Start: Clock{Hour: 10}, End: Clock{Hour: 23, Minute: 59, Second: 59}, LastEnd: Clock{Hour: 19}},
	{ID: "west", Timezone: "America/Los_Angeles", Days: 4, Start: Clock{Hour: 9, Minute: 30}, End: Clock{Hour: 23, Minute: 59, Second: 59}, LastEnd: Clock{Hour: 19}},
	{ID: "south", Timezone: "America/Chicago", Days: 3, Start: Clock{Hour: 10}, End: Clock{Hour: 23, Minute: 59, Second: 59}, LastEnd: Clock{Hour: 19}},
	{ID: "unplugged", Timezone: "America/New_York", Days: 3, Start: Clock{Hour: 10}, End: Clock{Hour: 23, Minute: 59, Second: 59}, LastEnd: Clock{Hour: 19}},
	{ID: "aus", Timezone: "Australia/Melbourne", Days: 3, Start: Clock{Hour: 10}, End: Clock{Hour: 23}, LastEnd: Clock{Hour: 19}},
}

// Load builds the catalog from the compiled-in definitions, resolving
// timezones through resolve (nil means time.LoadLocation). A definition
// that violates an invariant makes Load fail; a catalog that cannot
// compute durations must not come up at all.
func Load(resolve Resolver) (*Catalog, error) {
	if resolve == nil {
		resolve = time.LoadLocation
	}

	defs := make(map[string]*Definition, len(definitions))
	for i := range definitions {
		def := definitions[i] // copy; the package-level slice stays pristine
		def.ID = strings.ToLower(def.ID)

		if err := validate(&def); err != nil {
			return nil, fmt.Errorf("event %q misconfigured: %w", def.ID, err)
		}

		loc, err := resolve(def.Timezone)
		if err != nil {
			return nil, fmt.Errorf("event %q misconfigured: timezone %q: %w", def.ID, def.Timezone, err)
		}
		def.loc = loc
		defs[def.ID] = &def
	}

	return &Catalog{defs: defs}, nil
}

func validate(def *Definition) error {
	if def.Days < 1 {
		return fmt.Errorf("day count %d must be positive", def.Days)
	}
	// A non-positive daily window would make the total duration zero or
	// negative, which the percent math cannot tolerate.
	if def.End.Seconds() <= def.Start.Seconds() {
		return fmt.Errorf("end %s not after start %s", def.End, def.Start)
	}
	if def.LastEnd.Seconds() <= def.Start.Seconds() {
		return fmt.Errorf("last-day end %s not after start %s", def.LastEnd, def.Start)
	}
	return nil
}

// Lookup finds a definition by id, ignoring case.
func (c *Catalog) Lookup(id string) (*Definition, error) {
	def, ok := c.defs[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, id)
	}
	return def, nil
}

// IDs returns the known event ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Package store persists the single tracking record and the target
// channel id. Two backends exist: a JSON state file and a SQLite
// database; both hold exactly one logical record and replace it
// atomically.
package store

// Tracking is the persisted "what are we counting down to" record.
// StartDate is the event's first calendar day in yyyy-mm-dd form; the
// anchor instant is derived from it at read time, never stored.
type Tracking struct {
	Event     string `json:"event"`
	StartDate string `json:"start_date"`
}

// Store is the persistence collaborator. TrackedEvent returns nil (and
// no error) when nothing is tracked; SetTrackedEvent(nil) clears.
type Store interface {
	TrackedEvent() (*Tracking, error)
	SetTrackedEvent(t *Tracking) error
	ChannelID() (string, error)
	SetChannelID(id string) error
	Close() error
}

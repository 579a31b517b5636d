package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"paxdown/internal/phase"
)

func pending(d time.Duration) phase.Phase {
	return phase.Phase{Kind: phase.Pending, Remaining: d}
}

func TestRenderCountdownUnits(t *testing.T) {
	cases := []struct {
		name      string
		remaining time.Duration
		want      string
	}{
		{"many days", 10 * 24 * time.Hour, "PAX East: 10 days"},
		{"one day", 30 * time.Hour, "PAX East: ⚠ 1 day ⚠"},
		{"hours", 5 * time.Hour, "PAX East: ⚠ 5 hours ⚠"},
		{"one hour", 90 * time.Minute, "PAX East: ⚠ 1 hour ⚠"},
		{"minutes", 45 * time.Minute, "PAX East: ⚠ 45 minutes ⚠"},
		{"one minute", 61 * time.Second, "PAX East: ⚠ 1 minute ⚠"},
		{"seconds fallback", 30 * time.Second, "PAX East: ⚠ 30 seconds ⚠"},
		{"one second", time.Second, "PAX East: ⚠ 1 second ⚠"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Render("east", pending(tc.remaining))
			assert.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRenderWarnBoundary(t *testing.T) {
	// Exactly seven days out still warns; a second more does not.
	got, _ := Render("east", pending(7*24*time.Hour))
	assert.Equal(t, "PAX East: ⚠ 7 days ⚠", got)

	got, _ = Render("east", pending(7*24*time.Hour+time.Second))
	assert.Equal(t, "PAX East: 7 days", got)
}

func TestRenderInHours(t *testing.T) {
	got, ok := Render("west", phase.Phase{Kind: phase.InHours, Percent: 55})
	assert.True(t, ok)
	assert.Equal(t, "PAX West: 55% Complete", got)
}

func TestRenderZeroPercentWelcome(t *testing.T) {
	got, ok := Render("east", phase.Phase{Kind: phase.InHours, Percent: 0})
	assert.True(t, ok)
	assert.Equal(t, "PAX East: Welcome Home!", got)
}

func TestRenderCompleted(t *testing.T) {
	got, ok := Render("aus", phase.Phase{Kind: phase.Completed})
	assert.True(t, ok)
	assert.Equal(t, "PAX Aus: 100% Complete", got)
}

func TestRenderOutOfHoursSuppressed(t *testing.T) {
	got, ok := Render("east", phase.Phase{Kind: phase.OutOfHours})
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestGoodbye(t *testing.T) {
	assert.Equal(t, "PAX Unplugged: See You Next Time!", Goodbye("unplugged"))
}

// Package party holds the party entity the admin panel operates on.
package party

import "time"

// Party represents a single event (a LAN party) guest servers are
// registered for.
type Party struct {
	ID       string    // Short, human-chosen identifier, e.g. "summer-2026"
	Title    string    // Display title
	StartsAt time.Time // When the party begins
	EndsAt   time.Time // When the party ends
}

// IsOver reports whether the party has ended at the given instant.
func (p Party) IsOver(now time.Time) bool {
	return now.After(p.EndsAt)
}

// README: Per-user snapshot of the most recently completed dining request.
package userstate

import (
	"time"

	"concierge/internal/types"
)

// Record is one row per user, last-write-wins. A record exists only for users
// who completed at least one request with a non-empty cuisine.
type Record struct {
	UserID       types.ID
	LastLocation string
	LastCuisine  string
	LastEmail    *string
	UpdatedAt    time.Time
}

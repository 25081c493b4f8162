package manufacturing

import (
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
)

// ActivityEntry is one record in the order's chronological activity trail
type ActivityEntry struct {
	Action      string    `json:"action"`
	Details     string    `json:"details"`
	PerformedBy uuid.UUID `json:"performed_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// LogActivity appends an entry to the order's activity trail. The trail is
// strictly append-only; entries are never mutated or reordered.
func (o *Order) LogActivity(action, details string, actor uuid.UUID) error {
	if action == "" {
		return shared.NewDomainError("INVALID_ACTION", "Activity action cannot be empty")
	}
	o.recordActivity(action, details, actor)
	return nil
}

// recordActivity is the internal append used by mutating operations
func (o *Order) recordActivity(action, details string, actor uuid.UUID) {
	o.ActivityLog = append(o.ActivityLog, ActivityEntry{
		Action:      action,
		Details:     details,
		PerformedBy: actor,
		Timestamp:   time.Now(),
	})
}

package manufacturing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loomworks/backend/internal/domain/shared"
)

// Stage represents a step in the manufacturing progression of an order
type Stage string

const (
	StageOrderConfirmed     Stage = "order-confirmed"
	StageFabricPurchase     Stage = "fabric-purchase"
	StageFabricCutting      Stage = "fabric-cutting"
	StageEmbroideryPrinting Stage = "embroidery-printing"
	StageStitching          Stage = "stitching"
	StagePacking            Stage = "packing"
	StageShipped            Stage = "shipped"
	StageDelivered          Stage = "delivered"
	StageOrderCompleted     Stage = "order-completed"

	// StageOrderDelayed is an out-of-band marker, not part of the linear
	// progression. Delay bookkeeping itself lives on the order fields.
	StageOrderDelayed Stage = "order-delayed"
)

// IsValid checks if the stage is a known manufacturing stage
func (s Stage) IsValid() bool {
	switch s {
	case StageOrderConfirmed, StageFabricPurchase, StageFabricCutting,
		StageEmbroideryPrinting, StageStitching, StagePacking,
		StageShipped, StageDelivered, StageOrderCompleted, StageOrderDelayed:
		return true
	}
	return false
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// StageStatus represents the progress of a single stage entry
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusInProgress StageStatus = "in-progress"
	StageStatusCompleted  StageStatus = "completed"
)

// IsValid checks if the stage status is valid
func (s StageStatus) IsValid() bool {
	switch s {
	case StageStatusPending, StageStatusInProgress, StageStatusCompleted:
		return true
	}
	return false
}

// StageEntry records when a manufacturing stage started and ended.
// At most one entry exists per stage key.
type StageEntry struct {
	Stage     Stage       `json:"stage"`
	Status    StageStatus `json:"status"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
}

// DeliveryStatus indicates whether the order is on schedule
type DeliveryStatus string

const (
	DeliveryOnTime  DeliveryStatus = "on-time"
	DeliveryDelayed DeliveryStatus = "delayed"
)

// IsValid checks if the delivery status is valid
func (s DeliveryStatus) IsValid() bool {
	return s == DeliveryOnTime || s == DeliveryDelayed
}

// AdvanceStage moves the order to the given manufacturing stage. Callers may
// jump stages; no linear progression is enforced. If the stage has no history
// entry yet, one is opened with the given status (in-progress when empty);
// otherwise the existing entry's status is updated, and marking it completed
// closes it with an end timestamp.
//
// Entering OrderCompleted stamps CompletedAt; moving away clears it.
func (o *Order) AdvanceStage(stage Stage, status StageStatus, actor uuid.UUID) error {
	if !stage.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", fmt.Sprintf("Unknown manufacturing stage %q", stage))
	}
	if status == "" {
		status = StageStatusInProgress
	}
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STAGE_STATUS", fmt.Sprintf("Unknown stage status %q", status))
	}

	now := time.Now()
	o.CurrentStage = stage

	if entry := o.stageEntry(stage); entry != nil {
		entry.Status = status
		if status == StageStatusCompleted {
			entry.EndedAt = &now
		}
	} else {
		e := StageEntry{Stage: stage, Status: status, StartedAt: now}
		if status == StageStatusCompleted {
			e.EndedAt = &now
		}
		o.StageHistory = append(o.StageHistory, e)
	}

	if stage == StageOrderCompleted {
		if o.CompletedAt == nil {
			o.CompletedAt = &now
		}
	} else {
		o.CompletedAt = nil
	}

	o.UpdatedAt = now
	o.recordActivity("stage_advanced", fmt.Sprintf("Manufacturing stage moved to %s (%s)", stage, status), actor)
	o.AddDomainEvent(NewOrderStageAdvancedEvent(o, stage, status))

	return nil
}

// SetDeliveryDelay records an absolute delivery delay in days. The expected
// delivery date is always recomputed from the undelayed base date, so calling
// this repeatedly with the same value is idempotent and setting zero restores
// the original schedule.
func (o *Order) SetDeliveryDelay(days int, actor uuid.UUID) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_DELAY", "Delay days cannot be negative")
	}
	if days == o.DelayDays {
		return nil
	}

	base := o.ExpectedDeliveryDate.AddDate(0, 0, -o.DelayDays)
	o.DelayDays = days
	o.ExpectedDeliveryDate = base.AddDate(0, 0, days)
	if days > 0 {
		o.DeliveryStatus = DeliveryDelayed
		o.recordActivity("delivery_delayed", fmt.Sprintf("Delivery delayed by %d day(s), expected %s", days, o.ExpectedDeliveryDate.Format("2006-01-02")), actor)
	} else {
		o.DeliveryStatus = DeliveryOnTime
		o.recordActivity("delivery_on_time", fmt.Sprintf("Delivery back on schedule, expected %s", o.ExpectedDeliveryDate.Format("2006-01-02")), actor)
	}
	o.UpdatedAt = time.Now()

	return nil
}

// stageEntry returns the history entry for a stage, or nil if none exists
func (o *Order) stageEntry(stage Stage) *StageEntry {
	for idx := range o.StageHistory {
		if o.StageHistory[idx].Stage == stage {
			return &o.StageHistory[idx]
		}
	}
	return nil
}

// IsCompleted returns true if the order has reached the final stage
func (o *Order) IsCompleted() bool {
	return o.CurrentStage == StageOrderCompleted
}

// Package task defines the unit of work the orchestration engine drives:
// a seller's request to book a warehouse delivery slot on the marketplace.
package task

import (
	"fmt"
	"time"
)

// SupplyType selects between a direct delivery and a crossdock delivery
// routed through a drop-off warehouse.
type SupplyType string

const (
	SupplyTypeDirect    SupplyType = "DIRECT"
	SupplyTypeCrossdock SupplyType = "CROSSDOCK"
)

// State is a lifecycle state of a Task. Persistence captures the current
// state after every transition so a restart never loses progress.
type State string

const (
	StateCreated        State = "CREATED"
	StateDraftPending   State = "DRAFT_PENDING"
	StateDraftReady     State = "DRAFT_READY"
	StatePolling        State = "POLLING"
	StateSupplyCreating State = "SUPPLY_CREATING"
	StateCompleted      State = "COMPLETED"
	StateExpired        State = "EXPIRED"
	StateCancelled      State = "CANCELLED"
	StateFailed         State = "FAILED"
)

// Terminal reports whether a state has no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateExpired, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// Item is one line of the product manifest. SKU may be unresolved until
// the engine resolves it via the marketplace before draft creation.
type Item struct {
	Article  string `json:"article"`
	SKU      int64  `json:"sku,omitempty"`
	Quantity int    `json:"quantity"`
}

// TimeWindowKind discriminates the two ways a seller can constrain which
// hours of the day a timeslot may start in.
type TimeWindowKind string

const (
	TimeWindowFirstAvailable TimeWindowKind = "FIRST_AVAILABLE"
	TimeWindowHourRange      TimeWindowKind = "HOUR_RANGE"
)

// TimeWindow is either FirstAvailable or an hour-of-day range, evaluated in
// the destination warehouse's local timezone.
type TimeWindow struct {
	Kind     TimeWindowKind `json:"kind"`
	FromHour int            `json:"from_hour,omitempty"`
	ToHour   *int           `json:"to_hour,omitempty"`
}

// Accepts reports whether the local hour-of-day of a candidate slot start
// falls inside this window.
func (w TimeWindow) Accepts(hour int) bool {
	if w.Kind == TimeWindowFirstAvailable {
		return true
	}
	if w.ToHour == nil {
		return hour >= w.FromHour
	}
	return hour >= w.FromHour && hour <= *w.ToHour
}

// Slot is a candidate or selected delivery timeslot in warehouse-local time.
type Slot struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Timezone string    `json:"timezone"`
}

// Task is the unit of work the Supply Orchestrator drives to completion.
type Task struct {
	TaskID string `json:"task_id"`
	UserID string `json:"user_id"`

	ClusterID           string `json:"cluster_id"`
	DropOffWarehouseID  string `json:"drop_off_warehouse_id,omitempty"`
	WarehouseID         string `json:"warehouse_id,omitempty"`
	WarehouseAutoSelect bool   `json:"warehouse_auto_select"`

	SupplyType SupplyType `json:"supply_type"`
	Items      []Item     `json:"items"`

	ReadyInDays    int        `json:"ready_in_days"`
	SearchDeadline time.Time  `json:"search_deadline"`
	TimeWindow     TimeWindow `json:"time_window"`

	DraftOperationID string     `json:"draft_operation_id,omitempty"`
	DraftID          string     `json:"draft_id,omitempty"`
	DraftCreatedAt   *time.Time `json:"draft_created_at,omitempty"`
	DraftExpiresAt   *time.Time `json:"draft_expires_at,omitempty"`

	SelectedTimeslot *Slot `json:"selected_timeslot,omitempty"`

	State     State `json:"state"`
	OrderFlag bool  `json:"order_flag"`

	OperationID string `json:"operation_id,omitempty"` // in-flight create_supply operation
	OrderID     int64  `json:"order_id,omitempty"`
}

// Validate checks the invariants that must hold before a draft can be
// created. It does not check SKU resolution; that happens as a separate
// pass in the orchestrator because articles may legitimately arrive
// without SKUs.
func (t Task) Validate(now time.Time, readyMin, readyMax int) error {
	if t.TaskID == "" {
		return fmt.Errorf("task: task_id is required")
	}
	if len(t.Items) == 0 {
		return fmt.Errorf("task: items must not be empty")
	}
	for i, it := range t.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("task: item %d: quantity must be > 0, got %d", i, it.Quantity)
		}
		if it.Article == "" && it.SKU == 0 {
			return fmt.Errorf("task: item %d: article or sku is required", i)
		}
	}
	if t.ReadyInDays < readyMin || t.ReadyInDays > readyMax {
		return fmt.Errorf("task: ready_in_days %d out of range [%d,%d]", t.ReadyInDays, readyMin, readyMax)
	}
	daysUntilDeadline := int(t.SearchDeadline.Sub(now).Hours() / 24)
	if t.ReadyInDays > daysUntilDeadline {
		return fmt.Errorf("task: ready_in_days %d exceeds days until search_deadline (%d)", t.ReadyInDays, daysUntilDeadline)
	}
	if daysUntilDeadline > readyMax {
		return fmt.Errorf("task: search_deadline is more than %d days out", readyMax)
	}
	if t.SupplyType == SupplyTypeCrossdock && t.DropOffWarehouseID == "" {
		return fmt.Errorf("task: crossdock supply requires drop_off_warehouse_id")
	}
	return nil
}

// DraftExpired reports whether the current draft (if any) has outlived its
// 30-minute lifetime as of now.
func (t Task) DraftExpired(now time.Time) bool {
	return t.DraftExpiresAt != nil && !now.Before(*t.DraftExpiresAt)
}

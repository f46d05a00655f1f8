package supply

import (
	"errors"

	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
)

// Terminal sentinel errors the Orchestrator maps every failed Run into, so
// callers branch with errors.Is instead of string matching.
var (
	// ErrCancelled is returned when a task's run was aborted by cancel() or
	// by a newer runner registering for the same task_id.
	ErrCancelled = errors.New("supply: cancelled")

	// ErrCredentialsRevoked is returned when the marketplace reports the
	// seller's api-key as deactivated.
	ErrCredentialsRevoked = marketplace.ErrCredentialsRevoked

	// ErrWindowExpired is returned when the search deadline passed before
	// an acceptable timeslot was found.
	ErrWindowExpired = errors.New("supply: search window expired")

	// ErrNoAvailableWarehouse is returned when the draft recreate cap was
	// exhausted without resolving a fully available destination warehouse.
	ErrNoAvailableWarehouse = errors.New("supply: no fully available warehouse")

	// ErrInputInvalid is returned for fail-fast input errors: empty items,
	// non-positive quantity, an article that cannot be resolved to a sku,
	// or a ready_in_days/search_deadline combination outside bounds.
	ErrInputInvalid = errors.New("supply: invalid task input")
)

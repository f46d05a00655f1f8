// Package draftctl drives the draft sub-state-machine: create/poll/recreate
// a marketplace draft until a destination warehouse is fully available, or
// the recreate cap is exhausted.
package draftctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amalgammas/ozon-slotbot/internal/clock"
	"github.com/amalgammas/ozon-slotbot/internal/events"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/ratelimit"
	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// ErrRetryExceeded is returned when a fully-available warehouse could not be
// resolved within RecreateMaxAttempts draft recreations.
var ErrRetryExceeded = errors.New("draftctl: recreate attempts exhausted")

// Params holds the controller's timing knobs.
type Params struct {
	PollInterval        time.Duration
	PollMaxAttempts     int
	RecreateMaxAttempts int
	RecreateBackoff     time.Duration
	DraftLifetime       time.Duration
}

// Deps are the collaborators the controller needs, shared across every
// runner in the process.
type Deps struct {
	Client  marketplace.Client
	Limiter *ratelimit.Limiter
	Clock   clock.Clock
	Bus     events.Bus
	// Persist snapshots t after a state-changing step. May be nil.
	Persist func(ctx context.Context, t task.Task) error
}

// Controller drives one task's draft from its current state through to a
// resolved destination warehouse.
type Controller struct {
	deps   Deps
	params Params
}

// New constructs a Controller.
func New(deps Deps, params Params) *Controller {
	return &Controller{deps: deps, params: params}
}

func (c *Controller) emit(t *task.Task, typ events.Type, operationID, message string) {
	c.deps.Bus.Emit(events.Event{
		Type:        typ,
		TaskID:      t.TaskID,
		Message:     message,
		OperationID: operationID,
		At:          c.deps.Clock.Now(),
	})
}

func (c *Controller) persist(ctx context.Context, t task.Task) error {
	if c.deps.Persist == nil {
		return nil
	}
	return c.deps.Persist(ctx, t)
}

// Run drives t from wherever its draft fields currently stand (empty, or a
// persisted draft_operation_id to resume) to a resolved warehouse_id and
// draft_id, mutating t in place and persisting after every transition. It
// returns nil once t.WarehouseID/t.DraftID are set to a FULL_AVAILABLE
// destination, or a non-nil error: ctx.Err()/ratelimit.ErrCancelled on
// cancellation, marketplace.ErrCredentialsRevoked on revoked credentials, or
// ErrRetryExceeded once the recreate cap is hit.
func (c *Controller) Run(ctx context.Context, t *task.Task, creds marketplace.Credentials) error {
	recreateAttempts := 0

	for {
		if t.DraftOperationID == "" {
			if recreateAttempts >= c.params.RecreateMaxAttempts {
				c.emit(t, events.TypeDraftError, "", "draft recreate attempts exhausted")
				return ErrRetryExceeded
			}
			if recreateAttempts > 0 {
				if err := clock.Sleep(ctx, c.deps.Clock, c.params.RecreateBackoff); err != nil {
					return err
				}
			}
			if err := c.createDraft(ctx, t, creds); err != nil {
				return err
			}
			recreateAttempts++
		}

		ready, err := c.pollUntilResolved(ctx, t, creds)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		// draft discarded inside pollUntilResolved; loop around to recreate.
	}
}

// createDraft consumes a rate-limit token, calls create_draft, and persists
// the resulting operation_id and draft lifetime fields.
func (c *Controller) createDraft(ctx context.Context, t *task.Task, creds marketplace.Credentials) error {
	if err := c.deps.Limiter.Acquire(ctx, creds.ClientID); err != nil {
		return err
	}

	items := make([]marketplace.Item, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, marketplace.Item{SKU: it.SKU, Quantity: it.Quantity})
	}

	resp, err := c.deps.Client.CreateDraft(ctx, creds, marketplace.CreateDraftRequest{
		ClusterIDs:              []string{t.ClusterID},
		DropOffPointWarehouseID: t.DropOffWarehouseID,
		Items:                   items,
		Type:                    string(t.SupplyType),
	})
	if err != nil {
		return err
	}

	now := c.deps.Clock.Now()
	t.DraftOperationID = resp.OperationID
	t.DraftID = ""
	// A pinned warehouse selection survives draft recreation; only an
	// auto-selected destination is recomputed per draft.
	if t.WarehouseAutoSelect {
		t.WarehouseID = ""
	}
	t.DraftCreatedAt = &now
	expires := now.Add(c.params.DraftLifetime)
	t.DraftExpiresAt = &expires

	c.emit(t, events.TypeDraftCreated, resp.OperationID, "")
	return c.persist(ctx, *t)
}

// pollUntilResolved polls draft_info until a destination warehouse is fully
// resolved (ready=true), the draft is discarded for recreation
// (ready=false, err=nil), or a fatal error occurs.
func (c *Controller) pollUntilResolved(ctx context.Context, t *task.Task, creds marketplace.Credentials) (bool, error) {
	warehousePendingEmitted := false

	for attempt := 0; ; attempt++ {
		if t.DraftExpired(c.deps.Clock.Now()) {
			c.discardDraft(t)
			c.emit(t, events.TypeDraftExpired, "", "draft lifetime elapsed locally")
			return false, c.persist(ctx, *t)
		}
		if attempt >= c.params.PollMaxAttempts {
			c.discardDraft(t)
			c.emit(t, events.TypeDraftInvalid, "", "draft poll attempts exhausted")
			return false, c.persist(ctx, *t)
		}

		if err := c.deps.Limiter.Acquire(ctx, creds.ClientID); err != nil {
			return false, err
		}
		resp, err := c.deps.Client.DraftInfo(ctx, creds, t.DraftOperationID)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if errors.Is(err, marketplace.ErrCredentialsRevoked) {
				return false, err
			}
			if errors.Is(err, marketplace.ErrDraftExpired) {
				c.discardDraft(t)
				c.emit(t, events.TypeDraftExpired, "", err.Error())
				return false, c.persist(ctx, *t)
			}
			// Transient failure already exhausted the client's own retry
			// budget; surface it and let the caller recreate.
			log.Warn().Err(err).Str("task_id", t.TaskID).Msg("draft_info failed, discarding draft")
			c.discardDraft(t)
			c.emit(t, events.TypeError, "", err.Error())
			return false, c.persist(ctx, *t)
		}

		switch resp.Status {
		case marketplace.DraftStatusSuccess:
			candidates := Normalize(resp.Clusters)
			chosen, pending, found := resolveWarehouse(t, candidates)
			if found {
				t.DraftID = resp.DraftID
				t.WarehouseID = chosen.WarehouseID
				c.emit(t, events.TypeDraftValid, t.DraftOperationID, "")
				return true, c.persist(ctx, *t)
			}
			if pending {
				if !warehousePendingEmitted {
					c.emit(t, events.TypeWarehousePending, t.DraftOperationID, "")
					warehousePendingEmitted = true
				}
			} else {
				c.discardDraft(t)
				c.emit(t, events.TypeDraftError, "", "no fully available warehouse in draft")
				return false, c.persist(ctx, *t)
			}
		case marketplace.DraftStatusFailed:
			c.discardDraft(t)
			c.emit(t, events.TypeDraftInvalid, "", fmt.Sprintf("draft failed (code=%d)", resp.Code))
			return false, c.persist(ctx, *t)
		case marketplace.DraftStatusExpired:
			c.discardDraft(t)
			c.emit(t, events.TypeDraftExpired, "", fmt.Sprintf("draft expired (code=%d)", resp.Code))
			return false, c.persist(ctx, *t)
		default:
			// PENDING or any status not yet final: keep polling.
		}

		if err := clock.Sleep(ctx, c.deps.Clock, c.params.PollInterval); err != nil {
			return false, err
		}
	}
}

func (c *Controller) discardDraft(t *task.Task) {
	t.DraftOperationID = ""
	t.DraftID = ""
	if t.WarehouseAutoSelect {
		t.WarehouseID = ""
	}
	t.DraftCreatedAt = nil
	t.DraftExpiresAt = nil
}

// resolveWarehouse applies the warehouse selection rule: a pinned selection
// must match the requested warehouse_id and be fully available; auto-select
// takes the first fully available candidate.
// pending=true means "keep polling the same draft", found=true means a
// destination has been resolved.
func resolveWarehouse(t *task.Task, candidates []WarehouseCandidate) (WarehouseCandidate, bool, bool) {
	if !t.WarehouseAutoSelect && t.WarehouseID != "" {
		for _, cand := range candidates {
			if cand.WarehouseID == t.WarehouseID {
				if cand.Available {
					return cand, false, true
				}
				return WarehouseCandidate{}, true, false
			}
		}
		// Requested warehouse not present yet in this draft's candidates;
		// treat as still settling rather than a hard failure.
		return WarehouseCandidate{}, true, false
	}

	for _, cand := range candidates {
		if cand.Available {
			return cand, false, true
		}
	}
	return WarehouseCandidate{}, false, false
}

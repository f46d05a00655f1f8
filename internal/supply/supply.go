// Package supply implements the top-level Supply Orchestrator state
// machine: it composes the draft controller and the timeslot poller,
// creates the supply once a slot is found, and owns every task's terminal
// outcome and event emission.
package supply

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amalgammas/ozon-slotbot/internal/clock"
	"github.com/amalgammas/ozon-slotbot/internal/draftctl"
	"github.com/amalgammas/ozon-slotbot/internal/events"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/persistence"
	"github.com/amalgammas/ozon-slotbot/internal/ratelimit"
	"github.com/amalgammas/ozon-slotbot/internal/registry"
	"github.com/amalgammas/ozon-slotbot/internal/task"
	"github.com/amalgammas/ozon-slotbot/internal/timeslot"
)

// Params collects the timing knobs of every piece the Orchestrator
// composes.
type Params struct {
	Draft               draftctl.Params
	Timeslot            timeslot.Params
	OrderIDPollAttempts int
	OrderIDPollDelay    time.Duration
	ReadyDaysMin        int
	ReadyDaysMax        int
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		Draft: draftctl.Params{
			PollInterval:        10 * time.Second,
			PollMaxAttempts:     1000,
			RecreateMaxAttempts: 1000,
			RecreateBackoff:     time.Second,
			DraftLifetime:       30 * time.Minute,
		},
		Timeslot: timeslot.Params{
			PollInterval:  3 * time.Second,
			WindowMaxDays: 28,
		},
		OrderIDPollAttempts: 5,
		OrderIDPollDelay:    time.Second,
		ReadyDaysMin:        0,
		ReadyDaysMax:        28,
	}
}

// Deps are the collaborators the Orchestrator needs, shared across every
// runner in the process.
type Deps struct {
	Client   marketplace.Client
	Limiter  *ratelimit.Limiter
	Clock    clock.Clock
	Bus      events.Bus
	Store    persistence.Store
	Registry *registry.Registry
}

// Orchestrator drives tasks from Created to a terminal state.
type Orchestrator struct {
	deps   Deps
	params Params
	draft  *draftctl.Controller
	poller *timeslot.Poller
}

// New constructs an Orchestrator, wiring the Draft Controller and Timeslot
// Poller from the same deps.
func New(deps Deps, params Params) *Orchestrator {
	o := &Orchestrator{deps: deps, params: params}
	o.draft = draftctl.New(draftctl.Deps{
		Client:  deps.Client,
		Limiter: deps.Limiter,
		Clock:   deps.Clock,
		Bus:     deps.Bus,
		Persist: o.persist,
	}, params.Draft)
	o.poller = timeslot.New(timeslot.Deps{
		Client:  deps.Client,
		Limiter: deps.Limiter,
		Clock:   deps.Clock,
		Bus:     deps.Bus,
	}, params.Timeslot)
	return o
}

func (o *Orchestrator) persist(ctx context.Context, t task.Task) error {
	if o.deps.Store == nil {
		return nil
	}
	return o.deps.Store.Save(ctx, t)
}

func (o *Orchestrator) emit(t *task.Task, typ events.Type, message string) {
	o.deps.Bus.Emit(events.Event{
		Type:    typ,
		TaskID:  t.TaskID,
		Message: message,
		At:      o.deps.Clock.Now(),
	})
}

// Run registers t's cancel handle with the task registry (cancelling and
// replacing any prior runner for the same task_id), drives it to a
// terminal state, and returns the terminal sentinel error (nil on
// success).
func (o *Orchestrator) Run(parent context.Context, t task.Task, creds marketplace.Credentials) error {
	ctx, cancel := context.WithCancel(parent)
	o.deps.Registry.Register(t.TaskID, cancel)
	defer o.deps.Registry.Clear(t.TaskID)
	defer cancel()

	err := o.run(ctx, &t, creds)

	bg := context.Background()
	switch {
	case err == nil:
		return nil

	case errors.Is(err, context.Canceled) || errors.Is(err, ratelimit.ErrCancelled):
		t.State = task.StateCancelled
		o.emit(&t, events.TypeCancelled, "")
		if delErr := o.deps.Store.Delete(bg, t.UserID, t.TaskID); delErr != nil {
			log.Error().Err(delErr).Str("task_id", t.TaskID).Msg("delete pending task record on cancel failed")
		}
		return ErrCancelled

	case errors.Is(err, marketplace.ErrCredentialsRevoked):
		t.State = task.StateFailed
		o.emit(&t, events.TypeNoCredentials, err.Error())
		if delErr := o.deps.Store.Delete(bg, t.UserID, t.TaskID); delErr != nil {
			log.Error().Err(delErr).Str("task_id", t.TaskID).Msg("delete pending task record on credential revocation failed")
		}
		return ErrCredentialsRevoked

	case errors.Is(err, timeslot.ErrWindowExpired):
		t.State = task.StateExpired
		if delErr := o.deps.Store.Delete(bg, t.UserID, t.TaskID); delErr != nil {
			log.Error().Err(delErr).Str("task_id", t.TaskID).Msg("delete pending task record on window expiry failed")
		}
		return ErrWindowExpired

	case errors.Is(err, draftctl.ErrRetryExceeded):
		t.State = task.StateFailed
		_ = o.persist(bg, t)
		return ErrNoAvailableWarehouse

	case errors.Is(err, ErrInputInvalid):
		t.State = task.StateFailed
		o.emit(&t, events.TypeError, err.Error())
		_ = o.persist(bg, t)
		return err

	default:
		t.State = task.StateFailed
		o.emit(&t, events.TypeError, err.Error())
		_ = o.persist(bg, t)
		return fmt.Errorf("supply: %w", err)
	}
}

// run drives t through DraftPending -> Polling -> SupplyCreating ->
// Completed, looping back to DraftPending whenever the timeslot poller
// reports the draft expired mid-search.
func (o *Orchestrator) run(ctx context.Context, t *task.Task, creds marketplace.Credentials) error {
	t.State = task.StateDraftPending

	resolved, err := resolveSKUs(ctx, o.deps.Client, creds, t.Items)
	if err != nil {
		return err
	}
	t.Items = resolved

	if err := t.Validate(o.deps.Clock.Now(), o.params.ReadyDaysMin, o.params.ReadyDaysMax); err != nil {
		return fmt.Errorf("%w: %s", ErrInputInvalid, err)
	}
	if err := o.persist(ctx, *t); err != nil {
		return err
	}

	for {
		if err := o.draft.Run(ctx, t, creds); err != nil {
			return err
		}

		t.State = task.StatePolling
		if err := o.persist(ctx, *t); err != nil {
			return err
		}

		err := o.poller.Run(ctx, t, creds)
		if err == nil {
			break
		}
		if errors.Is(err, timeslot.ErrDraftExpired) {
			t.State = task.StateDraftPending
			t.DraftOperationID = ""
			t.DraftID = ""
			t.DraftCreatedAt = nil
			t.DraftExpiresAt = nil
			if perr := o.persist(ctx, *t); perr != nil {
				return perr
			}
			continue
		}
		return err
	}

	t.State = task.StateSupplyCreating
	if err := o.persist(ctx, *t); err != nil {
		return err
	}

	return o.createSupply(ctx, t, creds)
}

// createSupply calls create_supply and then best-effort polls
// supply_status to resolve the marketplace order_id before persisting the
// completed order and marking the task Completed.
func (o *Orchestrator) createSupply(ctx context.Context, t *task.Task, creds marketplace.Credentials) error {
	if t.SelectedTimeslot == nil {
		return fmt.Errorf("supply: create_supply: no timeslot selected")
	}

	if err := o.deps.Limiter.Acquire(ctx, creds.ClientID); err != nil {
		return err
	}
	resp, err := o.deps.Client.CreateSupply(ctx, creds, marketplace.CreateSupplyRequest{
		DraftID:     t.DraftID,
		WarehouseID: t.WarehouseID,
		Timeslot: marketplace.Timeslot{
			FromInTimezone: t.SelectedTimeslot.From,
			ToInTimezone:   t.SelectedTimeslot.To,
		},
	})
	if err != nil {
		return fmt.Errorf("supply: create_supply: %w", err)
	}

	t.OperationID = resp.OperationID
	if err := o.persist(ctx, *t); err != nil {
		return err
	}

	orderID := o.pollOrderID(ctx, resp.OperationID, creds)

	t.OrderID = orderID
	t.OrderFlag = true
	t.State = task.StateCompleted

	completed := persistence.CompletedOrder{
		TaskID:      t.TaskID,
		UserID:      t.UserID,
		OrderID:     orderID,
		OperationID: resp.OperationID,
		DraftID:     t.DraftID,
		WarehouseID: t.WarehouseID,
		Timeslot:    *t.SelectedTimeslot,
		Items:       t.Items,
		CompletedAt: o.deps.Clock.Now(),
	}
	if err := o.deps.Store.Complete(ctx, completed); err != nil {
		log.Error().Err(err).Str("task_id", t.TaskID).Msg("persist completed order failed")
	}
	if err := o.deps.Store.Delete(ctx, t.UserID, t.TaskID); err != nil {
		log.Error().Err(err).Str("task_id", t.TaskID).Msg("delete pending task record on completion failed")
	}

	o.deps.Bus.Emit(events.Event{
		Type:        events.TypeSupplyCreated,
		TaskID:      t.TaskID,
		OperationID: resp.OperationID,
		OrderID:     orderID,
		At:          o.deps.Clock.Now(),
	})
	return nil
}

// CancelOrder cancels a previously created supply order on the marketplace
// and polls until the marketplace confirms the cancellation, reusing the
// order-id polling budget. It is invoked by the chat layer for orders that
// already completed; it never touches pending task state.
func (o *Orchestrator) CancelOrder(ctx context.Context, creds marketplace.Credentials, orderID int64) error {
	resp, err := o.deps.Client.CancelSupply(ctx, creds, orderID)
	if err != nil {
		return fmt.Errorf("supply: cancel_supply: %w", err)
	}

	for attempt := 0; attempt < o.params.OrderIDPollAttempts; attempt++ {
		if attempt > 0 {
			if err := clock.Sleep(ctx, o.deps.Clock, o.params.OrderIDPollDelay); err != nil {
				return err
			}
		}
		status, err := o.deps.Client.CancelStatus(ctx, creds, resp.OperationID)
		if err != nil {
			log.Warn().Err(err).Str("operation_id", resp.OperationID).Msg("cancel_status poll failed")
			continue
		}
		if status.Result.IsOrderCancelled {
			return nil
		}
	}
	return fmt.Errorf("supply: cancellation of order %d not confirmed after %d attempts", orderID, o.params.OrderIDPollAttempts)
}

// pollOrderID best-effort resolves the order_id behind a create_supply
// operation_id. A supply that never surfaces an order_id within the attempt
// budget still completes the task; order_id is left zero.
func (o *Orchestrator) pollOrderID(ctx context.Context, operationID string, creds marketplace.Credentials) int64 {
	for attempt := 0; attempt < o.params.OrderIDPollAttempts; attempt++ {
		if attempt > 0 {
			if err := clock.Sleep(ctx, o.deps.Clock, o.params.OrderIDPollDelay); err != nil {
				return 0
			}
		}
		status, err := o.deps.Client.SupplyStatus(ctx, creds, operationID)
		if err != nil {
			log.Warn().Err(err).Str("operation_id", operationID).Msg("supply_status poll failed")
			continue
		}
		if len(status.Result.OrderIDs) > 0 {
			return status.Result.OrderIDs[0]
		}
	}
	return 0
}

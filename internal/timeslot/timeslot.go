// Package timeslot drives the slot search loop: given a ready draft and a
// resolved destination warehouse, poll for a free delivery slot inside the
// task's search window.
package timeslot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/amalgammas/ozon-slotbot/internal/clock"
	"github.com/amalgammas/ozon-slotbot/internal/events"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/ratelimit"
	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// ErrWindowExpired is returned once now has passed the task's search
// deadline, or the computed window is already empty (from > to).
var ErrWindowExpired = errors.New("timeslot: search window expired")

// ErrDraftExpired is returned when the draft backing the search has outlived
// its lifetime; control must return to the Draft Controller for recreation.
var ErrDraftExpired = errors.New("timeslot: draft expired, recreate required")

// Params holds the poller's timing knobs.
type Params struct {
	PollInterval  time.Duration
	WindowMaxDays int
}

// Deps are the collaborators the poller needs.
type Deps struct {
	Client  marketplace.Client
	Limiter *ratelimit.Limiter
	Clock   clock.Clock
	Bus     events.Bus
}

// Poller searches a task's window for its first acceptable timeslot.
type Poller struct {
	deps   Deps
	params Params
}

// New constructs a Poller.
func New(deps Deps, params Params) *Poller {
	return &Poller{deps: deps, params: params}
}

func (p *Poller) emit(t *task.Task, typ events.Type, message string) {
	p.deps.Bus.Emit(events.Event{
		Type:    typ,
		TaskID:  t.TaskID,
		Message: message,
		At:      p.deps.Clock.Now(),
	})
}

// Run polls until an acceptable timeslot is found (t.SelectedTimeslot is
// set and Run returns nil), the search window is exhausted
// (ErrWindowExpired), the draft has expired (ErrDraftExpired), or
// cancellation/credential revocation aborts the search.
func (p *Poller) Run(ctx context.Context, t *task.Task, creds marketplace.Credentials) error {
	missingEmitted := false

	for {
		now := p.deps.Clock.Now()
		if !now.Before(t.SearchDeadline) {
			p.emit(t, events.TypeWindowExpired, "search deadline reached")
			return ErrWindowExpired
		}
		if t.DraftExpired(now) {
			return ErrDraftExpired
		}

		from, to := searchWindow(now, t.ReadyInDays, t.SearchDeadline, p.params.WindowMaxDays)
		if from.After(to) {
			p.emit(t, events.TypeWindowExpired, "search window is empty")
			return ErrWindowExpired
		}

		if err := p.deps.Limiter.Acquire(ctx, creds.ClientID); err != nil {
			return err
		}
		resp, err := p.deps.Client.DraftTimeslots(ctx, creds, marketplace.DraftTimeslotInfoRequest{
			DraftID:      t.DraftID,
			DateFrom:     clock.ISO(from),
			DateTo:       clock.ISO(to),
			WarehouseIDs: []string{t.WarehouseID},
		})
		if err != nil {
			if errors.Is(err, marketplace.ErrCredentialsRevoked) {
				return err
			}
			if errors.Is(err, marketplace.ErrDraftExpired) {
				return ErrDraftExpired
			}
			return fmt.Errorf("timeslot: draft_timeslots: %w", err)
		}

		readinessCutoff := clock.StartOfMoscowDay(clock.AddDays(p.deps.Clock.Now(), t.ReadyInDays))
		accepted := filterSlots(collectSlots(resp), readinessCutoff, t.TimeWindow)

		if len(accepted) > 0 {
			chosen := accepted[0]
			t.SelectedTimeslot = &task.Slot{From: chosen.from, To: chosen.to, Timezone: chosen.timezone}
			return nil
		}

		if !missingEmitted {
			p.emit(t, events.TypeTimeslotMissing, "")
			missingEmitted = true
		}

		if err := clock.Sleep(ctx, p.deps.Clock, p.params.PollInterval); err != nil {
			return err
		}
	}
}

// searchWindow computes the [from, to] bounds: from the start of the
// Moscow day ready_in_days out, to the end of the Moscow day of whichever
// comes first, the search deadline or windowMaxDays out.
func searchWindow(now time.Time, readyInDays int, searchDeadline time.Time, windowMaxDays int) (time.Time, time.Time) {
	from := clock.StartOfMoscowDay(clock.AddDays(now, readyInDays))
	windowCap := clock.AddDays(now, windowMaxDays)
	to := clock.EndOfMoscowDay(clock.MinTime(searchDeadline, windowCap))
	return from, to
}

type rawSlot struct {
	from     time.Time
	to       time.Time
	timezone string
}

// collectSlots flattens the per-warehouse, per-day forest of a
// draft_timeslots response and deduplicates by (from, to, timezone).
func collectSlots(resp marketplace.DraftTimeslotInfoResponse) []rawSlot {
	seen := make(map[string]struct{})
	out := make([]rawSlot, 0)
	for _, wh := range resp.DropOffWarehouseTimeslots {
		for _, day := range wh.Days {
			for _, slot := range day.Timeslots {
				key := fmt.Sprintf("%d|%d|%s", slot.FromInTimezone.Unix(), slot.ToInTimezone.Unix(), wh.WarehouseTimezone)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, rawSlot{from: slot.FromInTimezone, to: slot.ToInTimezone, timezone: wh.WarehouseTimezone})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].from.Before(out[j].from) })
	return out
}

// filterSlots drops slots that start before readinessCutoff or whose
// local start hour falls outside the task's time window.
func filterSlots(slots []rawSlot, readinessCutoff time.Time, window task.TimeWindow) []rawSlot {
	out := make([]rawSlot, 0, len(slots))
	for _, s := range slots {
		if s.from.Before(readinessCutoff) {
			continue
		}
		if !window.Accepts(s.from.Hour()) {
			continue
		}
		out = append(out, s)
	}
	return out
}

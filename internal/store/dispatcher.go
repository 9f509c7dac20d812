package store

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// dispatchRequest pairs an event with an optional completion signal for
// synchronous dispatch.
type dispatchRequest struct {
	event   Event
	applied chan struct{}
}

// Dispatcher owns the canonical State and applies events to it strictly in
// arrival order.
//
// It follows the actor model: a single goroutine owns the state, so Apply
// invocations never interleave and no mutex guards the state itself.
// External interactions happen through channels only — events in, snapshot
// requests and an update feed out. Commands that fetch over the network may
// overlap in flight, but each resolves into one discrete event on this
// queue.
type Dispatcher struct {
	state     State                // Owned by the dispatch goroutine after Start
	events    chan dispatchRequest // Inbound event queue, applied in order
	snapshots chan chan State      // Synchronous snapshot read requests
	updates   chan State           // Post-apply state feed for the presentation layer
	started   atomic.Bool          // Tracks whether the loop is running
}

// NewDispatcher returns a stopped dispatcher seeded with the default state.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		state:     DefaultState(),
		events:    make(chan dispatchRequest, 1000),
		snapshots: make(chan chan State),
		updates:   make(chan State, 100),
	}
}

// Start launches the dispatch goroutine. It returns an error when called on
// an already running dispatcher.
func (d *Dispatcher) Start(ctx context.Context) error {
	if !d.started.CompareAndSwap(false, true) {
		return errors.New("dispatcher already started")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("store dispatcher stopped")
				return
			case req := <-d.events:
				d.state = Apply(d.state, req.event)
				d.publish(d.state)
				if req.applied != nil {
					close(req.applied)
				}
			case reply := <-d.snapshots:
				reply <- d.state
			}
		}
	}()
	return nil
}

// Dispatch queues an event for application. Events are applied in the order
// they are dispatched.
func (d *Dispatcher) Dispatch(ev Event) {
	d.events <- dispatchRequest{event: ev}
}

// DispatchSync queues an event and blocks until it has been applied. Used
// by commands that must observe their own transition, such as capturing the
// generation bumped by a market-pair switch.
func (d *Dispatcher) DispatchSync(ev Event) {
	applied := make(chan struct{})
	d.events <- dispatchRequest{event: ev, applied: applied}
	<-applied
}

// State returns a snapshot of the current state. The snapshot shares its
// maps and slices with the live state, which is safe because Apply never
// mutates previously installed collections.
func (d *Dispatcher) State() State {
	if !d.started.Load() {
		return d.state
	}
	reply := make(chan State, 1)
	d.snapshots <- reply
	return <-reply
}

// Updates returns the feed of states produced after each applied event.
// Slow consumers lose the oldest update, never the newest.
func (d *Dispatcher) Updates() <-chan State {
	return d.updates
}

// publish pushes the post-apply state to the update feed without blocking
// the dispatch loop. When the feed is full the oldest update is dropped so
// the newest state is always delivered.
func (d *Dispatcher) publish(s State) {
	select {
	case d.updates <- s:
	default:
		select {
		case <-d.updates:
		default:
		}
		select {
		case d.updates <- s:
		default:
		}
	}
}

package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/cuemby/hexwarren/pkg/world"
	"github.com/rs/zerolog"
)

// DispatchFunc commits a named reducer call, exactly the signature of
// Manager.Dispatch. Agents never mutate tables directly — a due agent
// tick is dispatched the same way a player's reducer call is, so it goes
// through Raft and gets the same durability.
type DispatchFunc func(caller types.Identity, reducerName string, args any) error

// pollInterval is how often the Dispatcher checks every agent's LoopTimer
// row for due work. It is independent of any individual agent's tick
// interval — an agent can schedule itself minutes out while the poller
// still only wakes this often.
const pollInterval = 250 * time.Millisecond

// Dispatcher is the single ticker loop that drives every registered
// agent, replacing the teacher's one-goroutine-per-subsystem scheduler/
// reconciler pair with one generic poll over the LoopTimer table.
type Dispatcher struct {
	world    *world.World
	dispatch DispatchFunc
	logger   zerolog.Logger
	stopCh   chan struct{}
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(w *world.World, dispatch DispatchFunc, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{world: w, dispatch: dispatch, logger: logger, stopCh: make(chan struct{})}
}

// Start begins the poll loop.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop ends the poll loop.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
}

func (d *Dispatcher) run() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Dispatcher) tick() {
	if !d.agentsEnabled() {
		return
	}

	now := time.Now().UTC()
	for _, def := range Registrations() {
		if !d.agentEnabled(def.Name) {
			continue
		}

		timer, ok, err := d.world.LoopTimers.Get(timerKey(def.Name))
		if err != nil {
			d.logger.Error().Err(err).Str("agent", def.Name).Msg("read loop timer failed")
			continue
		}
		if !ok {
			// First sight of this agent: schedule its first run one
			// DefaultTickMillis interval out rather than running it
			// immediately, so a fresh process
			// doesn't fire every agent in the same instant it starts.
			_ = d.world.LoopTimers.Insert(timerKey(def.Name), types.LoopTimer{
				AgentName:   def.Name,
				ScheduledAt: now.Add(time.Duration(def.DefaultTickMillis) * time.Millisecond),
			})
			continue
		}
		if timer.ScheduledAt.After(now) {
			continue
		}

		if err := d.dispatch(types.Identity{}, reducerName(def.Name), nil); err != nil {
			d.logger.Error().Err(err).Str("agent", def.Name).Msg("agent tick failed")
		}
	}
}

func (d *Dispatcher) agentsEnabled() bool {
	flags, ok, err := d.world.FeatureFlags.Get(storage.EncodeUint64Key(0))
	if err != nil || !ok {
		return true
	}
	return flags.AgentsEnabled
}

func (d *Dispatcher) agentEnabled(name string) bool {
	flags, ok, err := d.world.FeatureFlags.Get(storage.EncodeUint64Key(0))
	if err != nil || !ok || flags.PerAgent == nil {
		return true
	}
	enabled, set := flags.PerAgent[name]
	if !set {
		return true
	}
	return enabled
}

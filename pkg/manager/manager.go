package manager

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/hexwarren/pkg/agents"
	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/log"
	"github.com/cuemby/hexwarren/pkg/metrics"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/types"
	"github.com/cuemby/hexwarren/pkg/world"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/rs/zerolog"
)

// Config configures a single Manager instance.
type Config struct {
	NodeID    string
	BindAddr  string
	DataDir   string
}

// Manager is the world orchestrator: it owns the Raft log that gives
// reducer dispatch its single-writer guarantee, the world tables those
// reducers mutate, the reducer registry, the event broker, and the agent
// loop. Manager.Dispatch is the sole path from a named reducer call to a
// committed mutation, generalizing the teacher Manager's one-method-per-
// entity Apply wrappers.
type Manager struct {
	cfg      Config
	logger   zerolog.Logger
	world    *world.World
	registry *runtime.Registry
	broker   *events.Broker
	raft     *raft.Raft
	fsm      *WorldFSM
	agents   *agents.Dispatcher
}

// New builds a Manager, opening its world database and bootstrapping a
// single-node Raft cluster. registry should already have every reducer
// package's init() registrations applied (pkg/identity, pkg/inventory,
// pkg/building, pkg/collab, pkg/anticheat and pkg/agents all register
// into it via runtime.DefaultRegistry by default).
func New(cfg Config, registry *runtime.Registry) (*Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	w, err := world.Open(filepath.Join(cfg.DataDir, "world.db"))
	if err != nil {
		return nil, fmt.Errorf("open world: %w", err)
	}

	broker := events.NewBroker()
	fsm := NewWorldFSM(w, registry, broker)

	m := &Manager{
		cfg:      cfg,
		logger:   log.WithComponent("manager"),
		world:    w,
		registry: registry,
		broker:   broker,
		fsm:      fsm,
	}

	if err := m.bootstrapRaft(); err != nil {
		return nil, err
	}

	m.agents = agents.NewDispatcher(w, m.Dispatch, log.WithComponent("agents"))
	return m, nil
}

// bootstrapRaft stands up a single-voter Raft cluster over the FSM, using
// the same tuned timeouts the teacher's Manager.Bootstrap uses: short
// heartbeat/election/commit/lease intervals suited to a local cluster
// rather than raft's conservative WAN-safe defaults.
func (m *Manager) bootstrapRaft() error {
	raftDir := filepath.Join(m.cfg.DataDir, "raft")
	if err := os.MkdirAll(raftDir, 0o755); err != nil {
		return fmt.Errorf("create raft dir: %w", err)
	}

	raftCfg := raft.DefaultConfig()
	raftCfg.LocalID = raft.ServerID(m.cfg.NodeID)
	raftCfg.HeartbeatTimeout = 500 * time.Millisecond
	raftCfg.ElectionTimeout = 500 * time.Millisecond
	raftCfg.CommitTimeout = 50 * time.Millisecond
	raftCfg.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", m.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("resolve bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(m.cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return fmt.Errorf("create raft transport: %w", err)
	}

	snapshots, err := raft.NewFileSnapshotStore(raftDir, 2, os.Stderr)
	if err != nil {
		return fmt.Errorf("create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(raftDir, "log.db"))
	if err != nil {
		return fmt.Errorf("create raft log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(raftDir, "stable.db"))
	if err != nil {
		return fmt.Errorf("create raft stable store: %w", err)
	}

	r, err := raft.NewRaft(raftCfg, m.fsm, logStore, stableStore, snapshots, transport)
	if err != nil {
		return fmt.Errorf("create raft node: %w", err)
	}
	m.raft = r

	hasState, err := raft.HasExistingState(logStore, stableStore, snapshots)
	if err != nil {
		return fmt.Errorf("check raft state: %w", err)
	}
	if !hasState {
		cfg := raft.Configuration{Servers: []raft.Server{{ID: raftCfg.LocalID, Address: transport.LocalAddr()}}}
		if err := r.BootstrapCluster(cfg).Error(); err != nil {
			return fmt.Errorf("bootstrap raft cluster: %w", err)
		}
	}
	return nil
}

// Start starts the event broker and the agent loop.
func (m *Manager) Start() {
	m.broker.Start()
	m.agents.Start()
}

// Shutdown stops the agent loop, the event broker, raft, and closes the
// world database.
func (m *Manager) Shutdown() error {
	m.agents.Stop()
	m.broker.Stop()
	if err := m.raft.Shutdown().Error(); err != nil {
		m.logger.Error().Err(err).Msg("raft shutdown failed")
	}
	return m.world.Close()
}

// IsLeader reports whether this node currently holds Raft leadership.
func (m *Manager) IsLeader() bool {
	return m.raft.State() == raft.Leader
}

// World exposes the underlying tables for read-only API handlers.
func (m *Manager) World() *world.World {
	return m.world
}

// Broker exposes the event broker for subscription handlers.
func (m *Manager) Broker() *events.Broker {
	return m.broker
}

// Dispatch commits a named reducer call through Raft and returns the
// reducer's error, if any. Every reducer call, from the API server or an
// agent, takes this path; the import-static-data command writes its rows
// to the world database directly instead.
func (m *Manager) Dispatch(caller types.Identity, reducerName string, args any) error {
	if m.raft.State() != raft.Leader {
		return runtime.NewError(runtime.KindPrecondition, "not the raft leader")
	}

	data, err := json.Marshal(args)
	if err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "marshal args for %s", reducerName)
	}

	cmd := Command{
		Reducer: reducerName,
		Args:    data,
		Caller:  caller,
		Seed:    rand.Int63(),
		Now:     time.Now().UTC(),
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return runtime.Wrap(runtime.KindInternal, err, "marshal command")
	}

	timer := metrics.NewTimer()
	future := m.raft.Apply(payload, 5*time.Second)
	if err := future.Error(); err != nil {
		metrics.ReducerCallsTotal.WithLabelValues(reducerName, "raft_error").Inc()
		return runtime.Wrap(runtime.KindInternal, err, "raft apply")
	}
	timer.ObserveDurationVec(metrics.ReducerDuration, reducerName)
	metrics.RaftApplyDuration.Observe(timer.Duration().Seconds())

	result, ok := future.Response().(*CommandResult)
	if !ok {
		metrics.ReducerCallsTotal.WithLabelValues(reducerName, "internal_error").Inc()
		return runtime.NewError(runtime.KindInternal, "unexpected FSM response type")
	}
	if result.Err != "" {
		metrics.ReducerCallsTotal.WithLabelValues(reducerName, "reducer_error").Inc()
		return &runtime.Error{Kind: result.Kind, Message: result.Err}
	}
	metrics.ReducerCallsTotal.WithLabelValues(reducerName, "ok").Inc()
	return nil
}

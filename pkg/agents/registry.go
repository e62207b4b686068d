// Package agents implements the scheduled background work the spec calls
// the agent loop: a generic ticker-driven Dispatcher that polls one
// LoopTimer row per registered agent and, when due, runs that agent's
// reducer through the normal Raft commit path — so an agent tick is
// exactly as durable and replicated as a player-triggered reducer call.
package agents

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cuemby/hexwarren/pkg/metrics"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

// Def describes one named agent: its default tick interval (overridable
// per-agent via BalanceParams["agent.<name>_tick_millis"]) and its work
// function, which returns the number of rows it touched; that count is
// added to the metrics.AgentItemsProcessed Prometheus counter.
type Def struct {
	Name              string
	DefaultTickMillis int64
	Work              func(ctx *runtime.Context) (itemsProcessed uint64, err error)
}

var (
	mu            sync.Mutex
	registrations []Def
)

// Register adds def to the agent set and wires its reducer name
// ("agent:<name>") into runtime.DefaultRegistry, wrapping Work with the
// execution-log write, metrics, and timer-reschedule every agent shares.
func Register(def Def) {
	mu.Lock()
	registrations = append(registrations, def)
	mu.Unlock()

	runtime.Register(reducerName(def.Name), func(ctx *runtime.Context, _ json.RawMessage) error {
		timer := metrics.NewTimer()
		started := ctx.Now

		items, workErr := def.Work(ctx)

		outcome := "ok"
		errMsg := ""
		if workErr != nil {
			outcome = "error"
			errMsg = workErr.Error()
		}
		metrics.AgentTicksTotal.WithLabelValues(def.Name, outcome).Inc()
		timer.ObserveDurationVec(metrics.AgentTickDuration, def.Name)
		metrics.AgentItemsProcessed.WithLabelValues(def.Name).Add(float64(items))

		logID, seqErr := ctx.World.Seq.Next("execution_logs")
		if seqErr == nil {
			_ = ctx.World.ExecutionLogs.Insert(storage.EncodeUint64Key(logID), types.AgentExecutionLog{
				LogID:      logID,
				AgentName:  def.Name,
				StartedAt:  started,
				FinishedAt: ctx.Now,
				Err:        errMsg,
			})
		}

		tickMillis := def.DefaultTickMillis
		if row, ok, _ := ctx.World.BalanceParams.Get(balanceParamKey(def.Name)); ok {
			if parsed, parseErr := strconv.ParseInt(row.Value, 10, 64); parseErr == nil && parsed > 0 {
				tickMillis = parsed
			}
		}
		next := ctx.Now.Add(time.Duration(tickMillis) * time.Millisecond)
		_ = ctx.World.LoopTimers.Insert(timerKey(def.Name), types.LoopTimer{AgentName: def.Name, ScheduledAt: next})

		return workErr
	})
}

func reducerName(agentName string) string {
	return fmt.Sprintf("agent:%s", agentName)
}

func timerKey(agentName string) []byte {
	return []byte(agentName)
}

func balanceParamKey(agentName string) []byte {
	return []byte(fmt.Sprintf("agent.%s_tick_millis", agentName))
}

// Registrations returns every registered agent def.
func Registrations() []Def {
	mu.Lock()
	defer mu.Unlock()
	out := make([]Def, len(registrations))
	copy(out, registrations)
	return out
}

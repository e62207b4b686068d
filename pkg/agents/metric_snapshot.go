package agents

import (
	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	Register(Def{
		Name:              "metric_snapshot",
		DefaultTickMillis: 15000,
		Work:              metricSnapshotTick,
	})
}

// metricSnapshotTick records a point-in-time count of the world's busiest
// tables as an AgentMetric row, the reducer-core analogue of the
// teacher's Prometheus gauges for entities that aren't otherwise observed
// continuously.
func metricSnapshotTick(ctx *runtime.Context) (uint64, error) {
	total := 0
	for _, counter := range []func() (int, error){
		ctx.World.Accounts.Count,
		ctx.World.Sessions.Count,
		ctx.World.Buildings.Count,
		ctx.World.ProjectSites.Count,
		ctx.World.Claims.Count,
	} {
		n, err := counter()
		if err != nil {
			return 0, err
		}
		total += n
	}

	id, err := ctx.World.Seq.Next("agent_metrics")
	if err != nil {
		return 0, err
	}
	metric := types.AgentMetric{
		MetricID:       id,
		AgentName:      "metric_snapshot",
		Timestamp:      ctx.Now,
		ItemsProcessed: uint64(total),
	}
	if err := ctx.World.AgentMetrics.Insert(storage.EncodeUint64Key(id), metric); err != nil {
		return 0, err
	}
	ctx.Publish("agent_metrics", events.OpInsert, metric)
	return 1, nil
}

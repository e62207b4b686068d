package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	Register(Def{
		Name:              "resource_regen",
		DefaultTickMillis: 5000,
		Work:              resourceRegenTick,
	})
}

// resourceRegenTick respawns depleted resource nodes whose scheduled
// respawn time has elapsed.
func resourceRegenTick(ctx *runtime.Context) (uint64, error) {
	due, err := ctx.World.ResourceRegens.Filter(func(r types.ResourceRegenLog) bool {
		return !r.RespawnAt.After(ctx.Now)
	})
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, entry := range due {
		key := storage.EncodeUint64Key(entry.EntityID)
		node, ok, err := ctx.World.ResourceNodes.Get(key)
		if err != nil {
			return processed, err
		}
		if ok {
			node.CurrentAmount = node.MaxAmount
			node.IsDepleted = false
			node.RespawnAt = time.Time{}
			if err := ctx.World.ResourceNodes.Update(key, node); err != nil {
				return processed, err
			}
			ctx.Publish("resource_nodes", events.OpUpdate, node)
		}
		if err := ctx.World.ResourceRegens.Delete(key); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

package agents

import (
	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	Register(Def{
		Name:              "npc_ai",
		DefaultTickMillis: 2000,
		Work:              npcAITick,
	})
}

// npcAITick drains outstanding NpcActionRequest rows. The actual decision
// (what an NPC says or does) is the dialogue collaborator's job, named
// but not implemented by this core per spec.md's Non-goal on LLM prompt
// engineering — this agent only guarantees every request eventually gets
// a result row, defaulting to an idle action when no collaborator is
// attached.
func npcAITick(ctx *runtime.Context) (uint64, error) {
	requests, err := ctx.World.NpcRequests.All()
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, req := range requests {
		key := storage.EncodeUint64Key(req.RequestID)
		if _, answered, err := ctx.World.NpcResults.Get(key); err != nil {
			return processed, err
		} else if answered {
			continue
		}

		result := types.NpcActionResult{
			RequestID:  req.RequestID,
			Action:     "idle",
			Payload:    "",
			ReceivedAt: ctx.Now,
		}
		if err := ctx.World.NpcResults.Insert(key, result); err != nil {
			return processed, err
		}
		ctx.Publish("npc_results", events.OpInsert, result)
		processed++
	}
	return processed, nil
}

package agents

import (
	"fmt"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

// submersionEffectID is the reserved effect id tracked for submerged
// entities; additional biome-keyed effects are a worldgen collaborator
// concern and are intentionally not enumerated here.
const submersionEffectID = 1

func init() {
	Register(Def{
		Name:              "environment_debuff",
		DefaultTickMillis: 2000,
		Work:              environmentDebuffTick,
	})
}

func environmentDebuffTick(ctx *runtime.Context) (uint64, error) {
	states, err := ctx.World.EnvEffectStates.All()
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, state := range states {
		state.LastEvaluatedAt = ctx.Now
		if err := ctx.World.EnvEffectStates.Update(storage.EncodeUint64Key(state.EntityID), state); err != nil {
			return processed, err
		}

		if !state.IsSubmerged {
			processed++
			continue
		}

		expKey := exposureKey(state.EntityID, submersionEffectID)
		exposure, ok, err := ctx.World.EnvExposures.Get(expKey)
		if err != nil {
			return processed, err
		}
		if !ok {
			exposure = types.EnvironmentEffectExposure{EntityID: state.EntityID, EffectID: submersionEffectID}
		}
		if !exposure.LastTickAt.IsZero() {
			exposure.Exposure += ctx.Now.Sub(exposure.LastTickAt).Seconds()
		}
		exposure.LastTickAt = ctx.Now
		if err := ctx.World.EnvExposures.Update(expKey, exposure); err != nil {
			return processed, err
		}
		ctx.Publish("env_exposures", events.OpUpdate, exposure)
		processed++
	}
	return processed, nil
}

func exposureKey(entityID uint64, effectID uint32) []byte {
	return []byte(fmt.Sprintf("%020d:%010d", entityID, effectID))
}

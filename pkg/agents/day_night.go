package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const defaultCycleLengthMicros = int64(24 * time.Hour / time.Microsecond)

var dayPhaseOrder = []types.DayPhase{
	types.DayPhaseDawn,
	types.DayPhaseDay,
	types.DayPhaseDusk,
	types.DayPhaseNight,
}

func init() {
	Register(Def{
		Name:              "day_night",
		DefaultTickMillis: 10000,
		Work:              dayNightTick,
	})
}

func dayNightTick(ctx *runtime.Context) (uint64, error) {
	key := storage.EncodeUint64Key(0)
	state, ok, err := ctx.World.DayNight.Get(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		state = types.DayNightState{
			ID:                0,
			Phase:             types.DayPhaseDawn,
			PhaseStartedAt:    ctx.Now,
			CycleLengthMicros: defaultCycleLengthMicros,
		}
		if err := ctx.World.DayNight.Insert(key, state); err != nil {
			return 0, err
		}
		ctx.Publish("day_night", events.OpInsert, state)
		return 1, nil
	}

	phaseLength := time.Duration(state.CycleLengthMicros/int64(len(dayPhaseOrder))) * time.Microsecond
	if ctx.Now.Sub(state.PhaseStartedAt) < phaseLength {
		return 0, nil
	}

	state.Phase = nextDayPhase(state.Phase)
	state.PhaseStartedAt = ctx.Now
	if err := ctx.World.DayNight.Update(key, state); err != nil {
		return 0, err
	}
	ctx.Publish("day_night", events.OpUpdate, state)
	return 1, nil
}

func nextDayPhase(current types.DayPhase) types.DayPhase {
	for i, phase := range dayPhaseOrder {
		if phase == current {
			return dayPhaseOrder[(i+1)%len(dayPhaseOrder)]
		}
	}
	return dayPhaseOrder[0]
}

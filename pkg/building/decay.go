package building

import (
	"strconv"

	"github.com/cuemby/hexwarren/pkg/agents"
	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const (
	microsPerHour                    = int64(3_600_000_000)
	defaultDecayPerHour              = 50
	defaultWildernessDecayPerHour    = 200
	defaultMaintenanceSupplyPerHour  = 5
	defaultMaintenanceRepairPerHour  = 5
)

func init() {
	agents.Register(agents.Def{
		Name:              "building_decay",
		DefaultTickMillis: 60000,
		Work:              buildingDecayTick,
	})
}

// buildingDecayTick charges claim supplies for maintenance, repairing
// buildings that can afford it and decaying those that can't (wilderness
// buildings always decay, at a steeper rate).
func buildingDecayTick(ctx *runtime.Context) (uint64, error) {
	decayPerHour := int32(balanceParamInt(ctx, "building.decay_per_hour", defaultDecayPerHour))
	wildernessDecay := int32(balanceParamInt(ctx, "building.wilderness_decay_per_hour", defaultWildernessDecayPerHour))
	maintenanceSupply := uint32(balanceParamInt(ctx, "building.maintenance_supply_per_hour", defaultMaintenanceSupplyPerHour))
	maintenanceRepair := int32(balanceParamInt(ctx, "building.maintenance_repair_per_hour", defaultMaintenanceRepairPerHour))

	buildings, err := ctx.World.Buildings.Filter(func(b types.BuildingState) bool {
		return b.Status == types.BuildingStatusActive
	})
	if err != nil {
		return 0, err
	}

	var processed uint64
	for _, b := range buildings {
		key := storage.EncodeUint64Key(b.BuildingID)
		decayState, hasState, err := ctx.World.DecayStates.Get(key)
		if err != nil {
			return processed, err
		}
		lastTick := b.PlacedAt
		if hasState {
			lastTick = decayState.LastDecayAt
		}

		hours := ctx.Now.Sub(lastTick).Nanoseconds() / 1000 / microsPerHour
		if hours <= 0 {
			continue
		}

		if hasState && decayState.MaintenancePaidUntil.After(ctx.Now) {
			decayState.LastDecayAt = ctx.Now
			if err := ctx.World.DecayStates.Update(key, decayState); err != nil {
				return processed, err
			}
			continue
		}

		var decayApplied int32
		if b.ClaimID != 0 {
			claimKey := storage.EncodeUint64Key(b.ClaimID)
			local, ok, err := ctx.World.ClaimLocals.Get(claimKey)
			if err != nil {
				return processed, err
			}
			required := maintenanceSupply * uint32(hours)
			if ok && local.Supplies >= required {
				local.Supplies -= required
				if err := ctx.World.ClaimLocals.Update(claimKey, local); err != nil {
					return processed, err
				}
				repair := maintenanceRepair * int32(hours)
				b.HP = minInt32(b.HP+repair, b.MaxHP)
			} else {
				decayApplied = decayPerHour * int32(hours)
			}
		} else {
			decayApplied = wildernessDecay * int32(hours)
		}

		if decayApplied > 0 {
			if decayApplied >= b.HP {
				b.HP = 0
			} else {
				b.HP -= decayApplied
			}
		}

		if err := ctx.World.Buildings.Update(key, b); err != nil {
			return processed, err
		}
		ctx.Publish("buildings", events.OpUpdate, b)

		decayState.EntityID = b.BuildingID
		decayState.LastDecayAt = ctx.Now
		decayState.DecayAccumulated += float64(decayApplied)
		if err := ctx.World.DecayStates.Update(key, decayState); err != nil {
			return processed, err
		}
		processed++
	}

	return processed, nil
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func balanceParamInt(ctx *runtime.Context, key string, def int64) int64 {
	param, ok, err := ctx.World.BalanceParams.Get([]byte(key))
	if err != nil || !ok {
		return def
	}
	n, err := strconv.ParseInt(param.Value, 10, 64)
	if err != nil {
		return def
	}
	return n
}

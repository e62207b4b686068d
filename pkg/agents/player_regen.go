package agents

import (
	"time"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
)

// Constants grounded on the original player_regen_agent: satiation decays
// every tick unconditionally; HP/stamina passive regen only applies once
// minSecondsToPassiveRegen has elapsed since the entity's last recorded
// combat action.
const (
	defaultMinSecondsToPassiveRegen = 10
	defaultSatiationDecayPerTick    = 1.0
	defaultPassiveHPBonus           = 5.0
	defaultPassiveStaminaBonus      = 5.0
	regenTickInterval               = time.Second
)

func init() {
	Register(Def{
		Name:              "player_regen",
		DefaultTickMillis: 1000,
		Work:              playerRegenTick,
	})
}

func playerRegenTick(ctx *runtime.Context) (uint64, error) {
	var processed uint64

	rows, err := ctx.World.Resources.All()
	if err != nil {
		return 0, err
	}

	for _, res := range rows {
		key := storage.EncodeUint64Key(res.EntityID)

		res.Satiation -= defaultSatiationDecayPerTick
		if res.Satiation < 0 {
			res.Satiation = 0
		}

		if ctx.Now.Sub(res.RegenTS) >= regenTickInterval {
			res.RegenTS = ctx.Now

			combat, hasCombat, err := ctx.World.CombatStates.Get(key)
			eligible := true
			if err == nil && hasCombat {
				eligible = ctx.Now.Sub(combat.LastAttackedTimestamp) >= time.Duration(defaultMinSecondsToPassiveRegen)*time.Second
			}

			if eligible {
				maxHP, maxStamina := defaultMaxVitals(ctx, res.EntityID)
				res.HP += defaultPassiveHPBonus
				if res.HP > maxHP {
					res.HP = maxHP
				}
				res.Stamina += defaultPassiveStaminaBonus
				if res.Stamina > maxStamina {
					res.Stamina = maxStamina
				}
			}
		}

		if err := ctx.World.Resources.Update(key, res); err != nil {
			return processed, err
		}
		ctx.Publish("resources", events.OpUpdate, res)
		processed++
	}

	return processed, nil
}

func defaultMaxVitals(ctx *runtime.Context, entityID uint64) (maxHP, maxStamina float64) {
	stats, ok, err := ctx.World.CharacterStats.Get(storage.EncodeUint64Key(entityID))
	if err != nil || !ok {
		return 100, 100
	}
	return stats.MaxHP, stats.MaxStamina
}

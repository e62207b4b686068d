// Package collab implements the collaborator-contract surfaces named but
// not modeled in depth by the distilled reducer set: stat aggregation,
// threat/combat scheduling, a hex-grid pathfinder, a minimal terrain
// sampler, and the market order-book matcher. Each is a stub faithful to
// its documented table shape rather than a full game-balance system.
package collab

import (
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const (
	baseMaxHP        = 100.0
	baseMaxStamina   = 100.0
	baseMaxSatiation = 100.0
)

// AggregateStats folds flat and percentage bonuses into an entity's base
// vitals and persists the result, mirroring the stat-aggregation
// collaborator every combat and regen computation reads from.
func AggregateStats(ctx *runtime.Context, entityID uint64, flat, pct map[string]float64) (types.CharacterStats, error) {
	stats := types.CharacterStats{
		EntityID:    entityID,
		FlatBonuses: flat,
		PctBonuses:  pct,
	}
	stats.MaxHP = applyBonuses(baseMaxHP, flat["max_hp"], pct["max_hp"])
	stats.MaxStamina = applyBonuses(baseMaxStamina, flat["max_stamina"], pct["max_stamina"])
	stats.MaxSatiation = applyBonuses(baseMaxSatiation, flat["max_satiation"], pct["max_satiation"])
	stats.ActiveHPRegen = flat["hp_regen"]
	stats.ActiveStaminaRegen = flat["stamina_regen"]

	if err := ctx.World.CharacterStats.Update(storage.EncodeUint64Key(entityID), stats); err != nil {
		return types.CharacterStats{}, err
	}
	return stats, nil
}

func applyBonuses(base, flat, pct float64) float64 {
	return (base + flat) * (1 + pct)
}

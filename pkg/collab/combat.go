package collab

import (
	"encoding/json"
	"time"

	"github.com/cuemby/hexwarren/pkg/agents"
	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const attackWindup = 600 * time.Millisecond

func init() {
	runtime.Register("attack_initiate", attackInitiate)
	agents.Register(agents.Def{
		Name:              "combat_resolve",
		DefaultTickMillis: 100,
		Work:              combatResolveTick,
	})
}

// AttackInitiateArgs schedules a windup-then-impact attack between two
// entities.
type AttackInitiateArgs struct {
	AttackerID  uint64 `json:"attacker_id"`
	TargetID    uint64 `json:"target_id"`
	WeaponDefID uint64 `json:"weapon_def_id"`
}

// attackInitiate schedules an AttackTimer; the combat_resolve agent
// promotes it to an ImpactTimer once its windup elapses and applies
// damage once the impact timer itself comes due.
func attackInitiate(ctx *runtime.Context, raw json.RawMessage) error {
	var args AttackInitiateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode attack_initiate args")
	}
	if args.AttackerID == args.TargetID {
		return runtime.NewError(runtime.KindInvalidArgument, "cannot attack self")
	}

	id, err := ctx.World.Seq.Next("attack_timers")
	if err != nil {
		return err
	}
	timer := types.AttackTimer{
		ScheduledID: id,
		ScheduledAt: ctx.Now.Add(attackWindup),
		AttackerID:  args.AttackerID,
		TargetID:    args.TargetID,
		WeaponDefID: args.WeaponDefID,
	}
	if err := ctx.World.AttackTimers.Insert(storage.EncodeUint64Key(id), timer); err != nil {
		return err
	}
	ctx.Publish("attack_timers", events.OpInsert, timer)
	addThreat(ctx, args.TargetID, args.AttackerID, 1.0)
	return nil
}

// combatResolveTick promotes due AttackTimers into ImpactTimers, then
// applies damage for due ImpactTimers and clears them.
func combatResolveTick(ctx *runtime.Context) (uint64, error) {
	var processed uint64

	dueAttacks, err := ctx.World.AttackTimers.Filter(func(t types.AttackTimer) bool {
		return !t.ScheduledAt.After(ctx.Now)
	})
	if err != nil {
		return 0, err
	}
	for _, t := range dueAttacks {
		if err := ctx.World.AttackTimers.Delete(storage.EncodeUint64Key(t.ScheduledID)); err != nil {
			return processed, err
		}
		impact := types.ImpactTimer{
			ScheduledID: t.ScheduledID, ScheduledAt: ctx.Now,
			AttackerID: t.AttackerID, TargetID: t.TargetID, WeaponDefID: t.WeaponDefID,
		}
		if err := ctx.World.ImpactTimers.Insert(storage.EncodeUint64Key(t.ScheduledID), impact); err != nil {
			return processed, err
		}
		processed++
	}

	dueImpacts, err := ctx.World.ImpactTimers.Filter(func(t types.ImpactTimer) bool {
		return !t.ScheduledAt.After(ctx.Now)
	})
	if err != nil {
		return processed, err
	}
	for _, t := range dueImpacts {
		if err := applyDamage(ctx, t); err != nil {
			return processed, err
		}
		if err := ctx.World.ImpactTimers.Delete(storage.EncodeUint64Key(t.ScheduledID)); err != nil {
			return processed, err
		}
		processed++
	}

	return processed, nil
}

func applyDamage(ctx *runtime.Context, impact types.ImpactTimer) error {
	key := storage.EncodeUint64Key(impact.TargetID)
	res, ok, err := ctx.World.Resources.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return nil // target no longer exists (despawned, logged out)
	}

	const baseDamage = 10.0
	res.HP -= baseDamage
	if res.HP < 0 {
		res.HP = 0
	}
	if err := ctx.World.Resources.Update(key, res); err != nil {
		return err
	}
	ctx.Publish("resources", events.OpUpdate, res)

	combat, _, err := ctx.World.CombatStates.Get(key)
	if err != nil {
		return err
	}
	combat.EntityID = impact.TargetID
	combat.LastAttackedTimestamp = ctx.Now
	return ctx.World.CombatStates.Update(key, combat)
}

// addThreat increments target's threat entry against owner, creating the
// row on first contact.
func addThreat(ctx *runtime.Context, ownerEntityID, targetEntityID uint64, amount float64) {
	key := threatKey(ownerEntityID, targetEntityID)
	threat, _, err := ctx.World.Threats.Get(key)
	if err != nil {
		return
	}
	threat.OwnerEntityID = ownerEntityID
	threat.TargetEntityID = targetEntityID
	threat.Amount += amount
	_ = ctx.World.Threats.Update(key, threat)
}

func threatKey(ownerEntityID, targetEntityID uint64) []byte {
	a := storage.EncodeUint64Key(ownerEntityID)
	b := storage.EncodeUint64Key(targetEntityID)
	return append(append([]byte{}, a...), b...)
}

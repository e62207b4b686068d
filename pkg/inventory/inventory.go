// Package inventory implements container slot placement, the two-phase
// merge-then-fill pickup algorithm, loot-list rolls, durability-zero item
// conversion, and stack move/split. Grounded on
// original_source/stitch-server/.../reducers/inventory/{item_pick_up,item_stack_move}.rs.
package inventory

import (
	"encoding/json"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

func init() {
	runtime.Register("item_pick_up", itemPickUp)
	runtime.Register("item_stack_move", itemStackMove)
	runtime.Register("item_drop", itemDrop)
	runtime.Register("item_lock", itemLock)
	runtime.Register("item_unlock", itemUnlock)
}

func slotKey(containerID uint64, slotIndex uint32) []byte {
	return []byte{
		byte(containerID >> 56), byte(containerID >> 48), byte(containerID >> 40), byte(containerID >> 32),
		byte(containerID >> 24), byte(containerID >> 16), byte(containerID >> 8), byte(containerID),
		byte(slotIndex >> 24), byte(slotIndex >> 16), byte(slotIndex >> 8), byte(slotIndex),
	}
}

// callerEntity derives the spatial entity id ctx.Caller maps to, the same
// convention pkg/building and pkg/collab each carry their own copy of.
func callerEntity(ctx *runtime.Context) (uint64, error) {
	var id uint64
	for i := 0; i < 8; i++ {
		id = (id << 8) | uint64(ctx.Caller[i])
	}
	return id, nil
}

// maxPerSlot is max_per_slot(def, pocket_volume): a stack capped by both
// the def's own max_stack and how many units fit in the pocket's volume
// budget.
func maxPerSlot(def types.ItemDef, pocketVolume uint32) uint32 {
	if def.Volume == 0 {
		return def.MaxStack
	}
	byVolume := pocketVolume / def.Volume
	if byVolume < def.MaxStack {
		return byVolume
	}
	return def.MaxStack
}

// ItemPickUpArgs requests transferring quantity of an item instance into
// its container's owning player/storage container.
type ItemPickUpArgs struct {
	ContainerID    uint64 `json:"container_id"`
	ItemInstanceID uint64 `json:"item_instance_id"`
	Quantity       uint32 `json:"quantity"`
}

// itemPickUp resolves a loot-list item (rolling ctx.Roll() against the
// cumulative probability table) or a plain stack into free/compatible
// slots of the destination container, converting zero-durability items
// per ItemDef.ConvertOnZeroDurability, and only erroring if no slot in
// the container can absorb the remainder. A loot-list source instance is
// always fully consumed, even when the roll matches no entry; a plain
// stack gives up Quantity units and keeps the rest.
func itemPickUp(ctx *runtime.Context, raw json.RawMessage) error {
	var args ItemPickUpArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode item_pick_up args")
	}
	if args.Quantity == 0 {
		return runtime.NewError(runtime.KindInvalidArgument, "quantity must be positive")
	}

	container, ok, err := ctx.World.Containers.Get(storage.EncodeUint64Key(args.ContainerID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "container %d not found", args.ContainerID)
	}
	if container.Locked {
		return runtime.NewError(runtime.KindBlocked, "container %d is locked", args.ContainerID)
	}

	instance, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(args.ItemInstanceID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "item instance %d not found", args.ItemInstanceID)
	}
	stack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(args.ItemInstanceID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "item instance %d has no stack", args.ItemInstanceID)
	}
	if args.Quantity > stack.Quantity {
		return runtime.NewError(runtime.KindPrecondition, "insufficient quantity")
	}

	def, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(instance.ItemDefID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "item def %d not found", instance.ItemDefID)
	}

	if def.ItemListID != 0 {
		args.Quantity = stack.Quantity
		list, ok, err := ctx.World.ItemLists.Get(storage.EncodeUint64Key(def.ItemListID))
		if err != nil {
			return err
		}
		if ok {
			if entry, matched := RollLootList(ctx, list); matched {
				lootDef, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(entry.ItemDefID))
				if err != nil {
					return err
				}
				if ok {
					if _, err := addToContainer(ctx, container, lootDef, entry.Quantity, -1, true); err != nil {
						return err
					}
				}
			}
		}
	} else {
		if _, err := addToContainer(ctx, container, def, args.Quantity, instance.Durability, true); err != nil {
			return err
		}
	}

	remaining := stack.Quantity - args.Quantity
	if remaining == 0 {
		_ = ctx.World.Stacks.Delete(storage.EncodeUint64Key(args.ItemInstanceID))
		_ = ctx.World.Instances.Delete(storage.EncodeUint64Key(args.ItemInstanceID))
		return nil
	}
	stack.Quantity = remaining
	return ctx.World.Stacks.Update(storage.EncodeUint64Key(args.ItemInstanceID), stack)
}

// AddPartial grants up to quantity units of (def, durability) into
// container via the two-phase merge-then-fill placement algorithm,
// returning however many units didn't fit instead of erroring. This is
// the shared primitive behind rewards and refunds, such as the
// building-material refunds pkg/building credits; debits go through
// DebitItems instead.
func AddPartial(ctx *runtime.Context, container types.InventoryContainer, def types.ItemDef, quantity uint32, durability int32) (uint32, error) {
	return addToContainer(ctx, container, def, quantity, durability, false)
}

// DebitItems removes up to quantity units of itemDefID from ownerEntity's
// containers, in arbitrary slot order, returning an error (and rolling
// the caller's reducer back, since every write here happens inside the
// reducer's single transaction) if the owner's containers don't hold
// enough in total.
func DebitItems(ctx *runtime.Context, ownerEntity, itemDefID uint64, quantity uint32) error {
	containers, err := ctx.World.Containers.Filter(func(c types.InventoryContainer) bool {
		return c.OwnerEntity == ownerEntity
	})
	if err != nil {
		return err
	}

	remaining := quantity
	for _, c := range containers {
		if remaining == 0 {
			break
		}
		slots, err := ctx.World.Slots.Filter(func(s types.InventorySlot) bool {
			return s.ContainerID == c.ContainerID && s.ItemInstanceID != 0
		})
		if err != nil {
			return err
		}
		for _, slot := range slots {
			if remaining == 0 {
				break
			}
			inst, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
			if err != nil {
				return err
			}
			if !ok || inst.ItemDefID != itemDefID {
				continue
			}
			stack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
			if err != nil || !ok {
				continue
			}

			take := remaining
			if take > stack.Quantity {
				take = stack.Quantity
			}
			stack.Quantity -= take
			remaining -= take

			key := slotKey(c.ContainerID, slot.SlotIndex)
			if stack.Quantity == 0 {
				_ = ctx.World.Stacks.Delete(storage.EncodeUint64Key(slot.ItemInstanceID))
				_ = ctx.World.Instances.Delete(storage.EncodeUint64Key(slot.ItemInstanceID))
				slot.ItemInstanceID = 0
				slot.Volume = 0
				if err := ctx.World.Slots.Update(key, slot); err != nil {
					return err
				}
				continue
			}
			if err := ctx.World.Stacks.Update(storage.EncodeUint64Key(slot.ItemInstanceID), stack); err != nil {
				return err
			}
			itemDef, ok, derr := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(inst.ItemDefID))
			if derr == nil && ok {
				slot.Volume = itemDef.Volume * stack.Quantity
				if err := ctx.World.Slots.Update(key, slot); err != nil {
					return err
				}
			}
		}
	}
	if remaining > 0 {
		return runtime.NewError(runtime.KindResource, "insufficient quantity of item %d", itemDefID)
	}
	return nil
}

// addToContainer implements the merge-then-fill placement. When mustFit
// is true, any remainder that can't be absorbed fails the call
// (pickup/craft semantics); when false, the remainder is returned as
// unplaced instead (refund/reward/world-drop semantics).
func addToContainer(ctx *runtime.Context, container types.InventoryContainer, def types.ItemDef, quantity uint32, durability int32, mustFit bool) (uint32, error) {
	if def.AutoCollect {
		return 0, nil // discovery-only items don't occupy a slot
	}
	if durability == 0 {
		if def.ConvertOnZeroDurability == 0 {
			return 0, nil // durability-zero items with no conversion target vanish
		}
		converted, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(def.ConvertOnZeroDurability))
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		def = converted
		durability = -1
	}

	remaining := quantity

	slots, err := ctx.World.Slots.Filter(func(s types.InventorySlot) bool {
		return s.ContainerID == container.ContainerID && !s.Locked && s.ItemInstanceID != 0
	})
	if err != nil {
		return 0, err
	}
	for _, slot := range slots {
		if remaining == 0 {
			break
		}
		inst, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
		if err != nil {
			return 0, err
		}
		if !ok || inst.ItemDefID != def.ItemDefID || inst.Durability != durability {
			continue
		}
		st, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
		if err != nil || !ok {
			continue
		}
		capMax := maxPerSlot(def, container.PocketVolume(slot.SlotIndex))
		if capMax <= st.Quantity {
			continue
		}
		capacity := capMax - st.Quantity
		toAdd := remaining
		if toAdd > capacity {
			toAdd = capacity
		}
		st.Quantity += toAdd
		if err := ctx.World.Stacks.Update(storage.EncodeUint64Key(slot.ItemInstanceID), st); err != nil {
			return 0, err
		}
		slot.Volume = def.Volume * st.Quantity
		if err := ctx.World.Slots.Update(slotKey(container.ContainerID, slot.SlotIndex), slot); err != nil {
			return 0, err
		}
		remaining -= toAdd
	}

	for i := uint32(0); i < container.SlotCount && remaining > 0; i++ {
		key := slotKey(container.ContainerID, i)
		slot, ok, err := ctx.World.Slots.Get(key)
		if err != nil {
			return 0, err
		}
		if !ok {
			slot = types.InventorySlot{ContainerID: container.ContainerID, SlotIndex: i}
		}
		if slot.Locked || slot.ItemInstanceID != 0 {
			continue
		}
		if slot.ItemTypeFilter != 0 && slot.ItemTypeFilter != def.ItemDefID {
			continue
		}

		capMax := maxPerSlot(def, container.PocketVolume(i))
		if capMax == 0 {
			continue
		}
		toAdd := remaining
		if toAdd > capMax {
			toAdd = capMax
		}

		id, err := ctx.World.Seq.Next("item_instances")
		if err != nil {
			return 0, err
		}
		inst := types.ItemInstance{ItemInstanceID: id, ItemDefID: def.ItemDefID, Durability: durability}
		if err := ctx.World.Instances.Insert(storage.EncodeUint64Key(id), inst); err != nil {
			return 0, err
		}
		if err := ctx.World.Stacks.Insert(storage.EncodeUint64Key(id), types.ItemStack{ItemInstanceID: id, Quantity: toAdd}); err != nil {
			return 0, err
		}
		slot.ItemInstanceID = id
		slot.Volume = def.Volume * toAdd
		if err := ctx.World.Slots.Insert(key, slot); err != nil {
			return 0, err
		}
		remaining -= toAdd
	}

	if remaining > 0 && mustFit {
		return remaining, runtime.NewError(runtime.KindResource, "container %d has no room for the remainder", container.ContainerID)
	}
	ctx.Publish("slots", events.OpUpdate, container)
	return remaining, nil
}

// ItemStackMoveArgs requests moving quantity units from one slot to
// another within the same container.
type ItemStackMoveArgs struct {
	ContainerID   uint64 `json:"container_id"`
	FromSlotIndex uint32 `json:"from_slot_index"`
	ToSlotIndex   uint32 `json:"to_slot_index"`
	Quantity      uint32 `json:"quantity"`
}

// itemStackMove moves or splits a stack between two slots of the same
// container. Target occupied by the same item_def at a different
// durability is a hard reject (items at different durability never
// merge); target occupied by a different item_def swaps instance ids
// instead (no merge). Every case enforces the destination pocket's
// volume budget.
func itemStackMove(ctx *runtime.Context, raw json.RawMessage) error {
	var args ItemStackMoveArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode item_stack_move args")
	}
	if args.Quantity == 0 {
		return runtime.NewError(runtime.KindInvalidArgument, "quantity must be positive")
	}
	if args.FromSlotIndex == args.ToSlotIndex {
		return nil
	}

	container, ok, err := ctx.World.Containers.Get(storage.EncodeUint64Key(args.ContainerID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "container %d not found", args.ContainerID)
	}

	fromKey := slotKey(args.ContainerID, args.FromSlotIndex)
	toKey := slotKey(args.ContainerID, args.ToSlotIndex)

	fromSlot, ok, err := ctx.World.Slots.Get(fromKey)
	if err != nil {
		return err
	}
	if !ok || fromSlot.ItemInstanceID == 0 {
		return runtime.NewError(runtime.KindPrecondition, "from slot is empty")
	}
	toSlot, ok, err := ctx.World.Slots.Get(toKey)
	if err != nil {
		return err
	}
	if !ok {
		toSlot = types.InventorySlot{ContainerID: args.ContainerID, SlotIndex: args.ToSlotIndex}
	}
	if fromSlot.Locked || toSlot.Locked {
		return runtime.NewError(runtime.KindBlocked, "slot is locked")
	}

	srcInstance, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(fromSlot.ItemInstanceID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "source item instance missing")
	}
	srcStack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(fromSlot.ItemInstanceID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "source item stack missing")
	}
	moveQty := args.Quantity
	if moveQty > srcStack.Quantity {
		moveQty = srcStack.Quantity
	}
	if moveQty == 0 {
		return nil
	}

	def, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(srcInstance.ItemDefID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "item def missing")
	}

	if toSlot.ItemInstanceID != 0 {
		targetInstance, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(toSlot.ItemInstanceID))
		if err != nil || !ok {
			return runtime.NewError(runtime.KindPrecondition, "target item instance missing")
		}

		if targetInstance.ItemDefID != srcInstance.ItemDefID {
			targetStack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(toSlot.ItemInstanceID))
			if err != nil || !ok {
				return runtime.NewError(runtime.KindPrecondition, "target item stack missing")
			}
			targetDef, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(targetInstance.ItemDefID))
			if err != nil || !ok {
				return runtime.NewError(runtime.KindPrecondition, "target item def missing")
			}
			if srcStack.Quantity > maxPerSlot(def, container.PocketVolume(args.ToSlotIndex)) {
				return runtime.NewError(runtime.KindResource, "slot volume exceeded")
			}
			if targetStack.Quantity > maxPerSlot(targetDef, container.PocketVolume(args.FromSlotIndex)) {
				return runtime.NewError(runtime.KindResource, "slot volume exceeded")
			}
			fromSlot.ItemInstanceID, toSlot.ItemInstanceID = toSlot.ItemInstanceID, fromSlot.ItemInstanceID
			fromSlot.Volume, toSlot.Volume = toSlot.Volume, fromSlot.Volume
			if err := ctx.World.Slots.Update(fromKey, fromSlot); err != nil {
				return err
			}
			return ctx.World.Slots.Update(toKey, toSlot)
		}

		if targetInstance.Durability != srcInstance.Durability {
			return runtime.NewError(runtime.KindPrecondition, "stack mismatch: different durability")
		}

		targetStack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(toSlot.ItemInstanceID))
		if err != nil || !ok {
			return runtime.NewError(runtime.KindPrecondition, "target item stack missing")
		}
		merged := targetStack.Quantity + moveQty
		if merged > maxPerSlot(def, container.PocketVolume(args.ToSlotIndex)) {
			return runtime.NewError(runtime.KindResource, "slot volume exceeded")
		}

		targetStack.Quantity = merged
		if err := ctx.World.Stacks.Update(storage.EncodeUint64Key(toSlot.ItemInstanceID), targetStack); err != nil {
			return err
		}
		toSlot.Volume = def.Volume * merged
		if err := ctx.World.Slots.Update(toKey, toSlot); err != nil {
			return err
		}

		srcStack.Quantity -= moveQty
		if srcStack.Quantity == 0 {
			_ = ctx.World.Stacks.Delete(storage.EncodeUint64Key(srcInstance.ItemInstanceID))
			_ = ctx.World.Instances.Delete(storage.EncodeUint64Key(srcInstance.ItemInstanceID))
			fromSlot.ItemInstanceID = 0
			fromSlot.Volume = 0
			return ctx.World.Slots.Update(fromKey, fromSlot)
		}
		fromSlot.Volume = def.Volume * srcStack.Quantity
		if err := ctx.World.Slots.Update(fromKey, fromSlot); err != nil {
			return err
		}
		return ctx.World.Stacks.Update(storage.EncodeUint64Key(srcInstance.ItemInstanceID), srcStack)
	}

	destCap := maxPerSlot(def, container.PocketVolume(args.ToSlotIndex))
	if moveQty == srcStack.Quantity {
		if srcStack.Quantity > destCap {
			return runtime.NewError(runtime.KindResource, "slot volume exceeded")
		}
		toSlot.ItemInstanceID = srcInstance.ItemInstanceID
		toSlot.Volume = fromSlot.Volume
		fromSlot.ItemInstanceID = 0
		fromSlot.Volume = 0
		if err := ctx.World.Slots.Update(fromKey, fromSlot); err != nil {
			return err
		}
		return ctx.World.Slots.Update(toKey, toSlot)
	}

	if moveQty > destCap {
		return runtime.NewError(runtime.KindResource, "slot volume exceeded")
	}

	id, err := ctx.World.Seq.Next("item_instances")
	if err != nil {
		return err
	}
	newInstance := types.ItemInstance{ItemInstanceID: id, ItemDefID: srcInstance.ItemDefID, Durability: srcInstance.Durability}
	if err := ctx.World.Instances.Insert(storage.EncodeUint64Key(id), newInstance); err != nil {
		return err
	}
	if err := ctx.World.Stacks.Insert(storage.EncodeUint64Key(id), types.ItemStack{ItemInstanceID: id, Quantity: moveQty}); err != nil {
		return err
	}
	srcStack.Quantity -= moveQty
	if err := ctx.World.Stacks.Update(storage.EncodeUint64Key(srcInstance.ItemInstanceID), srcStack); err != nil {
		return err
	}
	fromSlot.Volume = def.Volume * srcStack.Quantity
	if err := ctx.World.Slots.Update(fromKey, fromSlot); err != nil {
		return err
	}
	toSlot.ItemInstanceID = id
	toSlot.Volume = def.Volume * moveQty
	return ctx.World.Slots.Update(toKey, toSlot)
}

// ItemDropArgs requests spilling quantity units of a slot's stack into a
// world/ground container (e.g. the tile the dropping player stands on).
type ItemDropArgs struct {
	ContainerID     uint64 `json:"container_id"`
	SlotIndex       uint32 `json:"slot_index"`
	Quantity        uint32 `json:"quantity"`
	DestContainerID uint64 `json:"dest_container_id"`
}

// itemDrop moves quantity units out of a slot into a ground container,
// spilling (not failing) whatever the destination can't absorb — the
// spec treats a failed spill as a data loss the collaborator must
// account for, not a reducer error.
func itemDrop(ctx *runtime.Context, raw json.RawMessage) error {
	var args ItemDropArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode item_drop args")
	}
	if args.Quantity == 0 {
		return runtime.NewError(runtime.KindInvalidArgument, "quantity must be positive")
	}

	srcKey := slotKey(args.ContainerID, args.SlotIndex)
	slot, ok, err := ctx.World.Slots.Get(srcKey)
	if err != nil {
		return err
	}
	if !ok || slot.ItemInstanceID == 0 {
		return runtime.NewError(runtime.KindPrecondition, "slot is empty")
	}
	if slot.Locked {
		return runtime.NewError(runtime.KindBlocked, "slot is locked")
	}

	instance, ok, err := ctx.World.Instances.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "item instance missing")
	}
	stack, ok, err := ctx.World.Stacks.Get(storage.EncodeUint64Key(slot.ItemInstanceID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "item stack missing")
	}
	def, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(instance.ItemDefID))
	if err != nil || !ok {
		return runtime.NewError(runtime.KindPrecondition, "item def missing")
	}
	dropQty := args.Quantity
	if dropQty > stack.Quantity {
		dropQty = stack.Quantity
	}

	dest, ok, err := ctx.World.Containers.Get(storage.EncodeUint64Key(args.DestContainerID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "destination container %d not found", args.DestContainerID)
	}

	if _, err := addToContainer(ctx, dest, def, dropQty, instance.Durability, false); err != nil {
		return err
	}

	stack.Quantity -= dropQty
	if stack.Quantity == 0 {
		_ = ctx.World.Stacks.Delete(storage.EncodeUint64Key(slot.ItemInstanceID))
		_ = ctx.World.Instances.Delete(storage.EncodeUint64Key(slot.ItemInstanceID))
		slot.ItemInstanceID = 0
		slot.Volume = 0
		return ctx.World.Slots.Update(srcKey, slot)
	}
	slot.Volume = def.Volume * stack.Quantity
	if err := ctx.World.Slots.Update(srcKey, slot); err != nil {
		return err
	}
	return ctx.World.Stacks.Update(storage.EncodeUint64Key(slot.ItemInstanceID), stack)
}

// ContainerLockArgs names the container an owner wants to lock/unlock.
type ContainerLockArgs struct {
	ContainerID uint64 `json:"container_id"`
	Reason      string `json:"reason"`
}

func itemLock(ctx *runtime.Context, raw json.RawMessage) error {
	return setContainerLocked(ctx, raw, true)
}

func itemUnlock(ctx *runtime.Context, raw json.RawMessage) error {
	return setContainerLocked(ctx, raw, false)
}

func setContainerLocked(ctx *runtime.Context, raw json.RawMessage, locked bool) error {
	var args ContainerLockArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode container lock args")
	}

	key := storage.EncodeUint64Key(args.ContainerID)
	container, ok, err := ctx.World.Containers.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "container %d not found", args.ContainerID)
	}
	caller, err := callerEntity(ctx)
	if err != nil {
		return err
	}
	if container.OwnerEntity != caller {
		return runtime.NewError(runtime.KindUnauthorized, "only the owner can lock or unlock this container")
	}

	container.Locked = locked
	if err := ctx.World.Containers.Update(key, container); err != nil {
		return err
	}
	ctx.Publish("containers", events.OpUpdate, container)
	return nil
}

// RollLootList resolves an ItemListDef's cumulative-probability entries
// against a single ctx.Roll() draw, returning the first matching entry.
func RollLootList(ctx *runtime.Context, list types.ItemListDef) (types.LootEntry, bool) {
	roll := ctx.Roll()
	for _, entry := range list.Entries {
		if roll <= entry.Probability {
			return entry, true
		}
	}
	return types.LootEntry{}, false
}

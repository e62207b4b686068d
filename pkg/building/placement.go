// Package building implements footprint-based building placement,
// project-site construction progress, material contribution,
// deconstruction, moving, and the decay agent that drains claim supplies
// for maintenance or damages untended buildings over time. Grounded on
// original_source/stitch-server/.../reducers/building/building_place.rs,
// services/building_placement.rs, and agents/building_decay_agent.rs.
package building

import (
	"encoding/json"

	"github.com/cuemby/hexwarren/pkg/events"
	"github.com/cuemby/hexwarren/pkg/inventory"
	"github.com/cuemby/hexwarren/pkg/permission"
	"github.com/cuemby/hexwarren/pkg/runtime"
	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

const maxBuildDistance int32 = 6

func init() {
	runtime.Register("building_place", buildingPlace)
	runtime.Register("building_deconstruct", buildingDeconstruct)
	runtime.Register("add_materials", addMaterials)
	runtime.Register("building_advance", buildingAdvance)
	runtime.Register("building_cancel_project", buildingCancelProject)
	runtime.Register("building_move", buildingMove)
}

// BuildingPlaceArgs requests placing a building (or opening its project
// site, if it isn't instant-build) anchored at a hex origin.
type BuildingPlaceArgs struct {
	BuildingDefID uint64 `json:"building_def_id"`
	HexX          int32  `json:"hex_x"`
	HexZ          int32  `json:"hex_z"`
	Facing        uint8  `json:"facing"`
	DimensionID   uint32 `json:"dimension_id"`
}

// entityID derives the spatial entity id a caller's Identity maps to.
// Full account-to-entity mapping is owned by the character-spawn
// collaborator; every reducer that needs to find "this player's entity"
// uses this same derivation, matching the convention the agents package
// already uses for EntityID-keyed tables.
func entityID(_ *runtime.Context, caller types.Identity) (uint64, bool, error) {
	var id uint64
	for i := 0; i < 8; i++ {
		id = (id << 8) | uint64(caller[i])
	}
	return id, true, nil
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// hexDistance is the cube-coordinate distance between two axial hexes,
// y = -x - z implicit.
func hexDistance(x1, z1, x2, z2 int32) int32 {
	dx := x1 - x2
	dz := z1 - z2
	dy := -dx - dz
	return (absInt32(dx) + absInt32(dy) + absInt32(dz)) / 2
}

// rotateHex rotates a relative axial offset by steps * 60 degrees
// clockwise around the origin, the cube-coordinate rotation (x,y,z) ->
// (-z,-x,-y) applied axially.
func rotateHex(dx, dz int32, steps uint8) (int32, int32) {
	for i := uint8(0); i < steps%6; i++ {
		dx, dz = -dz, dx+dz
	}
	return dx, dz
}

// playerContainer finds ownerEntity's player inventory container, the
// destination for material refunds and the source for material debits.
func playerContainer(ctx *runtime.Context, ownerEntity uint64) (types.InventoryContainer, error) {
	containers, err := ctx.World.Containers.Filter(func(c types.InventoryContainer) bool {
		return c.OwnerEntity == ownerEntity && c.Kind == types.ContainerKindPlayer
	})
	if err != nil {
		return types.InventoryContainer{}, err
	}
	if len(containers) == 0 {
		return types.InventoryContainer{}, runtime.NewError(runtime.KindPrecondition, "player %d has no inventory container", ownerEntity)
	}
	return containers[0], nil
}

// buildingPlace validates distance, dimension, footprint overlap, and
// claim coverage, then either inserts a completed BuildingState
// (instant-build defs) or opens a ProjectSiteState for later
// contribution.
func buildingPlace(ctx *runtime.Context, raw json.RawMessage) error {
	var args BuildingPlaceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode building_place args")
	}

	def, ok, err := ctx.World.BuildingDefs.Get(storage.EncodeUint64Key(args.BuildingDefID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "building def %d not found", args.BuildingDefID)
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	transform, ok, err := ctx.World.Transforms.Get(storage.EncodeUint64Key(playerEntity))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "player transform missing")
	}
	if transform.DimensionID != args.DimensionID {
		return runtime.NewError(runtime.KindPrecondition, "invalid dimension")
	}
	if hexDistance(int32(transform.X), int32(transform.Z), args.HexX, args.HexZ) > maxBuildDistance {
		return runtime.NewError(runtime.KindPrecondition, "too far from placement origin")
	}

	claimID, err := findClaimCovering(ctx, def, args.HexX, args.HexZ, args.DimensionID, args.Facing)
	if err != nil {
		return err
	}
	if claimID != 0 {
		ok, err := claimLattice(ctx).CheckPermission(claimID, playerEntity, claimID, permission.RankBuild)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.NewError(runtime.KindUnauthorized, "insufficient claim rank to build here")
		}
	}

	tiles := footprintTiles(def, args.HexX, args.HexZ, args.DimensionID, 0, args.Facing)
	if err := checkFootprintFree(ctx, tiles); err != nil {
		return err
	}

	if def.InstantBuild {
		id, err := ctx.World.Seq.Next("buildings")
		if err != nil {
			return err
		}
		b := types.BuildingState{
			BuildingID: id, BuildingDefID: def.BuildingDefID, DimensionID: args.DimensionID,
			HexX: args.HexX, HexZ: args.HexZ, Facing: args.Facing, ClaimID: claimID,
			OwnerEntity: playerEntity, HP: def.MaxHP, MaxHP: def.MaxHP,
			Status: types.BuildingStatusActive, PlacedAt: ctx.Now,
		}
		if err := ctx.World.Buildings.Insert(storage.EncodeUint64Key(id), b); err != nil {
			return err
		}
		ctx.Publish("buildings", events.OpInsert, b)
		return placeFootprint(ctx, def, args.HexX, args.HexZ, args.DimensionID, args.Facing, id)
	}

	id, err := ctx.World.Seq.Next("project_sites")
	if err != nil {
		return err
	}
	site := types.ProjectSiteState{
		ProjectSiteID: id, BuildingDefID: def.BuildingDefID, DimensionID: args.DimensionID,
		HexX: args.HexX, HexZ: args.HexZ, Facing: args.Facing, ClaimID: claimID,
		RequiredActions:      def.RequiredActions,
		MaterialsContributed: map[uint64]uint32{},
		Contributors:         []types.ContributorInfo{{Identity: ctx.Caller, ActionsApplied: 0}},
		CreatedAt:            ctx.Now,
	}
	if err := ctx.World.ProjectSites.Insert(storage.EncodeUint64Key(id), site); err != nil {
		return err
	}
	ctx.Publish("project_sites", events.OpInsert, site)
	return placeFootprint(ctx, def, args.HexX, args.HexZ, args.DimensionID, args.Facing, id)
}

func checkFootprintFree(ctx *runtime.Context, tiles []types.BuildingFootprint) error {
	blocked, err := ctx.World.Footprints.Filter(func(f types.BuildingFootprint) bool {
		for _, t := range tiles {
			if f.DimensionID == t.DimensionID && f.TileX == t.TileX && f.TileZ == t.TileZ {
				return true
			}
		}
		return false
	})
	if err != nil {
		return err
	}
	if len(blocked) > 0 {
		return runtime.NewError(runtime.KindConflict, "footprint overlaps an existing building")
	}
	return nil
}

func placeFootprint(ctx *runtime.Context, def types.BuildingDef, originX, originZ int32, dimensionID uint32, facing uint8, ownerID uint64) error {
	for _, tile := range footprintTiles(def, originX, originZ, dimensionID, ownerID, facing) {
		key := footprintKey(tile.DimensionID, tile.TileX, tile.TileZ)
		if err := ctx.World.Footprints.Insert(key, tile); err != nil {
			return err
		}
	}
	return nil
}

func deleteFootprint(ctx *runtime.Context, ownerID uint64) error {
	tiles, err := ctx.World.Footprints.Filter(func(f types.BuildingFootprint) bool {
		return f.OwnerID == ownerID
	})
	if err != nil {
		return err
	}
	for _, t := range tiles {
		if err := ctx.World.Footprints.Delete(footprintKey(t.DimensionID, t.TileX, t.TileZ)); err != nil {
			return err
		}
	}
	return nil
}

func footprintKey(dimensionID int32, x, z int32) []byte {
	return []byte{
		byte(dimensionID >> 24), byte(dimensionID >> 16), byte(dimensionID >> 8), byte(dimensionID),
		byte(x >> 24), byte(x >> 16), byte(x >> 8), byte(x),
		byte(z >> 24), byte(z >> 16), byte(z >> 8), byte(z),
	}
}

// footprintTiles translates a building def's relative footprint cells
// into absolute tiles around an origin, rotating each cell by facing
// (one of six 60-degree steps) before offsetting.
func footprintTiles(def types.BuildingDef, originX, originZ int32, dimensionID uint32, ownerID uint64, facing uint8) []types.BuildingFootprint {
	tiles := make([]types.BuildingFootprint, 0, len(def.Footprint))
	for _, cell := range def.Footprint {
		dx, dz := rotateHex(cell.DX, cell.DZ, facing)
		tileType := types.FootprintTileStructural
		if cell.IsPerimeter {
			tileType = types.FootprintTileDecorative
		}
		tiles = append(tiles, types.BuildingFootprint{
			DimensionID: int32(dimensionID),
			TileX:       originX + dx,
			TileZ:       originZ + dz,
			OwnerID:     ownerID,
			TileType:    tileType,
			IsPerimeter: cell.IsPerimeter,
		})
	}
	return tiles
}

// findClaimCovering returns the single claim covering every footprint
// tile (each cell rotated by facing, as footprintTiles does), 0 when no
// tile is claimed (wilderness), and a conflict error when the footprint
// spans more than one claim or mixes claimed and unclaimed tiles.
func findClaimCovering(ctx *runtime.Context, def types.BuildingDef, originX, originZ int32, dimensionID uint32, facing uint8) (uint64, error) {
	var claimID uint64
	unclaimed := false
	for _, cell := range def.Footprint {
		dx, dz := rotateHex(cell.DX, cell.DZ, facing)
		x, z := originX+dx, originZ+dz
		tiles, err := ctx.World.ClaimTiles.Filter(func(t types.ClaimTileState) bool {
			return t.DimensionID == dimensionID && t.TileX == x && t.TileZ == z
		})
		if err != nil {
			return 0, err
		}
		if len(tiles) == 0 {
			unclaimed = true
			continue
		}
		found := tiles[0].ClaimID
		if claimID == 0 {
			claimID = found
		} else if claimID != found {
			return 0, runtime.NewError(runtime.KindConflict, "footprint spans more than one claim")
		}
	}
	if claimID != 0 && unclaimed {
		return 0, runtime.NewError(runtime.KindConflict, "footprint is only partly covered by a claim")
	}
	return claimID, nil
}

func claimLattice(ctx *runtime.Context) *permission.Lattice {
	return &permission.Lattice{
		Permissions: func() ([]types.PermissionState, error) { return ctx.World.Permissions.All() },
		ClaimOwner: func(claimID uint64) (uint64, bool, error) {
			claim, ok, err := ctx.World.Claims.Get(storage.EncodeUint64Key(claimID))
			return claim.OwnerEntity, ok, err
		},
		ClaimMembers: func(claimID uint64) ([]types.ClaimMemberState, error) {
			return ctx.World.ClaimMembers.Filter(func(m types.ClaimMemberState) bool {
				return m.ClaimID == claimID
			})
		},
	}
}

// requiredMaterial returns the required quantity for itemDefID in def's
// bill of materials, and whether itemDefID is part of it at all.
func requiredMaterial(def types.BuildingDef, itemDefID uint64) (uint32, bool) {
	for _, m := range def.RequiredMaterials {
		if m.ItemDefID == itemDefID {
			return m.Quantity, true
		}
	}
	return 0, false
}

func materialsSatisfied(def types.BuildingDef, contributed map[uint64]uint32) bool {
	for _, m := range def.RequiredMaterials {
		if contributed[m.ItemDefID] < m.Quantity {
			return false
		}
	}
	return true
}

func recordContributor(site *types.ProjectSiteState, caller types.Identity) {
	for i := range site.Contributors {
		if site.Contributors[i].Identity == caller {
			return
		}
	}
	site.Contributors = append(site.Contributors, types.ContributorInfo{Identity: caller})
}

// AddMaterialsArgs contributes quantity units of an item toward a
// project site's bill of materials, debiting the caller's inventory.
type AddMaterialsArgs struct {
	ProjectSiteID uint64 `json:"project_site_id"`
	ItemDefID     uint64 `json:"item_def_id"`
	Quantity      uint32 `json:"quantity"`
}

func addMaterials(ctx *runtime.Context, raw json.RawMessage) error {
	var args AddMaterialsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode add_materials args")
	}
	if args.Quantity == 0 {
		return runtime.NewError(runtime.KindInvalidArgument, "quantity must be positive")
	}

	key := storage.EncodeUint64Key(args.ProjectSiteID)
	site, ok, err := ctx.World.ProjectSites.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "project site %d not found", args.ProjectSiteID)
	}

	def, ok, err := ctx.World.BuildingDefs.Get(storage.EncodeUint64Key(site.BuildingDefID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "building def %d not found", site.BuildingDefID)
	}

	required, wanted := requiredMaterial(def, args.ItemDefID)
	if !wanted {
		return runtime.NewError(runtime.KindInvalidArgument, "item %d is not part of this building's bill of materials", args.ItemDefID)
	}
	if site.MaterialsContributed == nil {
		site.MaterialsContributed = map[uint64]uint32{}
	}
	already := site.MaterialsContributed[args.ItemDefID]
	if already+args.Quantity > required {
		return runtime.NewError(runtime.KindInvalidArgument, "contribution exceeds required amount for item %d", args.ItemDefID)
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	if err := inventory.DebitItems(ctx, playerEntity, args.ItemDefID, args.Quantity); err != nil {
		return err
	}

	site.MaterialsContributed[args.ItemDefID] = already + args.Quantity
	recordContributor(&site, ctx.Caller)
	if err := ctx.World.ProjectSites.Update(key, site); err != nil {
		return err
	}
	ctx.Publish("project_sites", events.OpUpdate, site)
	return nil
}

// BuildingAdvanceArgs applies actions toward a project site's progress.
type BuildingAdvanceArgs struct {
	ProjectSiteID uint64 `json:"project_site_id"`
	Actions       uint32 `json:"actions"`
}

// buildingAdvance applies Actions toward a project site's
// RequiredActions; once RequiredActions is met and every required
// material is fully contributed, the site promotes to a standing
// BuildingState and is removed.
func buildingAdvance(ctx *runtime.Context, raw json.RawMessage) error {
	var args BuildingAdvanceArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode building_advance args")
	}
	if args.Actions == 0 {
		args.Actions = 1
	}

	key := storage.EncodeUint64Key(args.ProjectSiteID)
	site, ok, err := ctx.World.ProjectSites.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "project site %d not found", args.ProjectSiteID)
	}

	def, ok, err := ctx.World.BuildingDefs.Get(storage.EncodeUint64Key(site.BuildingDefID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "building def %d not found", site.BuildingDefID)
	}

	site.ActionsCompleted += args.Actions
	if site.ActionsCompleted > site.RequiredActions {
		site.ActionsCompleted = site.RequiredActions
	}
	recordContributor(&site, ctx.Caller)

	if site.ActionsCompleted < site.RequiredActions || !materialsSatisfied(def, site.MaterialsContributed) {
		if err := ctx.World.ProjectSites.Update(key, site); err != nil {
			return err
		}
		ctx.Publish("project_sites", events.OpUpdate, site)
		return nil
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	buildingID, err := ctx.World.Seq.Next("buildings")
	if err != nil {
		return err
	}
	b := types.BuildingState{
		BuildingID: buildingID, BuildingDefID: def.BuildingDefID, DimensionID: site.DimensionID,
		HexX: site.HexX, HexZ: site.HexZ, Facing: site.Facing, ClaimID: site.ClaimID,
		OwnerEntity: playerEntity, HP: def.MaxHP, MaxHP: def.MaxHP,
		Status: types.BuildingStatusActive, PlacedAt: ctx.Now,
	}
	if err := ctx.World.Buildings.Insert(storage.EncodeUint64Key(buildingID), b); err != nil {
		return err
	}
	if err := deleteFootprint(ctx, site.ProjectSiteID); err != nil {
		return err
	}
	if err := placeFootprint(ctx, def, site.HexX, site.HexZ, site.DimensionID, site.Facing, buildingID); err != nil {
		return err
	}
	if err := ctx.World.ProjectSites.Delete(key); err != nil {
		return err
	}
	ctx.Publish("buildings", events.OpInsert, b)
	ctx.Publish("project_sites", events.OpDelete, site)
	return nil
}

// BuildingCancelProjectArgs abandons a project site, refunding whatever
// materials were contributed.
type BuildingCancelProjectArgs struct {
	ProjectSiteID uint64 `json:"project_site_id"`
}

func buildingCancelProject(ctx *runtime.Context, raw json.RawMessage) error {
	var args BuildingCancelProjectArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode building_cancel_project args")
	}

	key := storage.EncodeUint64Key(args.ProjectSiteID)
	site, ok, err := ctx.World.ProjectSites.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "project site %d not found", args.ProjectSiteID)
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	contributed := false
	for _, c := range site.Contributors {
		if c.Identity == ctx.Caller {
			contributed = true
			break
		}
	}
	if !contributed {
		if site.ClaimID == 0 {
			return runtime.NewError(runtime.KindUnauthorized, "only a contributor can cancel this project")
		}
		ok, err := claimLattice(ctx).CheckPermission(site.ClaimID, playerEntity, site.ClaimID, permission.RankBuild)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.NewError(runtime.KindUnauthorized, "insufficient claim rank to cancel this project")
		}
	}

	if container, cerr := playerContainer(ctx, playerEntity); cerr == nil {
		for itemDefID, qty := range site.MaterialsContributed {
			if qty == 0 {
				continue
			}
			def, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(itemDefID))
			if err != nil || !ok {
				continue
			}
			if _, err := inventory.AddPartial(ctx, container, def, qty, -1); err != nil {
				return err
			}
		}
	}

	if err := deleteFootprint(ctx, site.ProjectSiteID); err != nil {
		return err
	}
	if err := ctx.World.ProjectSites.Delete(key); err != nil {
		return err
	}
	ctx.Publish("project_sites", events.OpDelete, site)
	return nil
}

// BuildingMoveArgs relocates a standing building, re-validating distance
// and footprint overlap at the new location.
type BuildingMoveArgs struct {
	BuildingID  uint64 `json:"building_id"`
	HexX        int32  `json:"hex_x"`
	HexZ        int32  `json:"hex_z"`
	Facing      uint8  `json:"facing"`
	DimensionID uint32 `json:"dimension_id"`
}

func buildingMove(ctx *runtime.Context, raw json.RawMessage) error {
	var args BuildingMoveArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode building_move args")
	}

	key := storage.EncodeUint64Key(args.BuildingID)
	b, ok, err := ctx.World.Buildings.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "building %d not found", args.BuildingID)
	}

	def, ok, err := ctx.World.BuildingDefs.Get(storage.EncodeUint64Key(b.BuildingDefID))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "building def %d not found", b.BuildingDefID)
	}
	if !def.CanMove {
		return runtime.NewError(runtime.KindPrecondition, "this building cannot be moved")
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	if b.OwnerEntity != playerEntity {
		return runtime.NewError(runtime.KindUnauthorized, "only the owner can move this building")
	}

	transform, ok, err := ctx.World.Transforms.Get(storage.EncodeUint64Key(playerEntity))
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindPrecondition, "player transform missing")
	}
	if transform.DimensionID != args.DimensionID {
		return runtime.NewError(runtime.KindPrecondition, "invalid dimension")
	}
	if hexDistance(int32(transform.X), int32(transform.Z), args.HexX, args.HexZ) > maxBuildDistance {
		return runtime.NewError(runtime.KindPrecondition, "too far from placement destination")
	}

	newClaimID, err := findClaimCovering(ctx, def, args.HexX, args.HexZ, args.DimensionID, args.Facing)
	if err != nil {
		return err
	}
	if newClaimID != 0 {
		ok, err := claimLattice(ctx).CheckPermission(newClaimID, playerEntity, newClaimID, permission.RankBuild)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.NewError(runtime.KindUnauthorized, "insufficient claim rank to build here")
		}
	}

	if err := deleteFootprint(ctx, b.BuildingID); err != nil {
		return err
	}
	newTiles := footprintTiles(def, args.HexX, args.HexZ, args.DimensionID, b.BuildingID, args.Facing)
	if err := checkFootprintFree(ctx, newTiles); err != nil {
		return err
	}
	for _, tile := range newTiles {
		if err := ctx.World.Footprints.Insert(footprintKey(tile.DimensionID, tile.TileX, tile.TileZ), tile); err != nil {
			return err
		}
	}

	b.HexX, b.HexZ, b.Facing, b.DimensionID, b.ClaimID = args.HexX, args.HexZ, args.Facing, args.DimensionID, newClaimID
	if err := ctx.World.Buildings.Update(key, b); err != nil {
		return err
	}
	ctx.Publish("buildings", events.OpUpdate, b)
	return nil
}

// BuildingDeconstructArgs identifies the building to tear down.
type BuildingDeconstructArgs struct {
	BuildingID uint64 `json:"building_id"`
}

// buildingDeconstruct credits the owner with def.DeconstructRefund
// (best-effort; a full inventory doesn't block teardown), deletes the
// building's footprint tiles, and removes its BuildingState row.
func buildingDeconstruct(ctx *runtime.Context, raw json.RawMessage) error {
	var args BuildingDeconstructArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return runtime.Wrap(runtime.KindInvalidArgument, err, "decode building_deconstruct args")
	}

	key := storage.EncodeUint64Key(args.BuildingID)
	b, ok, err := ctx.World.Buildings.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return runtime.NewError(runtime.KindNotFound, "building %d not found", args.BuildingID)
	}

	playerEntity, _, _ := entityID(ctx, ctx.Caller)
	if b.OwnerEntity != playerEntity {
		if b.ClaimID == 0 {
			return runtime.NewError(runtime.KindUnauthorized, "only the owner can deconstruct this building")
		}
		ok, err := claimLattice(ctx).CheckPermission(b.ClaimID, playerEntity, b.ClaimID, permission.RankBuild)
		if err != nil {
			return err
		}
		if !ok {
			return runtime.NewError(runtime.KindUnauthorized, "insufficient claim rank to deconstruct")
		}
	}

	def, ok, err := ctx.World.BuildingDefs.Get(storage.EncodeUint64Key(b.BuildingDefID))
	if err != nil {
		return err
	}
	if ok && len(def.DeconstructRefund) > 0 {
		if container, cerr := playerContainer(ctx, b.OwnerEntity); cerr == nil {
			for _, cost := range def.DeconstructRefund {
				itemDef, ok, err := ctx.World.ItemDefs.Get(storage.EncodeUint64Key(cost.ItemDefID))
				if err != nil || !ok {
					continue
				}
				if _, err := inventory.AddPartial(ctx, container, itemDef, cost.Quantity, -1); err != nil {
					return err
				}
			}
		}
	}

	if err := deleteFootprint(ctx, b.BuildingID); err != nil {
		return err
	}
	if err := ctx.World.Buildings.Delete(key); err != nil {
		return err
	}
	ctx.Publish("buildings", events.OpDelete, b)
	return nil
}

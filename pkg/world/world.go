// Package world assembles every table in the data model into one handle.
// It is the only package that imports both pkg/storage and pkg/types —
// every other package reaches tables through a *world.World passed in by
// pkg/runtime.Context, never by opening storage.Table directly.
package world

import (
	"fmt"

	"github.com/cuemby/hexwarren/pkg/storage"
	"github.com/cuemby/hexwarren/pkg/types"
)

// World holds one open Table[T] per table in the data model.
type World struct {
	DB  *storage.DB
	Seq *storage.Sequences

	Accounts         *storage.Table[types.Account]
	AccountProfiles  *storage.Table[types.AccountProfile]
	Sessions         *storage.Table[types.SessionState]
	RoleBindings     *storage.Table[types.RoleBinding]
	ModerationFlags  *storage.Table[types.ModerationFlag]

	Transforms    *storage.Table[types.TransformState]
	TerrainChunks *storage.Table[types.TerrainChunk]

	Containers *storage.Table[types.InventoryContainer]
	Slots      *storage.Table[types.InventorySlot]
	Instances  *storage.Table[types.ItemInstance]
	Stacks     *storage.Table[types.ItemStack]
	ItemDefs   *storage.Table[types.ItemDef]
	ItemLists  *storage.Table[types.ItemListDef]
	Locks      *storage.Table[types.InventoryLock]

	Claims       *storage.Table[types.ClaimState]
	ClaimTiles   *storage.Table[types.ClaimTileState]
	ClaimMembers *storage.Table[types.ClaimMemberState]

	Buildings    *storage.Table[types.BuildingState]
	Footprints   *storage.Table[types.BuildingFootprint]
	ProjectSites *storage.Table[types.ProjectSiteState]
	BuildingDefs *storage.Table[types.BuildingDef]

	Permissions *storage.Table[types.PermissionState]

	FeatureFlags  *storage.Table[types.FeatureFlags]
	BalanceParams *storage.Table[types.BalanceParams]
	ExecutionLogs *storage.Table[types.AgentExecutionLog]
	LoopTimers    *storage.Table[types.LoopTimer]

	MovementLogs *storage.Table[types.MovementRequestLog]
	MovementActors *storage.Table[types.MovementActorState]
	MovementViolations *storage.Table[types.MovementViolation]

	Resources       *storage.Table[types.ResourceState]
	ResourceNodes   *storage.Table[types.ResourceNode]
	ResourceRegens  *storage.Table[types.ResourceRegenLog]
	CombatStates    *storage.Table[types.CombatState]
	CharacterStats  *storage.Table[types.CharacterStats]
	Threats         *storage.Table[types.ThreatState]
	AttackTimers    *storage.Table[types.AttackTimer]
	ImpactTimers    *storage.Table[types.ImpactTimer]
	EnvEffectStates *storage.Table[types.EnvironmentEffectState]
	EnvExposures    *storage.Table[types.EnvironmentEffectExposure]
	ClaimLocals     *storage.Table[types.ClaimLocalState]
	DecayStates     *storage.Table[types.BuildingDecayState]
	AgentMetrics    *storage.Table[types.AgentMetric]
	DayNight        *storage.Table[types.DayNightState]

	Trades  *storage.Table[types.TradeSession]
	Escrows *storage.Table[types.EscrowItem]

	NpcRequests *storage.Table[types.NpcActionRequest]
	NpcResults  *storage.Table[types.NpcActionResult]

	MarketOrders *storage.Table[types.MarketOrder]
	MarketFills  *storage.Table[types.MarketFill]

	ChatMessages *storage.Table[types.ChatMessage]
}

// Open opens the bbolt file at path and wires every table.
func Open(path string) (*World, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	seq, err := storage.NewSequences(db)
	if err != nil {
		return nil, fmt.Errorf("open sequences: %w", err)
	}

	w := &World{DB: db, Seq: seq}
	if err := w.openTables(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) openTables() error {
	var err error
	open := func(name string, assign func() error) {
		if err != nil {
			return
		}
		err = assign()
		if err != nil {
			err = fmt.Errorf("open table %s: %w", name, err)
		}
	}

	open("accounts", func() (e error) { w.Accounts, e = storage.NewTable[types.Account](w.DB, "accounts"); return })
	open("account_profiles", func() (e error) { w.AccountProfiles, e = storage.NewTable[types.AccountProfile](w.DB, "account_profiles"); return })
	open("sessions", func() (e error) { w.Sessions, e = storage.NewTable[types.SessionState](w.DB, "sessions"); return })
	open("role_bindings", func() (e error) { w.RoleBindings, e = storage.NewTable[types.RoleBinding](w.DB, "role_bindings"); return })
	open("moderation_flags", func() (e error) { w.ModerationFlags, e = storage.NewTable[types.ModerationFlag](w.DB, "moderation_flags"); return })

	open("transforms", func() (e error) { w.Transforms, e = storage.NewTable[types.TransformState](w.DB, "transforms"); return })
	open("terrain_chunks", func() (e error) { w.TerrainChunks, e = storage.NewTable[types.TerrainChunk](w.DB, "terrain_chunks"); return })

	open("containers", func() (e error) { w.Containers, e = storage.NewTable[types.InventoryContainer](w.DB, "containers"); return })
	open("slots", func() (e error) { w.Slots, e = storage.NewTable[types.InventorySlot](w.DB, "slots"); return })
	open("instances", func() (e error) { w.Instances, e = storage.NewTable[types.ItemInstance](w.DB, "instances"); return })
	open("stacks", func() (e error) { w.Stacks, e = storage.NewTable[types.ItemStack](w.DB, "stacks"); return })
	open("item_defs", func() (e error) { w.ItemDefs, e = storage.NewTable[types.ItemDef](w.DB, "item_defs"); return })
	open("item_lists", func() (e error) { w.ItemLists, e = storage.NewTable[types.ItemListDef](w.DB, "item_lists"); return })
	open("locks", func() (e error) { w.Locks, e = storage.NewTable[types.InventoryLock](w.DB, "locks"); return })

	open("claims", func() (e error) { w.Claims, e = storage.NewTable[types.ClaimState](w.DB, "claims"); return })
	open("claim_tiles", func() (e error) { w.ClaimTiles, e = storage.NewTable[types.ClaimTileState](w.DB, "claim_tiles"); return })
	open("claim_members", func() (e error) { w.ClaimMembers, e = storage.NewTable[types.ClaimMemberState](w.DB, "claim_members"); return })

	open("buildings", func() (e error) { w.Buildings, e = storage.NewTable[types.BuildingState](w.DB, "buildings"); return })
	open("footprints", func() (e error) { w.Footprints, e = storage.NewTable[types.BuildingFootprint](w.DB, "footprints"); return })
	open("project_sites", func() (e error) { w.ProjectSites, e = storage.NewTable[types.ProjectSiteState](w.DB, "project_sites"); return })
	open("building_defs", func() (e error) { w.BuildingDefs, e = storage.NewTable[types.BuildingDef](w.DB, "building_defs"); return })

	open("permissions", func() (e error) { w.Permissions, e = storage.NewTable[types.PermissionState](w.DB, "permissions"); return })

	open("feature_flags", func() (e error) { w.FeatureFlags, e = storage.NewTable[types.FeatureFlags](w.DB, "feature_flags"); return })
	open("balance_params", func() (e error) { w.BalanceParams, e = storage.NewTable[types.BalanceParams](w.DB, "balance_params"); return })
	open("execution_logs", func() (e error) { w.ExecutionLogs, e = storage.NewTable[types.AgentExecutionLog](w.DB, "execution_logs"); return })
	open("loop_timers", func() (e error) { w.LoopTimers, e = storage.NewTable[types.LoopTimer](w.DB, "loop_timers"); return })

	open("movement_logs", func() (e error) { w.MovementLogs, e = storage.NewTable[types.MovementRequestLog](w.DB, "movement_logs"); return })
	open("movement_actors", func() (e error) { w.MovementActors, e = storage.NewTable[types.MovementActorState](w.DB, "movement_actors"); return })
	open("movement_violations", func() (e error) { w.MovementViolations, e = storage.NewTable[types.MovementViolation](w.DB, "movement_violations"); return })

	open("resources", func() (e error) { w.Resources, e = storage.NewTable[types.ResourceState](w.DB, "resources"); return })
	open("resource_nodes", func() (e error) { w.ResourceNodes, e = storage.NewTable[types.ResourceNode](w.DB, "resource_nodes"); return })
	open("resource_regens", func() (e error) { w.ResourceRegens, e = storage.NewTable[types.ResourceRegenLog](w.DB, "resource_regens"); return })
	open("combat_states", func() (e error) { w.CombatStates, e = storage.NewTable[types.CombatState](w.DB, "combat_states"); return })
	open("character_stats", func() (e error) { w.CharacterStats, e = storage.NewTable[types.CharacterStats](w.DB, "character_stats"); return })
	open("threats", func() (e error) { w.Threats, e = storage.NewTable[types.ThreatState](w.DB, "threats"); return })
	open("attack_timers", func() (e error) { w.AttackTimers, e = storage.NewTable[types.AttackTimer](w.DB, "attack_timers"); return })
	open("impact_timers", func() (e error) { w.ImpactTimers, e = storage.NewTable[types.ImpactTimer](w.DB, "impact_timers"); return })
	open("env_effect_states", func() (e error) { w.EnvEffectStates, e = storage.NewTable[types.EnvironmentEffectState](w.DB, "env_effect_states"); return })
	open("env_exposures", func() (e error) { w.EnvExposures, e = storage.NewTable[types.EnvironmentEffectExposure](w.DB, "env_exposures"); return })
	open("claim_locals", func() (e error) { w.ClaimLocals, e = storage.NewTable[types.ClaimLocalState](w.DB, "claim_locals"); return })
	open("decay_states", func() (e error) { w.DecayStates, e = storage.NewTable[types.BuildingDecayState](w.DB, "decay_states"); return })
	open("agent_metrics", func() (e error) { w.AgentMetrics, e = storage.NewTable[types.AgentMetric](w.DB, "agent_metrics"); return })
	open("day_night", func() (e error) { w.DayNight, e = storage.NewTable[types.DayNightState](w.DB, "day_night"); return })

	open("trades", func() (e error) { w.Trades, e = storage.NewTable[types.TradeSession](w.DB, "trades"); return })
	open("escrows", func() (e error) { w.Escrows, e = storage.NewTable[types.EscrowItem](w.DB, "escrows"); return })

	open("npc_requests", func() (e error) { w.NpcRequests, e = storage.NewTable[types.NpcActionRequest](w.DB, "npc_requests"); return })
	open("npc_results", func() (e error) { w.NpcResults, e = storage.NewTable[types.NpcActionResult](w.DB, "npc_results"); return })

	open("market_orders", func() (e error) { w.MarketOrders, e = storage.NewTable[types.MarketOrder](w.DB, "market_orders"); return })
	open("market_fills", func() (e error) { w.MarketFills, e = storage.NewTable[types.MarketFill](w.DB, "market_fills"); return })

	open("chat_messages", func() (e error) { w.ChatMessages, e = storage.NewTable[types.ChatMessage](w.DB, "chat_messages"); return })

	return err
}

// Close closes the underlying database.
func (w *World) Close() error {
	return w.DB.Close()
}

// WithTx runs fn against a World whose tables are all bound to one bbolt
// write transaction: every mutation fn makes through tw, across every
// table, commits together, or — if fn returns an error — none of them
// do. pkg/manager wraps each reducer call in exactly one WithTx so a
// reducer that writes several rows and then fails leaves no partial
// state behind.
func (w *World) WithTx(fn func(tw *World) error) error {
	return w.DB.WithTx(func(txDB *storage.DB) error {
		tw := &World{DB: txDB, Seq: w.Seq.Bind(txDB)}
		tw.bindTables(txDB)
		return fn(tw)
	})
}

// bindTables re-points every table field at txDB. It mirrors openTables
// but uses Bind (no bucket creation, no error) since the buckets already
// exist from the original Open call against the same file.
func (w *World) bindTables(txDB *storage.DB) {
	w.Accounts = storage.Bind[types.Account](txDB, "accounts")
	w.AccountProfiles = storage.Bind[types.AccountProfile](txDB, "account_profiles")
	w.Sessions = storage.Bind[types.SessionState](txDB, "sessions")
	w.RoleBindings = storage.Bind[types.RoleBinding](txDB, "role_bindings")
	w.ModerationFlags = storage.Bind[types.ModerationFlag](txDB, "moderation_flags")

	w.Transforms = storage.Bind[types.TransformState](txDB, "transforms")
	w.TerrainChunks = storage.Bind[types.TerrainChunk](txDB, "terrain_chunks")

	w.Containers = storage.Bind[types.InventoryContainer](txDB, "containers")
	w.Slots = storage.Bind[types.InventorySlot](txDB, "slots")
	w.Instances = storage.Bind[types.ItemInstance](txDB, "instances")
	w.Stacks = storage.Bind[types.ItemStack](txDB, "stacks")
	w.ItemDefs = storage.Bind[types.ItemDef](txDB, "item_defs")
	w.ItemLists = storage.Bind[types.ItemListDef](txDB, "item_lists")
	w.Locks = storage.Bind[types.InventoryLock](txDB, "locks")

	w.Claims = storage.Bind[types.ClaimState](txDB, "claims")
	w.ClaimTiles = storage.Bind[types.ClaimTileState](txDB, "claim_tiles")
	w.ClaimMembers = storage.Bind[types.ClaimMemberState](txDB, "claim_members")

	w.Buildings = storage.Bind[types.BuildingState](txDB, "buildings")
	w.Footprints = storage.Bind[types.BuildingFootprint](txDB, "footprints")
	w.ProjectSites = storage.Bind[types.ProjectSiteState](txDB, "project_sites")
	w.BuildingDefs = storage.Bind[types.BuildingDef](txDB, "building_defs")

	w.Permissions = storage.Bind[types.PermissionState](txDB, "permissions")

	w.FeatureFlags = storage.Bind[types.FeatureFlags](txDB, "feature_flags")
	w.BalanceParams = storage.Bind[types.BalanceParams](txDB, "balance_params")
	w.ExecutionLogs = storage.Bind[types.AgentExecutionLog](txDB, "execution_logs")
	w.LoopTimers = storage.Bind[types.LoopTimer](txDB, "loop_timers")

	w.MovementLogs = storage.Bind[types.MovementRequestLog](txDB, "movement_logs")
	w.MovementActors = storage.Bind[types.MovementActorState](txDB, "movement_actors")
	w.MovementViolations = storage.Bind[types.MovementViolation](txDB, "movement_violations")

	w.Resources = storage.Bind[types.ResourceState](txDB, "resources")
	w.ResourceNodes = storage.Bind[types.ResourceNode](txDB, "resource_nodes")
	w.ResourceRegens = storage.Bind[types.ResourceRegenLog](txDB, "resource_regens")
	w.CombatStates = storage.Bind[types.CombatState](txDB, "combat_states")
	w.CharacterStats = storage.Bind[types.CharacterStats](txDB, "character_stats")
	w.Threats = storage.Bind[types.ThreatState](txDB, "threats")
	w.AttackTimers = storage.Bind[types.AttackTimer](txDB, "attack_timers")
	w.ImpactTimers = storage.Bind[types.ImpactTimer](txDB, "impact_timers")
	w.EnvEffectStates = storage.Bind[types.EnvironmentEffectState](txDB, "env_effect_states")
	w.EnvExposures = storage.Bind[types.EnvironmentEffectExposure](txDB, "env_exposures")
	w.ClaimLocals = storage.Bind[types.ClaimLocalState](txDB, "claim_locals")
	w.DecayStates = storage.Bind[types.BuildingDecayState](txDB, "decay_states")
	w.AgentMetrics = storage.Bind[types.AgentMetric](txDB, "agent_metrics")
	w.DayNight = storage.Bind[types.DayNightState](txDB, "day_night")

	w.Trades = storage.Bind[types.TradeSession](txDB, "trades")
	w.Escrows = storage.Bind[types.EscrowItem](txDB, "escrows")

	w.NpcRequests = storage.Bind[types.NpcActionRequest](txDB, "npc_requests")
	w.NpcResults = storage.Bind[types.NpcActionResult](txDB, "npc_results")

	w.MarketOrders = storage.Bind[types.MarketOrder](txDB, "market_orders")
	w.MarketFills = storage.Bind[types.MarketFill](txDB, "market_fills")

	w.ChatMessages = storage.Bind[types.ChatMessage](txDB, "chat_messages")
}

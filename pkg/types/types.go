// Package types holds the plain value types stored in every table the
// reducer core operates on. Nothing in this package talks to storage,
// raft, or the network — it is the shared vocabulary every other package
// imports.
package types

import "time"

// Identity is an opaque account identifier, stable across sessions.
type Identity [32]byte

// IsZero reports whether id is the unset identity.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Account is the durable record created once per player.
type Account struct {
	Identity  Identity
	CreatedAt time.Time
	Banned    bool
	BannedAt  time.Time
	BanReason string
}

// AccountProfile holds the player-chosen display identity.
type AccountProfile struct {
	Identity    Identity
	DisplayName string
	UpdatedAt   time.Time
}

// SessionStatus is the lifecycle state of a SessionState row.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// SessionState tracks one connected play session.
type SessionState struct {
	SessionID      string
	Identity       Identity
	Status         SessionStatus
	RegionID       uint64 // the server region this session is currently attached to
	ConnectedAt    time.Time
	LastActivityAt time.Time
	ClosedAt       time.Time
}

// RoleBinding grants an administrative or moderation role to an identity.
type RoleBinding struct {
	Identity  Identity
	Role      string
	GrantedBy Identity
	GrantedAt time.Time
}

// ModerationFlag records an open or resolved moderation case against an
// identity.
type ModerationFlag struct {
	FlagID     uint64
	Identity   Identity
	Reason     string
	CreatedBy  Identity
	CreatedAt  time.Time
	Resolved   bool
	ResolvedAt time.Time
}

// TransformState is the authoritative position/heading of any entity that
// exists in space (players, NPCs, dropped items).
type TransformState struct {
	EntityID    uint64
	DimensionID uint32
	X, Y, Z     float32
	Facing      float32
}

// TerrainChunk is one loaded slice of hex terrain.
type TerrainChunk struct {
	ChunkID     uint64
	DimensionID uint32
	ChunkX      int32
	ChunkZ      int32
	Data        []byte
}

// ContainerKind distinguishes inventory container roles.
type ContainerKind string

const (
	ContainerKindPlayer   ContainerKind = "player"
	ContainerKindStorage  ContainerKind = "storage"
	ContainerKindBuilding ContainerKind = "building"
	ContainerKindGround   ContainerKind = "ground"
)

// InventoryContainer is a bag of slots owned by a player, building, or the
// ground. Slots [0, CargoIndex) are "item" pockets budgeted by
// ItemPocketVolume; slots [CargoIndex, SlotCount) are "cargo" pockets
// budgeted by CargoPocketVolume.
type InventoryContainer struct {
	ContainerID       uint64
	Kind              ContainerKind
	OwnerEntity       uint64
	SlotCount         uint32
	CargoIndex        uint32
	ItemPocketVolume  uint32
	CargoPocketVolume uint32
	Locked            bool
}

// PocketVolume returns the volume budget of the pocket slotIndex falls
// in.
func (c InventoryContainer) PocketVolume(slotIndex uint32) uint32 {
	if slotIndex < c.CargoIndex {
		return c.ItemPocketVolume
	}
	return c.CargoPocketVolume
}

// InventorySlot is one addressable position inside a container.
type InventorySlot struct {
	ContainerID    uint64
	SlotIndex      uint32
	ItemInstanceID uint64 // 0 when empty
	Volume         uint32 // def.Volume * quantity while occupied, 0 when empty
	Locked         bool
	ItemTypeFilter uint64 // 0 means unrestricted
}

// ItemInstance is a unique, possibly-durable item.
type ItemInstance struct {
	ItemInstanceID uint64
	ItemDefID      uint64
	Durability     int32 // -1 when the item def has no durability
}

// ItemStack is the quantity half of an item sitting in a slot.
type ItemStack struct {
	ItemInstanceID uint64
	Quantity       uint32
}

// ItemDef is static item metadata. ItemListID, if nonzero, means "roll on
// this loot table when picked up" instead of granting the picked-up def
// directly. ConvertOnZeroDurability, if nonzero, names the def a stack
// turns into once its durability hits 0; zero means the stack is
// destroyed instead.
type ItemDef struct {
	ItemDefID               uint64
	Name                    string
	MaxStack                uint32
	Volume                  uint32
	MaxDurability           int32 // -1 means non-durable
	AutoCollect             bool
	ItemListID              uint64
	ConvertOnZeroDurability uint64
}

// LootEntry is one weighted row inside an ItemListDef.
type LootEntry struct {
	ItemDefID   uint64
	Quantity    uint32
	Probability float64 // cumulative, in [0,1], ascending within the list
}

// ItemListDef is a probability table resolved on pickup (loot lists,
// harvest yields).
type ItemListDef struct {
	ItemListID uint64
	Name       string
	Entries    []LootEntry
}

// InventoryLock marks a container as exclusively held (e.g. mid-trade).
type InventoryLock struct {
	ContainerID uint64
	HolderID    uint64
	AcquiredAt  time.Time
}

// ClaimState is a territorial claim over a set of hex tiles.
type ClaimState struct {
	ClaimID     uint64
	Name        string
	OwnerEntity uint64
	DimensionID uint32
	Supplies    uint32
	CreatedAt   time.Time
}

// ClaimTileState maps one hex tile to the claim covering it.
type ClaimTileState struct {
	DimensionID uint32
	TileX       int32
	TileZ       int32
	ClaimID     uint64
}

// ClaimMemberState is one player's membership grants within a claim.
// These four booleans are additive to whatever PermissionState grants the
// player already holds — see permission.Lattice.CheckPermission step 4.
type ClaimMemberState struct {
	EntityID            uint64
	ClaimID             uint64
	PlayerEntityID      uint64
	InventoryPermission bool
	BuildPermission     bool
	OfficerPermission   bool
	CoOwnerPermission   bool
}

// BuildingStatus is the lifecycle state of a placed building.
type BuildingStatus string

const (
	BuildingStatusActive        BuildingStatus = "active"
	BuildingStatusDeconstructed BuildingStatus = "deconstructed"
)

// BuildingState is a completed, standing building.
type BuildingState struct {
	BuildingID    uint64
	BuildingDefID uint64
	DimensionID   uint32
	HexX, HexZ    int32
	Facing        uint8
	ClaimID       uint64 // 0 means wilderness
	OwnerEntity   uint64
	HP            int32
	MaxHP         int32
	Status        BuildingStatus
	PlacedAt      time.Time
}

// FootprintTileType distinguishes structural footprint cells from
// decorative perimeter cells.
type FootprintTileType string

const (
	FootprintTileStructural FootprintTileType = "structural"
	FootprintTileDecorative FootprintTileType = "decorative"
)

// BuildingFootprint is one occupied hex cell belonging to a building or
// project site.
type BuildingFootprint struct {
	DimensionID int32
	TileX       int32
	TileZ       int32
	OwnerID     uint64 // BuildingID or ProjectSiteID
	TileType    FootprintTileType
	IsPerimeter bool
}

// ContributorInfo tracks one player's contribution to a project site.
type ContributorInfo struct {
	Identity       Identity
	ActionsApplied uint32
}

// ProjectSiteState is a building under construction.
type ProjectSiteState struct {
	ProjectSiteID        uint64
	BuildingDefID        uint64
	DimensionID          uint32
	HexX, HexZ           int32
	Facing               uint8
	ClaimID              uint64
	RequiredActions      uint32
	ActionsCompleted     uint32
	MaterialsContributed map[uint64]uint32 // item_def_id -> quantity
	Contributors         []ContributorInfo
	CreatedAt            time.Time
}

// PermissionState is one explicit grant row in the permission lattice.
// OrdainedEntityID is the object being accessed (a chest, a claim, a
// housing unit); AllowedEntityID is the subject the grant applies to,
// interpreted per Group (a player entity id for GroupPlayer, a claim id
// for GroupClaim, unused for GroupEveryone).
type PermissionState struct {
	EntityID         uint64
	OrdainedEntityID uint64
	AllowedEntityID  uint64
	Group            uint8 // GroupPlayer/GroupClaim/GroupEmpire/GroupEveryone
	Rank             uint8
}

// FeatureFlags is the singleton row gating optional subsystems.
type FeatureFlags struct {
	ID            uint8 // always 0
	AgentsEnabled bool
	PerAgent      map[string]bool
}

// BalanceParams is the singleton table of tunable numeric/string knobs,
// keyed by dotted name (e.g. "agent.player_regen_tick_millis").
type BalanceParams struct {
	Key   string
	Value string
}

// AgentExecutionLog records one completed agent tick for observability.
type AgentExecutionLog struct {
	LogID      uint64
	AgentName  string
	StartedAt  time.Time
	FinishedAt time.Time
	Err        string // empty on success
}

// LoopTimer is the generic scheduling row every agent owns one of.
type LoopTimer struct {
	AgentName   string
	ScheduledAt time.Time
}

// MovementRequestLog records a client movement request for anti-cheat
// auditing.
type MovementRequestLog struct {
	LogID      uint64
	Identity   Identity
	RequestID  string
	ClientTSMs int64
	Accepted   bool
	ReceivedAt time.Time
}

// MovementActorState is the last-accepted movement sample per identity.
type MovementActorState struct {
	Identity       Identity
	LastClientTSMs int64
	X, Y, Z        float32
	LastRequestID  string
}

// MovementViolation records a rejected movement request.
type MovementViolation struct {
	ViolationID string
	Identity    Identity
	Reason      string
	DetectedAt  time.Time
}

// --- SPEC_FULL supplemental tables ---

// ResourceState is a player's regenerating vitals.
type ResourceState struct {
	EntityID  uint64
	HP        float64
	Stamina   float64
	Satiation float64
	RegenTS   time.Time
}

// ResourceNode is a harvestable world resource.
type ResourceNode struct {
	EntityID      uint64
	ItemListID    uint64
	MaxAmount     uint32
	CurrentAmount uint32
	IsDepleted    bool
	RespawnAt     time.Time
}

// ResourceRegenLog tracks scheduled respawn of a depleted node.
type ResourceRegenLog struct {
	EntityID  uint64
	RespawnAt time.Time
}

// CombatState tracks recent-combat gating for passive regen.
type CombatState struct {
	EntityID              uint64
	LastAttackedTimestamp time.Time
}

// CharacterStats is the aggregated output of the stat-aggregation
// collaborator.
type CharacterStats struct {
	EntityID           uint64
	MaxHP              float64
	MaxStamina         float64
	MaxSatiation       float64
	ActiveHPRegen      float64
	ActiveStaminaRegen float64
	FlatBonuses        map[string]float64
	PctBonuses         map[string]float64
}

// ThreatState is one (owner, target) threat entry for the combat
// collaborator.
type ThreatState struct {
	OwnerEntityID  uint64
	TargetEntityID uint64
	Amount         float64
}

// AttackTimer schedules a pending attack's windup completion.
type AttackTimer struct {
	ScheduledID uint64
	ScheduledAt time.Time
	AttackerID  uint64
	TargetID    uint64
	WeaponDefID uint64
}

// ImpactTimer schedules a pending attack's damage application.
type ImpactTimer struct {
	ScheduledID uint64
	ScheduledAt time.Time
	AttackerID  uint64
	TargetID    uint64
	WeaponDefID uint64
}

// EnvironmentEffectState is per-entity environment tracking (biome,
// submersion) for the environment_debuff agent.
type EnvironmentEffectState struct {
	EntityID        uint64
	LastBiomeID     uint32
	LastEvaluatedAt time.Time
	IsSubmerged     bool
}

// EnvironmentEffectExposure accumulates exposure time to a specific
// environmental effect.
type EnvironmentEffectExposure struct {
	EntityID   uint64
	EffectID   uint32
	Exposure   float64
	LastTickAt time.Time
}

// ClaimLocalState is the claim-scoped supply pool building_decay draws
// maintenance from.
type ClaimLocalState struct {
	ClaimID  uint64
	Supplies uint32
}

// BuildingDecayState is the per-building decay/maintenance bookkeeping
// row.
type BuildingDecayState struct {
	EntityID             uint64
	LastDecayAt          time.Time
	DecayAccumulated     float64
	MaintenancePaidUntil time.Time
}

// AgentMetric is one metric_snapshot observation.
type AgentMetric struct {
	MetricID       uint64
	AgentName      string
	Timestamp      time.Time
	ItemsProcessed uint64
}

// DayPhase enumerates the day_night agent's cycle phases.
type DayPhase string

const (
	DayPhaseDawn  DayPhase = "dawn"
	DayPhaseDay   DayPhase = "day"
	DayPhaseDusk  DayPhase = "dusk"
	DayPhaseNight DayPhase = "night"
)

// DayNightState is the singleton row tracking the current day/night
// phase.
type DayNightState struct {
	ID                uint8 // always 0
	Phase             DayPhase
	PhaseStartedAt    time.Time
	CycleLengthMicros int64
}

// TradeStatus is the lifecycle of a TradeSession.
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// TradeSession is one escrowed player-to-player trade.
type TradeSession struct {
	TradeID              uint64
	InitiatorID          uint64
	CounterpartyID       uint64
	InitiatorAccepted    bool
	CounterpartyAccepted bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Status               TradeStatus
}

// EscrowItem is one item instance held in trade escrow.
type EscrowItem struct {
	EscrowID       uint64
	TradeID        uint64
	OwnerEntityID  uint64
	ItemInstanceID uint64
	SlotID         uint64
}

// NpcActionRequest is an outbound prompt to the NPC dialogue collaborator.
type NpcActionRequest struct {
	RequestID   uint64
	NpcEntityID uint64
	Prompt      string
	CreatedAt   time.Time
}

// NpcActionResult is the collaborator's response to an NpcActionRequest.
type NpcActionResult struct {
	RequestID  uint64
	Action     string
	Payload    string
	ReceivedAt time.Time
}

// MarketSide distinguishes buy and sell orders.
type MarketSide string

const (
	MarketSideBuy  MarketSide = "buy"
	MarketSideSell MarketSide = "sell"
)

// MarketOrder is one resting order in the order book.
type MarketOrder struct {
	OrderID       uint64
	ItemDefID     uint64
	RegionID      uint32
	Side          MarketSide
	Price         uint64
	Quantity      uint32
	OwnerEntityID uint64
	CreatedAt     time.Time
}

// MarketFill records one executed trade between two resting orders.
type MarketFill struct {
	FillID      uint64
	ItemDefID   uint64
	RegionID    uint32
	BuyOrderID  uint64
	SellOrderID uint64
	Quantity    uint32
	UnitPrice   uint64
	FilledAt    time.Time
}

// ChatMessage is one posted chat line, retained briefly for moderation
// replay before the chat_cleanup agent prunes it.
type ChatMessage struct {
	MessageID uint64
	Sender    Identity
	Channel   string
	Body      string
	SentAt    time.Time
}

// FootprintCell is one relative hex offset in a BuildingDef's footprint,
// pre-rotation.
type FootprintCell struct {
	DX, DZ      int32
	IsPerimeter bool
}

// MaterialCost is one (item_def_id, quantity) pair: a building's material
// requirement or deconstruction refund line.
type MaterialCost struct {
	ItemDefID uint64
	Quantity  uint32
}

// BuildingDef is static building metadata.
type BuildingDef struct {
	BuildingDefID     uint64
	Name              string
	MaxHP             int32
	Footprint         []FootprintCell
	RequiredActions   uint32
	InstantBuild      bool
	CanMove           bool
	RequiredMaterials []MaterialCost
	DeconstructRefund []MaterialCost
}

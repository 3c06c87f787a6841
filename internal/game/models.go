package game

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User stores a player identity. Points are not persisted; they are
// derived from building levels (or garrison population as a fallback)
// and only matter for morale scaling.
type User struct {
	gorm.Model
	UserUUID string `json:"user_uuid" gorm:"uniqueIndex"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex"`
}

// TableName keeps the global users table name explicit.
func (User) TableName() string { return "player_profiles" }

// Village is the owned settlement: coordinates, resource balances and
// the loyalty value that conquest attacks grind down.
type Village struct {
	gorm.Model
	UserID       uint   `json:"user_id" gorm:"index"`
	Name         string `json:"name" gorm:"size:32"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Wood         int    `json:"wood"`
	Clay         int    `json:"clay"`
	Iron         int    `json:"iron"`
	WarehouseCap int    `json:"warehouse_cap"`
	Loyalty      int    `json:"loyalty"`
}

// UnitClass is the combat archetype of a unit type. Infantry, cavalry,
// archer and siege are the four attack/defense buckets; scout and noble
// are special roles layered on top (scouts fight as cavalry, nobles as
// infantry when bucketing attack power).
type UnitClass string

const (
	ClassInfantry UnitClass = "infantry"
	ClassCavalry  UnitClass = "cavalry"
	ClassArcher   UnitClass = "archer"
	ClassSiege    UnitClass = "siege"
	ClassScout    UnitClass = "scout"
	ClassNoble    UnitClass = "noble"
)

// UnitType holds per-unit combat stats. Only the name columns are
// persisted; the stats are configured via the server config file and
// overlaid on load (config is the source of truth), so they are marked
// with `gorm:"-"`.
type UnitType struct {
	gorm.Model
	Name         string `json:"name"`
	InternalName string `json:"internal_name" gorm:"uniqueIndex"`

	Attack         int     `json:"attack" gorm:"-"`
	Defense        int     `json:"defense" gorm:"-"`
	DefenseCavalry int     `json:"defense_cavalry" gorm:"-"`
	DefenseArcher  int     `json:"defense_archer" gorm:"-"`
	CarryCapacity  int     `json:"carry_capacity" gorm:"-"`
	Population     int     `json:"population" gorm:"-"`
	// Speed is expressed in hours per field; the slowest unit of a
	// manifest dictates the travel time.
	Speed float64 `json:"speed" gorm:"-"`
}

func (UnitType) TableName() string { return "unit_types" }

// Class derives the combat archetype from the unit's internal name.
func (u UnitType) Class() UnitClass {
	return ClassForInternalName(u.InternalName)
}

// IsRam reports whether the unit batters walls.
func (u UnitType) IsRam() bool {
	return strings.Contains(strings.ToLower(u.InternalName), "ram")
}

// IsCatapult reports whether the unit bombards buildings.
func (u UnitType) IsCatapult() bool {
	return strings.Contains(strings.ToLower(u.InternalName), "catapult")
}

// ClassForInternalName maps an internal unit name to its archetype.
// Unknown names default to infantry so a misconfigured unit still
// participates in combat instead of vanishing from the math.
func ClassForInternalName(name string) UnitClass {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "scout"), strings.Contains(n, "spy"):
		return ClassScout
	case strings.Contains(n, "noble"):
		return ClassNoble
	case strings.Contains(n, "ram"), strings.Contains(n, "catapult"):
		return ClassSiege
	case strings.Contains(n, "archer"):
		return ClassArcher
	case strings.Contains(n, "cavalry"), strings.Contains(n, "knight"):
		return ClassCavalry
	default:
		return ClassInfantry
	}
}

// UnitStack is a garrison entry: a count of one unit type stationed in
// one village. A stack with count 0 is deleted, never stored.
type UnitStack struct {
	gorm.Model
	VillageID  uint `json:"village_id" gorm:"uniqueIndex:idx_village_unit"`
	UnitTypeID uint `json:"unit_type_id" gorm:"uniqueIndex:idx_village_unit"`
	Count      int  `json:"count"`
}

func (UnitStack) TableName() string { return "unit_stacks" }

// OperationKind discriminates the five dispatch flavors plus the
// synthetic return march spawned by cancellation or survivor retreat.
type OperationKind string

const (
	OperationAttack  OperationKind = "attack"
	OperationRaid    OperationKind = "raid"
	OperationSupport OperationKind = "support"
	OperationSpy     OperationKind = "spy"
	OperationFake    OperationKind = "fake"
	OperationReturn  OperationKind = "return"
)

// IsBattle reports whether the kind resolves through the combat path.
// Fakes travel and arrive like attacks but carry a token force.
func (k OperationKind) IsBattle() bool {
	return k == OperationAttack || k == OperationRaid || k == OperationFake
}

// Operation is a dispatched force in transit between two villages. It
// owns a manifest of unit stack snapshots separate from any garrison.
// Operations are never deleted: resolution marks them completed and
// cancellation marks them canceled, keeping the audit trail intact.
type Operation struct {
	gorm.Model
	PublicID        string        `json:"public_id" gorm:"uniqueIndex"`
	SourceVillageID uint          `json:"source_village_id" gorm:"index"`
	TargetVillageID uint          `json:"target_village_id" gorm:"index"`
	Kind            OperationKind `json:"kind"`
	// TargetBuilding is the optional catapult aim (internal building name).
	TargetBuilding string    `json:"target_building"`
	DispatchedAt   time.Time `json:"dispatched_at"`
	ArrivesAt      time.Time `json:"arrives_at" gorm:"index"`
	IsCompleted    bool      `json:"is_completed"`
	IsCanceled     bool      `json:"is_canceled"`

	Manifest []OperationStack `json:"manifest"`
}

func (Operation) TableName() string { return "operations" }

// Pending reports whether the operation can still be resolved or
// canceled.
func (o *Operation) Pending() bool { return !o.IsCompleted && !o.IsCanceled }

// OperationStack is one manifest line: a unit type and count traveling
// with an operation.
type OperationStack struct {
	gorm.Model
	OperationID uint `json:"-" gorm:"index"`
	UnitTypeID  uint `json:"unit_type_id"`
	Count       int  `json:"count"`
}

func (OperationStack) TableName() string { return "operation_stacks" }

// BattleReport is the append-only canonical outcome of a resolved
// battle or spy operation. The Outcome column holds the structured
// blob (JSON text) whose field names are a compatibility surface for
// report rendering and audits.
type BattleReport struct {
	gorm.Model
	OperationID uint   `json:"operation_id" gorm:"uniqueIndex"`
	AttackerWon bool   `json:"attacker_won"`
	Outcome     string `json:"outcome" gorm:"type:text"`
}

func (BattleReport) TableName() string { return "battle_reports" }

// ReportKind tags inbox entries so clients can pick icons/titles.
type ReportKind string

const (
	ReportKindAttack  ReportKind = "attack"
	ReportKindDefense ReportKind = "defense"
	ReportKindSpy     ReportKind = "spy"
	ReportKindSpied   ReportKind = "spied"
	ReportKindSupport ReportKind = "support"
	ReportKindReturn  ReportKind = "return"
)

// Report is a per-user inbox entry. Both participants of a resolved
// operation receive one, with side-appropriate titles, independently of
// the shared BattleReport record.
type Report struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index"`
	Kind        ReportKind `json:"kind"`
	Title       string     `json:"title" gorm:"size:128"`
	Payload     string     `json:"payload" gorm:"type:text"`
	OperationID uint       `json:"operation_id" gorm:"index"`
}

func (Report) TableName() string { return "user_reports" }

// BuildingLevel stores one building's level in one village. A missing
// row reads as level 0.
type BuildingLevel struct {
	gorm.Model
	VillageID    uint   `json:"village_id" gorm:"uniqueIndex:idx_village_building"`
	InternalName string `json:"internal_name" gorm:"uniqueIndex:idx_village_building"`
	Level        int    `json:"level"`
}

func (BuildingLevel) TableName() string { return "building_levels" }

// ResearchLevel stores one technology's level in one village.
type ResearchLevel struct {
	gorm.Model
	VillageID    uint   `json:"village_id" gorm:"uniqueIndex:idx_village_research"`
	InternalName string `json:"internal_name" gorm:"uniqueIndex:idx_village_research"`
	Level        int    `json:"level"`
}

func (ResearchLevel) TableName() string { return "research_levels" }

// Internal building names used by the engine and the seeders.
const (
	BuildingHeadquarters = "headquarters"
	BuildingRallyPoint   = "rally_point"
	BuildingWall         = "wall"
	BuildingChurch       = "church"
	BuildingFirstChurch  = "first_church"
	BuildingHidingPlace  = "hiding_place"
	BuildingFarm         = "farm"
	BuildingWarehouse    = "warehouse"
	BuildingTimberCamp   = "timber_camp"
	BuildingClayPit      = "clay_pit"
	BuildingIronMine     = "iron_mine"
	BuildingBarracks     = "barracks"
	BuildingStable       = "stable"
	BuildingWorkshop     = "workshop"
	BuildingSmithy       = "smithy"
	BuildingMarket       = "market"
)

// Internal research names consumed by the resolvers.
const (
	ResearchSpy = "spy_craft"
)

package engine

import (
	"math"
	"sort"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

// Stack pairs a unit type with a count, either a garrison entry or one
// line of an operation manifest.
type Stack struct {
	Unit  game.UnitType
	Count int
}

// The four buckets attack power is split into. Scouts ride with the
// cavalry and nobles march with the infantry for bucketing purposes.
var attackClasses = []game.UnitClass{game.ClassInfantry, game.ClassCavalry, game.ClassArcher, game.ClassSiege}

func attackClassOf(u game.UnitType) game.UnitClass {
	switch u.Class() {
	case game.ClassScout:
		return game.ClassCavalry
	case game.ClassNoble:
		return game.ClassInfantry
	case game.ClassCavalry, game.ClassArcher, game.ClassSiege:
		return u.Class()
	default:
		return game.ClassInfantry
	}
}

// AttackProfile is the attacking force's power, bucketed by archetype.
type AttackProfile struct {
	ByClass map[game.UnitClass]float64
	Total   float64
}

// Share returns the fraction of total attack power contributed by one
// class. Zero when the force is empty.
func (p AttackProfile) Share(class game.UnitClass) float64 {
	if p.Total <= 0 {
		return 0
	}
	return p.ByClass[class] / p.Total
}

// BuildAttackProfile sums attack×count per manifest line into the four
// class buckets.
func BuildAttackProfile(manifest []Stack) AttackProfile {
	p := AttackProfile{ByClass: make(map[game.UnitClass]float64, len(attackClasses))}
	for _, s := range manifest {
		if s.Count <= 0 {
			continue
		}
		v := float64(s.Unit.Attack) * float64(s.Count)
		p.ByClass[attackClassOf(s.Unit)] += v
		p.Total += v
	}
	return p
}

// defenseAgainst returns the stat a unit contributes against one
// attacking class. Cavalry/archer values fall back to the base defense
// when unset; siege attacks are opposed by the base defense.
func defenseAgainst(u game.UnitType, class game.UnitClass) int {
	switch class {
	case game.ClassCavalry:
		if u.DefenseCavalry > 0 {
			return u.DefenseCavalry
		}
	case game.ClassArcher:
		if u.DefenseArcher > 0 {
			return u.DefenseArcher
		}
	}
	return u.Defense
}

// DefenseValue computes the composition-weighted defense of a garrison:
// per attacking class the garrison's matching defense stats are summed
// and scaled by wall, faith and luck, then each class total is weighted
// by that class's share of the attacker's power. A garrison strong
// against cavalry does not protect against a siege-only assault.
// The returned value is never below 1.
func DefenseValue(garrison []Stack, wallBonus, faithBonus, luck float64, atk AttackProfile) float64 {
	mult := wallBonus * faithBonus * luck
	total := 0.0
	for _, class := range attackClasses {
		classTotal := 0.0
		for _, s := range garrison {
			if s.Count <= 0 {
				continue
			}
			classTotal += float64(defenseAgainst(s.Unit, class)) * float64(s.Count)
		}
		total += atk.Share(class) * classTotal * mult
	}
	if total < 1 {
		return 1
	}
	return total
}

// WallBonus is the defense multiplier granted by the wall level.
func WallBonus(level int) float64 { return 1 + 0.08*float64(level) }

// FaithBonus is the defense multiplier granted by church buildings.
func FaithBonus(churchLevel int, hasFirstChurch bool) float64 {
	b := 1 + 0.05*float64(churchLevel)
	if hasFirstChurch {
		b += 0.10
	}
	if b < 1 {
		return 1
	}
	return b
}

// MoraleFactor dampens a stronger attacker's power against a weaker
// defender. 1.0 when the attacker is not ahead on points or either side
// has none; otherwise sqrt(def/atk) clamped to [0.30, 1.0].
func MoraleFactor(attackerPoints, defenderPoints int) float64 {
	if attackerPoints <= 0 || defenderPoints <= 0 || attackerPoints <= defenderPoints {
		return 1.0
	}
	m := math.Sqrt(float64(defenderPoints) / float64(attackerPoints))
	return clamp(m, 0.30, 1.0)
}

// LuckSpread is the default half-width of the luck interval.
const LuckSpread = 0.25

// RollLuck rolls a uniform factor in [1-spread, 1+spread]. Attacker and
// defender each get an independent roll.
func RollLuck(rng Rng, spread float64) float64 {
	return 1 - spread + rng.Float64()*2*spread
}

// RaidLossScale cheapens raids for both sides.
const RaidLossScale = 0.65

// BattleResult carries the winner flag and the per-side loss factors.
type BattleResult struct {
	AttackerWins       bool
	AttackerLossFactor float64
	DefenderLossFactor float64
}

// Resolve turns two opposing power values into the outcome and the
// power-ratio casualty curves. Every combatant, winner included, loses
// at least 30% of its force; raids scale both factors by 0.65.
func Resolve(attackPower, defensePower float64, isRaid bool) BattleResult {
	ap := math.Max(attackPower, 1)
	dp := math.Max(defensePower, 1)
	ratio := ap / dp

	res := BattleResult{AttackerWins: attackPower >= defensePower}
	ratioForWinner := ratio
	if !res.AttackerWins {
		ratioForWinner = 1 / ratio
	}
	winnerLoss := clamp(0.9*math.Pow(ratioForWinner, -0.9), 0.30, 1.0)
	loserLoss := clamp(0.9*math.Pow(ratioForWinner, 0.65), 0.30, 1.0)
	if res.AttackerWins {
		res.AttackerLossFactor = winnerLoss
		res.DefenderLossFactor = loserLoss
	} else {
		res.AttackerLossFactor = loserLoss
		res.DefenderLossFactor = winnerLoss
	}
	if isRaid {
		res.AttackerLossFactor *= RaidLossScale
		res.DefenderLossFactor *= RaidLossScale
	}
	return res
}

// ApplyLossFactor converts a loss factor into whole casualties for one
// stack. Remaining never goes negative.
func ApplyLossFactor(count int, factor float64) (lost, remaining int) {
	if count <= 0 {
		return 0, 0
	}
	lost = int(math.Round(float64(count) * factor))
	if lost > count {
		lost = count
	}
	return lost, count - lost
}

// HiddenPerResource is the per-resource amount protected by the hiding
// place: floor(150 × 1.233^level). Level 0 still hides 150.
func HiddenPerResource(hidingLevel int) int {
	if hidingLevel < 0 {
		hidingLevel = 0
	}
	return int(math.Floor(150 * math.Pow(1.233, float64(hidingLevel))))
}

// RaidLootCap limits raids to this share of the unhidden resources.
const RaidLootCap = 0.60

// Loot computes the plunder hauled home by the surviving attackers.
// Resources under hiding-place protection are untouchable; raids are
// additionally capped to 60% of what remains. The haul is split as
// evenly as a three-way division allows (remainder on iron), each share
// capped by that resource's own availability.
func Loot(capacity int, available game.ResourceSet, hidingLevel int, isRaid bool) game.ResourceSet {
	hidden := HiddenPerResource(hidingLevel)
	avail := game.ResourceSet{
		Wood: maxInt(0, available.Wood-hidden),
		Clay: maxInt(0, available.Clay-hidden),
		Iron: maxInt(0, available.Iron-hidden),
	}
	lootable := avail.Total()
	if isRaid {
		lootable = int(math.Floor(float64(lootable) * RaidLootCap))
	}
	total := minInt(capacity, lootable)
	if total <= 0 {
		return game.ResourceSet{}
	}

	share := total / 3
	want := [3]int{share, share, total - 2*share}
	have := [3]int{avail.Wood, avail.Clay, avail.Iron}
	var got [3]int
	for i := range want {
		got[i] = minInt(want[i], have[i])
	}
	return game.ResourceSet{Wood: got[0], Clay: got[1], Iron: got[2]}
}

// WallDamage computes the wall level left after surviving rams hit it.
// Raids never reach this code path.
func WallDamage(survivingRams, wallLevel int) int {
	destroyed := int(math.Floor(math.Max(0, float64(survivingRams)*2-float64(wallLevel)*0.5)))
	if destroyed <= 0 {
		return wallLevel
	}
	return maxInt(0, wallLevel-destroyed)
}

// CatapultAim is the outcome of a catapult volley: the building that
// was actually struck (a miss redirects to a random damaged-able
// building) and its level before/after.
type CatapultAim struct {
	Building string
	Before   int
	After    int
	Hit      bool
}

// BuildingDamage resolves a catapult volley against a village. Aimed
// may be empty for an unaimed volley. Accuracy is 0.25 base, +0.25 with
// a designated target. The wall is excluded from the miss pool; rams
// own wall damage. Returns nil when there is nothing to hit.
func BuildingDamage(rng Rng, survivingCatapults int, aimed string, levels map[string]int) *CatapultAim {
	if survivingCatapults <= 0 {
		return nil
	}
	pool := make([]string, 0, len(levels))
	for name, lvl := range levels {
		if lvl > 0 && name != game.BuildingWall {
			pool = append(pool, name)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sort.Strings(pool)

	accuracy := 0.25
	target := ""
	if aimed != "" && levels[aimed] > 0 && aimed != game.BuildingWall {
		accuracy = 0.50
		target = aimed
	} else {
		target = pool[rng.Intn(len(pool))]
	}

	hit := rng.Float64() < accuracy
	if !hit {
		target = pool[rng.Intn(len(pool))]
	}

	before := levels[target]
	destroyed := int(math.Floor(float64(survivingCatapults) * 2 * accuracy))
	after := maxInt(0, before-destroyed)
	return &CatapultAim{Building: target, Before: before, After: after, Hit: hit}
}

// LoyaltyDrop rolls the loyalty loss inflicted by a surviving noble,
// uniform in [20, 35].
func LoyaltyDrop(rng Rng) int { return 20 + rng.Intn(16) }

// LoyaltyAfterConquest is the value a village's loyalty resets to when
// ownership transfers.
const LoyaltyAfterConquest = 25

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

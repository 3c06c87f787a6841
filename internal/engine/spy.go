package engine

import "math"

// Espionage scoring is structurally parallel to combat but distinct:
// scouts do not fight in the attack/defense sense, they race the
// defender's counter-intelligence.

// SpyLuckSpread is the half-width of the espionage luck interval,
// tighter than battle luck.
const SpyLuckSpread = 0.10

// RollSpyLuck rolls a uniform factor in [0.90, 1.10]. Each side gets an
// independent roll.
func RollSpyLuck(rng Rng) float64 { return RollLuck(rng, SpyLuckSpread) }

// SpyAttackScore is the attacker's espionage score before luck:
// max(1, spies) × (1 + 0.15×researchLevel), multiplied by the rolled
// luck factor.
func SpyAttackScore(spies, researchLevel int, luck float64) float64 {
	n := float64(spies)
	if n < 1 {
		n = 1
	}
	return n * (1 + 0.15*float64(researchLevel)) * luck
}

// SpyDefenseScore is the defender's counter-espionage score: resident
// scouts scaled by research, plus 0.6 per wall level, times luck.
func SpyDefenseScore(spies, researchLevel, wallLevel int, luck float64) float64 {
	return (float64(spies)*(1+0.15*float64(researchLevel)) + float64(wallLevel)*0.6) * luck
}

// SpySuccess reports whether the mission gathers intel: at least one
// scout was sent and the attack score meets the defense score (floored
// at 1 so an undefended village is not a guaranteed walkover for an
// empty mission).
func SpySuccess(attackScore, defenseScore float64, spiesSent int) bool {
	return spiesSent > 0 && attackScore >= math.Max(1, defenseScore)
}

// SpyAttackerLosses computes how many of the sent scouts die. A failed
// mission loses every scout; a successful one loses a share that grows
// with the defender's relative score.
func SpyAttackerLosses(success bool, attackScore, defenseScore float64, sent int) int {
	if sent <= 0 {
		return 0
	}
	if !success {
		return sent
	}
	lost := int(math.Ceil(defenseScore / attackScore * float64(sent) * 0.6))
	return minInt(sent, lost)
}

// SpyDefenderLosses computes the defender's scout casualties: on
// attacker success half the sent scouts' worth, on failure a 30% toll,
// both capped by the defender's actual count.
func SpyDefenderLosses(success bool, sent, defenderSpies int) int {
	if defenderSpies <= 0 {
		return 0
	}
	if success {
		return minInt(defenderSpies, sent/2)
	}
	return minInt(defenderSpies, int(math.Ceil(float64(sent)*0.3)))
}

// SpyIntelLevel derives the intel tier unlocked by a successful
// mission: the attacker's research level plus a scale bonus for the
// surviving scouts. Building snapshots unlock at level 2, units at 3,
// research at 4; the resource snapshot is always included.
func SpyIntelLevel(attackerResearchLevel, survivors int) int {
	bonus := 0
	switch {
	case survivors >= 5:
		bonus = 2
	case survivors >= 2:
		bonus = 1
	}
	return attackerResearchLevel + bonus
}

// Intel tier thresholds.
const (
	IntelTierBuildings = 2
	IntelTierUnits     = 3
	IntelTierResearch  = 4
)

package game

import "encoding/json"

// ResourceSet is a wood/clay/iron triple used for loot, balances and
// intel snapshots.
type ResourceSet struct {
	Wood int `json:"wood"`
	Clay int `json:"clay"`
	Iron int `json:"iron"`
}

// Total sums the three resources.
func (r ResourceSet) Total() int { return r.Wood + r.Clay + r.Iron }

// UnitLoss records one unit type's fate in a battle. Initial is always
// Lost + Remaining (conservation is asserted by tests).
type UnitLoss struct {
	Unit      string `json:"unit"`
	Initial   int    `json:"initial"`
	Lost      int    `json:"lost"`
	Remaining int    `json:"remaining"`
}

// WallDamage describes ram damage applied to the wall.
type WallDamage struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// BuildingDamage describes catapult damage applied to one building.
type BuildingDamage struct {
	Building string `json:"building"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Hit      bool   `json:"hit"`
}

// LoyaltyChange describes a noble-led loyalty drop on the target.
type LoyaltyChange struct {
	Before int `json:"before"`
	Drop   int `json:"drop"`
	After  int `json:"after"`
}

// BattleOutcome is the structured blob persisted for attack/raid
// resolutions. Field names are a compatibility surface: rendering and
// historical audits depend on them staying stable.
type BattleOutcome struct {
	AttackerLosses []UnitLoss      `json:"attacker_losses"`
	DefenderLosses []UnitLoss      `json:"defender_losses"`
	Loot           ResourceSet     `json:"loot"`
	AttackLuck     float64         `json:"attack_luck"`
	DefenseLuck    float64         `json:"defense_luck"`
	Morale         float64         `json:"morale"`
	WallDamage     *WallDamage     `json:"wall_damage,omitempty"`
	BuildingDamage *BuildingDamage `json:"building_damage,omitempty"`
	Loyalty        *LoyaltyChange  `json:"loyalty,omitempty"`
	Conquered      bool            `json:"conquered"`
}

// SpyScores carries the rolled attacker/defender espionage scores.
type SpyScores struct {
	Attack  float64 `json:"attack"`
	Defense float64 `json:"defense"`
}

// SpyIntel is the tiered reconnaissance payload of a successful spy
// mission. Nil maps/slices mean that tier was not unlocked.
type SpyIntel struct {
	Level     int            `json:"level"`
	Resources ResourceSet    `json:"resources"`
	Buildings map[string]int `json:"buildings,omitempty"`
	Units     map[string]int `json:"units,omitempty"`
	Research  map[string]int `json:"research,omitempty"`
}

// SpyOutcome is the structured blob persisted for spy resolutions.
type SpyOutcome struct {
	Success           bool      `json:"success"`
	SpiesSent         int       `json:"spies_sent"`
	SpiesLost         int       `json:"spies_lost"`
	SpiesReturned     int       `json:"spies_returned"`
	DefenderSpies     int       `json:"defender_spies"`
	DefenderSpiesLost int       `json:"defender_spies_lost"`
	Scores            SpyScores `json:"scores"`
	Intel             *SpyIntel `json:"intel,omitempty"`
}

// EncodeOutcome marshals an outcome blob for storage in a BattleReport.
func EncodeOutcome(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeBattleOutcome parses a battle blob back into its struct form.
func DecodeBattleOutcome(s string) (*BattleOutcome, error) {
	var out BattleOutcome
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeSpyOutcome parses a spy blob back into its struct form.
func DecodeSpyOutcome(s string) (*SpyOutcome, error) {
	var out SpyOutcome
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

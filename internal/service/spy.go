package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/goleaf/tribal-clone-sub002/internal/engine"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// resolveSpy runs the espionage math for an arrived scout mission.
// Non-scout units that slipped into the manifest are preserved
// untouched and simply travel home with the survivors.
func (s *Service) resolveSpy(tx storage.Repository, op *game.Operation) error {
	idx, err := loadUnitIndex(tx)
	if err != nil {
		return err
	}
	attacker, err := loadCombatContext(tx, op.SourceVillageID)
	if err != nil {
		return err
	}
	defender, err := loadCombatContext(tx, op.TargetVillageID)
	if err != nil {
		return err
	}

	spiesSent := 0
	var extras []game.OperationStack
	var scoutLines []game.OperationStack
	for _, m := range op.Manifest {
		if idx.unit(m.UnitTypeID).Class() == game.ClassScout {
			spiesSent += m.Count
			scoutLines = append(scoutLines, m)
		} else {
			extras = append(extras, m)
		}
	}

	garrison, err := tx.GetGarrison(op.TargetVillageID)
	if err != nil {
		return err
	}
	defenderSpies := 0
	var defenderScoutRows []game.UnitStack
	for _, st := range garrison {
		if idx.unit(st.UnitTypeID).Class() == game.ClassScout {
			defenderSpies += st.Count
			defenderScoutRows = append(defenderScoutRows, st)
		}
	}

	atkResearch, err := tx.GetResearchLevel(op.SourceVillageID, game.ResearchSpy)
	if err != nil {
		return err
	}
	defResearch, err := tx.GetResearchLevel(op.TargetVillageID, game.ResearchSpy)
	if err != nil {
		return err
	}

	atkScore := engine.SpyAttackScore(spiesSent, atkResearch, engine.RollSpyLuck(s.rng))
	defScore := engine.SpyDefenseScore(defenderSpies, defResearch, defender.wall, engine.RollSpyLuck(s.rng))
	success := engine.SpySuccess(atkScore, defScore, spiesSent)

	spiesLost := engine.SpyAttackerLosses(success, atkScore, defScore, spiesSent)
	defendersLost := engine.SpyDefenderLosses(success, spiesSent, defenderSpies)
	survivors := spiesSent - spiesLost

	outcome := game.SpyOutcome{
		Success:           success,
		SpiesSent:         spiesSent,
		SpiesLost:         spiesLost,
		SpiesReturned:     survivors,
		DefenderSpies:     defenderSpies,
		DefenderSpiesLost: defendersLost,
		Scores:            game.SpyScores{Attack: atkScore, Defense: defScore},
	}

	// Defender scout casualties come off the garrison, front to back.
	remainingToKill := defendersLost
	for _, row := range defenderScoutRows {
		if remainingToKill <= 0 {
			break
		}
		kill := row.Count
		if kill > remainingToKill {
			kill = remainingToKill
		}
		if err := tx.AdjustUnitStack(op.TargetVillageID, row.UnitTypeID, -kill); err != nil {
			return err
		}
		remainingToKill -= kill
	}

	if success && defender.village != nil {
		outcome.Intel = s.buildIntel(tx, idx, defender, garrison, atkResearch, survivors)
	}

	// Surviving scouts (and any stowaway units) travel home.
	manifest := make([]game.OperationStack, 0, len(op.Manifest))
	remainingSurvivors := survivors
	for _, m := range scoutLines {
		n := m.Count
		if n > remainingSurvivors {
			n = remainingSurvivors
		}
		if n > 0 {
			manifest = append(manifest, game.OperationStack{UnitTypeID: m.UnitTypeID, Count: n})
			remainingSurvivors -= n
		}
	}
	for _, m := range extras {
		manifest = append(manifest, game.OperationStack{UnitTypeID: m.UnitTypeID, Count: m.Count})
	}
	if len(manifest) > 0 {
		now := s.now()
		travel := op.ArrivesAt.Sub(op.DispatchedAt)
		if travel < time.Second {
			travel = time.Second
		}
		ret := &game.Operation{
			PublicID:        uuid.NewString(),
			SourceVillageID: op.TargetVillageID,
			TargetVillageID: op.SourceVillageID,
			Kind:            game.OperationReturn,
			DispatchedAt:    now,
			ArrivesAt:       now.Add(travel),
			Manifest:        manifest,
		}
		if err := tx.CreateOperation(ret); err != nil {
			return err
		}
	}

	return s.writeSpyReport(tx, op, &outcome, attacker, defender)
}

// buildIntel assembles the tiered reconnaissance payload. Lookup
// failures inside a tier degrade to an absent snapshot rather than
// failing the mission.
func (s *Service) buildIntel(tx storage.Repository, idx *unitIndex, defender *combatContext, garrison []game.UnitStack, atkResearch, survivors int) *game.SpyIntel {
	v := defender.village
	level := engine.SpyIntelLevel(atkResearch, survivors)
	intel := &game.SpyIntel{
		Level:     level,
		Resources: game.ResourceSet{Wood: v.Wood, Clay: v.Clay, Iron: v.Iron},
	}
	if level >= engine.IntelTierBuildings {
		if buildings, err := tx.GetAllBuildingLevels(v.ID); err == nil {
			intel.Buildings = buildings
		}
	}
	if level >= engine.IntelTierUnits {
		units := make(map[string]int, len(garrison))
		for _, st := range garrison {
			units[idx.unit(st.UnitTypeID).InternalName] = st.Count
		}
		intel.Units = units
	}
	if level >= engine.IntelTierResearch {
		if research, err := tx.GetAllResearchLevels(v.ID); err == nil {
			intel.Research = research
		}
	}
	return intel
}

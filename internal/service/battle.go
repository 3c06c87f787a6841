package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/goleaf/tribal-clone-sub002/internal/engine"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// combatContext is the read-only projection of one village assembled
// for a single resolution. A missing village row yields a neutral
// context instead of failing the batch.
type combatContext struct {
	village     *game.Village
	ownerID     uint
	points      int
	wall        int
	church      int
	firstChurch bool
	hiding      int
}

func loadCombatContext(tx storage.Repository, villageID uint) (*combatContext, error) {
	v, err := tx.GetVillageByID(villageID)
	if err != nil {
		// Missing village row: neutral context, zero protection.
		return &combatContext{}, nil
	}
	ctx := &combatContext{village: v, ownerID: v.UserID}
	if ctx.wall, err = tx.GetBuildingLevel(v.ID, game.BuildingWall); err != nil {
		return nil, err
	}
	if ctx.church, err = tx.GetBuildingLevel(v.ID, game.BuildingChurch); err != nil {
		return nil, err
	}
	first, err := tx.GetBuildingLevel(v.ID, game.BuildingFirstChurch)
	if err != nil {
		return nil, err
	}
	ctx.firstChurch = first > 0
	if ctx.hiding, err = tx.GetBuildingLevel(v.ID, game.BuildingHidingPlace); err != nil {
		return nil, err
	}
	if ctx.points, err = tx.GetUserPoints(v.UserID); err != nil {
		return nil, err
	}
	return ctx, nil
}

// survivorStack pairs a manifest line with its post-battle count.
type survivorStack struct {
	unit      game.UnitType
	remaining int
}

// resolveBattle runs the combat math for an arrived attack/raid/fake
// and applies every effect — casualties, loot, structural damage,
// loyalty/conquest, survivor return and reports — within the caller's
// transaction.
func (s *Service) resolveBattle(tx storage.Repository, op *game.Operation) error {
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

	garrison, err := tx.GetGarrison(op.TargetVillageID)
	if err != nil {
		return err
	}
	atkStacks := idx.manifestStacks(op.Manifest)
	defStacks := idx.stacks(garrison)

	isRaid := op.Kind == game.OperationRaid
	profile := engine.BuildAttackProfile(atkStacks)
	luckA := engine.RollLuck(s.rng, s.world.LuckSpread)
	luckD := engine.RollLuck(s.rng, s.world.LuckSpread)
	morale := engine.MoraleFactor(attacker.points, defender.points)

	attackPower := profile.Total * morale * luckA
	defensePower := engine.DefenseValue(
		defStacks,
		engine.WallBonus(defender.wall),
		engine.FaithBonus(defender.church, defender.firstChurch),
		luckD,
		profile,
	)
	result := engine.Resolve(attackPower, defensePower, isRaid)

	outcome := game.BattleOutcome{
		AttackLuck:  luckA,
		DefenseLuck: luckD,
		Morale:      morale,
	}

	// Attacker casualties come off the manifest snapshot.
	survivors := make([]survivorStack, 0, len(atkStacks))
	for _, st := range atkStacks {
		lost, remaining := engine.ApplyLossFactor(st.Count, result.AttackerLossFactor)
		outcome.AttackerLosses = append(outcome.AttackerLosses, game.UnitLoss{
			Unit: st.Unit.InternalName, Initial: st.Count, Lost: lost, Remaining: remaining,
		})
		survivors = append(survivors, survivorStack{unit: st.Unit, remaining: remaining})
	}

	// Defender casualties come off the live garrison.
	for _, row := range garrison {
		if row.Count <= 0 {
			continue
		}
		lost, remaining := engine.ApplyLossFactor(row.Count, result.DefenderLossFactor)
		outcome.DefenderLosses = append(outcome.DefenderLosses, game.UnitLoss{
			Unit: idx.unit(row.UnitTypeID).InternalName, Initial: row.Count, Lost: lost, Remaining: remaining,
		})
		if lost > 0 {
			if err := tx.AdjustUnitStack(op.TargetVillageID, row.UnitTypeID, -lost); err != nil {
				return err
			}
		}
	}

	conquered := false
	if result.AttackerWins && defender.village != nil {
		if err := s.applyVictoryEffects(tx, op, defender, survivors, isRaid, &outcome); err != nil {
			return err
		}
		conquered = outcome.Conquered
	}

	// Survivors march home unless they became the new garrison.
	if !conquered {
		if err := s.spawnSurvivorReturn(tx, op, survivors); err != nil {
			return err
		}
	}

	return s.writeBattleReport(tx, op, result.AttackerWins, &outcome, attacker, defender)
}

// applyVictoryEffects applies loot, structural damage and the
// loyalty/conquest path after an attacker win.
func (s *Service) applyVictoryEffects(tx storage.Repository, op *game.Operation, defender *combatContext, survivors []survivorStack, isRaid bool, outcome *game.BattleOutcome) error {
	v := defender.village

	capacity := 0
	rams, catapults, nobles := 0, 0, 0
	for _, sv := range survivors {
		capacity += sv.unit.CarryCapacity * sv.remaining
		switch {
		case sv.unit.IsRam():
			rams += sv.remaining
		case sv.unit.IsCatapult():
			catapults += sv.remaining
		case sv.unit.Class() == game.ClassNoble:
			nobles += sv.remaining
		}
	}

	available := game.ResourceSet{Wood: v.Wood, Clay: v.Clay, Iron: v.Iron}
	loot := engine.Loot(capacity, available, defender.hiding, isRaid)
	v.Wood -= loot.Wood
	v.Clay -= loot.Clay
	v.Iron -= loot.Iron
	outcome.Loot = loot

	// Raids skip structural damage entirely.
	if !isRaid && s.world.SiegeDamageEnabled {
		if rams > 0 && defender.wall > 0 {
			newWall := engine.WallDamage(rams, defender.wall)
			if newWall != defender.wall {
				if err := tx.SetBuildingLevel(v.ID, game.BuildingWall, newWall); err != nil {
					return err
				}
				outcome.WallDamage = &game.WallDamage{Before: defender.wall, After: newWall}
			}
		}
		if catapults > 0 {
			levels, err := tx.GetAllBuildingLevels(v.ID)
			if err != nil {
				return err
			}
			if aim := engine.BuildingDamage(s.rng, catapults, op.TargetBuilding, levels); aim != nil {
				if err := tx.SetBuildingLevel(v.ID, aim.Building, aim.After); err != nil {
					return err
				}
				outcome.BuildingDamage = &game.BuildingDamage{
					Building: aim.Building, Before: aim.Before, After: aim.After, Hit: aim.Hit,
				}
			}
		}
	}

	// Conquest needs the loyalty system on and a surviving noble.
	if s.world.LoyaltyEnabled && nobles > 0 {
		drop := engine.LoyaltyDrop(s.rng)
		after := v.Loyalty - drop
		outcome.Loyalty = &game.LoyaltyChange{Before: v.Loyalty, Drop: drop, After: after}
		if after <= 0 {
			if err := s.conquer(tx, op, v, survivors); err != nil {
				return err
			}
			outcome.Loyalty.After = engine.LoyaltyAfterConquest
			outcome.Conquered = true
			return nil
		}
		v.Loyalty = after
	}

	return tx.SaveVillage(v)
}

// conquer transfers village ownership to the attacker: the old garrison
// is wiped and the surviving attackers become the new one.
func (s *Service) conquer(tx storage.Repository, op *game.Operation, v *game.Village, survivors []survivorStack) error {
	source, err := tx.GetVillageByID(op.SourceVillageID)
	if err != nil {
		return ErrVillageNotFound
	}
	v.UserID = source.UserID
	v.Loyalty = engine.LoyaltyAfterConquest
	if err := tx.SaveVillage(v); err != nil {
		return err
	}
	if err := tx.DeleteGarrison(v.ID); err != nil {
		return err
	}
	for _, sv := range survivors {
		if sv.remaining <= 0 {
			continue
		}
		if err := tx.AdjustUnitStack(v.ID, sv.unit.ID, sv.remaining); err != nil {
			return err
		}
	}
	return nil
}

// spawnSurvivorReturn sends the remaining attackers home, taking as
// long as the outbound march did.
func (s *Service) spawnSurvivorReturn(tx storage.Repository, op *game.Operation, survivors []survivorStack) error {
	manifest := make([]game.OperationStack, 0, len(survivors))
	for _, sv := range survivors {
		if sv.remaining <= 0 {
			continue
		}
		manifest = append(manifest, game.OperationStack{UnitTypeID: sv.unit.ID, Count: sv.remaining})
	}
	if len(manifest) == 0 {
		return nil
	}
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
	return tx.CreateOperation(ret)
}

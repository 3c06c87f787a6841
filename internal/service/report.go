package service

import (
	"fmt"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// villageLabel renders "Name (x|y)" for report titles, tolerating a
// razed or missing village.
func villageLabel(c *combatContext) string {
	if c == nil || c.village == nil {
		return "abandoned ruins"
	}
	return fmt.Sprintf("%s (%d|%d)", c.village.Name, c.village.X, c.village.Y)
}

// writeBattleReport persists the shared battle record and files one
// inbox entry per participating owner.
func (s *Service) writeBattleReport(tx storage.Repository, op *game.Operation, attackerWon bool, outcome *game.BattleOutcome, attacker, defender *combatContext) error {
	payload, err := game.EncodeOutcome(outcome)
	if err != nil {
		return err
	}
	if err := tx.CreateBattleReport(&game.BattleReport{
		OperationID: op.ID,
		AttackerWon: attackerWon,
		Outcome:     payload,
	}); err != nil {
		return err
	}

	verdict := "defeated at"
	if attackerWon {
		verdict = "victorious at"
	}
	if attacker != nil && attacker.ownerID != 0 {
		title := fmt.Sprintf("Your army from %s was %s %s", villageLabel(attacker), verdict, villageLabel(defender))
		if err := tx.AddReport(attacker.ownerID, game.ReportKindAttack, title, payload, op.ID); err != nil {
			return err
		}
	}
	if defender != nil && defender.ownerID != 0 {
		held := "fell to"
		if !attackerWon {
			held = "repelled"
		}
		title := fmt.Sprintf("%s %s an attack from %s", villageLabel(defender), held, villageLabel(attacker))
		if err := tx.AddReport(defender.ownerID, game.ReportKindDefense, title, payload, op.ID); err != nil {
			return err
		}
	}
	return nil
}

// writeSpyReport persists the espionage record. The defender only
// learns of the mission when at least one intruding scout died.
func (s *Service) writeSpyReport(tx storage.Repository, op *game.Operation, outcome *game.SpyOutcome, attacker, defender *combatContext) error {
	payload, err := game.EncodeOutcome(outcome)
	if err != nil {
		return err
	}
	if err := tx.CreateBattleReport(&game.BattleReport{
		OperationID: op.ID,
		AttackerWon: outcome.Success,
		Outcome:     payload,
	}); err != nil {
		return err
	}

	if attacker != nil && attacker.ownerID != 0 {
		verdict := "failed to scout"
		if outcome.Success {
			verdict = "scouted"
		}
		title := fmt.Sprintf("Your spies %s %s", verdict, villageLabel(defender))
		if err := tx.AddReport(attacker.ownerID, game.ReportKindSpy, title, payload, op.ID); err != nil {
			return err
		}
	}
	if defender != nil && defender.ownerID != 0 && outcome.SpiesLost > 0 {
		// The defender sees the incident but not the stolen intel.
		caught := *outcome
		caught.Intel = nil
		defenderPayload, err := game.EncodeOutcome(&caught)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("Enemy spies were caught at %s", villageLabel(defender))
		if err := tx.AddReport(defender.ownerID, game.ReportKindSpied, title, defenderPayload, op.ID); err != nil {
			return err
		}
	}
	return nil
}

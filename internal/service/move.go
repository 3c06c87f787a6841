package service

import (
	"fmt"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// resolveMerge handles support and return arrivals: the manifest folds
// into the destination garrison and the destination owner gets an inbox
// note. If the destination village is gone the troops are lost with it.
func (s *Service) resolveMerge(tx storage.Repository, op *game.Operation) error {
	target, err := loadCombatContext(tx, op.TargetVillageID)
	if err != nil {
		return err
	}
	if target.village == nil {
		return nil
	}

	total := 0
	for _, m := range op.Manifest {
		if m.Count <= 0 {
			continue
		}
		if err := tx.AdjustUnitStack(op.TargetVillageID, m.UnitTypeID, m.Count); err != nil {
			return err
		}
		total += m.Count
	}

	if target.ownerID == 0 || total == 0 {
		return nil
	}
	source, err := loadCombatContext(tx, op.SourceVillageID)
	if err != nil {
		return err
	}
	kind := game.ReportKindReturn
	title := fmt.Sprintf("%d troops returned to %s", total, villageLabel(target))
	if op.Kind == game.OperationSupport {
		kind = game.ReportKindSupport
		title = fmt.Sprintf("%d support troops from %s arrived at %s", total, villageLabel(source), villageLabel(target))
	}
	return tx.AddReport(target.ownerID, kind, title, "", op.ID)
}

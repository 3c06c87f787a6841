package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// CancelResult reports the synthetic return operation spawned by a
// successful cancellation.
type CancelResult struct {
	ReturnOperation *game.Operation
}

// Cancel turns an in-flight operation around. Permitted only to the
// source owner and only while the force has not arrived; the guard is a
// conditional update so a cancel racing a resolution cannot win after
// arrival. The original manifest is not refunded: it travels home on
// the synthetic return operation, taking as long as the distance
// already covered.
func (s *Service) Cancel(operationID, userID uint) (*CancelResult, error) {
	var result *CancelResult
	err := s.repo.InTransaction(func(tx storage.Repository) error {
		op, err := tx.GetOperationByID(operationID)
		if err != nil {
			return ErrOperationNotFound
		}
		source, err := tx.GetVillageByID(op.SourceVillageID)
		if err != nil {
			return ErrVillageNotFound
		}
		if source.UserID != userID {
			return ErrNotYourOperation
		}
		if !op.Pending() {
			return ErrAlreadyResolved
		}

		now := s.now()
		ok, err := tx.MarkOperationCanceled(op.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCancelTooLate
		}

		elapsed := now.Sub(op.DispatchedAt)
		totalTravel := op.ArrivesAt.Sub(op.DispatchedAt)
		covered := elapsed
		if covered > totalTravel {
			covered = totalTravel
		}
		if covered < time.Second {
			covered = time.Second
		}

		manifest := make([]game.OperationStack, 0, len(op.Manifest))
		for _, m := range op.Manifest {
			manifest = append(manifest, game.OperationStack{UnitTypeID: m.UnitTypeID, Count: m.Count})
		}
		ret := &game.Operation{
			PublicID:        uuid.NewString(),
			SourceVillageID: op.TargetVillageID,
			TargetVillageID: op.SourceVillageID,
			Kind:            game.OperationReturn,
			DispatchedAt:    now,
			ArrivesAt:       now.Add(covered),
			Manifest:        manifest,
		}
		if err := tx.CreateOperation(ret); err != nil {
			return err
		}
		result = &CancelResult{ReturnOperation: ret}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

package service

import (
	"fmt"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// ResolveOperation drives one due operation through its terminal
// transition. Everything — the pending-state claim, combat effects,
// report rows — happens inside a single transaction, so a failure
// rolls the operation back to pending for a later retry and a
// concurrent resolver loses the claim instead of double-applying
// effects.
func (s *Service) ResolveOperation(operationID uint) error {
	return s.repo.InTransaction(func(tx storage.Repository) error {
		op, err := tx.GetOperationByID(operationID)
		if err != nil {
			return ErrOperationNotFound
		}
		if !op.Pending() {
			return ErrAlreadyResolved
		}
		if s.now().Before(op.ArrivesAt) {
			return ErrNotDue
		}

		// Claim first: the status-guarded update is what makes retries
		// and concurrent sweeps no-ops.
		claimed, err := tx.MarkOperationCompleted(op.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrAlreadyResolved
		}

		switch {
		case op.Kind.IsBattle():
			return s.resolveBattle(tx, op)
		case op.Kind == game.OperationSpy:
			return s.resolveSpy(tx, op)
		case op.Kind == game.OperationSupport, op.Kind == game.OperationReturn:
			return s.resolveMerge(tx, op)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownKind, op.Kind)
		}
	})
}

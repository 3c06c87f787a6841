package service

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// DispatchRequest is a validated order to send units from one village
// against another. Units are keyed by internal unit name.
type DispatchRequest struct {
	SourceVillageID uint
	TargetVillageID uint
	Kind            game.OperationKind
	Units           map[string]int
	TargetBuilding  string
}

// DispatchResult reports the persisted operation and its travel time.
type DispatchResult struct {
	Operation     *game.Operation
	TravelSeconds int
}

// Dispatch validates the order, debits the source garrison and persists
// the operation with its manifest, all inside one transaction. The
// arrival time is derived from the Euclidean distance and the slowest
// selected unit.
func (s *Service) Dispatch(userID uint, req DispatchRequest) (*DispatchResult, error) {
	switch req.Kind {
	case game.OperationAttack, game.OperationRaid, game.OperationSupport, game.OperationSpy, game.OperationFake:
	default:
		return nil, ErrUnknownKind
	}
	if req.SourceVillageID == req.TargetVillageID && req.Kind != game.OperationSupport {
		return nil, ErrSelfTarget
	}

	var result *DispatchResult
	err := s.repo.InTransaction(func(tx storage.Repository) error {
		source, err := tx.GetVillageByID(req.SourceVillageID)
		if err != nil {
			return ErrVillageNotFound
		}
		if source.UserID != userID {
			return ErrNotYourVillage
		}
		target, err := tx.GetVillageByID(req.TargetVillageID)
		if err != nil {
			return ErrVillageNotFound
		}

		rally, err := tx.GetBuildingLevel(source.ID, game.BuildingRallyPoint)
		if err != nil {
			return err
		}
		if rally < 1 {
			return ErrNoRallyPoint
		}

		idx, err := loadUnitIndex(tx)
		if err != nil {
			return err
		}

		total := 0
		slowest := 0.0
		manifest := make([]game.OperationStack, 0, len(req.Units))
		for internal, count := range req.Units {
			if count <= 0 {
				continue
			}
			unit, ok := idx.byInternal[internal]
			if !ok {
				return ErrUnknownUnit
			}
			if req.Kind == game.OperationSpy && unit.Class() != game.ClassScout {
				return ErrNonScoutInSpy
			}
			total += count
			if unit.Speed > slowest {
				slowest = unit.Speed
			}
			manifest = append(manifest, game.OperationStack{UnitTypeID: unit.ID, Count: count})
		}
		if total == 0 {
			return ErrNoUnitsSelected
		}

		// Debit the garrison; AdjustUnitStack errors on underflow,
		// which covers the insufficient-garrison check atomically.
		for _, m := range manifest {
			if err := tx.AdjustUnitStack(source.ID, m.UnitTypeID, -m.Count); err != nil {
				return ErrInsufficientGarrison
			}
		}

		now := s.now()
		travel := travelSeconds(source, target, slowest, s.world.Speed)
		op := &game.Operation{
			PublicID:        uuid.NewString(),
			SourceVillageID: source.ID,
			TargetVillageID: target.ID,
			Kind:            req.Kind,
			TargetBuilding:  req.TargetBuilding,
			DispatchedAt:    now,
			ArrivesAt:       now.Add(time.Duration(travel) * time.Second),
			Manifest:        manifest,
		}
		if err := tx.CreateOperation(op); err != nil {
			return err
		}
		result = &DispatchResult{Operation: op, TravelSeconds: travel}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// travelSeconds computes ceil(distance × slowestSpeed / worldSpeed × 3600).
// Speed is hours per field, so slower units raise the figure.
func travelSeconds(source, target *game.Village, slowestSpeed, worldSpeed float64) int {
	dx := float64(source.X - target.X)
	dy := float64(source.Y - target.Y)
	distance := math.Sqrt(dx*dx + dy*dy)
	if worldSpeed <= 0 {
		worldSpeed = 1
	}
	secs := math.Ceil(distance * slowestSpeed / worldSpeed * 3600)
	if secs < 1 {
		secs = 1
	}
	return int(secs)
}

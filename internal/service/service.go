package service

import (
	"errors"
	"time"

	"github.com/goleaf/tribal-clone-sub002/internal/config"
	"github.com/goleaf/tribal-clone-sub002/internal/engine"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// Validation and precondition errors surfaced to callers. The API layer
// maps them to HTTP statuses; none of them leave partial effects behind.
var (
	ErrNoUnitsSelected      = errors.New("no units selected")
	ErrInsufficientGarrison = errors.New("not enough units in the garrison")
	ErrSelfTarget           = errors.New("cannot target your own village with an attack")
	ErrNonScoutInSpy        = errors.New("spy missions may only contain scout units")
	ErrNoRallyPoint         = errors.New("source village has no rally point")
	ErrUnknownUnit          = errors.New("unknown unit type")
	ErrUnknownKind          = errors.New("unknown operation kind")
	ErrVillageNotFound      = errors.New("village not found")
	ErrNotYourVillage       = errors.New("village does not belong to you")
	ErrOperationNotFound    = errors.New("operation not found")
	ErrNotYourOperation     = errors.New("operation does not belong to you")
	ErrAlreadyResolved      = errors.New("operation already resolved or canceled")
	ErrCancelTooLate        = errors.New("operation has already arrived")
	ErrNotDue               = errors.New("operation has not arrived yet")
	ErrReportAccess         = errors.New("report does not involve you")
	ErrReportNotFound       = errors.New("report not found")
)

// Service owns the lifecycle of dispatched operations: dispatch,
// cancellation, due-operation resolution and report access. All state
// changes run inside per-operation repository transactions.
type Service struct {
	repo  storage.Repository
	world config.World
	rng   engine.Rng
	now   func() time.Time
}

// New builds a Service around a repository, world rules and a
// randomness source. Tests inject a scripted Rng and a fixed clock.
func New(repo storage.Repository, world config.World, rng engine.Rng) *Service {
	return &Service{repo: repo, world: world, rng: rng, now: time.Now}
}

// unitIndex caches the configured unit types by row ID and internal
// name for one request. Lookups into a missing entry degrade to a
// zero-stat unit instead of failing the whole batch.
type unitIndex struct {
	byID       map[uint]game.UnitType
	byInternal map[string]game.UnitType
}

func loadUnitIndex(repo storage.Repository) (*unitIndex, error) {
	units, err := repo.GetUnitTypes()
	if err != nil {
		return nil, err
	}
	idx := &unitIndex{
		byID:       make(map[uint]game.UnitType, len(units)),
		byInternal: make(map[string]game.UnitType, len(units)),
	}
	for _, u := range units {
		idx.byID[u.ID] = u
		idx.byInternal[u.InternalName] = u
	}
	return idx, nil
}

func (idx *unitIndex) unit(id uint) game.UnitType {
	if u, ok := idx.byID[id]; ok {
		return u
	}
	// Missing unit metadata: neutral fallback, not a hard failure.
	return game.UnitType{InternalName: "unknown"}
}

// stacks converts manifest or garrison rows into engine stacks.
func (idx *unitIndex) stacks(rows []game.UnitStack) []engine.Stack {
	out := make([]engine.Stack, 0, len(rows))
	for _, r := range rows {
		if r.Count <= 0 {
			continue
		}
		out = append(out, engine.Stack{Unit: idx.unit(r.UnitTypeID), Count: r.Count})
	}
	return out
}

func (idx *unitIndex) manifestStacks(rows []game.OperationStack) []engine.Stack {
	out := make([]engine.Stack, 0, len(rows))
	for _, r := range rows {
		if r.Count <= 0 {
			continue
		}
		out = append(out, engine.Stack{Unit: idx.unit(r.UnitTypeID), Count: r.Count})
	}
	return out
}

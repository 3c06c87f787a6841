package storage

import (
	"time"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

// Repository is the persistence surface consumed by the service layer.
// InTransaction hands the callback a Repository bound to one database
// transaction; every resolve/dispatch/cancel runs its writes through
// such a scoped repository so they commit or roll back together.
type Repository interface {
	InTransaction(fn func(Repository) error) error

	// Unit metadata (stats overlaid from config, which is the source
	// of truth for combat numbers).
	GetUnitTypes() ([]game.UnitType, error)

	// Users
	UpsertUser(email, uuid, name string) (*game.User, error)
	GetUserByEmail(email string) (*game.User, error)
	GetUserByID(id uint) (*game.User, error)
	// GetUserPoints sums building levels across the user's villages,
	// falling back to garrison population when no buildings exist.
	// Used only for morale scaling.
	GetUserPoints(userID uint) (int, error)

	// Villages
	GetVillageByID(id uint) (*game.Village, error)
	GetVillagesByUserID(userID uint) ([]game.Village, error)
	SaveVillage(v *game.Village) error

	// Garrisons. AdjustUnitStack creates missing stacks and deletes
	// stacks that reach zero; a negative result is an error.
	GetGarrison(villageID uint) ([]game.UnitStack, error)
	AdjustUnitStack(villageID, unitTypeID uint, delta int) error
	DeleteGarrison(villageID uint) error

	// Building and research levels. Missing rows read as level 0.
	GetBuildingLevel(villageID uint, internalName string) (int, error)
	SetBuildingLevel(villageID uint, internalName string, level int) error
	GetAllBuildingLevels(villageID uint) (map[string]int, error)
	GetResearchLevel(villageID uint, internalName string) (int, error)
	GetAllResearchLevels(villageID uint) (map[string]int, error)

	// Operations. The Mark* methods are conditional status-guarded
	// updates: they report false when the guard did not match, which
	// is how concurrent resolution/cancellation races stay safe.
	CreateOperation(op *game.Operation) error
	GetOperationByID(id uint) (*game.Operation, error)
	MarkOperationCompleted(id uint) (bool, error)
	MarkOperationCanceled(id uint, now time.Time) (bool, error)
	FindDueOperations(villageIDs []uint, now time.Time) ([]game.Operation, error)
	FindPendingOperationsBySource(villageIDs []uint) ([]game.Operation, error)

	// Reports
	CreateBattleReport(r *game.BattleReport) error
	GetBattleReportByID(id uint) (*game.BattleReport, error)
	GetBattleReportByOperationID(operationID uint) (*game.BattleReport, error)
	AddReport(userID uint, kind game.ReportKind, title, payload string, operationID uint) error
	GetReportByID(id uint) (*game.Report, error)
	GetReportsByUser(userID uint, limit int) ([]game.Report, error)
}

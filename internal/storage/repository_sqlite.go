package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

type sqliteRepository struct {
	db *gorm.DB
	// configByName maps internal unit name -> config definition (stats).
	configByName map[string]game.UnitType
}

// NewSQLiteRepository wraps a gorm DB handle. Unit combat stats are not
// persisted; they are overlaid from the config definitions on every
// load so the config file stays the single source of truth.
func NewSQLiteRepository(db *gorm.DB, configUnits []game.UnitType) Repository {
	m := make(map[string]game.UnitType, len(configUnits))
	for _, u := range configUnits {
		m[u.InternalName] = u
	}
	return &sqliteRepository{db: db, configByName: m}
}

func (r *sqliteRepository) InTransaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&sqliteRepository{db: tx, configByName: r.configByName})
	})
}

func (r *sqliteRepository) overlayStats(u *game.UnitType) {
	if conf, ok := r.configByName[u.InternalName]; ok {
		u.Attack = conf.Attack
		u.Defense = conf.Defense
		u.DefenseCavalry = conf.DefenseCavalry
		u.DefenseArcher = conf.DefenseArcher
		u.CarryCapacity = conf.CarryCapacity
		u.Population = conf.Population
		u.Speed = conf.Speed
	}
}

func (r *sqliteRepository) GetUnitTypes() ([]game.UnitType, error) {
	var units []game.UnitType
	if err := r.db.Order("id").Find(&units).Error; err != nil {
		return nil, err
	}
	for i := range units {
		r.overlayStats(&units[i])
	}
	return units, nil
}

func (r *sqliteRepository) UpsertUser(email, uuid, name string) (*game.User, error) {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = game.User{Email: email, UserUUID: uuid}
		} else {
			return nil, err
		}
	}
	u.Name = name
	if err := r.db.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) GetUserByEmail(email string) (*game.User, error) {
	var u game.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) GetUserByID(id uint) (*game.User, error) {
	var u game.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *sqliteRepository) GetUserPoints(userID uint) (int, error) {
	var villageIDs []uint
	if err := r.db.Model(&game.Village{}).Where("user_id = ?", userID).Pluck("id", &villageIDs).Error; err != nil {
		return 0, err
	}
	if len(villageIDs) == 0 {
		return 0, nil
	}
	var points int64
	if err := r.db.Model(&game.BuildingLevel{}).
		Where("village_id IN ?", villageIDs).
		Select("COALESCE(SUM(level), 0)").Scan(&points).Error; err != nil {
		return 0, err
	}
	if points > 0 {
		return int(points), nil
	}
	// Fallback: total garrison population. Stacks carry no population
	// column (it lives in config), so count units weighted by config.
	var stacks []game.UnitStack
	if err := r.db.Where("village_id IN ?", villageIDs).Find(&stacks).Error; err != nil {
		return 0, err
	}
	units, err := r.GetUnitTypes()
	if err != nil {
		return 0, err
	}
	popByID := make(map[uint]int, len(units))
	for _, u := range units {
		popByID[u.ID] = u.Population
	}
	total := 0
	for _, s := range stacks {
		pop := popByID[s.UnitTypeID]
		if pop <= 0 {
			pop = 1
		}
		total += s.Count * pop
	}
	return total, nil
}

func (r *sqliteRepository) GetVillageByID(id uint) (*game.Village, error) {
	var v game.Village
	if err := r.db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *sqliteRepository) GetVillagesByUserID(userID uint) ([]game.Village, error) {
	var vs []game.Village
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&vs).Error; err != nil {
		return nil, err
	}
	return vs, nil
}

func (r *sqliteRepository) SaveVillage(v *game.Village) error {
	return r.db.Save(v).Error
}

func (r *sqliteRepository) GetGarrison(villageID uint) ([]game.UnitStack, error) {
	var stacks []game.UnitStack
	if err := r.db.Where("village_id = ?", villageID).Order("unit_type_id").Find(&stacks).Error; err != nil {
		return nil, err
	}
	return stacks, nil
}

func (r *sqliteRepository) AdjustUnitStack(villageID, unitTypeID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	var s game.UnitStack
	err := r.db.Where("village_id = ? AND unit_type_id = ?", villageID, unitTypeID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return fmt.Errorf("unit stack underflow: village %d unit %d has 0, delta %d", villageID, unitTypeID, delta)
		}
		s = game.UnitStack{VillageID: villageID, UnitTypeID: unitTypeID, Count: delta}
		return r.db.Create(&s).Error
	}
	if err != nil {
		return err
	}
	next := s.Count + delta
	if next < 0 {
		return fmt.Errorf("unit stack underflow: village %d unit %d has %d, delta %d", villageID, unitTypeID, s.Count, delta)
	}
	if next == 0 {
		// Zero-count stacks are deleted, never stored.
		return r.db.Unscoped().Delete(&s).Error
	}
	s.Count = next
	return r.db.Save(&s).Error
}

func (r *sqliteRepository) DeleteGarrison(villageID uint) error {
	return r.db.Unscoped().Where("village_id = ?", villageID).Delete(&game.UnitStack{}).Error
}

func (r *sqliteRepository) GetBuildingLevel(villageID uint, internalName string) (int, error) {
	var b game.BuildingLevel
	err := r.db.Where("village_id = ? AND internal_name = ?", villageID, internalName).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Missing rows read as level 0 so a single absent lookup
		// degrades gracefully instead of blocking resolution.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return b.Level, nil
}

func (r *sqliteRepository) SetBuildingLevel(villageID uint, internalName string, level int) error {
	if level < 0 {
		level = 0
	}
	var b game.BuildingLevel
	err := r.db.Where("village_id = ? AND internal_name = ?", villageID, internalName).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = game.BuildingLevel{VillageID: villageID, InternalName: internalName, Level: level}
		return r.db.Create(&b).Error
	}
	if err != nil {
		return err
	}
	b.Level = level
	return r.db.Save(&b).Error
}

func (r *sqliteRepository) GetAllBuildingLevels(villageID uint) (map[string]int, error) {
	var rows []game.BuildingLevel
	if err := r.db.Where("village_id = ?", villageID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, b := range rows {
		out[b.InternalName] = b.Level
	}
	return out, nil
}

func (r *sqliteRepository) GetResearchLevel(villageID uint, internalName string) (int, error) {
	var rr game.ResearchLevel
	err := r.db.Where("village_id = ? AND internal_name = ?", villageID, internalName).First(&rr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rr.Level, nil
}

func (r *sqliteRepository) GetAllResearchLevels(villageID uint) (map[string]int, error) {
	var rows []game.ResearchLevel
	if err := r.db.Where("village_id = ?", villageID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, rl := range rows {
		out[rl.InternalName] = rl.Level
	}
	return out, nil
}

func (r *sqliteRepository) CreateOperation(op *game.Operation) error {
	return r.db.Create(op).Error
}

func (r *sqliteRepository) GetOperationByID(id uint) (*game.Operation, error) {
	var op game.Operation
	if err := r.db.Preload("Manifest").First(&op, id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// MarkOperationCompleted claims a pending operation for resolution. The
// guarded UPDATE makes double resolution a no-op under concurrent
// callers: only one transaction sees RowsAffected == 1.
func (r *sqliteRepository) MarkOperationCompleted(id uint) (bool, error) {
	res := r.db.Model(&game.Operation{}).
		Where("id = ? AND is_completed = ? AND is_canceled = ?", id, false, false).
		Update("is_completed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkOperationCanceled cancels only while the force is still in
// transit. The arrival check is part of the guard so a cancel racing a
// resolution cannot win after the force has arrived.
func (r *sqliteRepository) MarkOperationCanceled(id uint, now time.Time) (bool, error) {
	res := r.db.Model(&game.Operation{}).
		Where("id = ? AND is_completed = ? AND is_canceled = ? AND arrives_at > ?", id, false, false, now).
		Update("is_canceled", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sqliteRepository) FindDueOperations(villageIDs []uint, now time.Time) ([]game.Operation, error) {
	if len(villageIDs) == 0 {
		return nil, nil
	}
	var ops []game.Operation
	err := r.db.Preload("Manifest").
		Where("is_completed = ? AND is_canceled = ? AND arrives_at <= ?", false, false, now).
		Where("source_village_id IN ? OR target_village_id IN ?", villageIDs, villageIDs).
		Order("arrives_at asc").
		Find(&ops).Error
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *sqliteRepository) FindPendingOperationsBySource(villageIDs []uint) ([]game.Operation, error) {
	if len(villageIDs) == 0 {
		return nil, nil
	}
	var ops []game.Operation
	err := r.db.Preload("Manifest").
		Where("is_completed = ? AND is_canceled = ?", false, false).
		Where("source_village_id IN ?", villageIDs).
		Order("arrives_at asc").
		Find(&ops).Error
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *sqliteRepository) CreateBattleReport(br *game.BattleReport) error {
	return r.db.Create(br).Error
}

func (r *sqliteRepository) GetBattleReportByID(id uint) (*game.BattleReport, error) {
	var br game.BattleReport
	if err := r.db.First(&br, id).Error; err != nil {
		return nil, err
	}
	return &br, nil
}

func (r *sqliteRepository) GetBattleReportByOperationID(operationID uint) (*game.BattleReport, error) {
	var br game.BattleReport
	if err := r.db.Where("operation_id = ?", operationID).First(&br).Error; err != nil {
		return nil, err
	}
	return &br, nil
}

func (r *sqliteRepository) AddReport(userID uint, kind game.ReportKind, title, payload string, operationID uint) error {
	rep := game.Report{UserID: userID, Kind: kind, Title: title, Payload: payload, OperationID: operationID}
	return r.db.Create(&rep).Error
}

func (r *sqliteRepository) GetReportByID(id uint) (*game.Report, error) {
	var rep game.Report
	if err := r.db.First(&rep, id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *sqliteRepository) GetReportsByUser(userID uint, limit int) ([]game.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var reports []game.Report
	if err := r.db.Where("user_id = ?", userID).Order("created_at desc").Limit(limit).Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

package storage

import (
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/logging"
)

// OpenAndMigrate opens the SQLite database, keeps the schema updated
// via AutoMigrate and seeds unit types plus a small demo world on the
// first run.
func OpenAndMigrate(dataSourceName string, unitsFromConfig []game.UnitType) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&game.User{}, &game.Village{}, &game.UnitType{}, &game.UnitStack{},
		&game.Operation{}, &game.OperationStack{}, &game.BattleReport{},
		&game.Report{}, &game.BuildingLevel{}, &game.ResearchLevel{},
	)
	if err != nil {
		return nil, err
	}

	seedUnitTypes(db, unitsFromConfig)
	seedDemoWorld(db, unitsFromConfig)
	return db, nil
}

// seedUnitTypes inserts rows for configured units that are not yet in
// the DB. Only the name columns are persisted; stats stay in config.
func seedUnitTypes(db *gorm.DB, unitsFromConfig []game.UnitType) {
	for _, u := range unitsFromConfig {
		var count int64
		db.Model(&game.UnitType{}).Where("internal_name = ?", u.InternalName).Count(&count)
		if count > 0 {
			continue
		}
		row := game.UnitType{Name: u.Name, InternalName: u.InternalName}
		if err := db.Create(&row).Error; err != nil {
			logging.Error("failed to seed unit type", err, logging.Fields{"unit": u.InternalName})
		}
	}
}

// seedDemoWorld creates two players with one village each so a fresh
// server is immediately playable. Runs only when no users exist.
func seedDemoWorld(db *gorm.DB, unitsFromConfig []game.UnitType) {
	var count int64
	db.Model(&game.User{}).Count(&count)
	if count > 0 {
		return
	}

	var unitRows []game.UnitType
	if err := db.Find(&unitRows).Error; err != nil || len(unitRows) == 0 {
		logging.Error("demo world seed skipped: no unit types", err, nil)
		return
	}
	idByInternal := make(map[string]uint, len(unitRows))
	for _, u := range unitRows {
		idByInternal[u.InternalName] = u.ID
	}

	type demoVillage struct {
		name      string
		x, y      int
		buildings map[string]int
		garrison  map[string]int
	}
	demo := []struct {
		user    game.User
		village demoVillage
	}{
		{
			user: game.User{UserUUID: uuid.NewString(), Name: "Halvar", Email: "halvar@example.com"},
			village: demoVillage{
				name: "Northwatch", x: 500, y: 500,
				buildings: map[string]int{
					game.BuildingHeadquarters: 5, game.BuildingRallyPoint: 1,
					game.BuildingWall: 5, game.BuildingWarehouse: 5,
					game.BuildingFarm: 5, game.BuildingHidingPlace: 2,
				},
				garrison: map[string]int{"spear_fighter": 100, "axe_fighter": 50, "scout": 10},
			},
		},
		{
			user: game.User{UserUUID: uuid.NewString(), Name: "Maerwyn", Email: "maerwyn@example.com"},
			village: demoVillage{
				name: "Eastmere", x: 510, y: 495,
				buildings: map[string]int{
					game.BuildingHeadquarters: 5, game.BuildingRallyPoint: 1,
					game.BuildingWall: 3, game.BuildingWarehouse: 5,
					game.BuildingFarm: 5,
				},
				garrison: map[string]int{"spear_fighter": 80, "scout": 5},
			},
		},
	}

	for _, d := range demo {
		if err := db.Create(&d.user).Error; err != nil {
			logging.Error("failed to seed demo user", err, logging.Fields{"name": d.user.Name})
			continue
		}
		v := game.Village{
			UserID: d.user.ID, Name: d.village.name,
			X: d.village.x, Y: d.village.y,
			Wood: 1000, Clay: 1000, Iron: 1000,
			WarehouseCap: 10000, Loyalty: 100,
		}
		if err := db.Create(&v).Error; err != nil {
			logging.Error("failed to seed demo village", err, logging.Fields{"name": d.village.name})
			continue
		}
		for name, level := range d.village.buildings {
			db.Create(&game.BuildingLevel{VillageID: v.ID, InternalName: name, Level: level})
		}
		for unit, n := range d.village.garrison {
			id, ok := idByInternal[unit]
			if !ok {
				continue
			}
			db.Create(&game.UnitStack{VillageID: v.ID, UnitTypeID: id, Count: n})
		}
	}
	logging.Info("seeded demo world", nil)
}

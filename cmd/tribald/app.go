package main

import (
	"github.com/goleaf/tribal-clone-sub002/internal/config"
	"github.com/goleaf/tribal-clone-sub002/internal/logging"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid world configuration", err, logging.Fields{"config_path": path, "hint": "create a tribal_config.json with a 'unit_list' array of unit objects (name,attack,defense,defense_cavalry,defense_archer,carry_capacity,population,speed) and optional 'world' and 'server' blocks"})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string, cfg *config.LoadedConfig) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath, cfg.Units)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db, cfg.Units)
}

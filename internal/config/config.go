package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/keys"
)

type unitEntry struct {
	Name           string  `json:"name"`
	InternalName   string  `json:"internal_name"`
	Attack         int     `json:"attack"`
	Defense        int     `json:"defense"`
	DefenseCavalry int     `json:"defense_cavalry"`
	DefenseArcher  int     `json:"defense_archer"`
	CarryCapacity  int     `json:"carry_capacity"`
	Population     int     `json:"population"`
	Speed          float64 `json:"speed"`
}

// World holds the world-level combat configuration.
type World struct {
	// Speed divides travel time; 2.0 means armies move twice as fast.
	Speed float64 `json:"speed"`
	// LoyaltyEnabled gates the whole conquest system.
	LoyaltyEnabled bool `json:"loyalty_enabled"`
	// SiegeDamageEnabled gates ram/catapult structural damage.
	SiegeDamageEnabled bool `json:"siege_damage_enabled"`
	// LuckSpread is the half-width of the battle luck interval.
	LuckSpread float64 `json:"luck_spread"`
}

type rawConfig struct {
	UnitList []unitEntry `json:"unit_list"`
	World    *World      `json:"world"`
	Server   *struct {
		Address string `json:"address"`
	} `json:"server"`
}

// LoadedConfig contains unit profiles to seed, world rules and the
// server address to bind to.
type LoadedConfig struct {
	Units         []game.UnitType
	World         World
	ServerAddress string
}

// Env is the environment-variable configuration, parsed with
// caarlos0/env. The config file remains the source of truth for game
// rules; the environment only locates files and overrides the bind
// address.
type Env struct {
	ConfigPath    string `env:"TRIBAL_CONFIG" envDefault:"./tribal_config.json"`
	DBPath        string `env:"TRIBAL_DB" envDefault:"./data/tribal.db"`
	Addr          string `env:"TRIBAL_ADDR"`
	SessionSecret string `env:"SESSION_SECRET"`
}

// ParseEnv loads the environment configuration.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// LoadConfig reads the configuration file at path and returns unit
// profiles, world rules and the server address. It requires the key
// `unit_list` (snake_case).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	entries := rc.UnitList
	if len(entries) == 0 {
		return nil, fmt.Errorf("config file %s: unit_list is empty (provide 'unit_list' array)", path)
	}

	out := make([]game.UnitType, 0, len(entries))
	nameSet := make(map[string]struct{}, len(entries))
	for _, u := range entries {
		if u.Name == "" {
			return nil, fmt.Errorf("config file %s: unit entry missing 'name'", path)
		}
		internal := u.InternalName
		if internal == "" {
			internal = keys.InternalNameFromDisplay(u.Name)
		}
		if _, exists := nameSet[internal]; exists {
			return nil, fmt.Errorf("config file %s: duplicate unit '%s'", path, internal)
		}
		nameSet[internal] = struct{}{}
		if u.Speed <= 0 {
			return nil, fmt.Errorf("config file %s: unit '%s' needs a positive 'speed'", path, internal)
		}
		out = append(out, game.UnitType{
			Name:           u.Name,
			InternalName:   internal,
			Attack:         u.Attack,
			Defense:        u.Defense,
			DefenseCavalry: u.DefenseCavalry,
			DefenseArcher:  u.DefenseArcher,
			CarryCapacity:  u.CarryCapacity,
			Population:     u.Population,
			Speed:          u.Speed,
		})
	}

	// The spy path needs at least one scout-class unit to validate
	// spy-kind manifests against.
	hasScout := false
	for _, u := range out {
		if u.Class() == game.ClassScout {
			hasScout = true
			break
		}
	}
	if !hasScout {
		return nil, fmt.Errorf("config file %s: unit_list contains no scout-class unit", path)
	}

	world := World{Speed: 1.0, LoyaltyEnabled: true, SiegeDamageEnabled: true, LuckSpread: 0.25}
	if rc.World != nil {
		world = *rc.World
		if world.Speed <= 0 {
			world.Speed = 1.0
		}
		if world.LuckSpread <= 0 || world.LuckSpread >= 1 {
			world.LuckSpread = 0.25
		}
	}

	addr := ":8080"
	if rc.Server != nil && rc.Server.Address != "" {
		addr = strings.TrimSpace(rc.Server.Address)
	}

	return &LoadedConfig{Units: out, World: world, ServerAddress: addr}, nil
}

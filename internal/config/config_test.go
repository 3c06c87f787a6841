package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tribal_config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"unit_list": [
			{"name": "Axe Fighter", "attack": 40, "defense": 10, "speed": 18},
			{"name": "Scout", "defense": 2, "speed": 9}
		]
	}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(cfg.Units))
	}
	if cfg.Units[0].InternalName != "axe_fighter" {
		t.Fatalf("internal name not derived: %q", cfg.Units[0].InternalName)
	}
	if cfg.World.Speed != 1.0 || !cfg.World.LoyaltyEnabled || cfg.World.LuckSpread != 0.25 {
		t.Fatalf("world defaults not applied: %+v", cfg.World)
	}
	if cfg.ServerAddress != ":8080" {
		t.Fatalf("address default not applied: %q", cfg.ServerAddress)
	}
}

func TestLoadConfigRejectsBadUnitLists(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty list", `{"unit_list": []}`},
		{"missing name", `{"unit_list": [{"attack": 1, "speed": 1}]}`},
		{"duplicate unit", `{"unit_list": [{"name": "Scout", "speed": 1}, {"name": "Scout", "speed": 2}]}`},
		{"zero speed", `{"unit_list": [{"name": "Scout", "speed": 0}]}`},
		{"no scout unit", `{"unit_list": [{"name": "Axe Fighter", "attack": 40, "speed": 18}]}`},
	}
	for _, tc := range cases {
		if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---------- Defaults ----------

func TestDefaultsMatchEcosystemBaseline(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"world width", float64(cfg.World.Width), 4096},
		{"grass health", cfg.Producer.Health, 10},
		{"grass lifetime", cfg.Producer.Lifetime, 30},
		{"grass interval", cfg.Producer.ReproductionInterval, 8},
		{"grass yield", cfg.Producer.Yield, 15},
		{"cow health", cfg.Herbivore.Health, 50},
		{"cow speed", cfg.Herbivore.Speed, 20},
		{"cow threshold", cfg.Herbivore.Reproduction.Threshold, 120},
		{"cow cost", cfg.Herbivore.Reproduction.Cost, 50},
		{"cow mating time", cfg.Herbivore.Reproduction.MatingTime, 10},
		{"attack distance", cfg.Physics.AttackDistance, 1},
		{"cell size", cfg.Physics.GridCellSize, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if cfg.Derived.DT32 <= 0 {
		t.Errorf("Derived.DT32 = %v, want positive", cfg.Derived.DT32)
	}
	if cfg.Derived.WorldW32 != 4096 {
		t.Errorf("Derived.WorldW32 = %v, want 4096", cfg.Derived.WorldW32)
	}
}

// ---------- Overlay ----------

func TestLoadOverlaysUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	body := "herbivore:\n  speed: 33\nworld:\n  width: 1000\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Herbivore.Speed != 33 {
		t.Errorf("Herbivore.Speed = %v, want 33", cfg.Herbivore.Speed)
	}
	if cfg.Herbivore.Damage != 10 {
		t.Errorf("untouched Herbivore.Damage = %v, want default 10", cfg.Herbivore.Damage)
	}
	if cfg.Derived.WorldW32 != 1000 {
		t.Errorf("Derived.WorldW32 = %v, want 1000", cfg.Derived.WorldW32)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// ---------- Validation ----------

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"zero dt", func(c *Config) { c.Physics.DT = 0 }, "physics.dt"},
		{"zero cell", func(c *Config) { c.Physics.GridCellSize = 0 }, "grid_cell_size"},
		{"bad policy", func(c *Config) { c.Debug.InvariantPolicy = "ignore" }, "invariant_policy"},
		{"bad format", func(c *Config) { c.Telemetry.SnapshotFormat = "xml" }, "snapshot_format"},
		{"zero lifetime", func(c *Config) { c.Predator.Lifetime = 0 }, "lifetimes"},
		{"negative damage", func(c *Config) { c.Predator.Damage = -5 }, "predator.damage"},
		{"zero damage", func(c *Config) { c.Herbivore.Damage = 0 }, "herbivore.damage"},
		{"negative speed", func(c *Config) { c.Herbivore.Speed = -1 }, "herbivore speed"},
		{"negative cooldown", func(c *Config) { c.Predator.AttackCooldown = -1 }, "predator speed, attack_cooldown"},
		{"negative mate radius", func(c *Config) { c.Predator.Reproduction.Radius = -1 }, "predator.reproduction radii"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Defaults()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

// ---------- Round trip ----------

func TestWriteYAMLReloads(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Predator.Speed = 41

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Predator.Speed != 41 {
		t.Errorf("Predator.Speed = %v, want 41", back.Predator.Speed)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cp := cfg.Clone()
	cp.Herbivore.Reproduction.Cost = 1
	if cfg.Herbivore.Reproduction.Cost == 1 {
		t.Error("Clone shares nested state with original")
	}
}

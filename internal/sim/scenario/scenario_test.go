package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/colony"
	"emberhold/internal/sim/tuning"
)

func TestLoadShippedScenario(t *testing.T) {
	cfg, err := Load("../../../configs/scenario.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HubPos() != (colony.Vec2{X: 0, Y: 0}) {
		t.Fatalf("hub = %+v", cfg.HubPos())
	}
	if cfg.StockpilePos() != (colony.Vec2{X: 2, Y: 0}) {
		t.Fatalf("stockpile = %+v", cfg.StockpilePos())
	}
	if len(cfg.Agents) != 4 || len(cfg.Nodes) != 6 {
		t.Fatalf("agents=%d nodes=%d", len(cfg.Agents), len(cfg.Nodes))
	}
	if cfg.Stock["FOOD"] != 30 || cfg.HousingCapacity != 4 {
		t.Fatalf("stock=%v housing=%d", cfg.Stock, cfg.HousingCapacity)
	}
}

func TestValidateRejectsBadScenarios(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"unknown role", Config{Agents: []AgentSpec{{Name: "x", Role: "WIZARD"}}}},
		{"empty agent name", Config{Agents: []AgentSpec{{Name: "", Role: "NONE"}}}},
		{"duplicate agent", Config{Agents: []AgentSpec{{Name: "x", Role: "NONE"}, {Name: "x", Role: "MINER"}}}},
		{"negative stock", Config{Stock: map[string]int{"WOOD": -1}}},
		{"empty node resource", Config{Nodes: []NodeSpec{{Resource: ""}}}},
	}
	for _, tc := range cases {
		if err := tc.cfg.Validate(); err == nil {
			t.Fatalf("%s: validated", tc.name)
		}
	}
}

func TestApplySeedsColony(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	cfg, err := Load("../../../configs/scenario.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	col, err := colony.New(colony.Config{
		ID: "t", Seed: 1, Tuning: tuning.Default(),
		HubPos: cfg.HubPos(), StockpilePos: cfg.StockpilePos(),
	}, cats)
	if err != nil {
		t.Fatalf("colony: %v", err)
	}
	if err := cfg.Apply(col); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	snap := col.ExportSnapshot(0)
	if len(snap.Agents) != 4 || len(snap.Nodes) != 6 {
		t.Fatalf("seeded agents=%d nodes=%d", len(snap.Agents), len(snap.Nodes))
	}
	if snap.Stock["FOOD"] != 30 {
		t.Fatalf("seeded stock: %v", snap.Stock)
	}
	if snap.Housing.Capacity != 4 || snap.Housing.Occupied != 4 {
		t.Fatalf("seeded housing: %+v", snap.Housing)
	}
}

func TestApplyRejectsUnknownResource(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	col, err := colony.New(colony.Config{ID: "t", Seed: 1, Tuning: tuning.Default()}, cats)
	if err != nil {
		t.Fatalf("colony: %v", err)
	}
	cfg := Config{Nodes: []NodeSpec{{Resource: "MITHRIL", X: 1, Y: 1}}}
	if err := cfg.Apply(col); err == nil {
		t.Fatalf("applied a node with an uncataloged resource")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte("hub: [broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("loaded malformed yaml")
	}
}

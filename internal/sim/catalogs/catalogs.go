package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Resources ResourceCatalog
	Buildings BuildingCatalog
}

type ResourceCatalog struct {
	ByID   map[string]ResourceDef
	IDs    []string // sorted
	Digest string
}

// ResourceDef describes a harvestable resource and the node that yields it.
type ResourceDef struct {
	ID           string `json:"id"`
	NodeName     string `json:"node_name"` // e.g. "TREE" for WOOD
	HarvestRole  string `json:"harvest_role"`
	MaxHarvests  int    `json:"max_harvests"`
	Yield        int    `json:"yield"`
	HarvestTicks int    `json:"harvest_ticks"`
}

type BuildingCatalog struct {
	ByID   map[string]BuildingDef
	IDs    []string // sorted
	Digest string
}

type BuildingDef struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"` // "HOUSE","WORKSHOP","STOCKPILE","HUB"
	Cost       map[string]int `json:"cost,omitempty"`
	BuildTicks int            `json:"build_ticks"`

	// HOUSE
	Housing int `json:"housing,omitempty"`

	// WORKSHOP
	Output        string `json:"output,omitempty"`
	CycleTicks    int    `json:"cycle_ticks,omitempty"`
	YieldPerCycle int    `json:"yield_per_cycle,omitempty"`
	WorkerRole    string `json:"worker_role,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadResources(filepath.Join(configDir, "resources.json"), &c.Resources); err != nil {
		return nil, err
	}
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadResources(path string, out *ResourceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ResourceDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("resources.json: %w", err)
	}
	out.ByID = map[string]ResourceDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("resources.json: empty id")
		}
		if d.MaxHarvests <= 0 || d.Yield <= 0 || d.HarvestTicks <= 0 {
			return fmt.Errorf("resources.json: %s: max_harvests/yield/harvest_ticks must be positive", d.ID)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("resources.json: duplicate id %s", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByID = map[string]BuildingDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("buildings.json: empty id")
		}
		if d.BuildTicks <= 0 {
			return fmt.Errorf("buildings.json: %s: build_ticks must be positive", d.ID)
		}
		if d.Kind == "WORKSHOP" && (d.Output == "" || d.CycleTicks <= 0 || d.YieldPerCycle <= 0) {
			return fmt.Errorf("buildings.json: %s: workshop needs output/cycle_ticks/yield_per_cycle", d.ID)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("buildings.json: duplicate id %s", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.IDs = sortedKeys(out.ByID)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Package scenario loads the initial colony layout: hub and stockpile
// positions, starting stock and housing, and the seeded agents and nodes.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"emberhold/internal/sim/colony"
	"emberhold/internal/sim/tasks"
)

type Config struct {
	Hub             Point          `yaml:"hub"`
	Stockpile       Point          `yaml:"stockpile"`
	Stock           map[string]int `yaml:"stock,omitempty"`
	HousingCapacity int            `yaml:"housing_capacity"`
	Agents          []AgentSpec    `yaml:"agents"`
	Nodes           []NodeSpec     `yaml:"nodes"`
}

type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type AgentSpec struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

type NodeSpec struct {
	Resource string `yaml:"resource"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HousingCapacity < 0 {
		return fmt.Errorf("housing_capacity must be >= 0")
	}
	for res, n := range c.Stock {
		if strings.TrimSpace(res) == "" {
			return fmt.Errorf("stock has empty resource id")
		}
		if n < 0 {
			return fmt.Errorf("stock %s must be >= 0", res)
		}
	}
	seen := map[string]bool{}
	for i, a := range c.Agents {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("agents[%d] name must not be empty", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name: %s", a.Name)
		}
		seen[a.Name] = true
		if !validRole(a.Role) {
			return fmt.Errorf("agents[%d] unknown role: %s", i, a.Role)
		}
	}
	for i, n := range c.Nodes {
		if strings.TrimSpace(n.Resource) == "" {
			return fmt.Errorf("nodes[%d] resource must not be empty", i)
		}
	}
	return nil
}

func validRole(role string) bool {
	switch tasks.Role(role) {
	case tasks.RoleNone, tasks.RoleLumberjack, tasks.RoleMiner, tasks.RoleFarmer, tasks.RoleBuilder, tasks.RoleHauler:
		return true
	}
	return false
}

func (c Config) HubPos() colony.Vec2       { return colony.Vec2{X: c.Hub.X, Y: c.Hub.Y} }
func (c Config) StockpilePos() colony.Vec2 { return colony.Vec2{X: c.Stockpile.X, Y: c.Stockpile.Y} }

// Apply seeds a fresh colony from the scenario. Node resources must exist in
// the resource catalog; an unknown id fails the whole apply.
func (c Config) Apply(col *colony.Colony) error {
	for _, res := range sortedResources(c.Stock) {
		col.SeedStock(res, c.Stock[res])
	}
	col.SeedHousing(c.HousingCapacity, len(c.Agents))
	for _, a := range c.Agents {
		col.SpawnAgent(a.Name, tasks.Role(a.Role), colony.Vec2{X: a.X, Y: a.Y})
	}
	for i, n := range c.Nodes {
		if _, err := col.SeedNode(n.Resource, colony.Vec2{X: n.X, Y: n.Y}); err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	return nil
}

func sortedResources(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

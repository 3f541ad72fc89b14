package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	ScanIntervalTicks  int `yaml:"scan_interval_ticks"`
	SweepIntervalTicks int `yaml:"sweep_interval_ticks"`
	BacklogCap         int `yaml:"backlog_cap"`

	// MaxTaskDistance 0 = unlimited.
	MaxTaskDistance float64 `yaml:"max_task_distance"`

	CarryCapacity     int `yaml:"carry_capacity"`
	HaulBatch         int `yaml:"haul_batch"`
	StuckTimeoutTicks int `yaml:"stuck_timeout_ticks"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	Growth Growth `yaml:"growth"`
}

type Growth struct {
	IntervalTicks int    `yaml:"interval_ticks"`
	Threshold     int    `yaml:"threshold"`
	Resource      string `yaml:"resource"`
	HaulPriority  int    `yaml:"haul_priority"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t.WithDefaults(), nil
}

// Default returns the tuning used when no tuning.yaml is provided (tests,
// replay of journals that predate a knob).
func Default() Tuning {
	return Tuning{}.WithDefaults()
}

func (t Tuning) WithDefaults() Tuning {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 10
	}
	if t.ScanIntervalTicks <= 0 {
		t.ScanIntervalTicks = 5
	}
	if t.SweepIntervalTicks <= 0 {
		t.SweepIntervalTicks = 50
	}
	if t.BacklogCap <= 0 {
		t.BacklogCap = 256
	}
	if t.CarryCapacity <= 0 {
		t.CarryCapacity = 20
	}
	if t.HaulBatch <= 0 {
		t.HaulBatch = 10
	}
	if t.StuckTimeoutTicks <= 0 {
		t.StuckTimeoutTicks = 200
	}
	if t.SnapshotEveryTicks < 0 {
		t.SnapshotEveryTicks = 0
	}
	if t.Growth.IntervalTicks <= 0 {
		t.Growth.IntervalTicks = 100
	}
	if t.Growth.Threshold <= 0 {
		t.Growth.Threshold = 50
	}
	if t.Growth.Resource == "" {
		t.Growth.Resource = "FOOD"
	}
	if t.Growth.HaulPriority <= 0 {
		t.Growth.HaulPriority = 10
	}
	return t
}

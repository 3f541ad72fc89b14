package colony

import "emberhold/internal/sim/tasks"

// Metrics is a point-in-time summary stored atomically for the HTTP
// read-model; it never feeds back into the simulation.
type Metrics struct {
	Tick   uint64 `json:"tick"`
	Agents int    `json:"agents"`

	TasksPending    int    `json:"tasks_pending"`
	TasksInProgress int    `json:"tasks_in_progress"`
	Backlog         int    `json:"backlog"`
	BacklogDrops    uint64 `json:"backlog_drops"`

	Nodes     int `json:"nodes"`
	Sites     int `json:"sites"`
	Buildings int `json:"buildings"`

	Stock   map[string]int  `json:"stock"`
	Housing HousingSnapshot `json:"housing"`

	Observers int     `json:"observers"`
	StepMS    float64 `json:"step_ms"`
}

func (c *Colony) Metrics() Metrics {
	m, _ := c.metrics.Load().(Metrics)
	return m
}

func (c *Colony) storeMetrics(nowTick uint64, stepMS float64) {
	pending, inProgress := 0, 0
	for _, t := range c.sched.tasks {
		switch t.State {
		case tasks.StatePending:
			pending++
		case tasks.StateInProgress:
			inProgress++
		}
	}
	c.metrics.Store(Metrics{
		Tick:            nowTick + 1,
		Agents:          len(c.agents),
		TasksPending:    pending,
		TasksInProgress: inProgress,
		Backlog:         c.sched.Len(),
		BacklogDrops:    c.backlogDrops,
		Nodes:           len(c.nodes),
		Sites:           len(c.sites),
		Buildings:       len(c.buildings),
		Stock:           c.ledger.Stock(),
		Housing: HousingSnapshot{
			Capacity: c.housing.Capacity,
			Occupied: c.housing.Occupied,
			Growth:   c.housing.Growth,
		},
		Observers: len(c.observers),
		StepMS:    stepMS,
	})
}

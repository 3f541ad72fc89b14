package colony

import "time"

// stepInternal runs one tick. Ordering: placement requests, then producers
// (growth, construction, stations), then the agent state machines, then the
// sweep, so a task created this tick is claimable no earlier than an agent
// scan falling on or after it.
func (c *Colony) stepInternal(places []PlaceRequest) {
	stepStart := time.Now()
	nowTick := c.tick.Load()

	c.events = c.events[:0]

	var placed []PlacedInput
	for _, req := range places {
		_, err := c.PlaceBuilding(req.Building, req.Pos)
		if req.Resp != nil {
			req.Resp <- err
		}
		placed = append(placed, PlacedInput{Building: req.Building, Pos: req.Pos.ToArray()})
	}

	c.systemGrowth(nowTick)
	c.systemConstruction(nowTick)
	c.systemStations(nowTick)
	c.systemAgents(nowTick)

	if nowTick > 0 && nowTick%uint64(c.cfg.Tuning.SweepIntervalTicks) == 0 {
		c.sched.CleanupFinished()
	}

	digest := c.stateDigest(nowTick)

	c.broadcastFrame(nowTick, digest)

	if c.tickLogger != nil {
		entry := TickLogEntry{Tick: nowTick, Places: placed, Digest: digest}
		if len(c.events) > 0 {
			entry.Events = append(entry.Events, c.events...)
		}
		_ = c.tickLogger.WriteTick(entry)
	}

	if c.snapshotSink != nil && nowTick != 0 {
		every := uint64(c.cfg.Tuning.SnapshotEveryTicks)
		if every > 0 && nowTick%every == 0 {
			snap := c.ExportSnapshot(nowTick)
			select {
			case c.snapshotSink <- snap:
			default:
				// Drop the snapshot if the sink is backed up.
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	c.storeMetrics(nowTick, stepMS)

	c.tick.Add(1)
}

package colony

import (
	"errors"
	"sort"

	"emberhold/internal/sim/tasks"
)

var ErrBacklogFull = errors.New("task backlog full")

// Scheduler is the task registry: it owns all live tasks and answers
// best-match queries. The backlog is capped with a drop-new policy; Add
// reports the refusal to the caller instead of queueing silently.
type Scheduler struct {
	cap   int
	tasks map[string]*tasks.Task
}

func NewScheduler(backlogCap int) *Scheduler {
	if backlogCap <= 0 {
		backlogCap = 256
	}
	return &Scheduler{cap: backlogCap, tasks: map[string]*tasks.Task{}}
}

func (s *Scheduler) Add(t *tasks.Task) error {
	if t == nil || t.TaskID == "" {
		return errors.New("task missing id")
	}
	if len(s.tasks) >= s.cap {
		return ErrBacklogFull
	}
	s.tasks[t.TaskID] = t
	return nil
}

func (s *Scheduler) Remove(taskID string) { delete(s.tasks, taskID) }

func (s *Scheduler) Get(taskID string) *tasks.Task { return s.tasks[taskID] }

func (s *Scheduler) Len() int { return len(s.tasks) }

func (s *Scheduler) PendingFor(role tasks.Role) []*tasks.Task {
	var out []*tasks.Task
	for _, t := range s.sorted() {
		if t.State == tasks.StatePending && t.EligibleFor(role) {
			out = append(out, t)
		}
	}
	return out
}

// FindBestFor returns the best pending task for a requester: eligible for
// the role, within maxDist of pos (0 = unlimited), passing valid, ranked by
// priority descending then Euclidean distance ascending. Task id breaks the
// remaining ties so matching is deterministic.
func (s *Scheduler) FindBestFor(role tasks.Role, pos Vec2, maxDist float64, valid func(*tasks.Task) bool) *tasks.Task {
	var best *tasks.Task
	var bestDist float64
	for _, t := range s.sorted() {
		if t.State != tasks.StatePending || !t.EligibleFor(role) {
			continue
		}
		d := dist(pos, vFromTask(t.Pos))
		if maxDist > 0 && d > maxDist {
			continue
		}
		if valid != nil && !valid(t) {
			continue
		}
		if best == nil || t.Priority > best.Priority || (t.Priority == best.Priority && d < bestDist) {
			best = t
			bestDist = d
		}
	}
	return best
}

// CleanupFinished sweeps terminal tasks out of the registry. It runs on a
// fixed interval rather than at completion time so observers of completion
// events get a window to react before removal.
func (s *Scheduler) CleanupFinished() int {
	removed := 0
	for id, t := range s.tasks {
		if t.Terminal() {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

func (s *Scheduler) sorted() []*tasks.Task {
	out := make([]*tasks.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

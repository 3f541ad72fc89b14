package colony

import "sort"

// Ledger is the colony-wide resource stock (the stockpile's contents).
type Ledger struct {
	stock map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{stock: map[string]int{}}
}

func (l *Ledger) Add(resource string, n int) {
	if resource == "" || n <= 0 {
		return
	}
	l.stock[resource] += n
}

// TryRemove withdraws n units, or nothing at all.
func (l *Ledger) TryRemove(resource string, n int) bool {
	if n <= 0 {
		return false
	}
	if l.stock[resource] < n {
		return false
	}
	l.stock[resource] -= n
	return true
}

func (l *Ledger) HasEnough(resource string, n int) bool {
	return l.stock[resource] >= n
}

func (l *Ledger) Get(resource string) int { return l.stock[resource] }

// Stock returns a copy with zero entries elided, keys sorted on demand by
// callers that need determinism.
func (l *Ledger) Stock() map[string]int {
	out := make(map[string]int, len(l.stock))
	for k, v := range l.stock {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

func (l *Ledger) sortedResources() []string {
	ids := make([]string, 0, len(l.stock))
	for id, n := range l.stock {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HousingLedger tracks capacity, occupancy and the growth-resource
// accumulator feeding the growth loop.
type HousingLedger struct {
	Capacity int
	Occupied int
	Growth   int
}

func (h *HousingLedger) Available() int { return h.Capacity - h.Occupied }

package colony

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// stateDigest hashes the authoritative state section by section; replays
// compare it per tick to prove determinism.
func (c *Colony) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteString(h, c.cfg.ID)
	digestWriteI64(h, &tmp, c.cfg.Seed)

	for _, res := range c.ledger.sortedResources() {
		digestWriteString(h, res)
		digestWriteU64(h, &tmp, uint64(c.ledger.Get(res)))
	}

	digestWriteI64(h, &tmp, int64(c.housing.Capacity))
	digestWriteI64(h, &tmp, int64(c.housing.Occupied))
	digestWriteI64(h, &tmp, int64(c.housing.Growth))

	for _, a := range c.sortedAgents() {
		digestWriteString(h, a.ID)
		digestWriteString(h, string(a.Role))
		digestWriteString(h, string(a.State))
		digestWriteI64(h, &tmp, int64(a.Pos.X))
		digestWriteI64(h, &tmp, int64(a.Pos.Y))
		digestWriteString(h, a.Carry)
		digestWriteI64(h, &tmp, int64(a.CarryCount))
		if a.Task != nil {
			digestWriteString(h, a.Task.TaskID)
		}
	}

	for _, t := range c.sched.sorted() {
		digestWriteString(h, t.TaskID)
		digestWriteString(h, string(t.Kind))
		digestWriteString(h, string(t.State))
		digestWriteI64(h, &tmp, int64(t.Priority))
		digestWriteString(h, t.AssignedTo)
		digestWriteI64(h, &tmp, int64(t.Amount))
		h.Write([]byte{boolByte(t.PickedUp)})
		digestWriteI64(h, &tmp, int64(t.WorkTicks))
	}

	for _, n := range c.sortedNodes() {
		digestWriteString(h, n.ID)
		digestWriteString(h, string(n.State))
		digestWriteString(h, n.ReservedBy)
		digestWriteI64(h, &tmp, int64(n.Harvested))
		digestWriteI64(h, &tmp, int64(n.WorkTicks))
	}

	for _, s := range c.sortedSites() {
		digestWriteString(h, s.ID)
		digestWriteString(h, s.Building)
		h.Write([]byte{boolByte(s.FullyDelivered), boolByte(s.BuildStarted)})
		for _, res := range sortedKeys(s.Delivered) {
			digestWriteString(h, res)
			digestWriteI64(h, &tmp, int64(s.Delivered[res]))
		}
	}

	for _, b := range c.sortedBuildings() {
		digestWriteString(h, b.ID)
		digestWriteString(h, b.Def)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hash.Hash, s string) {
	var tmp [8]byte
	digestWriteU64(h, &tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

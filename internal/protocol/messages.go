package protocol

// HelloMsg is sent by an observer client after connecting.
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name,omitempty"`
}

// WelcomeMsg answers a HELLO with colony parameters and catalog digests.
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	ColonyParams    ColonyParams `json:"colony_params"`
	Catalogs        CatalogInfo  `json:"catalogs"`
}

type ColonyParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	ScanInterval    int     `json:"scan_interval_ticks"`
	BacklogCap      int     `json:"backlog_cap"`
	MaxTaskDistance float64 `json:"max_task_distance"`
	CarryCapacity   int     `json:"carry_capacity"`
	HaulBatch       int     `json:"haul_batch"`
}

type CatalogInfo struct {
	ResourcesDigest string `json:"resources_digest"`
	BuildingsDigest string `json:"buildings_digest"`
}

// SnapshotMsg is the full colony state sent once on observer join.
type SnapshotMsg struct {
	Type  string `json:"type"`
	Tick  uint64 `json:"tick"`
	State any    `json:"state"`
}

// FrameMsg is the per-tick delta: everything that happened this tick plus a
// small agent summary for rendering.
type FrameMsg struct {
	Type   string         `json:"type"`
	Tick   uint64         `json:"tick"`
	Events []Event        `json:"events,omitempty"`
	Agents []AgentSummary `json:"agents,omitempty"`
	Digest string         `json:"digest"`
}

type AgentSummary struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	State string `json:"state"`
	Pos   [2]int `json:"pos"`
	Carry string `json:"carry,omitempty"`
	Count int    `json:"count,omitempty"`
	Task  string `json:"task,omitempty"`
}

package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	RunID           string      `json:"run_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	Slots           []SlotInfo  `json:"slots"`
	CatalogDigests  CatalogInfo `json:"catalog_digests"`
}

type WorldParams struct {
	TickRateHz        int   `json:"tick_rate_hz"`
	ArrivalEveryTicks int   `json:"arrival_every_ticks"`
	Seed              int64 `json:"seed"`
	LazyAgents        int   `json:"lazy_agents"`
}

type SlotInfo struct {
	Index           int        `json:"index"`
	Pos             [2]float64 `json:"pos"`
	InspectionPoint [2]float64 `json:"inspection_point"`
}

type CatalogInfo struct {
	Items     string `json:"items"`
	Companies string `json:"companies"`
	Locations string `json:"locations"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Slots   []SlotState      `json:"slots"`
	Agents  []AgentState     `json:"agents"`
	Lead    LeadState        `json:"lead"`
	Removed []ContainerState `json:"removed,omitempty"`

	Arrivals []string `json:"arrivals,omitempty"`

	Containers ContainerTotals `json:"containers"`
}

type SlotState struct {
	Index      int             `json:"index"`
	Container  *ContainerState `json:"container,omitempty"`
	AssigneeID string          `json:"assignee_id,omitempty"`
}

type ContainerState struct {
	ID               string `json:"id"`
	Company          string `json:"company"`
	Source           string `json:"source"`
	Destination      string `json:"destination"`
	Dangerous        bool   `json:"dangerous"`
	Faked            string `json:"faked,omitempty"`
	ClearedByCustoms string `json:"cleared_by_customs"`
	ClearedByPA      string `json:"cleared_by_pa"`
	State            string `json:"state"`
}

// Agent kinds.
const (
	KindCustoms = "CUSTOMS"
	KindOfficer = "PORT_AUTHORITY"
)

type AgentState struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	State       string     `json:"state"`
	Pos         [2]float64 `json:"pos"`
	ContainerID string     `json:"container_id,omitempty"`
	PartnerID   string     `json:"partner_id,omitempty"`

	// Customs agents only.
	Lazy            bool `json:"lazy,omitempty"`
	UnderInspection bool `json:"under_inspection,omitempty"`
}

type LeadState struct {
	ID              string     `json:"id"`
	Pos             [2]float64 `json:"pos"`
	UnderInspection []string   `json:"under_inspection"`
	Cooldown        []string   `json:"cooldown"`
	// Flagged lists the agents that currently satisfy the too-lazy rule.
	Flagged         []string   `json:"flagged,omitempty"`
}

type ContainerTotals struct {
	ClearedOK  int `json:"cleared_ok"`
	ClearedBad int `json:"cleared_bad"`
	Rejected   int `json:"rejected"`
}

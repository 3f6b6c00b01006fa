package world

type WorldConfig struct {
	ID                string `json:"id"`
	TickRateHz        int    `json:"tick_rate_hz"`
	// ArrivalEveryTicks counts the idle ticks between two arrivals, so
	// containers land every ArrivalEveryTicks+1 ticks, starting at tick 0.
	ArrivalEveryTicks int    `json:"arrival_every_ticks"`
	// MaxTicks stops Run after that many ticks; 0 runs until cancelled.
	MaxTicks   uint64 `json:"max_ticks"`
	Seed       int64  `json:"seed"`
	LazyAgents int    `json:"lazy_agents"`

	LeadInspectionTicks int    `json:"lead_inspection_ticks"`
	LeadCooldownTicks   int    `json:"lead_cooldown_ticks"`
	TooLazyExpr         string `json:"too_lazy_expr"`
}

func (c *WorldConfig) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 10
	}
	if c.ArrivalEveryTicks <= 0 {
		c.ArrivalEveryTicks = 10
	}
	if c.LazyAgents < 0 {
		c.LazyAgents = 0
	}
	if c.LeadInspectionTicks <= 0 {
		c.LeadInspectionTicks = 100
	}
	if c.LeadCooldownTicks <= 0 {
		c.LeadCooldownTicks = 500
	}
}

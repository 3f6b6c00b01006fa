// Package stats is the running record of inspection outcomes. Agents read it to
// steer their heuristics and write to it after every decision.
//
// A Store belongs to one simulation run and is only touched from the world
// loop goroutine.
package stats

type okErr struct {
	OK    int
	Error int
}

func (c okErr) errorRate() float64 {
	n := c.OK + c.Error
	if n == 0 {
		// Nothing observed yet: treat as maximally risky.
		return 1.0
	}
	return float64(c.Error) / float64(n)
}

type agentCounts struct {
	Physical int
	Virtual  int
}

type officerCounts struct {
	Physical int
	Computer int
	Virtual  int
}

// ContainerCounts aggregates final outcomes of customs decisions.
type ContainerCounts struct {
	ClearedOK  int `json:"cleared_ok"`
	ClearedBad int `json:"cleared_bad"`
	Rejected   int `json:"rejected"`
}

type Store struct {
	country    map[string]*okErr
	company    map[string]*okErr
	containers ContainerCounts
	lastTax    map[string]int
	agents     map[string]*agentCounts
	officers   map[string]*officerCounts
	pairings   map[string]map[string]int
}

func New() *Store {
	return &Store{
		country:  map[string]*okErr{},
		company:  map[string]*okErr{},
		lastTax:  map[string]int{},
		agents:   map[string]*agentCounts{},
		officers: map[string]*officerCounts{},
		pairings: map[string]map[string]int{},
	}
}

func bucket(m map[string]*okErr, k string) *okErr {
	b := m[k]
	if b == nil {
		b = &okErr{}
		m[k] = b
	}
	return b
}

func (s *Store) ReportCountryError(country string)   { bucket(s.country, country).Error++ }
func (s *Store) ReportCountryCorrect(country string) { bucket(s.country, country).OK++ }
func (s *Store) ReportCompanyError(company string)   { bucket(s.company, company).Error++ }
func (s *Store) ReportCompanyCorrect(company string) { bucket(s.company, company).OK++ }

// CountryErrorRate is 1.0 for a country with no observations.
func (s *Store) CountryErrorRate(country string) float64 {
	if b := s.country[country]; b != nil {
		return b.errorRate()
	}
	return 1.0
}

// CompanyErrorRate is 1.0 for a company with no observations.
func (s *Store) CompanyErrorRate(company string) float64 {
	if b := s.company[company]; b != nil {
		return b.errorRate()
	}
	return 1.0
}

func (s *Store) ContainerClearedCorrectly()   { s.containers.ClearedOK++ }
func (s *Store) ContainerClearedIncorrectly() { s.containers.ClearedBad++ }
func (s *Store) ContainerRejected()           { s.containers.Rejected++ }

func (s *Store) Containers() ContainerCounts { return s.containers }

// CompanyLastTax is the last tax verified by a physical inspection for the
// company, or 1 when none has been.
func (s *Store) CompanyLastTax(company string) int {
	if v, ok := s.lastTax[company]; ok {
		return v
	}
	return 1
}

func (s *Store) PutCompanyLastTax(company string, tax int) { s.lastTax[company] = tax }

func (s *Store) agent(id string) *agentCounts {
	a := s.agents[id]
	if a == nil {
		a = &agentCounts{}
		s.agents[id] = a
	}
	return a
}

func (s *Store) officer(id string) *officerCounts {
	o := s.officers[id]
	if o == nil {
		o = &officerCounts{}
		s.officers[id] = o
	}
	return o
}

func (s *Store) ReportAgentPhysicallyInspected(agent string) { s.agent(agent).Physical++ }
func (s *Store) ReportAgentVirtuallyInspected(agent string)  { s.agent(agent).Virtual++ }

func (s *Store) AgentPhysicallyInspected(agent string) int {
	if a := s.agents[agent]; a != nil {
		return a.Physical
	}
	return 0
}

func (s *Store) AgentVirtuallyInspected(agent string) int {
	if a := s.agents[agent]; a != nil {
		return a.Virtual
	}
	return 0
}

func (s *Store) ReportPAPhysicallyInspected(officer string) { s.officer(officer).Physical++ }
func (s *Store) ReportPAComputerInspected(officer string)   { s.officer(officer).Computer++ }
func (s *Store) ReportPAVirtuallyInspected(officer string)  { s.officer(officer).Virtual++ }

func (s *Store) ReportPAPairedWithAgent(officer, agent string) {
	m := s.pairings[officer]
	if m == nil {
		m = map[string]int{}
		s.pairings[officer] = m
	}
	m[agent]++
}

func (s *Store) Pairings(officer, agent string) int { return s.pairings[officer][agent] }

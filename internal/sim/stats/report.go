package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

type RateRow struct {
	Name      string  `json:"name"`
	OK        int     `json:"ok"`
	Error     int     `json:"error"`
	ErrorRate float64 `json:"error_rate"`
}

type AgentRow struct {
	ID       string `json:"id"`
	Physical int    `json:"physical"`
	Virtual  int    `json:"virtual"`
}

type OfficerRow struct {
	ID       string `json:"id"`
	Physical int    `json:"physical"`
	Computer int    `json:"computer"`
	Virtual  int    `json:"virtual"`
}

type PairingRow struct {
	Officer string `json:"officer"`
	Agent   string `json:"agent"`
	Count   int    `json:"count"`
}

// Report is a copy of the store, sorted by key so it can be compared, hashed
// and serialized.
type Report struct {
	Containers ContainerCounts `json:"containers"`
	Countries  []RateRow       `json:"countries"`
	Companies  []RateRow       `json:"companies"`
	Agents     []AgentRow      `json:"agents"`
	Officers   []OfficerRow    `json:"officers"`
	Pairings   []PairingRow    `json:"pairings"`
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func rateRows(m map[string]*okErr) []RateRow {
	out := make([]RateRow, 0, len(m))
	for _, k := range sortedKeys(m) {
		b := m[k]
		out = append(out, RateRow{Name: k, OK: b.OK, Error: b.Error, ErrorRate: b.errorRate()})
	}
	return out
}

func (s *Store) Report() Report {
	r := Report{
		Containers: s.containers,
		Countries:  rateRows(s.country),
		Companies:  rateRows(s.company),
		Agents:     make([]AgentRow, 0, len(s.agents)),
		Officers:   make([]OfficerRow, 0, len(s.officers)),
	}
	for _, id := range sortedKeys(s.agents) {
		a := s.agents[id]
		r.Agents = append(r.Agents, AgentRow{ID: id, Physical: a.Physical, Virtual: a.Virtual})
	}
	for _, id := range sortedKeys(s.officers) {
		o := s.officers[id]
		r.Officers = append(r.Officers, OfficerRow{ID: id, Physical: o.Physical, Computer: o.Computer, Virtual: o.Virtual})
	}
	for _, off := range sortedKeys(s.pairings) {
		for _, ag := range sortedKeys(s.pairings[off]) {
			r.Pairings = append(r.Pairings, PairingRow{Officer: off, Agent: ag, Count: s.pairings[off][ag]})
		}
	}
	return r
}

func fmtRate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteText renders the end-of-run report.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Statistics\n==========\n")
	b.WriteString("Containers\n----------\n")
	fmt.Fprintf(&b, "Cleared: %d, out of it incorrectly %d, Rejected: %d\n",
		r.Containers.ClearedOK+r.Containers.ClearedBad, r.Containers.ClearedBad, r.Containers.Rejected)
	b.WriteString("Countries error rate\n--------------------\n")
	for _, c := range r.Countries {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, fmtRate(c.ErrorRate))
	}
	b.WriteString("Companies error rate\n--------------------\n")
	for _, c := range r.Companies {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, fmtRate(c.ErrorRate))
	}
	b.WriteString("Customs agents\n--------------\n")
	for _, a := range r.Agents {
		fmt.Fprintf(&b, "%s inspected: physically %d, virtually %d\n", a.ID, a.Physical, a.Virtual)
	}
	b.WriteString("PA officers\n-----------\n")
	for _, o := range r.Officers {
		fmt.Fprintf(&b, "%s inspected: physically %d, from customs computer %d, virtually %d\n", o.ID, o.Physical, o.Computer, o.Virtual)
	}
	b.WriteString("Pairing\n-------\n")
	for i := 0; i < len(r.Pairings); {
		off := r.Pairings[i].Officer
		fmt.Fprintf(&b, "%s paired with: ", off)
		for ; i < len(r.Pairings) && r.Pairings[i].Officer == off; i++ {
			fmt.Fprintf(&b, "%s %d times ", r.Pairings[i].Agent, r.Pairings[i].Count)
		}
		b.WriteString("\n")
	}
	b.WriteString("END-OF-STATISTICS\n")
	_, err := io.WriteString(w, b.String())
	return err
}

package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRates_UnseenKeyIsMaximal(t *testing.T) {
	s := New()
	assert.Equal(t, 1.0, s.CountryErrorRate("Atlantis"))
	assert.Equal(t, 1.0, s.CompanyErrorRate("Nobody Shipping"))
}

func TestErrorRates_Observed(t *testing.T) {
	s := New()
	s.ReportCountryCorrect("Chile")
	s.ReportCountryCorrect("Chile")
	s.ReportCountryCorrect("Chile")
	s.ReportCountryError("Chile")
	assert.Equal(t, 0.25, s.CountryErrorRate("Chile"))

	s.ReportCompanyCorrect("Maersk")
	assert.Equal(t, 0.0, s.CompanyErrorRate("Maersk"))
	s.ReportCompanyError("Maersk")
	assert.Equal(t, 0.5, s.CompanyErrorRate("Maersk"))
}

func TestCompanyLastTax_DefaultsToOne(t *testing.T) {
	s := New()
	assert.Equal(t, 1, s.CompanyLastTax("Maersk"))
	s.PutCompanyLastTax("Maersk", 412)
	assert.Equal(t, 412, s.CompanyLastTax("Maersk"))
}

func TestAgentAndOfficerCounters(t *testing.T) {
	s := New()
	s.ReportAgentVirtuallyInspected("Agent01")
	s.ReportAgentVirtuallyInspected("Agent01")
	s.ReportAgentPhysicallyInspected("Agent01")
	assert.Equal(t, 2, s.AgentVirtuallyInspected("Agent01"))
	assert.Equal(t, 1, s.AgentPhysicallyInspected("Agent01"))
	assert.Equal(t, 0, s.AgentPhysicallyInspected("Agent02"))

	s.ReportPAPhysicallyInspected("PA01")
	s.ReportPAComputerInspected("PA01")
	s.ReportPAVirtuallyInspected("PA01")
	s.ReportPAPairedWithAgent("PA01", "Agent02")
	s.ReportPAPairedWithAgent("PA01", "Agent02")
	assert.Equal(t, 2, s.Pairings("PA01", "Agent02"))

	r := s.Report()
	require.Len(t, r.Officers, 1)
	assert.Equal(t, OfficerRow{ID: "PA01", Physical: 1, Computer: 1, Virtual: 1}, r.Officers[0])
	assert.Equal(t, []PairingRow{{Officer: "PA01", Agent: "Agent02", Count: 2}}, r.Pairings)
}

func TestReport_WriteText(t *testing.T) {
	s := New()
	s.ContainerClearedCorrectly()
	s.ContainerClearedIncorrectly()
	s.ContainerRejected()
	s.ReportCountryError("Chile")
	s.ReportCompanyCorrect("Maersk")
	s.ReportAgentPhysicallyInspected("Agent01")
	s.ReportPAPairedWithAgent("PA02", "Agent01")
	s.ReportPAPairedWithAgent("PA01", "Agent03")

	var b strings.Builder
	require.NoError(t, s.Report().WriteText(&b))
	out := b.String()
	assert.Contains(t, out, "Cleared: 2, out of it incorrectly 1, Rejected: 1\n")
	assert.Contains(t, out, "Chile: 1.0\n")
	assert.Contains(t, out, "Maersk: 0.0\n")
	assert.Contains(t, out, "Agent01 inspected: physically 1, virtually 0\n")
	assert.Less(t, strings.Index(out, "PA01 paired with: Agent03 1 times"), strings.Index(out, "PA02 paired with: Agent01 1 times"))
	assert.True(t, strings.HasSuffix(out, "END-OF-STATISTICS\n"))
}

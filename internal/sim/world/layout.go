package world

import (
	"fmt"

	"portsim.ai/internal/sim/model"
)

// Fixed yard layout.
var (
	SlotPositions = []model.Vec2{
		model.V(50, 10),
		model.V(50, 100),
		model.V(50, 190),
		model.V(50, 280),
		model.V(50, 370),
		model.V(50, 460),
		model.V(50, 550),
	}
	InspectionOffset = model.V(110, 0)

	CustomsHomes = []model.Vec2{model.V(700, 100), model.V(700, 270), model.V(700, 440)}
	OfficerHomes = []model.Vec2{model.V(340, 735), model.V(580, 735), model.V(820, 735)}
	LeadHome     = model.V(975, 270)
)

const LeadID = "LeadAgent01"

func customsID(i int) string { return fmt.Sprintf("Agent%02d", i+1) }
func officerID(i int) string { return fmt.Sprintf("PortAuthorityAgent%02d", i+1) }

// Package model holds the containers, declarations and items that flow through
// the yard, plus the 2-D geometry agents move on.
package model

import "fmt"

// Item is compared by value everywhere; all fields are comparable.
type Item struct {
	Kind        string `json:"kind"`
	Amount      int    `json:"amount"`
	Dangerous   bool   `json:"dangerous"`
	Description string `json:"description"`
	Price       int    `json:"price"`
}

// Declaration is the importer-submitted manifest. It may lie.
type Declaration struct {
	Items       []Item `json:"items"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	DeclaredTax int    `json:"declared_tax"`
}

func (d Declaration) HasDangerous() bool {
	for _, it := range d.Items {
		if it.Dangerous {
			return true
		}
	}
	return false
}

// ClearanceState is used both for the per-authority verdicts and for the
// container's final disposition.
type ClearanceState uint8

const (
	Delivered ClearanceState = iota
	Cleared
	Uncleared
)

func (s ClearanceState) String() string {
	switch s {
	case Delivered:
		return "DELIVERED"
	case Cleared:
		return "CLEARED"
	case Uncleared:
		return "UNCLEARED"
	default:
		return fmt.Sprintf("ClearanceState(%d)", uint8(s))
	}
}

func (s ClearanceState) Resolved() bool { return s == Cleared || s == Uncleared }

type Container struct {
	ID          string
	Company     string
	Items       []Item
	Tax         int
	Declaration Declaration

	// Dangerous is derived from the declared items at construction and never
	// recomputed.
	Dangerous bool

	ClearedByCustoms ClearanceState
	ClearedByPA      ClearanceState

	state ClearanceState
}

func NewContainer(id, company string, items []Item, tax int, decl Declaration) *Container {
	return &Container{
		ID:          id,
		Company:     company,
		Items:       items,
		Tax:         tax,
		Declaration: decl,
		Dangerous:   decl.HasDangerous(),
	}
}

// State is the overall disposition.
func (c *Container) State() ClearanceState { return c.state }

// Resolve sets the overall disposition. It may be called once, with a
// resolved value.
func (c *Container) Resolve(s ClearanceState) {
	if !s.Resolved() {
		panic(fmt.Sprintf("model: container %s resolved to %s", c.ID, s))
	}
	if c.state != Delivered {
		panic(fmt.Sprintf("model: container %s already %s, cannot become %s", c.ID, c.state, s))
	}
	c.state = s
}

// ItemsMatch reports whether the declared and actual items are equal as sets.
func (c *Container) ItemsMatch() bool {
	return sameItemSet(c.Declaration.Items, c.Items)
}

func (c *Container) TaxMatches() bool { return c.Declaration.DeclaredTax == c.Tax }

// Faked labels a container the way the yard display does: "FAKED" for a
// false manifest, "FAKED TAX" for a true manifest with a wrong tax, "" otherwise.
func (c *Container) Faked() string {
	switch {
	case !c.ItemsMatch():
		return "FAKED"
	case !c.TaxMatches():
		return "FAKED TAX"
	default:
		return ""
	}
}

func sameItemSet(a, b []Item) bool {
	as := make(map[Item]struct{}, len(a))
	for _, it := range a {
		as[it] = struct{}{}
	}
	bs := make(map[Item]struct{}, len(b))
	for _, it := range b {
		bs[it] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for it := range as {
		if _, ok := bs[it]; !ok {
			return false
		}
	}
	return true
}

package model

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tv    = Item{Kind: "TELEVISION", Amount: 1, Description: "TV", Price: 300}
	gps   = Item{Kind: "GPS_OR_NAVIGATION_SYSTEM", Amount: 1, Dangerous: true, Description: "GPS", Price: 120}
	radio = Item{Kind: "RADIO", Amount: 1, Description: "Radio", Price: 40}
)

func TestContainer_DangerousFromDeclarationOnly(t *testing.T) {
	c := NewContainer("C1", "ACME", []Item{gps}, 18, Declaration{Items: []Item{tv}, DeclaredTax: 45})
	assert.False(t, c.Dangerous, "actual items must not influence the flag")

	c = NewContainer("C2", "ACME", []Item{tv}, 45, Declaration{Items: []Item{gps}, DeclaredTax: 18})
	assert.True(t, c.Dangerous)
}

func TestContainer_ItemsMatchIsUnorderedValueEquality(t *testing.T) {
	decl := Declaration{Items: []Item{radio, tv}, DeclaredTax: 51}
	c := NewContainer("C1", "ACME", []Item{tv, radio}, 51, decl)
	assert.True(t, c.ItemsMatch())
	assert.True(t, c.TaxMatches())
	assert.Equal(t, "", c.Faked())

	copyOfTV := Item{Kind: "TELEVISION", Amount: 1, Description: "TV", Price: 300}
	c = NewContainer("C2", "ACME", []Item{copyOfTV, radio}, 51, decl)
	assert.True(t, c.ItemsMatch())

	c = NewContainer("C3", "ACME", []Item{tv, gps}, 63, decl)
	assert.False(t, c.ItemsMatch())
	assert.Equal(t, "FAKED", c.Faked())

	c = NewContainer("C4", "ACME", []Item{tv, radio}, 51, Declaration{Items: []Item{tv, radio}, DeclaredTax: 3})
	assert.Equal(t, "FAKED TAX", c.Faked())
}

func TestContainer_ResolveOnlyOnce(t *testing.T) {
	c := NewContainer("C1", "ACME", nil, 1, Declaration{})
	require.Equal(t, Delivered, c.State())
	c.Resolve(Cleared)
	assert.Equal(t, Cleared, c.State())
	assert.Panics(t, func() { c.Resolve(Uncleared) })
	assert.Panics(t, func() { c.Resolve(Cleared) })
	assert.Panics(t, func() { NewContainer("C2", "", nil, 1, Declaration{}).Resolve(Delivered) })
}

func TestVec2_MoveTowardSnapsWithinSpeed(t *testing.T) {
	from := V(0, 0)
	assert.Equal(t, V(30, 40), from.MoveToward(V(30, 40), 50))
	assert.Equal(t, V(3, 4), from.MoveToward(V(3, 4), 50))

	got := from.MoveToward(V(300, 400), 50)
	assert.InDelta(t, 30, got.X, 1e-9)
	assert.InDelta(t, 40, got.Y, 1e-9)
}

func TestVec2_MoveTowardNeverOvershoots(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	coord := gen.Float64Range(-2000, 2000)
	properties.Property("distance to target shrinks by speed or reaches zero", prop.ForAll(
		func(ax, ay, bx, by, speed float64) bool {
			a, b := V(ax, ay), V(bx, by)
			before := a.Dist(b)
			next := a.MoveToward(b, speed)
			after := next.Dist(b)
			if before <= speed {
				return next == b
			}
			return math.Abs(after-(before-speed)) < 1e-6
		},
		coord, coord, coord, coord, gen.Float64Range(1, 100),
	))
	properties.TestingRun(t)
}

package generator

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/model"
	"portsim.ai/internal/sim/rng"
)

func testCatalogs(nItems int) *catalogs.Catalogs {
	c := &catalogs.Catalogs{
		Companies: []string{"Maersk", "CMA CGM", "Evergreen"},
		Locations: []catalogs.Location{{Name: "Shanghai"}, {Name: "Rotterdam"}, {Name: "Santos"}},
	}
	for i := 0; i < nItems; i++ {
		c.Items = append(c.Items, model.Item{Kind: "K", Amount: 1, Description: fmt.Sprintf("item-%02d", i), Price: 10 * (i + 1)})
	}
	return c
}

func seq(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}

func TestItemsTax(t *testing.T) {
	assert.Equal(t, 1, ItemsTax(nil), "empty price sum still owes 1")
	assert.Equal(t, 1, ItemsTax([]model.Item{{Price: 3}}), "15% of 3 rounds down to 0 and is raised to 1")
	assert.Equal(t, 15, ItemsTax([]model.Item{{Price: 60}, {Price: 40}}))
	assert.Equal(t, 16, ItemsTax([]model.Item{{Price: 109}}))
}

func TestItemsTax_NeverBelowOne(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("tax >= 1 and equals floor(sum*0.15) when positive", prop.ForAll(
		func(prices []int) bool {
			items := make([]model.Item, len(prices))
			sum := 0
			for i, p := range prices {
				items[i] = model.Item{Price: p}
				sum += p
			}
			tax := ItemsTax(items)
			if tax < 1 {
				return false
			}
			if sum*15/100 > 0 {
				return tax == sum*15/100
			}
			return tax == 1
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
	))
	properties.TestingRun(t)
}

func TestGenerate_TrueDeclaration(t *testing.T) {
	// Item draws 0..9, source 1, destination 1 (may coincide), then two
	// non-zero 2-bit draws select "true items, true tax", then company 2.
	src := &rng.Scripted{
		IntSeq:  append(seq(0, 10), 1, 1, 2),
		BitsSeq: []uint64{1, 3},
	}
	g := New(testCatalogs(20), src)
	c, err := g.Generate()
	require.NoError(t, err)

	assert.Equal(t, "Container001", c.ID)
	assert.Equal(t, "Evergreen", c.Company)
	assert.Equal(t, "Rotterdam", c.Declaration.Source)
	assert.Equal(t, "Rotterdam", c.Declaration.Destination)
	assert.Len(t, c.Items, ItemsPerContainer)
	assert.True(t, c.ItemsMatch())
	assert.True(t, c.TaxMatches())
	assert.Equal(t, ItemsTax(c.Items), c.Tax)
	assert.Equal(t, model.Delivered, c.State())
}

func TestGenerate_WrongTax(t *testing.T) {
	src := &rng.Scripted{
		IntSeq:  append(seq(0, 10), 0, 2, 0),
		BitsSeq: []uint64{2, 0},
	}
	c, err := New(testCatalogs(20), src).Generate()
	require.NoError(t, err)
	assert.True(t, c.ItemsMatch())
	assert.Equal(t, FakeTax, c.Declaration.DeclaredTax)
	assert.False(t, c.TaxMatches())
	assert.Equal(t, "FAKED TAX", c.Faked())
}

func TestGenerate_SubstitutedItems(t *testing.T) {
	// Second draw repeats index 0 once, which must be skipped.
	declared := append([]int{10, 10}, seq(11, 9)...)
	ints := append(seq(0, 10), 0, 1)
	ints = append(ints, declared...)
	ints = append(ints, 1)
	src := &rng.Scripted{IntSeq: ints, BitsSeq: []uint64{0}}
	c, err := New(testCatalogs(20), src).Generate()
	require.NoError(t, err)
	assert.False(t, c.ItemsMatch())
	require.Len(t, c.Declaration.Items, ItemsPerContainer)
	assert.Equal(t, ItemsTax(c.Declaration.Items), c.Declaration.DeclaredTax)
	assert.Equal(t, "item-10", c.Declaration.Items[0].Description)
	assert.Equal(t, "FAKED", c.Faked())
}

func TestGenerate_SequentialIDsAndDistinctItems(t *testing.T) {
	g := New(testCatalogs(12), rng.NewSeeded(9))
	for i := 1; i <= 5; i++ {
		c, err := g.Generate()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Container%03d", i), c.ID)
		seen := map[model.Item]bool{}
		for _, it := range c.Items {
			assert.False(t, seen[it], "duplicate item %v", it)
			seen[it] = true
		}
	}
	assert.Equal(t, 5, g.Generated())
}

func TestGenerate_CatalogTooSmall(t *testing.T) {
	_, err := New(testCatalogs(9), rng.NewSeeded(1)).Generate()
	assert.ErrorIs(t, err, ErrCatalogTooSmall)
}

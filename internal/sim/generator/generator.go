// Package generator produces arriving containers together with declarations
// that are sometimes false.
package generator

import (
	"errors"
	"fmt"

	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/model"
	"portsim.ai/internal/sim/rng"
)

const (
	ItemsPerContainer = 10
	// TaxPercent of the summed item prices is owed per container.
	TaxPercent = 15
	// FakeTax is the declared tax used when a true manifest is paired with a
	// wrong tax.
	FakeTax = 3
)

var ErrCatalogTooSmall = errors.New("generator: catalog has fewer distinct items than a container holds")

type Generator struct {
	cats *catalogs.Catalogs
	src  rng.Source
	next int
}

func New(cats *catalogs.Catalogs, src rng.Source) *Generator {
	return &Generator{cats: cats, src: src}
}

// Generated reports how many containers have been produced.
func (g *Generator) Generated() int { return g.next }

// Generate builds the next container. Three quarters of declarations list the
// true items; a quarter of those carry a wrong tax.
func (g *Generator) Generate() (*model.Container, error) {
	actual, err := g.RandomItems(ItemsPerContainer)
	if err != nil {
		return nil, err
	}
	src := g.cats.Locations[g.src.IntN(len(g.cats.Locations))]
	dst := g.cats.Locations[g.src.IntN(len(g.cats.Locations))]

	declared, declaredTax, err := g.declaredItemsAndTax(actual)
	if err != nil {
		return nil, err
	}
	g.next++
	id := fmt.Sprintf("Container%03d", g.next)
	company := g.cats.Companies[g.src.IntN(len(g.cats.Companies))]

	return model.NewContainer(id, company, actual, ItemsTax(actual), model.Declaration{
		Items:       declared,
		Source:      src.Name,
		Destination: dst.Name,
		DeclaredTax: declaredTax,
	}), nil
}

func (g *Generator) declaredItemsAndTax(actual []model.Item) ([]model.Item, int, error) {
	if g.src.Bits(2) == 0 {
		other, err := g.RandomItems(len(actual))
		if err != nil {
			return nil, 0, err
		}
		return other, ItemsTax(other), nil
	}
	if g.src.Bits(2) == 0 {
		return actual, FakeTax, nil
	}
	return actual, ItemsTax(actual), nil
}

// RandomItems draws n distinct catalog entries (by position) in draw order.
func (g *Generator) RandomItems(n int) ([]model.Item, error) {
	all := g.cats.Items
	if n > len(all) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrCatalogTooSmall, n, len(all))
	}
	picked := make(map[int]bool, n)
	out := make([]model.Item, 0, n)
	for len(out) < n {
		i := g.src.IntN(len(all))
		if picked[i] {
			continue
		}
		picked[i] = true
		out = append(out, all[i])
	}
	return out, nil
}

// ItemsTax is TaxPercent of the summed prices, rounded down, and never less
// than 1.
func ItemsTax(items []model.Item) int {
	sum := 0
	for _, it := range items {
		sum += it.Price
	}
	if tax := sum * TaxPercent / 100; tax > 0 {
		return tax
	}
	return 1
}

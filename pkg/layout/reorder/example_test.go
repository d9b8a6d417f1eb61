package reorder_test

import (
	"fmt"

	"github.com/matzehuels/pagecraft/pkg/layout/reorder"
	"github.com/matzehuels/pagecraft/pkg/registry"
)

type block struct {
	name string
	pos  registry.Position
}

func (b block) Constraint() registry.Position { return b.pos }

func ExampleMove() {
	page := []block{
		{"header", registry.PositionTop},
		{"hero", registry.PositionFlexible},
		{"pricing", registry.PositionFlexible},
		{"footer", registry.PositionBottom},
	}

	// Move pricing above hero.
	page, ok := reorder.Move(page, 2, 1)
	fmt.Println(ok, page)

	// The header is pinned to the top.
	_, ok = reorder.Move(page, 0, 2)
	fmt.Println(ok)
	// Output:
	// true [{header top} {pricing flexible} {hero flexible} {footer bottom}]
	// false
}

func ExampleInsert() {
	page := []block{
		{"header", registry.PositionTop},
		{"footer", registry.PositionBottom},
	}
	// Index 0 is clamped into the flexible range.
	page = reorder.Insert(page, block{"hero", registry.PositionFlexible}, 0)
	fmt.Println(page)
	// Output:
	// [{header top} {hero flexible} {footer bottom}]
}

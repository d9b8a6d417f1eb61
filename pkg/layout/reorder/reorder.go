// Package reorder computes component orderings under section constraints.
//
// A page is split into three sections: top, flexible and bottom. Every item
// carries a fixed [registry.Position] and the functions in this package keep
// items grouped by section in that order. Only flexible items can be moved;
// top and bottom items keep their section and their relative order for life.
//
// All functions are pure: they never mutate the slice they are given and
// always return a freshly allocated ordering. Dense positions are assigned by
// [Normalize].
package reorder

import (
	"fmt"

	"github.com/matzehuels/pagecraft/pkg/registry"
)

// Item is anything with a section constraint.
type Item interface {
	Constraint() registry.Position
}

// Positioned is an Item whose dense position can be reassigned.
type Positioned interface {
	Item
	SetPosition(int)
}

// Sections splits items by constraint, preserving relative order within each
// section. Items out of section order are still collected into the right
// bucket, so Sections followed by Join repairs a mis-ordered slice.
func Sections[T Item](items []T) (top, flex, bottom []T) {
	for _, it := range items {
		switch it.Constraint() {
		case registry.PositionTop:
			top = append(top, it)
		case registry.PositionBottom:
			bottom = append(bottom, it)
		default:
			flex = append(flex, it)
		}
	}
	return top, flex, bottom
}

// Join concatenates the three sections into a new slice.
func Join[T any](top, flex, bottom []T) []T {
	out := make([]T, 0, len(top)+len(flex)+len(bottom))
	out = append(out, top...)
	out = append(out, flex...)
	return append(out, bottom...)
}

// Insert places it according to its constraint. Top items go after the last
// top item and bottom items before the first bottom item. Flexible items are
// inserted at the global index clamped into the flexible range; a negative
// index means the end of the flexible section.
func Insert[T Item](items []T, it T, index int) []T {
	top, flex, bottom := Sections(items)
	switch it.Constraint() {
	case registry.PositionTop:
		top = append(top, it)
	case registry.PositionBottom:
		bottom = append([]T{it}, bottom...)
	default:
		flex = insertAt(flex, it, localIndex(index, len(top), len(flex)))
	}
	return Join(top, flex, bottom)
}

// InsertAfter places it immediately after the item at index i when both
// share a section. Otherwise it falls back to Insert with its natural slot.
func InsertAfter[T Item](items []T, i int, it T) []T {
	if i < 0 || i >= len(items) || items[i].Constraint() != it.Constraint() {
		return Insert(items, it, -1)
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i+1]...)
	out = append(out, it)
	out = append(out, items[i+1:]...)
	top, flex, bottom := Sections(out)
	return Join(top, flex, bottom)
}

// Remove drops the item at index i. Out-of-range indexes return a copy.
func Remove[T any](items []T, i int) []T {
	out := make([]T, 0, len(items))
	for j, it := range items {
		if j != i {
			out = append(out, it)
		}
	}
	return out
}

// Move relocates the item at index from to the global position target. It
// reports false and returns items unchanged when from is out of range or the
// item is not flexible. The target is clamped into the flexible range
// computed without the moved item.
func Move[T Item](items []T, from, target int) ([]T, bool) {
	if from < 0 || from >= len(items) {
		return items, false
	}
	moved := items[from]
	if moved.Constraint() != registry.PositionFlexible {
		return items, false
	}
	top, flex, bottom := Sections(Remove(items, from))
	if target < 0 {
		target = 0
	}
	flex = insertAt(flex, moved, localIndex(target, len(top), len(flex)))
	return Join(top, flex, bottom), true
}

// FlexibleRange returns the inclusive global index range a flexible item can
// be inserted into.
func FlexibleRange[T Item](items []T) (lo, hi int) {
	top, flex, _ := Sections(items)
	return len(top), len(top) + len(flex)
}

// Normalize assigns dense positions 0..n-1 in slice order.
func Normalize[T Positioned](items []T) {
	for i, it := range items {
		it.SetPosition(i)
	}
}

// Validate reports the first item found out of section order.
func Validate[T Item](items []T) error {
	last := -1
	for i, it := range items {
		rank := it.Constraint().Rank()
		if rank < last {
			return fmt.Errorf("item %d (%s) follows a later section", i, it.Constraint())
		}
		last = rank
	}
	return nil
}

func localIndex(global, topLen, flexLen int) int {
	if global < 0 {
		return flexLen
	}
	return min(max(global-topLen, 0), flexLen)
}

func insertAt[T any](s []T, it T, i int) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, it)
	return append(out, s[i:]...)
}

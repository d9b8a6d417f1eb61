package merge_test

import (
	"fmt"

	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
	"github.com/matzehuels/pagecraft/pkg/value"
)

func ExampleMerge() {
	existing := value.Map{"title": value.String("Lancer plus vite")}
	incoming := value.Map{
		"title":    value.String("Launch Faster"),
		"subtitle": value.String("Ship today"),
	}

	r := merge.Merge(existing, incoming, merge.ModeSmart)
	title, _ := r.Merged["title"].AsString()
	fmt.Println("title:", title)
	fmt.Println("new:", r.New)
	fmt.Println("stale:", r.Stale)

	r = merge.Merge(existing, incoming, merge.ModeReplace)
	title, _ = r.Merged["title"].AsString()
	fmt.Println("replace:", title)
	// Output:
	// title: Lancer plus vite
	// new: [subtitle]
	// stale: [title]
	// replace: Launch Faster
}

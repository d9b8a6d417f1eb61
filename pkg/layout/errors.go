package layout

import (
	"fmt"

	"github.com/matzehuels/pagecraft/pkg/errors"
)

// ErrNoLayout is returned by mutations issued before Create or Open.
var ErrNoLayout = errors.New(errors.ErrCodeNoLayout, "no active layout")

// PositionError reports an instance whose position does not match its index.
type PositionError struct {
	ID       string
	Index    int
	Position int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("instance %s at index %d has position %d", e.ID, e.Index, e.Position)
}

// DuplicateIDError reports two instances sharing an id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate instance id %s", e.ID)
}

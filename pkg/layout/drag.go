package layout

// DragPhase is the phase of a drag interaction.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragDragging
	DragDropped
	DragCancelled
)

func (p DragPhase) String() string {
	switch p {
	case DragDragging:
		return "dragging"
	case DragDropped:
		return "dropped"
	case DragCancelled:
		return "cancelled"
	}
	return "idle"
}

// Drag is the transient state of a drag interaction. ID is only set while
// dragging.
type Drag struct {
	Phase DragPhase
	ID    string
}

// Drag returns the current drag state.
func (s *Store) Drag() Drag { return s.drag }

// BeginDrag starts dragging the instance with id. Unknown ids leave the
// drag state unchanged.
func (s *Store) BeginDrag(id string) error {
	if s.page == nil {
		return ErrNoLayout
	}
	if _, ok := s.page.Find(id); !ok {
		return nil
	}
	s.drag = Drag{Phase: DragDragging, ID: id}
	s.Logger.Debug("drag started", "id", id)
	return nil
}

// DropOn ends the drag by moving the dragged instance to target. It reports
// whether the page changed. Dropping outside a drag does nothing.
func (s *Store) DropOn(target int) (bool, error) {
	if s.page == nil {
		return false, ErrNoLayout
	}
	if s.drag.Phase != DragDragging {
		return false, nil
	}
	id := s.drag.ID
	s.drag = Drag{Phase: DragDropped}
	return s.Move(id, target)
}

// CancelDrag abandons the drag without touching the page.
func (s *Store) CancelDrag() {
	if s.drag.Phase != DragDragging {
		return
	}
	s.Logger.Debug("drag cancelled", "id", s.drag.ID)
	s.drag = Drag{Phase: DragCancelled}
}

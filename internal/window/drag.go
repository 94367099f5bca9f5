package window

// DragPhase is the state of a drag session.
type DragPhase int

const (
	DragIdle DragPhase = iota
	DragArmed
	DragDragging
)

// String returns a string representation of the phase.
func (p DragPhase) String() string {
	switch p {
	case DragIdle:
		return "idle"
	case DragArmed:
		return "armed"
	case DragDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DragSession tracks one press-move-release cycle on a drag region.
//
// Moves are incremental: each move applies the delta from the previous
// pointer position to the surface's current offset, so the surface tracks
// the pointer even if something else repositions it mid-drag. There is no
// clamping; a window may be dragged off screen.
type DragSession struct {
	phase DragPhase
	lastX int
	lastY int
}

// Press arms the session at the pointer position.
func (d *DragSession) Press(x, y int) {
	d.phase = DragArmed
	d.lastX = x
	d.lastY = y
}

// Move returns g shifted by the pointer delta since the last recorded
// position. An idle session returns g unchanged.
func (d *DragSession) Move(x, y int, g Geometry) Geometry {
	if d.phase == DragIdle {
		return g
	}
	d.phase = DragDragging
	g.X += x - d.lastX
	g.Y += y - d.lastY
	d.lastX = x
	d.lastY = y
	return g
}

// Release returns the session to idle.
func (d *DragSession) Release() {
	d.phase = DragIdle
}

// Phase returns the current phase.
func (d *DragSession) Phase() DragPhase {
	return d.phase
}

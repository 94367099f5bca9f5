package window

// SizeBounds are the inclusive limits a resize clamps width and height to.
type SizeBounds struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// DefaultSizeBounds returns 200..800 x 150..600.
func DefaultSizeBounds() SizeBounds {
	return SizeBounds{MinWidth: 200, MinHeight: 150, MaxWidth: 800, MaxHeight: 600}
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

// ResizeSession tracks one press-move-release cycle on a resize handle.
//
// Unlike dragging, every move is computed from the press-time pointer
// position and surface size, so the result only depends on the total
// displacement.
type ResizeSession struct {
	handle Part
	startX int
	startY int
	startW int
	startH int
	bounds SizeBounds
	active bool
}

// BeginResize starts a session for handle at the pointer position with the
// surface's current size.
func BeginResize(handle Part, x, y int, g Geometry, bounds SizeBounds) *ResizeSession {
	return &ResizeSession{
		handle: handle,
		startX: x,
		startY: y,
		startW: g.Width,
		startH: g.Height,
		bounds: bounds,
		active: true,
	}
}

// Move returns g resized for a pointer at (x, y). The right handle changes
// width only, the bottom handle height only, the corner both. Position is
// never changed.
func (r *ResizeSession) Move(x, y int, g Geometry) Geometry {
	if !r.active {
		return g
	}
	dx := x - r.startX
	dy := y - r.startY

	g.Width = r.startW
	g.Height = r.startH
	if r.handle == PartHandleRight || r.handle == PartHandleCorner {
		g.Width = clamp(r.startW+dx, r.bounds.MinWidth, r.bounds.MaxWidth)
	}
	if r.handle == PartHandleBottom || r.handle == PartHandleCorner {
		g.Height = clamp(r.startH+dy, r.bounds.MinHeight, r.bounds.MaxHeight)
	}
	return g
}

// End deactivates the session.
func (r *ResizeSession) End() {
	r.active = false
}

// Active reports whether the session is still tracking moves.
func (r *ResizeSession) Active() bool {
	return r.active
}

// Handle returns the handle the session was started on.
func (r *ResizeSession) Handle() Part {
	return r.handle
}

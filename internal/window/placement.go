package window

// Placement decides where a newly opened window appears.
type Placement struct {
	Default   Geometry
	Overrides map[string]Geometry
}

// DefaultPlacement returns a 300x200 window at (480, 280).
func DefaultPlacement() Placement {
	return Placement{Default: Geometry{X: 480, Y: 280, Width: 300, Height: 200}}
}

// For returns the initial geometry for a window id.
func (p Placement) For(id string) Geometry {
	if g, ok := p.Overrides[id]; ok {
		return g
	}
	return p.Default
}

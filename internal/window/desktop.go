package window

// Root is the desktop container surfaces are attached to.
type Root interface {
	Attach(s *Surface)
	Detach(s *Surface)
}

// Desktop is an in-memory Root that keeps surfaces in attach order.
type Desktop struct {
	surfaces []*Surface
}

// NewDesktop creates an empty desktop root.
func NewDesktop() *Desktop {
	return &Desktop{}
}

// Attach appends s.
func (d *Desktop) Attach(s *Surface) {
	d.surfaces = append(d.surfaces, s)
}

// Detach removes s, if attached.
func (d *Desktop) Detach(s *Surface) {
	for i, cur := range d.surfaces {
		if cur == s {
			d.surfaces = append(d.surfaces[:i], d.surfaces[i+1:]...)
			return
		}
	}
}

// Surfaces returns the attached surfaces in attach order.
func (d *Desktop) Surfaces() []*Surface {
	return d.surfaces
}

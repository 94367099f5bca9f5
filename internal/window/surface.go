package window

// Part names a region of a surface that can receive a pointer press.
type Part string

const (
	PartBody         Part = "body"
	PartHeader       Part = "header"
	PartHandleBottom Part = "handle-bottom"
	PartHandleRight  Part = "handle-right"
	PartHandleCorner Part = "handle-bottom-right"
)

// resizeHandles are installed on every surface, in template order.
var resizeHandles = []Part{PartHandleBottom, PartHandleRight, PartHandleCorner}

// PointerEvent is a pointer press, move or release in desktop coordinates.
// WindowID and Part identify the press target and are ignored for moves
// and releases, which are delivered document-wide.
type PointerEvent struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	WindowID string `json:"window,omitempty"`
	Part     Part   `json:"part,omitempty"`
}

type pointerHandler func(PointerEvent)

// Surface is the visual element owned by a window: where it is, how big,
// how it stacks, and whether it is shown.
type Surface struct {
	WindowID string
	Geometry Geometry
	Z        int
	Visible  bool
	Header   bool

	capture []pointerHandler
	parts   map[Part]pointerHandler
}

func newSurface(id string, g Geometry, header bool) *Surface {
	return &Surface{
		WindowID: id,
		Geometry: g,
		Visible:  true,
		Header:   header,
		parts:    make(map[Part]pointerHandler),
	}
}

// onPointerDown registers a handler that runs for a press anywhere on the
// surface, before any region handler.
func (s *Surface) onPointerDown(h pointerHandler) {
	s.capture = append(s.capture, h)
}

// onPartDown registers the press handler of one region.
func (s *Surface) onPartDown(p Part, h pointerHandler) {
	s.parts[p] = h
}

// Handles returns the resize handles present on the surface.
func (s *Surface) Handles() []Part {
	out := make([]Part, 0, len(resizeHandles))
	for _, p := range resizeHandles {
		if _, ok := s.parts[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// dispatchDown delivers a press: capture handlers first, then the handler
// of the pressed region. A region without its own handler falls through to
// the body handler, which only exists on surfaces without a header.
func (s *Surface) dispatchDown(ev PointerEvent) {
	for _, h := range s.capture {
		h(ev)
	}
	part := ev.Part
	if part == "" {
		part = PartBody
	}
	if h, ok := s.parts[part]; ok {
		h(ev)
		return
	}
	if h, ok := s.parts[PartBody]; ok {
		h(ev)
	}
}

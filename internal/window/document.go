package window

// Document holds the page-wide move/release listeners that drag and resize
// sessions install for the duration of one press.
type Document struct {
	next      int
	listeners []docListener
}

type docListener struct {
	id    int
	owner string
	move  pointerHandler
	up    pointerHandler
}

func newDocument() *Document {
	return &Document{}
}

// listen installs a move/up pair for owner and returns its release func.
// Release is idempotent.
func (d *Document) listen(owner string, move, up pointerHandler) func() {
	d.next++
	id := d.next
	d.listeners = append(d.listeners, docListener{id: id, owner: owner, move: move, up: up})
	return func() { d.remove(func(l docListener) bool { return l.id == id }) }
}

func (d *Document) remove(match func(docListener) bool) {
	kept := d.listeners[:0]
	for _, l := range d.listeners {
		if !match(l) {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(d.listeners); i++ {
		d.listeners[i] = docListener{}
	}
	d.listeners = kept
}

// releaseOwner drops every listener installed for a window.
func (d *Document) releaseOwner(owner string) {
	d.remove(func(l docListener) bool { return l.owner == owner })
}

// reset drops every listener. Used when a press arrives while a previous
// session never saw its release.
func (d *Document) reset() {
	d.remove(func(docListener) bool { return true })
}

// Len returns the number of installed listener pairs.
func (d *Document) Len() int {
	return len(d.listeners)
}

func (d *Document) dispatchMove(ev PointerEvent) {
	for _, l := range append([]docListener(nil), d.listeners...) {
		l.move(ev)
	}
}

func (d *Document) dispatchUp(ev PointerEvent) {
	for _, l := range append([]docListener(nil), d.listeners...) {
		l.up(ev)
	}
}

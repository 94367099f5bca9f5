package window

import (
	"sort"
	"sync"

	"github.com/giraffenet/webdesk/internal/logger"
)

// EventType identifies what changed in an Event.
type EventType string

const (
	EventOpened    EventType = "opened"
	EventClosed    EventType = "closed"
	EventFocused   EventType = "focused"
	EventMinimized EventType = "minimized"
	EventMoved     EventType = "moved"
	EventResized   EventType = "resized"
	EventContent   EventType = "content"
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Type     EventType `json:"type"`
	WindowID string    `json:"window"`
}

// Options configures a Manager.
type Options struct {
	Placement Placement
	Bounds    SizeBounds
	BaseZ     int
}

// DefaultOptions returns the stock placement, 200..800 x 150..600 resize
// bounds and a base z of 10.
func DefaultOptions() Options {
	return Options{
		Placement: DefaultPlacement(),
		Bounds:    DefaultSizeBounds(),
		BaseZ:     10,
	}
}

// OpenOptions are the optional arguments of Open.
type OpenOptions struct {
	Icon string
	// OnOpen runs once the new window is attached and visible. It is not
	// called when Open only refocuses an existing window.
	OnOpen func(id string)
	// Frameless windows have no header; the whole surface is the drag region.
	Frameless bool
}

// Manager owns the window registry, stacking, taskbar and pointer sessions.
// It is safe for concurrent use; every operation runs under one lock, so
// operations never interleave.
type Manager struct {
	mu       sync.Mutex
	root     Root
	taskbar  Taskbar
	doc      *Document
	opts     Options
	records  map[string]*Record
	topZ     int
	active   string
	degraded bool
	pending  []Event

	listenersMu sync.RWMutex
	listeners   []chan Event
}

// NewManager creates a window manager rendering into root and taskbar.
// A nil root or taskbar is reported once and leaves the manager degraded:
// it keeps its registry but has nothing to show windows or tabs in.
func NewManager(root Root, taskbar Taskbar, opts Options) *Manager {
	m := &Manager{
		root:    root,
		taskbar: taskbar,
		doc:     newDocument(),
		opts:    opts,
		records: make(map[string]*Record),
		topZ:    opts.BaseZ,
	}

	log := logger.WithComponent("window")
	if root == nil {
		log.Error().Msg("Desktop root not found; windows will not be displayed")
		m.degraded = true
	}
	if taskbar == nil {
		log.Error().Msg("Taskbar container not found; tabs will not be displayed")
		m.degraded = true
	}
	return m
}

// run executes fn under the lock and then notifies subscribers of the
// events it queued.
func (m *Manager) run(fn func()) {
	m.mu.Lock()
	fn()
	events := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, ev := range events {
		m.notifyListeners(ev)
	}
}

func (m *Manager) emit(t EventType, id string) {
	m.pending = append(m.pending, Event{Type: t, WindowID: id})
}

// Open shows a window for id. If id is already open it is brought to the
// front instead and nothing else happens.
func (m *Manager) Open(id, title string, content Content, opts OpenOptions) {
	created := false
	m.run(func() {
		if r, ok := m.records[id]; ok {
			m.bringToFront(r)
			return
		}
		m.open(id, title, content, opts)
		created = true
	})

	if created {
		logger.WithWindow("window", id).Debug().Str("title", title).Msg("Window opened")
		if opts.OnOpen != nil {
			opts.OnOpen(id)
		}
	}
}

func (m *Manager) open(id, title string, content Content, opts OpenOptions) {
	m.topZ++
	s := newSurface(id, m.opts.Placement.For(id), !opts.Frameless)
	s.Z = m.topZ

	r := &Record{
		ID:      id,
		Title:   title,
		Icon:    opts.Icon,
		State:   StateNormal,
		Z:       s.Z,
		Surface: s,
		Content: content,
	}

	s.onPointerDown(func(PointerEvent) { m.bringSurfaceToFront(s) })
	m.installDrag(s)
	m.installResize(s)

	if m.root != nil {
		m.root.Attach(s)
	}
	m.records[id] = r
	m.createTab(r)
	m.setActive(id)
	m.emit(EventOpened, id)
}

// Close removes a window, cancels its extension and its tab, and activates
// the next window. Unknown ids are ignored.
func (m *Manager) Close(id string) {
	m.run(func() { m.close(id) })
}

func (m *Manager) close(id string) {
	r, ok := m.records[id]
	if !ok {
		return
	}

	if r.ext != nil {
		ext := r.ext
		r.ext = nil
		ext.Cancel()
	}

	m.doc.releaseOwner(id)
	if m.root != nil {
		m.root.Detach(r.Surface)
	}
	delete(m.records, id)
	m.removeTab(id)
	if m.active == id {
		m.active = ""
	}
	m.activateNextTop(id)
	m.emit(EventClosed, id)
	logger.WithWindow("window", id).Debug().Msg("Window closed")
}

// BringToFront shows, restores and raises the window with the given id.
func (m *Manager) BringToFront(id string) {
	m.run(func() {
		if r, ok := m.records[id]; ok {
			m.bringToFront(r)
		}
	})
}

// BringSurfaceToFront is BringToFront addressed by surface.
func (m *Manager) BringSurfaceToFront(s *Surface) {
	m.run(func() { m.bringSurfaceToFront(s) })
}

func (m *Manager) bringSurfaceToFront(s *Surface) {
	if s == nil {
		return
	}
	if r, ok := m.records[s.WindowID]; ok && r.Surface == s {
		m.bringToFront(r)
	}
}

func (m *Manager) bringToFront(r *Record) {
	r.Surface.Visible = true
	r.State = StateNormal

	if r.Z == m.topZ {
		m.setActive(r.ID)
		m.emit(EventFocused, r.ID)
		return
	}

	m.topZ++
	r.Z = m.topZ
	r.Surface.Z = m.topZ
	m.setActive(r.ID)
	m.emit(EventFocused, r.ID)
}

// Minimize hides a window and activates the next one. Unknown or already
// minimized windows are ignored.
func (m *Manager) Minimize(id string) {
	m.run(func() { m.minimize(id) })
}

func (m *Manager) minimize(id string) {
	r, ok := m.records[id]
	if !ok || r.State == StateMinimized {
		return
	}

	r.Surface.Visible = false
	r.State = StateMinimized
	m.doc.releaseOwner(id)

	m.setActive("")
	m.activateNextTop(id)
	m.emit(EventMinimized, id)
}

// HandleTabClick implements the taskbar tab behavior: restore a minimized
// window, minimize the topmost window, or raise a background window.
func (m *Manager) HandleTabClick(id string) {
	m.run(func() {
		r, ok := m.records[id]
		if !ok {
			return
		}
		switch {
		case r.State == StateMinimized:
			m.bringToFront(r)
		case r.Z == m.topZ:
			m.minimize(id)
		default:
			m.bringToFront(r)
		}
	})
}

// Attach stores ext in the window's side slot so Close cancels it. An
// extension already in the slot is cancelled and replaced. It returns
// false, without taking ownership of ext, when the window is not open.
func (m *Manager) Attach(id string, ext Extension) bool {
	attached := false
	m.run(func() {
		r, ok := m.records[id]
		if !ok {
			return
		}
		if r.ext != nil {
			r.ext.Cancel()
		}
		r.ext = ext
		attached = true
	})
	return attached
}

// Touch announces that a window's content changed. Unknown ids are ignored.
func (m *Manager) Touch(id string) {
	m.run(func() {
		if _, ok := m.records[id]; ok {
			m.emit(EventContent, id)
		}
	})
}

// Exists reports whether a window is open.
func (m *Manager) Exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok
}

// PointerDown delivers a press to the target window's surface. A press
// also ends any session whose release was never delivered.
func (m *Manager) PointerDown(ev PointerEvent) {
	m.run(func() {
		m.doc.reset()
		r, ok := m.records[ev.WindowID]
		if !ok || !r.Surface.Visible {
			return
		}
		r.Surface.dispatchDown(ev)
	})
}

// PointerMove delivers a move to the active drag or resize session.
func (m *Manager) PointerMove(ev PointerEvent) {
	m.run(func() { m.doc.dispatchMove(ev) })
}

// PointerUp ends the active drag or resize session.
func (m *Manager) PointerUp(ev PointerEvent) {
	m.run(func() { m.doc.dispatchUp(ev) })
}

// Sessions returns the number of installed pointer sessions.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Len()
}

func (m *Manager) installDrag(s *Surface) {
	start := func(ev PointerEvent) {
		sess := &DragSession{}
		sess.Press(ev.X, ev.Y)

		var release func()
		release = m.doc.listen(s.WindowID,
			func(mv PointerEvent) {
				s.Geometry = sess.Move(mv.X, mv.Y, s.Geometry)
				m.emit(EventMoved, s.WindowID)
			},
			func(PointerEvent) {
				sess.Release()
				release()
			},
		)
	}

	if s.Header {
		s.onPartDown(PartHeader, start)
		return
	}
	s.onPartDown(PartBody, start)
}

func (m *Manager) installResize(s *Surface) {
	for _, handle := range resizeHandles {
		handle := handle
		s.onPartDown(handle, func(ev PointerEvent) {
			sess := BeginResize(handle, ev.X, ev.Y, s.Geometry, m.opts.Bounds)

			var release func()
			release = m.doc.listen(s.WindowID,
				func(mv PointerEvent) {
					s.Geometry = sess.Move(mv.X, mv.Y, s.Geometry)
					m.emit(EventResized, s.WindowID)
				},
				func(PointerEvent) {
					sess.End()
					release()
					logger.WithWindow("window", s.WindowID).Debug().
						Str("handle", string(sess.Handle())).
						Interface("geometry", s.Geometry).
						Msg("Resize ended")
				},
			)
		})
	}
}

// Window returns a snapshot of one window.
func (m *Manager) Window(id string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return Snapshot{}, false
	}
	return m.snapshot(r), true
}

// Windows returns snapshots of all windows, bottom of the stack first.
func (m *Manager) Windows() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windowsLocked()
}

func (m *Manager) windowsLocked() []Snapshot {
	out := make([]Snapshot, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, m.snapshot(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}

func (m *Manager) snapshot(r *Record) Snapshot {
	return Snapshot{
		ID:        r.ID,
		Title:     r.Title,
		Icon:      r.Icon,
		State:     r.State,
		Z:         r.Z,
		Geometry:  r.Surface.Geometry,
		Visible:   r.Surface.Visible,
		Active:    m.active == r.ID,
		Frameless: !r.Surface.Header,
		HTML:      renderSurface(r),
	}
}

// Tabs returns copies of the taskbar tabs in order.
func (m *Manager) Tabs() []Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabsLocked()
}

func (m *Manager) tabsLocked() []Tab {
	if m.taskbar == nil {
		return nil
	}
	tabs := m.taskbar.Tabs()
	out := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, *t)
	}
	return out
}

// Active returns the id of the highlighted window, or "" if none.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// TopZ returns the current value of the stacking counter.
func (m *Manager) TopZ() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topZ
}

// Degraded reports whether the manager was built without a root or taskbar.
func (m *Manager) Degraded() bool {
	return m.degraded
}

// DesktopState is a consistent view of the whole desktop.
type DesktopState struct {
	Windows  []Snapshot `json:"windows"`
	Tabs     []Tab      `json:"tabs"`
	Active   string     `json:"active"`
	TopZ     int        `json:"top_z"`
	Degraded bool       `json:"degraded"`
}

// State returns windows, tabs and the active marker taken under one lock.
func (m *Manager) State() DesktopState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DesktopState{
		Windows:  m.windowsLocked(),
		Tabs:     m.tabsLocked(),
		Active:   m.active,
		TopZ:     m.topZ,
		Degraded: m.degraded,
	}
}

// Subscribe adds a listener for window changes
func (m *Manager) Subscribe() chan Event {
	ch := make(chan Event, 32)
	m.listenersMu.Lock()
	m.listeners = append(m.listeners, ch)
	m.listenersMu.Unlock()
	return ch
}

// Unsubscribe removes a listener
func (m *Manager) Unsubscribe(ch chan Event) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	for i, listener := range m.listeners {
		if listener == ch {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			close(ch)
			break
		}
	}
}

// notifyListeners notifies all listeners of window changes
func (m *Manager) notifyListeners(ev Event) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()

	for _, listener := range m.listeners {
		select {
		case listener <- ev:
		default:
			// Skip if channel is full
		}
	}
}

package window

// Tab is a taskbar entry. It mirrors one open window.
type Tab struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}

// Taskbar is the container tabs are appended to.
type Taskbar interface {
	AppendTab(t *Tab)
	RemoveTab(id string)
	Tabs() []*Tab
}

// TabStrip is an in-memory Taskbar that keeps tabs in append order.
type TabStrip struct {
	tabs []*Tab
}

// NewTabStrip creates an empty tab strip.
func NewTabStrip() *TabStrip {
	return &TabStrip{}
}

// AppendTab adds t at the end.
func (s *TabStrip) AppendTab(t *Tab) {
	s.tabs = append(s.tabs, t)
}

// RemoveTab removes the tab with the given id, if present.
func (s *TabStrip) RemoveTab(id string) {
	for i, t := range s.tabs {
		if t.ID == id {
			s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
			return
		}
	}
}

// Tabs returns the tabs in order.
func (s *TabStrip) Tabs() []*Tab {
	return s.tabs
}

func (m *Manager) createTab(r *Record) {
	if m.taskbar == nil {
		return
	}
	m.taskbar.AppendTab(&Tab{ID: r.ID, Label: r.Title, Icon: r.Icon})
}

func (m *Manager) removeTab(id string) {
	if m.taskbar == nil {
		return
	}
	m.taskbar.RemoveTab(id)
}

// setActive highlights the tab of id and clears every other tab. An empty
// id leaves no tab active.
func (m *Manager) setActive(id string) {
	m.active = id
	if m.taskbar == nil {
		return
	}
	for _, t := range m.taskbar.Tabs() {
		t.Active = id != "" && t.ID == id
	}
}

// activateNextTop activates the non-minimized window with the greatest z,
// skipping excluded. If there is none, the active marker is left as is.
func (m *Manager) activateNextTop(excluded string) {
	var next *Record
	for id, r := range m.records {
		if id == excluded || r.State == StateMinimized {
			continue
		}
		if next == nil || r.Z > next.Z {
			next = r
		}
	}
	if next != nil {
		m.setActive(next.ID)
	}
}

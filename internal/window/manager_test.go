package window

import (
	"strings"
	"testing"
)

func newTestManager() (*Manager, *Desktop, *TabStrip) {
	root := NewDesktop()
	tabs := NewTabStrip()
	return NewManager(root, tabs, DefaultOptions()), root, tabs
}

func open(m *Manager, id string) {
	m.Open(id, strings.ToUpper(id), StaticContent("<p>"+id+"</p>"), OpenOptions{})
}

func zOf(t *testing.T, m *Manager, id string) int {
	t.Helper()
	snap, ok := m.Window(id)
	if !ok {
		t.Fatalf("window %q not open", id)
	}
	return snap.Z
}

func activeTabs(tabs *TabStrip) []string {
	var ids []string
	for _, tab := range tabs.Tabs() {
		if tab.Active {
			ids = append(ids, tab.ID)
		}
	}
	return ids
}

func TestOpenCreatesRecordSurfaceAndTab(t *testing.T) {
	m, root, tabs := newTestManager()
	open(m, "a")

	if len(root.Surfaces()) != 1 {
		t.Fatalf("expected 1 attached surface, got %d", len(root.Surfaces()))
	}
	if len(tabs.Tabs()) != 1 || tabs.Tabs()[0].ID != "a" {
		t.Fatalf("expected one tab for a, got %+v", tabs.Tabs())
	}
	if m.Active() != "a" {
		t.Errorf("expected a active, got %q", m.Active())
	}
	snap, _ := m.Window("a")
	if snap.Z != 11 {
		t.Errorf("expected z 11 (base 10 pre-incremented), got %d", snap.Z)
	}
	if snap.State != StateNormal || !snap.Visible {
		t.Errorf("expected normal visible window, got %+v", snap)
	}
	if snap.Geometry != DefaultPlacement().Default {
		t.Errorf("expected default placement, got %+v", snap.Geometry)
	}
}

func TestOpenTwiceBringsExistingToFront(t *testing.T) {
	m, root, tabs := newTestManager()
	open(m, "a")
	open(m, "b")

	hookCalls := 0
	m.Open("a", "A again", StaticContent("x"), OpenOptions{OnOpen: func(string) { hookCalls++ }})

	if len(m.Windows()) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(m.Windows()))
	}
	if len(tabs.Tabs()) != 2 || len(root.Surfaces()) != 2 {
		t.Fatalf("expected no duplicate tab or surface, got %d tabs %d surfaces", len(tabs.Tabs()), len(root.Surfaces()))
	}
	if hookCalls != 0 {
		t.Errorf("open hook must not run for an existing window")
	}
	if m.Active() != "a" || zOf(t, m, "a") <= zOf(t, m, "b") {
		t.Errorf("expected a raised above b and active")
	}
	snap, _ := m.Window("a")
	if snap.Title != "A" {
		t.Errorf("title must not change, got %q", snap.Title)
	}
}

func TestOpenHookRunsAfterAttach(t *testing.T) {
	m, root, _ := newTestManager()

	var sawAttached, sawExists bool
	m.Open("mon", "Monitor", StaticContent(""), OpenOptions{OnOpen: func(id string) {
		sawAttached = len(root.Surfaces()) == 1
		sawExists = m.Exists(id)
	}})

	if !sawAttached || !sawExists {
		t.Errorf("hook ran before the window was attached (attached=%v exists=%v)", sawAttached, sawExists)
	}
}

func TestPlacementOverride(t *testing.T) {
	opts := DefaultOptions()
	big := Geometry{X: 10, Y: 20, Width: 640, Height: 460}
	opts.Placement.Overrides = map[string]Geometry{"system-monitor": big}
	m := NewManager(NewDesktop(), NewTabStrip(), opts)

	m.Open("system-monitor", "Monitor", StaticContent(""), OpenOptions{})
	snap, _ := m.Window("system-monitor")
	if snap.Geometry != big {
		t.Errorf("expected override %+v, got %+v", big, snap.Geometry)
	}
}

func TestZOrderMonotonicAcrossClose(t *testing.T) {
	m, _, _ := newTestManager()
	seen := 0

	check := func(id string) {
		z := zOf(t, m, id)
		if z <= seen {
			t.Fatalf("z for %s = %d, want > %d", id, z, seen)
		}
		seen = z
	}

	open(m, "a")
	check("a")
	open(m, "b")
	check("b")
	m.Close("b")
	open(m, "c")
	check("c")
	m.BringToFront("a")
	check("a")
	open(m, "b")
	check("b")
}

func TestBringToFrontIdempotentOnTopmost(t *testing.T) {
	m, _, tabs := newTestManager()
	open(m, "a")
	open(m, "b")

	m.BringToFront("a")
	z := zOf(t, m, "a")
	top := m.TopZ()

	// Clear the highlight to observe that the fast path still refreshes it.
	tabs.Tabs()[0].Active = false
	m.BringToFront("a")

	if zOf(t, m, "a") != z || m.TopZ() != top {
		t.Errorf("second BringToFront changed z: %d -> %d (top %d -> %d)", z, zOf(t, m, "a"), top, m.TopZ())
	}
	if got := activeTabs(tabs); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected a tab re-activated, got %v", got)
	}
}

func TestBringSurfaceToFront(t *testing.T) {
	m, root, _ := newTestManager()
	open(m, "a")
	open(m, "b")

	m.BringSurfaceToFront(root.Surfaces()[0])
	if m.Active() != "a" {
		t.Errorf("expected a active, got %q", m.Active())
	}

	m.BringSurfaceToFront(nil)
	m.BringSurfaceToFront(&Surface{WindowID: "a"})
	if m.Active() != "a" || zOf(t, m, "a") != m.TopZ() {
		t.Errorf("foreign surface must be ignored")
	}
}

func TestMinimizeRestoreRoundTrip(t *testing.T) {
	m, _, tabs := newTestManager()
	open(m, "a")
	open(m, "b")

	m.Minimize("b")
	a, _ := m.Window("a")
	b, _ := m.Window("b")
	if m.Active() != "a" {
		t.Fatalf("expected a active after minimizing b, got %q", m.Active())
	}
	if !a.Visible || a.State != StateNormal {
		t.Errorf("a must be unaffected, got %+v", a)
	}
	if b.Visible || b.State != StateMinimized || b.Active {
		t.Errorf("b must be hidden and inactive, got %+v", b)
	}

	m.BringToFront("b")
	b, _ = m.Window("b")
	if !b.Visible || b.State != StateNormal || m.Active() != "b" {
		t.Errorf("b must be restored and active, got %+v active=%q", b, m.Active())
	}
	if b.Z <= a.Z {
		t.Errorf("restored b z %d must exceed a z %d", b.Z, a.Z)
	}
	if got := activeTabs(tabs); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected only b tab active, got %v", got)
	}
}

func TestMinimizeNoops(t *testing.T) {
	m, _, _ := newTestManager()
	m.Minimize("missing")

	open(m, "a")
	m.Minimize("a")
	top := m.TopZ()
	m.Minimize("a")
	if m.TopZ() != top || m.Active() != "" {
		t.Errorf("minimizing twice must be a no-op")
	}
}

func TestCloseReassignsFocus(t *testing.T) {
	tests := []struct {
		name      string
		minimized []string
		want      string
	}{
		{name: "next highest", want: "b"},
		{name: "skips minimized", minimized: []string{"b"}, want: "a"},
		{name: "all minimized", minimized: []string{"a", "b"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, tabs := newTestManager()
			open(m, "a")
			open(m, "b")
			open(m, "c")
			for _, id := range tt.minimized {
				m.Minimize(id)
			}
			m.BringToFront("c")

			m.Close("c")
			if m.Active() != tt.want {
				t.Errorf("active = %q, want %q", m.Active(), tt.want)
			}
			got := activeTabs(tabs)
			if tt.want == "" && len(got) != 0 {
				t.Errorf("expected no active tab, got %v", got)
			}
			if tt.want != "" && (len(got) != 1 || got[0] != tt.want) {
				t.Errorf("expected only %s tab active, got %v", tt.want, got)
			}
		})
	}
}

func TestCloseRemovesEverything(t *testing.T) {
	m, root, tabs := newTestManager()
	open(m, "a")

	m.Close("a")
	m.Close("a")
	m.Close("never-opened")

	if m.Exists("a") || len(root.Surfaces()) != 0 || len(tabs.Tabs()) != 0 {
		t.Errorf("expected empty desktop after close")
	}
	if m.Active() != "" {
		t.Errorf("expected no active window, got %q", m.Active())
	}
}

func TestCloseCancelsExtensionOnce(t *testing.T) {
	m, _, _ := newTestManager()
	open(m, "mon")

	cancels := 0
	if !m.Attach("mon", ExtensionFunc(func() { cancels++ })) {
		t.Fatal("Attach on an open window must succeed")
	}
	m.Close("mon")
	m.Close("mon")

	if cancels != 1 {
		t.Errorf("expected exactly one cancel, got %d", cancels)
	}
}

func TestAttachUnknownWindow(t *testing.T) {
	m, _, _ := newTestManager()
	cancelled := false
	if m.Attach("ghost", ExtensionFunc(func() { cancelled = true })) {
		t.Error("Attach on a missing window must fail")
	}
	if cancelled {
		t.Error("a rejected extension must not be cancelled by the manager")
	}
}

func TestAttachReplacesPrevious(t *testing.T) {
	m, _, _ := newTestManager()
	open(m, "mon")

	first, second := 0, 0
	m.Attach("mon", ExtensionFunc(func() { first++ }))
	m.Attach("mon", ExtensionFunc(func() { second++ }))
	m.Close("mon")

	if first != 1 || second != 1 {
		t.Errorf("expected both extensions cancelled once, got %d and %d", first, second)
	}
}

func TestHandleTabClick(t *testing.T) {
	m, _, _ := newTestManager()
	open(m, "a")
	open(m, "b")

	// b is topmost: click minimizes it.
	m.HandleTabClick("b")
	if snap, _ := m.Window("b"); snap.State != StateMinimized {
		t.Fatalf("expected b minimized, got %s", snap.State)
	}
	if m.Active() != "a" {
		t.Errorf("expected a active, got %q", m.Active())
	}

	// Clicking again restores and refocuses it.
	m.HandleTabClick("b")
	if snap, _ := m.Window("b"); snap.State != StateNormal || m.Active() != "b" {
		t.Fatalf("expected b restored and active, got %s active=%q", snap.State, m.Active())
	}

	// a is a normal background window: click raises it without minimizing.
	m.HandleTabClick("a")
	a, _ := m.Window("a")
	b, _ := m.Window("b")
	if a.State != StateNormal || b.State != StateNormal {
		t.Errorf("no window may be minimized, got a=%s b=%s", a.State, b.State)
	}
	if m.Active() != "a" || a.Z <= b.Z {
		t.Errorf("expected a on top and active")
	}

	m.HandleTabClick("missing")
}

func TestAtMostOneActiveTab(t *testing.T) {
	m, _, tabs := newTestManager()
	for _, id := range []string{"a", "b", "c", "d"} {
		open(m, id)
	}
	ops := []func(){
		func() { m.Minimize("d") },
		func() { m.HandleTabClick("a") },
		func() { m.Close("c") },
		func() { m.HandleTabClick("a") },
		func() { m.BringToFront("d") },
		func() { m.Minimize("b") },
	}
	for i, op := range ops {
		op()
		got := activeTabs(tabs)
		if len(got) > 1 {
			t.Fatalf("step %d: %d active tabs %v", i, len(got), got)
		}
		if len(got) == 1 {
			if snap, _ := m.Window(got[0]); snap.State == StateMinimized {
				t.Fatalf("step %d: minimized window %s is active", i, got[0])
			}
		}
	}
}

func TestDegradedManager(t *testing.T) {
	m := NewManager(nil, nil, DefaultOptions())
	if !m.Degraded() {
		t.Fatal("expected degraded manager")
	}

	open(m, "a")
	open(m, "b")
	m.Minimize("b")
	m.HandleTabClick("b")
	m.Close("a")

	if !m.Exists("b") || m.Exists("a") {
		t.Errorf("registry must keep working while degraded")
	}
	if m.Tabs() != nil {
		t.Errorf("expected no tabs without a taskbar")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	m, _, _ := newTestManager()
	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	open(m, "a")
	m.Touch("a")
	m.Touch("ghost")
	m.Close("a")

	want := []EventType{EventOpened, EventContent, EventClosed}
	for _, w := range want {
		ev := <-ch
		if ev.Type != w || ev.WindowID != "a" {
			t.Fatalf("got %+v, want %s for a", ev, w)
		}
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}

func TestStateSortedByZ(t *testing.T) {
	m, _, _ := newTestManager()
	open(m, "a")
	open(m, "b")
	m.BringToFront("a")

	st := m.State()
	if len(st.Windows) != 2 || st.Windows[0].ID != "b" || st.Windows[1].ID != "a" {
		t.Fatalf("expected [b a], got %+v", st.Windows)
	}
	if st.Active != "a" || st.TopZ != st.Windows[1].Z {
		t.Errorf("unexpected state %+v", st)
	}
	if len(st.Tabs) != 2 || st.Tabs[0].ID != "a" {
		t.Errorf("tabs must stay in open order, got %+v", st.Tabs)
	}
}

package apps

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/giraffenet/webdesk/internal/config"
	"github.com/giraffenet/webdesk/internal/logger"
	"github.com/giraffenet/webdesk/internal/monitor"
	"github.com/giraffenet/webdesk/internal/window"
)

var (
	ErrUnknownApp    = errors.New("unknown application")
	ErrUnknownAction = errors.New("unknown action")
	ErrNotOpen       = errors.New("window not open")
	ErrInvalidApp    = errors.New("invalid application")
)

// Instance is the live value behind one open window of an app.
type Instance interface {
	window.Content
	window.Extension
	Start()
}

// Action runs an app-specific command against an open window's instance
// and returns a short status message.
type Action func(ctx context.Context, inst Instance) (string, error)

// App is one launchable application.
type App struct {
	ID        string
	Title     string
	Icon      string
	Kind      config.AppKind
	Desktop   bool
	Frameless bool

	// Content is shown by apps without live state.
	Content window.Content
	// New creates the live instance for a newly opened window.
	New func(windowID string) Instance

	Actions map[string]Action
}

// AppInfo is the public description of an app.
type AppInfo struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Icon    string         `json:"icon,omitempty"`
	Kind    config.AppKind `json:"kind"`
	Desktop bool           `json:"desktop"`
	Actions []string       `json:"actions,omitempty"`
}

// Info describes the app.
func (a App) Info() AppInfo {
	info := AppInfo{ID: a.ID, Title: a.Title, Icon: a.Icon, Kind: a.Kind, Desktop: a.Desktop}
	for name := range a.Actions {
		info.Actions = append(info.Actions, name)
	}
	sort.Strings(info.Actions)
	return info
}

// Registry maps app ids to applications and tracks the live instances of
// open windows. Window ids are app ids, so each app has at most one window.
type Registry struct {
	mgr    *window.Manager
	client *monitor.Client

	mu    sync.RWMutex
	order []string
	apps  map[string]App
	live  map[string]liveApp
}

// liveApp pins the app an instance was launched from, so its actions keep
// working after a reload drops or replaces the catalog entry.
type liveApp struct {
	app  App
	inst Instance
}

// NewRegistry creates an empty registry opening windows through mgr.
func NewRegistry(mgr *window.Manager, client *monitor.Client) *Registry {
	return &Registry{
		mgr:    mgr,
		client: client,
		apps:   make(map[string]App),
		live:   make(map[string]liveApp),
	}
}

// Register adds an app.
func (r *Registry) Register(app App) error {
	if app.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidApp)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.ID]; ok {
		return fmt.Errorf("%w: duplicate id %q", ErrInvalidApp, app.ID)
	}
	r.apps[app.ID] = app
	r.order = append(r.order, app.ID)
	return nil
}

// Get returns the app with the given id.
func (r *Registry) Get(id string) (App, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	return app, ok
}

// List returns all apps in registration order.
func (r *Registry) List() []App {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]App, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.apps[id])
	}
	return out
}

// Instance returns the live instance of an open window.
func (r *Registry) Instance(windowID string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.live[windowID]
	return l.inst, ok
}

// Launch opens the app's window, or brings it to the front if it is
// already open.
func (r *Registry) Launch(id string) error {
	app, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}

	if r.mgr.Exists(id) {
		r.mgr.BringToFront(id)
		return nil
	}

	opts := window.OpenOptions{Icon: app.Icon, Frameless: app.Frameless}
	content := app.Content
	if app.New != nil {
		inst := app.New(id)
		content = inst
		opts.OnOpen = func(windowID string) { r.start(windowID, app, inst) }
	}
	if content == nil {
		content = window.StaticContent("")
	}

	r.mgr.Open(id, app.Title, content, opts)
	return nil
}

// start hands inst to the window's side slot and starts it. The manager
// cancels it when the window closes.
func (r *Registry) start(windowID string, app App, inst Instance) {
	r.mu.Lock()
	r.live[windowID] = liveApp{app: app, inst: inst}
	r.mu.Unlock()

	ext := window.ExtensionFunc(func() {
		inst.Cancel()
		r.drop(windowID, inst)
	})
	if !r.mgr.Attach(windowID, ext) {
		// Closed before the hook ran.
		r.drop(windowID, inst)
		inst.Cancel()
		return
	}
	inst.Start()
	logger.WithWindow("apps", windowID).Debug().Msg("Application started")
}

func (r *Registry) drop(windowID string, inst Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.live[windowID]; ok && l.inst == inst {
		delete(r.live, windowID)
	}
}

// Do runs a named action of the app behind an open window. Open windows use
// the actions of the app they were launched from, even if a reload has
// since changed or removed it.
func (r *Registry) Do(ctx context.Context, windowID, action string) (string, error) {
	r.mu.RLock()
	l, open := r.live[windowID]
	r.mu.RUnlock()

	app := l.app
	if !open {
		var ok bool
		if app, ok = r.Get(windowID); !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownApp, windowID)
		}
	}
	fn, ok := app.Actions[action]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownAction, windowID, action)
	}
	if !open {
		return "", fmt.Errorf("%w: %s", ErrNotOpen, windowID)
	}

	msg, err := fn(ctx, l.inst)
	r.mgr.Touch(windowID)
	return msg, err
}

// Load replaces the catalog with the apps described by cfg. Open windows
// keep running with the instances and actions they were opened with.
func (r *Registry) Load(cfg *config.Config) error {
	next := NewRegistry(r.mgr, r.client)
	for _, entry := range cfg.Apps {
		app, err := next.fromEntry(entry, cfg)
		if err != nil {
			return err
		}
		if err := next.Register(app); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.apps = next.apps
	r.order = next.order
	r.mu.Unlock()
	return nil
}

package apps

import (
	"context"
	"fmt"
	"html/template"

	"github.com/giraffenet/webdesk/internal/config"
	"github.com/giraffenet/webdesk/internal/monitor"
	"github.com/giraffenet/webdesk/internal/window"
)

// Build creates a registry holding the apps described by cfg.
func Build(cfg *config.Config, mgr *window.Manager, client *monitor.Client) (*Registry, error) {
	r := NewRegistry(mgr, client)
	if err := r.Load(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// ManagerOptions maps window configuration to manager options.
func ManagerOptions(wc config.WindowConfig) window.Options {
	opts := window.DefaultOptions()
	if wc.Default.Width > 0 && wc.Default.Height > 0 {
		opts.Placement.Default = toGeometry(wc.Default)
	}
	if len(wc.Overrides) > 0 {
		opts.Placement.Overrides = make(map[string]window.Geometry, len(wc.Overrides))
		for id, g := range wc.Overrides {
			opts.Placement.Overrides[id] = toGeometry(g)
		}
	}
	if wc.BaseZ > 0 {
		opts.BaseZ = wc.BaseZ
	}
	if wc.MinWidth > 0 {
		opts.Bounds.MinWidth = wc.MinWidth
	}
	if wc.MinHeight > 0 {
		opts.Bounds.MinHeight = wc.MinHeight
	}
	if wc.MaxWidth > 0 {
		opts.Bounds.MaxWidth = wc.MaxWidth
	}
	if wc.MaxHeight > 0 {
		opts.Bounds.MaxHeight = wc.MaxHeight
	}
	return opts
}

func toGeometry(g config.Geometry) window.Geometry {
	return window.Geometry{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

func (r *Registry) fromEntry(e config.AppEntry, cfg *config.Config) (App, error) {
	app := App{
		ID:        e.ID,
		Title:     e.Title,
		Icon:      e.Icon,
		Kind:      e.Kind,
		Desktop:   e.Desktop,
		Frameless: e.Frameless,
	}
	if app.Title == "" {
		app.Title = e.ID
	}

	switch e.Kind {
	case config.AppKindStatic, "":
		app.Kind = config.AppKindStatic
		app.Content = window.StaticContent(template.HTML(e.Content))

	case config.AppKindMonitor:
		mc := cfg.Metrics
		app.New = func(windowID string) Instance {
			return monitor.NewMetricsMonitor(monitor.MetricsMonitorConfig{
				WindowID:   windowID,
				URL:        mc.URL,
				Client:     r.client,
				Interval:   mc.PollInterval,
				MaxBackoff: mc.MaxBackoff,
				History:    mc.History,
				Exists:     r.mgr.Exists,
				Changed:    r.mgr.Touch,
			})
		}

	case config.AppKindServerStatus:
		sc := cfg.ServerStatus
		title := app.Title
		app.New = func(windowID string) Instance {
			return monitor.NewStatusMonitor(monitor.StatusMonitorConfig{
				WindowID: windowID,
				Title:    title,
				BaseURL:  sc.BaseURL,
				Client:   r.client,
				Interval: sc.PollInterval,
				Exists:   r.mgr.Exists,
				Changed:  r.mgr.Touch,
			})
		}
		app.Actions = make(map[string]Action, len(monitor.Commands))
		for _, command := range monitor.Commands {
			app.Actions[command] = serverCommand(command)
		}

	default:
		return App{}, fmt.Errorf("%w: app %q has unknown kind %q", ErrInvalidApp, e.ID, e.Kind)
	}
	return app, nil
}

func serverCommand(command string) Action {
	return func(ctx context.Context, inst Instance) (string, error) {
		s, ok := inst.(*monitor.StatusMonitor)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownAction, command)
		}
		return s.Do(ctx, command)
	}
}

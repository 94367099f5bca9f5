package window

import (
	"fmt"
	"html/template"
)

// State is the logical visibility state of a window.
type State int

const (
	// StateNormal windows have a visible surface.
	StateNormal State = iota
	// StateMinimized windows keep their record and tab but their surface is hidden.
	StateMinimized
)

// String returns a string representation of the window state.
func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateMinimized:
		return "minimized"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*s = StateNormal
	case "minimized":
		*s = StateMinimized
	default:
		return fmt.Errorf("unknown window state %q", string(b))
	}
	return nil
}

// Geometry represents the position and dimensions of a surface.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Extension is the application-owned side slot of a window, typically a
// polling task. The manager never inspects it; it only calls Cancel once
// when the window closes.
type Extension interface {
	Cancel()
}

// ExtensionFunc adapts a plain function to Extension.
type ExtensionFunc func()

// Cancel calls f.
func (f ExtensionFunc) Cancel() { f() }

// Content is the opaque payload shown in a window's content region. HTML
// is called on every render so live applications can return fresh markup.
type Content interface {
	HTML(windowID string) template.HTML
}

// StaticContent is a fixed HTML fragment.
type StaticContent template.HTML

// HTML returns the fragment unchanged.
func (c StaticContent) HTML(string) template.HTML { return template.HTML(c) }

// ContentFunc adapts a render function to Content.
type ContentFunc func(windowID string) template.HTML

// HTML calls f.
func (f ContentFunc) HTML(windowID string) template.HTML { return f(windowID) }

// Record is the manager's bookkeeping for one open window.
type Record struct {
	ID      string
	Title   string
	Icon    string
	State   State
	Z       int
	Surface *Surface
	Content Content

	ext Extension
}

// Snapshot is a read-only copy of a window for renderers and the API.
type Snapshot struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Icon      string        `json:"icon,omitempty"`
	State     State         `json:"state"`
	Z         int           `json:"z"`
	Geometry  Geometry      `json:"geometry"`
	Visible   bool          `json:"visible"`
	Active    bool          `json:"active"`
	Frameless bool          `json:"frameless"`
	HTML      template.HTML `json:"html"`
}

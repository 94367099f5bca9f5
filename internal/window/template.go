package window

import (
	"bytes"
	"html/template"
)

var surfaceTemplate = template.Must(template.New("surface").Parse(`<div class="windows-container js-windows-container" id="{{.ID}}-draggable-window" data-window="{{.ID}}">
  <div class="form windows js-windows windows-form">
    {{- if .Header}}
    <header class="js-winheader windows-header" id="{{.ID}}-draggable-header" data-part="header">
      {{- if .Icon}}<img src="{{.Icon}}" class="window-header-icon">{{end}}<span>{{.Title}}</span>
      <div class="header-buttons">
        <button class="windows-button" data-action="minimize" data-window="{{.ID}}" title="Minimize">_</button>
        <button class="windows-button" data-action="close" data-window="{{.ID}}" title="Close">&times;</button>
      </div>
    </header>
    {{- end}}
    <div class="form-content" data-part="body">{{.Content}}</div>
  </div>
  {{- range .Handles}}
  <div class="resize-handle {{.}}" data-part="{{.}}"></div>
  {{- end}}
</div>`))

type surfaceView struct {
	ID      string
	Title   string
	Icon    string
	Header  bool
	Handles []Part
	Content template.HTML
}

// renderSurface produces the window chrome with the record's content in
// its content region. Control buttons carry the window id so the page can
// route clicks back to Minimize and Close.
func renderSurface(r *Record) template.HTML {
	view := surfaceView{
		ID:      r.ID,
		Title:   r.Title,
		Icon:    r.Icon,
		Header:  r.Surface.Header,
		Handles: r.Surface.Handles(),
	}
	if r.Content != nil {
		view.Content = r.Content.HTML(r.ID)
	}

	var buf bytes.Buffer
	if err := surfaceTemplate.Execute(&buf, view); err != nil {
		// Only reachable with a broken writer; bytes.Buffer never fails.
		return ""
	}
	return template.HTML(buf.String())
}

package monitor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Graph canvas size.
const (
	GraphWidth  = 600
	GraphHeight = 400
)

var (
	bgColor    = color.RGBA{30, 30, 40, 255}
	panelColor = color.RGBA{45, 45, 58, 255}
	gridColor  = color.RGBA{70, 70, 85, 255}
	labelColor = color.RGBA{200, 200, 200, 255}
	alertColor = color.RGBA{203, 36, 49, 255}
)

type panel struct {
	title  string
	unit   string
	series *Series
	max    float64
	line   color.RGBA
}

// Render draws the four usage graphs and the connection state into a new
// RGBA image.
func Render(h *History, latest Metrics, status Status, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{bgColor}, image.Point{}, draw.Src)

	panels := []panel{
		{title: "CPU", unit: "%", series: h.CPU, max: 100, line: color.RGBA{46, 160, 67, 255}},
		{title: "Memory", unit: "%", series: h.Mem, max: 100, line: color.RGBA{56, 139, 253, 255}},
		{title: "Temp", unit: "C", series: h.Temp, max: 100, line: color.RGBA{219, 154, 4, 255}},
		{title: "GPU", unit: "%", series: h.GPU, max: 100, line: color.RGBA{163, 113, 247, 255}},
	}

	const pad = 8
	footer := 13 + pad*2
	cellW := (width - pad*3) / 2
	cellH := (height - footer - pad*2) / 2

	for i, p := range panels {
		x := pad + (i%2)*(cellW+pad)
		y := pad + (i/2)*(cellH+pad)
		drawPanel(img, image.Rect(x, y, x+cellW, y+cellH), p)
	}

	footerText := fmt.Sprintf("RAM %.1f / %.1f GB", latest.MemUsedGB, latest.MemTotalGB)
	footerColor := labelColor
	if status == StatusDisconnected {
		footerText = "Connection failed"
		footerColor = alertColor
	} else if status == StatusConnecting {
		footerText = "Connecting..."
	}
	drawText(img, footerText, pad, height-pad-13, footerColor)

	return img
}

func drawPanel(img *image.RGBA, r image.Rectangle, p panel) {
	FillRect(img, r, panelColor)

	for i := 1; i < 4; i++ {
		gy := r.Min.Y + r.Dy()*i/4
		FillRect(img, image.Rect(r.Min.X, gy, r.Max.X, gy+1), gridColor)
	}

	label := fmt.Sprintf("%s %.0f%s", p.title, p.series.Last(), p.unit)
	drawText(img, label, r.Min.X+4, r.Min.Y+4, labelColor)

	values := p.series.Values()
	if len(values) == 0 {
		return
	}

	plot := image.Rect(r.Min.X+2, r.Min.Y+13+8, r.Max.X-2, r.Max.Y-2)
	capacity := p.series.Cap()
	step := float64(plot.Dx()) / float64(max(capacity-1, 1))
	offset := capacity - len(values)

	prevX, prevY := -1, -1
	for i, v := range values {
		v = min(max(v, 0), p.max)
		px := plot.Min.X + int(float64(offset+i)*step)
		py := plot.Max.Y - 1 - int(v/p.max*float64(plot.Dy()-1))
		if prevX >= 0 {
			drawLine(img, prevX, prevY, px, py, p.line)
		}
		prevX, prevY = px, py
	}
}

// FillRect fills r with c.
func FillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func drawText(dst *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + 11)},
	}
	d.DrawString(text)
}

// drawLine draws a one pixel line with Bresenham's algorithm.
func drawLine(dst *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(dst.Bounds()) {
			dst.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

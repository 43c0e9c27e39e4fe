package render

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/pthm-cable/worms/events"
)

// Framebuffer holds one RGBA pixel per board cell. Events are applied in
// order so the last write to a cell wins.
type Framebuffer struct {
	W, H int
	Pix  []color.RGBA
}

// NewFramebuffer creates a w×h framebuffer cleared to opaque black.
func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{W: w, H: h, Pix: make([]color.RGBA, w*h)}
	fb.Reset()
	return fb
}

// Reset clears every pixel to the clear colour.
func (fb *Framebuffer) Reset() {
	c := toRGBA(events.Clear)
	for i := range fb.Pix {
		fb.Pix[i] = c
	}
}

// Apply paints one event. Events outside the buffer are ignored.
func (fb *Framebuffer) Apply(e events.Event) {
	if e.Pos.X < 0 || e.Pos.Y < 0 || e.Pos.X >= fb.W || e.Pos.Y >= fb.H {
		return
	}
	fb.Pix[e.Pos.Y*fb.W+e.Pos.X] = toRGBA(e.Color)
}

// At returns the pixel for cell (x, y).
func (fb *Framebuffer) At(x, y int) color.RGBA {
	return fb.Pix[y*fb.W+x]
}

// Cells returns every non-clear pixel as a paint event, row by row.
func (fb *Framebuffer) Cells() []events.Event {
	clear := toRGBA(events.Clear)
	var out []events.Event
	for i, px := range fb.Pix {
		if px == clear {
			continue
		}
		out = append(out, events.Event{
			Pos:   events.Position{X: i % fb.W, Y: i / fb.W},
			Color: events.Color{R: px.R, G: px.G, B: px.B},
		})
	}
	return out
}

// Image copies the framebuffer into an image.RGBA.
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.W, fb.H))
	for i, px := range fb.Pix {
		base := i * 4
		img.Pix[base+0] = px.R
		img.Pix[base+1] = px.G
		img.Pix[base+2] = px.B
		img.Pix[base+3] = px.A
	}
	return img
}

// WritePNG encodes the framebuffer as a PNG.
func (fb *Framebuffer) WritePNG(w io.Writer) error {
	return png.Encode(w, fb.Image())
}

func toRGBA(c events.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

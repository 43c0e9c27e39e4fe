// Package display presents the framebuffer in a raylib window. All calls
// must come from the goroutine that locked the main OS thread.
package display

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/worms/game"
	"github.com/pthm-cable/worms/render"
)

// hudHeight is the strip below the board reserved for the HUD.
const hudHeight = 40

// Options configures the window.
type Options struct {
	Title     string
	Scale     int // screen pixels per cell
	TargetFPS int
	HUD       bool
}

// Window draws the board into a texture with one texel per cell and scales
// it to the screen. It implements game.Frontend.
type Window struct {
	opts   Options
	w, h   int
	tex    rl.Texture2D
	paused bool
	closed bool
}

var _ game.Frontend = (*Window)(nil)

// Open creates the window for a w×h board.
func Open(w, h int, opts Options) *Window {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	screenW := int32(w * opts.Scale)
	screenH := int32(h * opts.Scale)
	if opts.HUD {
		screenH += hudHeight
	}
	rl.InitWindow(screenW, screenH, opts.Title)
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}

	img := rl.GenImageColor(w, h, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(tex, rl.FilterPoint)
	rl.UnloadImage(img)

	return &Window{opts: opts, w: w, h: h, tex: tex}
}

// Present uploads fb and draws one frame.
func (win *Window) Present(fb *render.Framebuffer, st game.Status) {
	win.handleInput()

	rl.UpdateTexture(win.tex, fb.Pix)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(win.w), Height: float32(win.h)}
	dst := rl.Rectangle{X: 0, Y: 0, Width: float32(win.w * win.opts.Scale), Height: float32(win.h * win.opts.Scale)}
	rl.DrawTexturePro(win.tex, src, dst, rl.Vector2{}, 0, rl.White)
	if win.opts.HUD {
		win.drawHUD(st)
	}
	rl.EndDrawing()
}

// Paused reports whether draining is suspended.
func (win *Window) Paused() bool { return win.paused }

// Closed reports whether the window was asked to close.
func (win *Window) Closed() bool { return win.closed }

// Close releases the texture and the window.
func (win *Window) Close() {
	rl.UnloadTexture(win.tex)
	rl.CloseWindow()
}

func (win *Window) handleInput() {
	if rl.WindowShouldClose() {
		win.closed = true
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		win.paused = !win.paused
	}
}

func (win *Window) drawHUD(st game.Status) {
	y := float32(win.h * win.opts.Scale)
	width := float32(win.w * win.opts.Scale)
	rl.DrawRectangle(0, int32(y), int32(width), hudHeight, rl.Color{R: 20, G: 25, B: 30, A: 255})

	label := "Pause"
	if win.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: 8, Y: y + 6, Width: 80, Height: hudHeight - 12}, label) {
		win.paused = !win.paused
	}

	text := fmt.Sprintf("tick %d  population %d  batch %d  queued %d", st.Tick, st.Population, st.Batch, st.Queued)
	if st.Viewers > 0 {
		text += fmt.Sprintf("  viewers %d", st.Viewers)
	}
	if win.paused {
		text += "  [paused]"
	}
	rl.DrawText(text, 100, int32(y)+12, 16, rl.LightGray)
	rl.DrawFPS(int32(width)-90, int32(y)+12)
}

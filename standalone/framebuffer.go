// Package standalone is the desktop front end: an ebiten game loop that
// feeds keyboard and gamepad input into a session, draws the frames the
// session renders, and maps hotkeys to pause, save states, rewind, speed,
// cheats, and screenshots.
package standalone

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// SharedFramebuffer receives frames from the session's execution goroutine
// and hands snapshots to ebiten's Draw. Separate write and read buffers
// keep either side from blocking on the other's copy.
//
// It implements emucore.VideoSink.
type SharedFramebuffer struct {
	mu           sync.Mutex
	writePixels  []byte
	readPixels   []byte
	stride       int
	activeHeight int
}

// NewSharedFramebuffer pre-allocates both buffers for the given native
// screen dimensions (4 bytes per pixel).
func NewSharedFramebuffer(width, height int) *SharedFramebuffer {
	size := width * height * 4
	return &SharedFramebuffer{
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
	}
}

// DisplayFrame copies the rendered frame in. Called on the session's
// execution goroutine.
func (sf *SharedFramebuffer) DisplayFrame(pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	n := stride * activeHeight
	if n > len(sf.writePixels) {
		n = len(sf.writePixels)
	}
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(sf.writePixels[:n], pixels[:n])
	sf.stride = stride
	sf.activeHeight = activeHeight
	sf.mu.Unlock()
}

// Read snapshots the latest frame into the read buffer and returns it.
// The returned slice is safe to use until the next Read call.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	stride = sf.stride
	activeHeight = sf.activeHeight
	copy(sf.readPixels, sf.writePixels)
	sf.mu.Unlock()
	return sf.readPixels, stride, activeHeight
}

// FramebufferRenderer owns the ebiten offscreen image and draws frames
// scaled to the window with the aspect ratio preserved.
type FramebufferRenderer struct {
	offscreen *ebiten.Image
	drawOpts  ebiten.DrawImageOptions
}

// NewFramebufferRenderer creates an empty renderer; the offscreen image is
// allocated lazily to the frame's native size.
func NewFramebufferRenderer() *FramebufferRenderer {
	return &FramebufferRenderer{}
}

// DrawFramebuffer renders pixel data to the screen, letterboxing as needed.
func (r *FramebufferRenderer) DrawFramebuffer(screen *ebiten.Image, pixels []byte, stride, activeHeight int) {
	if activeHeight == 0 || stride == 0 {
		return
	}
	requiredLen := stride * activeHeight
	if len(pixels) < requiredLen {
		return
	}

	pixelWidth := stride / 4
	if r.offscreen == nil || r.offscreen.Bounds().Dx() != pixelWidth || r.offscreen.Bounds().Dy() != activeHeight {
		r.offscreen = ebiten.NewImage(pixelWidth, activeHeight)
	}
	r.offscreen.WritePixels(pixels[:requiredLen])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(pixelWidth)
	nativeH := float64(activeHeight)

	scale := float64(screenW) / nativeW
	if s := float64(screenH) / nativeH; s < scale {
		scale = s
	}

	offsetX := (float64(screenW) - nativeW*scale) / 2
	offsetY := (float64(screenH) - nativeH*scale) / 2

	r.drawOpts = ebiten.DrawImageOptions{}
	r.drawOpts.GeoM.Scale(scale, scale)
	r.drawOpts.GeoM.Translate(offsetX, offsetY)
	r.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(r.offscreen, &r.drawOpts)
}

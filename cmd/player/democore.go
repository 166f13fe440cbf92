package main

import (
	"encoding/binary"
	"errors"

	emucore "github.com/user-none/edrive/api"
)

const (
	demoWidth  = 256
	demoHeight = 240
	demoFPS    = 60.0

	// Stereo sample pairs per frame at 48kHz/60fps
	demoSamplesPerFrame = 800

	demoButtonTone = 4
)

// demoCore is a built-in test pattern standing in for a real emulator
// engine: the d-pad moves a square over a gradient and the action button
// plays a tone. It exists so the player binary runs end to end without an
// external core module.
type demoCore struct {
	fb      []byte
	samples []int16
	buttons uint32
	x, y    int
	phase   int
	frame   uint32
}

func newDemoCore() *demoCore {
	return &demoCore{
		fb:      make([]byte, demoWidth*demoHeight*4),
		samples: make([]int16, demoSamplesPerFrame*2),
		x:       demoWidth / 2,
		y:       demoHeight / 2,
	}
}

func (c *demoCore) RunFrame(renderVideo bool) {
	c.frame++

	if c.buttons&(1<<emucore.ButtonUp) != 0 && c.y > 8 {
		c.y -= 2
	}
	if c.buttons&(1<<emucore.ButtonDown) != 0 && c.y < demoHeight-8 {
		c.y += 2
	}
	if c.buttons&(1<<emucore.ButtonLeft) != 0 && c.x > 8 {
		c.x -= 2
	}
	if c.buttons&(1<<emucore.ButtonRight) != 0 && c.x < demoWidth-8 {
		c.x += 2
	}

	c.mixAudio()
	if renderVideo {
		c.render()
	}
}

// mixAudio fills the frame's sample buffer: a 440Hz square wave while the
// tone button is held, silence otherwise.
func (c *demoCore) mixAudio() {
	tone := c.buttons&(1<<demoButtonTone) != 0
	for i := 0; i < demoSamplesPerFrame; i++ {
		var s int16
		if tone {
			// 48000 / 440 ~= 109 samples per period
			if (c.phase/54)%2 == 0 {
				s = 3000
			} else {
				s = -3000
			}
			c.phase++
		} else {
			c.phase = 0
		}
		c.samples[i*2] = s
		c.samples[i*2+1] = s
	}
}

func (c *demoCore) render() {
	for y := 0; y < demoHeight; y++ {
		for x := 0; x < demoWidth; x++ {
			o := (y*demoWidth + x) * 4
			c.fb[o] = byte(x)
			c.fb[o+1] = byte(y)
			c.fb[o+2] = byte(c.frame / 4)
			c.fb[o+3] = 0xFF
		}
	}

	// White square at the cursor
	for dy := -8; dy < 8; dy++ {
		for dx := -8; dx < 8; dx++ {
			x, y := c.x+dx, c.y+dy
			if x < 0 || x >= demoWidth || y < 0 || y >= demoHeight {
				continue
			}
			o := (y*demoWidth + x) * 4
			c.fb[o], c.fb[o+1], c.fb[o+2], c.fb[o+3] = 0xFF, 0xFF, 0xFF, 0xFF
		}
	}
}

func (c *demoCore) Framebuffer() []byte    { return c.fb }
func (c *demoCore) FramebufferStride() int { return demoWidth * 4 }
func (c *demoCore) ActiveHeight() int      { return demoHeight }
func (c *demoCore) AudioSamples() []int16  { return c.samples }

func (c *demoCore) SetButton(player, button int, pressed bool) {
	if player != 0 || button < 0 || button > 31 {
		return
	}
	if pressed {
		c.buttons |= 1 << uint(button)
	} else {
		c.buttons &^= 1 << uint(button)
	}
}

func (c *demoCore) Timing() emucore.Timing {
	return emucore.Timing{FPS: demoFPS, Scanlines: 262}
}

func (c *demoCore) Close() {}

const demoStateSize = 16

func (c *demoCore) Serialize() ([]byte, error) {
	state := make([]byte, demoStateSize)
	binary.LittleEndian.PutUint32(state[0:], uint32(c.x))
	binary.LittleEndian.PutUint32(state[4:], uint32(c.y))
	binary.LittleEndian.PutUint32(state[8:], c.frame)
	binary.LittleEndian.PutUint32(state[12:], c.buttons)
	return state, nil
}

func (c *demoCore) Deserialize(data []byte) error {
	if len(data) < demoStateSize {
		return errors.New("demo state truncated")
	}
	c.x = int(binary.LittleEndian.Uint32(data[0:]))
	c.y = int(binary.LittleEndian.Uint32(data[4:]))
	c.frame = binary.LittleEndian.Uint32(data[8:])
	c.buttons = binary.LittleEndian.Uint32(data[12:])
	return nil
}

// demoFactory builds demoCore instances. ROM contents are ignored.
type demoFactory struct{}

func (demoFactory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "demo",
		ConsoleName:     "Demo Pattern",
		Extensions:      []string{".bin", ".rom"},
		ScreenWidth:     demoWidth,
		MaxScreenHeight: demoHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "Tone", ID: demoButtonTone, DefaultKey: "J", DefaultPad: "A"},
		},
		Players:       1,
		DataDirName:   "edrive",
		CoreName:      "edrive demo",
		CoreVersion:   "1.0",
		SerializeSize: demoStateSize,
	}
}

func (demoFactory) CreateCore(rom []byte, region emucore.Region) (emucore.Core, error) {
	return newDemoCore(), nil
}

func (demoFactory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emucore.RegionNTSC, true
}

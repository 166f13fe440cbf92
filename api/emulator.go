package emucore

// Core is the interface every emulator engine must implement to be driven
// by a session. All methods are called from the session's execution
// goroutine while the session is running, or from the controlling thread
// while it is suspended — never from both at once.
type Core interface {
	// RunFrame advances the emulated machine by one logical frame.
	// When renderVideo is false the core may skip all video work; it is
	// called with false repeatedly during catch-up.
	RunFrame(renderVideo bool)

	// Framebuffer returns the current frame as RGBA pixel data.
	Framebuffer() []byte

	// FramebufferStride returns bytes per row in the framebuffer.
	FramebufferStride() int

	// ActiveHeight returns the current active display height in pixels.
	ActiveHeight() int

	// AudioSamples returns stereo 16-bit PCM samples produced by the
	// last RunFrame call.
	AudioSamples() []int16

	// SetButton sets the state of one logical button for the given
	// player. The session delivers edge transitions only.
	SetButton(player, button int, pressed bool)

	// Timing returns the frame rate for the current region.
	Timing() Timing

	// Close releases any resources held by the core.
	Close()
}

// SaveStater enables save states, resume-on-launch, and rewind.
type SaveStater interface {
	// Serialize captures the complete emulator state as an opaque blob.
	Serialize() ([]byte, error)

	// Deserialize restores emulator state from previously serialized data.
	Deserialize(data []byte) error
}

// BatterySaver enables SRAM persistence for battery-backed saves.
type BatterySaver interface {
	// HasSRAM reports whether the loaded ROM uses battery-backed save.
	HasSRAM() bool

	// GetSRAM returns a copy of the current SRAM contents.
	GetSRAM() []byte

	// SetSRAM loads SRAM contents into the emulator.
	SetSRAM(data []byte)
}

// CheatKind identifies the encoding of a cheat code.
type CheatKind string

const (
	CheatActionReplay CheatKind = "actionReplay"
	CheatGameGenie    CheatKind = "gameGenie"
	CheatRaw          CheatKind = "raw"
)

// CheatSupporter enables cheat codes. The session rebroadcasts the whole
// active set on every mutation, so cores only need these two calls.
type CheatSupporter interface {
	// ResetCheats removes all cheats from the engine.
	ResetCheats()

	// AddCheatCode installs a single cheat line. Returns false if the
	// line is not a valid code of the given kind.
	AddCheatCode(code string, kind CheatKind) bool
}

// VideoSink receives rendered frames. DisplayFrame is called once per
// rendered frame from the session's execution goroutine; implementations
// must copy the pixel data before returning.
type VideoSink interface {
	DisplayFrame(pixels []byte, stride, activeHeight int)
}

package emucore

// Standard d-pad button bit positions (always buttons 0-3).
const (
	ButtonUp    = 0
	ButtonDown  = 1
	ButtonLeft  = 2
	ButtonRight = 3
)

// Button describes a system-specific button with its display name
// and logical button number.
type Button struct {
	Name       string
	ID         int    // Logical button number (4+; 0-3 are the d-pad)
	DefaultKey string // Default keyboard key for the standalone player (e.g., "J", "Enter")
	DefaultPad string // Default gamepad button (e.g., "A", "Start")
}

// SystemInfo describes an emulator system for player configuration.
type SystemInfo struct {
	Name            string
	ConsoleName     string
	Extensions      []string
	ScreenWidth     int
	MaxScreenHeight int
	AspectRatio     float64
	SampleRate      int
	Buttons         []Button
	Players         int
	DataDirName     string
	CoreName        string
	CoreVersion     string
	SerializeSize   int
}

// CoreFactory creates emulator cores and provides system metadata.
type CoreFactory interface {
	// SystemInfo returns system metadata for player configuration.
	SystemInfo() SystemInfo

	// CreateCore creates a new core instance with the given ROM and region.
	CreateCore(rom []byte, region Region) (Core, error)

	// DetectRegion auto-detects the region from ROM data. The bool return
	// indicates whether the region could be determined.
	DetectRegion(rom []byte) (Region, bool)
}

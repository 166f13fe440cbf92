package emucore

// Region represents a console video region.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// Timing holds the frame rate for the current region. The session derives
// its base frame duration from FPS, so fractional rates (59.94, 50.007)
// must not be rounded.
type Timing struct {
	FPS       float64
	Scanlines int
}

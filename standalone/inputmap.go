package standalone

import (
	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/user-none/edrive/api"
)

// Mapping binds logical button numbers to ebiten input. Button numbers
// double as bit positions in the polled bitmask, so a system is limited
// to 32 logical buttons.
type Mapping struct {
	Keys    map[int]ebiten.Key
	Gamepad map[int]ebiten.StandardGamepadButton
}

var keyNameMap = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT, "U": ebiten.KeyU,
	"V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX, "Y": ebiten.KeyY,
	"Z": ebiten.KeyZ,
	"0": ebiten.Key0, "1": ebiten.Key1, "2": ebiten.Key2, "3": ebiten.Key3,
	"4": ebiten.Key4, "5": ebiten.Key5, "6": ebiten.Key6, "7": ebiten.Key7,
	"8": ebiten.Key8, "9": ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
}

var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"L2":        ebiten.StandardGamepadButtonFrontBottomLeft,
	"R2":        ebiten.StandardGamepadButtonFrontBottomRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
}

// reservedKeys are taken by player hotkeys and cannot be bound to a
// system button.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape:  true, // Pause / resume
	ebiten.KeyR:       true, // Rewind hold
	ebiten.KeyF1:      true, // Save state
	ebiten.KeyF2:      true, // Cycle slot
	ebiten.KeyF3:      true, // Load state
	ebiten.KeyF4:      true, // Speed cycle
	ebiten.KeyF8:      true, // Cheat from clipboard
	ebiten.KeyF10:     true, // Mute toggle
	ebiten.KeyF11:     true, // Fullscreen
	ebiten.KeyF12:     true, // Screenshot
	ebiten.KeyShift:   true, // Modifier (Shift+F2)
	ebiten.KeyControl: true,
	ebiten.KeyAlt:     true,
	ebiten.KeyMeta:    true,
}

// ParseKey converts a key name string to an ebiten.Key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name to an ebiten button.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// IsReservedKey reports whether the key is taken by a player hotkey.
func IsReservedKey(k ebiten.Key) bool {
	return reservedKeys[k]
}

// Defaults for the d-pad, which every system has as buttons 0-3.
var dpadDefaults = []struct {
	name       string
	button     int
	defaultKey string
	defaultPad string
}{
	{"Up", emucore.ButtonUp, "W", "DpadUp"},
	{"Down", emucore.ButtonDown, "S", "DpadDown"},
	{"Left", emucore.ButtonLeft, "A", "DpadLeft"},
	{"Right", emucore.ButtonRight, "D", "DpadRight"},
}

// BuildMapping creates a Mapping from the system's button definitions,
// applying keyboard overrides by button name. Override or default keys
// that collide with a reserved hotkey are dropped.
func BuildMapping(buttons []emucore.Button, kbOverrides map[string]string) Mapping {
	m := Mapping{
		Keys:    make(map[int]ebiten.Key),
		Gamepad: make(map[int]ebiten.StandardGamepadButton),
	}

	bindKey := func(button int, name, fallback string) {
		if k, ok := ParseKey(name); ok && !reservedKeys[k] {
			m.Keys[button] = k
			return
		}
		if k, ok := ParseKey(fallback); ok && !reservedKeys[k] {
			m.Keys[button] = k
		}
	}

	for _, dp := range dpadDefaults {
		bindKey(dp.button, kbOverrides[dp.name], dp.defaultKey)
		if b, ok := ParsePad(dp.defaultPad); ok {
			m.Gamepad[dp.button] = b
		}
	}

	for _, btn := range buttons {
		bindKey(btn.ID, kbOverrides[btn.Name], btn.DefaultKey)
		if b, ok := ParsePad(btn.DefaultPad); ok {
			m.Gamepad[btn.ID] = b
		}
	}

	return m
}

// PollP1 reads player 1 input: keyboard plus the first gamepad when one
// is connected. Returns a bitmask of held logical buttons.
func PollP1(m Mapping, gamepadID ebiten.GamepadID, hasGamepad bool) uint32 {
	var held uint32

	for button, key := range m.Keys {
		if ebiten.IsKeyPressed(key) {
			held |= 1 << uint(button)
		}
	}
	if hasGamepad {
		held |= pollGamepad(m, gamepadID)
	}
	return held
}

// PollGamepad reads one gamepad's input only; used for player 2, which
// has no keyboard.
func PollGamepad(m Mapping, gamepadID ebiten.GamepadID) uint32 {
	return pollGamepad(m, gamepadID)
}

func pollGamepad(m Mapping, gamepadID ebiten.GamepadID) uint32 {
	var held uint32

	for button, padBtn := range m.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(gamepadID, padBtn) {
			held |= 1 << uint(button)
		}
	}

	// The analog stick follows whatever buttons the d-pad directions are
	// mapped to, so remappings apply to the stick too.
	axisX := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(gamepadID, ebiten.StandardGamepadAxisLeftStickVertical)
	for button, padBtn := range m.Gamepad {
		switch padBtn {
		case ebiten.StandardGamepadButtonLeftLeft:
			if axisX < -0.25 {
				held |= 1 << uint(button)
			}
		case ebiten.StandardGamepadButtonLeftRight:
			if axisX > 0.25 {
				held |= 1 << uint(button)
			}
		case ebiten.StandardGamepadButtonLeftTop:
			if axisY < -0.25 {
				held |= 1 << uint(button)
			}
		case ebiten.StandardGamepadButtonLeftBottom:
			if axisY > 0.25 {
				held |= 1 << uint(button)
			}
		}
	}

	return held
}

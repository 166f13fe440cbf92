package standalone

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	emucore "github.com/user-none/edrive/api"
	"github.com/user-none/edrive/storage"
)

func TestBuildMappingDefaults(t *testing.T) {
	buttons := []emucore.Button{
		{Name: "1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
		{Name: "2", ID: 5, DefaultKey: "K", DefaultPad: "B"},
	}

	m := BuildMapping(buttons, nil)

	// D-pad defaults: WASD
	if m.Keys[emucore.ButtonUp] != ebiten.KeyW {
		t.Errorf("expected Up -> W, got %v", m.Keys[emucore.ButtonUp])
	}
	if m.Keys[emucore.ButtonLeft] != ebiten.KeyA {
		t.Errorf("expected Left -> A, got %v", m.Keys[emucore.ButtonLeft])
	}
	if m.Keys[4] != ebiten.KeyJ {
		t.Errorf("expected button 4 -> J, got %v", m.Keys[4])
	}
	if m.Gamepad[5] != ebiten.StandardGamepadButtonRightRight {
		t.Errorf("expected button 5 -> pad B, got %v", m.Gamepad[5])
	}
	if m.Gamepad[emucore.ButtonDown] != ebiten.StandardGamepadButtonLeftBottom {
		t.Errorf("expected Down -> DpadDown, got %v", m.Gamepad[emucore.ButtonDown])
	}
}

func TestBuildMappingOverrides(t *testing.T) {
	buttons := []emucore.Button{
		{Name: "1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
	}
	overrides := map[string]string{
		"Up": "ArrowUp",
		"1":  "Z",
	}

	m := BuildMapping(buttons, overrides)

	if m.Keys[emucore.ButtonUp] != ebiten.KeyArrowUp {
		t.Errorf("expected Up override -> ArrowUp, got %v", m.Keys[emucore.ButtonUp])
	}
	if m.Keys[4] != ebiten.KeyZ {
		t.Errorf("expected button 1 override -> Z, got %v", m.Keys[4])
	}
	// Unoverridden d-pad keeps its default
	if m.Keys[emucore.ButtonDown] != ebiten.KeyS {
		t.Errorf("expected Down -> S, got %v", m.Keys[emucore.ButtonDown])
	}
}

func TestBuildMappingRejectsReservedKeys(t *testing.T) {
	buttons := []emucore.Button{
		{Name: "1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
	}

	// Override points at a reserved hotkey: falls back to the default
	m := BuildMapping(buttons, map[string]string{"1": "R"})
	if m.Keys[4] != ebiten.KeyJ {
		t.Errorf("expected reserved override to fall back to J, got %v", m.Keys[4])
	}

	// Reserved default is dropped entirely
	m = BuildMapping([]emucore.Button{{Name: "X", ID: 6, DefaultKey: "R"}}, nil)
	if _, ok := m.Keys[6]; ok {
		t.Error("expected reserved default key to be unbound")
	}
}

func TestIsReservedKey(t *testing.T) {
	if !IsReservedKey(ebiten.KeyEscape) {
		t.Error("Escape should be reserved")
	}
	if !IsReservedKey(ebiten.KeyF10) {
		t.Error("F10 should be reserved")
	}
	if !IsReservedKey(ebiten.KeyF12) {
		t.Error("F12 should be reserved")
	}
	if IsReservedKey(ebiten.KeyJ) {
		t.Error("J should not be reserved")
	}
}

func TestParseKeyAndPad(t *testing.T) {
	if k, ok := ParseKey("Enter"); !ok || k != ebiten.KeyEnter {
		t.Errorf("ParseKey(Enter) = %v, %v", k, ok)
	}
	if _, ok := ParseKey("NoSuchKey"); ok {
		t.Error("expected unknown key name to fail")
	}
	if b, ok := ParsePad("Start"); !ok || b != ebiten.StandardGamepadButtonCenterRight {
		t.Errorf("ParsePad(Start) = %v, %v", b, ok)
	}
	if _, ok := ParsePad("NoSuchButton"); ok {
		t.Error("expected unknown pad name to fail")
	}
}

func TestSharedFramebufferRoundTrip(t *testing.T) {
	sf := NewSharedFramebuffer(4, 4)

	frame := make([]byte, 4*4*4)
	for i := range frame {
		frame[i] = byte(i)
	}
	sf.DisplayFrame(frame, 16, 4)

	pixels, stride, height := sf.Read()
	if stride != 16 || height != 4 {
		t.Fatalf("expected stride 16 height 4, got %d %d", stride, height)
	}
	if !bytes.Equal(pixels[:len(frame)], frame) {
		t.Error("pixel data mismatch")
	}
}

func TestSharedFramebufferCopies(t *testing.T) {
	sf := NewSharedFramebuffer(2, 2)

	frame := []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}
	sf.DisplayFrame(frame, 8, 2)

	// Mutating the source after DisplayFrame must not affect the stored
	// frame
	frame[0] = 99
	pixels, _, _ := sf.Read()
	if pixels[0] != 1 {
		t.Errorf("expected stored copy unaffected, got %d", pixels[0])
	}
}

func TestSharedFramebufferClampsOversizedFrame(t *testing.T) {
	sf := NewSharedFramebuffer(2, 2)

	// Frame larger than the allocation is truncated, not panicked on
	big := make([]byte, 1024)
	sf.DisplayFrame(big, 64, 16)

	pixels, _, _ := sf.Read()
	if len(pixels) != 2*2*4 {
		t.Errorf("expected buffer of 16 bytes, got %d", len(pixels))
	}
}

func TestNextRateCycle(t *testing.T) {
	if r := nextRate(1.0); r != 2.0 {
		t.Errorf("1x -> %gx, want 2x", r)
	}
	if r := nextRate(2.0); r != 3.0 {
		t.Errorf("2x -> %gx, want 3x", r)
	}
	if r := nextRate(3.0); r != 1.0 {
		t.Errorf("3x -> %gx, want 1x", r)
	}
}

func TestToggleMuteCyclesVolume(t *testing.T) {
	r := &Runner{volume: 0.8}

	if v := r.toggleMute(); v != 0 || !r.muted {
		t.Errorf("first toggle: volume %g muted %v, want 0 muted", v, r.muted)
	}
	if v := r.toggleMute(); v != 0.8 || r.muted {
		t.Errorf("second toggle: volume %g muted %v, want 0.8 unmuted", v, r.muted)
	}
}

func TestToggleMuteFromMutedConfig(t *testing.T) {
	r := &Runner{volume: 1.0, muted: true}

	if v := r.toggleMute(); v != 1.0 || r.muted {
		t.Errorf("toggle from muted: volume %g muted %v, want 1.0 unmuted", v, r.muted)
	}
}

func TestSaveScreenshot(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	storage.Init("edrive-test")

	// 2x2 red frame, scaled 3x
	pixels := make([]byte, 2*2*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = 0xFF
		pixels[i+3] = 0xFF
	}

	path, err := SaveScreenshot(pixels, 8, 2, 3, "cafe1234")
	if err != nil {
		t.Fatalf("SaveScreenshot failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("screenshot not written: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 6 {
		t.Errorf("expected 6x6 output, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	r, _, _, _ := img.At(0, 0).RGBA()
	if r != 0xFFFF {
		t.Errorf("expected red pixel, got r=%04x", r)
	}
}

func TestSaveScreenshotEmptyFrame(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	storage.Init("edrive-test")

	if _, err := SaveScreenshot(nil, 0, 0, 1, ""); err == nil {
		t.Error("expected error for empty frame")
	}
}

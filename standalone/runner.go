package standalone

import (
	"fmt"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	emucore "github.com/user-none/edrive/api"
	"github.com/user-none/edrive/audio"
	"github.com/user-none/edrive/romloader"
	"github.com/user-none/edrive/session"
	"github.com/user-none/edrive/storage"
)

const maxPlayers = 2

// rewindHoldInterval pops one rewind state every N update ticks while R
// is held.
const rewindHoldInterval = 2

// Runner implements ebiten.Game around a running session.
type Runner struct {
	sess     *session.Session
	saves    *session.SaveStates
	info     emucore.SystemInfo
	mapping  Mapping
	renderer *FramebufferRenderer
	sharedFB *SharedFramebuffer
	player   *audio.Player
	gameCRC  string
	volume   float64
	muted    bool

	prevHeld        [maxPlayers]uint32
	rewindTick      int
	screenshotScale int
	clipboardOK     bool
}

// Run loads a ROM and drives it in an ebiten window until the window
// closes. regionStr accepts "auto", "ntsc", or "pal".
func Run(factory emucore.CoreFactory, romPath, regionStr string, cfg *storage.Config) error {
	info := factory.SystemInfo()

	rom, err := romloader.Load(romPath, info.Extensions)
	if err != nil {
		return fmt.Errorf("failed to load ROM: %w", err)
	}

	region, err := parseRegion(regionStr, factory, rom.Data)
	if err != nil {
		return err
	}

	core, err := factory.CreateCore(rom.Data, region)
	if err != nil {
		return fmt.Errorf("failed to create core: %w", err)
	}

	sess := session.New(core)

	volume := cfg.Audio.Volume
	if cfg.Audio.Muted {
		volume = 0
	}
	player, err := audio.NewPlayer(volume)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	} else {
		sess.SetAudioPlayer(player)
	}

	sharedFB := NewSharedFramebuffer(info.ScreenWidth, info.MaxScreenHeight)
	sess.SetVideoSink(sharedFB)

	saves := session.NewSaveStates(rom.CRC32)
	sess.SetSaveStates(saves)

	if cfg.Rewind.Enabled {
		rb := session.NewRewindBuffer(cfg.Rewind.BufferSizeMB, cfg.Rewind.FrameStep, info.SerializeSize)
		if rb != nil {
			sess.SetRewind(rb)
		}
	}

	r := &Runner{
		sess:            sess,
		saves:           saves,
		info:            info,
		mapping:         BuildMapping(info.Buttons, cfg.Keyboard),
		renderer:        NewFramebufferRenderer(),
		sharedFB:        sharedFB,
		player:          player,
		gameCRC:         rom.CRC32,
		volume:          cfg.Audio.Volume,
		muted:           cfg.Audio.Muted,
		screenshotScale: cfg.Video.Scale,
	}
	if err := clipboard.Init(); err == nil {
		r.clipboardOK = true
	}

	ebiten.SetWindowTitle(fmt.Sprintf("%s - %s", info.CoreName, rom.Name))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	ebiten.SetFullscreen(cfg.Video.Fullscreen)

	windowW := info.ScreenWidth * cfg.Video.Scale
	windowH := int(float64(windowW) / info.AspectRatio)
	minW := info.ScreenWidth
	minH := int(float64(minW) / info.AspectRatio)
	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowSizeLimits(minW, minH, -1, -1)

	if !sess.Start() {
		sess.Close()
		return fmt.Errorf("failed to start session")
	}

	err = ebiten.RunGame(r)

	sess.Close()
	return err
}

// Update implements ebiten.Game. Runs on ebiten's tick cadence,
// independent of the session's execution goroutine.
func (r *Runner) Update() error {
	r.pollButtons()
	r.handleHotkeys()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, activeHeight := r.sharedFB.Read()
	if activeHeight == 0 {
		return
	}
	r.renderer.DrawFramebuffer(screen, pixels, stride, activeHeight)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	return int(float64(outsideWidth) * s), int(float64(outsideHeight) * s)
}

// pollButtons reads held buttons and feeds edges into the session.
// Player 1 gets keyboard plus the first gamepad, player 2 the second
// gamepad.
func (r *Runner) pollButtons() {
	gamepadIDs := ebiten.AppendGamepadIDs(nil)

	var held [maxPlayers]uint32
	if len(gamepadIDs) > 0 {
		held[0] = PollP1(r.mapping, gamepadIDs[0], true)
	} else {
		held[0] = PollP1(r.mapping, 0, false)
	}
	if len(gamepadIDs) > 1 && r.info.Players > 1 {
		held[1] = PollGamepad(r.mapping, gamepadIDs[1])
	}

	for player := 0; player < maxPlayers; player++ {
		changed := held[player] ^ r.prevHeld[player]
		for button := 0; changed != 0; button++ {
			bit := uint32(1) << uint(button)
			if changed&bit == 0 {
				continue
			}
			changed &^= bit
			if held[player]&bit != 0 {
				r.sess.PressButton(player, button)
			} else {
				r.sess.ReleaseButton(player, button)
			}
		}
		r.prevHeld[player] = held[player]
	}
}

// handleHotkeys maps the reserved keys to session operations.
func (r *Runner) handleHotkeys() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		switch r.sess.State() {
		case session.StateRunning:
			r.sess.Pause()
		case session.StatePaused:
			r.sess.Resume()
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		if err := r.sess.SaveState(); err != nil {
			log.Printf("Save state failed: %v", err)
		} else {
			log.Printf("Saved state to slot %d", r.saves.Slot())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		if err := r.sess.LoadState(); err != nil {
			log.Printf("Load state failed: %v", err)
		} else {
			log.Printf("Loaded state from slot %d", r.saves.Slot())
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			log.Printf("Save slot %d", r.saves.PreviousSlot())
		} else {
			log.Printf("Save slot %d", r.saves.NextSlot())
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF4) {
		rate := nextRate(r.sess.Rate())
		r.sess.SetRate(rate)
		log.Printf("Speed %gx", rate)
	}

	// Rewind while held
	if ebiten.IsKeyPressed(ebiten.KeyR) {
		r.rewindTick++
		if r.rewindTick >= rewindHoldInterval {
			r.rewindTick = 0
			r.sess.Rewind(1)
		}
	} else {
		r.rewindTick = 0
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF10) && r.player != nil {
		r.player.SetVolume(r.toggleMute())
		if r.muted {
			log.Printf("Audio muted")
		} else {
			log.Printf("Audio unmuted")
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF8) {
		r.activateCheatFromClipboard()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		pixels, stride, activeHeight := r.sharedFB.Read()
		path, err := SaveScreenshot(pixels, stride, activeHeight, r.screenshotScale, r.gameCRC)
		if err != nil {
			log.Printf("Screenshot failed: %v", err)
		} else {
			log.Printf("Screenshot saved to %s", path)
		}
	}
}

// toggleMute flips the mute state and returns the volume to apply:
// zero while muted, the configured volume otherwise.
func (r *Runner) toggleMute() float64 {
	r.muted = !r.muted
	if r.muted {
		return 0
	}
	return r.volume
}

// activateCheatFromClipboard treats the clipboard text as one cheat code,
// possibly multi-line.
func (r *Runner) activateCheatFromClipboard() {
	if !r.clipboardOK {
		log.Printf("Clipboard not available")
		return
	}
	code := strings.TrimSpace(string(clipboard.Read(clipboard.FmtText)))
	if code == "" {
		log.Printf("Clipboard is empty")
		return
	}

	if err := r.sess.ActivateCheat(code, emucore.CheatRaw); err != nil {
		log.Printf("Cheat rejected: %v", err)
		return
	}
	log.Printf("Cheat activated: %s", code)
}

// nextRate cycles the speed multiplier 1x -> 2x -> 3x -> 1x.
func nextRate(rate float64) float64 {
	switch {
	case rate < 2.0:
		return 2.0
	case rate < 3.0:
		return 3.0
	default:
		return 1.0
	}
}

// parseRegion converts a region string, using the factory's detection
// for "auto".
func parseRegion(regionStr string, factory emucore.CoreFactory, romData []byte) (emucore.Region, error) {
	switch strings.ToLower(regionStr) {
	case "auto":
		region, ok := factory.DetectRegion(romData)
		if !ok {
			return emucore.RegionNTSC, nil
		}
		return region, nil
	case "ntsc":
		return emucore.RegionNTSC, nil
	case "pal":
		return emucore.RegionPAL, nil
	default:
		return 0, fmt.Errorf("unknown region %q: use auto, ntsc, or pal", regionStr)
	}
}

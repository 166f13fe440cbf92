package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	emucore "github.com/user-none/edrive/api"
	"github.com/user-none/edrive/storage"
)

// ErrNoSaveState is returned when loading a save state whose file does
// not exist. No partial load occurs; the core is left untouched.
var ErrNoSaveState = errors.New("save state does not exist")

// ErrSaveStatesUnsupported is returned when the core cannot serialize
// its state.
var ErrSaveStatesUnsupported = errors.New("core does not support save states")

// SaveStates handles save state slot files, the resume state, and SRAM
// for one game, identified by its CRC32 hex string.
type SaveStates struct {
	currentSlot int
	gameID      string
}

// NewSaveStates creates a save state manager rooted at the game's save
// directory.
func NewSaveStates(gameID string) *SaveStates {
	return &SaveStates{gameID: gameID}
}

// Slot returns the current save slot.
func (m *SaveStates) Slot() int {
	return m.currentSlot
}

// NextSlot cycles to the next save slot (0-9) and returns it.
func (m *SaveStates) NextSlot() int {
	m.currentSlot = (m.currentSlot + 1) % 10
	return m.currentSlot
}

// PreviousSlot cycles to the previous save slot and returns it.
func (m *SaveStates) PreviousSlot() int {
	m.currentSlot--
	if m.currentSlot < 0 {
		m.currentSlot = 9
	}
	return m.currentSlot
}

func (m *SaveStates) saveDir() (string, error) {
	if m.gameID == "" {
		return "", fmt.Errorf("no game set")
	}
	return storage.GetGameSaveDir(m.gameID)
}

func (m *SaveStates) slotPath() (string, error) {
	dir, err := m.saveDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("state-%d.state", m.currentSlot)), nil
}

// Save serializes the core state into the current slot.
func (m *SaveStates) Save(ss emucore.SaveStater) error {
	path, err := m.slotPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	state, err := ss.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := os.WriteFile(path, state, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Load restores the core state from the current slot. Returns
// ErrNoSaveState (wrapped) if the slot file is absent; in that case
// nothing is loaded and the core is unchanged.
func (m *SaveStates) Load(ss emucore.SaveStater) error {
	path, err := m.slotPath()
	if err != nil {
		return err
	}

	state, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("slot %d: %w", m.currentSlot, ErrNoSaveState)
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := ss.Deserialize(state); err != nil {
		return fmt.Errorf("failed to deserialize state: %w", err)
	}
	return nil
}

// SaveResume captures the core state as the resume state.
func (m *SaveStates) SaveResume(ss emucore.SaveStater) error {
	dir, err := m.saveDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	state, err := ss.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "resume.state"), state, 0644)
}

// LoadResume restores the resume state. Returns ErrNoSaveState (wrapped)
// if none exists.
func (m *SaveStates) LoadResume(ss emucore.SaveStater) error {
	dir, err := m.saveDir()
	if err != nil {
		return err
	}

	state, err := os.ReadFile(filepath.Join(dir, "resume.state"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("resume: %w", ErrNoSaveState)
		}
		return fmt.Errorf("failed to read resume state: %w", err)
	}

	if err := ss.Deserialize(state); err != nil {
		return fmt.Errorf("failed to deserialize resume state: %w", err)
	}
	return nil
}

// HasResume reports whether a resume state exists.
func (m *SaveStates) HasResume() bool {
	dir, err := m.saveDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, "resume.state"))
	return err == nil
}

// SaveSRAM writes the cartridge SRAM if the ROM uses battery backup.
func (m *SaveStates) SaveSRAM(bs emucore.BatterySaver) error {
	if !bs.HasSRAM() {
		return nil
	}

	dir, err := m.saveDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "cart.srm"), bs.GetSRAM(), 0644)
}

// LoadSRAM loads the cartridge SRAM if present. A missing SRAM file is
// not an error.
func (m *SaveStates) LoadSRAM(bs emucore.BatterySaver) error {
	if !bs.HasSRAM() {
		return nil
	}

	dir, err := m.saveDir()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(dir, "cart.srm"))
	if err != nil {
		return nil
	}

	bs.SetSRAM(data)
	return nil
}

// SaveState serializes the core into the current slot, parking the
// execution goroutine for the duration.
func (s *Session) SaveState() error {
	if s.saveStater == nil {
		return ErrSaveStatesUnsupported
	}
	if s.saves == nil {
		return fmt.Errorf("no save state manager attached")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	s.suspendLocked(func() {
		err = s.saves.Save(s.saveStater)
	})
	return err
}

// LoadState restores the core from the current slot. On success all
// currently active logical inputs are re-asserted (loading a state does
// not preserve the core's input latches), the cheat set is re-applied,
// stale audio is flushed, the rewind history is cleared, and the video
// sink receives the restored frame. On failure the core, input, and
// cheat state are unchanged.
func (s *Session) LoadState() error {
	if s.saveStater == nil {
		return ErrSaveStatesUnsupported
	}
	if s.saves == nil {
		return fmt.Errorf("no save state manager attached")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	s.suspendLocked(func() {
		err = s.saves.Load(s.saveStater)
		if err != nil {
			return
		}
		s.afterRestore()
	})
	return err
}

// LoadResume restores the resume state captured by the last Stop.
func (s *Session) LoadResume() error {
	if s.saveStater == nil {
		return ErrSaveStatesUnsupported
	}
	if s.saves == nil {
		return fmt.Errorf("no save state manager attached")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	s.suspendLocked(func() {
		err = s.saves.LoadResume(s.saveStater)
		if err != nil {
			return
		}
		s.afterRestore()
	})
	return err
}

// afterRestore re-establishes session state after the core has been
// restored from a serialized blob. The core must be idle.
func (s *Session) afterRestore() {
	s.inputs.reassert(s.core)
	if s.cheater != nil {
		s.applyCheats()
	}
	if s.audioPlayer != nil {
		s.audioPlayer.Flush()
	}
	if s.rewind != nil {
		s.rewind.Reset()
	}
	if s.videoSink != nil {
		s.videoSink.DisplayFrame(s.core.Framebuffer(), s.core.FramebufferStride(), s.core.ActiveHeight())
	}
}

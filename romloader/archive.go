package romloader

import (
	"fmt"
	"io"
	"path/filepath"
)

// archiveEntry is one file inside an indexed archive (ZIP, 7z).
type archiveEntry struct {
	name string
	open func() (io.ReadCloser, error)
}

// pickEntry selects which archive entry to extract: the first entry with a
// recognized ROM extension, or, when the archive holds exactly one file,
// that file regardless of extension. Many ROMs ship zipped under odd names.
func pickEntry(entries []archiveEntry, extensions []string) (archiveEntry, error) {
	for _, e := range entries {
		if hasROMExt(e.name, extensions) {
			return e, nil
		}
	}
	if len(entries) == 1 {
		return entries[0], nil
	}
	return archiveEntry{}, ErrNoROMFile
}

// extractEntry reads the picked entry's contents.
func extractEntry(e archiveEntry) ([]byte, string, error) {
	rc, err := e.open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s in archive: %w", e.name, err)
	}
	defer rc.Close()

	data, err := readCapped(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", e.name, err)
	}
	return data, filepath.Base(e.name), nil
}

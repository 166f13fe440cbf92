package romloader

import (
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

func extract7z(path string, extensions []string) ([]byte, string, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open 7z: %w", err)
	}
	defer r.Close()

	var entries []archiveEntry
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, archiveEntry{
			name: f.Name,
			open: func() (io.ReadCloser, error) { return f.Open() },
		})
	}

	e, err := pickEntry(entries, extensions)
	if err != nil {
		return nil, "", err
	}
	return extractEntry(e)
}

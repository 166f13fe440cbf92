package romloader

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func extractGzip(path string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return extractTar(gr, extensions)
	}

	// Plain .gz wraps a single file; the decompressed content is the ROM.
	data, err := readCapped(gr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress gzip: %w", err)
	}

	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	return data, name, nil
}

func extractTar(r io.Reader, extensions []string) ([]byte, string, error) {
	tr := tar.NewReader(r)

	// Streaming format: take the first matching entry, or fall back to a
	// sole regular file the way pickEntry does for indexed archives.
	var soleData []byte
	var soleName string
	regular := 0

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		regular++
		if hasROMExt(header.Name, extensions) {
			data, err := readCapped(tr)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read %s from tar: %w", header.Name, err)
			}
			return data, filepath.Base(header.Name), nil
		}
		if regular == 1 {
			data, err := readCapped(tr)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read %s from tar: %w", header.Name, err)
			}
			soleData, soleName = data, filepath.Base(header.Name)
		}
	}

	if regular == 1 {
		return soleData, soleName, nil
	}
	return nil, "", ErrNoROMFile
}

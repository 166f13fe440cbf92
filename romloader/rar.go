package romloader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"
)

func extractRAR(path string, extensions []string) ([]byte, string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	var soleData []byte
	var soleName string
	regular := 0

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to read rar entry: %w", err)
		}
		if header.IsDir {
			continue
		}

		regular++
		if hasROMExt(header.Name, extensions) {
			data, err := readCapped(r)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
			}
			return data, filepath.Base(header.Name), nil
		}
		if regular == 1 {
			data, err := readCapped(r)
			if err != nil {
				return nil, "", fmt.Errorf("failed to read %s: %w", header.Name, err)
			}
			soleData, soleName = data, filepath.Base(header.Name)
		}
	}

	if regular == 1 {
		return soleData, soleName, nil
	}
	return nil, "", ErrNoROMFile
}

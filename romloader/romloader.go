// Package romloader loads ROM images from disk, transparently extracting
// them from ZIP, 7z, gzip, tar.gz and RAR archives. Every loaded ROM is
// identified by the CRC32 of its uncompressed data, which the rest of the
// player uses as the game's save-directory key.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ROM is a loaded ROM image.
type ROM struct {
	Data  []byte
	Name  string // basename of the ROM file, for display
	CRC32 string // lowercase hex CRC32 of Data
}

// ErrNoROMFile is returned when an archive contains no file with a
// recognized ROM extension.
var ErrNoROMFile = errors.New("no ROM file found in archive")

// ErrUnsupportedFormat is returned for files that are neither a known
// archive nor carry a recognized ROM extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrFileTooLarge is returned when extracted content exceeds the size limit.
var ErrFileTooLarge = errors.New("file exceeds maximum size limit")

// ROM images for the supported consoles are small; anything past this is
// either corrupt or not a ROM.
const maxROMSize = 8 * 1024 * 1024

var (
	magicZIP      = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEmpty = []byte{0x50, 0x4B, 0x05, 0x06}
	magic7z       = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip     = []byte{0x1F, 0x8B}
	magicRAR      = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

type format int

const (
	formatUnknown format = iota
	formatRaw
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Load reads a ROM from path. Archives are detected by magic bytes (with
// an extension fallback) and the first entry matching one of the given
// ROM extensions is extracted; an archive holding a single file is
// accepted even when that file's extension is unrecognized. Raw files
// must carry one of the extensions.
func Load(path string, extensions []string) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}

	var data []byte
	var name string

	switch sniffFormat(header[:n], path, extensions) {
	case formatRaw:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek file: %w", err)
		}
		data, err = readCapped(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read ROM: %w", err)
		}
		name = filepath.Base(path)

	case formatZIP:
		data, name, err = extractZIP(path, extensions)

	case format7z:
		data, name, err = extract7z(path, extensions)

	case formatGzip:
		data, name, err = extractGzip(path, extensions)

	case formatRAR:
		data, name, err = extractRAR(path, extensions)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}

	return &ROM{
		Data:  data,
		Name:  name,
		CRC32: fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)),
	}, nil
}

// sniffFormat decides the container format from magic bytes, falling back
// to the file extension.
func sniffFormat(header []byte, path string, extensions []string) format {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEmpty):
		return formatZIP
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	lower := strings.ToLower(path)
	switch filepath.Ext(lower) {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".gz", ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	}

	if hasROMExt(path, extensions) {
		return formatRaw
	}
	return formatUnknown
}

// hasROMExt reports whether name ends in one of the ROM extensions,
// case-insensitively.
func hasROMExt(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// readCapped reads all of r, failing if it exceeds maxROMSize.
func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

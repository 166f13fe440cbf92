package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var testExts = []string{".sms", ".gg"}

func writeZip(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func writeGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func writeTarGz(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, data := range files {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(data))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write(data); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestLoadRawFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sms")
	data := []byte("hello world")
	os.WriteFile(path, data, 0644)

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(rom.Data, data) {
		t.Error("data mismatch")
	}
	if rom.Name != "game.sms" {
		t.Errorf("expected name 'game.sms', got %q", rom.Name)
	}
	// CRC32 (IEEE) of "hello world"
	if rom.CRC32 != "0d4a1185" {
		t.Errorf("expected CRC32 0d4a1185, got %s", rom.CRC32)
	}
}

func TestLoadRawFileUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.bin")
	os.WriteFile(path, []byte("data"), 0644)

	_, err := Load(path, testExts)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")
	writeZip(t, path, map[string][]byte{
		"readme.txt": []byte("ignore me"),
		"game.sms":   []byte("rom data"),
	})

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(rom.Data) != "rom data" {
		t.Errorf("expected 'rom data', got %q", rom.Data)
	}
	if rom.Name != "game.sms" {
		t.Errorf("expected name 'game.sms', got %q", rom.Name)
	}
}

func TestLoadZipWrongExtensionName(t *testing.T) {
	// Magic bytes win over the .sms extension on the container
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sms")
	writeZip(t, path, map[string][]byte{"inner.sms": []byte("rom data")})

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(rom.Data) != "rom data" {
		t.Errorf("expected extracted data, got %q", rom.Data)
	}
}

func TestLoadZipSingleFileFallback(t *testing.T) {
	// An archive with exactly one file is accepted even if the extension
	// is unrecognized
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")
	writeZip(t, path, map[string][]byte{"weird.bin": []byte("rom data")})

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rom.Name != "weird.bin" {
		t.Errorf("expected name 'weird.bin', got %q", rom.Name)
	}
}

func TestLoadZipNoMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.zip")
	writeZip(t, path, map[string][]byte{
		"a.txt": []byte("one"),
		"b.txt": []byte("two"),
	})

	_, err := Load(path, testExts)
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("expected ErrNoROMFile, got %v", err)
	}
}

func TestLoadGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sms.gz")
	writeGzip(t, path, []byte("rom data"))

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(rom.Data) != "rom data" {
		t.Errorf("expected 'rom data', got %q", rom.Data)
	}
	if rom.Name != "game.sms" {
		t.Errorf("expected name 'game.sms', got %q", rom.Name)
	}
}

func TestLoadTarGz(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.tar.gz")
	writeTarGz(t, path, map[string][]byte{
		"notes.txt": []byte("ignore"),
		"game.gg":   []byte("rom data"),
	})

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rom.Name != "game.gg" {
		t.Errorf("expected name 'game.gg', got %q", rom.Name)
	}
	if string(rom.Data) != "rom data" {
		t.Errorf("expected 'rom data', got %q", rom.Data)
	}
}

func TestLoadTarGzSingleFileFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.tar.gz")
	writeTarGz(t, path, map[string][]byte{"only.bin": []byte("rom data")})

	rom, err := Load(path, testExts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rom.Name != "only.bin" {
		t.Errorf("expected name 'only.bin', got %q", rom.Name)
	}
}

func TestLoadTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.sms.gz")
	writeGzip(t, path, make([]byte, maxROMSize+1))

	_, err := Load(path, testExts)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoadNonexistent(t *testing.T) {
	_, err := Load("/nonexistent/game.sms", testExts)
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name     string
		header   []byte
		path     string
		expected format
	}{
		{"zip magic", magicZIP, "file.bin", formatZIP},
		{"empty zip magic", magicZIPEmpty, "file.bin", formatZIP},
		{"7z magic", magic7z, "file.bin", format7z},
		{"gzip magic", magicGzip, "file.bin", formatGzip},
		{"rar magic", magicRAR, "file.bin", formatRAR},
		{"zip by extension", []byte{0, 0, 0, 0}, "file.zip", formatZIP},
		{"7z by extension", []byte{0, 0, 0, 0}, "file.7z", format7z},
		{"rar by extension", []byte{0, 0, 0, 0}, "file.rar", formatRAR},
		{"tgz by extension", []byte{0, 0, 0, 0}, "file.tgz", formatGzip},
		{"raw rom extension", []byte{0, 0, 0, 0}, "game.sms", formatRaw},
		{"raw rom uppercase", []byte{0, 0, 0, 0}, "GAME.SMS", formatRaw},
		{"unknown", []byte{0, 0, 0, 0}, "file.bin", formatUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sniffFormat(tc.header, tc.path, testExts)
			if got != tc.expected {
				t.Errorf("sniffFormat(%q) = %d, want %d", tc.path, got, tc.expected)
			}
		})
	}
}

func TestHasROMExt(t *testing.T) {
	if !hasROMExt("game.sms", testExts) {
		t.Error("expected .sms to match")
	}
	if !hasROMExt("GAME.GG", testExts) {
		t.Error("expected case-insensitive match")
	}
	if hasROMExt("game.nes", testExts) {
		t.Error("expected .nes to not match")
	}
}

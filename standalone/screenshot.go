package standalone

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/user-none/edrive/storage"
)

// SaveScreenshot writes the frame as a PNG under the screenshots
// directory, in a per-game subdirectory when gameCRC is set. The image is
// integer-scaled with nearest-neighbor so the pixels stay crisp. Returns
// the written path.
func SaveScreenshot(pixels []byte, stride, activeHeight, scale int, gameCRC string) (string, error) {
	if stride == 0 || activeHeight == 0 || len(pixels) < stride*activeHeight {
		return "", fmt.Errorf("no frame to capture")
	}
	if scale < 1 {
		scale = 1
	}

	width := stride / 4
	src := &image.RGBA{
		Pix:    pixels[:stride*activeHeight],
		Stride: stride,
		Rect:   image.Rect(0, 0, width, activeHeight),
	}

	out := image.NewRGBA(image.Rect(0, 0, width*scale, activeHeight*scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	dir, err := storage.GetScreenshotDir()
	if err != nil {
		return "", err
	}
	if gameCRC != "" {
		dir = filepath.Join(dir, gameCRC)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.png", time.Now().Unix()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return path, nil
}

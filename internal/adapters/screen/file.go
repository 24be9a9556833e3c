package screen

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/lcalzada-xor/cyberpet/internal/core/ports"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var _ ports.ScreenshotSource = (*FileSource)(nil)

// FileSource reads the most recent screenshot written by a desktop helper.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, fmt.Errorf("screenshot %s is not a PNG image", f.path)
	}
	return data, nil
}

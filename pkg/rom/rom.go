// Package rom reads CHIP-8 program images from disk.
package rom

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gochip8/pkg/chip8"
)

var ErrEmpty = errors.New("rom is empty")

// Image is a ROM read from a file.
type Image struct {
	Name string
	Path string
	Data []byte
}

// ResolvePath returns the cleaned absolute form of relPath.
func ResolvePath(relPath string) (string, error) {
	fullPath, err := filepath.Abs(relPath)
	if err != nil {
		return "", err
	}
	return fullPath, nil
}

// Load reads the ROM at path.
func Load(path string) (*Image, error) {
	fullPath, err := ResolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving rom path %q: %w", path, err)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("opening rom: %w", err)
	}
	defer f.Close()

	return read(f, filepath.Base(fullPath), fullPath)
}

// LoadFS reads the first regular file found in fsys, such as the set of
// files dropped onto a window.
func LoadFS(fsys fs.FS) (*Image, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		f, err := fsys.Open(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("opening rom: %w", err)
		}
		img, err := read(f, entry.Name(), entry.Name())
		_ = f.Close()
		return img, err
	}
	return nil, fmt.Errorf("no rom file: %w", fs.ErrNotExist)
}

func read(r io.Reader, name, path string) (*Image, error) {
	// Read one byte past the limit to detect oversized files without
	// loading them whole.
	data, err := io.ReadAll(io.LimitReader(r, chip8.MaxROMSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading rom %q: %w", name, err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("rom %q: %w", name, err)
	}
	return &Image{Name: name, Path: path, Data: data}, nil
}

// Validate checks that data fits into CHIP-8 program memory.
func Validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if len(data) > chip8.MaxROMSize {
		return fmt.Errorf("%w: more than %d bytes", chip8.ErrROMTooLarge, chip8.MaxROMSize)
	}
	return nil
}

// Title derives a display title from the ROM file name.
func (img *Image) Title() string {
	return strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
}

package chip8

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"gochip8/pkg/grid"
)

// drawSprite XORs rows bytes at I onto the framebuffer with the top-left
// corner at (x, y), wrapping at the screen edges. It reports whether any
// set pixel was cleared.
func (m *Machine) drawSprite(x, y, rows int) bool {
	collided := false
	for row := 0; row < rows; row++ {
		line := m.memory[int(m.i)+row]
		for col := 0; col < 8; col++ {
			if line&(0x80>>col) == 0 {
				continue
			}
			if m.xorPixel(x+col, y+row) {
				collided = true
			}
		}
	}
	return collided
}

// pixelBit returns the framebuffer address and bit mask of the pixel at
// (x mod 64, y mod 32).
func pixelBit(x, y int) (int, byte) {
	idx := grid.GetIndex(x%Width, y%Height, Width)
	return FramebufferStart + idx/8, byte(0x80) >> (idx % 8)
}

// xorPixel flips the pixel at (x mod 64, y mod 32) and reports whether it
// was set before.
func (m *Machine) xorPixel(x, y int) bool {
	addr, mask := pixelBit(x, y)
	wasSet := m.memory[addr]&mask != 0
	m.memory[addr] ^= mask
	return wasSet
}

// Framebuffer returns a copy of the 256 byte bit-packed display, row-major
// with the leftmost pixel in the most significant bit.
func (m *Machine) Framebuffer() []byte {
	out := make([]byte, FramebufferSize)
	copy(out, m.memory[FramebufferStart:])
	return out
}

// Pixel reports whether the pixel at (x, y) is lit. Non-negative coordinates
// wrap at the screen edges.
func (m *Machine) Pixel(x, y int) bool {
	addr, mask := pixelBit(x, y)
	return m.memory[addr]&mask != 0
}

// FrameGrayscale expands the framebuffer to one byte per pixel,
// 0xFF for lit pixels and 0x00 otherwise.
func (m *Machine) FrameGrayscale() []byte {
	frame := make([]byte, Width*Height)
	for i := range frame {
		x, y := grid.GetGridCoords(i, Width)
		if m.Pixel(x, y) {
			frame[i] = 0xFF
		}
	}
	return frame
}

// DefaultPalette is white on black.
var DefaultPalette = Palette{
	On:  color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	Off: color.RGBA{A: 0xFF},
}

// Palette holds the colours used for lit and unlit pixels.
type Palette struct {
	On  color.RGBA
	Off color.RGBA
}

// GetFramebufferRGBA decodes the framebuffer into a 64×32 RGBA8888 byte
// slice (length 64*32*4 = 8192).
func (m *Machine) GetFramebufferRGBA(p Palette) []byte {
	pixels := make([]byte, Width*Height*4)
	for i, v := range m.FrameGrayscale() {
		c := p.Off
		if v != 0 {
			c = p.On
		}
		pixels[i*4+0] = c.R
		pixels[i*4+1] = c.G
		pixels[i*4+2] = c.B
		pixels[i*4+3] = c.A
	}
	return pixels
}

// GetFramebufferImage returns the framebuffer as an *image.RGBA.
func (m *Machine) GetFramebufferImage(p Palette) *image.RGBA {
	return &image.RGBA{
		Pix:    m.GetFramebufferRGBA(p),
		Stride: Width * 4,
		Rect:   image.Rect(0, 0, Width, Height),
	}
}

// SaveScreenshot encodes the framebuffer as a PNG scaled by scale and writes
// it to filename.
func (m *Machine) SaveScreenshot(filename string, scale int) error {
	if scale < 1 {
		scale = 1
	}
	src := m.GetFramebufferImage(DefaultPalette)
	img := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
	for y := 0; y < Height*scale; y++ {
		for x := 0; x < Width*scale; x++ {
			img.SetRGBA(x, y, src.RGBAAt(x/scale, y/scale))
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

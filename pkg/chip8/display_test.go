package chip8

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

// glyphROM draws the font glyph for digit at (x, y) twice.
func glyphROM(digit, x, y byte) []byte {
	return []byte{
		0x60, digit, // V0 = digit
		0xF0, 0x29, // I = glyph
		0x61, x, // V1 = x
		0x62, y, // V2 = y
		0xD1, 0x25, // SPRITE V1, V2, 5
		0xD1, 0x25, // SPRITE V1, V2, 5
	}
}

func TestDrawXOR(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 10, 5)...)
	stepN(t, m, 5)

	assert.Equal(t, byte(0), m.Registers()[0xF])
	// glyph 0 is F0 90 90 90 F0
	assert.True(t, m.Pixel(10, 5))
	assert.True(t, m.Pixel(13, 5))
	assert.False(t, m.Pixel(14, 5))
	assert.True(t, m.Pixel(10, 6))
	assert.False(t, m.Pixel(11, 6))
	assert.True(t, m.Pixel(13, 6))
	assert.True(t, m.Pixel(12, 9))
	assert.False(t, m.Pixel(12, 10))

	// drawing the same sprite again erases it and reports the collision
	stepN(t, m, 1)
	assert.Equal(t, byte(1), m.Registers()[0xF])
	assert.Equal(t, make([]byte, FramebufferSize), m.Framebuffer())
}

func TestDrawBitLayout(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 0, 0)...)
	stepN(t, m, 5)

	fb := m.Framebuffer()
	assert.Equal(t, byte(0xF0), fb[0])
	assert.Equal(t, byte(0x90), fb[8])
	assert.Equal(t, byte(0xF0), fb[32])
	assert.Equal(t, byte(0), fb[1])

	// the framebuffer lives at the top of memory
	assert.Equal(t, fb, m.Memory()[FramebufferStart:])
}

func TestDrawWraps(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 62, 30)...)
	stepN(t, m, 5)

	// row 0 at y=30 spans x=62,63,0,1
	assert.True(t, m.Pixel(62, 30))
	assert.True(t, m.Pixel(63, 30))
	assert.True(t, m.Pixel(0, 30))
	assert.True(t, m.Pixel(1, 30))
	assert.False(t, m.Pixel(2, 30))
	assert.True(t, m.Pixel(62+Width, 30+Height))
	assert.True(t, m.Pixel(Width, 30))

	// row 2 wraps to y=0, 0x90 lights x=62 and x=1
	assert.True(t, m.Pixel(62, 0))
	assert.False(t, m.Pixel(63, 0))
	assert.True(t, m.Pixel(1, 0))
	assert.True(t, m.Pixel(62, 2))
	assert.False(t, m.Pixel(62, 3))
}

func TestDrawCoordinatesWrapModulo(t *testing.T) {
	// V1=64+3 and V2=32+1 draw at (3, 1)
	m := newTestMachine(t, glyphROM(1, 67, 33)...)
	stepN(t, m, 5)

	// glyph 1 row 0 is 0x20
	assert.True(t, m.Pixel(5, 1))
	assert.False(t, m.Pixel(4, 1))
}

func TestClearScreen(t *testing.T) {
	rom := append(glyphROM(8, 20, 10)[:10], 0x00, 0xE0)
	m := newTestMachine(t, rom...)
	stepN(t, m, 5)
	assert.True(t, m.Pixel(20, 10))

	stepN(t, m, 1)
	assert.Equal(t, make([]byte, FramebufferSize), m.Framebuffer())
	assert.Equal(t, uint16(0x20C), m.PC())
	assert.Equal(t, byte(8), m.Registers()[0])
}

func TestDrawZeroRows(t *testing.T) {
	m := newTestMachine(t, 0x6F, 0x01, 0xD0, 0x00)
	stepN(t, m, 2)
	assert.Equal(t, byte(0), m.Registers()[0xF])
	assert.Equal(t, make([]byte, FramebufferSize), m.Framebuffer())
}

func TestFrameGrayscale(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 0, 0)...)
	stepN(t, m, 5)

	frame := m.FrameGrayscale()
	assert.Equal(t, Width*Height, len(frame))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00}, frame[0:5])
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0xFF, 0x00}, frame[Width:Width+5])
	assert.Equal(t, byte(0), frame[len(frame)-1])
}

func TestFramebufferRGBA(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 0, 0)...)
	stepN(t, m, 5)

	pixels := m.GetFramebufferRGBA(DefaultPalette)
	assert.Equal(t, Width*Height*4, len(pixels))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, pixels[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xFF}, pixels[4*4:5*4])

	img := m.GetFramebufferImage(DefaultPalette)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())
	assert.Equal(t, DefaultPalette.On, img.RGBAAt(3, 0))
	assert.Equal(t, DefaultPalette.Off, img.RGBAAt(4, 0))
}

func TestSaveScreenshot(t *testing.T) {
	m := newTestMachine(t, glyphROM(0, 0, 0)...)
	stepN(t, m, 5)

	filename := filepath.Join(t.TempDir(), "screen.png")
	assert.NoError(t, m.SaveScreenshot(filename, 4))

	f, err := os.Open(filename)
	assert.NoError(t, err)
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	assert.NoError(t, err)
	assert.Equal(t, Width*4, img.Bounds().Dx())
	assert.Equal(t, Height*4, img.Bounds().Dy())

	r, _, _, _ := img.At(15, 3).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	r, _, _, _ = img.At(16, 3).RGBA()
	assert.Equal(t, uint32(0), r)
}

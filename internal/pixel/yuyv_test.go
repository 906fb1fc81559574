package pixel

import (
	"bytes"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/videotools/vcap/internal/capture"
)

// yuyvGray builds a width×height buffer with uniform luma and neutral
// chroma.
func yuyvGray(width, height int, luma byte) []byte {
	buf := make([]byte, width*height*2)
	for i := 0; i < len(buf); i += 4 {
		buf[i] = luma
		buf[i+1] = 128
		buf[i+2] = luma
		buf[i+3] = 128
	}
	return buf
}

func TestToRGBAKnownFixture(t *testing.T) {
	// 2x2 frame, neutral chroma, luma 16: every output channel is
	// (16<<8)>>8 = 16.
	buf := []byte{16, 128, 16, 128, 16, 128, 16, 128}

	img, err := ToRGBA(buf, 2, 2)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if r>>8 != 16 || g>>8 != 16 || b>>8 != 16 {
				t.Errorf("pixel (%d,%d) = (%d,%d,%d), want (16,16,16)",
					x, y, r>>8, g>>8, b>>8)
			}
			if a>>8 != 255 {
				t.Errorf("pixel (%d,%d) alpha = %d, want 255", x, y, a>>8)
			}
		}
	}
}

func TestToRGBAFixedPointTransform(t *testing.T) {
	// One pixel pair with saturated chroma. Expected values follow
	// the integer transform with factors 359/88/183/454 and an
	// 8-bit shift, clamped to [0,255].
	buf := []byte{128, 255, 128, 255, 0, 0, 0, 0} // 4x1 frame

	img, err := ToRGBA(buf, 4, 1)
	if err != nil {
		t.Fatalf("ToRGBA: %v", err)
	}

	y := 128 << 8
	u, v := 255-128, 255-128
	wantR := clamp((y + 359*v) >> 8)
	wantG := clamp((y - 88*u - 183*v) >> 8)
	wantB := clamp((y + 454*u) >> 8)

	r, g, b, _ := img.At(0, 0).RGBA()
	if byte(r>>8) != wantR || byte(g>>8) != wantG || byte(b>>8) != wantB {
		t.Errorf("pixel = (%d,%d,%d), want (%d,%d,%d)",
			r>>8, g>>8, b>>8, wantR, wantG, wantB)
	}

	// Second half of the buffer: y=0, u=v=-128 drives red and green
	// below zero, which must clamp to 0, and nothing exceeds 255.
	r2, g2, b2, _ := img.At(2, 0).RGBA()
	for name, ch := range map[string]uint32{"r": r2 >> 8, "g": g2 >> 8, "b": b2 >> 8} {
		if ch > 255 {
			t.Errorf("channel %s = %d out of range", name, ch)
		}
	}
	if r2 != 0 {
		t.Errorf("red = %d, want clamped 0", r2>>8)
	}
}

func TestToRGBAProducesFullFrame(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{2, 2},
		{4, 1},
		{640, 480},
		{320, 240},
	}

	for _, tt := range tests {
		buf := yuyvGray(tt.width, tt.height, 100)
		img, err := ToRGBA(buf, tt.width, tt.height)
		if err != nil {
			t.Fatalf("ToRGBA(%dx%d): %v", tt.width, tt.height, err)
		}
		if got := img.Bounds(); got.Dx() != tt.width || got.Dy() != tt.height {
			t.Errorf("bounds = %v, want %dx%d", got, tt.width, tt.height)
		}
	}
}

func TestToRGBARejectsBadInput(t *testing.T) {
	tests := []struct {
		name          string
		buf           []byte
		width, height int
	}{
		{"short buffer", make([]byte, 7), 2, 2},
		{"odd width", make([]byte, 18), 3, 3},
		{"zero width", nil, 0, 2},
		{"negative height", nil, 2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToRGBA(tt.buf, tt.width, tt.height); err == nil {
				t.Errorf("ToRGBA(%d bytes, %dx%d) succeeded, want error",
					len(tt.buf), tt.width, tt.height)
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	frame := &capture.Frame{
		Data:   yuyvGray(32, 24, 90),
		Width:  32,
		Height: 24,
	}

	var first, second bytes.Buffer
	if err := EncodeJPEG(&first, frame, 95); err != nil {
		t.Fatalf("first encode: %v", err)
	}
	if err := EncodeJPEG(&second, frame, 95); err != nil {
		t.Fatalf("second encode: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Errorf("identical input produced different encodings")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := &capture.Frame{
		Data:   []byte{16, 128, 16, 128, 16, 128, 16, 128},
		Width:  2,
		Height: 2,
	}

	var out bytes.Buffer
	if err := EncodeJPEG(&out, frame, 95); err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}

	img, err := jpeg.Decode(&out)
	if err != nil {
		t.Fatalf("decoding our own output: %v", err)
	}

	if got := img.Bounds(); got.Dx() != 2 || got.Dy() != 2 {
		t.Fatalf("decoded bounds = %v, want 2x2", got)
	}

	// Quality-95 lossy tolerance around the converted value of 16.
	const tolerance = 8
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			for _, ch := range []int{int(r >> 8), int(g >> 8), int(b >> 8)} {
				if ch < 16-tolerance || ch > 16+tolerance {
					t.Errorf("pixel (%d,%d) channel = %d, want 16±%d", x, y, ch, tolerance)
				}
			}
		}
	}
}

func TestSaveJPEGWritesFile(t *testing.T) {
	frame := &capture.Frame{
		Data:   yuyvGray(16, 16, 120),
		Width:  16,
		Height: 16,
	}

	path := filepath.Join(t.TempDir(), "out.jpg")
	if err := SaveJPEG(path, frame, 0); err != nil {
		t.Fatalf("SaveJPEG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("file dimensions = %dx%d, want 16x16", cfg.Width, cfg.Height)
	}
}

func TestSaveJPEGLeavesNoPartialFile(t *testing.T) {
	frame := &capture.Frame{
		Data:   make([]byte, 4), // too short for 4x4
		Width:  4,
		Height: 4,
	}

	path := filepath.Join(t.TempDir(), "broken.jpg")
	err := SaveJPEG(path, frame, 95)
	if err == nil {
		t.Fatalf("SaveJPEG succeeded on truncated frame")
	}

	var cerr *capture.Error
	if !errors.As(err, &cerr) || cerr.Code != capture.ErrCodeEncodeFailed {
		t.Errorf("error = %v, want %s", err, capture.ErrCodeEncodeFailed)
	}

	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("partial output file left behind")
	}
}

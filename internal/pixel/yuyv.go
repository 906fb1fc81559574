// Package pixel converts packed-422 capture buffers to RGB and encodes
// them as JPEG.
package pixel

import (
	"fmt"
	"image"
)

// ToRGBA expands a packed YUYV buffer into an RGBA image, scanline by
// scanline. Each 4-byte quad Y0/U/Y1/V yields two pixels sharing one
// chroma pair. The fixed-point factors mirror the usual integer
// approximation of the YUV→RGB transform.
func ToRGBA(yuyv []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("width %d is not even", width)
	}
	if need := width * height * 2; len(yuyv) < need {
		return nil, fmt.Errorf("buffer too short: have %d bytes, need %d for %dx%d",
			len(yuyv), need, width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for row := 0; row < height; row++ {
		src := yuyv[row*width*2:]
		dst := img.Pix[row*img.Stride:]

		for x := 0; x < width; x += 2 {
			quad := src[x*2 : x*2+4]
			y0 := int(quad[0]) << 8
			u := int(quad[1]) - 128
			y1 := int(quad[2]) << 8
			v := int(quad[3]) - 128

			writeRGB(dst[x*4:], y0, u, v)
			writeRGB(dst[x*4+4:], y1, u, v)
		}
	}

	return img, nil
}

func writeRGB(dst []byte, y, u, v int) {
	r := (y + 359*v) >> 8
	g := (y - 88*u - 183*v) >> 8
	b := (y + 454*u) >> 8

	dst[0] = clamp(r)
	dst[1] = clamp(g)
	dst[2] = clamp(b)
	dst[3] = 0xff
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

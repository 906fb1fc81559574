//go:build linux

package v4l2

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/unix"
)

// FormatDesc is one entry of the device's pixel format enumeration.
type FormatDesc struct {
	PixelFormat uint32
	Description string
}

// ListFormats enumerates the pixel formats the device can capture.
func (d *Device) ListFormats() ([]FormatDesc, error) {
	var items []FormatDesc
	for i := uint32(0); ; i++ {
		fd := v4l2FmtDesc{
			index: i,
			typ:   V4L2_BUF_TYPE_VIDEO_CAPTURE,
		}
		if err := d.ioctl(VIDIOC_ENUM_FMT, unsafe.Pointer(&fd)); err != nil {
			if errors.Is(err, unix.EINVAL) {
				break // end of enumeration
			}
			return nil, err
		}
		items = append(items, FormatDesc{
			PixelFormat: fd.pixelformat,
			Description: cstr(fd.description[:]),
		})
	}
	return items, nil
}

// ListFrameSizes enumerates the discrete frame sizes supported for a
// pixel format. Stepwise and continuous ranges are skipped.
func (d *Device) ListFrameSizes(pixFmt uint32) ([][2]uint32, error) {
	var items [][2]uint32
	for i := uint32(0); ; i++ {
		fs := v4l2FrmSizeEnum{
			index:        i,
			pixel_format: pixFmt,
		}
		if err := d.ioctl(VIDIOC_ENUM_FRAMESIZES, unsafe.Pointer(&fs)); err != nil {
			if errors.Is(err, unix.EINVAL) {
				break
			}
			return nil, err
		}
		if fs.typ != V4L2_FRMSIZE_TYPE_DISCRETE {
			continue
		}
		items = append(items, [2]uint32{fs.discrete.width, fs.discrete.height})
	}
	return items, nil
}

// FourCC renders a pixel format code as its four character tag.
func FourCC(v uint32) string {
	return string([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

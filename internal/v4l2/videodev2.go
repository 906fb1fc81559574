//go:build linux

package v4l2

// Kernel ABI definitions from include/uapi/linux/videodev2.h. Only the
// single-planar video-capture subset this package drives is declared.

const (
	V4L2_BUF_TYPE_VIDEO_CAPTURE = 1
	V4L2_FIELD_ANY              = 0
	V4L2_MEMORY_MMAP            = 1
	V4L2_FRMSIZE_TYPE_DISCRETE  = 1

	V4L2_CAP_VIDEO_CAPTURE = 0x00000001
	V4L2_CAP_STREAMING     = 0x04000000

	// Packed 4:2:2, two pixels per Y0/U/Y1/V quad.
	V4L2_PIX_FMT_YUYV = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
)

type v4l2Capability struct {
	driver       [16]byte
	card         [32]byte
	bus_info     [32]byte
	version      uint32
	capabilities uint32
	device_caps  uint32
	reserved     [3]uint32
}

type v4l2PixFormat struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcr_enc    uint32
	quantization uint32
	xfer_func    uint32

	_ [152]byte // pad the fmt union to 200 bytes
}

type v4l2RequestBuffers struct {
	count        uint32
	typ          uint32
	memory       uint32
	capabilities uint32
	flags        uint8
	reserved     [3]uint8
}

type v4l2Timecode struct {
	typ      uint32
	flags    uint32
	frames   uint8
	seconds  uint8
	minutes  uint8
	hours    uint8
	userbits [4]uint8
}

type v4l2FmtDesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbus_code   uint32
	reserved    [3]uint32
}

type v4l2FrmSizeEnum struct {
	index        uint32
	pixel_format uint32
	typ          uint32
	discrete     v4l2FrmSizeDiscrete
	_            [16]byte // rest of the stepwise union
	reserved     [2]uint32
}

type v4l2FrmSizeDiscrete struct {
	width  uint32
	height uint32
}

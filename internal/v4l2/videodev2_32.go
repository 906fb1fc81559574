//go:build linux && (386 || arm)

package v4l2

// ioctl request codes for 32-bit kernels.
const (
	VIDIOC_QUERYCAP        = 0x80685600
	VIDIOC_ENUM_FMT        = 0xc0405602
	VIDIOC_G_FMT           = 0xc0cc5604
	VIDIOC_S_FMT           = 0xc0cc5605
	VIDIOC_REQBUFS         = 0xc0145608
	VIDIOC_QUERYBUF        = 0xc0445609
	VIDIOC_QBUF            = 0xc044560f
	VIDIOC_DQBUF           = 0xc0445611
	VIDIOC_STREAMON        = 0x40045612
	VIDIOC_STREAMOFF       = 0x40045613
	VIDIOC_ENUM_FRAMESIZES = 0xc02c564a
)

type v4l2Format struct {
	typ uint32
	pix v4l2PixFormat
}

type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	timestamp [8]byte // struct timeval
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	offset    uint32 // union m
	length    uint32
	reserved2 uint32
	requestFD uint32
}

func (b *v4l2Buffer) mmapOffset() uint32 {
	return b.offset
}

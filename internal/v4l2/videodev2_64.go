//go:build linux && (amd64 || arm64 || riscv64)

package v4l2

import "encoding/binary"

// ioctl request codes for 64-bit kernels (struct sizes encoded in the
// request differ from the 32-bit ABI).
const (
	VIDIOC_QUERYCAP        = 0x80685600
	VIDIOC_ENUM_FMT        = 0xc0405602
	VIDIOC_G_FMT           = 0xc0d05604
	VIDIOC_S_FMT           = 0xc0d05605
	VIDIOC_REQBUFS         = 0xc0145608
	VIDIOC_QUERYBUF        = 0xc0585609
	VIDIOC_QBUF            = 0xc058560f
	VIDIOC_DQBUF           = 0xc0585611
	VIDIOC_STREAMON        = 0x40045612
	VIDIOC_STREAMOFF       = 0x40045613
	VIDIOC_ENUM_FRAMESIZES = 0xc02c564a
)

type v4l2Format struct {
	typ uint32
	_   uint32 // the fmt union is 8-byte aligned
	pix v4l2PixFormat
}

type v4l2Buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	_         [4]byte
	timestamp [16]byte // struct timeval
	timecode  v4l2Timecode
	sequence  uint32
	memory    uint32
	m         [8]byte // union: mmap offset in the first 4 bytes
	length    uint32
	reserved2 uint32
	requestFD uint32
	_         [4]byte
}

func (b *v4l2Buffer) mmapOffset() uint32 {
	return binary.NativeEndian.Uint32(b.m[:4])
}

//go:build linux

// Package v4l2 drives a Video4Linux2 capture device through its ioctl
// interface with a single memory-mapped kernel buffer.
package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/videotools/vcap/internal/capture"
)

// Device is an open V4L2 capture device. It implements capture.Device.
type Device struct {
	fd   int
	path string

	mmap      []byte
	bufLength uint32
	bufOffset uint32
}

var _ capture.Device = (*Device)(nil)

// Open opens the device node read/write.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Device{fd: fd, path: path}, nil
}

// Close releases the device handle.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// ioctl issues the request, transparently retrying when the syscall is
// interrupted by a signal.
func (d *Device) ioctl(req uint, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), uintptr(req), uintptr(arg))
		if errno == 0 {
			return nil
		}
		if errno == unix.EINTR {
			continue
		}
		return errno
	}
}

// Capabilities queries VIDIOC_QUERYCAP.
func (d *Device) Capabilities() (capture.Capabilities, error) {
	var c v4l2Capability
	if err := d.ioctl(VIDIOC_QUERYCAP, unsafe.Pointer(&c)); err != nil {
		return capture.Capabilities{}, fmt.Errorf("VIDIOC_QUERYCAP: %w", err)
	}
	return capture.Capabilities{
		Driver:    cstr(c.driver[:]),
		Card:      cstr(c.card[:]),
		Bus:       cstr(c.bus_info[:]),
		Version:   fmt.Sprintf("%d.%d.%d", byte(c.version>>16), byte(c.version>>8), byte(c.version)),
		Raw:       c.capabilities,
		Capture:   c.capabilities&V4L2_CAP_VIDEO_CAPTURE != 0,
		Streaming: c.capabilities&V4L2_CAP_STREAMING != 0,
	}, nil
}

// SetFormat requests a YUYV frame of the given size and re-reads the
// active format, since drivers may silently adjust the geometry.
func (d *Device) SetFormat(width, height uint32) (capture.Format, error) {
	f := v4l2Format{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		pix: v4l2PixFormat{
			width:       width,
			height:      height,
			pixelformat: V4L2_PIX_FMT_YUYV,
			field:       V4L2_FIELD_ANY,
		},
	}
	if err := d.ioctl(VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return capture.Format{}, fmt.Errorf("VIDIOC_S_FMT: %w", err)
	}

	f = v4l2Format{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	if err := d.ioctl(VIDIOC_G_FMT, unsafe.Pointer(&f)); err != nil {
		return capture.Format{}, fmt.Errorf("VIDIOC_G_FMT: %w", err)
	}

	return capture.Format{Width: f.pix.width, Height: f.pix.height}, nil
}

// RequestBuffer asks the driver for exactly one mmap buffer and queries
// its kernel-assigned length and offset.
func (d *Device) RequestBuffer() (int, error) {
	rb := v4l2RequestBuffers{
		count:  1,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := d.ioctl(VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return 0, fmt.Errorf("%w: VIDIOC_REQBUFS: %v", capture.ErrIONotSupported, err)
		}
		return 0, fmt.Errorf("VIDIOC_REQBUFS: %w", err)
	}

	qb := v4l2Buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
		index:  0,
	}
	if err := d.ioctl(VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
		return 0, fmt.Errorf("VIDIOC_QUERYBUF: %w", err)
	}

	d.bufLength = qb.length
	d.bufOffset = qb.mmapOffset()
	return int(qb.length), nil
}

// MapBuffer maps the requested buffer read/write, shared with the
// kernel.
func (d *Device) MapBuffer() ([]byte, error) {
	if d.mmap != nil {
		return d.mmap, nil
	}
	if d.bufLength == 0 {
		return nil, errors.New("no buffer requested")
	}

	m, err := unix.Mmap(d.fd, int64(d.bufOffset), int(d.bufLength),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	d.mmap = m
	return m, nil
}

// ReleaseBuffer unmaps the buffer. Calling it again is a no-op.
func (d *Device) ReleaseBuffer() error {
	if d.mmap == nil {
		return nil
	}
	m := d.mmap
	d.mmap = nil
	if err := unix.Munmap(m); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// QueueBuffer submits buffer 0 to the device incoming queue.
func (d *Device) QueueBuffer() error {
	b := v4l2Buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
		index:  0,
	}
	if err := d.ioctl(VIDIOC_QBUF, unsafe.Pointer(&b)); err != nil {
		return fmt.Errorf("VIDIOC_QBUF: %w", err)
	}
	return nil
}

// StreamOn enables streaming on the capture buffer type.
func (d *Device) StreamOn() error {
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := d.ioctl(VIDIOC_STREAMON, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMON: %w", err)
	}
	return nil
}

// WaitFrame blocks in select(2) until the device signals readiness or
// the timeout expires. Returns false with nil error on timeout. An
// interrupted select is resumed with the remaining time, which the
// kernel writes back into the timeval.
func (d *Device) WaitFrame(timeout time.Duration) (bool, error) {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	for {
		var fds unix.FdSet
		fds.Zero()
		fds.Set(d.fd)

		n, err := unix.Select(d.fd+1, &fds, nil, nil, &tv)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return false, fmt.Errorf("select: %w", err)
		}
		return n > 0, nil
	}
}

// DequeueBuffer removes the completed buffer from the outgoing queue
// and reports the bytes the hardware filled.
func (d *Device) DequeueBuffer() (int, error) {
	b := v4l2Buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := d.ioctl(VIDIOC_DQBUF, unsafe.Pointer(&b)); err != nil {
		return 0, fmt.Errorf("VIDIOC_DQBUF: %w", err)
	}
	return int(b.bytesused), nil
}

// StreamOff disables streaming on the capture buffer type.
func (d *Device) StreamOff() error {
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	if err := d.ioctl(VIDIOC_STREAMOFF, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMOFF: %w", err)
	}
	return nil
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

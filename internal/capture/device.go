package capture

import (
	"errors"
	"time"
)

// ErrIONotSupported is returned by a backend when the device rejects
// memory-mapped buffer allocation. The session reports it as
// UNSUPPORTED_IO instead of a generic allocation failure.
var ErrIONotSupported = errors.New("device does not support memory-mapped buffers")

// Capabilities describes what a capture device can do. Driver, Card and
// Bus are diagnostic only; the two booleans gate the capture pipeline.
type Capabilities struct {
	Driver    string
	Card      string
	Bus       string
	Version   string
	Raw       uint32
	Capture   bool
	Streaming bool
}

// Format is the driver-confirmed frame geometry. Width and Height may
// differ from what was requested; they are authoritative for buffer
// sizing and pixel conversion.
type Format struct {
	Width  uint32
	Height uint32
}

// Device is the capability set the capture session drives. It exposes
// exactly the operations of the underlying capture protocol so a
// simulated backend can stand in for a kernel device in tests.
type Device interface {
	// Capabilities queries the device capability flags.
	Capabilities() (Capabilities, error)

	// SetFormat requests a packed-422 frame of the given size and
	// returns the geometry the driver actually selected.
	SetFormat(width, height uint32) (Format, error)

	// RequestBuffer asks the device for a single memory-mappable
	// buffer and returns its kernel-assigned byte length. The length
	// is authoritative; it may exceed the format-derived estimate.
	RequestBuffer() (int, error)

	// MapBuffer maps the requested buffer into process memory. The
	// returned slice is owned jointly with the kernel: it is filled
	// by hardware during a capture cycle and must only be released
	// through ReleaseBuffer.
	MapBuffer() ([]byte, error)

	// ReleaseBuffer unmaps the buffer. Safe to call more than once.
	ReleaseBuffer() error

	// QueueBuffer submits the buffer to the device incoming queue.
	QueueBuffer() error

	// StreamOn enables streaming capture.
	StreamOn() error

	// WaitFrame blocks until a frame is ready or the timeout expires.
	// It returns false with a nil error on timeout.
	WaitFrame(timeout time.Duration) (bool, error)

	// DequeueBuffer removes the completed buffer from the outgoing
	// queue and returns the number of bytes the hardware filled.
	DequeueBuffer() (int, error)

	// StreamOff disables streaming capture.
	StreamOff() error

	// Close releases the device handle.
	Close() error
}

package capture

import (
	"errors"
	"fmt"
	"log/slog"
)

// Session owns one open capture device for the life of a capture run.
// Width and Height always hold the driver-confirmed geometry after
// Negotiate, never the raw user request.
type Session struct {
	dev    Device
	logger *slog.Logger

	caps   Capabilities
	width  uint32
	height uint32

	buf      []byte
	released bool
	closed   bool

	state State
}

// NewSession wraps an open device. The caller keeps ownership of
// nothing: Close releases the device handle exactly once.
func NewSession(dev Device, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		dev:      dev,
		logger:   logger,
		released: true,
		state:    StateIdle,
	}
}

// Width returns the driver-confirmed frame width.
func (s *Session) Width() int { return int(s.width) }

// Height returns the driver-confirmed frame height.
func (s *Session) Height() int { return int(s.height) }

// Capabilities returns the capability flags reported by the device.
func (s *Session) Capabilities() Capabilities { return s.caps }

// Buffer returns the mapped capture buffer, valid between Allocate and
// Release.
func (s *Session) Buffer() []byte { return s.buf }

// Negotiate validates device capabilities and sets the capture format.
// The device must support both video capture and streaming I/O. Driver
// adjusted dimensions are adopted with a warning; proceeding with the
// requested values would risk reading past the real buffer boundary
// during conversion.
func (s *Session) Negotiate(width, height uint32) error {
	caps, err := s.dev.Capabilities()
	if err != nil {
		return NewError(ErrCodeQueryFailed, "querying device capabilities", err)
	}
	s.caps = caps

	s.logger.Debug("device capabilities",
		"driver", caps.Driver,
		"card", caps.Card,
		"caps", fmt.Sprintf("%08x", caps.Raw))

	if !caps.Capture {
		return NewError(ErrCodeUnsupportedDevice, "device does not support video capture", nil)
	}
	if !caps.Streaming {
		return NewError(ErrCodeUnsupportedDevice, "device does not support streaming i/o", nil)
	}

	fmtSel, err := s.dev.SetFormat(width, height)
	if err != nil {
		return NewError(ErrCodeFormatFailed, "setting capture format", err)
	}

	if fmtSel.Width != width {
		s.logger.Warn("requested width adjusted by driver",
			"requested", width, "actual", fmtSel.Width)
	}
	if fmtSel.Height != height {
		s.logger.Warn("requested height adjusted by driver",
			"requested", height, "actual", fmtSel.Height)
	}

	s.width = fmtSel.Width
	s.height = fmtSel.Height
	return nil
}

// Allocate requests the single capture buffer and maps it into process
// memory. The kernel-assigned length is authoritative.
func (s *Session) Allocate() error {
	length, err := s.dev.RequestBuffer()
	if err != nil {
		if errors.Is(err, ErrIONotSupported) {
			return NewError(ErrCodeUnsupportedIO, "requesting capture buffer", err)
		}
		return NewError(ErrCodeAllocFailed, "requesting capture buffer", err)
	}

	buf, err := s.dev.MapBuffer()
	if err != nil {
		return NewError(ErrCodeMapFailed, "mapping capture buffer", err)
	}

	s.buf = buf
	s.released = false
	s.logger.Debug("capture buffer mapped", "length", length)
	return nil
}

// Release unmaps the capture buffer. It is idempotent so it can sit on
// every exit path without tracking.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true
	s.buf = nil
	if err := s.dev.ReleaseBuffer(); err != nil {
		s.logger.Warn("releasing capture buffer", "error", err)
	}
}

// Close releases the buffer, if still mapped, and then the device
// handle. Release-before-close mirrors the acquisition order.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.Release()
	return s.dev.Close()
}

package capture

import (
	"log/slog"
	"time"
)

// DefaultTimeout bounds the wait for frame readiness.
const DefaultTimeout = 5 * time.Second

// Frame is one captured packed-422 image, copied out of the kernel
// buffer so it stays valid after the session is torn down.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Options control a single grab.
type Options struct {
	Width   uint32
	Height  uint32
	Timeout time.Duration
}

// Grab captures one live frame from an open device. It negotiates the
// format, maps the buffer and runs the capture cycle twice: capture
// hardware commonly delivers the previous frame's data on the first
// read after opening, so the first cycle is discarded and only the
// second frame is returned.
//
// The session is fully torn down before Grab returns, on success and
// failure alike.
func Grab(dev Device, opts Options, logger *slog.Logger) (*Frame, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	sess := NewSession(dev, logger)
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("closing capture device", "error", err)
		}
	}()

	if err := sess.Negotiate(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	if err := sess.Allocate(); err != nil {
		return nil, err
	}
	defer sess.Release()

	// Flush the stale frame that may be sitting in the device
	// pipeline from a previous session.
	if _, err := sess.Capture(opts.Timeout); err != nil {
		return nil, err
	}

	n, err := sess.Capture(opts.Timeout)
	if err != nil {
		return nil, err
	}

	buf := sess.Buffer()
	if n <= 0 || n > len(buf) {
		n = len(buf)
	}

	frame := &Frame{
		Data:   append([]byte(nil), buf[:n]...),
		Width:  sess.Width(),
		Height: sess.Height(),
	}

	logger.Debug("frame captured",
		"width", frame.Width, "height", frame.Height, "bytes", len(frame.Data))
	return frame, nil
}

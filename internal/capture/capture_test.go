package capture

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeDevice is an in-memory Device for exercising the session and
// capture cycle without a kernel driver.
type fakeDevice struct {
	caps    Capabilities
	capsErr error

	format    Format
	formatErr error

	buf    []byte
	reqErr error
	mapErr error

	queueErr     error
	streamOnErr  error
	streamOffErr error
	dequeueErr   error
	waitErr      error

	// readyResults is consumed one entry per WaitFrame call; when
	// exhausted, WaitFrame reports ready.
	readyResults []bool

	// frames holds the data delivered per capture cycle.
	frames [][]byte
	cycle  int

	calls    []string
	released int
	closed   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps:   Capabilities{Driver: "fake", Card: "Fake Cam", Capture: true, Streaming: true},
		format: Format{Width: 640, Height: 480},
		buf:    make([]byte, 640*480*2),
	}
}

func (d *fakeDevice) Capabilities() (Capabilities, error) {
	d.calls = append(d.calls, "capabilities")
	return d.caps, d.capsErr
}

func (d *fakeDevice) SetFormat(width, height uint32) (Format, error) {
	d.calls = append(d.calls, "setformat")
	if d.formatErr != nil {
		return Format{}, d.formatErr
	}
	return d.format, nil
}

func (d *fakeDevice) RequestBuffer() (int, error) {
	d.calls = append(d.calls, "request")
	if d.reqErr != nil {
		return 0, d.reqErr
	}
	return len(d.buf), nil
}

func (d *fakeDevice) MapBuffer() ([]byte, error) {
	d.calls = append(d.calls, "map")
	if d.mapErr != nil {
		return nil, d.mapErr
	}
	return d.buf, nil
}

func (d *fakeDevice) ReleaseBuffer() error {
	d.calls = append(d.calls, "release")
	d.released++
	return nil
}

func (d *fakeDevice) QueueBuffer() error {
	d.calls = append(d.calls, "queue")
	return d.queueErr
}

func (d *fakeDevice) StreamOn() error {
	d.calls = append(d.calls, "streamon")
	return d.streamOnErr
}

func (d *fakeDevice) WaitFrame(time.Duration) (bool, error) {
	d.calls = append(d.calls, "wait")
	if d.waitErr != nil {
		return false, d.waitErr
	}
	if len(d.readyResults) > 0 {
		ready := d.readyResults[0]
		d.readyResults = d.readyResults[1:]
		return ready, nil
	}
	return true, nil
}

func (d *fakeDevice) DequeueBuffer() (int, error) {
	d.calls = append(d.calls, "dequeue")
	if d.dequeueErr != nil {
		return 0, d.dequeueErr
	}
	if len(d.frames) > 0 {
		i := d.cycle
		if i >= len(d.frames) {
			i = len(d.frames) - 1
		}
		n := copy(d.buf, d.frames[i])
		d.cycle++
		return n, nil
	}
	d.cycle++
	return len(d.buf), nil
}

func (d *fakeDevice) StreamOff() error {
	d.calls = append(d.calls, "streamoff")
	return d.streamOffErr
}

func (d *fakeDevice) Close() error {
	d.calls = append(d.calls, "close")
	d.closed++
	return nil
}

func (d *fakeDevice) count(call string) int {
	n := 0
	for _, c := range d.calls {
		if c == call {
			n++
		}
	}
	return n
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *capture.Error, got %T: %v", err, err)
	}
	return e.Code
}

func TestNegotiateRejectsMissingCapabilities(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
	}{
		{"no capture", Capabilities{Capture: false, Streaming: true}},
		{"no streaming", Capabilities{Capture: true, Streaming: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.caps = tt.caps

			sess := NewSession(dev, nil)
			err := sess.Negotiate(640, 480)
			if code := errCode(t, err); code != ErrCodeUnsupportedDevice {
				t.Errorf("code = %s, want %s", code, ErrCodeUnsupportedDevice)
			}
			if dev.count("setformat") != 0 {
				t.Errorf("format negotiation attempted on unsupported device")
			}
		})
	}
}

func TestNegotiateQueryFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.capsErr = errors.New("ioctl failed")

	sess := NewSession(dev, nil)
	err := sess.Negotiate(640, 480)
	if code := errCode(t, err); code != ErrCodeQueryFailed {
		t.Errorf("code = %s, want %s", code, ErrCodeQueryFailed)
	}
}

func TestNegotiateAdoptsDriverAdjustment(t *testing.T) {
	dev := newFakeDevice()
	dev.format = Format{Width: 320, Height: 240}

	sess := NewSession(dev, nil)
	if err := sess.Negotiate(640, 480); err != nil {
		t.Fatalf("Negotiate: %v", err)
	}

	if sess.Width() != 320 || sess.Height() != 240 {
		t.Errorf("session geometry = %dx%d, want driver-confirmed 320x240",
			sess.Width(), sess.Height())
	}
}

func TestAllocateErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		reqErr   error
		mapErr   error
		wantCode string
	}{
		{"unsupported io", fmt.Errorf("%w: VIDIOC_REQBUFS", ErrIONotSupported), nil, ErrCodeUnsupportedIO},
		{"alloc failure", errors.New("no memory"), nil, ErrCodeAllocFailed},
		{"map failure", nil, errors.New("mmap: EACCES"), ErrCodeMapFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.reqErr = tt.reqErr
			dev.mapErr = tt.mapErr

			sess := NewSession(dev, nil)
			err := sess.Allocate()
			if code := errCode(t, err); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	sess := NewSession(dev, nil)
	if err := sess.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	sess.Release()
	sess.Release()
	sess.Release()

	if dev.released != 1 {
		t.Errorf("device release called %d times, want 1", dev.released)
	}
}

func TestCloseReleasesBufferFirst(t *testing.T) {
	dev := newFakeDevice()
	sess := NewSession(dev, nil)
	if err := sess.Allocate(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if dev.released != 1 {
		t.Errorf("buffer released %d times, want 1", dev.released)
	}
	if dev.closed != 1 {
		t.Errorf("device closed %d times, want 1", dev.closed)
	}

	// Teardown must mirror acquisition: unmap before close.
	releaseAt, closeAt := -1, -1
	for i, c := range dev.calls {
		switch c {
		case "release":
			releaseAt = i
		case "close":
			closeAt = i
		}
	}
	if releaseAt > closeAt {
		t.Errorf("buffer released after device close: %v", dev.calls)
	}
}

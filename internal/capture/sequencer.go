package capture

import "time"

// State of the capture cycle. A healthy cycle walks
// Idle → Queued → Streaming → Waiting → Dequeued → Idle.
type State int

const (
	StateIdle State = iota
	StateQueued
	StateStreaming
	StateWaiting
	StateDequeued
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateStreaming:
		return "streaming"
	case StateWaiting:
		return "waiting"
	case StateDequeued:
		return "dequeued"
	default:
		return "unknown"
	}
}

// State returns the current cycle state. Outside a running cycle it is
// always StateIdle.
func (s *Session) State() State { return s.state }

// Capture runs one full queue → stream-on → wait → dequeue → stream-off
// cycle over the mapped buffer and reports how many bytes the hardware
// filled. The wait is bounded by timeout; expiry is a TIMEOUT error,
// distinct from a hard wait failure.
//
// Streaming is turned off on every exit once it was turned on, so the
// device is back in a consistent idle state for a subsequent cycle
// regardless of the outcome.
func (s *Session) Capture(timeout time.Duration) (n int, err error) {
	if err := s.dev.QueueBuffer(); err != nil {
		// Nothing was started, the device is still idle.
		return 0, NewError(ErrCodeQueueFailed, "queueing capture buffer", err)
	}
	s.state = StateQueued

	if err := s.dev.StreamOn(); err != nil {
		s.state = StateIdle
		return 0, NewError(ErrCodeStreamOnFailed, "enabling streaming", err)
	}
	s.state = StateStreaming

	defer func() {
		offErr := s.dev.StreamOff()
		s.state = StateIdle
		if offErr == nil {
			return
		}
		if err == nil {
			err = NewError(ErrCodeStreamOffFailed, "disabling streaming", offErr)
			return
		}
		// The primary failure wins; the stream-off attempt was
		// best effort.
		s.logger.Warn("disabling streaming after failed cycle", "error", offErr)
	}()

	s.state = StateWaiting
	ready, err := s.dev.WaitFrame(timeout)
	if err != nil {
		return 0, NewError(ErrCodeWaitFailed, "waiting for frame", err)
	}
	if !ready {
		return 0, NewError(ErrCodeTimeout, "timed out waiting for frame", nil)
	}

	n, err = s.dev.DequeueBuffer()
	if err != nil {
		return 0, NewError(ErrCodeDequeueFailed, "dequeueing capture buffer", err)
	}
	s.state = StateDequeued

	return n, nil
}

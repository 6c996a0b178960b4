package gifenc

import "github.com/pkg/errors"

// Sentinel errors for the container writer's error kinds (spec.md §7).
// Check with errors.Is; SinkError wraps the underlying I/O failure, so
// errors.Cause unwraps to it.
var (
	// ErrNotStarted is returned by Add or Commit called before Start.
	ErrNotStarted = errors.New("gifenc: Add/Commit called before Start")

	// ErrAlreadyStarted is returned by Start called twice without an
	// intervening Commit.
	ErrAlreadyStarted = errors.New("gifenc: Start called twice without Commit")

	// ErrInvalidFrame is returned when a frame's pixel buffer doesn't
	// match the encoder's width/height, or width/height are out of range.
	ErrInvalidFrame = errors.New("gifenc: invalid frame")

	// ErrSink wraps a sink write failure. The encoder is left in a
	// failed state (not started) after this is returned.
	ErrSink = errors.New("gifenc: sink error")
)

// sinkError pairs the ErrSink sentinel with the underlying I/O failure so
// errors.Is(err, ErrSink) succeeds while %+v still shows the real cause.
type sinkError struct {
	cause error
}

func wrapSinkErr(err error) error {
	return &sinkError{cause: errors.WithStack(err)}
}

func (e *sinkError) Error() string { return "gifenc: sink error: " + e.cause.Error() }
func (e *sinkError) Unwrap() error { return ErrSink }
func (e *sinkError) Cause() error  { return e.cause }

package gifenc

// Repeat controls the Netscape 2.0 looping extension (spec.md §6, §9 Open
// Question 2).
type Repeat int

const (
	// Infinite loops the animation forever; written on disk as loop
	// count 0.
	Infinite Repeat = -1
	// NoRepeat skips the Netscape extension entirely — the animation
	// plays once.
	NoRepeat Repeat = 0
)

// defaultSample is the NeuQuant sample factor used when WithSample isn't
// supplied: matches the reference encoder's default quality setting.
const defaultSample = 10

// defaultFrameRate is the frames-per-second used to derive a frame's delay
// when it doesn't set one explicitly.
const defaultFrameRate = 10

// Option configures a ContainerWriter at construction time.
type Option func(*ContainerWriter)

// WithRepeat sets the loop count. Positive values other than Infinite/
// NoRepeat are written to disk verbatim as the additional-loop count.
func WithRepeat(r Repeat) Option {
	return func(w *ContainerWriter) { w.repeat = r }
}

// WithFrameRate sets the frames-per-second used to derive delays for
// frames whose Delay is NoDelay.
func WithFrameRate(fps int) Option {
	return func(w *ContainerWriter) {
		if fps > 0 {
			w.frameRate = fps
		}
	}
}

// WithSample sets the NeuQuant sample factor (1-30; lower is higher
// quality, slower).
func WithSample(sample int) Option {
	return func(w *ContainerWriter) {
		if sample < 1 {
			sample = 1
		}
		if sample > 30 {
			sample = 30
		}
		w.sample = sample
	}
}

// WithLogger installs a diagnostics logger (see Logger).
func WithLogger(l Logger) Option {
	return func(w *ContainerWriter) {
		if l != nil {
			w.log = l
		}
	}
}

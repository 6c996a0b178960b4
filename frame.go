package gifenc

import "time"

// Frame is one input raster: an RGB24 buffer of length Width*Height*3 in
// row-major, top-to-bottom R,G,B order (spec.md §3).
type Frame struct {
	// Pixels is the RGB24 byte buffer for this frame. Its length must be
	// exactly the encoder's Width*Height*3.
	Pixels []byte

	// FlippedY, when set, reverses the frame's rows before quantization
	// (spec.md §3).
	FlippedY bool

	// Delay is the time this frame is displayed. A negative value means
	// "derive from the encoder's configured frame rate" (spec.md §9 Open
	// Question 3).
	Delay time.Duration

	// Disposal is the GIF disposal method (0-7) written into the
	// Graphic Control Extension. Unset (0) means "no disposal specified".
	Disposal byte

	// Transparent, if non-nil, marks a color as transparent for this
	// frame; its nearest palette index becomes the GCE's transparent
	// color index.
	Transparent *Color
}

// Color is a minimal RGB triple, avoiding a dependency on image/color for
// callers who just want to flag a transparent color.
type Color struct {
	R, G, B byte
}

// NoDelay is the sentinel meaning "use the encoder's configured frame rate".
const NoDelay time.Duration = -1

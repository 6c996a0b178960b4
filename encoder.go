// Package gifenc is a streaming GIF89a encoder: it consumes RGB24 raster
// frames and writes a valid animated GIF byte stream, driven by a NeuQuant
// color quantizer (internal/neuquant) and a GIF-variant LZW compressor
// (internal/lzw). See SPEC_FULL.md for the full component design.
package gifenc

import (
	"time"

	"github.com/pkg/errors"

	"github.com/pixelreel/gifenc/internal/lzw"
	"github.com/pixelreel/gifenc/internal/neuquant"
)

const (
	gifHeader = "GIF89a"

	extIntroducer   = 0x21
	gceLabel        = 0xF9
	appLabel        = 0xFF
	imageSeparator  = 0x2C
	trailer         = 0x3B
	gctSize         = 7 // color resolution / GCT size field: 256 entries
	paletteBytes    = 768
	netscapeAppID   = "NETSCAPE2.0"
)

// ContainerWriter orchestrates header, per-frame extensions, and trailer,
// driving a Quantizer once per frame and handing its output to an LZW
// encoder (spec.md §4.3). It is created once per output stream: Start →
// many Add → Commit; after Commit it returns to its pre-Start state and
// may be reused on a new Sink.
//
// A single ContainerWriter is not safe for concurrent Add calls — the
// quantizer, LZW encoder, and scratch buffer are exclusively owned mutable
// state (spec.md §5).
type ContainerWriter struct {
	width, height int
	repeat        Repeat
	frameRate     int
	sample        int
	log           Logger

	started    bool
	firstFrame bool

	quant *neuquant.Quantizer
	coder *lzw.Encoder

	scratch []byte // flipped-row buffer, reused across frames
	indexed []byte // indexed pixel buffer, reused across frames
}

// NewContainerWriter returns a writer for width x height frames (both in
// (0, 65535]).
func NewContainerWriter(width, height int, opts ...Option) (*ContainerWriter, error) {
	if width <= 0 || height <= 0 || width > 65535 || height > 65535 {
		return nil, errors.Wrapf(ErrInvalidFrame, "width=%d height=%d out of range", width, height)
	}

	w := &ContainerWriter{
		width:     width,
		height:    height,
		repeat:    Infinite,
		frameRate: defaultFrameRate,
		sample:    defaultSample,
		log:       nopLogger{},
		quant:     neuquant.New(),
		coder:     lzw.NewEncoder(),
		indexed:   make([]byte, width*height),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start writes the GIF89a header and Logical Screen Descriptor.
func (w *ContainerWriter) Start(sink Sink) error {
	if w.started {
		return ErrAlreadyStarted
	}

	sink.WriteASCII(gifHeader)
	w.writeLSD(sink)

	w.started = true
	w.firstFrame = true
	return nil
}

// Add quantizes frame, writes its per-frame extensions and palette (global
// on the first frame, local thereafter), and encodes its indexed pixels.
// The LZW packet accumulator is fully drained before Add returns.
func (w *ContainerWriter) Add(sink Sink, frame Frame) error {
	if !w.started {
		return ErrNotStarted
	}

	expected := w.width * w.height * 3
	if len(frame.Pixels) != expected {
		return errors.Wrapf(ErrInvalidFrame, "got %d pixel bytes, want %d", len(frame.Pixels), expected)
	}

	pixels := frame.Pixels
	if frame.FlippedY {
		pixels = w.flipRows(frame.Pixels)
	}

	if err := w.quant.Reset(pixels, w.sample); err != nil {
		return err
	}
	palette, err := w.quant.Process()
	if err != nil {
		return err
	}

	w.indexPixels(pixels)

	if w.firstFrame {
		sink.WriteBytes(palette[:])
		if w.repeat != NoRepeat {
			w.writeNetscapeExt(sink)
		}
	}

	transIndex, disposal := 0, 0
	if frame.Transparent != nil {
		transIndex = w.quant.Map(frame.Transparent.R, frame.Transparent.G, frame.Transparent.B)
		disposal = 2 // force clear when a transparent color is in play
	}
	if frame.Disposal > 0 {
		disposal = int(frame.Disposal) & 7
	}

	w.writeGCE(sink, w.delayHundredths(frame.Delay), disposal, transIndex, frame.Transparent != nil)
	w.writeImageDesc(sink, w.firstFrame)

	if !w.firstFrame {
		sink.WriteBytes(palette[:]) // local color table
	}

	w.coder.Reset(w.indexed, 8)
	w.coder.Encode(sink)

	w.firstFrame = false

	w.log.Debugf("gifenc: wrote frame %dx%d, sample=%d, delay=%dcs", w.width, w.height, w.sample, w.delayHundredths(frame.Delay))

	if err := sink.Flush(); err != nil {
		w.started = false
		return wrapSinkErr(err)
	}
	return nil
}

// Commit writes the trailer, flushes the sink, and returns the writer to
// its pre-Start state.
func (w *ContainerWriter) Commit(sink Sink) error {
	if !w.started {
		return ErrNotStarted
	}

	sink.WriteU8(trailer)

	if err := sink.Flush(); err != nil {
		w.started = false
		return wrapSinkErr(err)
	}

	w.started = false
	w.firstFrame = true
	return nil
}

func (w *ContainerWriter) flipRows(pixels []byte) []byte {
	rowLen := w.width * 3
	if cap(w.scratch) < len(pixels) {
		w.scratch = make([]byte, len(pixels))
	}
	w.scratch = w.scratch[:len(pixels)]

	for y := 0; y < w.height; y++ {
		src := pixels[y*rowLen : y*rowLen+rowLen]
		dstRow := w.height - 1 - y
		copy(w.scratch[dstRow*rowLen:dstRow*rowLen+rowLen], src)
	}
	return w.scratch
}

// indexPixels maps every input pixel through the just-trained quantizer,
// reusing the indexed buffer across frames (spec.md §3 lifecycle).
func (w *ContainerWriter) indexPixels(pixels []byte) {
	n := len(pixels) / 3
	if cap(w.indexed) < n {
		w.indexed = make([]byte, n)
	}
	w.indexed = w.indexed[:n]

	k := 0
	for i := 0; i < n; i++ {
		idx := w.quant.Map(pixels[k], pixels[k+1], pixels[k+2])
		w.indexed[i] = byte(idx)
		k += 3
	}
}

// delayHundredths converts a Frame's Delay to hundredths of a second,
// deriving it from the configured frame rate when Delay is negative
// (spec.md §9 Open Question 3).
func (w *ContainerWriter) delayHundredths(delay time.Duration) int {
	if delay < 0 {
		delay = time.Second / time.Duration(w.frameRate)
	}
	hundredths := int(delay.Seconds() * 100)
	if hundredths < 0 {
		hundredths = 0
	}
	if hundredths > 0xFFFF {
		hundredths = 0xFFFF
	}
	return hundredths
}

func (w *ContainerWriter) writeLSD(sink Sink) {
	sink.WriteU16LE(w.width)
	sink.WriteU16LE(w.height)
	sink.WriteU8(byte(0x80 | 0x70 | 0x00 | gctSize))
	sink.WriteU8(0) // background color index
	sink.WriteU8(0) // pixel aspect ratio
}

func (w *ContainerWriter) writeNetscapeExt(sink Sink) {
	sink.WriteU8(extIntroducer)
	sink.WriteU8(appLabel)
	sink.WriteU8(11)
	sink.WriteASCII(netscapeAppID)
	sink.WriteU8(3)
	sink.WriteU8(1)
	loopCount := int(w.repeat)
	if w.repeat == Infinite {
		loopCount = 0
	}
	sink.WriteU16LE(loopCount)
	sink.WriteU8(0)
}

func (w *ContainerWriter) writeGCE(sink Sink, delay int, disposal int, transIndex int, hasTransparent bool) {
	sink.WriteU8(extIntroducer)
	sink.WriteU8(gceLabel)
	sink.WriteU8(4)

	transFlag := 0
	if hasTransparent {
		transFlag = 1
	}
	packed := byte((disposal&7)<<2 | transFlag)
	sink.WriteU8(packed)

	sink.WriteU16LE(delay)
	sink.WriteU8(byte(transIndex))
	sink.WriteU8(0)
}

func (w *ContainerWriter) writeImageDesc(sink Sink, firstFrame bool) {
	sink.WriteU8(imageSeparator)
	sink.WriteU16LE(0)
	sink.WriteU16LE(0)
	sink.WriteU16LE(w.width)
	sink.WriteU16LE(w.height)

	if firstFrame {
		sink.WriteU8(0)
	} else {
		sink.WriteU8(byte(0x80 | gctSize))
	}
}

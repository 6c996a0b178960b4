package gifenc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, r, g, b byte) Frame {
	pixels := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pixels[i*3] = r
		pixels[i*3+1] = g
		pixels[i*3+2] = b
	}
	return Frame{Pixels: pixels, Delay: 0}
}

func TestHeaderAndTrailer(t *testing.T) {
	w, err := NewContainerWriter(2, 2, WithRepeat(NoRepeat))
	require.NoError(t, err)

	sink := NewByteSink()
	require.NoError(t, w.Start(sink))
	require.NoError(t, w.Add(sink, solidFrame(2, 2, 255, 0, 0)))
	require.NoError(t, w.Commit(sink))

	data := sink.Bytes()
	require.Equal(t, []byte("GIF89a"), data[:6])
	require.Equal(t, byte(0x3B), data[len(data)-1])
}

// Scenario 1: single 2x2 solid red frame, no repeat.
func TestScenarioSolidRedNoRepeat(t *testing.T) {
	w, err := NewContainerWriter(2, 2, WithRepeat(NoRepeat))
	require.NoError(t, err)

	sink := NewByteSink()
	require.NoError(t, w.Start(sink))
	require.NoError(t, w.Add(sink, solidFrame(2, 2, 255, 0, 0)))
	require.NoError(t, w.Commit(sink))

	data := sink.Bytes()

	require.Equal(t, []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, data[:6])
	// Logical Screen Descriptor: width, height, packed=0xF7, bg=0, aspect=0
	require.Equal(t, []byte{0x02, 0x00, 0x02, 0x00, 0xF7, 0x00, 0x00}, data[6:13])

	gct := data[13:781]
	require.Len(t, gct, 768)
	require.InDelta(t, 255, int(gct[0]), 1)
	require.InDelta(t, 0, int(gct[1]), 1)
	require.InDelta(t, 0, int(gct[2]), 1)

	// No Netscape extension: GCE starts immediately after the GCT.
	// 21 F9 04 <packed> <delayLo> <delayHi> <transIndex> 00 = 8 bytes.
	gce := data[781:789]
	require.Equal(t, byte(0x21), gce[0])
	require.Equal(t, byte(0xF9), gce[1])
	require.Equal(t, byte(4), gce[2])
	require.Equal(t, []byte{0x00, 0x00}, gce[4:6]) // delay
	require.Equal(t, byte(0x00), gce[7])           // block terminator

	imgDesc := data[789:799]
	require.Equal(t, []byte{0x2C, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x02, 0x00, 0x00}, imgDesc)

	// image data: init code size 8, terminated by a single zero byte.
	require.Equal(t, byte(0x08), data[799])
	require.Equal(t, byte(0x3B), data[len(data)-1])
}

// Scenario 2: 4 single-color frames, infinite repeat, 1 fps.
func TestScenarioMultiFrameInfiniteRepeat(t *testing.T) {
	w, err := NewContainerWriter(32, 32, WithRepeat(Infinite), WithFrameRate(1))
	require.NoError(t, err)

	sink := NewByteSink()
	require.NoError(t, w.Start(sink))

	colors := [][3]byte{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {128, 128, 128}}
	for _, c := range colors {
		f := solidFrame(32, 32, c[0], c[1], c[2])
		f.Delay = NoDelay
		require.NoError(t, w.Add(sink, f))
	}
	require.NoError(t, w.Commit(sink))

	data := sink.Bytes()

	// Netscape extension follows the global color table.
	netscapeStart := 13 + 768
	require.Equal(t, byte(0x21), data[netscapeStart])
	require.Equal(t, byte(0xFF), data[netscapeStart+1])
	require.Equal(t, byte(11), data[netscapeStart+2])
	require.Equal(t, []byte("NETSCAPE2.0"), data[netscapeStart+3:netscapeStart+14])
	require.Equal(t, []byte{0x00, 0x00}, data[netscapeStart+16:netscapeStart+18]) // loop count 0 = infinite

	require.Equal(t, byte(0x3B), data[len(data)-1])
}

// Scenario 4: negative delay derives from the configured frame rate.
func TestScenarioDelayDerivedFromFrameRate(t *testing.T) {
	w, err := NewContainerWriter(2, 2, WithFrameRate(10))
	require.NoError(t, err)

	require.Equal(t, 10, w.delayHundredths(NoDelay))
	require.Equal(t, 0, w.delayHundredths(0))
	require.Equal(t, 250, w.delayHundredths(2500*time.Millisecond))
}

// Scenario 5: an all-zero image at least minpicturebytes in size maps every
// pixel to the same palette index.
func TestScenarioAllZeroImage(t *testing.T) {
	w, err := NewContainerWriter(23, 23) // 23*23 = 529 pixels, 1587 bytes > 1509
	require.NoError(t, err)

	sink := NewByteSink()
	require.NoError(t, w.Start(sink))
	require.NoError(t, w.Add(sink, solidFrame(23, 23, 0, 0, 0)))
	require.NoError(t, w.Commit(sink))

	for _, idx := range w.indexed {
		require.Equal(t, w.indexed[0], idx)
	}
}

// Scenario 6: non-square frame produces a correctly sized indexed buffer.
func TestScenarioNonSquareFrame(t *testing.T) {
	w, err := NewContainerWriter(3, 1)
	require.NoError(t, err)

	sink := NewByteSink()
	require.NoError(t, w.Start(sink))
	f := Frame{Pixels: []byte{10, 20, 30, 40, 50, 60, 70, 80, 90}}
	require.NoError(t, w.Add(sink, f))
	require.NoError(t, w.Commit(sink))

	require.Len(t, w.indexed, 3)

	data := sink.Bytes()
	require.Equal(t, []byte{0x03, 0x00, 0x01, 0x00}, data[6:10])
}

func TestFlippedYReversesRows(t *testing.T) {
	w, err := NewContainerWriter(2, 3)
	require.NoError(t, err)

	pixels := []byte{
		1, 1, 1, 2, 2, 2, // row 0
		3, 3, 3, 4, 4, 4, // row 1
		5, 5, 5, 6, 6, 6, // row 2
	}
	flipped := w.flipRows(pixels)
	require.Equal(t, []byte{
		5, 5, 5, 6, 6, 6,
		3, 3, 3, 4, 4, 4,
		1, 1, 1, 2, 2, 2,
	}, flipped)
}

func TestLifecycleErrors(t *testing.T) {
	w, err := NewContainerWriter(2, 2)
	require.NoError(t, err)
	sink := NewByteSink()

	require.ErrorIs(t, w.Add(sink, solidFrame(2, 2, 0, 0, 0)), ErrNotStarted)
	require.ErrorIs(t, w.Commit(sink), ErrNotStarted)

	require.NoError(t, w.Start(sink))
	require.ErrorIs(t, w.Start(sink), ErrAlreadyStarted)

	require.NoError(t, w.Add(sink, solidFrame(2, 2, 0, 0, 0)))
	require.NoError(t, w.Commit(sink))

	// Encoder returns to its pre-Start state and can be reused.
	sink2 := NewByteSink()
	require.NoError(t, w.Start(sink2))
	require.NoError(t, w.Commit(sink2))
}

func TestInvalidFrameSize(t *testing.T) {
	w, err := NewContainerWriter(4, 4)
	require.NoError(t, err)
	sink := NewByteSink()
	require.NoError(t, w.Start(sink))

	err = w.Add(sink, Frame{Pixels: make([]byte, 10)})
	require.ErrorIs(t, err, ErrInvalidFrame)
}

func TestInvalidDimensions(t *testing.T) {
	_, err := NewContainerWriter(0, 10)
	require.ErrorIs(t, err, ErrInvalidFrame)

	_, err = NewContainerWriter(10, 70000)
	require.ErrorIs(t, err, ErrInvalidFrame)
}

func TestWriterSinkMatchesByteSink(t *testing.T) {
	build := func(s Sink) {
		w, err := NewContainerWriter(4, 4, WithRepeat(NoRepeat))
		require.NoError(t, err)
		require.NoError(t, w.Start(s))
		require.NoError(t, w.Add(s, solidFrame(4, 4, 10, 20, 30)))
		require.NoError(t, w.Commit(s))
	}

	byteSink := NewByteSink()
	build(byteSink)

	var buf bufferCloser
	writerSink := NewWriterSink(&buf)
	build(writerSink)

	require.Equal(t, byteSink.Bytes(), buf.Bytes())
}

type bufferCloser struct {
	data []byte
}

func (b *bufferCloser) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufferCloser) Bytes() []byte { return b.data }

func BenchmarkAdd(b *testing.B) {
	w, err := NewContainerWriter(64, 64)
	require.NoError(b, err)
	frame := solidFrame(64, 64, 10, 200, 30)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink := NewByteSink()
		_ = w.Start(sink)
		_ = w.Add(sink, frame)
		_ = w.Commit(sink)
	}
}

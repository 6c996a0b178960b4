package gifenc

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Sink is the byte sink the container writer and LZW coder append to. All
// methods are infallible in the abstract model (spec.md §6); an
// implementation backed by real I/O should surface failures through
// Flush's error return, which the container writer propagates as
// ErrSink.
type Sink interface {
	WriteU8(v byte)
	WriteU16LE(v int)
	WriteBytes(p []byte)
	WriteASCII(s string)
	Flush() error
}

// ByteSink is an in-memory, page-growth byte sink, adapted from the
// reference encoder's ByteArray: bytes are appended into fixed-size pages
// instead of repeatedly reallocating one growing slice, so a long-running
// multi-frame encode doesn't pay for slice-copy amortization on every
// WriteBytes call.
type ByteSink struct {
	pages    [][]byte
	page     int
	cursor   int
	pageSize int
}

const defaultPageSize = 4096

// NewByteSink returns a ByteSink with the default page size.
func NewByteSink() *ByteSink {
	s := &ByteSink{
		page:     -1,
		pageSize: defaultPageSize,
	}
	s.newPage()
	return s
}

func (s *ByteSink) newPage() {
	s.page++
	s.pages = append(s.pages, make([]byte, s.pageSize))
	s.cursor = 0
}

// WriteU8 appends a single byte.
func (s *ByteSink) WriteU8(v byte) {
	if s.cursor >= s.pageSize {
		s.newPage()
	}
	s.pages[s.page][s.cursor] = v
	s.cursor++
}

// WriteU16LE appends v as two little-endian bytes.
func (s *ByteSink) WriteU16LE(v int) {
	s.WriteU8(byte(v & 0xFF))
	s.WriteU8(byte((v >> 8) & 0xFF))
}

// WriteBytes appends p.
func (s *ByteSink) WriteBytes(p []byte) {
	for _, b := range p {
		s.WriteU8(b)
	}
}

// WriteASCII appends s's bytes verbatim.
func (s *ByteSink) WriteASCII(str string) {
	for i := 0; i < len(str); i++ {
		s.WriteU8(str[i])
	}
}

// Flush is a no-op for an in-memory sink; data is available immediately
// through Bytes.
func (s *ByteSink) Flush() error { return nil }

// Bytes returns all data written so far as a single contiguous slice.
func (s *ByteSink) Bytes() []byte {
	total := 0
	for i, p := range s.pages {
		if i < len(s.pages)-1 {
			total += len(p)
		} else {
			total += s.cursor
		}
	}
	out := make([]byte, 0, total)
	for i, p := range s.pages {
		if i < len(s.pages)-1 {
			out = append(out, p...)
		} else {
			out = append(out, p[:s.cursor]...)
		}
	}
	return out
}

// WriterSink adapts any io.Writer into a Sink, buffering writes through a
// bufio.Writer so the container writer can stream straight to a file
// instead of accumulating the whole stream in memory first. The first I/O
// error encountered is sticky and returned by every subsequent Flush.
type WriterSink struct {
	w   *bufio.Writer
	err error
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w)}
}

func (s *WriterSink) write(p []byte) {
	if s.err != nil {
		return
	}
	if _, err := s.w.Write(p); err != nil {
		s.err = errors.Wrap(err, "gifenc: sink write failed")
	}
}

// WriteU8 appends a single byte.
func (s *WriterSink) WriteU8(v byte) { s.write([]byte{v}) }

// WriteU16LE appends v as two little-endian bytes.
func (s *WriterSink) WriteU16LE(v int) {
	s.write([]byte{byte(v & 0xFF), byte((v >> 8) & 0xFF)})
}

// WriteBytes appends p.
func (s *WriterSink) WriteBytes(p []byte) { s.write(p) }

// WriteASCII appends s's bytes verbatim.
func (s *WriterSink) WriteASCII(str string) { s.write([]byte(str)) }

// Flush drains the buffered writer and returns the first error seen by
// either a prior write or this flush.
func (s *WriterSink) Flush() error {
	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		return errors.Wrap(err, "gifenc: sink flush failed")
	}
	return nil
}

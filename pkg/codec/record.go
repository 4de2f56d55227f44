// Copyright © 2018 One Concern

package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// recordWriter encodes the fields of records. The first error sticks.
type recordWriter struct {
	buf     bytes.Buffer
	scratch [8]byte
	err     error
}

func (w *recordWriter) byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *recordWriter) int32(v int) {
	binary.BigEndian.PutUint32(w.scratch[:4], uint32(int32(v)))
	w.buf.Write(w.scratch[:4])
}

func (w *recordWriter) float64(v float64) {
	binary.BigEndian.PutUint64(w.scratch[:], math.Float64bits(v))
	w.buf.Write(w.scratch[:])
}

func (w *recordWriter) raw(b []byte) {
	w.buf.Write(b)
}

func (w *recordWriter) string(s string) {
	if len(s) > math.MaxUint16 {
		if w.err == nil {
			w.err = ErrLabelTooLong.WrapMessage("%d bytes", len(s))
		}
		return
	}
	binary.BigEndian.PutUint16(w.scratch[:2], uint16(len(s)))
	w.buf.Write(w.scratch[:2])
	w.buf.WriteString(s)
}

func (w *recordWriter) reset() {
	w.buf.Reset()
}

// recordReader decodes the fields of records. Reading past the end of the
// data sets io.ErrUnexpectedEOF and returns zero values.
type recordReader struct {
	data []byte
	pos  int
	err  error
}

func (r *recordReader) more() bool {
	return r.err == nil && r.pos < len(r.data)
}

func (r *recordReader) next(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.pos < n {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *recordReader) byte() byte {
	b := r.next(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *recordReader) int32() int {
	b := r.next(4)
	if b == nil {
		return 0
	}
	return int(int32(binary.BigEndian.Uint32(b)))
}

func (r *recordReader) float64() float64 {
	b := r.next(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

func (r *recordReader) raw(n int) []byte {
	return r.next(n)
}

func (r *recordReader) string() string {
	b := r.next(2)
	if b == nil {
		return ""
	}
	return string(r.next(int(binary.BigEndian.Uint16(b))))
}

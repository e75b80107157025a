// Package xdr provides endian-aware binary encoding and decoding utilities
// for reading and writing Utah RLE file data.
//
// Unlike a fixed-endian wire format, URT/RLE streams declare their own byte
// order in the magic number (see rle.DetectEndian): some fields that follow
// are read with that declared order, while colormap entries are always
// big-endian regardless of it. This package exposes both paths rather than
// binding to a single order at the package level.
package xdr

import (
	"encoding/binary"
	"io"
)

// Order names the two byte orders a URT stream can declare.
type Order int

const (
	// LittleEndian marks a stream whose magic read little-endian.
	LittleEndian Order = iota
	// BigEndian marks a stream whose magic read big-endian.
	BigEndian
)

// ByteOrder returns the binary.ByteOrder corresponding to o.
func (o Order) ByteOrder() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// StreamReader wraps an io.Reader for endian-aware binary reading. The byte
// order used for 16-bit reads is supplied per call so a single reader can
// serve both the stream's declared order and the colormap's fixed
// big-endian quirk.
type StreamReader struct {
	r   io.Reader
	buf [4]byte
}

// NewStreamReader creates a StreamReader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadByte reads a single byte.
func (r *StreamReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:1])
	return r.buf[0], err
}

// ReadBytes reads len(dst) bytes into dst.
func (r *StreamReader) ReadBytes(dst []byte) error {
	_, err := io.ReadFull(r.r, dst)
	return err
}

// ReadUint16 reads an unsigned 16-bit integer in the given byte order.
func (r *StreamReader) ReadUint16(order Order) (uint16, error) {
	if _, err := io.ReadFull(r.r, r.buf[:2]); err != nil {
		return 0, err
	}
	return order.ByteOrder().Uint16(r.buf[:2]), nil
}

// ReadInt16 reads a signed 16-bit integer in the given byte order.
func (r *StreamReader) ReadInt16(order Order) (int16, error) {
	v, err := r.ReadUint16(order)
	return int16(v), err
}

// ReadUint16BE reads an unsigned 16-bit integer, always big-endian. This is
// the colormap quirk: colormap entries are big-endian irrespective of the
// stream's declared order.
func (r *StreamReader) ReadUint16BE() (uint16, error) {
	return r.ReadUint16(BigEndian)
}

// StreamWriter wraps an io.Writer for endian-aware binary writing.
type StreamWriter struct {
	w   io.Writer
	buf [4]byte
}

// NewStreamWriter creates a StreamWriter from an io.Writer.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteByte writes a single byte.
func (w *StreamWriter) WriteByte(b byte) error {
	w.buf[0] = b
	_, err := w.w.Write(w.buf[:1])
	return err
}

// WriteBytes writes a byte slice verbatim.
func (w *StreamWriter) WriteBytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// WriteUint16 writes an unsigned 16-bit integer in the given byte order.
func (w *StreamWriter) WriteUint16(v uint16, order Order) error {
	order.ByteOrder().PutUint16(w.buf[:2], v)
	_, err := w.w.Write(w.buf[:2])
	return err
}

// WriteInt16 writes a signed 16-bit integer in the given byte order.
func (w *StreamWriter) WriteInt16(v int16, order Order) error {
	return w.WriteUint16(uint16(v), order)
}

// WriteUint16BE writes an unsigned 16-bit integer, always big-endian (the
// colormap quirk, mirrored on the write side).
func (w *StreamWriter) WriteUint16BE(v uint16) error {
	return w.WriteUint16(v, BigEndian)
}

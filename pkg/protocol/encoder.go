package protocol

import "encoding/binary"

// Encoder appends wire values to a growing buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset empties the encoder and keeps its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the encoded bytes. The slice aliases the encoder's buffer
// until the next write or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the encoded length.
func (e *Encoder) Len() int { return len(e.buf) }

// WriteByte appends b. It never fails.
func (e *Encoder) WriteByte(b byte) {
	e.buf = append(e.buf, b)
}

// WriteBytes appends b verbatim.
func (e *Encoder) WriteBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteUvarint appends v as a protobuf-style varint.
func (e *Encoder) WriteUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// WriteSvarint appends v zigzag-encoded.
func (e *Encoder) WriteSvarint(v int64) {
	e.buf = binary.AppendVarint(e.buf, v)
}

// WriteString appends s prefixed with its byte length.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteUint16 appends v big-endian.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Limits applied while decoding untrusted input.
const (
	// MaxStringLength is the longest string a decoder accepts (1MB).
	MaxStringLength = 1 << 20

	// MaxCollectionCount is the most items a decoded list may declare.
	MaxCollectionCount = 100_000
)

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
)

// Decoder reads wire values from a byte slice.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// EOF reports whether every byte has been read.
func (d *Decoder) EOF() bool { return d.pos >= len(d.buf) }

// ReadByte reads one byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.EOF() {
		return 0, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// ReadUvarint reads a varint written by WriteUvarint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	return v, d.advance(n)
}

// ReadSvarint reads a varint written by WriteSvarint.
func (d *Decoder) ReadSvarint() (int64, error) {
	v, n := binary.Varint(d.buf[d.pos:])
	return v, d.advance(n)
}

// advance consumes n bytes after a varint read; n follows the
// binary.Uvarint convention.
func (d *Decoder) advance(n int) error {
	switch {
	case n > 0:
		d.pos += n
		return nil
	case n == 0:
		return io.ErrUnexpectedEOF
	default:
		return ErrVarintOverflow
	}
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > MaxStringLength {
		return "", ErrAllocationTooLarge
	}
	if length > uint64(d.Remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	end := d.pos + int(length)
	s := string(d.buf[d.pos:end])
	d.pos = end
	return s, nil
}

// ReadCollectionCount reads a list length and checks it against
// MaxCollectionCount and the bytes left, since every item takes at least
// one byte.
func (d *Decoder) ReadCollectionCount() (int, error) {
	count, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if count > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if count > uint64(d.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(count), nil
}

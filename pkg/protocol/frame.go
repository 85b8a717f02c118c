package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the header length: type, flags, payload length.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload the uint16 length can carry.
	MaxPayloadSize = 1<<16 - 1
)

// FrameType tags the payload of a frame.
type FrameType uint8

const (
	FramePatches FrameType = 0x02 // one commit's host mutations
	FrameError   FrameType = 0x05 // a server-side failure
)

var frameTypeNames = map[FrameType]string{
	FramePatches: "Patches",
	FrameError:   "Error",
}

func (ft FrameType) String() string {
	if name, ok := frameTypeNames[ft]; ok {
		return name
	}
	return "Unknown"
}

// FrameFlags is a bit set carried in the frame header.
type FrameFlags uint8

// FlagFinal marks the last frame of a commit that was split across frames.
const FlagFinal FrameFlags = 0x04

// Has reports whether every bit of flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag == flag
}

var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is one framed message.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame returns a frame. The payload is not copied.
func NewFrame(ft FrameType, flags FrameFlags, payload []byte) *Frame {
	return &Frame{Type: ft, Flags: flags, Payload: payload}
}

// AppendTo appends the header and payload of f to dst.
func (f *Frame) AppendTo(dst []byte) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return dst, ErrFrameTooLarge
	}
	dst = append(dst, byte(f.Type), byte(f.Flags))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(f.Payload)))
	return append(dst, f.Payload...), nil
}

// Encode returns f in wire form.
func (f *Frame) Encode() ([]byte, error) {
	return f.AppendTo(make([]byte, 0, FrameHeaderSize+len(f.Payload)))
}

// DecodeFrame parses one frame from the start of data. Bytes after the
// payload are ignored; the returned payload is a copy.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft := FrameType(data[0])
	if _, ok := frameTypeNames[ft]; !ok {
		return nil, ErrInvalidFrameType
	}
	end := FrameHeaderSize + int(binary.BigEndian.Uint16(data[2:FrameHeaderSize]))
	if len(data) < end {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{
		Type:    ft,
		Flags:   FrameFlags(data[1]),
		Payload: append([]byte(nil), data[FrameHeaderSize:end]...),
	}, nil
}

// ErrorFrame reports a server-side failure to a stream client.
type ErrorFrame struct {
	Code    string
	Message string
}

// EncodeError encodes ef as a complete FrameError wire frame.
func EncodeError(ef ErrorFrame) ([]byte, error) {
	e := NewEncoder()
	e.WriteString(ef.Code)
	e.WriteString(ef.Message)
	return NewFrame(FrameError, FlagFinal, e.Bytes()).Encode()
}

// DecodeError decodes the payload of a FrameError frame.
func DecodeError(payload []byte) (ErrorFrame, error) {
	d := NewDecoder(payload)
	code, err := d.ReadString()
	if err != nil {
		return ErrorFrame{}, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return ErrorFrame{}, err
	}
	return ErrorFrame{Code: code, Message: msg}, nil
}

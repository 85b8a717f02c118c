package protocol

import (
	"errors"
	"io"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 16383, 16384, 1 << 32, 1<<64 - 1}
	for _, v := range values {
		e := NewEncoder()
		e.WriteUvarint(v)
		got, err := NewDecoder(e.Bytes()).ReadUvarint()
		if err != nil {
			t.Fatalf("ReadUvarint(%d) error = %v", v, err)
		}
		if got != v {
			t.Errorf("ReadUvarint() = %d, want %d", got, v)
		}
	}
}

func TestUvarintOverflow(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if _, err := NewDecoder(data).ReadUvarint(); !errors.Is(err, ErrVarintOverflow) {
		t.Errorf("err = %v, want ErrVarintOverflow", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.WriteString("héllo")
	e.WriteString("")
	d := NewDecoder(e.Bytes())

	s, err := d.ReadString()
	if err != nil || s != "héllo" {
		t.Errorf("ReadString() = %q, %v", s, err)
	}
	s, err = d.ReadString()
	if err != nil || s != "" {
		t.Errorf("ReadString() = %q, %v", s, err)
	}
	if !d.EOF() {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}
}

func TestReadStringTruncated(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(10)
	e.WriteBytes([]byte("abc"))
	if _, err := NewDecoder(e.Bytes()).ReadString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("abc")
	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() after Reset = %d", e.Len())
	}
	e.WriteUint16(0x0102)
	if got := e.Bytes(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("WriteUint16 bytes = %v", got)
	}
}

func TestSvarintRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -64, 63, -65, 1 << 40, -(1 << 62)}
	e := NewEncoder()
	for _, v := range values {
		e.WriteSvarint(v)
	}
	d := NewDecoder(e.Bytes())
	for _, want := range values {
		got, err := d.ReadSvarint()
		if err != nil {
			t.Fatalf("ReadSvarint() error = %v", err)
		}
		if got != want {
			t.Errorf("ReadSvarint() = %d, want %d", got, want)
		}
	}
	if !d.EOF() {
		t.Errorf("Remaining() = %d, want 0", d.Remaining())
	}
}

func TestReadUvarintEmpty(t *testing.T) {
	if _, err := NewDecoder(nil).ReadUvarint(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

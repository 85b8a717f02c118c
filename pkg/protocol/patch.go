package protocol

import "errors"

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchCreateElement PatchOp = 0x01 // Create a detached element
	PatchCreateText    PatchOp = 0x02 // Create a detached text node
	PatchSetAttr       PatchOp = 0x03 // Set attribute
	PatchRemoveAttr    PatchOp = 0x04 // Remove attribute
	PatchSetText       PatchOp = 0x05 // Update text content
	PatchInsertNode    PatchOp = 0x06 // Insert node into parent, optionally before a sibling
	PatchRemoveNode    PatchOp = 0x07 // Remove node from parent
)

// ErrUnknownPatchOp is returned when decoding an unrecognized operation.
var ErrUnknownPatchOp = errors.New("protocol: unknown patch op")

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case PatchCreateElement:
		return "CreateElement"
	case PatchCreateText:
		return "CreateText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchSetText:
		return "SetText"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	default:
		return "Unknown"
	}
}

// Patch represents a single host mutation.
type Patch struct {
	Op       PatchOp
	ID       string // Target node ID
	ParentID string // Parent for InsertNode/RemoveNode
	Before   string // Anchor sibling for InsertNode; empty appends
	Key      string // Attribute name
	Value    string // Tag, text or attribute value
}

// PatchesFrame is the ordered list of patches produced by one commit.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// EncodePatches encodes a patches frame payload.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))
	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
	return e.Bytes()
}

// EncodeFrames splits a patches frame into wire frames whose payloads fit
// MaxPayloadSize. Every chunk carries the same sequence number and the last
// one is flagged FlagFinal.
func EncodeFrames(pf *PatchesFrame) ([][]byte, error) {
	var (
		frames [][]byte
		chunk  []Patch
		size   int
	)
	// Header room: seq and count varints.
	const overhead = 20

	flush := func(final bool) error {
		payload := EncodePatches(&PatchesFrame{Seq: pf.Seq, Patches: chunk})
		var flags FrameFlags
		if final {
			flags = FlagFinal
		}
		data, err := NewFrame(FramePatches, flags, payload).Encode()
		if err != nil {
			return err
		}
		frames = append(frames, data)
		chunk, size = nil, 0
		return nil
	}

	scratch := NewEncoder()
	for i := range pf.Patches {
		scratch.Reset()
		encodePatch(scratch, &pf.Patches[i])
		n := scratch.Len()
		if n+overhead > MaxPayloadSize {
			return nil, ErrFrameTooLarge
		}
		if len(chunk) > 0 && size+n+overhead > MaxPayloadSize {
			if err := flush(false); err != nil {
				return nil, err
			}
		}
		chunk = append(chunk, pf.Patches[i])
		size += n
	}
	if err := flush(true); err != nil {
		return nil, err
	}
	return frames, nil
}

func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteString(p.ID)

	switch p.Op {
	case PatchCreateElement, PatchCreateText, PatchSetText:
		e.WriteString(p.Value)

	case PatchSetAttr:
		e.WriteString(p.Key)
		e.WriteString(p.Value)

	case PatchRemoveAttr:
		e.WriteString(p.Key)

	case PatchInsertNode:
		e.WriteString(p.ParentID)
		e.WriteString(p.Before)

	case PatchRemoveNode:
		e.WriteString(p.ParentID)
	}
}

// DecodePatches decodes a patches frame payload.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	pf := &PatchesFrame{Seq: seq, Patches: make([]Patch, count)}
	for i := 0; i < count; i++ {
		if err := decodePatch(d, &pf.Patches[i]); err != nil {
			return nil, err
		}
	}
	return pf, nil
}

func decodePatch(d *Decoder, p *Patch) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(op)
	if p.ID, err = d.ReadString(); err != nil {
		return err
	}

	switch p.Op {
	case PatchCreateElement, PatchCreateText, PatchSetText:
		p.Value, err = d.ReadString()

	case PatchSetAttr:
		if p.Key, err = d.ReadString(); err != nil {
			return err
		}
		p.Value, err = d.ReadString()

	case PatchRemoveAttr:
		p.Key, err = d.ReadString()

	case PatchInsertNode:
		if p.ParentID, err = d.ReadString(); err != nil {
			return err
		}
		p.Before, err = d.ReadString()

	case PatchRemoveNode:
		p.ParentID, err = d.ReadString()

	default:
		return ErrUnknownPatchOp
	}
	return err
}

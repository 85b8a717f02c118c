// Package protocol implements the binary encoding of host mutations.
//
// A commit on a remote host surface produces one patches frame: a sequence
// number followed by the ordered list of node creations, attribute and text
// changes, and insertions and removals the commit performed. Clients replay
// the patches against their own node table, keyed by the node IDs the
// server assigned at creation.
//
// # Wire Format
//
// Every message is framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Encoding
//
//   - Varint: protobuf-style unsigned varints for counts and sequence numbers
//   - Length-prefixed: strings are prefixed with their varint length
//
// A patch is encoded as:
//
//	[Op: 1 byte][ID: len-prefixed][op-specific fields]
//
// For example an insertion:
//
//	[0x06]["n4"]["n1"][""]      insert n4 into n1, appended
package protocol

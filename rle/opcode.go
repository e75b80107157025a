package rle

import "github.com/kbolino/go-urle/internal/xdr"

// Opcode bases, packed into the low bits of the opcode byte. The long-form
// bit (0x40) is orthogonal to the base and handled separately by
// decodeOpcode/encodeOpcode.
const (
	OpSkipLines  byte = 0
	OpSetColor   byte = 1
	OpSkipPixels byte = 2
	OpByteData   byte = 3
	OpRunData    byte = 4
	OpEof        byte = 5
)

const longFormBit byte = 0x40

// runThreshold is the minimum run length the encoder will emit as RunData
// rather than as ByteData literals.
const runThreshold = 3

// maxOpsPerRowFactor bounds total opcodes consumed across an entire decode
// as maxOpsPerRowFactor * width * height, a single running counter rather
// than a true per-row cap (see the opcode-count invariant note in DESIGN.md).
const maxOpsPerRowFactor = 32

// byteDataChunkCap is the largest single ByteData run the encoder will
// emit; longer literal spans are split across multiple opcodes.
const byteDataChunkCap = 65536

// decodeOpcode splits a raw opcode byte into its base and long-form flag.
// ok is false if bit 0x80 is set or the base exceeds OpEof.
func decodeOpcode(b byte) (base byte, long bool, ok bool) {
	if b&0x80 != 0 {
		return 0, false, false
	}
	base = b &^ longFormBit
	long = b&longFormBit != 0
	if base > OpEof {
		return 0, false, false
	}
	return base, long, true
}

// encodeOpcode packs a base and long-form flag into a single opcode byte.
func encodeOpcode(base byte, long bool) byte {
	if long {
		return base | longFormBit
	}
	return base
}

// willAdvanceRow reports whether emitting SetColor(newChannel) after
// prevChannel implicitly advances the decoder to the next scanline: true
// exactly when newChannel is channel 0 and a previous channel was already
// in progress on the current row.
func willAdvanceRow(prevChannel, newChannel int) bool {
	return newChannel == 0 && prevChannel >= 0
}

// useShortForm reports whether a counting opcode's count fits the 1-byte
// short form. Short form stores count-1 in a single byte, so it covers
// 1..256.
func useShortForm(count int) bool {
	return count >= 1 && count <= 256
}

// readCount reads a counting opcode's operand (SkipLines, SkipPixels,
// ByteData, RunData), returning the actual count (already +1'd from the
// stored count-1 encoding).
func readCount(sr *xdr.StreamReader, order Endian, long bool) (int, error) {
	if !long {
		b, err := sr.ReadByte()
		if err != nil {
			return 0, err
		}
		return int(b) + 1, nil
	}
	v, err := sr.ReadUint16(order)
	if err != nil {
		return 0, err
	}
	return int(v) + 1, nil
}

// writeCount writes a counting opcode's operand in the given form, storing
// count-1.
func writeCount(sw *xdr.StreamWriter, order Endian, long bool, count int) error {
	stored := count - 1
	if !long {
		return sw.WriteByte(byte(stored))
	}
	return sw.WriteUint16(uint16(stored), order)
}

// chooseForm picks short or long opcode form for a counting opcode's
// operand.
func chooseForm(count int) bool {
	return !useShortForm(count)
}

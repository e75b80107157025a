package rle

import (
	"io"

	"github.com/kbolino/go-urle/internal/xdr"
)

// Decode reads a complete URT/RLE stream from r and returns the decoded
// image, the byte order the stream declared, and any comments found in the
// header. The returned Image's Pix is always in top-to-bottom memory row
// order regardless of the bottom-to-top order used on the wire.
func Decode(r io.Reader) (*Image, Endian, []string, error) {
	sr := xdr.NewStreamReader(r)

	h, order, err := readHeader(sr)
	if err != nil {
		return nil, order, nil, err
	}

	img := NewImage(*h)
	prefillImage(img)

	if err := runOpcodes(sr, order, img); err != nil {
		// A read failure that is not end-of-stream is a reader error, not
		// a truncated opcode.
		if e, ok := err.(*Error); ok && e.Kind == KindTruncatedOpcode &&
			e.Err != io.EOF && e.Err != io.ErrUnexpectedEOF {
			e.Kind = KindReadError
		}
		return nil, order, nil, err
	}

	return img, order, h.Comments, nil
}

// prefillImage fills every pixel with its channel's background value (or
// zero if the header declares no background), so that SkipLines- and
// SkipPixels-elided spans decode to the correct value without ever being
// visited by the opcode loop. The alpha channel, if present, is always
// prefilled with zero: the header's background block never carries an
// alpha entry. ClearFirst does not affect this prefill (see DESIGN.md);
// it is a preserved flag with no bearing on decoded pixel values.
func prefillImage(img *Image) {
	nColors := int(img.Header.NColors)
	width, height := img.Width(), img.Height()

	// The alpha channel, if any, keeps its zero value from make([]byte, ...).
	for c := 0; c < nColors; c++ {
		var v byte
		if img.Header.Background != nil {
			v = img.Header.Background[c]
		}
		if v == 0 {
			continue
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, c, v)
			}
		}
	}
}

// mapWireChannel converts a raw SetColor operand into a logical channel
// index: 255 denotes the alpha channel and maps to NColors, everything
// else maps to itself. The result may be out of range for h; callers must
// bounds-check before writing.
func mapWireChannel(b byte, h *Header) int {
	if b == alphaWireChannel {
		return int(h.NColors)
	}
	return int(b)
}

// trySet writes v to img at (x, memRow, channel) if all three coordinates
// are in range, and silently discards the write otherwise. Malformed or
// unusual opcode sequences (an out-of-range channel, a row pushed past the
// top of the image) degrade to a no-op rather than a decode failure.
func trySet(img *Image, x, memRow, channel int, v byte) {
	if channel < 0 || channel >= img.Channels() {
		return
	}
	if memRow < 0 || memRow >= img.Height() {
		return
	}
	if x < 0 || x >= img.Width() {
		return
	}
	img.Set(x, memRow, channel, v)
}

// runOpcodes executes the opcode stream against img, which must already be
// allocated and prefilled.
func runOpcodes(sr *xdr.StreamReader, order Endian, img *Image) error {
	width, height := img.Width(), img.Height()
	opCap := maxOpsPerRowFactor * width * height

	wireRow := 0
	channel := -1 // sentinel: no channel active yet (very start of stream)
	x := 0
	opCount := 0

	for {
		b, err := sr.ReadByte()
		if err != nil {
			return newError(KindTruncatedOpcode, "opcode", err)
		}

		base, long, ok := decodeOpcode(b)
		if !ok {
			return newError(KindOpcodeUnknown, "", nil)
		}

		opCount++
		if opCount > opCap {
			return newError(KindOpCountExceeded, "", nil)
		}

		switch base {
		case OpEof:
			return nil

		case OpSkipLines:
			count, err := readCount(sr, order, long)
			if err != nil {
				return newError(KindTruncatedOpcode, "skip lines operand", err)
			}
			if channel >= 0 {
				wireRow++ // mid-row: this SkipLines first completes the row being left
			}
			wireRow += count
			channel = -1
			x = 0

		case OpSetColor:
			if long {
				return newError(KindOpcodeUnknown, "long-form set color", nil)
			}
			wireChannel, err := sr.ReadByte()
			if err != nil {
				return newError(KindTruncatedOpcode, "set color operand", err)
			}
			if willAdvanceRow(channel, int(wireChannel)) {
				wireRow++
			}
			channel = mapWireChannel(wireChannel, &img.Header)
			x = 0

		case OpSkipPixels:
			count, err := readCount(sr, order, long)
			if err != nil {
				return newError(KindTruncatedOpcode, "skip pixels operand", err)
			}
			x += count

		case OpByteData:
			count, err := readCount(sr, order, long)
			if err != nil {
				return newError(KindTruncatedOpcode, "byte data operand", err)
			}
			memRow := wireRowToMemRow(wireRow, height)
			data := make([]byte, count)
			if err := sr.ReadBytes(data); err != nil {
				return newError(KindTruncatedOpcode, "byte data", err)
			}
			if count%2 != 0 {
				if _, err := sr.ReadByte(); err != nil {
					return newError(KindTruncatedOpcode, "byte data pad", err)
				}
			}
			for i, v := range data {
				trySet(img, x+i, memRow, channel, v)
			}
			x += count

		case OpRunData:
			count, err := readCount(sr, order, long)
			if err != nil {
				return newError(KindTruncatedOpcode, "run data operand", err)
			}
			raw, err := sr.ReadUint16(order)
			if err != nil {
				return newError(KindTruncatedOpcode, "run data value", err)
			}
			v := byte(raw)
			memRow := wireRowToMemRow(wireRow, height)
			for i := 0; i < count; i++ {
				trySet(img, x+i, memRow, channel, v)
			}
			x += count

		default:
			return newError(KindInternalError, "unreachable opcode base", nil)
		}
	}
}

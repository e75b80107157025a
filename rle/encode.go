package rle

import (
	"io"

	"github.com/kbolino/go-urle/internal/xdr"
)

// BackgroundMode selects how the encoder treats pixels that match the
// header's declared background color.
type BackgroundMode int

const (
	// SaveAll writes every pixel explicitly; no background elision, and
	// ClearFirst is never set.
	SaveAll BackgroundMode = iota
	// Overlay elides background-matching spans with SkipLines/SkipPixels.
	// Decoding the result over a canvas already filled with the
	// background reproduces the image.
	Overlay
	// Clear produces opcode-for-opcode identical output to Overlay, but
	// sets the ClearFirst header flag.
	Clear
)

func (m BackgroundMode) String() string {
	switch m {
	case SaveAll:
		return "save-all"
	case Overlay:
		return "overlay"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Encode writes img to w as a little-endian URT/RLE stream using mode.
func Encode(w io.Writer, img *Image, mode BackgroundMode) error {
	return EncodeWithEndian(w, img, mode, LittleEndian)
}

// EncodeWithEndian writes img to w using the given byte order, for callers
// that need to match a specific consumer's endianness.
func EncodeWithEndian(w io.Writer, img *Image, mode BackgroundMode, order Endian) error {
	h := img.Header.Clone()
	if mode == Clear {
		h.Flags |= FlagClearFirst
	} else {
		h.Flags &^= FlagClearFirst
	}
	if mode == SaveAll {
		// SaveAll always sets NO_BACKGROUND: every pixel is written
		// explicitly, so there is no background color left to declare.
		h.Background = nil
		h.Flags |= FlagNoBackground
	}

	if err := Validate(h); err != nil {
		return err
	}

	sw := xdr.NewStreamWriter(w)
	if err := writeHeader(sw, h, order); err != nil {
		return err
	}
	if err := encodeOpcodes(sw, order, img, mode); err != nil {
		return err
	}
	if err := sw.WriteByte(encodeOpcode(OpEof, false)); err != nil {
		return newError(KindWriteError, "eof", err)
	}
	return nil
}

func encodeOpcodes(sw *xdr.StreamWriter, order Endian, img *Image, mode BackgroundMode) error {
	width, height := img.Width(), img.Height()
	nColors := int(img.Header.NColors)
	background := img.Header.Background
	elide := mode != SaveAll

	pendingSkip := 0
	for wireRow := 0; wireRow < height; wireRow++ {
		memRow := wireRowToMemRow(wireRow, height)

		if elide && rowIsBackground(img, memRow, background) {
			pendingSkip++
			continue
		}

		if pendingSkip > 0 {
			if err := writeCountOpcode(sw, order, OpSkipLines, pendingSkip); err != nil {
				return err
			}
			pendingSkip = 0
		}

		for c := 0; c < img.Channels(); c++ {
			wireChannel := byte(c)
			hasBackground := elide && c < nColors && background != nil
			if c == nColors { // alpha channel
				wireChannel = alphaWireChannel
				hasBackground = false
			}

			if err := sw.WriteByte(encodeOpcode(OpSetColor, false)); err != nil {
				return newError(KindWriteError, "set color", err)
			}
			if err := sw.WriteByte(wireChannel); err != nil {
				return newError(KindWriteError, "set color operand", err)
			}

			row := channelRow(img, memRow, c, width)
			var bg byte
			if hasBackground {
				bg = background[c]
			}
			if err := encodeChannelRow(sw, order, row, hasBackground, bg); err != nil {
				return err
			}
		}
	}

	// Trailing background rows: flush the pending skip before Eof rather
	// than relying solely on the decoder's prefill to cover them.
	if pendingSkip > 0 {
		if err := writeCountOpcode(sw, order, OpSkipLines, pendingSkip); err != nil {
			return err
		}
	}
	return nil
}

// rowIsBackground reports whether every color channel sample in memory row
// memRow equals its declared background value, and every alpha sample (if
// the image has an alpha channel) is zero. Such a row can be skipped
// entirely with SkipLines.
func rowIsBackground(img *Image, memRow int, background []byte) bool {
	if background == nil {
		return false
	}
	nColors := int(img.Header.NColors)
	width := img.Width()
	for x := 0; x < width; x++ {
		for c := 0; c < nColors; c++ {
			if img.At(x, memRow, c) != background[c] {
				return false
			}
		}
		if img.Header.Alpha && img.At(x, memRow, nColors) != 0 {
			return false
		}
	}
	return true
}

// channelRow extracts one channel's samples for one memory row.
func channelRow(img *Image, memRow, channel, width int) []byte {
	row := make([]byte, width)
	for x := 0; x < width; x++ {
		row[x] = img.At(x, memRow, channel)
	}
	return row
}

// encodeChannelRow classifies row into background, run, and literal spans
// and emits the corresponding opcodes. It runs in a single forward pass
// using a precomputed backward run-length array, so it stays O(width) even
// for adversarial alternating data.
func encodeChannelRow(sw *xdr.StreamWriter, order Endian, row []byte, hasBackground bool, bg byte) error {
	n := len(row)
	if n == 0 {
		return nil
	}

	runLenAt := make([]int, n)
	runLenAt[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		if row[i] == row[i+1] {
			runLenAt[i] = runLenAt[i+1] + 1
		} else {
			runLenAt[i] = 1
		}
	}

	i := 0
	for i < n {
		if runLenAt[i] >= runThreshold {
			span := runLenAt[i]
			if hasBackground && row[i] == bg {
				if err := writeCountOpcode(sw, order, OpSkipPixels, span); err != nil {
					return err
				}
			} else if err := writeRunData(sw, order, span, row[i]); err != nil {
				return err
			}
			i += span
			continue
		}

		// Span too short for SkipPixels or RunData, even if it happens to
		// match the background: gather it as a ByteData literal instead.
		j := i
		for j < n && runLenAt[j] < runThreshold {
			j++
		}
		if err := writeByteDataSpan(sw, order, row[i:j]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

// writeCountOpcode emits a counting opcode (SkipLines, SkipPixels) with the
// given count, choosing short or long form.
func writeCountOpcode(sw *xdr.StreamWriter, order Endian, base byte, count int) error {
	long := chooseForm(count)
	if err := sw.WriteByte(encodeOpcode(base, long)); err != nil {
		return newError(KindWriteError, "opcode", err)
	}
	if err := writeCount(sw, order, long, count); err != nil {
		return newError(KindWriteError, "opcode operand", err)
	}
	return nil
}

// writeRunData emits a single RunData opcode covering count identical
// samples of value v.
func writeRunData(sw *xdr.StreamWriter, order Endian, count int, v byte) error {
	long := chooseForm(count)
	if err := sw.WriteByte(encodeOpcode(OpRunData, long)); err != nil {
		return newError(KindWriteError, "run data opcode", err)
	}
	if err := writeCount(sw, order, long, count); err != nil {
		return newError(KindWriteError, "run data operand", err)
	}
	if err := sw.WriteUint16(uint16(v), order); err != nil {
		return newError(KindWriteError, "run data value", err)
	}
	return nil
}

// writeByteDataSpan emits one or more ByteData opcodes covering data,
// splitting at byteDataChunkCap so no single opcode's count overflows the
// long form.
func writeByteDataSpan(sw *xdr.StreamWriter, order Endian, data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > byteDataChunkCap {
			n = byteDataChunkCap
		}
		chunk := data[:n]
		data = data[n:]

		long := chooseForm(n)
		if err := sw.WriteByte(encodeOpcode(OpByteData, long)); err != nil {
			return newError(KindWriteError, "byte data opcode", err)
		}
		if err := writeCount(sw, order, long, n); err != nil {
			return newError(KindWriteError, "byte data operand", err)
		}
		if err := sw.WriteBytes(chunk); err != nil {
			return newError(KindWriteError, "byte data", err)
		}
		if n%2 != 0 {
			if err := sw.WriteByte(0); err != nil {
				return newError(KindWriteError, "byte data pad", err)
			}
		}
	}
	return nil
}

package rle

import (
	"io"

	"github.com/kbolino/go-urle/internal/xdr"
)

// Endian is the byte order a URT/RLE stream declares in its magic number.
type Endian = xdr.Order

const (
	LittleEndian = xdr.LittleEndian
	BigEndian    = xdr.BigEndian
)

// Flags is the header's bitset, per the on-wire byte.
type Flags uint8

const (
	FlagClearFirst   Flags = 0x01
	FlagNoBackground Flags = 0x02
	FlagAlpha        Flags = 0x04
	FlagComment      Flags = 0x08
)

// Magic is the canonical two-byte value that opens every URT/RLE stream.
// It is deliberately asymmetric (0x52CC != 0xCC52 byte-reversed) so the
// two-byte probe in DetectEndian is unambiguous.
const Magic uint16 = 0x52CC

// Size limits, enforced before any allocation. MaxAllocBytes matches the
// reference implementation's 1 GiB cap.
const (
	MaxDim           = 65535
	MaxPixels        = 1 << 28
	MaxAllocBytes    = 1 << 30
	MaxCommentsBytes = 1 << 20

	alphaWireChannel = 255
)

// Header is the fixed-layout URT/RLE header plus the optional background,
// colormap, and comment blocks that follow it.
type Header struct {
	XPos, YPos int16
	XLen, YLen uint16
	Flags      Flags
	NColors    uint8
	PixelBits  uint8
	NColorMap  uint8
	CMapLen    uint8
	Background []byte   // len == NColors, or nil
	ColorMap   []uint16 // len == NColorMap * (1 << CMapLen), or nil
	Comments   []string
	Alpha      bool // an alpha channel follows the NColors color channels
}

// Channels returns the derived total channel count: NColors plus one more
// if Alpha is set.
func (h *Header) Channels() int {
	n := int(h.NColors)
	if h.Alpha {
		n++
	}
	return n
}

// Width returns XLen as an int.
func (h *Header) Width() int { return int(h.XLen) }

// Height returns YLen as an int.
func (h *Header) Height() int { return int(h.YLen) }

// Clone returns a deep copy of h.
func (h *Header) Clone() *Header {
	c := *h
	if h.Background != nil {
		c.Background = append([]byte(nil), h.Background...)
	}
	if h.ColorMap != nil {
		c.ColorMap = append([]uint16(nil), h.ColorMap...)
	}
	if h.Comments != nil {
		c.Comments = append([]string(nil), h.Comments...)
	}
	return &c
}

// Validate returns the first invariant h violates, or nil if h is
// well-formed. Encode calls this before writing anything; Decode calls it
// once the header has been read, before the image buffer is allocated.
func Validate(h *Header) error {
	if h.XLen < 1 || h.YLen < 1 || h.XLen > MaxDim || h.YLen > MaxDim {
		return newError(KindDimTooLarge, "", nil)
	}
	if h.PixelBits != 8 {
		return newError(KindInvalidPixelbits, "", nil)
	}
	if h.NColors < 1 || h.NColors > 254 {
		return newError(KindInvalidNcolors, "", nil)
	}
	noBackground := h.Flags&FlagNoBackground != 0
	if noBackground != (len(h.Background) == 0) {
		return newError(KindInvalidBgBlock, "", nil)
	}
	if len(h.Background) != 0 && len(h.Background) != int(h.NColors) {
		return newError(KindInvalidBgBlock, "", nil)
	}
	if h.NColorMap > h.NColors || h.CMapLen > 8 {
		return newError(KindColormapTooLarge, "", nil)
	}
	wantCMapLen := 0
	if h.NColorMap > 0 {
		wantCMapLen = int(h.NColorMap) << h.CMapLen
	}
	if len(h.ColorMap) != wantCMapLen {
		return newError(KindColormapTooLarge, "", nil)
	}

	channels := int(h.NColors)
	if h.Alpha {
		channels++
	}
	pixels := h.Width() * h.Height() * channels
	if pixels > MaxPixels {
		return newError(KindPixelsTooLarge, "", nil)
	}
	// With PixelBits fixed at 8, one byte holds one sample, so MaxPixels
	// (smaller than MaxAllocBytes) always trips before this does. The
	// check stays in place for a wider sample format, where it would no
	// longer be redundant with the pixel-count cap above.
	if int64(h.Width())*int64(h.Height())*int64(channels) > MaxAllocBytes {
		return newError(KindAllocTooLarge, "", nil)
	}

	commentBytes := 0
	for _, c := range h.Comments {
		commentBytes += len(c) + 1 // null terminator
	}
	if commentBytes > MaxCommentsBytes {
		return newError(KindCommentTooLarge, "", nil)
	}
	return nil
}

// DetectEndian reads the two-byte magic from sr and reports the stream's
// declared byte order: the magic's asymmetry makes the probe unambiguous.
func DetectEndian(sr *xdr.StreamReader) (Endian, error) {
	var buf [2]byte
	if err := sr.ReadBytes(buf[:]); err != nil {
		return LittleEndian, truncOrRead(err, "magic")
	}
	if uint16(buf[0])|uint16(buf[1])<<8 == Magic {
		return LittleEndian, nil
	}
	if uint16(buf[0])<<8|uint16(buf[1]) == Magic {
		return BigEndian, nil
	}
	return LittleEndian, newError(KindBadMagic, "", nil)
}

func truncOrRead(err error, context string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newError(KindHeaderTruncated, context, err)
	}
	return newError(KindReadError, context, err)
}

// readHeader reads and validates a complete header: the fixed fields, the
// background block, the colormap, and the comment block, in that order.
func readHeader(sr *xdr.StreamReader) (*Header, Endian, error) {
	order, err := DetectEndian(sr)
	if err != nil {
		return nil, order, err
	}

	h := &Header{}

	xpos, err := sr.ReadInt16(order)
	if err != nil {
		return nil, order, truncOrRead(err, "xpos")
	}
	h.XPos = xpos
	ypos, err := sr.ReadInt16(order)
	if err != nil {
		return nil, order, truncOrRead(err, "ypos")
	}
	h.YPos = ypos
	xlen, err := sr.ReadUint16(order)
	if err != nil {
		return nil, order, truncOrRead(err, "xlen")
	}
	h.XLen = xlen
	ylen, err := sr.ReadUint16(order)
	if err != nil {
		return nil, order, truncOrRead(err, "ylen")
	}
	h.YLen = ylen

	flagsByte, err := sr.ReadByte()
	if err != nil {
		return nil, order, truncOrRead(err, "flags")
	}
	h.Flags = Flags(flagsByte)

	ncolors, err := sr.ReadByte()
	if err != nil {
		return nil, order, truncOrRead(err, "ncolors")
	}
	h.NColors = ncolors

	pixelbits, err := sr.ReadByte()
	if err != nil {
		return nil, order, truncOrRead(err, "pixelbits")
	}
	h.PixelBits = pixelbits

	ncmap, err := sr.ReadByte()
	if err != nil {
		return nil, order, truncOrRead(err, "ncmap")
	}
	h.NColorMap = ncmap

	cmaplen, err := sr.ReadByte()
	if err != nil {
		return nil, order, truncOrRead(err, "cmaplen")
	}
	h.CMapLen = cmaplen

	h.Alpha = h.Flags&FlagAlpha != 0

	if h.Flags&FlagNoBackground == 0 {
		bgLen, err := sr.ReadByte()
		if err != nil {
			return nil, order, truncOrRead(err, "bg_len")
		}
		if int(bgLen) != int(h.NColors) {
			return nil, order, newError(KindInvalidBgBlock, "bg_len", nil)
		}
		bg := make([]byte, h.NColors)
		if err := sr.ReadBytes(bg); err != nil {
			return nil, order, truncOrRead(err, "background")
		}
		h.Background = bg
		if (1+int(h.NColors))%2 != 0 {
			if _, err := sr.ReadByte(); err != nil {
				return nil, order, truncOrRead(err, "background pad")
			}
		}
	}

	if h.NColorMap > 0 {
		n := int(h.NColorMap) << h.CMapLen
		cmap := make([]uint16, n)
		for i := range cmap {
			v, err := sr.ReadUint16BE()
			if err != nil {
				return nil, order, truncOrRead(err, "colormap")
			}
			cmap[i] = v
		}
		h.ColorMap = cmap
	}

	if h.Flags&FlagComment != 0 {
		byteLen, err := sr.ReadUint16(order)
		if err != nil {
			return nil, order, truncOrRead(err, "comment length")
		}
		raw := make([]byte, byteLen)
		if err := sr.ReadBytes(raw); err != nil {
			return nil, order, truncOrRead(err, "comments")
		}
		if byteLen%2 != 0 {
			if _, err := sr.ReadByte(); err != nil {
				return nil, order, truncOrRead(err, "comment pad")
			}
		}
		h.Comments = splitComments(raw)
	}

	if err := Validate(h); err != nil {
		return nil, order, err
	}
	return h, order, nil
}

// splitComments splits a comment block into its null-terminated strings,
// stripping the trailing null off the final entry rather than reporting a
// trailing empty string, matching the reference implementation.
func splitComments(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	start := 0
	for i, b := range raw {
		if b == 0 {
			out = append(out, string(raw[start:i]))
			start = i + 1
		}
	}
	if start < len(raw) {
		out = append(out, string(raw[start:]))
	}
	return out
}

// writeHeader writes h in canonical form: NO_BACKGROUND, ALPHA, and COMMENT
// are derived from the header's actual data rather than trusted from the
// caller, while CLEAR_FIRST is preserved verbatim.
func writeHeader(sw *xdr.StreamWriter, h *Header, order Endian) error {
	flags := h.Flags & FlagClearFirst
	if len(h.Background) == 0 {
		flags |= FlagNoBackground
	}
	if h.Alpha {
		flags |= FlagAlpha
	}
	if len(h.Comments) > 0 {
		flags |= FlagComment
	}

	var magicBuf [2]byte
	if order == BigEndian {
		magicBuf[0] = byte(Magic >> 8)
		magicBuf[1] = byte(Magic & 0xFF)
	} else {
		magicBuf[0] = byte(Magic & 0xFF)
		magicBuf[1] = byte(Magic >> 8)
	}
	if err := sw.WriteBytes(magicBuf[:]); err != nil {
		return newError(KindWriteError, "magic", err)
	}

	if err := sw.WriteInt16(h.XPos, order); err != nil {
		return newError(KindWriteError, "xpos", err)
	}
	if err := sw.WriteInt16(h.YPos, order); err != nil {
		return newError(KindWriteError, "ypos", err)
	}
	if err := sw.WriteUint16(h.XLen, order); err != nil {
		return newError(KindWriteError, "xlen", err)
	}
	if err := sw.WriteUint16(h.YLen, order); err != nil {
		return newError(KindWriteError, "ylen", err)
	}
	if err := sw.WriteByte(byte(flags)); err != nil {
		return newError(KindWriteError, "flags", err)
	}
	if err := sw.WriteByte(h.NColors); err != nil {
		return newError(KindWriteError, "ncolors", err)
	}
	if err := sw.WriteByte(h.PixelBits); err != nil {
		return newError(KindWriteError, "pixelbits", err)
	}
	if err := sw.WriteByte(h.NColorMap); err != nil {
		return newError(KindWriteError, "ncmap", err)
	}
	if err := sw.WriteByte(h.CMapLen); err != nil {
		return newError(KindWriteError, "cmaplen", err)
	}

	if flags&FlagNoBackground == 0 {
		if err := sw.WriteByte(h.NColors); err != nil {
			return newError(KindWriteError, "bg_len", err)
		}
		if err := sw.WriteBytes(h.Background); err != nil {
			return newError(KindWriteError, "background", err)
		}
		if (1+int(h.NColors))%2 != 0 {
			if err := sw.WriteByte(0); err != nil {
				return newError(KindWriteError, "background pad", err)
			}
		}
	}

	if h.NColorMap > 0 {
		for _, v := range h.ColorMap {
			if err := sw.WriteUint16BE(v); err != nil {
				return newError(KindWriteError, "colormap", err)
			}
		}
	}

	if flags&FlagComment != 0 {
		var raw []byte
		for _, c := range h.Comments {
			raw = append(raw, c...)
			raw = append(raw, 0)
		}
		if len(raw) > 0xFFFF {
			return newError(KindCommentTooLarge, "", nil)
		}
		if err := sw.WriteUint16(uint16(len(raw)), order); err != nil {
			return newError(KindWriteError, "comment length", err)
		}
		if err := sw.WriteBytes(raw); err != nil {
			return newError(KindWriteError, "comments", err)
		}
		if len(raw)%2 != 0 {
			if err := sw.WriteByte(0); err != nil {
				return newError(KindWriteError, "comment pad", err)
			}
		}
	}

	return nil
}

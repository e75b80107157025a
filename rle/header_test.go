package rle

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kbolino/go-urle/internal/xdr"
)

func TestDetectEndian(t *testing.T) {
	tests := []struct {
		name    string
		bytes   []byte
		want    Endian
		wantErr bool
	}{
		{"little", []byte{0xCC, 0x52}, LittleEndian, false},
		{"big", []byte{0x52, 0xCC}, BigEndian, false},
		{"bad", []byte{0x00, 0x00}, LittleEndian, true},
		{"truncated", []byte{0xCC}, LittleEndian, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := xdr.NewStreamReader(bytes.NewReader(tt.bytes))
			got, err := DetectEndian(sr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectEndian() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("DetectEndian() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Header {
		return &Header{
			XLen: 4, YLen: 4,
			NColors:   3,
			PixelBits: 8,
			Flags:     FlagNoBackground,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Header)
		wantErr *Error
	}{
		{"valid", func(h *Header) {}, nil},
		{"zero width", func(h *Header) { h.XLen = 0 }, ErrDimTooLarge},
		{"zero height", func(h *Header) { h.YLen = 0 }, ErrDimTooLarge},
		{"max dims exceed pixel cap", func(h *Header) {
			h.XLen = MaxDim
			h.YLen = MaxDim
		}, ErrPixelsTooLarge},
		{"bad pixelbits", func(h *Header) { h.PixelBits = 16 }, ErrInvalidPixelbits},
		{"zero ncolors", func(h *Header) { h.NColors = 0 }, ErrInvalidNcolors},
		{"too many ncolors", func(h *Header) { h.NColors = 255 }, ErrInvalidNcolors},
		{"bg flag mismatch", func(h *Header) {
			h.Flags = 0
			h.Background = nil
		}, ErrInvalidBgBlock},
		{"bg wrong length", func(h *Header) {
			h.Flags = 0
			h.Background = []byte{1, 2}
		}, ErrInvalidBgBlock},
		{"colormap ncolormap too large", func(h *Header) {
			h.NColorMap = 4
			h.CMapLen = 0
			h.ColorMap = make([]uint16, 4)
		}, ErrColormapTooLarge},
		{"colormap cmaplen too large", func(h *Header) {
			h.NColorMap = 1
			h.CMapLen = 9
			h.ColorMap = make([]uint16, 1<<9)
		}, ErrColormapTooLarge},
		{"colormap length mismatch", func(h *Header) {
			h.NColorMap = 1
			h.CMapLen = 8
			h.ColorMap = make([]uint16, 10)
		}, ErrColormapTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := base()
			tt.mutate(h)
			err := Validate(h)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want kind %v", err, tt.wantErr.Kind)
			}
		})
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	orders := []Endian{LittleEndian, BigEndian}
	for _, order := range orders {
		h := &Header{
			XPos: -3, YPos: 7,
			XLen: 10, YLen: 20,
			NColors:   3,
			PixelBits: 8,
			Alpha:     true,
			Flags:     FlagClearFirst,
			Background: []byte{10, 20, 30},
			NColorMap:  3,
			CMapLen:    8,
			ColorMap:   make([]uint16, 3*256),
			Comments:   []string{"hello", "world"},
		}
		for i := range h.ColorMap {
			h.ColorMap[i] = uint16(i)
		}

		var buf bytes.Buffer
		sw := xdr.NewStreamWriter(&buf)
		if err := writeHeader(sw, h, order); err != nil {
			t.Fatalf("writeHeader() error = %v", err)
		}

		sr := xdr.NewStreamReader(bytes.NewReader(buf.Bytes()))
		got, gotOrder, err := readHeader(sr)
		if err != nil {
			t.Fatalf("readHeader() error = %v", err)
		}
		if gotOrder != order {
			t.Errorf("readHeader() order = %v, want %v", gotOrder, order)
		}
		if got.XPos != h.XPos || got.YPos != h.YPos {
			t.Errorf("position = (%d,%d), want (%d,%d)", got.XPos, got.YPos, h.XPos, h.YPos)
		}
		if got.XLen != h.XLen || got.YLen != h.YLen {
			t.Errorf("dims = (%d,%d), want (%d,%d)", got.XLen, got.YLen, h.XLen, h.YLen)
		}
		if got.Flags&FlagClearFirst == 0 {
			t.Error("ClearFirst flag lost in round trip")
		}
		if !got.Alpha {
			t.Error("Alpha lost in round trip")
		}
		if !bytes.Equal(got.Background, h.Background) {
			t.Errorf("Background = %v, want %v", got.Background, h.Background)
		}
		if len(got.ColorMap) != len(h.ColorMap) {
			t.Fatalf("ColorMap len = %d, want %d", len(got.ColorMap), len(h.ColorMap))
		}
		for i := range h.ColorMap {
			if got.ColorMap[i] != h.ColorMap[i] {
				t.Fatalf("ColorMap[%d] = %d, want %d", i, got.ColorMap[i], h.ColorMap[i])
			}
		}
		if len(got.Comments) != 2 || got.Comments[0] != "hello" || got.Comments[1] != "world" {
			t.Errorf("Comments = %v, want [hello world]", got.Comments)
		}
	}
}

func TestHeaderChannels(t *testing.T) {
	h := &Header{NColors: 3, Alpha: false}
	if h.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", h.Channels())
	}
	h.Alpha = true
	if h.Channels() != 4 {
		t.Errorf("Channels() = %d, want 4", h.Channels())
	}
}

func TestHeaderClone(t *testing.T) {
	h := &Header{
		NColors:    3,
		Background: []byte{1, 2, 3},
		ColorMap:   []uint16{1, 2, 3},
		Comments:   []string{"a"},
	}
	c := h.Clone()
	c.Background[0] = 99
	c.Comments[0] = "b"
	if h.Background[0] == 99 {
		t.Error("Clone() did not deep-copy Background")
	}
	if h.Comments[0] == "b" {
		t.Error("Clone() did not deep-copy Comments")
	}
}

func TestSplitComments(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []string
	}{
		{"empty", nil, nil},
		{"single", []byte("abc\x00"), []string{"abc"}},
		{"multi", []byte("abc\x00def\x00"), []string{"abc", "def"}},
		{"no trailing null", []byte("abc\x00def"), []string{"abc", "def"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitComments(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("splitComments() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitComments()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

package rle

import "testing"

func TestDecodeOpcode(t *testing.T) {
	tests := []struct {
		name     string
		b        byte
		wantBase byte
		wantLong bool
		wantOk   bool
	}{
		{"skip lines short", 0x00, OpSkipLines, false, true},
		{"skip lines long", 0x40, OpSkipLines, true, true},
		{"eof", 0x05, OpEof, false, true},
		{"set color long invalid shape still decodes", 0x41, OpSetColor, true, true},
		{"high bit set", 0x80, 0, false, false},
		{"base too large", 0x06, 0, false, false},
		{"base too large long", 0x46, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, long, ok := decodeOpcode(tt.b)
			if ok != tt.wantOk {
				t.Fatalf("decodeOpcode(0x%02X) ok = %v, want %v", tt.b, ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if base != tt.wantBase || long != tt.wantLong {
				t.Errorf("decodeOpcode(0x%02X) = (%d, %v), want (%d, %v)", tt.b, base, long, tt.wantBase, tt.wantLong)
			}
		})
	}
}

func TestEncodeDecodeOpcodeRoundTrip(t *testing.T) {
	for base := byte(0); base <= OpEof; base++ {
		for _, long := range []bool{false, true} {
			b := encodeOpcode(base, long)
			gotBase, gotLong, ok := decodeOpcode(b)
			if !ok {
				t.Fatalf("decodeOpcode(encodeOpcode(%d, %v)) not ok", base, long)
			}
			if gotBase != base || gotLong != long {
				t.Errorf("round trip base=%d long=%v -> (%d, %v)", base, long, gotBase, gotLong)
			}
		}
	}
}

func TestWillAdvanceRow(t *testing.T) {
	tests := []struct {
		prevChannel, newChannel int
		want                    bool
	}{
		{-1, 0, false}, // very start of stream: no previous channel
		{0, 0, true},
		{1, 0, true},
		{2, 0, true},
		{0, 1, false},
		{1, 2, false},
	}
	for _, tt := range tests {
		if got := willAdvanceRow(tt.prevChannel, tt.newChannel); got != tt.want {
			t.Errorf("willAdvanceRow(%d, %d) = %v, want %v", tt.prevChannel, tt.newChannel, got, tt.want)
		}
	}
}

func TestUseShortForm(t *testing.T) {
	tests := []struct {
		count int
		want  bool
	}{
		{1, true},
		{256, true},
		{257, false},
		{65536, false},
	}
	for _, tt := range tests {
		if got := useShortForm(tt.count); got != tt.want {
			t.Errorf("useShortForm(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

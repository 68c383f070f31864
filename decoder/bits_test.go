package decoder

import (
	"testing"
)

// putBits writes the low width bits of v at bit position pos, LSB first.
func putBits(b []byte, pos, width int, v uint32) {
	for i := 0; i < width; i++ {
		if v>>uint(i)&1 == 1 {
			b[(pos+i)/8] |= 1 << uint((pos+i)%8)
		}
	}
}

func TestField(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		pos    int
		width  int
		want   uint32
		wantOK bool
	}{
		{"aligned 10 bits", []byte{0xFF, 0x03}, 0, 10, 0x3FF, true},
		{"offset 6", []byte{0xC0, 0xFF}, 6, 10, 0x3FF, true},
		{"whole byte", []byte{0xAB}, 0, 8, 0xAB, true},
		{"high nibble", []byte{0xAB}, 4, 4, 0xA, true},
		{"little endian word", []byte{0x34, 0x12}, 0, 16, 0x1234, true},
		{"32 bits", []byte{0x01, 0x02, 0x03, 0x04}, 0, 32, 0x04030201, true},
		{"32 bits unaligned", []byte{0x10, 0x20, 0x30, 0x40, 0x05}, 4, 32, 0x54030201, true},
		{"13 bits across three bytes", []byte{0xE0, 0xFF, 0x03}, 5, 13, 0x1FFF, true},
		{"past end", []byte{0xFF}, 4, 8, 0, false},
		{"negative position", []byte{0xFF, 0xFF}, -1, 4, 0, false},
		{"zero width", []byte{0xFF}, 0, 0, 0, false},
		{"too wide", make([]byte, 8), 0, 33, 0, false},
		{"empty", nil, 0, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Field(tt.data, tt.pos, tt.width)
			if ok != tt.wantOK {
				t.Fatalf("Field() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Field() = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

// legacyAxis unpacks a 10-bit accelerometer axis by the four byte
// alignments the device firmware produces.
func legacyAxis(b []byte, sample, axis int) int {
	pos := 30*sample + 10*axis
	o := pos / 8
	switch pos % 8 {
	case 2:
		return int(b[o]&0xFC)>>2 + int(b[o+1]&0x0F)<<6
	case 4:
		return int(b[o]&0xF0)>>4 + int(b[o+1]&0x3F)<<4
	case 6:
		return int(b[o]&0xC0)>>6 + int(b[o+1])<<2
	default:
		return int(b[o]) + int(b[o+1]&0x03)<<8
	}
}

func TestFieldMatchesAccelAlignments(t *testing.T) {
	block := make([]byte, 480)
	for i := range block {
		block[i] = byte(i*37 + 11)
	}

	for sample := 0; sample < WaveformGroups; sample++ {
		for axis := 0; axis < 3; axis++ {
			got, ok := Field(block, 30*sample+10*axis, 10)
			if !ok {
				t.Fatalf("sample %d axis %d out of range", sample, axis)
			}
			if want := legacyAxis(block, sample, axis); int(got) != want {
				t.Errorf("sample %d axis %d: Field() = %d, want %d", sample, axis, got, want)
			}
		}
	}
}

func TestFieldPacked13Bit(t *testing.T) {
	block := make([]byte, 30)
	values := make([]uint32, IntervalsPerRecord)
	for i := range values {
		values[i] = uint32(i*449+7) & 0x1FFF
		putBits(block, 13*i+i/3, 13, values[i])
	}
	// filler bits after every third value must not leak into neighbours
	for i := 2; i < IntervalsPerRecord; i += 3 {
		putBits(block, 13*(i+1)+i/3, 1, 1)
	}

	for i, want := range values {
		got, ok := Field(block, 13*i+i/3, 13)
		if !ok || got != want {
			t.Errorf("value %d = 0x%X (ok=%v), want 0x%X", i, got, ok, want)
		}
	}
}

func BenchmarkField(b *testing.B) {
	block := make([]byte, 480)
	for i := range block {
		block[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for s := 0; s < WaveformGroups*3; s++ {
			_, _ = Field(block, 10*s, 10)
		}
	}
}

package pcidio

import (
	"encoding/binary"
	"testing"
)

func TestParsePackFormat(t *testing.T) {
	tests := []struct {
		format string
		want   PackFormat
	}{
		{"<B", PackFormat{binary.LittleEndian, PackUnsigned, 1}},
		{"b", PackFormat{binary.LittleEndian, PackSigned, 1}},
		{">H", PackFormat{binary.BigEndian, PackUnsigned, 2}},
		{"!i", PackFormat{binary.BigEndian, PackSigned, 4}},
		{"=L", PackFormat{binary.LittleEndian, PackUnsigned, 4}},
		{"<f", PackFormat{binary.LittleEndian, PackFloat, 4}},
		{"<d", PackFormat{binary.LittleEndian, PackFloat, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := ParsePackFormat(tt.format)
			if err != nil {
				t.Fatalf("ParsePackFormat returned err: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v want %+v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "<", "<x", "?B", "<BB", "<2B"} {
		if _, err := ParsePackFormat(bad); err == nil {
			t.Errorf("format %q should be rejected", bad)
		}
	}
}

func TestCustomPackedUnsigned(t *testing.T) {
	cp, _ := Packed("<I", 0xFFFFFFFF)
	got, err := cp.pack(4)
	if err != nil {
		t.Fatalf("pack returned err: %v", err)
	}
	assertBytes(t, got, []byte{0xFF, 0xFF, 0xFF, 0xFF})

	cp, _ = Packed("<I", -1)
	if _, err := cp.pack(4); err == nil {
		t.Error("negative unsigned value should fail")
	}

	zero := CustomPacked{Format: PackFormat{Kind: PackSigned, Width: 2}, Value: -1}
	got, err = zero.pack(2)
	if err != nil {
		t.Fatalf("pack returned err: %v", err)
	}
	assertBytes(t, got, []byte{0xFF, 0xFF})
}

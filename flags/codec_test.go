package flags

import (
	"testing"

	"github.com/pkg/errors"
)

var testTable = NewTable(
	[8]string{"IN1", "IN2", "IN3", "IN4", "IN5", "IN6", "IN7", "IN8"},
	[8]string{"", "", "", "PO10", "PO11", "PO12", "ACK10", "ACK11"},
	[8]string{"PORT0", "PORT1", "PORT2", "PORT3", "", "", "", ""},
)

func assertSet(t testing.TB, got, want Set) {
	t.Helper()

	if !got.Equal(want) {
		t.Errorf("got [%s] want [%s]", got, want)
	}
}

func TestTableLookup(t *testing.T) {
	if got := testTable.NameOf(1, 6); got != "ACK10" {
		t.Errorf("got %q want ACK10", got)
	}
	if got := testTable.NameOf(1, 0); got != "" {
		t.Errorf("got %q want empty name", got)
	}
	if got := testTable.NameOf(9, 0); got != "" {
		t.Errorf("out of range register gave %q", got)
	}

	bit, found := testTable.BitIndexOf(2, "PORT3")
	if !found || bit != 3 {
		t.Errorf("got %d, %v want 3, true", bit, found)
	}

	_, found = testTable.BitIndexOf(2, "ACK10")
	if found {
		t.Error("ACK10 is not in register 2")
	}

	_, found = testTable.BitIndexOf(2, "")
	if found {
		t.Error("empty name must never resolve to an unused bit")
	}

	if n := len(testTable.Names(1)); n != 5 {
		t.Errorf("got %d names in register 1 want 5", n)
	}
}

func TestParse(t *testing.T) {
	assertSet(t, Parse("PORT0  PORT3\tPORT0"), NewSet("PORT0", "PORT3"))
	assertSet(t, Parse(""), NewSet())
	assertSet(t, Parse("   "), NewSet())

	s := Parse("port0 PORT0")
	if len(s) != 2 {
		t.Errorf("names are case sensitive, got %d entries", len(s))
	}
}

func TestEncode(t *testing.T) {
	codec := NewCodec(testTable)

	tests := []struct {
		name  string
		reg   int
		flags string
		want  byte
	}{
		{"empty", 1, "", 0x00},
		{"ack and pulse", 1, "ACK11 PO12", 0xA0},
		{"latch ports", 2, "PORT0 PORT3", 0x09},
		{"duplicates", 2, "PORT1 PORT1", 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.EncodeString(tt.reg, tt.flags)
			if err != nil {
				t.Fatalf("Encode returned err: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %02X want %02X", got, tt.want)
			}
		})
	}
}

func TestEncodeUnknownFlag(t *testing.T) {
	codec := NewCodec(testTable)

	_, err := codec.EncodeString(1, "ACK11 ACK12")
	if !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("got err %v want %v", err, ErrUnknownFlag)
	}

	_, err = codec.EncodeString(2, "ack10")
	if !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("got err %v want %v", err, ErrUnknownFlag)
	}

	_, err = codec.EncodeString(7, "PORT0")
	if !errors.Is(err, ErrUnknownFlag) {
		t.Errorf("got err %v want %v", err, ErrUnknownFlag)
	}
}

func TestDecode(t *testing.T) {
	codec := NewCodec(testTable)

	assertSet(t, codec.Decode(1, 0xC0), NewSet("ACK10", "ACK11"))
	assertSet(t, codec.Decode(1, 0x00), NewSet())
	assertSet(t, codec.Decode(2, 0x11), NewSet("PORT0", UnusedMarker(4)))

	if UnusedMarker(4) != "<unused:bit4>" {
		t.Errorf("unexpected marker %s", UnusedMarker(4))
	}
}

func TestEncodeDecodeInverse(t *testing.T) {
	codec := NewCodec(testTable)

	for reg := 0; reg < testTable.Len(); reg++ {
		names := testTable.Names(reg)
		for mask := 0; mask < 1<<len(names); mask++ {
			subset := NewSet()
			for i, n := range names {
				if mask&(1<<i) != 0 {
					subset[n] = struct{}{}
				}
			}

			b, err := codec.Encode(reg, subset)
			if err != nil {
				t.Fatalf("Encode(%d, [%s]) returned err: %v", reg, subset, err)
			}
			assertSet(t, codec.Decode(reg, b), subset)
		}
	}
}

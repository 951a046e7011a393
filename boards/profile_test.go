package boards

import "testing"

func TestLookup(t *testing.T) {
	p, ok := Lookup("PCI2724")
	if !ok || p != PCI2724 {
		t.Fatal("pci2724 profile not found")
	}

	_, ok = Lookup("pci9999")
	if ok {
		t.Error("unknown board should not be found")
	}

	if names := Names(); len(names) != 1 || names[0] != "pci2724" {
		t.Errorf("got names %v", names)
	}
}

func TestPCI2724Catalog(t *testing.T) {
	p := PCI2724

	if p.DataWidth() != 4 {
		t.Errorf("got data width %d want 4", p.DataWidth())
	}

	for reg := 0; reg < 4; reg++ {
		if n := len(p.In.Names(reg)); n != 8 {
			t.Errorf("input register %d has %d names", reg, n)
		}
		if n := len(p.Out.Names(reg)); n != 8 {
			t.Errorf("output register %d has %d names", reg, n)
		}
	}

	if bit, ok := p.In.BitIndexOf(0x0f, "BID3"); !ok || bit != 3 {
		t.Errorf("BID3 got %d, %v", bit, ok)
	}
	if _, ok := p.Out.BitIndexOf(p.LatchRegister, "PORT2"); !ok {
		t.Error("PORT2 missing from latch register")
	}
	if _, ok := p.Out.BitIndexOf(p.AckRegister, "ACK11"); !ok {
		t.Error("ACK11 missing from ack register")
	}
	if _, ok := p.Out.BitIndexOf(p.StbRegister, "PO22"); !ok {
		t.Error("PO22 missing from stb register")
	}
}

func TestSelectors(t *testing.T) {
	r, ok := PCI2724.Region("IN17_32")
	if !ok {
		t.Fatal("IN17_32 not found")
	}
	if r.Offset != 2 || r.Size != 2 || r.Dir != Input || r.Bits() != 16 {
		t.Errorf("unexpected region %+v", r)
	}

	outs := PCI2724.SelectorsFor(Output)
	want := []Selector{"OUT1_8", "OUT1_16", "OUT1_32", "OUT9_16", "OUT17_24", "OUT17_32", "OUT25_32"}
	if len(outs) != len(want) {
		t.Fatalf("got %v want %v", outs, want)
	}
	for i := range want {
		if outs[i] != want[i] {
			t.Errorf("at %d got %s want %s", i, outs[i], want[i])
		}
	}
}

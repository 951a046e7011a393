package pcidio

import "testing"

func assertBools(t testing.TB, got, want bool) {
	t.Helper()

	if got != want {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestChannelOutput(t *testing.T) {
	d, mt := newMockDriver(t)
	d.Initialize()

	out, err := d.GetOutput(9)
	if err != nil {
		t.Fatalf("GetOutput returned err: %v", err)
	}

	want := true
	out.Set(want)
	got, _ := out.GetState()
	assertBools(t, got, want)
	assertBytes(t, mt.Output(0, 0, 4), []byte{0x00, 0x01, 0x00, 0x00})

	anotherOut, _ := d.GetOutput(9)
	got, _ = anotherOut.GetState()
	assertBools(t, got, want)

	want = false
	out.Set(want)
	got, _ = out.GetState()
	assertBools(t, got, want)

	inverted := &ChannelOutput{Channel: 1, Invert: true, driver: d}
	inverted.Set(false)
	assertBytes(t, mt.Output(0, 0, 1), []byte{0x01})
	got, _ = inverted.GetState()
	assertBools(t, got, false)

	_, err = d.GetOutput(33)
	assertErrIs(t, err, ErrInvalidChannelRange)
}

func TestChannelInput(t *testing.T) {
	d, mt := newMockDriver(t)
	mt.SetInput(0, 0, []byte{0x00, 0x00, 0x04, 0x00})

	in, err := d.GetInput(19)
	if err != nil {
		t.Fatalf("GetInput returned err: %v", err)
	}
	got, _ := in.GetState()
	assertBools(t, got, true)

	in.Invert = true
	got, _ = in.GetState()
	assertBools(t, got, false)

	_, err = d.GetInput(0)
	assertErrIs(t, err, ErrInvalidChannelRange)
}

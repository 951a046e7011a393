package drivers

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

const pinTransportName = "pins"

// PinBank is a set of single digital lines, e.g. a GPIO header or an I2C expander.
type PinBank interface {
	Setup(ctx context.Context, inputs []uint8, outputs []uint8) error
	ReadPin(pin uint8) (bool, error)
	WritePin(pin uint8, state bool) error
	Close() error
	String() string
}

// PinTransport emulates the data registers of a DIO board on top of a PinBank,
// for bench setups without the real card. Bit b of the byte at offset o is
// channel o*8+b+1, channel n is wired to Inputs[n-1] for reads and
// Outputs[n-1] for writes. Only Bar 0 exists.
type PinTransport struct {
	Bank    PinBank
	Inputs  []uint8
	Outputs []uint8

	ready bool
	lock  sync.Mutex
}

func (pt *PinTransport) Setup(ctx context.Context) error {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	if pt.Bank == nil {
		return errors.New("PinTransport has no pin bank")
	}
	err := pt.Bank.Setup(ctx, pt.Inputs, pt.Outputs)
	if err != nil {
		return errors.Wrapf(err, "failed to setup %s pin bank", pt.Bank)
	}
	pt.ready = true
	return nil
}

func (pt *PinTransport) check(bar, offset, size, lines int) error {
	if !pt.ready {
		return errNotReady
	}
	if err := checkAccess(bar, offset, size); err != nil {
		return err
	}
	if bar != 0 {
		return errors.Errorf("pin transport has only bar 0, got %d", bar)
	}
	if (offset+size)*8 > lines {
		return errors.Errorf("access 0x%02x+%d needs %d lines, %d wired", offset, size, (offset+size)*8, lines)
	}
	return nil
}

func (pt *PinTransport) Read(bar, offset, size int) (data []byte, err error) {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	err = pt.check(bar, offset, size, len(pt.Inputs))
	if err != nil {
		return nil, errors.Wrap(err, "pin read failed")
	}

	data = make([]byte, size)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			state, readErr := pt.Bank.ReadPin(pt.Inputs[(offset+i)*8+bit])
			if readErr != nil {
				return nil, errors.Wrap(readErr, "pin read failed")
			}
			if state {
				data[i] |= 1 << bit
			}
		}
	}
	return
}

func (pt *PinTransport) Write(bar, offset int, data []byte) (err error) {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	err = pt.check(bar, offset, len(data), len(pt.Outputs))
	if err != nil {
		return errors.Wrap(err, "pin write failed")
	}

	for i, d := range data {
		for bit := 0; bit < 8; bit++ {
			err = pt.Bank.WritePin(pt.Outputs[(offset+i)*8+bit], d&(1<<bit) != 0)
			if err != nil {
				return errors.Wrap(err, "pin write failed")
			}
		}
	}
	return
}

func (pt *PinTransport) Close() error {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	pt.ready = false
	if pt.Bank == nil {
		return nil
	}
	return pt.Bank.Close()
}

func (pt *PinTransport) String() string {
	if pt.Bank == nil {
		return pinTransportName
	}
	return pinTransportName + ":" + pt.Bank.String()
}

func (pt *PinTransport) IsReady() bool {
	pt.lock.Lock()
	defer pt.lock.Unlock()

	return pt.ready
}

package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

const rpioBankName = "gpio"

// RpioBank drives Raspberry Pi header lines by BCM number.
type RpioBank struct {
	InvertInputs  bool
	InvertOutputs bool
}

func (rb *RpioBank) Setup(ctx context.Context, inputs []uint8, outputs []uint8) error {
	err := rpio.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open gpio for pins: %v, %v; ", inputs, outputs)
	}

	for _, inPin := range inputs {
		pin := rpio.Pin(inPin)
		pin.Input()
		pin.PullUp()
	}

	for _, outPin := range outputs {
		rpio.Pin(outPin).Output()
	}
	return nil
}

func (rb *RpioBank) ReadPin(pin uint8) (bool, error) {
	high := rpio.Pin(pin).Read() == rpio.High
	return high != rb.InvertInputs, nil
}

func (rb *RpioBank) WritePin(pin uint8, state bool) error {
	if rb.InvertOutputs {
		state = !state
	}
	if state {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

func (rb *RpioBank) Close() error {
	return rpio.Close()
}

func (rb *RpioBank) String() string {
	return rpioBankName
}

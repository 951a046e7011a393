package pcidio

import (
	"github.com/hubertat/pcidio/bitcodec"
)

// DigitalInput is a single input line.
type DigitalInput interface {
	GetState() (bool, error)
}

// DigitalOutput is a single output line.
type DigitalOutput interface {
	GetState() (bool, error)
	Set(bool) error
}

// ChannelInput reads one input channel of a board.
type ChannelInput struct {
	Channel int
	Invert  bool

	driver *Driver
}

func (ci *ChannelInput) GetState() (state bool, err error) {
	bits, err := ci.driver.ReadChannels(ci.Channel, 1)
	if err != nil {
		return
	}

	state = (bits[0] == 1) != ci.Invert
	return
}

// ChannelOutput drives one output channel, other channels keep their last written level.
type ChannelOutput struct {
	Channel int
	Invert  bool

	driver *Driver
}

func (co *ChannelOutput) GetState() (state bool, err error) {
	state, err = co.driver.OutputState(co.Channel)
	state = state != co.Invert
	return
}

func (co *ChannelOutput) Set(state bool) error {
	if co.Invert {
		state = !state
	}
	bit := uint8(0)
	if state {
		bit = 1
	}
	return co.driver.WriteChannels(bitcodec.Bits{bit}, co.Channel)
}

func (d *Driver) GetInput(ch int) (*ChannelInput, error) {
	err := d.checkRange(ch, 1)
	if err != nil {
		return nil, err
	}
	return &ChannelInput{Channel: ch, driver: d}, nil
}

func (d *Driver) GetOutput(ch int) (*ChannelOutput, error) {
	err := d.checkRange(ch, 1)
	if err != nil {
		return nil, err
	}
	return &ChannelOutput{Channel: ch, driver: d}, nil
}

package drivers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

const mcpBankName = "mcp23017"

// McpBank drives the 16 lines of an MCP23017 I2C expander.
type McpBank struct {
	BusNo         uint8
	DevNo         uint8
	InvertInputs  bool
	InvertOutputs bool

	device *mcp23017.Device
}

func (mb *McpBank) Setup(ctx context.Context, inputs []uint8, outputs []uint8) (err error) {
	mb.device, err = mcp23017.Open(mb.BusNo, mb.DevNo)
	if err != nil {
		return errors.Wrapf(err, "failed to open mcp23017 on bus %d dev %d", mb.BusNo, mb.DevNo)
	}

	for _, inputPin := range inputs {
		if inputPin > 15 {
			return errors.Errorf("input pin %d out of range (mcp23017 has 16 lines)", inputPin)
		}
		err = mb.device.PinMode(inputPin, mcp23017.INPUT)
		if err != nil {
			return
		}
		err = mb.device.SetPullUp(inputPin, true)
		if err != nil {
			return
		}
	}

	for _, outputPin := range outputs {
		if outputPin > 15 {
			return errors.Errorf("output pin %d out of range (mcp23017 has 16 lines)", outputPin)
		}
		err = mb.device.PinMode(outputPin, mcp23017.OUTPUT)
		if err != nil {
			return
		}
	}
	return
}

func (mb *McpBank) ReadPin(pin uint8) (state bool, err error) {
	rawState, err := mb.device.DigitalRead(pin)
	if err != nil {
		return
	}

	state = bool(rawState) != mb.InvertInputs
	return
}

func (mb *McpBank) WritePin(pin uint8, state bool) error {
	if mb.InvertOutputs {
		state = !state
	}
	return mb.device.DigitalWrite(pin, mcp23017.PinLevel(state))
}

func (mb *McpBank) Close() error {
	if mb.device == nil {
		return nil
	}
	return mb.device.Close()
}

func (mb *McpBank) String() string {
	return mcpBankName
}

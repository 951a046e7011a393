package pcidio

import (
	"fmt"
	"hash/fnv"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
)

// Switch is one input channel. It is reported to HomeKit as a contact sensor
// and drives the outlets that name its channel in ControlBy.
type Switch struct {
	Name           string
	State          bool
	InCh           int
	Invert         bool
	DisableHomekit bool

	switchThis []*Outlet

	hkAccessory *accessory.A
	hkService   *service.ContactSensor
}

func (swb *Switch) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Switch_" + swb.Name))
	return hash.Sum64()
}

func (swb *Switch) Init(driver *Driver) error {
	input, err := driver.GetInput(swb.InCh)
	if err != nil {
		return errors.Wrapf(err, "Init of switch %s failed", swb.Name)
	}
	input.Invert = swb.Invert

	swb.State, err = input.GetState()
	if err != nil {
		return errors.Wrap(err, "Init failed, on reading state")
	}

	if swb.DisableHomekit {
		return nil
	}

	info := accessory.Info{
		Name:         swb.Name,
		SerialNumber: fmt.Sprintf("switch:%s:%02d", driver.Profile().Name, swb.InCh),
	}
	swb.hkAccessory = accessory.New(info, accessory.TypeSensor)
	swb.hkService = service.NewContactSensor()
	swb.hkAccessory.AddS(swb.hkService.S)
	swb.setHk()

	return nil
}

func (swb *Switch) setHk() {
	if swb.hkService == nil {
		return
	}
	if swb.State {
		swb.hkService.ContactSensorState.SetValue(characteristic.ContactSensorStateContactDetected)
	} else {
		swb.hkService.ContactSensorState.SetValue(characteristic.ContactSensorStateContactNotDetected)
	}
}

// Sync takes the switch level from a snapshot of all inputs, channel 1 first.
// Controlled outlets follow the switch when its level changes.
func (swb *Switch) Sync(inputs bitcodec.Bits) (changed bool, err error) {
	if swb.InCh < 1 || swb.InCh > len(inputs) {
		err = errors.Wrapf(ErrInvalidChannelRange, "switch %s channel %d", swb.Name, swb.InCh)
		return
	}

	state := (inputs[swb.InCh-1] == 1) != swb.Invert
	changed = state != swb.State
	swb.State = state
	if !changed {
		return
	}

	swb.setHk()
	for _, ou := range swb.switchThis {
		ou.SetValue(swb.State)
	}
	return
}

func (swb *Switch) GetHk() *accessory.A {
	return swb.hkAccessory
}

func (swb *Switch) GetValue() bool {
	return swb.State
}

package pcidio

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/pkg/errors"
)

// Outlet is one output channel, optionally exposed as a HomeKit outlet.
type Outlet struct {
	Name           string
	State          bool
	OutCh          int
	Invert         bool
	DisableHomekit bool
	IsFaulty       bool

	// ControlBy lists input channels whose Switch drives this outlet.
	ControlBy []int

	output *ChannelOutput

	hk    *accessory.Outlet
	fault *characteristic.StatusFault

	lock sync.Mutex
}

func (ou *Outlet) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Outlet_" + ou.Name))
	return hash.Sum64()
}

func (ou *Outlet) Init(driver *Driver) (err error) {
	ou.output, err = driver.GetOutput(ou.OutCh)
	if err != nil {
		return errors.Wrapf(err, "Init of outlet %s failed", ou.Name)
	}
	ou.output.Invert = ou.Invert

	if ou.DisableHomekit {
		return nil
	}
	info := accessory.Info{
		Name:         ou.Name,
		SerialNumber: fmt.Sprintf("outlet:%s:%02d", driver.Profile().Name, ou.OutCh),
	}
	ou.hk = accessory.NewOutlet(info)

	ou.fault = characteristic.NewStatusFault()
	ou.fault.SetValue(characteristic.StatusFaultNoFault)
	ou.hk.Outlet.AddC(ou.fault.C)

	ou.hk.Outlet.On.OnValueRemoteUpdate(ou.SetValue)
	return nil
}

// Sync refreshes State from the last written output level.
func (ou *Outlet) Sync() error {
	ou.lock.Lock()
	defer ou.lock.Unlock()
	var err error

	oldState := ou.State
	ou.State, err = ou.output.GetState()

	if ou.hk != nil {
		if err != nil {
			ou.fault.SetValue(characteristic.StatusFaultGeneralFault)
			ou.IsFaulty = true
		} else {
			ou.fault.SetValue(characteristic.StatusFaultNoFault)
			ou.IsFaulty = false
		}
	}

	if err != nil {
		return errors.Wrap(err, "Sync failed")
	}

	if oldState != ou.State && ou.hk != nil {
		ou.hk.Outlet.On.SetValue(ou.State)
	}

	return nil
}

func (ou *Outlet) GetHk() *accessory.A {
	if ou.hk == nil {
		return nil
	}
	return ou.hk.A
}

func (ou *Outlet) SetValue(state bool) {
	ou.lock.Lock()
	defer ou.lock.Unlock()

	ou.setLocked(state)
}

func (ou *Outlet) setLocked(state bool) {
	err := ou.output.Set(state)
	if err != nil {
		ou.IsFaulty = true
		return
	}
	ou.State = state
}

func (ou *Outlet) Toggle() {
	ou.lock.Lock()
	defer ou.lock.Unlock()

	ou.setLocked(!ou.State)
}

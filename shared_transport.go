package pcidio

import (
	"context"

	"github.com/hubertat/pcidio/drivers"
)

// sharedTransport hands the driver's transport to other users, e.g. a
// RegisterSlave. Every access takes the driver lock, and writes to the output
// data registers land in the driver's shadow.
type sharedTransport struct {
	driver *Driver
}

// SharedTransport returns a transport view of the board that stays consistent
// with this driver's output shadow. Closing it does not close the board.
func (d *Driver) SharedTransport() drivers.RegisterTransport {
	return &sharedTransport{driver: d}
}

func (st *sharedTransport) Setup(ctx context.Context) error {
	return nil
}

func (st *sharedTransport) Read(bar, offset, size int) ([]byte, error) {
	st.driver.lock.Lock()
	defer st.driver.lock.Unlock()

	return st.driver.readLocked(bar, offset, size)
}

func (st *sharedTransport) Write(bar, offset int, data []byte) error {
	st.driver.lock.Lock()
	defer st.driver.lock.Unlock()

	return st.driver.writeLocked(bar, offset, data)
}

func (st *sharedTransport) Close() error {
	return nil
}

func (st *sharedTransport) String() string {
	return "shared:" + st.driver.transport.String()
}

func (st *sharedTransport) IsReady() bool {
	return st.driver.transport.IsReady()
}

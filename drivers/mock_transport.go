package drivers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

const mockTransportName = "mock"
const mockBarSize = 0x40

// MockWrite is one recorded write.
type MockWrite struct {
	Bar    int
	Offset int
	Data   []byte
}

// MockTransport keeps BAR contents in memory. Reads see the input image,
// writes land in the output image, like a board whose outputs cannot be read back.
type MockTransport struct {
	Bars int

	in      [][]byte
	out     [][]byte
	writes  []MockWrite
	ready   bool
	lock    sync.Mutex
	writeTo io.Writer

	// FailWrites makes every following Write return an error.
	FailWrites bool
}

func (mt *MockTransport) Setup(ctx context.Context) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	bars := mt.Bars
	if bars < 1 {
		bars = 1
	}
	mt.in = make([][]byte, bars)
	mt.out = make([][]byte, bars)
	for i := range mt.in {
		mt.in[i] = make([]byte, mockBarSize)
		mt.out[i] = make([]byte, mockBarSize)
	}
	mt.writes = nil
	mt.ready = true
	return nil
}

func (mt *MockTransport) window(bar, offset, size int) error {
	if !mt.ready {
		return errNotReady
	}
	if bar < 0 || bar >= len(mt.in) {
		return errors.Errorf("mock bar %d not present", bar)
	}
	if offset < 0 || offset+size > mockBarSize {
		return errors.Errorf("mock access 0x%02x+%d out of bar", offset, size)
	}
	return nil
}

func (mt *MockTransport) Read(bar, offset, size int) ([]byte, error) {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	err := checkAccess(bar, offset, size)
	if err == nil {
		err = mt.window(bar, offset, size)
	}
	if err != nil {
		return nil, errors.Wrap(err, "mock read failed")
	}

	return append([]byte{}, mt.in[bar][offset:offset+size]...), nil
}

func (mt *MockTransport) Write(bar, offset int, data []byte) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	err := checkAccess(bar, offset, len(data))
	if err == nil {
		err = mt.window(bar, offset, len(data))
	}
	if err == nil && mt.FailWrites {
		err = errors.New("injected write failure")
	}
	if err != nil {
		return errors.Wrap(err, "mock write failed")
	}

	copy(mt.out[bar][offset:], data)
	mt.writes = append(mt.writes, MockWrite{Bar: bar, Offset: offset, Data: append([]byte{}, data...)})
	if mt.writeTo != nil {
		fmt.Fprintf(mt.writeTo, "[bar %d +0x%02x] write % X\n", bar, offset, data)
	}
	return nil
}

func (mt *MockTransport) Close() error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	mt.ready = false
	return nil
}

func (mt *MockTransport) String() string {
	return mockTransportName
}

func (mt *MockTransport) IsReady() bool {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	return mt.ready
}

// SetInput places data in the input image, as if the board saw those levels.
func (mt *MockTransport) SetInput(bar, offset int, data []byte) error {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	err := mt.window(bar, offset, len(data))
	if err != nil {
		return err
	}
	copy(mt.in[bar][offset:], data)
	return nil
}

// Output returns a copy of the output image.
func (mt *MockTransport) Output(bar, offset, size int) []byte {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	if mt.window(bar, offset, size) != nil {
		return nil
	}
	return append([]byte{}, mt.out[bar][offset:offset+size]...)
}

func (mt *MockTransport) Writes() []MockWrite {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	return append([]MockWrite{}, mt.writes...)
}

func (mt *MockTransport) MonitorWrites(writer io.Writer) {
	mt.lock.Lock()
	defer mt.lock.Unlock()

	mt.writeTo = writer
}

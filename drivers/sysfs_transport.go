package drivers

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const sysfsTransportName = "sysfs"
const defaultPciDevicesDir = "/sys/bus/pci/devices"

// resource flag of an I/O port BAR, see linux/ioport.h
const ioresourceIo = 0x00000100

// SysfsTransport accesses a PCI board through its sysfs resource files.
// Memory BARs are mmapped, I/O port BARs use pread/pwrite on the resource file.
type SysfsTransport struct {
	Address  string
	VendorId uint16
	DeviceId uint16

	// DevicesDir overrides /sys/bus/pci/devices.
	DevicesDir string

	bars   map[int]*sysfsBar
	ready  bool
	lock   sync.Mutex
	logger *log.Logger
}

type sysfsBar struct {
	file *os.File
	mem  []byte
	size int64
}

func (st *SysfsTransport) devicesDir() string {
	if len(st.DevicesDir) > 0 {
		return st.DevicesDir
	}
	return defaultPciDevicesDir
}

func readHexFile(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(string(raw)), "0x"), 16, 64)
}

// FindDevice returns the first PCI address with matching vendor and device ids.
func (st *SysfsTransport) FindDevice() (address string, err error) {
	entries, err := os.ReadDir(st.devicesDir())
	if err != nil {
		err = errors.Wrap(err, "failed to list pci devices")
		return
	}

	for _, entry := range entries {
		dir := filepath.Join(st.devicesDir(), entry.Name())
		vendor, vErr := readHexFile(filepath.Join(dir, "vendor"))
		device, dErr := readHexFile(filepath.Join(dir, "device"))
		if vErr != nil || dErr != nil {
			continue
		}
		if uint16(vendor) == st.VendorId && uint16(device) == st.DeviceId {
			address = entry.Name()
			return
		}
	}

	err = errors.Errorf("no pci device %04x:%04x found", st.VendorId, st.DeviceId)
	return
}

// barFlags reads the flags column of the device "resource" table.
func (st *SysfsTransport) barFlags(bar int) (flags uint64, err error) {
	raw, err := os.ReadFile(filepath.Join(st.devicesDir(), st.Address, "resource"))
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if bar >= len(lines) {
		err = errors.Errorf("bar %d not listed in resource table", bar)
		return
	}
	cols := strings.Fields(lines[bar])
	if len(cols) != 3 {
		err = errors.Errorf("malformed resource line %q", lines[bar])
		return
	}
	return strconv.ParseUint(strings.TrimPrefix(cols[2], "0x"), 16, 64)
}

func (st *SysfsTransport) openBar(bar int) (sb *sysfsBar, err error) {
	path := filepath.Join(st.devicesDir(), st.Address, fmt.Sprintf("resource%d", bar))
	file, err := os.OpenFile(path, os.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		err = errors.Wrapf(err, "failed to open %s", path)
		return
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		err = errors.Wrapf(err, "failed to stat %s", path)
		return
	}
	sb = &sysfsBar{file: file, size: info.Size()}

	flags, flagsErr := st.barFlags(bar)
	if flagsErr == nil && flags&ioresourceIo != 0 {
		st.logger.Debug("io port bar, using pread/pwrite", "bar", bar, "size", sb.size)
		return
	}

	mem, mmapErr := unix.Mmap(int(file.Fd()), 0, int(sb.size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if mmapErr != nil {
		st.logger.Warn("mmap failed, falling back to pread/pwrite", "bar", bar, "err", mmapErr)
		return
	}
	sb.mem = mem
	st.logger.Debug("mapped bar", "bar", bar, "size", sb.size)
	return
}

func (st *SysfsTransport) Setup(ctx context.Context) (err error) {
	st.lock.Lock()
	defer st.lock.Unlock()

	st.logger = newLogger("sysfs")

	if len(st.Address) == 0 {
		st.Address, err = st.FindDevice()
		if err != nil {
			return
		}
	}

	_, err = os.Stat(filepath.Join(st.devicesDir(), st.Address))
	if err != nil {
		err = errors.Wrapf(err, "pci device %s not present", st.Address)
		return
	}

	st.bars = make(map[int]*sysfsBar)
	st.ready = true
	st.logger.Info("board found", "address", st.Address)
	return
}

func (st *SysfsTransport) bar(bar, offset, size int) (sb *sysfsBar, err error) {
	if !st.ready {
		err = errNotReady
		return
	}
	err = checkAccess(bar, offset, size)
	if err != nil {
		return
	}

	sb, found := st.bars[bar]
	if !found {
		sb, err = st.openBar(bar)
		if err != nil {
			return
		}
		st.bars[bar] = sb
	}

	if offset%size != 0 {
		err = errors.Errorf("access 0x%02x+%d is not aligned to its width", offset, size)
		return
	}
	if int64(offset+size) > sb.size {
		err = errors.Errorf("access 0x%02x+%d beyond bar %d size %d", offset, size, bar, sb.size)
	}
	return
}

func (st *SysfsTransport) Read(bar, offset, size int) (data []byte, err error) {
	st.lock.Lock()
	defer st.lock.Unlock()

	sb, err := st.bar(bar, offset, size)
	if err != nil {
		return nil, errors.Wrap(err, "sysfs read failed")
	}

	data = make([]byte, size)
	if sb.mem != nil {
		mmioRead(sb.mem, offset, data)
		return
	}

	n, err := unix.Pread(int(sb.file.Fd()), data, int64(offset))
	if err == nil && n != size {
		err = errors.Errorf("short read %d of %d bytes", n, size)
	}
	if err != nil {
		return nil, errors.Wrap(err, "sysfs read failed")
	}
	return
}

func (st *SysfsTransport) Write(bar, offset int, data []byte) error {
	st.lock.Lock()
	defer st.lock.Unlock()

	sb, err := st.bar(bar, offset, len(data))
	if err != nil {
		return errors.Wrap(err, "sysfs write failed")
	}

	if sb.mem != nil {
		mmioWrite(sb.mem, offset, data)
		return nil
	}

	n, err := unix.Pwrite(int(sb.file.Fd()), data, int64(offset))
	if err == nil && n != len(data) {
		err = errors.Errorf("short write %d of %d bytes", n, len(data))
	}
	if err != nil {
		return errors.Wrap(err, "sysfs write failed")
	}
	return nil
}

// mmioRead loads one register with a single load of the register width.
// Callers check that offset is aligned and size is 1, 2 or 4.
func mmioRead(mem []byte, offset int, data []byte) {
	reg := unsafe.Pointer(&mem[offset])
	switch len(data) {
	case 1:
		data[0] = *(*uint8)(reg)
	case 2:
		binary.NativeEndian.PutUint16(data, *(*uint16)(reg))
	case 4:
		binary.NativeEndian.PutUint32(data, *(*uint32)(reg))
	}
}

func mmioWrite(mem []byte, offset int, data []byte) {
	reg := unsafe.Pointer(&mem[offset])
	switch len(data) {
	case 1:
		*(*uint8)(reg) = data[0]
	case 2:
		*(*uint16)(reg) = binary.NativeEndian.Uint16(data)
	case 4:
		*(*uint32)(reg) = binary.NativeEndian.Uint32(data)
	}
}

func (st *SysfsTransport) Close() (err error) {
	st.lock.Lock()
	defer st.lock.Unlock()

	st.ready = false
	for bar, sb := range st.bars {
		if sb.mem != nil {
			if unmapErr := unix.Munmap(sb.mem); unmapErr != nil {
				err = errors.Wrapf(unmapErr, "failed to unmap bar %d", bar)
			}
		}
		if closeErr := sb.file.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close bar %d", bar)
		}
	}
	st.bars = nil
	return
}

func (st *SysfsTransport) String() string {
	return sysfsTransportName
}

func (st *SysfsTransport) IsReady() bool {
	st.lock.Lock()
	defer st.lock.Unlock()

	return st.ready
}

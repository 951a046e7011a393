// Package pcidio drives memory mapped digital I/O boards by channel number,
// register selector or flag name.
package pcidio

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
	"github.com/hubertat/pcidio/boards"
	"github.com/hubertat/pcidio/drivers"
	"github.com/hubertat/pcidio/flags"
)

// Driver is the register access surface of one board.
//
// Output data registers cannot be read back, so the driver keeps a shadow of
// the last written output bytes. Narrow writes are merged into the shadow and
// written at full width. All transport transactions are serialized.
type Driver struct {
	profile   *boards.Profile
	transport drivers.RegisterTransport
	inCodec   *flags.Codec
	outCodec  *flags.Codec

	logger     *log.Logger
	permissive bool

	lock        sync.Mutex
	shadow      []byte
	shadowKnown bool
}

type Option func(*Driver)

func WithLogger(logger *log.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithPermissive turns unknown selectors, unsupported data and unknown control
// registers into silent no-ops instead of ErrUnsupportedOperation.
func WithPermissive(permissive bool) Option {
	return func(d *Driver) {
		d.permissive = permissive
	}
}

func NewDriver(profile *boards.Profile, transport drivers.RegisterTransport, opts ...Option) *Driver {
	d := &Driver{
		profile:   profile,
		transport: transport,
		inCodec:   flags.NewCodec(profile.In),
		outCodec:  flags.NewCodec(profile.Out),
		shadow:    make([]byte, profile.DataWidth()),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = newLogger(profile.Name)
	}
	return d
}

func (d *Driver) Profile() *boards.Profile {
	return d.profile
}

func (d *Driver) String() string {
	return d.profile.Name + "@" + d.transport.String()
}

func (d *Driver) Close() error {
	return d.transport.Close()
}

func (d *Driver) unsupported(format string, args ...interface{}) error {
	err := errors.Wrapf(ErrUnsupportedOperation, format, args...)
	if d.permissive {
		d.logger.Debug("ignored", "reason", err)
		return nil
	}
	return err
}

func (d *Driver) checkRange(start, count int) error {
	if start < 1 || count < 0 || count > d.profile.IoNumber-start+1 {
		return errors.Wrapf(ErrInvalidChannelRange, "I/O number must be in 1-%d, while %d-%d is given", d.profile.IoNumber, start, start+count-1)
	}
	return nil
}

func (d *Driver) readLocked(bar, offset, size int) ([]byte, error) {
	data, err := d.transport.Read(bar, offset, size)
	if err != nil {
		return nil, errors.Wrapf(err, "transport read failed (bar %d +0x%02x)", bar, offset)
	}
	if len(data) != size {
		return nil, errors.Errorf("transport returned %d bytes, %d requested", len(data), size)
	}
	d.logger.Debug("read", "bar", bar, "offset", offset, "data", bitcodec.BytesToHex(data))
	return data, nil
}

// writeLocked writes data and mirrors any overlap with the output data registers into the shadow.
func (d *Driver) writeLocked(bar, offset int, data []byte) error {
	err := d.transport.Write(bar, offset, data)
	if err != nil {
		return errors.Wrapf(err, "transport write failed (bar %d +0x%02x)", bar, offset)
	}
	d.logger.Debug("write", "bar", bar, "offset", offset, "data", bitcodec.BytesToHex(data))

	if bar != d.profile.DataBar {
		return nil
	}
	start, end := offset, offset+len(data)
	outStart, outEnd := d.profile.OutputOffset, d.profile.OutputOffset+len(d.shadow)
	if end <= outStart || start >= outEnd {
		return nil
	}
	for i := start; i < end; i++ {
		if i >= outStart && i < outEnd {
			d.shadow[i-outStart] = data[i-start]
		}
	}
	if start <= outStart && end >= outEnd {
		d.shadowKnown = true
	}
	return nil
}

// Initialize clears all outputs and resets the control registers to their defaults.
// It never reads the board and can be called any number of times.
func (d *Driver) Initialize() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	err := d.writeLocked(d.profile.DataBar, d.profile.OutputOffset, make([]byte, len(d.shadow)))
	if err != nil {
		return errors.Wrap(err, "failed to clear outputs")
	}

	for _, def := range d.profile.InitFlags {
		b, err := d.outCodec.EncodeString(def.Register, def.Flags)
		if err != nil {
			return errors.Wrapf(err, "bad default flags for register 0x%02x", def.Register)
		}
		err = d.writeLocked(d.profile.FlagBar, def.Register, []byte{b})
		if err != nil {
			return errors.Wrapf(err, "failed to reset register 0x%02x", def.Register)
		}
	}

	d.logger.Info("board initialized")
	return nil
}

// ReadChannels returns the input levels of channels start .. start+count-1.
func (d *Driver) ReadChannels(start, count int) (bitcodec.Bits, error) {
	err := d.checkRange(start, count)
	if err != nil {
		return nil, err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	data, err := d.readLocked(d.profile.DataBar, d.profile.InputOffset, d.profile.DataWidth())
	if err != nil {
		return nil, err
	}

	bits := bitcodec.BytesToBits(data)
	return append(bitcodec.Bits{}, bits[start-1:start+count-1]...), nil
}

// WriteChannels sets outputs start .. start+len(bits)-1, leaving every other output as last written.
func (d *Driver) WriteChannels(bits bitcodec.Bits, start int) error {
	if len(bits) == 0 {
		return errors.Wrap(ErrInvalidListLength, "no channels given")
	}
	err := d.checkRange(start, len(bits))
	if err != nil {
		return err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.shadowKnown {
		d.logger.Warn("output state unknown, merging into all-off", "start", start, "count", len(bits))
	}

	merged := bitcodec.BytesToBits(d.shadow)
	copy(merged[start-1:], bits)
	data, err := bitcodec.BitsToBytes(merged)
	if err != nil {
		return err
	}

	return d.writeLocked(d.profile.DataBar, d.profile.OutputOffset, data)
}

// ReadRegister reads one aligned input register, 8, 16 or 32 channels wide.
func (d *Driver) ReadRegister(sel boards.Selector) (bitcodec.Bits, error) {
	region, found := d.profile.Region(sel)
	if !found || region.Dir != boards.Input {
		return nil, d.unsupported("%q is not an input register of %s", sel, d.profile.Name)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	data, err := d.readLocked(region.Bar, region.Offset, region.Size)
	if err != nil {
		return nil, err
	}
	return bitcodec.BytesToBits(data), nil
}

// WriteRegister writes one aligned output register.
func (d *Driver) WriteRegister(sel boards.Selector, data RegisterData) error {
	region, found := d.profile.Region(sel)
	if !found || region.Dir != boards.Output {
		return d.unsupported("%q is not an output register of %s", sel, d.profile.Name)
	}
	if data == nil {
		return d.unsupported("no data for %q", sel)
	}

	buf, err := data.pack(region.Size)
	if err != nil {
		return errors.Wrapf(err, "cannot write %q", sel)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.writeLocked(region.Bar, region.Offset, buf)
}

// SetFlags asserts exactly the named flags of a control register, all others are cleared.
func (d *Driver) SetFlags(reg int, names flags.Set) error {
	if reg < 0 || reg >= d.profile.Out.Len() {
		return d.unsupported("register 0x%02x not in flag table", reg)
	}

	b, err := d.outCodec.Encode(reg, names)
	if err != nil {
		return err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.writeLocked(d.profile.FlagBar, reg, []byte{b})
}

func (d *Driver) GetFlags(reg int) (flags.Set, error) {
	if reg < 0 || reg >= d.profile.In.Len() {
		return nil, d.unsupported("register 0x%02x not in flag table", reg)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	data, err := d.readLocked(d.profile.FlagBar, reg, 1)
	if err != nil {
		return nil, err
	}
	return d.inCodec.Decode(reg, data[0]), nil
}

// SetLatchStatus connects the latch circuit of the given ports ("PORT0 PORT3"),
// ports not named are disconnected.
func (d *Driver) SetLatchStatus(enable string) error {
	return d.SetFlags(d.profile.LatchRegister, flags.Parse(enable))
}

func (d *Driver) GetLatchStatus() (flags.Set, error) {
	return d.GetFlags(d.profile.LatchRegister)
}

// GetAckStatus reports the ACK2 and STB2 terminals.
func (d *Driver) GetAckStatus() (flags.Set, error) {
	return d.GetFlags(d.profile.AckRegister)
}

// SetAckPulseCommand controls ACK1 ("ACK10", "ACK11") and PULS.OUT1 ("PO10", "PO11", "PO12").
// Empty strings leave the terminal alone.
func (d *Driver) SetAckPulseCommand(ack, pulse string) error {
	return d.SetFlags(d.profile.AckRegister, flags.Parse(ack+" "+pulse))
}

// GetStbStatus reports the STB1 and ACK1 terminals.
func (d *Driver) GetStbStatus() (flags.Set, error) {
	return d.GetFlags(d.profile.StbRegister)
}

// SetStbPulseCommand controls STB2 ("STB20", "STB21") and PULS.OUT2 ("PO20", "PO21", "PO22").
func (d *Driver) SetStbPulseCommand(stb, pulse string) error {
	return d.SetFlags(d.profile.StbRegister, flags.Parse(stb+" "+pulse))
}

// BoardID returns the setting of the board id rotary switch.
func (d *Driver) BoardID() (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	data, err := d.readLocked(d.profile.FlagBar, d.profile.BoardIdRegister, 1)
	if err != nil {
		return 0, err
	}
	return int(data[0] & 0x0f), nil
}

// Shadow returns a copy of the last written output bytes.
func (d *Driver) Shadow() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()

	return append([]byte{}, d.shadow...)
}

// ShadowKnown reports whether a full width output write happened since construction.
func (d *Driver) ShadowKnown() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.shadowKnown
}

// OutputState returns the last written level of one output channel.
func (d *Driver) OutputState(ch int) (bool, error) {
	err := d.checkRange(ch, 1)
	if err != nil {
		return false, err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.shadow[(ch-1)/8]&(1<<((ch-1)%8)) != 0, nil
}

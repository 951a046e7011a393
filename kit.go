package pcidio

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	hklog "github.com/brutella/hap/log"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
	"github.com/hubertat/pcidio/boards"
	"github.com/hubertat/pcidio/drivers"
	"github.com/hubertat/pcidio/mqtt"
)

const defaultHomeKitDirectory = "./homekit"
const defaultBoard = "pci2724"
const homeKitBridgeName = "pcidio"
const homeKitBridgeAuthor = "github.com/hubertat"

// McpPins wires board channels to MCP23017 lines, channel n uses Inputs[n-1] / Outputs[n-1].
type McpPins struct {
	drivers.McpBank
	Inputs  []uint8
	Outputs []uint8
}

// GpioPins wires board channels to Raspberry Pi header lines.
type GpioPins struct {
	drivers.RpioBank
	Inputs  []uint8
	Outputs []uint8
}

type SlaveConfig struct {
	HttpAddr string
	Token    string
}

// Kit runs one board: HomeKit accessories, MQTT bridge and Influx recording
// on top of a Driver. It is configured by unmarshalling a JSON file into it.
type Kit struct {
	Name           string
	Board          string
	Permissive     bool
	SkipInitialize bool

	Outlets  []*Outlet
	Switches []*Switch

	HkPin       string
	HkDirectory string
	HkAddress   string
	HkDebug     bool

	MqttBroker string
	Influx     *Recorder
	Slave      *SlaveConfig

	Mock     *drivers.MockTransport
	Sysfs    *drivers.SysfsTransport
	Remote   *drivers.RemoteTransport
	Mcp23017 *McpPins
	Gpio     *GpioPins

	driver     *Driver
	slave      *drivers.RegisterSlave
	mqttClient *mqtt.MqttClient
	publisher  mqtt.Publisher
	lastInputs bitcodec.Bits
	logger     *log.Logger
}

type HkThing interface {
	GetHk() *accessory.A
	GetUniqueId() uint64
}

func (k *Kit) Driver() *Driver {
	return k.driver
}

func (k *Kit) name() string {
	if len(k.Name) > 0 {
		return k.Name
	}
	return homeKitBridgeName
}

func (k *Kit) transport() (transport drivers.RegisterTransport, err error) {
	found := []drivers.RegisterTransport{}

	if k.Mock != nil {
		found = append(found, k.Mock)
	}
	if k.Sysfs != nil {
		found = append(found, k.Sysfs)
	}
	if k.Remote != nil {
		found = append(found, k.Remote)
	}
	if k.Mcp23017 != nil {
		found = append(found, &drivers.PinTransport{Bank: &k.Mcp23017.McpBank, Inputs: k.Mcp23017.Inputs, Outputs: k.Mcp23017.Outputs})
	}
	if k.Gpio != nil {
		found = append(found, &drivers.PinTransport{Bank: &k.Gpio.RpioBank, Inputs: k.Gpio.Inputs, Outputs: k.Gpio.Outputs})
	}

	if len(found) != 1 {
		err = errors.Errorf("exactly one transport must be configured, found %d", len(found))
		return
	}
	transport = found[0]
	return
}

// InitDriver sets up the configured transport and builds the board driver.
func (k *Kit) InitDriver(ctx context.Context) error {
	if k.logger == nil {
		k.logger = newLogger("kit")
	}

	boardName := k.Board
	if len(boardName) == 0 {
		boardName = defaultBoard
	}
	profile, found := boards.Lookup(boardName)
	if !found {
		return errors.Errorf("unknown board %s, known boards: %v", boardName, boards.Names())
	}

	transport, err := k.transport()
	if err != nil {
		return err
	}
	err = transport.Setup(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to setup %s transport", transport)
	}

	k.driver = NewDriver(profile, transport, WithPermissive(k.Permissive))

	if !k.SkipInitialize {
		err = k.driver.Initialize()
		if err != nil {
			return errors.Wrap(err, "failed to initialize board")
		}
	}

	if k.Slave != nil && len(k.Slave.HttpAddr) > 0 {
		k.slave = drivers.NewRegisterSlave(k.driver.SharedTransport(), k.Slave.HttpAddr, k.Slave.Token)
		k.slave.Start()
	}

	if k.Influx != nil {
		err = k.Influx.Init()
		if err != nil {
			return errors.Wrap(err, "failed to init influx recorder")
		}
	}

	k.logger.Info("driver ready", "driver", k.driver)
	return nil
}

func (k *Kit) InitIos() error {
	if k.driver == nil {
		return errors.New("driver not initialized")
	}

	for _, ou := range k.Outlets {
		err := ou.Init(k.driver)
		if err != nil {
			return err
		}
	}
	for _, swb := range k.Switches {
		err := swb.Init(k.driver)
		if err != nil {
			return err
		}
	}

	return nil
}

func (k *Kit) findSwitch(ch int) *Switch {
	for _, swb := range k.Switches {
		if swb.InCh == ch {
			return swb
		}
	}

	return nil
}

// MatchControllers links every outlet to the switches named in its ControlBy.
func (k *Kit) MatchControllers() error {
	for _, ou := range k.Outlets {
		for _, ch := range ou.ControlBy {
			swb := k.findSwitch(ch)
			if swb == nil {
				return errors.Errorf("matching controllers failed, no switch on input %d (outlet %s)", ch, ou.Name)
			}
			swb.switchThis = append(swb.switchThis, ou)
		}
	}

	return nil
}

func (k *Kit) publishInputs(inputs bitcodec.Bits) {
	if k.publisher == nil {
		return
	}
	for i, bit := range inputs {
		if k.lastInputs != nil && k.lastInputs[i] == bit {
			continue
		}
		err := k.publisher.Publish(fmt.Sprintf("%s/in/%d", k.name(), i+1), []byte(fmt.Sprint(bit)))
		if err != nil {
			k.logger.Warn("failed to publish input", "ch", i+1, "err", err)
		}
	}
}

// Sync reads all inputs once and propagates the snapshot to switches, outlets,
// MQTT and the recorder.
func (k *Kit) Sync(ctx context.Context) (err error) {
	inputs, err := k.driver.ReadChannels(1, k.driver.Profile().IoNumber)
	if err != nil {
		return errors.Wrap(err, "failed to read inputs")
	}

	for _, swb := range k.Switches {
		_, swErr := swb.Sync(inputs)
		if swErr != nil {
			err = errors.Wrap(swErr, "switch sync failed")
		}
	}
	for _, ou := range k.Outlets {
		ouErr := ou.Sync()
		if ouErr != nil {
			err = errors.Wrapf(ouErr, "outlet %s", ou.Name)
		}
	}

	k.publishInputs(inputs)
	k.lastInputs = inputs

	if k.Influx != nil {
		recErr := k.Influx.Record(ctx, k.driver.Profile().Name, inputs, bitcodec.BytesToBits(k.driver.Shadow()))
		if recErr != nil {
			err = recErr
		}
	}

	return
}

func (k *Kit) StartTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := k.Sync(ctx)
			if err != nil {
				k.logger.Error("sync failed", "err", err)
			}
		}
	}
}

func (k *Kit) GetHkAccessories(firmwareVersion string) (acc []*accessory.A) {
	things := []HkThing{}
	for _, ou := range k.Outlets {
		things = append(things, ou)
	}
	for _, swb := range k.Switches {
		things = append(things, swb)
	}

	acc = []*accessory.A{}
	for _, th := range things {
		a := th.GetHk()
		if a == nil {
			continue
		}
		if a.Info != nil && a.Info.FirmwareRevision != nil {
			a.Info.FirmwareRevision.SetValue(firmwareVersion)
		}
		a.Id = th.GetUniqueId()
		acc = append(acc, a)
	}

	return
}

func (k *Kit) StartHomeKit(ctx context.Context, firmwareVersion string) error {
	bridge := accessory.NewBridge(accessory.Info{
		Name:         k.name(),
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	var store hap.Store
	if len(k.HkDirectory) > 1 {
		store = hap.NewFsStore(k.HkDirectory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, k.GetHkAccessories(firmwareVersion)...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = k.HkPin
	if len(k.HkAddress) > 0 {
		hkServer.Addr = k.HkAddress
	}

	if k.HkDebug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-c
		signal.Stop(c)
		cancel()
	}()

	return hkServer.ListenAndServe(ctx)
}

func (k *Kit) InitMqtt(ctx context.Context) (err error) {
	if len(k.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	mc, err := mqtt.NewMqttClient(k.MqttBroker, k.name())
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	k.mqttClient = mc
	k.publisher = mc

	err = mc.Connect(ctx, k.mqttHandlers())
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
	}

	return
}

func (k *Kit) Close() (err error) {
	if k.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		mqttErr := k.mqttClient.Disconnect(ctx)
		if mqttErr != nil {
			err = errors.Wrap(mqttErr, "mqtt disconnect")
		}
	}
	if k.slave != nil {
		slaveErr := k.slave.Close()
		if slaveErr != nil {
			err = errors.Wrap(slaveErr, "slave close")
		}
	}
	if k.Influx != nil {
		k.Influx.Close()
	}
	if k.driver != nil {
		closeErr := k.driver.Close()
		if closeErr != nil {
			err = errors.Wrap(closeErr, "driver close")
		}
	}

	return
}

func (k *Kit) PrintIoStatus(writer io.Writer) {
	profile := k.driver.Profile()

	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== board status ===")
	fmt.Fprintf(writer, "| driver: %s\n", k.driver)

	id, err := k.driver.BoardID()
	if err != nil {
		fmt.Fprintf(writer, "| board id: n/a (%v)\n", err)
	} else {
		fmt.Fprintf(writer, "| board id: %d\n", id)
	}

	fmt.Fprintf(writer, "| outputs: %s (known: %v)\n", bitcodec.BytesToHex(k.driver.Shadow()), k.driver.ShadowKnown())

	latch, err := k.driver.GetLatchStatus()
	if err != nil {
		fmt.Fprintf(writer, "| latch: n/a (%v)\n", err)
	} else {
		fmt.Fprintf(writer, "| latch: %s\n", latch)
	}

	fmt.Fprintf(writer, "| outlets: ")
	for _, ou := range k.Outlets {
		fmt.Fprintf(writer, "%s@%d, ", ou.Name, ou.OutCh)
	}
	fmt.Fprintf(writer, "\n| switches: ")
	for _, swb := range k.Switches {
		fmt.Fprintf(writer, "%s@%d, ", swb.Name, swb.InCh)
	}
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "| channels: 1-%d\n", profile.IoNumber)
	fmt.Fprintln(writer, "-----------------------------")
	fmt.Fprintln(writer)
}

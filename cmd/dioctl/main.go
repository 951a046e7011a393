package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/pcidio"
	"github.com/hubertat/pcidio/bitcodec"
	"github.com/hubertat/pcidio/boards"
	"github.com/hubertat/pcidio/drivers"
	"github.com/hubertat/pcidio/flags"
)

var (
	Version string

	transportName = flag.String("transport", "sysfs", "register transport: sysfs or remote")
	address       = flag.String("address", "", "PCI address (sysfs), found by vendor/device id when empty")
	vendorId      = flag.Uint("vendor", 0x1147, "PCI vendor id (sysfs)")
	deviceId      = flag.Uint("device", 0x0aa4, "PCI device id (sysfs)")
	host          = flag.String("host", "http://127.0.0.1:8071/", "slave url (remote)")
	token         = flag.String("token", "", "slave token (remote)")
	board         = flag.String("board", "pci2724", "board profile")
	permissive    = flag.Bool("permissive", false, "ignore unsupported selectors and flags")
	flagDebug     = flag.Bool("debug", false, "log every register access")
)

const usage = `usage: dioctl [flags] command [args]

commands:
  read START COUNT        read input channels
  write START BITS        write output channels, BITS like 1011
  reg SEL [VALUE]         read input register, or write output register;
                          VALUE is BITS, an integer or FORMAT:NUMBER (e.g. <f:1.5)
  flags REG [NAME...]     set control register flags, unnamed flags are cleared
  getflags REG            read control register flags
  id                      print board id
  init                    clear outputs and reset control registers
`

func parseBits(s string) (bits bitcodec.Bits, err error) {
	for _, c := range s {
		switch c {
		case '0':
			bits = append(bits, 0)
		case '1':
			bits = append(bits, 1)
		default:
			return nil, errors.Errorf("bad bit %q in %s", c, s)
		}
	}
	return
}

func parseRegisterData(region boards.Region, s string) (pcidio.RegisterData, error) {
	if len(s) == region.Bits() {
		bits, err := parseBits(s)
		if err == nil {
			return pcidio.BitVector(bits), nil
		}
	}

	if format, value, found := strings.Cut(s, ":"); found {
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad number")
		}
		packed, err := pcidio.Packed(format, number)
		if err != nil {
			return nil, err
		}
		return packed, nil
	}

	number, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot use %s as register data", s)
	}
	return pcidio.SignedInteger(number), nil
}

func parseInts(args []string) (values []int, err error) {
	for _, a := range args {
		v, err := strconv.ParseInt(a, 0, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "bad number %s", a)
		}
		values = append(values, int(v))
	}
	return
}

func newTransport() (drivers.RegisterTransport, error) {
	switch *transportName {
	case "sysfs":
		return &drivers.SysfsTransport{Address: *address, VendorId: uint16(*vendorId), DeviceId: uint16(*deviceId)}, nil
	case "remote":
		return &drivers.RemoteTransport{Host: *host, Token: *token}, nil
	}
	return nil, errors.Errorf("unknown transport %s", *transportName)
}

func run(d *pcidio.Driver, args []string) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "read":
		values, err := parseInts(args)
		if err != nil || len(values) != 2 {
			return errors.New("read needs START COUNT")
		}
		bits, err := d.ReadChannels(values[0], values[1])
		if err != nil {
			return err
		}
		fmt.Println(bits)

	case "write":
		if len(args) != 2 {
			return errors.New("write needs START BITS")
		}
		start, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Wrap(err, "bad start")
		}
		bits, err := parseBits(args[1])
		if err != nil {
			return err
		}
		return d.WriteChannels(bits, start)

	case "reg":
		if len(args) < 1 {
			return errors.New("reg needs SEL")
		}
		sel := boards.Selector(strings.ToUpper(args[0]))
		if len(args) == 1 {
			bits, err := d.ReadRegister(sel)
			if err != nil {
				return err
			}
			fmt.Println(bits)
			return nil
		}
		region, found := d.Profile().Region(sel)
		if !found {
			return errors.Wrapf(pcidio.ErrUnsupportedOperation, "unknown selector %s", sel)
		}
		data, err := parseRegisterData(region, args[1])
		if err != nil {
			return err
		}
		return d.WriteRegister(sel, data)

	case "flags":
		values, err := parseInts(args[:min(1, len(args))])
		if err != nil || len(values) != 1 {
			return errors.New("flags needs REG")
		}
		return d.SetFlags(values[0], flags.NewSet(args[1:]...))

	case "getflags":
		values, err := parseInts(args)
		if err != nil || len(values) != 1 {
			return errors.New("getflags needs REG")
		}
		set, err := d.GetFlags(values[0])
		if err != nil {
			return err
		}
		fmt.Println(set)

	case "id":
		id, err := d.BoardID()
		if err != nil {
			return err
		}
		fmt.Println(id)

	case "init":
		return d.Initialize()

	default:
		return errors.Errorf("unknown command %s", cmd)
	}

	return nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}

	profile, found := boards.Lookup(*board)
	if !found {
		log.Fatal("unknown board", "board", *board, "known", boards.Names())
	}

	transport, err := newTransport()
	if err != nil {
		log.Fatal(err)
	}
	err = transport.Setup(context.Background())
	if err != nil {
		log.Fatal("transport setup failed", "err", err)
	}

	d := pcidio.NewDriver(profile, transport, pcidio.WithPermissive(*permissive))
	defer d.Close()

	err = run(d, flag.Args())
	if err != nil {
		log.Error(err)
		flag.Usage()
		d.Close()
		os.Exit(1)
	}
}

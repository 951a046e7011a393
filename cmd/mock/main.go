package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hubertat/pcidio"
	"github.com/hubertat/pcidio/drivers"
)

var (
	Version string
	Build   string
)

func main() {
	var err error

	log.SetLevel(log.DebugLevel)
	log.Info("pcidio started")
	log.Info("mock instance for testing purposes, no board needed")

	syncDuration := 250 * time.Millisecond
	log.Info("sync", "interval", syncDuration)

	kit := &pcidio.Kit{
		Name:        "pcidio-mock",
		HkPin:       "88008800",
		HkDirectory: "./mock_homekit",
		Mock:        &drivers.MockTransport{},
		Permissive:  true,
	}
	kit.Outlets = append(kit.Outlets, &pcidio.Outlet{Name: "fake outlet", OutCh: 1, ControlBy: []int{1}})
	kit.Outlets = append(kit.Outlets, &pcidio.Outlet{Name: "second outlet", OutCh: 2})
	kit.Switches = append(kit.Switches, &pcidio.Switch{Name: "fake switch", InCh: 1})

	ctx := context.Background()

	log.Info("will init driver...")
	err = kit.InitDriver(ctx)
	defer kit.Close()
	if err != nil {
		panic(err)
	}
	kit.Mock.MonitorWrites(os.Stdout)

	log.Info("will init IOs...")
	err = kit.InitIos()
	if err != nil {
		panic(err)
	}
	err = kit.MatchControllers()
	if err != nil {
		panic(err)
	}

	kit.PrintIoStatus(os.Stdout)

	go func() {
		// flips input 1 every few seconds, the first outlet follows
		level := byte(0)
		for range time.Tick(5 * time.Second) {
			level ^= 0x01
			kit.Mock.SetInput(0, 0, []byte{level, 0, 0, 0})
		}
	}()

	log.Info("starting mock with HomeKit service")
	go kit.StartTicker(ctx, syncDuration)
	log.Fatal(kit.StartHomeKit(ctx, "mock: "+Version))
}

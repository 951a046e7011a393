package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hubertat/servicemaker"

	"github.com/hubertat/pcidio"
)

const defaultSyncInterval = "250ms"

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	syncInterval = flag.String("sync", defaultSyncInterval, "sync interval (time.Duration)")
	flagDebug    = flag.Bool("debug", false, "enable debug logging")

	dioService = servicemaker.ServiceMaker{
		User:               "pcidio",
		UserGroups:         []string{"gpio", "i2c"},
		ServicePath:        "/etc/systemd/system/pcidio.service",
		ServiceDescription: "pcidio service: HomeKit and MQTT bridge for PCI digital I/O boards. github.com/hubertat/pcidio",
		ExecDir:            "/srv/pcidio",
		ExecName:           "pcidio",
	}
)

func main() {
	flag.Parse()
	if *flagDebug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("pcidio started", "version", Version, "build", Build)

	if *flagInstall {
		err := dioService.InstallService()
		if err != nil {
			log.Fatal("failed to install service", "err", err)
		}
		log.Info("service installed!")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncDuration, err := time.ParseDuration(*syncInterval)
	if err != nil {
		log.Fatal("bad sync interval", "err", err)
	}

	kit := &pcidio.Kit{}
	configFile, err := os.Open(*config)
	if err != nil {
		log.Fatal("can't find/open config file, will terminate", "path", *config, "err", err)
	}
	cBuff, err := io.ReadAll(configFile)
	configFile.Close()
	if err != nil {
		log.Fatal("failed reading config file", "err", err)
	}
	err = json.Unmarshal(cBuff, kit)
	if err != nil {
		log.Fatal("failed unmarshalling json config", "err", err)
	}

	log.Info("will init driver...")
	err = kit.InitDriver(ctx)
	defer kit.Close()
	if err != nil {
		log.Fatal("driver init failed", "err", err)
	}
	log.Info("will init IOs...")
	err = kit.InitIos()
	if err != nil {
		log.Fatal("io init failed", "err", err)
	}

	err = kit.MatchControllers()
	if err != nil {
		log.Warn("matching controllers returned error, we will proceed...", "err", err)
	}

	if len(kit.MqttBroker) > 0 {
		err = kit.InitMqtt(ctx)
		if err != nil {
			log.Error("mqtt disabled", "err", err)
		}
	}

	kit.PrintIoStatus(os.Stdout)

	if len(kit.HkPin) == 8 {
		log.Info("Starting with HomeKit server")

		go kit.StartTicker(ctx, syncDuration)
		err = kit.StartHomeKit(ctx, Version)
		if err != nil {
			log.Error("HomeKit server stopped", "err", err)
		}
	} else {
		log.Info("HomeKit not configured, disabled")
		kit.StartTicker(ctx, syncDuration)
	}
}

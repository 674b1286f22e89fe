// jackd runs a simulated Jack device: the full command protocol,
// counter/timers and the program interpreter over a chosen transport.
//
// Usage:
//
//	jackd -listen :8765                 # websocket transport
//	jackd -serial /dev/ttyUSB0,9600    # serial transport
//	jackd -stdio                       # lines on stdin/stdout
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jack-go-migration/pkg/config"
	"jack-go-migration/pkg/conn"
	"jack-go-migration/pkg/device"
	"jack-go-migration/pkg/log"
	"jack-go-migration/pkg/metrics"
	"jack-go-migration/pkg/resource"
	"jack-go-migration/pkg/sched"
)

func main() {
	var (
		configPath  = flag.String("config", "", "configuration file")
		profileName = flag.String("profile", "sim", "device profile: sim, uno or mega")
		listenAddr  = flag.String("listen", "", "websocket listen address, e.g. :8765")
		serialDev   = flag.String("serial", "", "serial device and baud, e.g. /dev/ttyUSB0,9600")
		useStdio    = flag.Bool("stdio", false, "exchange lines on stdin/stdout")
		metricsAddr = flag.String("metrics", "", "metrics HTTP listen address, e.g. :9101")
		pollEvery   = flag.Duration("poll", time.Millisecond, "poll interval")
		eepromSize  = flag.Int("eeprom", 1024, "simulated EEPROM size in bytes")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := log.Default()
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		// Command-line flags override file settings.
		setFlags := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
		fromConfig := func(flagName, section, option string) {
			if setFlags[flagName] {
				return
			}
			if sec := cfg.GetSectionOptional(section); sec != nil && sec.HasOption(option) {
				v, _ := sec.Get(option)
				if err := flag.Set(flagName, v); err != nil {
					fmt.Fprintf(os.Stderr, "config: [%s] %s: %v\n", section, option, err)
					os.Exit(1)
				}
			}
		}
		fromConfig("profile", "device", "profile")
		fromConfig("eeprom", "device", "eeprom_size")
		fromConfig("listen", "transport", "listen")
		fromConfig("serial", "transport", "serial")
		fromConfig("stdio", "transport", "stdio")
		fromConfig("metrics", "metrics", "listen")
		fromConfig("poll", "schedule", "poll_interval")
		if err := cfg.CheckUnused(); err != nil {
			logger.Warn("config: %v", err)
		}
	}

	var profile resource.Profile
	switch *profileName {
	case "sim":
		profile = resource.SimProfile()
	case "uno":
		profile = resource.UnoProfile()
	case "mega":
		profile = resource.MegaProfile()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile %q\n", *profileName)
		os.Exit(1)
	}

	transport, params := pickTransport(*listenAddr, *serialDev, *useStdio)
	if transport == nil {
		fmt.Fprintln(os.Stderr, "one of -listen, -serial or -stdio is required")
		os.Exit(1)
	}
	if !transport.Open(params) {
		fmt.Fprintf(os.Stderr, "cannot open %s transport %q\n", transport.Kind(), params)
		os.Exit(1)
	}
	defer transport.Close()

	hw := resource.NewSimHardware(*eepromSize)
	clock := resource.NewWallClock()
	bank := resource.NewBank(profile, hw, clock)
	jm := metrics.NewJackMetrics()
	dev := device.New(bank, transport, jm)

	logger.Info("device %s up: %d pins, %d timers, %s transport",
		profile.Name, bank.PinCount(), bank.TimerCount(), transport.Kind())

	if *metricsAddr != "" {
		srv := metrics.NewServer(jm, *metricsAddr)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("metrics on %s/metrics", *metricsAddr)
	}

	scheduler := sched.New()
	now := time.Now()
	scheduler.Add(now, sched.NewTask("poll", *pollEvery, func(time.Time) {
		dev.Poll()
	}))
	scheduler.Start(now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Run(ctx, *pollEvery)
	logger.Info("shutting down")
}

// pickTransport selects exactly one transport from the flags.
func pickTransport(listen, serialDev string, stdio bool) (conn.Connection, string) {
	switch {
	case listen != "":
		return conn.NewWebSocketServer(), listen
	case serialDev != "":
		return conn.NewSerial(), serialDev
	case stdio:
		return conn.NewStdio(), ""
	default:
		return nil, ""
	}
}

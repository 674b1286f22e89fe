// jackctl talks to a Jack device over serial or websocket: one-shot
// commands, program management and an interactive console.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serialPort  string
	serialBaud  int
	wsURL       string
	useChecksum bool
)

var rootCmd = &cobra.Command{
	Use:   "jackctl",
	Short: "Control a Jack device",
	Long: `jackctl - command a Jack remote-control device.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host:8765`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serialPort, "port", "p", "", "serial port device")
	rootCmd.PersistentFlags().IntVarP(&serialBaud, "baud", "b", 9600, "baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "websocket URL (ws://...)")
	rootCmd.PersistentFlags().BoolVar(&useChecksum, "checksum", false, "append inverted-sum checksums to sent commands")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

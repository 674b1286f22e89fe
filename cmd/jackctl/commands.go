// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const replyWait = 2 * time.Second

var sendCmd = &cobra.Command{
	Use:   "send <line> [line...]",
	Short: "Send raw command lines and print replies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()
		for _, line := range args {
			for _, reply := range cl.request(line, replyWait) {
				fmt.Println(reply)
			}
		}
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print device identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		replies := cl.request("inf", replyWait)
		if len(replies) == 0 {
			return fmt.Errorf("no reply to inf")
		}
		fields := strings.Split(strings.TrimPrefix(replies[0], "inf="), ",")
		if len(fields) < 6 {
			return fmt.Errorf("malformed reply: %s", replies[0])
		}
		fmt.Printf("board:  %s (id %s)\n", fields[1], fields[0])
		fmt.Printf("mcu:    %s @ %s MHz\n", fields[2], fields[3])
		fmt.Printf("pins:   %s\n", fields[4])
		fmt.Printf("timers: %s\n", fields[5])
		return nil
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure command round-trip time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		for i := 0; i < 4; i++ {
			start := time.Now()
			replies := cl.request("tim=0", replyWait)
			if len(replies) == 0 {
				fmt.Printf("seq %d: timeout\n", i)
				continue
			}
			fmt.Printf("seq %d: %s  rtt=%s\n", i, replies[0], time.Since(start).Round(time.Microsecond))
			time.Sleep(200 * time.Millisecond)
		}
		return nil
	},
}

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Print pin kinds, modes and levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		kinds := firstList(cl.request("pna", replyWait), "pna=")
		modes := firstList(cl.request("pma", replyWait), "pma=")
		levels := firstList(cl.request("rda", replyWait), "rda=")

		fmt.Printf("%-5s %-6s %-6s %s\n", "pin", "kind", "mode", "level")
		for i := range kinds {
			mode, level := "-", "-"
			if i < len(modes) {
				mode = modes[i]
			}
			if i < len(levels) {
				level = levels[i]
			}
			fmt.Printf("%-5d %-6s %-6s %s\n", i, kinds[i], mode, level)
		}
		return nil
	},
}

var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "Print counter/timer slots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		counts := firstList(cl.request("tca", replyWait), "tca=")
		active := firstList(cl.request("tma", replyWait), "tma=")

		fmt.Printf("%-5s %-8s %s\n", "slot", "active", "count")
		for i := range counts {
			act := "-"
			if i < len(active) {
				act = active[i]
			}
			fmt.Printf("%-5d %-8s %s\n", i, act, counts[i])
		}
		return nil
	},
}

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Manage the downloaded program",
}

var programLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Download a program from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		cl.send("pgm=1")
		count := 0
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ";") {
				continue
			}
			cl.send(line)
			count++
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		replies := cl.request("pgm=0", replyWait)
		// Confirm the stored size against what we sent.
		replies = append(replies, cl.request("pgm=5", replyWait)...)
		for _, r := range replies {
			if strings.HasPrefix(r, "pgm=5,") {
				fmt.Printf("loaded %d statements, device reports %s\n",
					count, strings.TrimPrefix(r, "pgm=5,"))
				return nil
			}
		}
		return fmt.Errorf("loaded %d statements but device did not confirm size", count)
	},
}

func programActionCmd(use, short, line string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := dial()
			if err != nil {
				return err
			}
			defer cl.Close()
			for _, reply := range cl.request(line, replyWait) {
				fmt.Println(reply)
			}
			return nil
		},
	}
}

func firstList(replies []string, prefix string) []string {
	for _, r := range replies {
		if strings.HasPrefix(r, prefix) {
			return strings.Split(strings.TrimPrefix(r, prefix), ".")
		}
	}
	return nil
}

func init() {
	programCmd.AddCommand(programLoadCmd)
	programCmd.AddCommand(programActionCmd("run", "Start the program", "pgm=2"))
	programCmd.AddCommand(programActionCmd("halt", "Halt the program", "pgm=3"))
	programCmd.AddCommand(programActionCmd("reset", "Reset the program state", "pgm=4"))
	programCmd.AddCommand(programActionCmd("size", "Report the stored size", "pgm=5"))
	programCmd.AddCommand(programActionCmd("status", "Report run state", "pgm=6"))
	programCmd.AddCommand(programActionCmd("verify", "Verify stored statements", "pgm=7"))
	programCmd.AddCommand(programActionCmd("list", "List stored statements", "pgm=8"))

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(pinsCmd)
	rootCmd.AddCommand(timersCmd)
	rootCmd.AddCommand(programCmd)
	rootCmd.AddCommand(consoleCmd)
}

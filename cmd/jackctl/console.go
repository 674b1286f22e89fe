// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"
)

const clientKey = "jack.client"

func clientFrom(c *ishell.Context) *client {
	return c.Get(clientKey).(*client)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive console on the device",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := dial()
		if err != nil {
			return err
		}
		defer cl.Close()

		sh := ishell.New()
		sh.Set(clientKey, cl)
		sh.SetPrompt("jack> ")
		sh.Println("connected via", cl.conn.Kind(), "- type 'help' for commands, any other input is sent raw")

		for _, c := range consoleCmds {
			sh.AddCmd(c)
		}
		// Unrecognized input goes to the device verbatim.
		sh.NotFound(func(c *ishell.Context) {
			line := strings.Join(c.RawArgs, " ")
			for _, reply := range clientFrom(c).request(line, replyWait) {
				c.Println(reply)
			}
		})

		sh.Run()
		return nil
	},
}

var consoleCmds = []*ishell.Cmd{
	{
		Name: "info",
		Help: "device identity",
		Func: func(c *ishell.Context) {
			for _, reply := range clientFrom(c).request("inf", replyWait) {
				c.Println(reply)
			}
		},
	},
	{
		Name: "read",
		Help: "read <pin>: read one pin",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: read <pin>")
				return
			}
			for _, reply := range clientFrom(c).request("rdp="+c.Args[0], replyWait) {
				c.Println(reply)
			}
		},
	},
	{
		Name: "write",
		Help: "write <pin> <value>: write one pin",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Println("usage: write <pin> <value>")
				return
			}
			clientFrom(c).send("wrp=" + c.Args[0] + "," + c.Args[1])
		},
	},
	{
		Name: "watch",
		Help: "watch <pin> [count] [interval]: poll a pin repeatedly",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Println("usage: watch <pin> [count] [interval]")
				return
			}
			count := 10
			interval := time.Second
			if len(c.Args) > 1 {
				fmt.Sscanf(c.Args[1], "%d", &count)
			}
			if len(c.Args) > 2 {
				if d, err := time.ParseDuration(c.Args[2]); err == nil {
					interval = d
				}
			}
			cl := clientFrom(c)
			for i := 0; i < count; i++ {
				for _, r := range cl.request("rdp="+c.Args[0], replyWait) {
					c.Println(r)
				}
				time.Sleep(interval)
			}
		},
	},
	{
		Name: "reset",
		Help: "soft-reset the device",
		Func: func(c *ishell.Context) {
			for _, reply := range clientFrom(c).request("rst", replyWait) {
				c.Println(reply)
			}
		},
	},
}

// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	bugst "go.bug.st/serial"

	"jack-go-migration/pkg/conn"
	"jack-go-migration/pkg/wire"
)

// errNoTransport means neither --port nor --url was given.
var errNoTransport = errors.New("no connection: use --port or --url")

// openTransport builds a connection from the persistent flags.
func openTransport() (conn.Connection, error) {
	switch {
	case serialPort != "":
		t := newSerialClient()
		params := fmt.Sprintf("%s,%d", serialPort, serialBaud)
		if !t.Open(params) {
			return nil, fmt.Errorf("cannot open serial port %s", serialPort)
		}
		return t, nil
	case wsURL != "":
		t := conn.NewWebSocketClient()
		if !t.Open(wsURL) {
			return nil, fmt.Errorf("cannot connect to %s", wsURL)
		}
		return t, nil
	default:
		return nil, errNoTransport
	}
}

// client wraps a connection with request/response pacing.
type client struct {
	conn conn.Connection
}

func dial() (*client, error) {
	c, err := openTransport()
	if err != nil {
		return nil, err
	}
	return &client{conn: c}, nil
}

func (cl *client) Close() {
	cl.conn.Close()
}

// send writes one command line, applying the checksum flag.
func (cl *client) send(line string) {
	if useChecksum {
		line = fmt.Sprintf("%s:%d", line, wire.Checksum(line))
	}
	cl.conn.Send(line)
}

// request sends a line and collects reply lines until the device goes
// quiet or the deadline passes.
func (cl *client) request(line string, wait time.Duration) []string {
	cl.send(line)

	var replies []string
	deadline := time.Now().Add(wait)
	quiet := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if r := cl.conn.Receive(); r != "" {
			replies = append(replies, r)
			quiet = time.Now().Add(100 * time.Millisecond)
			continue
		}
		if len(replies) > 0 && time.Now().After(quiet) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return replies
}

// serialClient adapts a host-side serial port to the Connection
// interface.
type serialClient struct {
	mu     sync.Mutex
	port   bugst.Port
	open   bool
	params string
	in     chan string
}

func newSerialClient() *serialClient {
	return &serialClient{in: make(chan string, 256)}
}

func (s *serialClient) Open(params string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return true
	}

	device := params
	baud := 9600
	if idx := indexByte(params, ','); idx >= 0 {
		device = params[:idx]
		fmt.Sscanf(params[idx+1:], "%d", &baud)
	}

	port, err := bugst.Open(device, &bugst.Mode{BaudRate: baud})
	if err != nil {
		return false
	}
	port.SetReadTimeout(50 * time.Millisecond)

	s.port = port
	s.open = true
	s.params = params
	go s.readLoop(port)
	return true
}

func (s *serialClient) readLoop(port bugst.Port) {
	buf := make([]byte, 256)
	var line []byte
	for {
		n, err := port.Read(buf)
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			switch b {
			case '\n':
				select {
				case s.in <- string(line):
				default:
				}
				line = line[:0]
			case '\r':
			default:
				line = append(line, b)
			}
		}
	}
}

func (s *serialClient) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *serialClient) Send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.port.Write([]byte(line + "\n"))
}

func (s *serialClient) Receive() string {
	select {
	case line := <-s.in:
		return line
	default:
		return ""
	}
}

func (s *serialClient) Kind() string { return "serial" }

func (s *serialClient) Params() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *serialClient) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.port.Close()
	s.open = false
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// Serial connection adapter
//
// Raw 8N1 termios port, opened non-blocking so Receive never stalls the
// poll loop.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

//go:build linux || darwin

package conn

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"jack-go-migration/pkg/log"
)

// baudSpeeds maps common rates to termios speed constants.
var baudSpeeds = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// Serial is a termios-backed connection. Params are "device[,baud]",
// defaulting to 9600 baud.
type Serial struct {
	mu     sync.Mutex
	fd     int
	open   bool
	params string
	in     *lineQueue
	logger *log.Logger
}

// NewSerial returns a closed serial connection.
func NewSerial() *Serial {
	return &Serial{fd: -1, in: newLineQueue(0), logger: log.Default().Sub("serial")}
}

func (s *Serial) Open(params string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		s.closeLocked()
	}

	device := params
	baud := 9600
	if idx := strings.IndexByte(params, ','); idx >= 0 {
		device = params[:idx]
		if b, err := strconv.Atoi(strings.TrimSpace(params[idx+1:])); err == nil && b > 0 {
			baud = b
		}
	}
	speed, ok := baudSpeeds[baud]
	if !ok {
		s.logger.Warn("unsupported baud rate %d, using 9600", baud)
		speed = unix.B9600
	}

	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		s.logger.Error("open %s: %v", device, err)
		return false
	}

	tio, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		s.logger.Error("get termios %s: %v", device, err)
		return false
	}

	// Raw 8N1, no flow control, no input/output processing.
	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	tio.Oflag &^= unix.OPOST
	tio.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	tio.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cc[unix.VMIN] = 0
	tio.Cc[unix.VTIME] = 0
	setSpeed(tio, speed)

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, tio); err != nil {
		unix.Close(fd)
		s.logger.Error("set termios %s: %v", device, err)
		return false
	}

	s.fd = fd
	s.open = true
	s.params = params
	s.in.reset()
	s.logger.Info("opened %s at %d baud", device, baud)
	return true
}

func (s *Serial) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Serial) Send(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	data := []byte(line + "\n")
	for len(data) > 0 {
		n, err := unix.Write(s.fd, data)
		if err == unix.EAGAIN {
			continue
		}
		if err != nil || n <= 0 {
			s.logger.Error("write: %v", err)
			return
		}
		data = data[n:]
	}
}

func (s *Serial) Receive() string {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ""
	}
	fd := s.fd
	s.mu.Unlock()

	var buf [512]byte
	for {
		n, err := unix.Read(fd, buf[:])
		if n > 0 {
			s.in.pushBytes(buf[:n])
		}
		if err != nil || n <= 0 {
			break
		}
	}
	return s.in.pop()
}

func (s *Serial) Kind() string { return "serial" }

func (s *Serial) Params() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *Serial) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Serial) closeLocked() {
	if !s.open {
		return
	}
	unix.Close(s.fd)
	s.fd = -1
	s.open = false
	s.in.reset()
}

//go:build linux

package conn

import "golang.org/x/sys/unix"

// Platform ioctl selectors for Linux.
const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)

// setSpeed applies a termios speed constant on Linux.
func setSpeed(tio *unix.Termios, speed uint32) {
	tio.Cflag &^= unix.CBAUD
	tio.Cflag |= speed
	tio.Ispeed = speed
	tio.Ospeed = speed
}

//go:build darwin

package conn

import "golang.org/x/sys/unix"

// Platform ioctl selectors for macOS.
const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// setSpeed applies a termios speed constant on macOS.
func setSpeed(tio *unix.Termios, speed uint32) {
	tio.Ispeed = uint64(speed)
	tio.Ospeed = uint64(speed)
}

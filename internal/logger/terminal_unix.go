//go:build linux || darwin

package logger

import (
	"syscall"
	"unsafe"
)

// isTerminal reports whether fd refers to a terminal device.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, errno := syscall.Syscall6(
		syscall.SYS_IOCTL,
		fd,
		ioctlReadTermios,
		uintptr(unsafe.Pointer(&termios)),
		0, 0, 0,
	)
	return errno == 0
}

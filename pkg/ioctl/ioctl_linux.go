package ioctl

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ioctl - EINTR is repeated, any other errno is returned as unix.Errno
func Ioctl(fd int, req uint, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
		switch {
		case errno == 0:
			return nil
		case errno == unix.EINTR:
			continue
		}
		return errno
	}
}

//go:build linux
// +build linux

package gateway

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// platformTuneSocket sets TCP_NODELAY and a short keepalive interval on the
// dialed gateway socket.
func platformTuneSocket(tcp *net.TCPConn) error {
	if err := tcp.SetNoDelay(true); err != nil {
		return err
	}
	if err := tcp.SetKeepAlive(true); err != nil {
		return err
	}
	if err := tcp.SetKeepAlivePeriod(30 * time.Second); err != nil {
		return err
	}

	raw, err := tcp.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

package gateway

import "net"

// tuneSocket applies the platform TCP_NODELAY/keepalive tuning implemented
// in sockopts_linux.go, sockopts_windows.go, or sockopts_stub.go. Failures
// are non-fatal: the gateway connection still works, just without the
// tuning, so this only logs through the caller.
func tuneSocket(conn net.Conn) error {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	return platformTuneSocket(tcp)
}

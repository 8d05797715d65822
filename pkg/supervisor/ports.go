package supervisor

import (
	"net"
)

// AllocatePort obtains an unused TCP port from the OS by binding a loopback
// listener on port 0 and reading back the assigned port.
//
// The listener is closed before returning: the caller gets a number, not a
// socket. Between the close and the backend binding the same number, another
// process could in principle claim it. That race is accepted; a stolen port
// shows up as a readiness probe failure, not as an allocation error.
func AllocatePort() (uint16, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, ErrPortAllocationFailed(err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return uint16(addr.Port), nil
}

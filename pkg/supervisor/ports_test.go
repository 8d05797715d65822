package supervisor

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatePort(t *testing.T) {
	port, err := AllocatePort()
	require.NoError(t, err)
	require.Greater(t, port, uint16(0))

	// The port was free at the instant of return: we can bind it ourselves.
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	listener.Close()
}

func TestAllocatePort_Repeated(t *testing.T) {
	// Repeated allocation must keep succeeding; the OS hands out ephemeral
	// ports far faster than this loop consumes them.
	for i := 0; i < 20; i++ {
		port, err := AllocatePort()
		require.NoError(t, err)
		require.NotZero(t, port)
	}
}

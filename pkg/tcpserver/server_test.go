package tcpserver_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcpkit/tcpkit/pkg/clock"
	"github.com/tcpkit/tcpkit/pkg/log"
	"github.com/tcpkit/tcpkit/pkg/tcpserver"
)

func newTestServer(t *testing.T, handler tcpserver.Handler) (*tcpserver.Server, context.CancelFunc, chan error) {
	t.Helper()

	return newTestServerWithSettings(t, &tcpserver.Settings{
		Address:      "127.0.0.1:0",
		ReadTimeout:  time.Minute,
		MaxLineBytes: 1 << 20,
	}, handler)
}

func newTestServerWithSettings(t *testing.T, settings *tcpserver.Settings, handler tcpserver.Handler) (*tcpserver.Server, context.CancelFunc, chan error) {
	t.Helper()

	silent := log.NewLoggerWithHandlers(clock.NewRealClock(), "server", log.PriorityNone)

	server, err := tcpserver.NewWithInterfaces(silent, silent, settings, handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	return server, cancel, done
}

func waitForShutdown(t *testing.T, done chan error) {
	t.Helper()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServerEcho(t *testing.T) {
	server, cancel, done := newTestServer(t, tcpserver.NewEchoHandler())
	defer waitForShutdown(t, done)
	defer cancel()

	conn, err := net.Dial("tcp", server.Address().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)

	for _, msg := range []string{"hello", "world", "a longer line with spaces"} {
		_, err = conn.Write([]byte(msg + "\n"))
		require.NoError(t, err)

		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, msg+"\n", line)
	}
}

func TestServerConcurrentConnections(t *testing.T) {
	server, cancel, done := newTestServer(t, tcpserver.NewEchoHandler())
	defer waitForShutdown(t, done)
	defer cancel()

	conns := make([]net.Conn, 0, 5)
	for i := 0; i < 5; i++ {
		conn, err := net.Dial("tcp", server.Address().String())
		require.NoError(t, err)
		defer conn.Close()

		conns = append(conns, conn)
	}

	for i, conn := range conns {
		msg := []byte{'c', byte('0' + i), '\n'}
		_, err := conn.Write(msg)
		require.NoError(t, err)

		line, err := bufio.NewReader(conn).ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, string(msg), line)
	}
}

func TestServerClosesConnectionsOnShutdown(t *testing.T) {
	server, cancel, done := newTestServer(t, tcpserver.NewEchoHandler())

	conn, err := net.Dial("tcp", server.Address().String())
	require.NoError(t, err)
	defer conn.Close()

	cancel()
	waitForShutdown(t, done)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err = bufio.NewReader(conn).ReadString('\n')
	assert.Error(t, err)
}

func TestServerIdleTimeoutClosesConnection(t *testing.T) {
	server, cancel, done := newTestServerWithSettings(t, &tcpserver.Settings{
		Address:      "127.0.0.1:0",
		ReadTimeout:  time.Minute,
		IdleTimeout:  100 * time.Millisecond,
		MaxLineBytes: 1 << 20,
	}, tcpserver.NewEchoHandler())
	defer waitForShutdown(t, done)
	defer cancel()

	conn, err := net.Dial("tcp", server.Address().String())
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// the first request is bounded by the read timeout only
	_, err = conn.Write([]byte("ping\n"))
	require.NoError(t, err)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ping\n", line)

	// staying idle past the idle timeout gets the connection closed
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = reader.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

type failingHandler struct{}

func (h failingHandler) Handle(_ context.Context, _ []byte) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func TestServerClosesConnectionOnHandlerError(t *testing.T) {
	server, cancel, done := newTestServer(t, failingHandler{})
	defer waitForShutdown(t, done)
	defer cancel()

	conn, err := net.Dial("tcp", server.Address().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("anything\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, err = bufio.NewReader(conn).ReadString('\n')
	assert.Error(t, err)
}

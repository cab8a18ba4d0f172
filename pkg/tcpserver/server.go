package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/tcpkit/tcpkit/pkg/cfg"
	"github.com/tcpkit/tcpkit/pkg/coffin"
	"github.com/tcpkit/tcpkit/pkg/log"
)

// ConfigKey is the config subtree holding the server settings.
const ConfigKey = "server"

// Settings configures the listener. ReadTimeout bounds reading the first
// request of a connection, IdleTimeout bounds the wait for every following
// request and falls back to ReadTimeout when zero.
type Settings struct {
	Address      string        `cfg:"address"        default:":8000"`
	ReadTimeout  time.Duration `cfg:"read_timeout"   default:"5m"`
	IdleTimeout  time.Duration `cfg:"idle_timeout"   default:"0"`
	MaxLineBytes int           `cfg:"max_line_bytes" default:"1048576" validate:"gt=0"`
}

// Handler is instantiated once and invoked for every newline terminated
// request read from a connection. The returned bytes are written back to the
// client followed by a newline.
type Handler interface {
	Handle(ctx context.Context, req []byte) ([]byte, error)
}

type Server struct {
	logger     log.Logger
	connLogger log.Logger
	settings   *Settings
	handler    Handler
	listener   net.Listener
}

func New(config cfg.Config, loggers *log.Factory, handler Handler) (*Server, error) {
	settings := &Settings{}
	if err := config.UnmarshalKey(ConfigKey, settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server settings: %w", err)
	}

	return NewWithInterfaces(loggers.Logger("server"), loggers.Logger("server.conn"), settings, handler)
}

func NewWithInterfaces(logger log.Logger, connLogger log.Logger, settings *Settings, handler Handler) (*Server, error) {
	// bind right away so the port is held (and free ports are assigned)
	// before the accept loop starts
	listener, err := net.Listen("tcp", settings.Address)
	if err != nil {
		return nil, fmt.Errorf("can not listen on address %s: %w", settings.Address, err)
	}

	return &Server{
		logger:     logger,
		connLogger: connLogger,
		settings:   settings,
		handler:    handler,
		listener:   listener,
	}, nil
}

// Address returns the address the server is bound to.
func (s *Server) Address() net.Addr {
	return s.listener.Addr()
}

// Run accepts connections until the context is canceled and afterwards waits
// for the open connections to finish their current request.
func (s *Server) Run(ctx context.Context) error {
	cfn, ctx := coffin.WithContext(ctx)

	cfn.Go(func() error {
		return s.acceptLoop(ctx, cfn)
	})
	cfn.Go(func() error {
		<-ctx.Done()

		return s.listener.Close()
	})

	s.logger.Info(ctx, "serving on address %s", s.listener.Addr())

	err := cfn.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	s.logger.Info(ctx, "server stopped")

	return nil
}

func (s *Server) acceptLoop(ctx context.Context, cfn coffin.Coffin) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("can not accept connection: %w", err)
		}

		cfn.Go(func() error {
			s.handleConnection(ctx, conn)

			return nil
		})
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	ctx = log.AppendContextFields(ctx, log.Fields{
		"connection_id": uuid.NewString(),
		"remote_addr":   conn.RemoteAddr().String(),
	})

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	defer s.closeConnection(ctx, conn)

	s.connLogger.Debug(ctx, "connection opened")

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), s.settings.MaxLineBytes)

	first := true
	for {
		if timeout := s.readTimeout(first); timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				s.connLogger.Error(ctx, "can not set read deadline: %w", err)

				return
			}
		}

		first = false

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				s.connLogger.Error(ctx, "can not read request: %w", err)
			}

			return
		}

		resp, err := s.handler.Handle(ctx, scanner.Bytes())
		if err != nil {
			s.connLogger.Error(ctx, "can not handle request: %w", err)

			return
		}

		if _, err = conn.Write(append(resp, '\n')); err != nil {
			s.connLogger.Error(ctx, "can not write response: %w", err)

			return
		}
	}
}

func (s *Server) readTimeout(first bool) time.Duration {
	if !first && s.settings.IdleTimeout > 0 {
		return s.settings.IdleTimeout
	}

	return s.settings.ReadTimeout
}

// closeConnection shuts the write side down first so the client sees a clean
// EOF before the socket goes away.
func (s *Server) closeConnection(ctx context.Context, conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// some platforms report ENOTCONN here when the peer is already gone
		_ = tcpConn.CloseWrite()
	}

	_ = conn.Close()

	s.connLogger.Debug(ctx, "connection closed")
}

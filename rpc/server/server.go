package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"
)

var Logger = logger.GetLogger("rpc/server")

var (
	ErrMissingAuthenticator = errors.New("authenticator is required")
	ErrMissingCoordinator   = errors.New("coordinator is required")
)

// Server is a Memorized server: an event loop engine whose frames are
// dispatched to the packet handlers registered per client command.
type Server struct {
	config        common.ServerConfig
	engine        *base.ServerEngine
	authenticator auth.Authenticator
	codecs        *codec.Registry
	coordinator   *data.Coordinator
	handlers      *transport.HandlerRegistry[common.ClientPacket]
	sessions      *xsync.MapOf[uint64, transport.Session]
	metrics       *serverMetrics
}

// NewServer creates a server. The codec registry and the coordinator are
// sealed; they must be fully populated before this call.
//
// Usage:
//
//	codecs := codec.NewRegistry()
//	coordinator := data.NewDefaultCoordinator(codecs)
//	_ = coordinator.RegisterFactory(common.KindCounter, counter.Factory())
//
//	s, err := server.NewServer(
//		common.DefaultServerConfig("0.0.0.0:9800"),
//		tcp.NewServerConnector(),
//		auth.NewTokenAuthenticator("secret"),
//		codecs,
//		coordinator,
//	)
//	if err != nil {
//		panic(err)
//	}
//	if err := s.Start(); err != nil {
//		panic(err)
//	}
func NewServer(
	config common.ServerConfig,
	connector base.IServerConnector,
	authenticator auth.Authenticator,
	codecs *codec.Registry,
	coordinator *data.Coordinator,
) (*Server, error) {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if authenticator == nil {
		return nil, ErrMissingAuthenticator
	}
	if coordinator == nil {
		return nil, ErrMissingCoordinator
	}
	if codecs == nil {
		codecs = codec.NewRegistry()
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	codecs.Seal()
	coordinator.Seal()

	s := &Server{
		config:        config,
		authenticator: authenticator,
		codecs:        codecs,
		coordinator:   coordinator,
		handlers:      transport.NewHandlerRegistry[common.ClientPacket](),
		sessions:      xsync.NewMapOf[uint64, transport.Session](),
	}
	s.metrics = newServerMetrics(s.sessions.Size)
	s.registerHandlers()
	s.engine = base.NewServerEngine(connector, config, s)

	Logger.Infof("Created Memorized server")
	Logger.Infof(config.String())
	return s, nil
}

// registerHandlers binds every client command to its handler
func (s *Server) registerHandlers() {
	s.handlers.Register(common.ClientAuth, transport.HandlerFunc(s.handleAuth))
	s.handlers.Register(common.ClientShow, newInteractHandler(s, showInteraction))
	s.handlers.Register(common.ClientUpdate, newInteractHandler(s, updateInteraction))
	s.handlers.Register(common.ClientCreate, transport.HandlerFunc(s.handleCreate))
	s.handlers.Register(common.ClientDelete, transport.HandlerFunc(s.handleDelete))
	s.handlers.Register(common.ClientDisconnect, transport.HandlerFunc(s.handleDisconnect))
}

// Start binds the listener and starts the event loops. It returns once the
// server accepts connections.
func (s *Server) Start() error {
	return s.engine.Start()
}

// Shutdown stops accepting, sends DISCONNECT to every open session and
// closes them
func (s *Server) Shutdown() error {
	var err error
	err = multierr.Append(err, s.engine.Stop())
	if n := s.sessions.Size(); n > 0 {
		err = multierr.Append(err, fmt.Errorf("%d sessions still registered after stop", n))
	}
	return err
}

// Addr returns the bound address, nil before Start
func (s *Server) Addr() net.Addr {
	return s.engine.Addr()
}

// Running reports whether the server accepts connections
func (s *Server) Running() bool {
	return s.engine.Running()
}

// Sessions returns the number of open sessions
func (s *Server) Sessions() int {
	return s.sessions.Size()
}

// Config returns the validated config
func (s *Server) Config() common.ServerConfig {
	return s.config
}

// Coordinator returns the repositories served
func (s *Server) Coordinator() *data.Coordinator {
	return s.coordinator
}

// WritePrometheus writes the server metrics in the Prometheus text format
func (s *Server) WritePrometheus(w io.Writer) {
	s.metrics.set.WritePrometheus(w)
}

package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWorkerThreads                  = 3
	DefaultPacketSizeLimit                = 1048576
	DefaultUnauthenticatedPacketSizeLimit = 320
	DefaultRetryDelayMillis               = 10000
	DefaultDialTimeoutMillis              = 5000
	DefaultWriteTimeoutMillis             = 5000
)

var (
	ErrMissingEndpoint = errors.New("endpoint is required")
	ErrInvalidLimit    = errors.New("packet size limits must be positive")
)

// --------------------------------------------------------------------------
// Socket options (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds generic socket buffer options. Zero keeps the OS default.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds options only applied to TCP sockets.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec < 0 keeps the OS default
	TCPLingerSec int
}

// ServerTransportConfig holds the transport options of the server.
type ServerTransportConfig struct {
	SocketConf
	TCPConf
	// ReusePort binds the listener with SO_REUSEPORT (tcp only)
	ReusePort bool
}

// ClientTransportConfig holds the transport options of the client.
type ClientTransportConfig struct {
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a Memorized server.
type ServerConfig struct {
	// Endpoint is the bind address (host:port for tcp, a path for unix)
	Endpoint string

	// WorkerThreads is the number of event loops serving connections
	WorkerThreads int

	// Frame size limits in bytes
	PacketSizeLimit                int
	UnauthenticatedPacketSizeLimit int

	// WriteTimeoutMillis bounds how long a reply may wait for socket space
	WriteTimeoutMillis int

	Transport ServerTransportConfig

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns a config with every optional field set.
func DefaultServerConfig(endpoint string) ServerConfig {
	return ServerConfig{
		Endpoint:                       endpoint,
		WorkerThreads:                  DefaultWorkerThreads,
		PacketSizeLimit:                DefaultPacketSizeLimit,
		UnauthenticatedPacketSizeLimit: DefaultUnauthenticatedPacketSizeLimit,
		WriteTimeoutMillis:             DefaultWriteTimeoutMillis,
		Transport: ServerTransportConfig{
			TCPConf: TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
		LogLevel: "info",
	}
}

// Validate checks the config and fills zero values with defaults.
func (c *ServerConfig) Validate() error {
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.WorkerThreads < 1 {
		c.WorkerThreads = 1
	}
	if c.PacketSizeLimit == 0 {
		c.PacketSizeLimit = DefaultPacketSizeLimit
	}
	if c.UnauthenticatedPacketSizeLimit == 0 {
		c.UnauthenticatedPacketSizeLimit = DefaultUnauthenticatedPacketSizeLimit
	}
	if c.PacketSizeLimit < 0 || c.UnauthenticatedPacketSizeLimit < 0 {
		return ErrInvalidLimit
	}
	if c.WriteTimeoutMillis <= 0 {
		c.WriteTimeoutMillis = DefaultWriteTimeoutMillis
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// WriteTimeout returns the write timeout as a duration.
func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMillis) * time.Millisecond
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder
	addSection, addField := configWriter(&sb)

	addSection("Memorized Server")
	addField("Endpoint", c.Endpoint)
	addField("Worker Threads", strconv.Itoa(c.WorkerThreads))
	addField("Packet Limit", fmt.Sprintf("%d bytes", c.PacketSizeLimit))
	addField("Unauth Packet Limit", fmt.Sprintf("%d bytes", c.UnauthenticatedPacketSizeLimit))
	addField("Write Timeout", fmt.Sprintf("%d ms", c.WriteTimeoutMillis))

	addSection("Transport")
	addTransportFields(addField, c.Transport.SocketConf, c.Transport.TCPConf)
	addField("Reuse Port", strconv.FormatBool(c.Transport.ReusePort))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters of a Memorized client.
type ClientConfig struct {
	// Endpoint is the server address
	Endpoint string

	// Frame size limits in bytes (applied to replies)
	PacketSizeLimit                int
	UnauthenticatedPacketSizeLimit int

	// RetryDelayMillis is the fixed delay between reconnection attempts
	RetryDelayMillis int
	// DialTimeoutMillis bounds a single connect attempt
	DialTimeoutMillis int
	// RequestTimeoutMillis bounds blocking waits on replies, 0 waits forever
	RequestTimeoutMillis int
	// WriteTimeoutMillis bounds how long a request may wait for socket space
	WriteTimeoutMillis int

	Transport ClientTransportConfig

	LogLevel string
}

// DefaultClientConfig returns a config with every optional field set.
func DefaultClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:                       endpoint,
		PacketSizeLimit:                DefaultPacketSizeLimit,
		UnauthenticatedPacketSizeLimit: DefaultUnauthenticatedPacketSizeLimit,
		RetryDelayMillis:               DefaultRetryDelayMillis,
		DialTimeoutMillis:              DefaultDialTimeoutMillis,
		WriteTimeoutMillis:             DefaultWriteTimeoutMillis,
		Transport: ClientTransportConfig{
			TCPConf: TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
		},
		LogLevel: "info",
	}
}

// Validate checks the config and fills zero values with defaults.
func (c *ClientConfig) Validate() error {
	if c.Endpoint == "" {
		return ErrMissingEndpoint
	}
	if c.PacketSizeLimit == 0 {
		c.PacketSizeLimit = DefaultPacketSizeLimit
	}
	if c.UnauthenticatedPacketSizeLimit == 0 {
		c.UnauthenticatedPacketSizeLimit = DefaultUnauthenticatedPacketSizeLimit
	}
	if c.PacketSizeLimit < 0 || c.UnauthenticatedPacketSizeLimit < 0 {
		return ErrInvalidLimit
	}
	if c.RetryDelayMillis <= 0 {
		c.RetryDelayMillis = DefaultRetryDelayMillis
	}
	if c.DialTimeoutMillis <= 0 {
		c.DialTimeoutMillis = DefaultDialTimeoutMillis
	}
	if c.WriteTimeoutMillis <= 0 {
		c.WriteTimeoutMillis = DefaultWriteTimeoutMillis
	}
	if c.RequestTimeoutMillis < 0 {
		c.RequestTimeoutMillis = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RetryDelay returns the reconnection delay as a duration.
func (c *ClientConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// DialTimeout returns the connect timeout as a duration.
func (c *ClientConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMillis) * time.Millisecond
}

// RequestTimeout returns the reply timeout, 0 means no timeout.
func (c *ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// WriteTimeout returns the write timeout as a duration.
func (c *ClientConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMillis) * time.Millisecond
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder
	addSection, addField := configWriter(&sb)

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Packet Limit", fmt.Sprintf("%d bytes", c.PacketSizeLimit))
	addField("Unauth Packet Limit", fmt.Sprintf("%d bytes", c.UnauthenticatedPacketSizeLimit))
	addField("Retry Delay", fmt.Sprintf("%d ms", c.RetryDelayMillis))
	addField("Dial Timeout", fmt.Sprintf("%d ms", c.DialTimeoutMillis))
	if c.RequestTimeoutMillis > 0 {
		addField("Request Timeout", fmt.Sprintf("%d ms", c.RequestTimeoutMillis))
	} else {
		addField("Request Timeout", "none")
	}

	addSection("Transport")
	addTransportFields(addField, c.Transport.SocketConf, c.Transport.TCPConf)

	return sb.String()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func configWriter(sb *strings.Builder) (func(string), func(string, string)) {
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	return addSection, addField
}

func addTransportFields(addField func(string, string), socket SocketConf, tcp TCPConf) {
	addField("Write Buffer", fmt.Sprintf("%d bytes", socket.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", socket.ReadBufferSize))
	addField("TCP No Delay", strconv.FormatBool(tcp.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", tcp.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", tcp.TCPLingerSec))
}

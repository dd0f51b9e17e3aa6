package util

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/rpc/client"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
	"github.com/YvanMazy/Memorized/rpc/transport/tcp"
	"github.com/YvanMazy/Memorized/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of every environment variable read by the cli
	EnvPrefix = "memorized"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SplitList splits a comma separated flag value, dropping empty entries
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// InitConfig loads the env files and binds MEMORIZED_* variables to viper
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds the connection flags shared by all client commands
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:9800", WrapString("The address of the Memorized server (host:port for tcp, a socket path for unix)"))

	key = "token"
	cmd.PersistentFlags().String(key, "", WrapString("The authentication token, leave empty for servers running without authentication"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds for connecting and for every request"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "error", WrapString("LogLevel of the client (debug, info, warn, error)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, tcp only)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time (in seconds, tcp only, negative keeps the OS default)"))
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	conf := common.DefaultClientConfig(viper.GetString("endpoint"))
	timeoutMillis := viper.GetInt("timeout") * 1000
	conf.DialTimeoutMillis = timeoutMillis
	conf.RequestTimeoutMillis = timeoutMillis
	conf.LogLevel = viper.GetString("log-level")
	conf.Transport = common.ClientTransportConfig{
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}
	return conf
}

// GetAuthInput returns the token input, or the unsecure one for an empty token
func GetAuthInput() auth.Input {
	if token := viper.GetString("token"); token != "" {
		return auth.NewTokenInput(token)
	}
	return auth.NewUnsecureInput()
}

// GetServerConnector returns the server connector of the configured transport
func GetServerConnector() (base.IServerConnector, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewServerConnector(), nil
	case "unix":
		return unix.NewServerConnector(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetClientConnector returns the client connector of the configured transport
func GetClientConnector() (base.IClientConnector, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewClientConnector(), nil
	case "unix":
		return unix.NewClientConnector(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// ConnectClient creates a client from the viper configuration and waits
// until it is authenticated
func ConnectClient() (*client.Client, error) {
	connector, err := GetClientConnector()
	if err != nil {
		return nil, err
	}

	config := GetClientConfig()
	c, err := client.NewClient(config, connector, GetAuthInput(), codec.NewRegistry(), codec.NewKeyRegistry())
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.DialTimeoutMillis)*time.Millisecond)
	defer cancel()
	if err := c.AwaitReady(ctx); err != nil {
		_ = c.Shutdown()
		return nil, fmt.Errorf("server %s not ready: %w", config.Endpoint, err)
	}
	return c, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

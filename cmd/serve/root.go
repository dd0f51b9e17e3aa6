package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/YvanMazy/Memorized/cmd/util"
	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/lib/data/counter"
	"github.com/YvanMazy/Memorized/lib/data/hashmap"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/server"
	"github.com/YvanMazy/Memorized/rpc/transport/http"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

var Logger = logger.GetLogger("cmd")

var (
	serveCmdConfig = common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the Memorized server",
		Long:    `Start the Memorized server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is MEMORIZED_<flag> (e.g. MEMORIZED_WORKERS=4)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:9800", cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:9800, /tmp/memorized.sock, ...)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, common.DefaultWorkerThreads, cmdUtil.WrapString("Number of worker event loops serving the connections"))

	key = "packet-limit"
	ServeCmd.PersistentFlags().Int(key, common.DefaultPacketSizeLimit, cmdUtil.WrapString("Maximum frame size in bytes for authenticated connections"))

	key = "unauthenticated-packet-limit"
	ServeCmd.PersistentFlags().Int(key, common.DefaultUnauthenticatedPacketSizeLimit, cmdUtil.WrapString("Maximum frame size in bytes before a connection is authenticated"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Int(key, common.DefaultWriteTimeoutMillis, cmdUtil.WrapString("Time in milliseconds a reply may wait for socket space before the connection is dropped"))

	key = "token"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Token clients must present. Leave empty to accept every client (unsecure)"))

	key = "counters"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of counters created at startup (e.g. hits,errors)"))

	key = "maps"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of string maps created at startup (e.g. sessions,users)"))

	key = "http-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the admin HTTP endpoint serving /ping, /metrics and /repositories. Disabled if empty"))

	key = "reuse-port"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Bind the listener with SO_REUSEPORT (tcp only)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (tcp only)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, tcp only)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time (in seconds, tcp only, negative keeps the OS default)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig = common.DefaultServerConfig(viper.GetString("endpoint"))
	serveCmdConfig.WorkerThreads = viper.GetInt("workers")
	serveCmdConfig.PacketSizeLimit = viper.GetInt("packet-limit")
	serveCmdConfig.UnauthenticatedPacketSizeLimit = viper.GetInt("unauthenticated-packet-limit")
	serveCmdConfig.WriteTimeoutMillis = viper.GetInt("write-timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
		ReusePort: viper.GetBool("reuse-port"),
	}

	if serveCmdConfig.WorkerThreads < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", serveCmdConfig.WorkerThreads)
	}
	return serveCmdConfig.Validate()
}

// run starts the Memorized server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connector, err := cmdUtil.GetServerConnector()
	if err != nil {
		return err
	}

	codecs := codec.NewRegistry()
	coordinator, err := buildCoordinator(
		codecs,
		cmdUtil.SplitList(viper.GetString("counters")),
		cmdUtil.SplitList(viper.GetString("maps")),
	)
	if err != nil {
		return err
	}

	var authenticator auth.Authenticator
	if token := viper.GetString("token"); token != "" {
		if len(token) > auth.MaxTokenLength {
			return fmt.Errorf("token must not exceed %d bytes", auth.MaxTokenLength)
		}
		authenticator = auth.NewTokenAuthenticator(token)
	} else {
		authenticator = auth.NewUnsecureAuthenticator()
	}

	serv, err := server.NewServer(serveCmdConfig, connector, authenticator, codecs, coordinator)
	if err != nil {
		return err
	}
	if viper.GetString("token") == "" {
		Logger.Warningf("no token configured, every client is accepted")
	}
	if err := serv.Start(); err != nil {
		return err
	}
	Logger.Infof("Memorized server listening on %s", serv.Addr())

	var admin *http.AdminServer
	if endpoint := viper.GetString("http-endpoint"); endpoint != "" {
		admin = http.NewAdminServer(endpoint, serv, serveCmdConfig.LogLevel == "debug")
		if err := admin.Start(); err != nil {
			return multierr.Append(err, serv.Shutdown())
		}
	}

	<-ctx.Done()
	stop()
	Logger.Infof("Shutting down gracefully, press Ctrl+C again to force")

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, admin.Shutdown(shutdownCtx))
	}
	return multierr.Append(err, serv.Shutdown())
}

// buildCoordinator registers the counter and string map factories and
// creates the preloaded containers under string keys
func buildCoordinator(codecs *codec.Registry, counters, maps []string) (*data.Coordinator, error) {
	coordinator := data.NewDefaultCoordinator(codecs)
	if err := coordinator.RegisterFactory(common.KindCounter, counter.Factory()); err != nil {
		return nil, err
	}
	if err := coordinator.RegisterFactory(common.KindMap, hashmap.Factory[string, string](codecs)); err != nil {
		return nil, err
	}

	for _, name := range counters {
		if err := data.Put(coordinator, name, counter.New(0)); err != nil {
			return nil, fmt.Errorf("counter %s: %w", name, err)
		}
	}
	for _, name := range maps {
		if err := data.Put(coordinator, name, hashmap.New[string, string](codecs)); err != nil {
			return nil, fmt.Errorf("map %s: %w", name, err)
		}
	}
	return coordinator, nil
}

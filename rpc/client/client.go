package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"go.uber.org/multierr"
)

var Logger = logger.GetLogger("rpc/client")

var (
	ErrClientClosed         = errors.New("client closed")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotAuthenticated     = errors.New("request rejected: session not authenticated")
	ErrNotFound             = errors.New("container not found")
	ErrMissingAuthInput     = errors.New("authentication input is required")
)

// Client is a Memorized client. It keeps one connection to the server,
// authenticates it, reconnects after losses and correlates replies with
// requests through a TransactionQueue.
type Client struct {
	config    common.ClientConfig
	engine    *base.ClientEngine
	authInput auth.Input
	codecs    *codec.Registry
	keys      *codec.KeyRegistry
	handlers  *transport.HandlerRegistry[common.ServerPacket]
	queue     *TransactionQueue
	reconnect *ReconnectManager
	metrics   *clientMetrics

	closed     atomic.Bool
	authFailed atomic.Bool

	// readyCh is closed on every readiness change and replaced afterwards
	mu      sync.Mutex
	ready   bool
	readyCh chan struct{}
}

// NewClient creates a client. The codec and key registries are sealed; they
// must be fully populated before this call.
//
// Usage:
//
//	c, err := client.NewClient(
//		common.DefaultClientConfig("localhost:9800"),
//		tcp.NewClientConnector(),
//		auth.NewTokenInput("secret"),
//		codec.NewRegistry(),
//		codec.NewKeyRegistry(),
//	)
//	if err != nil {
//		panic(err)
//	}
//	if err := c.Start(); err != nil {
//		panic(err)
//	}
//	defer c.Shutdown()
func NewClient(
	config common.ClientConfig,
	connector base.IClientConnector,
	authInput auth.Input,
	codecs *codec.Registry,
	keys *codec.KeyRegistry,
) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	if authInput == nil {
		return nil, ErrMissingAuthInput
	}
	if codecs == nil {
		codecs = codec.NewRegistry()
	}
	if keys == nil {
		keys = codec.NewKeyRegistry()
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	codecs.Seal()
	keys.Seal()

	c := &Client{
		config:    config,
		authInput: authInput,
		codecs:    codecs,
		keys:      keys,
		handlers:  transport.NewHandlerRegistry[common.ServerPacket](),
		queue:     NewTransactionQueue(),
		readyCh:   make(chan struct{}),
	}
	c.metrics = newClientMetrics(c.queue.Size)
	c.reconnect = NewReconnectManager(config.RetryDelay(), c.connect)
	c.registerHandlers()
	c.engine = base.NewClientEngine(connector, config, c)

	Logger.Infof("Created Memorized client")
	Logger.Infof(config.String())
	return c, nil
}

// Start connects to the server. When the first attempt fails the
// reconnection manager keeps retrying in the background; requests queued
// meanwhile are sent once the client is authenticated.
func (c *Client) Start() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if err := c.connect(); err != nil {
		Logger.Warningf("initial connect failed, retrying every %s: %v", c.config.RetryDelay(), err)
		c.reconnect.Start()
	}
	return nil
}

// connect opens one connection. AUTH is sent by OnOpen afterwards.
func (c *Client) connect() error {
	if c.closed.Load() || c.authFailed.Load() {
		return nil
	}
	if _, err := c.engine.Connect(); err != nil {
		if errors.Is(err, base.ErrAlreadyConnected) {
			return nil
		}
		return err
	}
	c.metrics.connects.Inc(1)
	return nil
}

// AwaitReady blocks until the client is authenticated
func (c *Client) AwaitReady(ctx context.Context) error {
	for {
		c.mu.Lock()
		ready, ch := c.ready, c.readyCh
		c.mu.Unlock()

		switch {
		case c.authFailed.Load():
			return ErrAuthenticationFailed
		case c.closed.Load():
			return ErrClientClosed
		case ready:
			return nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ready reports whether the client is authenticated
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// setReady records a readiness change and wakes every AwaitReady
func (c *Client) setReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
	close(c.readyCh)
	c.readyCh = make(chan struct{})
}

// Shutdown sends DISCONNECT, closes the connection and fails every pending
// request with ErrClientClosed
func (c *Client) Shutdown() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.reconnect.Stop()

	var err error
	err = multierr.Append(err, c.engine.Close())
	c.queue.Close(ErrClientClosed)
	c.setReady(false)

	Logger.Infof("Client shut down")
	return err
}

// Send queues a raw request body (command id followed by payload)
func (c *Client) Send(body []byte) *Pending {
	if c.closed.Load() {
		return failedPending(ErrClientClosed)
	}
	return c.queue.Queue(body)
}

// Pending returns the number of unresolved requests
func (c *Client) Pending() int {
	return c.queue.Size()
}

// Metrics returns the go-metrics registry of the client
func (c *Client) Metrics() gometrics.Registry {
	return c.metrics.registry
}

// Codecs returns the codec registry
func (c *Client) Codecs() *codec.Registry {
	return c.codecs
}

// Keys returns the key registry
func (c *Client) Keys() *codec.KeyRegistry {
	return c.keys
}

// Config returns the validated config
func (c *Client) Config() common.ClientConfig {
	return c.config
}

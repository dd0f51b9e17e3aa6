package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/common"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// Source is the part of a Memorized server the admin endpoint reports on.
// *server.Server implements it.
type Source interface {
	Running() bool
	Sessions() int
	WritePrometheus(w io.Writer)
	Coordinator() *data.Coordinator
}

// repositoryStatus is one entry of the /repositories response
type repositoryStatus struct {
	ID      int32  `json:"id"`
	KeyType string `json:"keyType"`
	Size    int    `json:"size"`
}

// AdminServer serves health and metrics of a Memorized server over HTTP.
// It never carries protocol traffic.
type AdminServer struct {
	source  Source
	router  *gin.Engine
	server  *http.Server
	started chan struct{}
	addr    net.Addr
}

// NewAdminServer creates the admin endpoint. Requests are logged through
// the shared zap logger; debug enables gin's debug mode.
func NewAdminServer(endpoint string, source Source, debug bool) *AdminServer {
	a := &AdminServer{
		source:  source,
		router:  setupRouter(debug),
		started: make(chan struct{}),
	}
	a.router.GET("/ping", a.handlePing)
	a.router.GET("/metrics", a.handleMetrics)
	a.router.GET("/repositories", a.handleRepositories)
	a.server = &http.Server{
		Addr:    endpoint,
		Handler: a.router,
	}
	return a
}

// Handler returns the router, mainly for tests
func (a *AdminServer) Handler() http.Handler {
	return a.router
}

// Start binds the endpoint and serves in the background
func (a *AdminServer) Start() error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	a.addr = listener.Addr()
	Logger.Infof("Starting admin HTTP server on %s", a.addr)

	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("admin HTTP server failed: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, nil before Start
func (a *AdminServer) Addr() net.Addr {
	return a.addr
}

// Shutdown stops the endpoint, waiting for running requests until ctx ends
func (a *AdminServer) Shutdown(ctx context.Context) error {
	a.server.SetKeepAlivesEnabled(false)
	return a.server.Shutdown(ctx)
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (a *AdminServer) handlePing(c *gin.Context) {
	if !a.source.Running() {
		c.String(http.StatusServiceUnavailable, "stopped")
		return
	}
	c.String(http.StatusOK, "pong")
}

func (a *AdminServer) handleMetrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4")
	c.Status(http.StatusOK)
	a.source.WritePrometheus(c.Writer)
	metrics.WriteProcessMetrics(c.Writer)
}

func (a *AdminServer) handleRepositories(c *gin.Context) {
	repos := a.source.Coordinator().Repositories()
	sort.Slice(repos, func(i, j int) bool { return repos[i].Identifier() < repos[j].Identifier() })
	out := make([]repositoryStatus, 0, len(repos))
	for _, repo := range repos {
		out = append(out, repositoryStatus{
			ID:      repo.Identifier(),
			KeyType: repo.KeyType().String(),
			Size:    repo.Size(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions":     a.source.Sessions(),
		"repositories": out,
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func setupRouter(debug bool) *gin.Engine {
	gin.DisableConsoleColor()
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	log := common.BaseLogger().Named("http")
	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))
	return r
}

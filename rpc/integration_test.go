package rpc_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YvanMazy/Memorized/lib/auth"
	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/lib/data/counter"
	"github.com/YvanMazy/Memorized/lib/data/hashmap"
	"github.com/YvanMazy/Memorized/rpc/client"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/server"
	"github.com/YvanMazy/Memorized/rpc/transport/base"
	"github.com/YvanMazy/Memorized/rpc/transport/tcp"
	"github.com/YvanMazy/Memorized/rpc/transport/unix"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const token = "integration-token"

type connectors struct {
	server base.IServerConnector
	client base.IClientConnector
}

var tcpConnectors = connectors{tcp.NewServerConnector(), tcp.NewClientConnector()}
var unixConnectors = connectors{unix.NewServerConnector(), unix.NewClientConnector()}

func makeServer(endpoint string, conn connectors) *server.Server {
	config := common.DefaultServerConfig(endpoint)
	config.LogLevel = "error"

	codecs := codec.NewRegistry()
	coordinator := data.NewDefaultCoordinator(codecs)
	Expect(coordinator.RegisterFactory(common.KindCounter, counter.Factory())).To(Succeed())
	Expect(coordinator.RegisterFactory(common.KindMap, hashmap.Factory[string, string](codecs))).To(Succeed())
	Expect(data.Put(coordinator, "hits", counter.New(0))).To(Succeed())

	s, err := server.NewServer(config, conn.server, auth.NewTokenAuthenticator(token), codecs, coordinator)
	Expect(err).To(Succeed())
	Expect(s.Start()).To(Succeed())
	return s
}

func makeClient(endpoint, secret string, conn connectors) *client.Client {
	config := common.DefaultClientConfig(endpoint)
	config.LogLevel = "error"
	config.RetryDelayMillis = 50
	config.RequestTimeoutMillis = 2000

	c, err := client.NewClient(config, conn.client, auth.NewTokenInput(secret), codec.NewRegistry(), codec.NewKeyRegistry())
	Expect(err).To(Succeed())
	Expect(c.Start()).To(Succeed())
	return c
}

func awaitReady(c *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	Expect(c.AwaitReady(ctx)).To(Succeed())
}

// freeAddr reserves a loopback port and releases it for a later listener
func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).To(Succeed())
	addr := l.Addr().String()
	Expect(l.Close()).To(Succeed())
	return addr
}

var _ = Describe("Memorized", func() {
	var (
		srv *server.Server
		cli *client.Client
	)

	AfterEach(func() {
		if cli != nil {
			Expect(cli.Shutdown()).To(Succeed())
			cli = nil
		}
		if srv != nil {
			Expect(srv.Shutdown()).To(Succeed())
			srv = nil
		}
	})

	Describe("over TCP", func() {
		BeforeEach(func() {
			srv = makeServer("127.0.0.1:0", tcpConnectors)
			cli = makeClient(srv.Addr().String(), token, tcpConnectors)
			awaitReady(cli)
		})

		It("never loses concurrent counter increments", func() {
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())

			const goroutines = 8
			const increments = 100

			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for j := 0; j < increments; j++ {
						_, err := counters.IncrementAndGet("hits", 1).Await()
						Expect(err).To(Succeed())
					}
				}()
			}
			wg.Wait()

			Expect(counters.Get("hits").Await()).To(Equal(int32(goroutines * increments)))
		})

		It("answers pipelined requests in order", func() {
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())

			futures := make([]*client.Future[int32], 50)
			for i := range futures {
				futures[i] = counters.IncrementAndGet("hits", 1)
			}
			for i, f := range futures {
				Expect(f.Await()).To(Equal(int32(i + 1)))
			}
		})

		It("keeps map set and remove idempotent", func() {
			maps, err := client.NewMap[string, string, string](cli)
			Expect(err).To(Succeed())

			Expect(maps.Create("colors").Await()).To(BeTrue())
			Expect(maps.Create("colors").Await()).To(BeFalse())

			_, err = maps.Put("colors", "sky", "blue").Await()
			Expect(err).To(Succeed())
			_, err = maps.Put("colors", "sky", "blue").Await()
			Expect(err).To(Succeed())
			Expect(maps.Get("colors", "sky").Await()).To(Equal(client.Lookup[string]{Value: "blue", Found: true}))

			_, err = maps.Remove("colors", "sky").Await()
			Expect(err).To(Succeed())
			_, err = maps.Remove("colors", "sky").Await()
			Expect(err).To(Succeed())
			Expect(maps.Get("colors", "sky").Await()).To(Equal(client.Lookup[string]{}))
		})

		It("answers dispatch misses with NOT_FOUND", func() {
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())
			byID, err := client.NewCounter[int32](cli)
			Expect(err).To(Succeed())

			_, err = counters.Get("absent").Await()
			Expect(err).To(MatchError(client.ErrNotFound))
			_, err = byID.IncrementAndGet(7, 1).Await()
			Expect(err).To(MatchError(client.ErrNotFound))
			Expect(counters.Delete("absent").Await()).To(BeFalse())

			// the connection is still in sync afterwards
			Expect(counters.IncrementAndGet("hits", 2).Await()).To(Equal(int32(2)))
		})

		It("creates and deletes counters", func() {
			counters, err := client.NewCounter[int32](cli)
			Expect(err).To(Succeed())

			Expect(counters.Create(42).Await()).To(BeTrue())
			_, err = counters.Set(42, 10).Await()
			Expect(err).To(Succeed())
			Expect(counters.GetAndDecrement(42, 3).Await()).To(Equal(int32(10)))
			Expect(counters.Get(42).Await()).To(Equal(int32(7)))
			_, err = counters.Reset(42).Await()
			Expect(err).To(Succeed())
			Expect(counters.Get(42).Await()).To(Equal(int32(0)))
			Expect(counters.Delete(42).Await()).To(BeTrue())
			Expect(counters.Delete(42).Await()).To(BeFalse())
		})

		It("rejects keys without a codec before sending", func() {
			_, err := client.NewCounter[float64](cli)
			Expect(err).To(MatchError(codec.ErrUnknownKeyType))
			Expect(cli.Pending()).To(Equal(0))
		})

		It("exposes client metrics", func() {
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())
			_, err = counters.Get("hits").Await()
			Expect(err).To(Succeed())

			Expect(cli.Metrics().Get("memorized.client.round_trip")).NotTo(BeNil())
			Expect(cli.Metrics().Get("memorized.client.connects")).NotTo(BeNil())
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			srv = makeServer("127.0.0.1:0", tcpConnectors)
		})

		It("fails every request and stops after a rejected token", func() {
			cli = makeClient(srv.Addr().String(), "wrong", tcpConnectors)
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())
			pending := counters.Get("hits")

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			Expect(cli.AwaitReady(ctx)).To(MatchError(client.ErrAuthenticationFailed))

			_, err = pending.Await()
			Expect(err).To(MatchError(client.ErrAuthenticationFailed))
			Consistently(cli.Ready, 200*time.Millisecond).Should(BeFalse())
		})

		It("gates unauthenticated sessions", func() {
			conn, err := net.Dial("tcp", srv.Addr().String())
			Expect(err).To(Succeed())
			defer conn.Close()

			show := codec.NewBuffer().PutByte(common.ClientShow.Byte()).PutInt32(codec.StringKeyID).PutString("hits")
			_, err = conn.Write(base.AppendFrame(nil, show.Bytes()))
			Expect(err).To(Succeed())

			reply := make([]byte, 5)
			Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
			_, err = conn.Read(reply)
			Expect(err).To(Succeed())
			Expect(reply).To(Equal([]byte{0, 0, 0, 1, common.ServerNotAuthenticated.Byte()}))
		})
	})

	Describe("reconnection", func() {
		It("sends parked requests once the server comes up", func() {
			addr := freeAddr()
			cli = makeClient(addr, token, tcpConnectors)
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())

			pending := counters.IncrementAndGet("hits", 5)
			Consistently(pending.Done(), 150*time.Millisecond).ShouldNot(BeClosed())

			srv = makeServer(addr, tcpConnectors)
			awaitReady(cli)
			Expect(pending.Await()).To(Equal(int32(5)))
		})

		It("converges after a server restart", func() {
			addr := freeAddr()
			srv = makeServer(addr, tcpConnectors)
			cli = makeClient(addr, token, tcpConnectors)
			awaitReady(cli)

			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())
			Expect(counters.IncrementAndGet("hits", 1).Await()).To(Equal(int32(1)))

			Expect(srv.Shutdown()).To(Succeed())
			Eventually(cli.Ready, 2*time.Second).Should(BeFalse())

			srv = makeServer(addr, tcpConnectors)
			awaitReady(cli)

			// state is not persisted across restarts
			Expect(counters.IncrementAndGet("hits", 1).Await()).To(Equal(int32(1)))
		})
	})

	Describe("flapping server", func() {
		It("keeps reconnecting when every connection drops at once", func() {
			listener, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).To(Succeed())
			defer listener.Close()

			var accepts atomic.Int32
			go func() {
				for {
					conn, err := listener.Accept()
					if err != nil {
						return
					}
					accepts.Add(1)
					_ = conn.Close()
				}
			}()

			cli = makeClient(listener.Addr().String(), token, tcpConnectors)
			for round := 0; round < 5; round++ {
				seen := accepts.Load()
				Eventually(accepts.Load, 2*time.Second, 10*time.Millisecond).Should(BeNumerically(">", seen+2))
			}
			Expect(cli.Ready()).To(BeFalse())
		})
	})

	Describe("over a Unix socket", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "memorized")
			Expect(err).To(Succeed())
			socket := filepath.Join(dir, "memorized.sock")

			srv = makeServer(socket, unixConnectors)
			cli = makeClient(socket, token, unixConnectors)
			awaitReady(cli)
		})

		AfterEach(func() {
			Expect(os.RemoveAll(dir)).To(Succeed())
		})

		It("serves counters", func() {
			counters, err := client.NewCounter[string](cli)
			Expect(err).To(Succeed())
			Expect(counters.GetAndIncrement("hits", 3).Await()).To(Equal(int32(0)))
			Expect(counters.Get("hits").Await()).To(Equal(int32(3)))
		})
	})
})

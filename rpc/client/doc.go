// Package client implements the Memorized client.
//
// The protocol carries no request ids. The server answers every request
// exactly once and in order, so the client correlates replies by position:
// requests wait in a TransactionQueue and every RESULT or NOT_FOUND resolves
// the oldest request written to the connection.
//
// Key Components:
//
//   - Client: owns a base.ClientEngine and implements its Handler. On
//     connect it sends AUTH; on AUTH_SUCCESS it flushes the requests parked
//     while the connection was down; on connection loss it arms the
//     ReconnectManager. AUTH_FAILED fails every request and stops
//     reconnecting for good.
//
//   - TransactionQueue: FIFO of Pending requests. Requests written to a
//     connection that is lost are resolved with ErrConnectionLost, parked
//     requests survive and are sent after the next authentication.
//
//   - Future: typed result of one request, obtained from the accessors.
//     Get waits under a context, Await uses the configured request timeout.
//
//   - Counter and Map: typed accessors building SHOW, UPDATE, CREATE and
//     DELETE requests for the containers under keys of one type.
//
// Usage Example:
//
//	c, _ := client.NewClient(
//	  common.DefaultClientConfig("localhost:9800"),
//	  tcp.NewClientConnector(),
//	  auth.NewTokenInput("secret"),
//	  codec.NewRegistry(),
//	  codec.NewKeyRegistry(),
//	)
//	_ = c.Start()
//	defer c.Shutdown()
//
//	counters, _ := client.NewCounter[string](c)
//	visits, err := counters.IncrementAndGet("visits", 1).Await()
//
//	maps, _ := client.NewMap[string, string, string](c)
//	_, err = maps.Put("colors", "sky", "blue").Await()
//	color, err := maps.Get("colors", "sky").Await()
//
// Thread Safety:
//
//	All Client methods and accessors are safe for concurrent use. Requests
//	issued concurrently are sent in the order they enter the queue.
package client

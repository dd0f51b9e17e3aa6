// Package testing provides shared tests and benchmarks for implementations
// of the data.Container interface, plus an in-memory transport.Session that
// records replies.
//
// The package contains:
//   - Session: a transport.Session that stores every sent frame
//   - RunContainerTests: checks the one-reply-per-request contract
//   - RunContainerBenchmarks: measures update and show throughput
//
// Example usage:
//
//	suite := testing.ContainerSuite{
//		Factory: counter.Factory(),
//		Update: func(buf *codec.Buffer) {
//			buf.PutInt8(int8(common.CounterIncrementAndGet)).PutInt32(1)
//		},
//		Show: func(*codec.Buffer) {},
//	}
//	testing.RunContainerTests(t, "Counter", suite)
package testing

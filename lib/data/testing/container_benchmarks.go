package testing

import (
	"testing"

	"github.com/YvanMazy/Memorized/rpc/codec"
)

// RunContainerBenchmarks measures the handlers of a container implementation
func RunContainerBenchmarks(b *testing.B, name string, suite ContainerSuite) {
	b.Run(name, func(b *testing.B) {
		b.Run("Update", func(b *testing.B) {
			benchmarkUpdate(b, suite)
		})

		b.Run("UpdateParallel", func(b *testing.B) {
			benchmarkUpdateParallel(b, suite)
		})

		b.Run("Show", func(b *testing.B) {
			benchmarkShow(b, suite)
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// discard is a session that drops replies so benchmarks do not grow memory
type discard struct {
	*Session
}

func (discard) Send([]byte) error {
	return nil
}

func encoded(write func(buf *codec.Buffer)) []byte {
	buf := codec.NewBuffer()
	write(buf)
	return buf.Bytes()
}

func benchmarkUpdate(b *testing.B, suite ContainerSuite) {
	c := suite.Factory()
	s := discard{NewSession()}
	body := encoded(suite.Update)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.HandleUpdate(s, codec.NewReader(body)); err != nil {
			b.Fatalf("update failed: %v", err)
		}
	}
}

func benchmarkUpdateParallel(b *testing.B, suite ContainerSuite) {
	c := suite.Factory()
	body := encoded(suite.Update)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		s := discard{NewSession()}
		for pb.Next() {
			if err := c.HandleUpdate(s, codec.NewReader(body)); err != nil {
				b.Errorf("update failed: %v", err)
				return
			}
		}
	})
}

func benchmarkShow(b *testing.B, suite ContainerSuite) {
	c := suite.Factory()
	s := discard{NewSession()}
	body := encoded(suite.Show)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.HandleShow(s, codec.NewReader(body)); err != nil {
			b.Fatalf("show failed: %v", err)
		}
	}
}

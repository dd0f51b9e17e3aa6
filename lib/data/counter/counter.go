package counter

import (
	"fmt"
	"sync/atomic"

	"github.com/YvanMazy/Memorized/lib/data"
	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
	"github.com/YvanMazy/Memorized/rpc/transport"
)

// Counter is an int32 container updated with atomic operations.
// Overflow wraps around.
type Counter struct {
	value atomic.Int32
}

// New creates a counter holding initial
func New(initial int32) *Counter {
	c := &Counter{}
	c.value.Store(initial)
	return c
}

// Factory creates counters starting at zero
func Factory() data.Factory {
	return func() data.Container {
		return New(0)
	}
}

// Value returns the current value
func (c *Counter) Value() int32 {
	return c.value.Load()
}

// --------------------------------------------------------------------------
// Interface Methods (docu see data.Container)
// --------------------------------------------------------------------------

func (c *Counter) HandleUpdate(s transport.Session, payload *codec.Reader) error {
	b, err := payload.Byte()
	if err != nil {
		return fmt.Errorf("counter update: %w", err)
	}
	update, ok := common.ParseCounterUpdate(b)
	if !ok {
		return fmt.Errorf("counter update: unknown subtype %d", int8(b))
	}

	// RESET carries no argument, every other subtype carries one i32
	if update == common.CounterReset {
		c.value.Store(0)
		return replyEmpty(s)
	}
	arg, err := payload.Int32()
	if err != nil {
		return fmt.Errorf("counter %s: %w", update, err)
	}

	switch update {
	case common.CounterSet:
		c.value.Store(arg)
		return replyEmpty(s)
	case common.CounterGetAndSet:
		return replyValue(s, c.value.Swap(arg))
	case common.CounterIncrementAndGet:
		return replyValue(s, c.value.Add(arg))
	case common.CounterGetAndIncrement:
		return replyValue(s, c.value.Add(arg)-arg)
	case common.CounterDecrementAndGet:
		return replyValue(s, c.value.Add(-arg))
	case common.CounterGetAndDecrement:
		return replyValue(s, c.value.Add(-arg)+arg)
	default:
		return fmt.Errorf("counter update: unhandled subtype %s", update)
	}
}

func (c *Counter) HandleShow(s transport.Session, _ *codec.Reader) error {
	return replyValue(s, c.value.Load())
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func replyValue(s transport.Session, v int32) error {
	buf := codec.NewBufferSize(4)
	buf.PutInt32(v)
	return transport.SendBuffer(s, common.ServerResult.Byte(), buf)
}

func replyEmpty(s transport.Session) error {
	return transport.SendPacket(s, common.ServerResult.Byte(), nil)
}

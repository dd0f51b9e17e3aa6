package client

import (
	"fmt"

	"github.com/YvanMazy/Memorized/rpc/codec"
	"github.com/YvanMazy/Memorized/rpc/common"
)

// Void is the result type of requests answered with an empty RESULT
type Void struct{}

// Lookup is the result of a map read
type Lookup[V any] struct {
	Value V
	Found bool
}

// --------------------------------------------------------------------------
// Request building
// --------------------------------------------------------------------------

// request queues cmd | repositoryId:i32 | key | extra. Encoding failures
// resolve the request immediately without sending anything.
func (c *Client) request(cmd common.ClientPacket, repo int32, key any, extra func(buf *codec.Buffer) error) *Pending {
	buf := codec.NewBuffer()
	buf.PutByte(cmd.Byte()).PutInt32(repo)
	if err := c.codecs.TryEncode(buf, key); err != nil {
		return failedPending(fmt.Errorf("failed to encode key: %w", err))
	}
	if extra != nil {
		if err := extra(buf); err != nil {
			return failedPending(err)
		}
	}
	return c.Send(buf.Bytes())
}

func repositoryOf[K any](c *Client) (int32, error) {
	return codec.IdentifierOf[K](c.keys)
}

func decodeInt32(r Reply) (int32, error) {
	if !r.Found {
		return 0, ErrNotFound
	}
	return codec.NewReader(r.Payload).Int32()
}

func decodeVoid(r Reply) (Void, error) {
	if !r.Found {
		return Void{}, ErrNotFound
	}
	return Void{}, nil
}

func decodeCreated(r Reply) (bool, error) {
	if !r.Found {
		return false, ErrNotFound
	}
	return codec.NewReader(r.Payload).Bool()
}

func decodeDeleted(r Reply) (bool, error) {
	return r.Found, nil
}

func create(c *Client, repo int32, key any, kind common.ContainerKind) *Future[bool] {
	p := c.request(common.ClientCreate, repo, key, func(buf *codec.Buffer) error {
		buf.PutInt8(int8(kind))
		return nil
	})
	return newFuture(p, c.config.RequestTimeout(), decodeCreated)
}

func remove(c *Client, repo int32, key any) *Future[bool] {
	p := c.request(common.ClientDelete, repo, key, nil)
	return newFuture(p, c.config.RequestTimeout(), decodeDeleted)
}

// --------------------------------------------------------------------------
// Counter
// --------------------------------------------------------------------------

// Counter addresses the counters stored under keys of type K
type Counter[K any] struct {
	client *Client
	repo   int32
}

// NewCounter creates a counter accessor. K must be registered in the key
// registry of the client.
func NewCounter[K any](c *Client) (*Counter[K], error) {
	repo, err := repositoryOf[K](c)
	if err != nil {
		return nil, err
	}
	return &Counter[K]{client: c, repo: repo}, nil
}

func (a *Counter[K]) update(key K, u common.CounterUpdate, arg *int32) *Pending {
	return a.client.request(common.ClientUpdate, a.repo, key, func(buf *codec.Buffer) error {
		buf.PutInt8(int8(u))
		if arg != nil {
			buf.PutInt32(*arg)
		}
		return nil
	})
}

func (a *Counter[K]) value(key K, u common.CounterUpdate, arg int32) *Future[int32] {
	return newFuture(a.update(key, u, &arg), a.client.config.RequestTimeout(), decodeInt32)
}

// Get returns the current value
func (a *Counter[K]) Get(key K) *Future[int32] {
	p := a.client.request(common.ClientShow, a.repo, key, nil)
	return newFuture(p, a.client.config.RequestTimeout(), decodeInt32)
}

func (a *Counter[K]) Set(key K, value int32) *Future[Void] {
	return newFuture(a.update(key, common.CounterSet, &value), a.client.config.RequestTimeout(), decodeVoid)
}

func (a *Counter[K]) Reset(key K) *Future[Void] {
	return newFuture(a.update(key, common.CounterReset, nil), a.client.config.RequestTimeout(), decodeVoid)
}

func (a *Counter[K]) GetAndSet(key K, value int32) *Future[int32] {
	return a.value(key, common.CounterGetAndSet, value)
}

func (a *Counter[K]) IncrementAndGet(key K, delta int32) *Future[int32] {
	return a.value(key, common.CounterIncrementAndGet, delta)
}

func (a *Counter[K]) GetAndIncrement(key K, delta int32) *Future[int32] {
	return a.value(key, common.CounterGetAndIncrement, delta)
}

func (a *Counter[K]) DecrementAndGet(key K, delta int32) *Future[int32] {
	return a.value(key, common.CounterDecrementAndGet, delta)
}

func (a *Counter[K]) GetAndDecrement(key K, delta int32) *Future[int32] {
	return a.value(key, common.CounterGetAndDecrement, delta)
}

// Create creates the counter unless the key is taken. The result is false
// if a container already existed.
func (a *Counter[K]) Create(key K) *Future[bool] {
	return create(a.client, a.repo, key, common.KindCounter)
}

// Delete removes the container under key. The result is false if none existed.
func (a *Counter[K]) Delete(key K) *Future[bool] {
	return remove(a.client, a.repo, key)
}

// --------------------------------------------------------------------------
// Map
// --------------------------------------------------------------------------

// Map addresses the maps stored under keys of type K. MK and V are the
// entry types; they must match the server side map container.
type Map[K any, MK any, V any] struct {
	client *Client
	repo   int32
}

// NewMap creates a map accessor. K must be registered in the key registry
// and MK and V in the codec registry of the client.
func NewMap[K any, MK any, V any](c *Client) (*Map[K, MK, V], error) {
	repo, err := repositoryOf[K](c)
	if err != nil {
		return nil, err
	}
	return &Map[K, MK, V]{client: c, repo: repo}, nil
}

// Get reads one entry. Found is false if either the map or the entry is
// missing.
func (a *Map[K, MK, V]) Get(key K, mapKey MK) *Future[Lookup[V]] {
	p := a.client.request(common.ClientShow, a.repo, key, func(buf *codec.Buffer) error {
		return a.client.codecs.TryEncode(buf, mapKey)
	})
	return newFuture(p, a.client.config.RequestTimeout(), func(r Reply) (Lookup[V], error) {
		if !r.Found {
			return Lookup[V]{}, nil
		}
		v, err := codec.Decode[V](a.client.codecs, codec.NewReader(r.Payload))
		if err != nil {
			return Lookup[V]{}, err
		}
		return Lookup[V]{Value: v, Found: true}, nil
	})
}

// Put sets one entry
func (a *Map[K, MK, V]) Put(key K, mapKey MK, value V) *Future[Void] {
	p := a.client.request(common.ClientUpdate, a.repo, key, func(buf *codec.Buffer) error {
		buf.PutInt8(int8(common.MapSet))
		if err := a.client.codecs.TryEncode(buf, mapKey); err != nil {
			return err
		}
		return a.client.codecs.TryEncode(buf, value)
	})
	return newFuture(p, a.client.config.RequestTimeout(), decodeVoid)
}

// Remove deletes one entry. Removing an absent entry succeeds.
func (a *Map[K, MK, V]) Remove(key K, mapKey MK) *Future[Void] {
	p := a.client.request(common.ClientUpdate, a.repo, key, func(buf *codec.Buffer) error {
		buf.PutInt8(int8(common.MapRemove))
		return a.client.codecs.TryEncode(buf, mapKey)
	})
	return newFuture(p, a.client.config.RequestTimeout(), decodeVoid)
}

func (a *Map[K, MK, V]) Create(key K) *Future[bool] {
	return create(a.client, a.repo, key, common.KindMap)
}

func (a *Map[K, MK, V]) Delete(key K) *Future[bool] {
	return remove(a.client, a.repo, key)
}

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YvanMazy/Memorized/rpc/transport"
)

var (
	// ErrConnectionLost resolves requests written to a connection that closed
	// before their reply arrived
	ErrConnectionLost = errors.New("connection lost before reply")
	// ErrUnexpectedReply is returned when a reply arrives with no request
	// waiting for it
	ErrUnexpectedReply = errors.New("reply without pending request")
)

// Reply is the answer to one request. Found is false for NOT_FOUND, in which
// case Payload is empty.
type Reply struct {
	Payload []byte
	Found   bool
}

// --------------------------------------------------------------------------
// Pending
// --------------------------------------------------------------------------

// Pending is one queued request. It is resolved exactly once.
type Pending struct {
	body   []byte
	sent   bool
	sentAt time.Time
	done   chan struct{}
	reply  Reply
	err    error
}

func newPending(body []byte) *Pending {
	return &Pending{body: body, done: make(chan struct{})}
}

// failedPending returns a request resolved with err without being queued
func failedPending(err error) *Pending {
	p := newPending(nil)
	p.resolve(Reply{}, err)
	return p
}

func (p *Pending) resolve(reply Reply, err error) {
	p.reply, p.err = reply, err
	close(p.done)
}

// Done is closed once the request is resolved
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the request is resolved or ctx ends. A cancelled wait
// abandons the result; the request keeps its place in the queue so later
// replies still match their requests.
func (p *Pending) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// --------------------------------------------------------------------------
// TransactionQueue
// --------------------------------------------------------------------------

// TransactionQueue correlates replies with requests by order alone: the
// server answers every request exactly once and in order, so the head of
// the queue always owns the next reply.
//
// The queue holds a prefix of sent entries followed by parked entries that
// wait for the connection to become ready. The lock is held across append
// and send, so the send order equals the queue order.
type TransactionQueue struct {
	mu      sync.Mutex
	entries []*Pending
	sender  transport.Session
	closed  error
}

func NewTransactionQueue() *TransactionQueue {
	return &TransactionQueue{}
}

// Queue appends a request. It is sent immediately when the queue is ready
// and parked otherwise.
func (q *TransactionQueue) Queue(body []byte) *Pending {
	p := newPending(body)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed != nil {
		p.resolve(Reply{}, q.closed)
		return p
	}
	q.entries = append(q.entries, p)
	if q.sender != nil {
		q.send(p)
	}
	return p
}

// send writes p. Must be called with the lock held.
func (q *TransactionQueue) send(p *Pending) bool {
	err := q.sender.Send(p.body)
	if errors.Is(err, transport.ErrSessionClosed) {
		// nothing was written, p stays parked for the next connection
		q.sender = nil
		return false
	}
	p.sent = true
	p.sentAt = time.Now()
	if err != nil {
		// a partial write leaves the stream unusable
		Logger.Warningf("failed to send request: %v", err)
		q.sender.Close()
		q.sender = nil
		return false
	}
	return true
}

// Complete resolves the head with a reply and returns it
func (q *TransactionQueue) Complete(payload []byte, found bool) (*Pending, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, err := q.pop()
	if err != nil {
		return nil, err
	}
	owned := make([]byte, len(payload))
	copy(owned, payload)
	p.resolve(Reply{Payload: owned, Found: found}, nil)
	return p, nil
}

// Fail resolves the head with err and returns it
func (q *TransactionQueue) Fail(err error) (*Pending, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p, popErr := q.pop()
	if popErr != nil {
		return nil, popErr
	}
	p.resolve(Reply{}, err)
	return p, nil
}

func (q *TransactionQueue) pop() (*Pending, error) {
	if len(q.entries) == 0 || !q.entries[0].sent {
		return nil, ErrUnexpectedReply
	}
	p := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return p, nil
}

// Ready makes sender the connection of the queue and flushes the parked
// requests in order
func (q *TransactionQueue) Ready(sender transport.Session) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed != nil {
		return
	}
	q.sender = sender
	for _, p := range q.entries {
		if p.sent {
			continue
		}
		if !q.send(p) {
			return
		}
	}
}

// Lost detaches the connection. Requests already written to it can never be
// answered and are resolved with ErrConnectionLost; parked requests stay
// queued. Returns the number of requests lost.
func (q *TransactionQueue) Lost(cause error) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sender = nil
	lost := 0
	for lost < len(q.entries) && q.entries[lost].sent {
		q.entries[lost].resolve(Reply{}, fmt.Errorf("%w: %v", ErrConnectionLost, cause))
		q.entries[lost] = nil
		lost++
	}
	q.entries = q.entries[lost:]
	return lost
}

// Close resolves every request with err. Requests queued afterwards fail
// with err immediately.
func (q *TransactionQueue) Close(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed != nil {
		return
	}
	q.closed = err
	q.sender = nil
	for _, p := range q.entries {
		p.resolve(Reply{}, err)
	}
	q.entries = nil
}

// Size returns the number of unresolved requests
func (q *TransactionQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Parked returns the number of requests waiting for a ready connection
func (q *TransactionQueue) Parked() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	parked := 0
	for _, p := range q.entries {
		if !p.sent {
			parked++
		}
	}
	return parked
}

//go:build linux

package base

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

const (
	maxEvents = 128
)

// Poller is an epoll instance plus an eventfd that can interrupt a blocked Wait
type Poller struct {
	fd     int
	wakeFd int
	events []unix.EpollEvent
}

// NewPoller opens an epoll instance and registers its wake eventfd
func NewPoller() (*Poller, error) {
	// https://man7.org/linux/man-pages/man2/epoll_create.2.html
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create epoll instance: %w", err)
	}

	// https://man7.org/linux/man-pages/man2/eventfd.2.html
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to create eventfd: %w", err)
	}

	event := &unix.EpollEvent{Fd: int32(wakeFd), Events: unix.EPOLLIN}
	if err := unix.EpollCtl(fd, unix.EPOLL_CTL_ADD, wakeFd, event); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to register eventfd: %w", err)
	}

	return &Poller{fd: fd, wakeFd: wakeFd, events: make([]unix.EpollEvent, maxEvents)}, nil
}

// Add registers fd for read interest
func (p *Poller) Add(fd int) error {
	event := &unix.EpollEvent{Fd: int32(fd), Events: unix.EPOLLIN | unix.EPOLLRDHUP}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, event)
}

// Remove unregisters fd
func (p *Poller) Remove(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{})
}

// Wake interrupts a concurrent or the next Wait. Safe from any goroutine.
func (p *Poller) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakeFd, buf[:])
	if err == unix.EAGAIN {
		// counter saturated, a wake is already pending
		return nil
	}
	return err
}

// Wait blocks until at least one fd is ready or Wake is called and invokes
// handle for every ready fd. It returns woken=true when the wake eventfd fired.
func (p *Poller) Wait(handle func(fd int, events uint32)) (woken bool, err error) {
	n, err := unix.EpollWait(p.fd, p.events, -1)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}

	for i := 0; i < n; i++ {
		ev := p.events[i]
		if int(ev.Fd) == p.wakeFd {
			var buf [8]byte
			_, _ = unix.Read(p.wakeFd, buf[:])
			woken = true
			continue
		}
		handle(int(ev.Fd), ev.Events)
	}
	return woken, nil
}

func (p *Poller) Close() error {
	return multierr.Append(unix.Close(p.wakeFd), unix.Close(p.fd))
}

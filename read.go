package proxyv2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// ReadHeader performs a single Read of up to MaxHeaderLen bytes from r.
// A header must arrive in one piece; nothing is read after the first
// successful Read.
func ReadHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, MaxHeaderLen)
	n, err := r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:0], nil
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// AcceptOne waits for a single connection on l and returns the data from
// one read. The connection is closed before returning.
//
// If timeout is non-zero it bounds both the accept and the read. If ctx is
// done before Accept returns, l is closed to unblock it and ctx.Err() is
// returned; otherwise l is left open.
func AcceptOne(ctx context.Context, l net.Listener, timeout time.Duration) ([]byte, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		if d, ok := l.(deadliner); ok {
			if err := d.SetDeadline(deadline); err != nil {
				return nil, fmt.Errorf("set accept deadline: %w", err)
			}
		}
	}

	stop := context.AfterFunc(ctx, func() { l.Close() })
	c, err := l.Accept()
	if !stop() {
		// ctx won the race and l is closed
		if c != nil {
			c.Close()
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("accept: %w", err)
	}
	defer c.Close()

	if !deadline.IsZero() {
		if err := c.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	buf, err := ReadHeader(c)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return buf, nil
}

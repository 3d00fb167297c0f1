package fawkes

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"time"
)

// conn drives the request/response loop for one accepted socket. It is owned
// by exactly one executor for its entire lifetime; nothing in it is shared.
type conn struct {
	svr *Server
	rwc net.Conn
	br  *bufio.Reader
	bw  *bufio.Writer

	// active is set while a request is in flight, so Stop knows whether the
	// connection can be closed right away or must finish its response first.
	active atomic.Bool
}

func newConn(svr *Server, rwc net.Conn) *conn {
	return &conn{
		svr: svr,
		rwc: rwc,
		br:  bufio.NewReader(rwc),
		bw:  bufio.NewWriter(rwc),
	}
}

// serve loops over requests until the peer or an error or a timeout or a
// server stop ends the session: idle wait → read header → (100-continue) →
// read body → dispatch → write → next.
func (c *conn) serve() {
	remote := c.rwc.RemoteAddr()
	defer func() {
		c.rwc.Close()
		c.svr.untrackConn(c)
	}()

	effectiveRead := c.svr.opts.effectiveReadTimeout()

	for {
		if idle := c.svr.opts.IdleTimeout; idle > 0 {
			c.rwc.SetReadDeadline(time.Now().Add(idle))
		} else {
			c.rwc.SetReadDeadline(time.Time{})
		}

		// Block until the next request shows up.
		if _, err := c.br.Peek(1); err != nil {
			logSessionError(remote, err)
			return
		}
		c.active.Store(true)

		if effectiveRead > 0 {
			c.rwc.SetReadDeadline(time.Now().Add(effectiveRead))
		} else {
			c.rwc.SetReadDeadline(time.Time{})
		}

		keepAlive, err := c.serveRequest(remote, time.Now())
		if err != nil {
			logSessionError(remote, err)
			return
		}

		c.active.Store(false)
		if !keepAlive || c.svr.stopRequested() {
			break
		}
	}

	if tc, ok := c.rwc.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
}

// serveRequest reads, dispatches and answers a single request. t0 marks the
// start of header reading, from which the serve deadline is measured.
func (c *conn) serveRequest(remote net.Addr, t0 time.Time) (bool, error) {
	hdr, err := readRequestHeader(c.br)
	if err != nil {
		if errors.Is(err, errBadRequest) {
			slog.Error("Malformed request, closing session", "remote", remote, "error", err)
			c.writeBadRequest()
			return false, nil
		}
		return false, err
	}

	if hdr.expectsContinue() {
		if err := writeContinue(c.bw, hdr.proto); err != nil {
			return false, err
		}
	}

	body, err := readBody(c.br, hdr)
	if err != nil {
		return false, err
	}

	// The serve timeout covers read + dispatch + write, so only its
	// remainder applies from here on.
	ctx := context.Background()
	var deadline time.Time
	if st := c.svr.opts.ServeTimeout; st > 0 {
		deadline = t0.Add(st)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	var resp *Response
	req, reqErr := newRequest(hdr, body)
	if reqErr != nil {
		resp = NewResponse(hdr.proto, hdr.keepAlive)
		var httpErr *HTTPError
		if errors.As(reqErr, &httpErr) {
			resp.setErrorBody(httpErr.Status, httpErr.Message, nil)
		} else {
			resp.setErrorBody(http.StatusBadRequest, reqErr.Error(), nil)
		}
	} else {
		resp, err = c.dispatch(ctx, req, deadline)
		if err != nil {
			return false, err
		}
	}

	if !deadline.IsZero() {
		c.rwc.SetWriteDeadline(deadline)
	} else {
		c.rwc.SetWriteDeadline(time.Time{})
	}

	resp.preparePayload()
	if err := resp.writeTo(c.bw); err != nil {
		return false, err
	}
	if err := c.bw.Flush(); err != nil {
		return false, err
	}

	return resp.KeepAlive(), nil
}

// dispatch runs the router pipeline, guarded by the serve deadline when one
// is armed. On expiry the session is torn down without a response.
func (c *conn) dispatch(ctx context.Context, req *Request, deadline time.Time) (*Response, error) {
	if deadline.IsZero() {
		return c.svr.router.dispatch(ctx, req), nil
	}

	done := make(chan *Response, 1)
	go func() {
		done <- c.svr.router.dispatch(ctx, req)
	}()

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("session serve timeout: %w", ctx.Err())
	}
}

// writeBadRequest answers a framing error. The connection closes afterwards
// regardless of what the request asked for.
func (c *conn) writeBadRequest() {
	resp := NewResponse(protoHTTP11, false)
	resp.setErrorBody(http.StatusBadRequest, "malformed request", nil)
	resp.preparePayload()
	if err := resp.writeTo(c.bw); err == nil {
		c.bw.Flush()
	}
}

// logSessionError classifies a session-ending error: a client-initiated
// close is routine, a timeout or anything else is not.
func logSessionError(remote net.Addr, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		slog.Debug("Remote session closed", "remote", remote, "cause", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		slog.Error("Remote session timed out", "remote", remote)
	default:
		slog.Error("Unhandled error for session", "remote", remote, "error", err)
	}
}

package fawkes

import (
	"context"
	"fmt"
)

// Result tells the middleware chain whether to keep going.
type Result uint8

const (
	// Abort stops the remaining middlewares of the running phase; the
	// response is sent as the aborting middleware left it.
	Abort Result = iota
	// Proceed continues with the next middleware.
	Proceed
)

// PreHandler is the pre-handle phase of a middleware. It runs before the
// user handler, in registration order.
type PreHandler interface {
	PreHandle(ctx context.Context, req *Request, resp *Response) Result
}

// PostHandler is the post-handle phase of a middleware. It runs after the
// user handler, in reverse registration order.
type PostHandler interface {
	PostHandle(ctx context.Context, req *Request, resp *Response) Result
}

// Middleware is any value implementing PreHandler, PostHandler or both.
// Implementations must not retain req or resp beyond the call.
type Middleware any

// middlewareChain is a type-erased ordered middleware set. Once built it is
// never mutated; chains are shared read-only across connections.
type middlewareChain struct {
	mws []Middleware
}

// newMiddlewareChain validates and stores mws. A middleware implementing
// neither phase is a registration bug and panics, as invalid routes do.
func newMiddlewareChain(mws []Middleware) middlewareChain {
	for _, mw := range mws {
		_, pre := mw.(PreHandler)
		_, post := mw.(PostHandler)
		if !pre && !post {
			panic(fmt.Sprintf("middleware %T implements neither PreHandler nor PostHandler", mw))
		}
	}
	return middlewareChain{mws: mws}
}

// preHandle runs the pre-handle phase in registration order. Middlewares
// without a pre-handle count as Proceed.
func (c middlewareChain) preHandle(ctx context.Context, req *Request, resp *Response) Result {
	for _, mw := range c.mws {
		pre, ok := mw.(PreHandler)
		if !ok {
			continue
		}
		if pre.PreHandle(ctx, req, resp) == Abort {
			return Abort
		}
	}
	return Proceed
}

// postHandle runs the post-handle phase in reverse registration order.
func (c middlewareChain) postHandle(ctx context.Context, req *Request, resp *Response) Result {
	for i := len(c.mws) - 1; i >= 0; i-- {
		post, ok := c.mws[i].(PostHandler)
		if !ok {
			continue
		}
		if post.PostHandle(ctx, req, resp) == Abort {
			return Abort
		}
	}
	return Proceed
}

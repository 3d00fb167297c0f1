package fawkes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Handler is a user route handler. It reads the request, including captured
// path parameters, and mutates the response. Returning an *HTTPError
// produces a JSON error body with the carried status; returning any other
// error produces a 500 JSON body. Either way router-wide post-handle
// middleware still runs.
type Handler func(ctx context.Context, req *Request, resp *Response) error

var routeMethods = [...]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
}

func methodIndexOf(method string) int {
	switch method {
	case http.MethodGet:
		return 0
	case http.MethodPost:
		return 1
	case http.MethodPut:
		return 2
	case http.MethodPatch:
		return 3
	case http.MethodDelete:
		return 4
	case http.MethodHead:
		return 5
	}
	return -1
}

// Router maps (method, pattern) pairs to handlers, one tree per method, and
// owns the router-wide middleware chain. Routes must be registered before
// the server starts serving; afterwards the router is shared read-only
// across all connections.
type Router struct {
	trees [len(routeMethods)]*node
	base  middlewareChain
}

func NewRouter() *Router {
	return &Router{}
}

// Use appends router-wide middlewares, applied to all routes.
func (r *Router) Use(mws ...Middleware) {
	chain := newMiddlewareChain(mws)
	r.base.mws = append(r.base.mws, chain.mws...)
}

// Handle registers handler for the method and path pattern, wrapped in the
// given per-route middlewares. Panics on an unsupported method, a malformed
// pattern, or a conflict with an already registered route.
func (r *Router) Handle(method, path string, handler Handler, mws ...Middleware) {
	switch {
	case methodIndexOf(method) == -1:
		panic("unsupported method '" + method + "'")
	case handler == nil:
		panic("handler must not be nil")
	case len(path) == 0 || path[0] != '/':
		panic("path must begin with '/' in path '" + path + "'")
	}

	entry := &routeEntry{
		chain:   newMiddlewareChain(mws),
		handler: handler,
	}

	idx := methodIndexOf(method)
	if r.trees[idx] == nil {
		r.trees[idx] = &node{}
	}
	if err := r.trees[idx].addRoute(path, entry.serve); err != nil {
		panic(err)
	}
}

// locateRoute finds the handler registered for method and path, capturing
// path parameters into ps. path must outlive ps.
func (r *Router) locateRoute(method, path string, ps *Params) routeHandler {
	idx := methodIndexOf(method)
	if idx == -1 {
		return nil
	}
	tree := r.trees[idx]
	if tree == nil {
		return nil
	}
	return tree.locate(path, ps)
}

// dispatch resolves and runs the full pipeline for one request:
//
//	router.pre → route.pre → user handler → route.post → router.post
//
// A router-wide pre-handle abort returns the response as-is. A missing route
// yields a 404 JSON body but still runs router-wide post-handle. A per-route
// abort skips router-wide post-handle: the abort marks an intentional early
// response.
func (r *Router) dispatch(ctx context.Context, req *Request) (resp *Response) {
	resp = NewResponse(req.Proto, req.KeepAlive())

	defer func() {
		if v := recover(); v != nil {
			resp = NewResponse(req.Proto, req.KeepAlive())
			resp.setErrorBody(http.StatusInternalServerError, fmt.Sprint(v), nil)
		}
	}()

	// Locating the route completes path params for the request, which may be
	// used in a middleware.
	handler := r.locateRoute(req.Method, req.Path(), &req.params)

	if r.base.preHandle(ctx, req, resp) == Abort {
		return resp
	}

	// Route not found is not an unexpected error and thus does not abort
	// router-wide middlewares.
	if handler == nil {
		resp.setErrorBody(http.StatusNotFound, "Unknown resource", nil)
		r.base.postHandle(ctx, req, resp)
		return resp
	}

	if handler(ctx, req, resp) == Abort {
		return resp
	}

	r.base.postHandle(ctx, req, resp)
	return resp
}

// routeEntry binds a user handler to its per-route middleware chain.
type routeEntry struct {
	chain   middlewareChain
	handler Handler
}

// serve runs route.pre → handler → route.post. A handler failure does not
// skip route.post or router.post; a middleware abort does.
func (e *routeEntry) serve(ctx context.Context, req *Request, resp *Response) Result {
	if e.chain.preHandle(ctx, req, resp) == Abort {
		return Abort
	}

	e.invokeHandler(ctx, req, resp)

	return e.chain.postHandle(ctx, req, resp)
}

// invokeHandler is the failure boundary around the user handler: an
// *HTTPError turns into a JSON body with the carried status, anything else,
// including a panic, turns into a 500 JSON body.
func (e *routeEntry) invokeHandler(ctx context.Context, req *Request, resp *Response) {
	defer func() {
		if v := recover(); v != nil {
			resp.setErrorBody(http.StatusInternalServerError, fmt.Sprint(v), nil)
		}
	}()

	err := e.handler(ctx, req, resp)
	if err == nil {
		return
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		var code *int
		if c, ok := httpErr.ErrorCode(); ok {
			code = &c
		}
		resp.setErrorBody(httpErr.Status, httpErr.Message, code)
		return
	}

	resp.setErrorBody(http.StatusInternalServerError, err.Error(), nil)
}

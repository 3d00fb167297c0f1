package fawkes

import "strings"

// Group scopes route registration under a shared path prefix.
type Group struct {
	prefix string
	svr    *Server
}

// Group creates a registration group rooted at prefix.
func (s *Server) Group(prefix string) *Group {
	if !strings.HasPrefix(prefix, "/") {
		panic(`group prefix must begin with "/"`)
	}
	return &Group{prefix: prefix, svr: s}
}

// Group creates a nested group rooted at this group's prefix plus prefix.
func (g *Group) Group(prefix string) *Group {
	if !strings.HasPrefix(prefix, "/") {
		panic(`group prefix must begin with "/"`)
	}
	return &Group{prefix: g.prefix + prefix, svr: g.svr}
}

func (g *Group) Handle(method, path string, handler Handler, mws ...Middleware) {
	g.svr.Handle(method, g.prefix+path, handler, mws...)
}

func (g *Group) GET(path string, handler Handler, mws ...Middleware) {
	g.svr.GET(g.prefix+path, handler, mws...)
}

func (g *Group) POST(path string, handler Handler, mws ...Middleware) {
	g.svr.POST(g.prefix+path, handler, mws...)
}

func (g *Group) PUT(path string, handler Handler, mws ...Middleware) {
	g.svr.PUT(g.prefix+path, handler, mws...)
}

func (g *Group) PATCH(path string, handler Handler, mws ...Middleware) {
	g.svr.PATCH(g.prefix+path, handler, mws...)
}

func (g *Group) DELETE(path string, handler Handler, mws ...Middleware) {
	g.svr.DELETE(g.prefix+path, handler, mws...)
}

func (g *Group) HEAD(path string, handler Handler, mws ...Middleware) {
	g.svr.HEAD(g.prefix+path, handler, mws...)
}

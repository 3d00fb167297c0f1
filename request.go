package fawkes

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Request is a fully-buffered, parsed HTTP request. Captured path parameter
// values are substrings of the request's decoded path and stay valid for the
// lifetime of the Request.
type Request struct {
	Proto  string // "HTTP/1.1" or "HTTP/1.0"
	Method string
	Header http.Header
	Body   []byte

	target    string
	path      string
	query     url.Values
	params    Params
	keepAlive bool
}

// newRequest builds a Request from the parsed wire pieces. The target is
// split at `?`; the path part is percent-decoded and a decode failure is a
// 400. A malformed query string is discarded and the request continues.
func newRequest(hdr *requestHeader, body []byte) (*Request, error) {
	rawPath, rawQuery, hasQuery := strings.Cut(hdr.target, "?")
	if rawPath == "" || rawPath[0] != '/' {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid url path")
	}

	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid url path")
	}

	target := hdr.target
	query := url.Values{}
	if hasQuery {
		query, err = url.ParseQuery(rawQuery)
		if err != nil {
			// Discard the whole query string if it is malformed.
			slog.Error("Malformed query string discarded", "target", hdr.target)
			query = url.Values{}
			target = rawPath
		}
	}

	return &Request{
		Proto:     hdr.proto,
		Method:    hdr.method,
		Header:    hdr.header,
		Body:      body,
		target:    target,
		path:      path,
		query:     query,
		keepAlive: hdr.keepAlive,
	}, nil
}

// Target returns the request target, minus the query string if that was
// discarded as malformed.
func (r *Request) Target() string {
	return r.target
}

// Path returns the percent-decoded path part of the target.
func (r *Request) Path() string {
	return r.path
}

// Params returns the path parameters captured by route lookup.
func (r *Request) Params() *Params {
	return &r.params
}

// Query returns the parsed query string. The returned view reads and writes
// the request's own storage.
func (r *Request) Query() QueryParams {
	return QueryParams{values: r.query}
}

// Cookies parses the Cookie header fields into a CookieView. Malformed
// entries are skipped.
func (r *Request) Cookies() CookieView {
	return parseCookieHeader(r.Header[cookieHeaderName])
}

// KeepAlive reports whether the connection should be kept open after the
// response. HTTP/1.1 defaults to true unless the request asks to close.
func (r *Request) KeepAlive() bool {
	return r.keepAlive
}

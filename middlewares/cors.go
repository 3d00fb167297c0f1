package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kingsamchen/fawkes"
)

const (
	hdrAllowCredentials    = "Access-Control-Allow-Credentials"
	hdrAllowMethods        = "Access-Control-Allow-Methods"
	hdrAllowHeaders        = "Access-Control-Allow-Headers"
	hdrAllowPrivateNetwork = "Access-Control-Allow-Private-Network"
	hdrAllowOrigin         = "Access-Control-Allow-Origin"
	hdrCacheMaxAge         = "Access-Control-Max-Age"
	hdrExposeHeaders       = "Access-Control-Expose-Headers"
	hdrVary                = "Vary"
)

// OriginPolicy decides whether a cross-origin request is allowed.
type OriginPolicy interface {
	Allow(origin string) bool
}

type originSet map[string]struct{}

func (s originSet) Allow(origin string) bool {
	_, ok := s[origin]
	return ok
}

// AllowOrigins allows exactly the listed origins.
func AllowOrigins(origins ...string) OriginPolicy {
	s := make(originSet, len(origins))
	for _, origin := range origins {
		s[origin] = struct{}{}
	}
	return s
}

type originPredicate func(string) bool

func (p originPredicate) Allow(origin string) bool {
	return p(origin)
}

// AllowOriginIf allows origins accepted by the predicate.
func AllowOriginIf(pred func(origin string) bool) OriginPolicy {
	return originPredicate(pred)
}

type allowAllOrigins struct{}

func (allowAllOrigins) Allow(string) bool {
	return true
}

// AllowAllOrigins answers `Access-Control-Allow-Origin: *`. Not compatible
// with AllowCredentials as-per RFC. Don't use this policy on production.
func AllowAllOrigins() OriginPolicy {
	return allowAllOrigins{}
}

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowOriginPolicy   OriginPolicy
	AllowMethods        []string
	AllowHeaders        []string
	ExposeHeaders       []string
	MaxAge              time.Duration
	AllowPrivateNetwork bool
	AllowCredentials    bool

	// OptionsRespStatus is the status answered on a preflight request.
	// Defaults to 204 No Content.
	OptionsRespStatus int
}

// CORS is a pre-handle middleware implementing cross-origin resource
// sharing. Preflight requests are answered directly and abort the chain;
// disallowed origins abort with 403.
type CORS struct {
	preflightHdrs http.Header
	corsHdrs      http.Header
	policy        OriginPolicy
	allowsAll     bool
	optionsStatus int
}

// NewCORS builds the middleware, precomputing the preflight and normal
// response header sets.
func NewCORS(opts CORSOptions) *CORS {
	policy := opts.AllowOriginPolicy
	if policy == nil {
		policy = AllowAllOrigins()
	}
	_, allowsAll := policy.(allowAllOrigins)

	status := opts.OptionsRespStatus
	if status == 0 {
		status = http.StatusNoContent
	}

	return &CORS{
		preflightHdrs: generatePreflightHeaders(opts, allowsAll),
		corsHdrs:      generateCORSHeaders(opts, allowsAll),
		policy:        policy,
		allowsAll:     allowsAll,
		optionsStatus: status,
	}
}

func (m *CORS) PreHandle(_ context.Context, req *fawkes.Request, resp *fawkes.Response) fawkes.Result {
	origin := req.Header.Get("Origin")

	// Not a CORS request.
	if origin == "" || isOriginSameAsHost(origin, req) {
		return fawkes.Proceed
	}

	if !m.policy.Allow(origin) {
		resp.SetStatus(http.StatusForbidden)
		return fawkes.Abort
	}

	if !m.allowsAll {
		resp.Header.Set(hdrAllowOrigin, origin)
	}

	if req.Method == http.MethodOptions {
		applyHeaders(m.preflightHdrs, resp.Header)
		resp.SetStatus(m.optionsStatus)
		return fawkes.Abort
	}

	applyHeaders(m.corsHdrs, resp.Header)

	return fawkes.Proceed
}

func isOriginSameAsHost(origin string, req *fawkes.Request) bool {
	// As-per RFC, origin consists of schema / host / port.
	origin = strings.TrimPrefix(origin, "http://")
	origin = strings.TrimPrefix(origin, "https://")

	// The Host field in the request header also carries the port part.
	host := req.Header.Get("Host")

	// Maybe a malformed http/1.1 request.
	// Treat as same as request host to take the normal flow.
	if host == "" {
		slog.Warn("Suspicious request carries no Host field",
			"method", req.Method, "target", req.Target())
		return true
	}

	return origin == host
}

func generatePreflightHeaders(opts CORSOptions, allowsAll bool) http.Header {
	hdrs := http.Header{}

	if opts.AllowCredentials {
		hdrs.Set(hdrAllowCredentials, "true")
	}

	if len(opts.AllowMethods) > 0 {
		hdrs.Set(hdrAllowMethods, strings.Join(opts.AllowMethods, ", "))
	}

	if len(opts.AllowHeaders) > 0 {
		hdrs.Set(hdrAllowHeaders, strings.Join(opts.AllowHeaders, ", "))
	}

	if opts.AllowPrivateNetwork {
		hdrs.Set(hdrAllowPrivateNetwork, "true")
	}

	if opts.MaxAge > 0 {
		hdrs.Set(hdrCacheMaxAge, strconv.FormatInt(int64(opts.MaxAge/time.Second), 10))
	}

	if allowsAll {
		hdrs.Set(hdrAllowOrigin, "*")
	} else {
		hdrs.Add(hdrVary, "Origin")
		hdrs.Add(hdrVary, "Access-Control-Request-Method")
		hdrs.Add(hdrVary, "Access-Control-Request-Headers")
	}

	return hdrs
}

func generateCORSHeaders(opts CORSOptions, allowsAll bool) http.Header {
	hdrs := http.Header{}

	if opts.AllowCredentials {
		hdrs.Set(hdrAllowCredentials, "true")
	}

	if len(opts.ExposeHeaders) > 0 {
		hdrs.Set(hdrExposeHeaders, strings.Join(opts.ExposeHeaders, ", "))
	}

	if allowsAll {
		hdrs.Set(hdrAllowOrigin, "*")
	} else {
		hdrs.Add(hdrVary, "Origin")
	}

	return hdrs
}

func applyHeaders(src, dst http.Header) {
	for name := range src {
		dst.Del(name)
	}
	for name, values := range src {
		for _, value := range values {
			dst.Add(name, value)
		}
	}
}

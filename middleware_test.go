package fawkes

import (
	"context"
	"slices"
	"testing"
)

type countPre struct {
	cnt *int
}

func (m countPre) PreHandle(context.Context, *Request, *Response) Result {
	*m.cnt++
	return Proceed
}

type countPost struct {
	cnt *int
}

func (m countPost) PostHandle(context.Context, *Request, *Response) Result {
	*m.cnt++
	return Proceed
}

type countBoth struct {
	preCnt  *int
	postCnt *int
}

func (m countBoth) PreHandle(context.Context, *Request, *Response) Result {
	*m.preCnt++
	return Proceed
}

func (m countBoth) PostHandle(context.Context, *Request, *Response) Result {
	*m.postCnt++
	return Proceed
}

type abortPre struct{}

func (abortPre) PreHandle(context.Context, *Request, *Response) Result {
	return Abort
}

type abortPost struct{}

func (abortPost) PostHandle(context.Context, *Request, *Response) Result {
	return Abort
}

type appendPre struct {
	str string
}

func (m appendPre) PreHandle(_ context.Context, _ *Request, resp *Response) Result {
	resp.Body = append(resp.Body, m.str...)
	return Proceed
}

// logBoth records the phase calls it observes into a shared log.
type logBoth struct {
	name string
	log  *[]string
}

func (m logBoth) PreHandle(context.Context, *Request, *Response) Result {
	*m.log = append(*m.log, "pre:"+m.name)
	return Proceed
}

func (m logBoth) PostHandle(context.Context, *Request, *Response) Result {
	*m.log = append(*m.log, "post:"+m.name)
	return Proceed
}

func chainFixture() (context.Context, *Request, *Response) {
	return context.Background(), &Request{}, NewResponse(protoHTTP11, true)
}

func TestChainWithBothPreAndPostHandle(t *testing.T) {
	preCnt, postCnt := 0, 0
	mc := newMiddlewareChain([]Middleware{
		countPre{&preCnt},
		countPost{&postCnt},
		countBoth{preCnt: &preCnt, postCnt: &postCnt},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("preHandle = %v, want Proceed", ret)
	}
	if preCnt != 2 || postCnt != 0 {
		t.Errorf("after pre: preCnt=%d postCnt=%d, want 2, 0", preCnt, postCnt)
	}

	if ret := mc.postHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("postHandle = %v, want Proceed", ret)
	}
	if preCnt != 2 || postCnt != 2 {
		t.Errorf("after post: preCnt=%d postCnt=%d, want 2, 2", preCnt, postCnt)
	}
}

func TestChainWithOnlyPreHandle(t *testing.T) {
	preCnt := 0
	mc := newMiddlewareChain([]Middleware{
		countPre{&preCnt},
		countPre{&preCnt},
		countPre{&preCnt},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("preHandle = %v, want Proceed", ret)
	}
	if preCnt != 3 {
		t.Errorf("preCnt = %d, want 3", preCnt)
	}

	if ret := mc.postHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("postHandle = %v, want Proceed", ret)
	}
	if preCnt != 3 {
		t.Errorf("preCnt = %d after post, want 3", preCnt)
	}
}

func TestChainWithOnlyPostHandle(t *testing.T) {
	postCnt := 0
	mc := newMiddlewareChain([]Middleware{
		countPost{&postCnt},
		countPost{&postCnt},
		countPost{&postCnt},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("preHandle = %v, want Proceed", ret)
	}
	if postCnt != 0 {
		t.Errorf("postCnt = %d after pre, want 0", postCnt)
	}

	if ret := mc.postHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("postHandle = %v, want Proceed", ret)
	}
	if postCnt != 3 {
		t.Errorf("postCnt = %d, want 3", postCnt)
	}
}

func TestChainMissingPreHandleInTheMiddle(t *testing.T) {
	preCnt, postCnt := 0, 0
	mc := newMiddlewareChain([]Middleware{
		countPre{&preCnt},
		countPost{&postCnt},
		countPre{&preCnt},
	})

	ctx, req, resp := chainFixture()
	mc.preHandle(ctx, req, resp)
	if preCnt != 2 || postCnt != 0 {
		t.Errorf("after pre: preCnt=%d postCnt=%d, want 2, 0", preCnt, postCnt)
	}

	mc.postHandle(ctx, req, resp)
	if preCnt != 2 || postCnt != 1 {
		t.Errorf("after post: preCnt=%d postCnt=%d, want 2, 1", preCnt, postCnt)
	}
}

func TestChainMissingPostHandleInTheMiddle(t *testing.T) {
	preCnt, postCnt := 0, 0
	mc := newMiddlewareChain([]Middleware{
		countPost{&postCnt},
		countPre{&preCnt},
		countPost{&postCnt},
	})

	ctx, req, resp := chainFixture()
	mc.preHandle(ctx, req, resp)
	if preCnt != 1 || postCnt != 0 {
		t.Errorf("after pre: preCnt=%d postCnt=%d, want 1, 0", preCnt, postCnt)
	}

	mc.postHandle(ctx, req, resp)
	if preCnt != 1 || postCnt != 2 {
		t.Errorf("after post: preCnt=%d postCnt=%d, want 1, 2", preCnt, postCnt)
	}
}

func TestChainAbortFromPreHandle(t *testing.T) {
	preCnt := 0
	mc := newMiddlewareChain([]Middleware{
		countPre{&preCnt},
		abortPre{},
		countPre{&preCnt},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Abort {
		t.Fatalf("preHandle = %v, want Abort", ret)
	}
	if preCnt != 1 {
		t.Errorf("preCnt = %d, want 1", preCnt)
	}
}

func TestChainAbortFromPostHandle(t *testing.T) {
	postCnt := 0
	mc := newMiddlewareChain([]Middleware{
		countPost{&postCnt},
		abortPost{},
		countPost{&postCnt},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.postHandle(ctx, req, resp); ret != Abort {
		t.Fatalf("postHandle = %v, want Abort", ret)
	}
	if postCnt != 1 {
		t.Errorf("postCnt = %d, want 1", postCnt)
	}
}

func TestEmptyChainIsNoOp(t *testing.T) {
	mc := newMiddlewareChain(nil)

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Errorf("preHandle = %v, want Proceed", ret)
	}
	if ret := mc.postHandle(ctx, req, resp); ret != Proceed {
		t.Errorf("postHandle = %v, want Proceed", ret)
	}
	if resp.Status() != 200 || len(resp.Body) != 0 || len(resp.Header) != 0 {
		t.Errorf("empty chain mutated the response: %+v", resp)
	}
}

func TestChainRunsInRegistrationOrder(t *testing.T) {
	mc := newMiddlewareChain([]Middleware{
		appendPre{"A"},
		appendPre{"B"},
		appendPre{"C"},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("preHandle = %v, want Proceed", ret)
	}
	if string(resp.Body) != "ABC" {
		t.Errorf("body = %q, want %q", resp.Body, "ABC")
	}
}

func TestChainPostHandleRunsInReverse(t *testing.T) {
	var log []string
	mc := newMiddlewareChain([]Middleware{
		logBoth{"m1", &log},
		logBoth{"m2", &log},
		logBoth{"m3", &log},
	})

	ctx, req, resp := chainFixture()
	mc.preHandle(ctx, req, resp)
	mc.postHandle(ctx, req, resp)

	want := []string{"pre:m1", "pre:m2", "pre:m3", "post:m3", "post:m2", "post:m1"}
	if !slices.Equal(log, want) {
		t.Errorf("call log = %v, want %v", log, want)
	}
}

func TestChainMixedMiddlewares(t *testing.T) {
	preCnt := 0
	mc := newMiddlewareChain([]Middleware{
		countPre{&preCnt},
		appendPre{"X"},
		countPre{&preCnt},
		appendPre{"Y"},
	})

	ctx, req, resp := chainFixture()
	if ret := mc.preHandle(ctx, req, resp); ret != Proceed {
		t.Fatalf("preHandle = %v, want Proceed", ret)
	}
	if preCnt != 2 {
		t.Errorf("preCnt = %d, want 2", preCnt)
	}
	if string(resp.Body) != "XY" {
		t.Errorf("body = %q, want %q", resp.Body, "XY")
	}
}

func TestChainRejectsNonMiddleware(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("registering a value with neither phase should panic")
		}
	}()
	newMiddlewareChain([]Middleware{struct{}{}})
}

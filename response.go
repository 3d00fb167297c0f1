package fawkes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Content types set by the Text and JSON helpers.
const (
	MIMETextPlain       = "text/plain"
	MIMEApplicationJSON = "application/json"
)

// serverName identifies the framework in the Server response header.
const serverName = "fawkes"

// Response is a mutable HTTP response under construction. NewResponse starts
// it at status 200; Text and JSON set the status, body and Content-Type in one
// call.
type Response struct {
	Proto  string
	Header http.Header
	Body   []byte

	status    int
	keepAlive bool
}

// NewResponse creates an empty 200 response for the given protocol version
// with the keep-alive flag propagated from the request.
func NewResponse(proto string, keepAlive bool) *Response {
	return &Response{
		Proto:     proto,
		Header:    http.Header{},
		status:    http.StatusOK,
		keepAlive: keepAlive,
	}
}

// Status returns the response status code.
func (r *Response) Status() int {
	return r.status
}

// SetStatus sets the response status code.
func (r *Response) SetStatus(status int) {
	r.status = status
}

// KeepAlive reports whether the connection stays open after this response.
func (r *Response) KeepAlive() bool {
	return r.keepAlive
}

// SetKeepAlive overrides the keep-alive flag propagated from the request.
func (r *Response) SetKeepAlive(keepAlive bool) {
	r.keepAlive = keepAlive
}

// Text sets a text/plain response.
func (r *Response) Text(status int, body string) {
	r.status = status
	r.Header.Set("Content-Type", MIMETextPlain)
	r.Body = []byte(body)
}

// JSON sets an application/json response with the marshaled value.
func (r *Response) JSON(status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.status = status
	r.Header.Set("Content-Type", MIMEApplicationJSON)
	r.Body = body
	return nil
}

// SetCookie appends a Set-Cookie header for c. Invalid cookies are dropped.
func (r *Response) SetCookie(c *Cookie) {
	if s := c.String(); s != "" {
		r.Header.Add("Set-Cookie", s)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    *int   `json:"code,omitempty"`
}

// setErrorBody sets the structured JSON error body used for 404s, handler
// failures and user-signalled HTTP errors.
func (r *Response) setErrorBody(status int, message string, code *int) {
	body, err := json.Marshal(errorBody{Error: errorDetail{Message: message, Code: code}})
	if err != nil {
		// Marshaling a string and an int cannot fail.
		panic(err)
	}
	r.status = status
	r.Header.Set("Content-Type", MIMEApplicationJSON)
	r.Body = body
}

// preparePayload finalizes framing headers before the response hits the
// wire: Server identification, Content-Length, Connection: close whenever
// the connection will close, and Connection: keep-alive for a kept-alive
// HTTP/1.0 response.
func (r *Response) preparePayload() {
	if r.Header.Get("Server") == "" {
		r.Header.Set("Server", serverName)
	}
	r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))

	if !r.keepAlive {
		r.Header.Set("Connection", "close")
	} else if r.Proto == protoHTTP10 {
		r.Header.Set("Connection", "keep-alive")
	}
}

// writeTo serializes the response. preparePayload must have run first.
func (r *Response) writeTo(w io.Writer) error {
	reason := http.StatusText(r.status)
	if _, err := fmt.Fprintf(w, "%s %d %s\r\n", r.Proto, r.status, reason); err != nil {
		return err
	}
	if err := r.Header.Write(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	_, err := w.Write(r.Body)
	return err
}

package fawkes

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

const (
	protoHTTP11 = "HTTP/1.1"
	protoHTTP10 = "HTTP/1.0"
)

// errBadRequest marks a framing error in the request line or headers. The
// connection answers 400 and closes.
var errBadRequest = errors.New("malformed request")

// requestHeader is the parsed request line plus header block, before the
// body has been read.
type requestHeader struct {
	method        string
	target        string
	proto         string
	header        http.Header
	contentLength int
	keepAlive     bool
}

// expectsContinue reports whether the client asked for a 100 Continue
// interim response before sending the body.
func (h *requestHeader) expectsContinue() bool {
	return strings.EqualFold(h.header.Get("Expect"), "100-continue")
}

// readRequestHeader parses the request line and the header block. I/O errors
// pass through untouched; anything malformed wraps errBadRequest.
func readRequestHeader(br *bufio.Reader) (*requestHeader, error) {
	tp := textproto.NewReader(br)

	line, err := tp.ReadLine()
	if err != nil {
		return nil, err
	}

	method, rest, ok := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok || !ok2 || method == "" || target == "" {
		return nil, fmt.Errorf("%w: invalid request line %q", errBadRequest, line)
	}
	if proto != protoHTTP11 && proto != protoHTTP10 {
		return nil, fmt.Errorf("%w: unsupported protocol %q", errBadRequest, proto)
	}

	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	header := http.Header(mimeHeader)

	contentLength := 0
	if cl := header.Get("Content-Length"); cl != "" {
		contentLength, err = strconv.Atoi(cl)
		if err != nil || contentLength < 0 {
			return nil, fmt.Errorf("%w: invalid Content-Length %q", errBadRequest, cl)
		}
	}

	return &requestHeader{
		method:        method,
		target:        target,
		proto:         proto,
		header:        header,
		contentLength: contentLength,
		keepAlive:     requestKeepAlive(proto, header),
	}, nil
}

// requestKeepAlive applies the HTTP/1.x defaults: 1.1 keeps the connection
// open unless told to close, 1.0 closes unless told to keep alive.
func requestKeepAlive(proto string, header http.Header) bool {
	if proto == protoHTTP10 {
		return hasConnectionToken(header, "keep-alive")
	}
	return !hasConnectionToken(header, "close")
}

func hasConnectionToken(header http.Header, token string) bool {
	for _, value := range header.Values("Connection") {
		for _, part := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}
	return false
}

// readBody reads the Content-Length delimited body. A nil slice is returned
// for bodyless requests.
func readBody(br *bufio.Reader, hdr *requestHeader) ([]byte, error) {
	if hdr.contentLength == 0 {
		return nil, nil
	}

	body := make([]byte, hdr.contentLength)
	if _, err := io.ReadFull(br, body); err != nil {
		return nil, err
	}
	return body, nil
}

// writeContinue emits the interim 100 Continue response.
func writeContinue(bw *bufio.Writer, proto string) error {
	if _, err := fmt.Fprintf(bw, "%s 100 Continue\r\nServer: %s\r\n\r\n", proto, serverName); err != nil {
		return err
	}
	return bw.Flush()
}

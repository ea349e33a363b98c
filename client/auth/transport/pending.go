package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// PendingRequest is an in-flight call captured so it can be replayed:
// the body is buffered and Retried guards against refresh loops.
type PendingRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Body    []byte
	Retried bool

	// attached is the token set by the pre-send hook, if any.
	attached string
	ctx      context.Context
	origin   *http.Request
}

// NewPendingRequest buffers req's body and closes it.
func NewPendingRequest(req *http.Request) (*PendingRequest, error) {
	ret := &PendingRequest{
		Method:  req.Method,
		Path:    req.URL.Path,
		Header:  req.Header.Clone(),
		Retried: IsRetried(req.Context()),
		ctx:     req.Context(),
		origin:  req,
	}
	if ret.Header == nil {
		ret.Header = http.Header{}
	}
	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		ret.Body = data
	}
	return ret, nil
}

// Context returns the context of the originating request.
func (p *PendingRequest) Context() context.Context {
	return p.ctx
}

// Request builds a fresh *http.Request, leaving the original untouched.
func (p *PendingRequest) Request() *http.Request {
	ctx := p.ctx
	if p.Retried {
		ctx = WithRetried(ctx)
	}
	req := p.origin.Clone(ctx)
	req.Header = p.Header.Clone()
	switch {
	case p.Body != nil:
		body := p.Body
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	case p.origin.Body != nil:
		req.Body = http.NoBody
	}
	return req
}

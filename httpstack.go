package jus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/apptik-go/jus/pkg/cache"
	"github.com/apptik-go/jus/pkg/pool"
)

// NetHTTPStack is the default HttpStack, built on net/http.Client. It owns
// no retry logic of its own — BasicNetwork does that — and classifies
// every transport failure into a TimeoutSignal, NoConnectionSignal or
// MalformedURLSignal so the retry loop can tell them apart.
type NetHTTPStack struct {
	client *http.Client
	pool   *pool.ByteArrayPool
}

// NewNetHTTPStack builds a stack over client. If client is nil, http's
// DefaultClient is used (with no overall timeout; per-attempt timeouts
// come from the context BasicNetwork attaches to each call).
func NewNetHTTPStack(client *http.Client, bufferPool *pool.ByteArrayPool) *NetHTTPStack {
	if client == nil {
		client = http.DefaultClient
	}
	if bufferPool == nil {
		bufferPool = pool.New(pool.DefaultPoolMaxBytes)
	}
	return &NetHTTPStack{client: client, pool: bufferPool}
}

// PerformRequest implements HttpStack.
func (s *NetHTTPStack) PerformRequest(ctx context.Context, r Request, extraHeaders map[string]string) (*NetworkResponse, error) {
	start := timeNow()

	var bodyReader io.Reader
	contentType := ""
	if body := r.Body(); body != nil {
		bodyReader = bytes.NewReader(body.Data)
		contentType = body.ContentType
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method(), r.URL(), bodyReader)
	if err != nil {
		return nil, &MalformedURLSignal{Err: err}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range extraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutSignal{Err: err}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TimeoutSignal{Err: err}
		}
		return nil, &NoConnectionSignal{Err: err}
	}
	defer resp.Body.Close()

	sink := pool.NewOutputStream(s.pool, 1024)
	defer sink.Close()
	buf := s.pool.Get(4096)
	defer s.pool.Return(buf)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, &NoConnectionSignal{Err: readErr}
		}
	}

	headers := cache.NewHeaders()
	for k := range resp.Header {
		headers.Set(k, resp.Header.Get(k))
	}

	return &NetworkResponse{
		StatusCode:  resp.StatusCode,
		Data:        sink.ToByteArray(),
		Headers:     headers,
		NetworkTime: timeNow().Sub(start),
	}, nil
}

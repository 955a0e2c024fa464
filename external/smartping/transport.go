package smartping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	TransportNetHTTP  = "nethttp"
	TransportFastHTTP = "fasthttp"

	maxResponseBytes = 4 << 20
)

// Response is the raw upstream reply. The status code is informational only:
// upstream signals failures in the body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs one GET against the federation service.
type Transport interface {
	Get(ctx context.Context, rawURL string, header map[string]string) (Response, error)
}

// NewTransport picks the transport implementation by name; unknown names use net/http.
func NewTransport(kind string, timeout time.Duration) Transport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case TransportFastHTTP:
		return NewFastHTTPTransport(&fasthttp.Client{
			Name:                "smartping-sync",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
			MaxResponseBodySize: maxResponseBytes,
		})
	default:
		return NewHTTPTransport(&http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
	}
}

type HTTPTransport struct {
	client *http.Client
}

func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string, header map[string]string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, crerr.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, crerr.Wrap(err, "read response body")
	}
	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

type FastHTTPTransport struct {
	client *fasthttp.Client
}

func NewFastHTTPTransport(client *fasthttp.Client) *FastHTTPTransport {
	if client == nil {
		client = &fasthttp.Client{MaxResponseBodySize: maxResponseBytes}
	}
	return &FastHTTPTransport{client: client}
}

func (t *FastHTTPTransport) Get(ctx context.Context, rawURL string, header map[string]string) (Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	for key, value := range header {
		req.Header.Set(key, value)
	}

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.Do(req, resp)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}
		return Response{}, crerr.Wrap(err, "send request")
	}

	body := append([]byte(nil), resp.Body()...)
	if len(body) > maxResponseBytes {
		body = body[:maxResponseBytes]
	}
	return Response{StatusCode: resp.StatusCode(), Body: body}, nil
}

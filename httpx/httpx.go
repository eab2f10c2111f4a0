package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/byte4ever/brk"
)

// ErrorClass tells the resilience layer how to treat an HTTP status code.
type ErrorClass int

const (
	// Success means the request succeeded (e.g. 2xx).
	Success ErrorClass = iota
	// Retryable means the failure is worth re-attempting (e.g. 503).
	Retryable
	// Fatal means re-attempting cannot help (e.g. 400).
	Fatal
)

// Classifier maps an HTTP status code to an ErrorClass.
//
// Pattern: Strategy — caller injects classification logic without
// modifying the adapter.
type Classifier func(statusCode int) ErrorClass

// DefaultClassifier treats 2xx as success, 408/425/429 and every 5xx as
// retryable, and any other non-2xx status as fatal.
func DefaultClassifier(statusCode int) ErrorClass {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return Success
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooEarly,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		return Retryable
	default:
		return Fatal
	}
}

// StrictClassifier treats 2xx as success and every other status as a
// retryable failure: any transport fault or non-success status is handled
// identically.
func StrictClassifier(statusCode int) ErrorClass {
	if statusCode >= 200 && statusCode < 300 {
		return Success
	}

	return Retryable
}

var errBodyNotReplayable = errors.New(
	"httpx: request body is not replayable; set Request.GetBody",
)

// Client wraps an http.Client with a brk pipeline and HTTP status code
// classification.
//
// Pattern: Adapter — bridges net/http and brk by translating HTTP status
// codes and transport faults into the pipeline's failure taxonomy.
type Client struct {
	hc *http.Client
	p  *brk.Pipeline[*http.Response]
	cl Classifier
}

// NewClient creates a Client that executes HTTP requests through a brk
// pipeline built from opts. A nil http.Client falls back to
// http.DefaultClient; a nil classifier falls back to [DefaultClassifier].
func NewClient(
	name string,
	hc *http.Client,
	cl Classifier,
	opts ...brk.Option,
) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	if cl == nil {
		cl = DefaultClassifier
	}

	return &Client{
		hc: hc,
		p:  brk.NewPipeline[*http.Response](name, opts...),
		cl: cl,
	}
}

// Do executes req through the pipeline. Each attempt runs on a clone of the
// request; a request with a body must provide GetBody so the body can be
// replayed on re-attempts. The returned response's body is open only on
// success — failed attempts are drained and closed so connections can be
// reused.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return nil, brk.Unrecoverable(errBodyNotReplayable)
	}

	return c.p.Execute(req.Context(), func(ctx context.Context) (*http.Response, error) {
		attempt := req.Clone(ctx)

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, brk.Unrecoverable(err)
			}

			attempt.Body = body
		}

		resp, err := c.hc.Do(attempt)
		if err != nil {
			return nil, brk.Transport(err)
		}

		switch c.cl(resp.StatusCode) {
		case Success:
			return resp, nil

		case Fatal:
			drain(resp)
			return nil, brk.Unrecoverable(&brk.StatusError{Code: resp.StatusCode})

		default:
			drain(resp)
			return nil, &brk.StatusError{Code: resp.StatusCode}
		}
	})
}

// Get issues a GET for url through the pipeline.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, brk.Unrecoverable(err)
	}

	return c.Do(req)
}

// drainLimit bounds how much of a failed response body is read back before
// closing; anything larger is cheaper to abandon than to drain.
const drainLimit = 4 << 10

// drain discards and closes a failed response's body so the underlying
// connection can be reused by the next attempt.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}

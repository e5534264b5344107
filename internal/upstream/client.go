package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var _ Client = (*HTTPClient)(nil)

const (
	defaultTimeout = 30 * time.Second

	// responses larger than this are rejected as malformed
	maxResponseSize = 64 << 20
)

// HTTPClient talks JSON-RPC 2.0 over HTTP to a Starknet full node.
//
// HTTPClient is safe for concurrent use by multiple goroutines.
type HTTPClient struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  logrus.FieldLogger
	nextID  atomic.Uint64
}

type Option func(*HTTPClient)

// WithTimeout bounds every call. Zero disables the client side deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = timeout
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = client
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// New returns a client for the node at remote (http or https URL).
func New(remote string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported upstream scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", remote)
	}

	c := &HTTPClient{
		url:     u.String(),
		client:  &http.Client{},
		timeout: defaultTimeout,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL returns the upstream endpoint.
func (c *HTTPClient) URL() string {
	return c.url
}

// Call implements Client.
func (c *HTTPClient) Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	id := c.nextID.Inc()
	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Method: method, Err: err}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Method: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: method, Err: err}
	}
	hreq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(hreq)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"kind":   kind.String(),
			"error":  err,
		}).Warn("Upstream call failed")
		return nil, &Error{Kind: kind, Method: method, Err: err}
	}
	defer resp.Body.Close() // nolint: errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		kind := KindTransport
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, Method: method, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, Method: method, StatusCode: resp.StatusCode}
	}

	rpcResp, err := decodeResponse(data)
	if err != nil {
		return nil, withMethod(err, method)
	}
	if err := checkResponseID(rpcResp.ID, id); err != nil {
		// some nodes answer every call with a fixed id, the result is still used
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"reason": err,
		}).Debug("Upstream response id mismatch")
	}

	c.logger.WithFields(logrus.Fields{
		"method":  method,
		"id":      id,
		"elapsed": time.Since(start),
	}).Debug("Upstream call")

	return rpcResp.Result, nil
}

func withMethod(err error, method string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Method = method
	}
	return err
}

// decodeResponse unpacks a response envelope. A response with neither a
// result nor an error is malformed.
func decodeResponse(data []byte) (*jsonrpc.Response, error) {
	resp := &jsonrpc.Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, &Error{Kind: KindDecode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	if resp.Error != nil {
		return nil, &Error{Kind: KindRPC, RPC: resp.Error}
	}

	if len(resp.Result) == 0 {
		return nil, &Error{Kind: KindDecode, Err: errors.New("response has neither result nor error")}
	}

	return resp, nil
}

// checkResponseID reports whether id answers the request with expectedID.
// A mismatch is only logged by the caller.
func checkResponseID(id json.RawMessage, expectedID uint64) error {
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return errors.New("response has no id")
	}
	got, err := strconv.ParseUint(string(bytes.Trim(id, `"`)), 10, 64)
	if err != nil {
		return fmt.Errorf("unexpected response id %s", id)
	}
	if got != expectedID {
		return fmt.Errorf("response id (%d) does not match request id (%d)", got, expectedID)
	}
	return nil
}

package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/yndnr/sdncli-go/internal/core/domain"
	"github.com/yndnr/sdncli-go/internal/infra/buildinfo"
	"github.com/yndnr/sdncli-go/internal/telemetry/logger"
)

// Observer receives per-request measurements. *metric.Registry satisfies it.
type Observer interface {
	ObserveRequest(method string, status int, elapsed time.Duration)
	ObserveRateLimitWait(d time.Duration)
	ObserveAuth(version string, err error)
	IncAuthRetry()
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}
func (nopObserver) ObserveRateLimitWait(time.Duration)        {}
func (nopObserver) ObserveAuth(string, error)                 {}
func (nopObserver) IncAuthRetry()                             {}

// Options configures an HTTPClient.
type Options struct {
	Scheme  string
	Host    string
	Port    int
	Timeout time.Duration // 0 disables
	TLS     *tls.Config

	// Rate limits requests per second; 0 means unlimited.
	Rate float64

	// Timing receives one line per request; nil disables it.
	Timing io.Writer

	// NoReauth turns a 401 into an error instead of re-authenticating
	// and resending once.
	NoReauth bool

	Observer Observer
	Logger   logger.Logger
}

// Request is one controller call.
type Request struct {
	Method string
	URI    string
	Body   any // marshaled as JSON; []byte and json.RawMessage are sent as is
	Port   int // overrides the client port for this call only

	// Quiet suppresses the timing line, for lookups made on the
	// operator's behalf.
	Quiet bool
}

// Response is a fully read controller response.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Elapsed time.Duration
}

// HTTPClient sends authenticated requests to the controller.
type HTTPClient struct {
	opts     Options
	session  *AuthSession
	client   *http.Client
	limiter  *rate.Limiter
	observer Observer
	log      logger.Logger
}

// NewHTTPClient creates a client that takes its token from session.
func NewHTTPClient(session *AuthSession, opts Options) *HTTPClient {
	if opts.Scheme == "" {
		opts.Scheme = "http"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLS != nil {
		transport.TLSClientConfig = opts.TLS
	}

	c := &HTTPClient{
		opts:     opts,
		session:  session,
		client:   &http.Client{Timeout: opts.Timeout, Transport: transport},
		observer: opts.Observer,
		log:      opts.Logger,
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	if opts.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return c
}

// HTTP returns the underlying client so the auth session can share its
// transport and timeout.
func (c *HTTPClient) HTTP() *http.Client {
	return c.client
}

// SetPort overrides the API port for subsequent calls.
func (c *HTTPClient) SetPort(port int) {
	if port > 0 {
		c.opts.Port = port
	}
}

// BaseURL returns scheme://host:port for the given port, or the client
// port when port is 0.
func (c *HTTPClient) BaseURL(port int) string {
	if port <= 0 {
		port = c.opts.Port
	}
	return c.opts.Scheme + "://" + net.JoinHostPort(c.opts.Host, strconv.Itoa(port))
}

// Send performs one request and returns the response.
func (c *HTTPClient) Send(ctx context.Context, method, uri string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: method, URI: uri, Body: body})
}

// Post sends a JSON body.
func (c *HTTPClient) Post(ctx context.Context, uri string, body any) (*Response, error) {
	return c.Send(ctx, http.MethodPost, uri, body)
}

// Get sends a request without body.
func (c *HTTPClient) Get(ctx context.Context, uri string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, uri, nil)
}

// Delete sends a DELETE with an optional body.
func (c *HTTPClient) Delete(ctx context.Context, uri string, body any) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, uri, body)
}

// Dispatch POSTs an envelope and returns the response payload.
func (c *HTTPClient) Dispatch(ctx context.Context, uri string, body any) ([]byte, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, URI: uri, Body: body})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Query is Dispatch without the timing line.
func (c *HTTPClient) Query(ctx context.Context, uri string, body any) ([]byte, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, URI: uri, Body: body, Quiet: true})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Do authenticates if needed and sends req. Unless NoReauth is set, a 401
// answer drops the cached token and the request is resent once with a
// fresh one. Non-2xx answers
// become RequestErrors carrying the status and body.
func (c *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodPost
	}
	req.Method = strings.ToUpper(req.Method)

	data, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(ctx, req, token, data)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && !c.opts.NoReauth {
		c.log.Debug("token rejected, authenticating again", "uri", req.URI)
		c.observer.IncAuthRetry()
		c.session.Reset()
		if token, err = c.session.Token(ctx); err != nil {
			return nil, err
		}
		if resp, err = c.roundTrip(ctx, req, token, data); err != nil {
			return nil, err
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, domain.NewRequestError(req.Method, req.URI, resp.Status, string(resp.Body))
	}
	return resp, nil
}

func (c *HTTPClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.observer.ObserveRateLimitWait(time.Since(start))
	return nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, req Request, token string, data []byte) (*Response, error) {
	url := c.BaseURL(req.Port) + joinURI(req.URI)

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("X-Auth-Token", token)
	hreq.Header.Set("User-Agent", buildinfo.UserAgent())

	c.log.Debug("sending request", "curl", curlLine(req.Method, url, "$SDN_TOKEN", data))

	start := time.Now()
	hresp, err := c.client.Do(hreq)
	if err != nil {
		c.observer.ObserveRequest(req.Method, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", req.Method, url, err)
	}
	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	elapsed := time.Since(start)
	c.observer.ObserveRequest(req.Method, hresp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if !req.Quiet && c.opts.Timing != nil {
		fmt.Fprintf(c.opts.Timing, "time: %.6f [status: %d %s length: %s]\n",
			elapsed.Seconds(), hresp.StatusCode, http.StatusText(hresp.StatusCode),
			humanize.Bytes(uint64(len(respBody))))
	}
	c.log.Debug("response", "status", hresp.StatusCode, "elapsed", elapsed, "length", len(respBody))

	return &Response{
		Status:  hresp.StatusCode,
		Header:  hresp.Header,
		Body:    respBody,
		Elapsed: elapsed,
	}, nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		return data, nil
	}
}

func joinURI(uri string) string {
	if strings.HasPrefix(uri, "/") {
		return uri
	}
	return "/" + uri
}

// curlLine renders a request as a replayable curl command. The token is
// never printed; tokenRef names a shell variable instead.
func curlLine(method, url, tokenRef string, body []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -D - -s -X %s %s -H \"Content-Type:application/json\"", method, url)
	if tokenRef != "" {
		fmt.Fprintf(&b, " -H \"X-Auth-Token:%s\"", tokenRef)
	}
	if len(body) > 0 {
		fmt.Fprintf(&b, " -d '%s'", body)
	}
	return b.String()
}

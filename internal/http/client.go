package http

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// Client is the shared session used for every call a probe run makes.
//
// One Client owns one transport, so concurrent calls reuse pooled
// connections instead of paying connection setup per request.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	headers    map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 100

	client := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		transport: transport,
		headers:   make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithTimeout sets the overall timeout for the client.
// Zero disables the client-level timeout; callers then bound calls with a context.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to the client
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithMaxIdleConnsPerHost sizes the idle connection pool per host.
func WithMaxIdleConnsPerHost(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			return
		}
		c.transport.MaxIdleConnsPerHost = n
		if c.transport.MaxIdleConns < n {
			c.transport.MaxIdleConns = n
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) ClientOption {
	return func(c *Client) {
		if c.transport.TLSClientConfig == nil {
			c.transport.TLSClientConfig = &tls.Config{}
		}
		c.transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// CloseIdleConnections releases the pooled connections held by the session.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Do executes an HTTP request and returns the response with detailed timing information.
//
// Timing.TotalTime covers the interval from the call until the response
// headers were received; reading the body is measured separately.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build()
	if err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var connectDone bool
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsEnd := time.Now()
			timing.DNSLookupTime = dnsEnd.Sub(dnsStart)
			lastPhaseEnd = dnsEnd
		},
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				connectEnd := time.Now()
				timing.TCPConnectTime = connectEnd.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = connectEnd
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			timing.ConnReused = info.Reused
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsHandshakeStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil && !tlsHandshakeStart.IsZero() {
				tlsHandshakeEnd := time.Now()
				timing.TLSHandshakeTime = tlsHandshakeEnd.Sub(tlsHandshakeStart)
				lastPhaseEnd = tlsHandshakeEnd
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{URL: httpReq.URL.String(), Elapsed: time.Since(timing.StartTime), Err: err}
	}

	// Headers are in; this is the latency the probe reports.
	timing.TotalTime = time.Since(timing.StartTime)

	resp := &Response{
		StatusCode:   httpResp.StatusCode,
		Status:       httpResp.Status,
		Headers:      httpResp.Header,
		ResponseTime: timing.TotalTime,
		Timing:       timing,
	}

	contentTransferStart := time.Now()
	if req.DiscardBody {
		n, _ := io.Copy(io.Discard, httpResp.Body)
		resp.BytesReceived = n
	} else {
		bodyBytes, readErr := io.ReadAll(httpResp.Body)
		resp.rawBody = bodyBytes
		resp.BytesReceived = int64(len(bodyBytes))
		resp.readErr = readErr
	}
	httpResp.Body.Close()
	resp.Timing.ContentTransferTime = time.Since(contentTransferStart)

	return resp, nil
}

// RequestError is returned by Do when no response was received.
// It carries how long the call ran before failing.
type RequestError struct {
	URL     string
	Elapsed time.Duration
	Err     error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

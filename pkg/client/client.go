package client

import (
	"fmt"
	"net/http"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"golang.org/x/time/rate"
)

// HTTPClient is the narrow request surface the rest of the code depends on.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type tlsWrapper struct {
	innerClient tls_client.HttpClient
	limiter     *rate.Limiter
}

func (w *tlsWrapper) Do(req *http.Request) (*http.Response, error) {
	if err := w.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	fReq := &fhttp.Request{
		Method:        req.Method,
		URL:           req.URL,
		Proto:         req.Proto,
		ProtoMajor:    req.ProtoMajor,
		ProtoMinor:    req.ProtoMinor,
		Header:        make(fhttp.Header),
		Body:          req.Body,
		ContentLength: req.ContentLength,
		Host:          req.Host,
	}

	for k, v := range req.Header {
		fReq.Header[k] = v
	}

	if c := req.Header.Get("Cookie"); c != "" {
		fReq.Header.Set("Cookie", c)
	}

	resp, err := w.innerClient.Do(fReq)
	if err != nil {
		return nil, err
	}

	netResp := &http.Response{
		Status:           resp.Status,
		StatusCode:       resp.StatusCode,
		Proto:            resp.Proto,
		ProtoMajor:       resp.ProtoMajor,
		ProtoMinor:       resp.ProtoMinor,
		ContentLength:    resp.ContentLength,
		Body:             resp.Body,
		Header:           make(http.Header),
		Uncompressed:     resp.Uncompressed,
		TransferEncoding: resp.TransferEncoding,
	}

	for k, v := range resp.Header {
		netResp.Header[k] = v
	}

	return netResp, nil
}

// Options tunes the proxied client.
type Options struct {
	// ProxyURL routes every request through a local SOCKS endpoint.
	// Empty means direct connection (used in tests only; real runs always
	// set the anonymity proxy).
	ProxyURL          string
	TimeoutSeconds    int
	RequestsPerSecond int
	BurstLimit        int
}

// withDefaults fills in zero values: 30s timeout, 2 requests per second,
// burst equal to the request rate.
func (o Options) withDefaults() Options {
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = 30
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.BurstLimit <= 0 {
		o.BurstLimit = o.RequestsPerSecond
	}
	return o
}

// NewHTTPClient builds a browser-fingerprint HTTP client whose traffic is
// routed through the configured SOCKS proxy and paced by a rate limiter.
func NewHTTPClient(opts Options) (HTTPClient, error) {
	opts = opts.withDefaults()

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(opts.TimeoutSeconds),
		tls_client.WithClientProfile(profiles.DefaultClientProfile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithCookieJar(jar),
	}
	if opts.ProxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	c, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	return &tlsWrapper{
		innerClient: c,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.BurstLimit),
	}, nil
}

// Package gateway talks to the third-party payment gateway that creates
// orders and reports their status.
package gateway

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "mahabharata-landing/1.0"

// Option configures a gateway client
type Option func(*options)

type options struct {
	timeout    time.Duration
	httpClient *http.Client
	userAgent  string
}

// WithTimeout bounds every request made by the client
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient sets the underlying HTTP client, e.g. one with an
// instrumented transport
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func newRestyClient(opts []Option) *resty.Client {
	o := options{userAgent: defaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}

	var client *resty.Client
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
		if o.httpClient.Jar == nil {
			// The gateway relies on cookies set on earlier responses.
			jar, _ := cookiejar.New(nil)
			client.SetCookieJar(jar)
		}
	} else {
		client = resty.New()
	}

	if o.timeout > 0 {
		client.SetTimeout(o.timeout)
	}
	client.SetHeader("User-Agent", o.userAgent)

	return client
}

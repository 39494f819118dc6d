package panelclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is a single HTTP call issued against a panel
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is serialized as JSON when non-nil
	Body interface{}
}

// Response is what a Requester reports back
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Requester sends requests to a panel. Implementations own timeouts, TLS and pooling.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// RestyRequester is the default Requester backed by resty
type RestyRequester struct {
	httpClient *resty.Client
}

// NewRestyRequester creates a resty based requester.
// Panels commonly run with self-signed certificates, so verification is skipped.
// The cookie jar is disabled: the session token is attached explicitly.
// Retries are disabled: the prober decides what to try next.
func NewRestyRequester(timeout time.Duration) *RestyRequester {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetCookieJar(nil).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	return &RestyRequester{httpClient: httpClient}
}

// Do executes the request
func (r *RestyRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	restyReq := r.httpClient.R().SetContext(ctx)
	for name := range req.Header {
		restyReq.SetHeader(name, req.Header.Get(name))
	}
	if req.Body != nil {
		restyReq.SetBody(req.Body)
	}

	resp, err := restyReq.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// Package fetch downloads image bodies referenced by URL in model responses.
package fetch

import (
	"context"
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/diogo/genaiprobe/internal/errors"
)

// DefaultTimeoutSeconds is used when no timeout is configured.
const DefaultTimeoutSeconds = 120

// Doer is the part of tls_client.HttpClient the fetcher needs.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// HTTPFetcher performs a single GET per URL. It does not retry and does not
// validate the content type; any status other than 200 is an error.
type HTTPFetcher struct {
	client Doer
}

// NewHTTPFetcher creates a fetcher with a Chrome TLS profile.
func NewHTTPFetcher(timeoutSeconds int) (*HTTPFetcher, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, err
	}
	return &HTTPFetcher{client: client}, nil
}

// NewHTTPFetcherWithClient creates a fetcher around an existing client.
func NewHTTPFetcherWithClient(client Doer) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch returns the body of url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, url, nil)
	if err != nil {
		return nil, apierrors.NewFetchError(url, err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apierrors.NewFetchError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != fhttp.StatusOK {
		return nil, apierrors.NewFetchErrorWithStatus(url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewFetchError(url, err)
	}
	return body, nil
}

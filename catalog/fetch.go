package catalog

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"time"
)

// MaxExampleBytes caps the size of a fetched example.
const MaxExampleBytes = 1 << 20

// Fetcher retrieves the raw text of an example by name.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, name string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// FSFetcher reads examples from Dir inside FS.
type FSFetcher struct {
	FS  fs.FS
	Dir string
}

func (f FSFetcher) Fetch(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := name
	if f.Dir != "" {
		p = path.Join(f.Dir, name)
	}
	data, err := fs.ReadFile(f.FS, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// HTTPFetcher fetches BaseURL/<name> and returns the body unparsed.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewHTTPFetcher returns an HTTPFetcher with a bounded client timeout.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) (string, error) {
	u, err := url.JoinPath(f.BaseURL, name)
	if err != nil {
		return "", fmt.Errorf("example url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("GET %s: %s", u, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxExampleBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}
	if len(body) > MaxExampleBytes {
		return "", fmt.Errorf("GET %s: example larger than %d bytes", u, MaxExampleBytes)
	}
	return string(body), nil
}

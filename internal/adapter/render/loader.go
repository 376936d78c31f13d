package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
)

// sumsLoop matches a for tag over the sums mapping, with an optional Jinja
// style .items() call and the optional reversed/sorted modifiers.
var sumsLoop = regexp.MustCompile(`(\{%-?\s*for\s+\w+\s*(?:,\s*\w+\s*)?in\s+sums)(?:\.items\(\))?(\s+reversed)?(?:\s+sorted)?(\s*-?%\})`)

// orderedSumsLoader rewrites every loop over sums to iterate in key order.
// pongo2 walks maps in random order unless the loop is marked sorted.
type orderedSumsLoader struct {
	pongo2.TemplateLoader
}

// Get returns the template source with loops over sums made ordered
func (l orderedSumsLoader) Get(path string) (io.Reader, error) {
	r, err := l.TemplateLoader.Get(path)
	if err != nil {
		return nil, err
	}
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return bytes.NewReader(orderSumsLoops(src)), nil
}

func orderSumsLoops(src []byte) []byte {
	return sumsLoop.ReplaceAll(src, []byte("${1}${2} sorted${3}"))
}

// HTTPTemplateLoader loads templates relative to a remote base URL. It
// satisfies pongo2.TemplateLoader.
type HTTPTemplateLoader struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPTemplateLoader creates a loader for templates under baseURL
func NewHTTPTemplateLoader(baseURL string, timeout time.Duration) *HTTPTemplateLoader {
	return &HTTPTemplateLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Abs resolves name to a full URL. Absolute URLs are returned unchanged.
func (l *HTTPTemplateLoader) Abs(_, name string) string {
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return l.baseURL + "/" + strings.TrimLeft(name, "/")
}

// Get fetches the template at path. Any non-200 answer is an error.
func (l *HTTPTemplateLoader) Get(path string) (io.Reader, error) {
	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create template request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("template request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("template %s returned status: %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return bytes.NewReader(body), nil
}

package cif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/crystalview/internal/httputil"
	"github.com/banshee-data/crystalview/internal/monitoring"
)

// ErrFetch is returned when a remote CIF cannot be downloaded.
var ErrFetch = errors.New("fetch failed")

// IsURL reports whether path names an http or https resource.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Fetch downloads the CIF at url with client and parses it. Failures are
// returned as *ParseError with Path set to url.
func Fetch(ctx context.Context, client httputil.Doer, url string, opts Options) (*Structure, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ParseError{Path: url, Err: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	req.Header.Set("Accept", "chemical/x-cif, text/plain;q=0.9, */*;q=0.5")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ParseError{Path: url, Err: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ParseError{Path: url, Err: fmt.Errorf("%w: HTTP %d", ErrFetch, resp.StatusCode)}
	}

	limit := opts.maxFileSize()
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &ParseError{Path: url, Err: fmt.Errorf("%w: %v", ErrFetch, err)}
	}
	if int64(len(data)) > limit {
		return nil, &ParseError{Path: url, Err: fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)}
	}

	s, err := Parse(bytes.NewReader(data), url, opts)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("fetched %s from %s: %d sites, %d atoms", s.Name, url, len(s.Sites), len(s.Atoms))
	return s, nil
}

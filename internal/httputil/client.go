// Package httputil holds the HTTP helpers shared by the viewer handlers and
// the remote CIF fetcher.
package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MockResponse is a canned reply for MockClient.
type MockResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

// MockClient records requests and replies with queued responses in order.
// Once the queue is empty it answers 200 with an empty body.
type MockClient struct {
	mu        sync.Mutex
	requests  []*http.Request
	responses []MockResponse
}

// NewMockClient returns a client that will reply with responses in order.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

// Do records req and returns the next queued response.
func (m *MockClient) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	r := MockResponse{StatusCode: http.StatusOK}
	if len(m.responses) > 0 {
		r, m.responses = m.responses[0], m.responses[1:]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	header := r.Header
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: r.StatusCode,
		Status:     http.StatusText(r.StatusCode),
		Body:       io.NopCloser(bytes.NewBufferString(r.Body)),
		Header:     header,
		Request:    req,
	}, nil
}

// Requests returns the requests seen so far.
func (m *MockClient) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

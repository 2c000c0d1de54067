package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/carbon-audit/internal/advisory"
)

// MockAdvisory is a test implementation of advisory.Client that returns a
// fixed analysis or error and records every request.
type MockAdvisory struct {
	Err      error
	requests []advisory.Request
	Analysis advisory.Analysis
	mu       sync.Mutex
}

// NewMockAdvisory creates a mock that answers with analysis.
func NewMockAdvisory(analysis advisory.Analysis) *MockAdvisory {
	return &MockAdvisory{Analysis: analysis}
}

// Analyze records the request and returns the configured response.
func (m *MockAdvisory) Analyze(ctx context.Context, req advisory.Request) (advisory.Analysis, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return advisory.Analysis{}, err
	}
	if m.Err != nil {
		return advisory.Analysis{}, m.Err
	}
	return m.Analysis, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockAdvisory) Requests() []advisory.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]advisory.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

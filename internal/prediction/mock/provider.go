// Package mock provides a configurable in-memory prediction provider for
// tests and development.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/modessa/modessa/internal/prediction"
)

// Provider is a mock prediction provider. Responses are scripted per
// call; call counts and concurrency are tracked so tests can assert the
// orchestrator's sequencing guarantees.
type Provider struct {
	mu sync.Mutex

	// Configurable responses for testing
	StartResponse *prediction.StartResult
	StartError    error
	PollResponses []*prediction.PollResult // consumed in order; the last repeats
	PollError     error
	FetchData     []byte
	FetchError    error

	// Call tracking for testing
	StartCalls int
	PollCalls  int
	FetchCalls int

	// ConcurrentPoll is set if a poll begins before the previous one
	// returned, which the orchestrator must never allow.
	ConcurrentPoll bool
	pollInFlight   bool
}

// New creates a mock provider that succeeds immediately by default.
func New() *Provider {
	return &Provider{}
}

// Start returns the scripted start response.
func (p *Provider) Start(ctx context.Context, params prediction.StartParams) (*prediction.StartResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.StartCalls++
	if p.StartError != nil {
		return nil, p.StartError
	}
	if p.StartResponse != nil {
		return p.StartResponse, nil
	}
	return &prediction.StartResult{JobID: "mock-job-1", Status: prediction.JobStatusPending}, nil
}

// Poll returns the next scripted poll response.
func (p *Provider) Poll(ctx context.Context, jobID string) (*prediction.PollResult, error) {
	p.mu.Lock()
	if p.pollInFlight {
		p.ConcurrentPoll = true
	}
	p.pollInFlight = true
	p.PollCalls++
	call := p.PollCalls
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.pollInFlight = false
		p.mu.Unlock()
	}()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.PollError != nil {
		return nil, p.PollError
	}
	if len(p.PollResponses) == 0 {
		return &prediction.PollResult{Status: prediction.JobStatusSucceeded, Output: "data:image/png;base64,"}, nil
	}
	idx := call - 1
	if idx >= len(p.PollResponses) {
		idx = len(p.PollResponses) - 1
	}
	return p.PollResponses[idx], nil
}

// Fetch returns the scripted result bytes.
func (p *Provider) Fetch(ctx context.Context, ref string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.FetchCalls++
	if p.FetchError != nil {
		return nil, p.FetchError
	}
	if p.FetchData != nil {
		return p.FetchData, nil
	}
	return []byte(fmt.Sprintf("mock-output:%s", ref)), nil
}

// Reset clears call counters and scripted responses.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.StartResponse = nil
	p.StartError = nil
	p.PollResponses = nil
	p.PollError = nil
	p.FetchData = nil
	p.FetchError = nil
	p.StartCalls = 0
	p.PollCalls = 0
	p.FetchCalls = 0
	p.ConcurrentPoll = false
	p.pollInFlight = false
}

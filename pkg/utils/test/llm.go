package testutils

import (
	"context"
	"errors"

	"github.com/mnemohq/mnemo/pkg/llm"
)

// MockCaller is a scripted llm.CallFunc for tests. Responses are returned
// in order; when the script runs out the last response repeats.
type MockCaller struct {
	// Responses is the response script.
	Responses []string

	// Prompts accumulates every prompt passed to the caller.
	Prompts []string

	// Fail causes every call to return an error.
	Fail bool

	next int
}

// NewMockCaller creates a mock caller with the given response script.
func NewMockCaller(responses ...string) *MockCaller {
	return &MockCaller{Responses: responses}
}

// Call implements the llm.CallFunc contract.
func (m *MockCaller) Call(_ context.Context, prompt string) (string, error) {
	if m.Fail {
		return "", errors.New("llm call failed")
	}

	m.Prompts = append(m.Prompts, prompt)

	if len(m.Responses) == 0 {
		return "", nil
	}
	if m.next >= len(m.Responses) {
		return m.Responses[len(m.Responses)-1], nil
	}
	resp := m.Responses[m.next]
	m.next++
	return resp, nil
}

// Func returns the mock as an llm.CallFunc.
func (m *MockCaller) Func() llm.CallFunc {
	return m.Call
}

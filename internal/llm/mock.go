package llm

import (
	"context"
	"io"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
type MockLLM struct {
	// Response is the fixed text returned by Complete.
	Response string

	// Error, if set, is returned by Complete instead of a response.
	Error error

	// Responses, if non-empty, is consumed one entry per call before
	// falling back to Response.
	Responses []string

	// LastPrompt stores the most recent prompt passed to Complete.
	LastPrompt string

	// Prompts stores every prompt seen, in call order.
	Prompts []string

	mu sync.Mutex
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Complete returns the configured response or error.
func (m *MockLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastPrompt = prompt
	m.Prompts = append(m.Prompts, prompt)

	if m.Error != nil {
		return "", m.Error
	}
	if len(m.Responses) > 0 {
		r := m.Responses[0]
		m.Responses = m.Responses[1:]
		return r, nil
	}
	return m.Response, nil
}

// MockStreamLLM is a deterministic StreamLLM implementation for testing.
// Each call to StreamComplete yields the configured fragments in order.
type MockStreamLLM struct {
	// Fragments are the text pieces emitted by the stream.
	Fragments []string

	// StartError, if set, is returned by StreamComplete itself.
	StartError error

	// RecvError, if set, is returned by Recv after all fragments
	// (instead of io.EOF), simulating a mid-stream provider failure.
	RecvError error

	// LastSystem and LastUser record the most recent call.
	LastSystem string
	LastUser   string

	// Streams counts how many streams were started.
	Streams int

	lastStream *mockTokenStream

	mu sync.Mutex
}

// StreamComplete returns a stream over the configured fragments.
func (m *MockStreamLLM) StreamComplete(ctx context.Context, system, user string) (TokenStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastSystem = system
	m.LastUser = user
	m.Streams++

	if m.StartError != nil {
		return nil, m.StartError
	}

	frags := make([]string, len(m.Fragments))
	copy(frags, m.Fragments)
	stream := &mockTokenStream{fragments: frags, recvError: m.RecvError}
	m.lastStream = stream
	return stream, nil
}

// LastStreamClosed reports whether the most recently started stream has been
// closed, for cancellation tests.
func (m *MockStreamLLM) LastStreamClosed() bool {
	m.mu.Lock()
	stream := m.lastStream
	m.mu.Unlock()

	if stream == nil {
		return false
	}
	return stream.Closed()
}

type mockTokenStream struct {
	fragments []string
	recvError error
	pos       int
	closed    bool
	mu        sync.Mutex
}

func (s *mockTokenStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", io.EOF
	}
	if s.pos < len(s.fragments) {
		frag := s.fragments[s.pos]
		s.pos++
		return frag, nil
	}
	if s.recvError != nil {
		return "", s.recvError
	}
	return "", io.EOF
}

func (s *mockTokenStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called, for cancellation tests.
func (s *mockTokenStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

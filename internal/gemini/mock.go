package gemini

import "context"

// MockGenerator is a mock implementation of Generator for testing
type MockGenerator struct {
	Response *Response
	Err      error

	Called  bool
	Calls   int
	LastReq Request
}

// Ensure MockGenerator implements Generator
var _ Generator = (*MockGenerator)(nil)

func (m *MockGenerator) Generate(_ context.Context, req Request) (*Response, error) {
	m.Called = true
	m.Calls++
	m.LastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return m.Response, m.Err
}

package turnstile

import (
	"context"
	"fmt"
)

// MockClient passes any non-empty token. Development only.
type MockClient struct{}

func (m *MockClient) Verify(ctx context.Context, token, remoteIP string) (*Result, error) {
	if token == "" {
		return nil, fmt.Errorf("token is required")
	}

	return &Result{Success: true}, nil
}

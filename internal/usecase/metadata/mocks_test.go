package metadata

import (
	"context"
	"errors"
	"sync"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

var ErrMockGateway = errors.New("mock gateway error")

// MockGateway implements domain.GatewayClient for testing
type MockGateway struct {
	mu       sync.Mutex
	Intents  map[string]*domain.MetadataSource
	Fail     bool
	Requests []string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Intents: make(map[string]*domain.MetadataSource)}
}

func (m *MockGateway) GetPaymentIntent(ctx context.Context, id string) (*domain.MetadataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, id)
	if m.Fail {
		return nil, ErrMockGateway
	}
	return m.Intents[id], nil
}

func (m *MockGateway) GetCustomer(ctx context.Context, id string) (*domain.MetadataSource, error) {
	return nil, nil
}

func (m *MockGateway) GetCharge(ctx context.Context, id string) (*domain.MetadataSource, error) {
	return nil, nil
}

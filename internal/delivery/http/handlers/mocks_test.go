package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockQueue struct {
	Keys     []string
	Payloads [][]byte
	Err      error
}

func (m *MockQueue) Enqueue(ctx context.Context, key string, payload []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Keys = append(m.Keys, key)
	m.Payloads = append(m.Payloads, payload)
	return nil
}

type MockSyncer struct {
	Kind      domain.EntityKind
	PrimaryID string
	Err       error
}

func (m *MockSyncer) Sync(ctx context.Context, kind domain.EntityKind, primaryID string) error {
	m.Kind = kind
	m.PrimaryID = primaryID
	return m.Err
}

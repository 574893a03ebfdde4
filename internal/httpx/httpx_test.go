package httpx

import (
	"context"
	"errors"
	"time"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

// mockService implements ServicePort with canned responses.
type mockService struct {
	batchRes   *app.BatchResult
	batchErr   error
	delivery   *app.Delivery
	deliverErr error

	gotItems     []app.UploadItem
	gotPassword  string
	gotDeliverID string
}

func (m *mockService) ProcessBatch(_ context.Context, items []app.UploadItem, password string) (*app.BatchResult, error) {
	m.gotItems = items
	m.gotPassword = password
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	return m.batchRes, nil
}

func (m *mockService) Deliver(_ context.Context, idStr string) (*app.Delivery, error) {
	m.gotDeliverID = idStr
	if m.deliverErr != nil {
		return nil, m.deliverErr
	}
	return m.delivery, nil
}

// mockSessions implements app.SessionStore, capturing Put.
type mockSessions struct {
	putID        domain.SessionID
	putErr       error
	putCalled    bool
	putArtifacts []app.Artifact
}

func (m *mockSessions) Put(_ context.Context, artifacts []app.Artifact) (domain.SessionID, error) {
	m.putCalled = true
	m.putArtifacts = artifacts
	if m.putErr != nil {
		return "", m.putErr
	}
	return m.putID, nil
}

func (m *mockSessions) Take(_ context.Context, _ domain.SessionID) ([]app.Artifact, error) {
	return nil, errors.New("unexpected Take")
}

func (m *mockSessions) ExpireBefore(_ context.Context, _ time.Time) (int, error) { return 0, nil }

package store

import (
	"context"
	"fmt"
	"sync"

	"proovd/internal/verification/models"
	"proovd/pkg/domain"
	"proovd/pkg/platform/sentinel"
)

// Memory is a map-backed Store. Records are cloned on the way in and out so
// callers can never mutate shared state.
type Memory struct {
	mu      sync.RWMutex
	records map[domain.WebsiteID]*models.VerificationRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[domain.WebsiteID]*models.VerificationRecord)}
}

func (m *Memory) Get(_ context.Context, websiteID domain.WebsiteID) (*models.VerificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[websiteID]
	if !ok {
		return nil, fmt.Errorf("verification record for website %s: %w", websiteID, sentinel.ErrNotFound)
	}
	return record.Clone(), nil
}

func (m *Memory) Save(_ context.Context, record *models.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.WebsiteID] = record.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, websiteID domain.WebsiteID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, websiteID)
	return nil
}

func (m *Memory) Health(_ context.Context) error {
	return nil
}

// Len reports how many records are stored. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

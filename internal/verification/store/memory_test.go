package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"proovd/internal/verification/models"
	"proovd/pkg/domain"
	"proovd/pkg/platform/sentinel"
)

type MemorySuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemorySuite) newRecord() *models.VerificationRecord {
	record, err := models.NewRecord(
		domain.WebsiteID(uuid.New()),
		"acme.io",
		"ab12cd34ef56",
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
	return record
}

func (s *MemorySuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(s.ctx, domain.WebsiteID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemorySuite) TestSaveAndGetRoundTrip() {
	record := s.newRecord()
	s.Require().NoError(s.store.Save(s.ctx, record))

	got, err := s.store.Get(s.ctx, record.WebsiteID)
	s.Require().NoError(err)
	s.Equal(record, got)
}

func (s *MemorySuite) TestSaveOverwritesExisting() {
	record := s.newRecord()
	s.Require().NoError(s.store.Save(s.ctx, record))

	record.Attempts = 3
	record.Status = models.StatusFailed
	record.Reason = "no record found"
	s.Require().NoError(s.store.Save(s.ctx, record))

	got, err := s.store.Get(s.ctx, record.WebsiteID)
	s.Require().NoError(err)
	s.Equal(3, got.Attempts)
	s.Equal(models.StatusFailed, got.Status)
	s.Equal(1, s.store.Len())
}

func (s *MemorySuite) TestMutatingReturnedRecordDoesNotLeak() {
	record := s.newRecord()
	s.Require().NoError(s.store.Save(s.ctx, record))

	got, err := s.store.Get(s.ctx, record.WebsiteID)
	s.Require().NoError(err)
	got.Token = "tampered"
	got.Attempts = 99

	fresh, err := s.store.Get(s.ctx, record.WebsiteID)
	s.Require().NoError(err)
	s.Equal("ab12cd34ef56", fresh.Token)
	s.Equal(0, fresh.Attempts)
}

func (s *MemorySuite) TestMutatingSavedRecordDoesNotLeak() {
	record := s.newRecord()
	s.Require().NoError(s.store.Save(s.ctx, record))

	record.Domain = "hijacked.example"

	got, err := s.store.Get(s.ctx, record.WebsiteID)
	s.Require().NoError(err)
	s.Equal("acme.io", got.Domain)
}

func (s *MemorySuite) TestDelete() {
	record := s.newRecord()
	s.Require().NoError(s.store.Save(s.ctx, record))
	s.Require().NoError(s.store.Delete(s.ctx, record.WebsiteID))

	_, err := s.store.Get(s.ctx, record.WebsiteID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Deleting an absent record is not an error.
	s.NoError(s.store.Delete(s.ctx, record.WebsiteID))
}

func (s *MemorySuite) TestHealth() {
	s.NoError(s.store.Health(s.ctx))
}

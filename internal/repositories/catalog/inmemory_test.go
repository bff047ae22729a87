package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/loadout-api/internal/errors"
	catalogrepo "github.com/KirkDiggler/loadout-api/internal/repositories/catalog"
	"github.com/KirkDiggler/loadout-api/internal/testutils"
)

type InMemoryCatalogTestSuite struct {
	suite.Suite
	repo *catalogrepo.InMemoryRepository
	ctx  context.Context
}

func TestInMemoryCatalogSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCatalogTestSuite))
}

func (s *InMemoryCatalogTestSuite) SetupTest() {
	s.repo = catalogrepo.NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryCatalogTestSuite) TestRoundTrip() {
	snap := testutils.BasicCatalog(s.T(), 2)

	_, err := s.repo.Put(s.ctx, catalogrepo.PutInput{Name: "main", Snapshot: snap})
	s.Require().NoError(err)

	out, err := s.repo.Get(s.ctx, catalogrepo.GetInput{Name: "main"})
	s.Require().NoError(err)
	s.Equal(snap, out.Snapshot)
}

func (s *InMemoryCatalogTestSuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, catalogrepo.GetInput{Name: "nope"})
	s.True(errors.IsNotFound(err))
}

func (s *InMemoryCatalogTestSuite) TestValidation() {
	_, err := s.repo.Get(s.ctx, catalogrepo.GetInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Put(s.ctx, catalogrepo.PutInput{Name: "x"})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Delete(s.ctx, catalogrepo.DeleteInput{})
	s.True(errors.IsInvalidArgument(err))
}

func (s *InMemoryCatalogTestSuite) TestDelete() {
	snap := testutils.BasicCatalog(s.T(), 1)
	_, err := s.repo.Put(s.ctx, catalogrepo.PutInput{Name: "gone", Snapshot: snap})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, catalogrepo.DeleteInput{Name: "gone"})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, catalogrepo.DeleteInput{Name: "gone"})
	s.True(errors.IsNotFound(err))
}

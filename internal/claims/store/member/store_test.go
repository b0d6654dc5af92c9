package member_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/claims/store/member"
	"opdclaims/internal/platform/database"
	"opdclaims/pkg/platform/sentinel"
)

// Store is the contract both backends satisfy.
type Store interface {
	FindMember(ctx context.Context, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	CreateMember(ctx context.Context, m *models.Member) error
	AddToAnnualLimitUsed(ctx context.Context, memberID string, amount float64) (float64, error)
	Seed(ctx context.Context, members []*models.Member) (int, error)
}

// =============================================================================
// Member Store Contract Suite
// =============================================================================
//
// The same cases run against the in-memory store and SQLite. Postgres runs
// them in the integration build.

type MemberStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
	now      time.Time
}

func TestInMemoryMemberStore(t *testing.T) {
	suite.Run(t, &MemberStoreSuite{newStore: func(*testing.T) Store { return member.NewInMemory() }})
}

func TestSQLiteMemberStore(t *testing.T) {
	suite.Run(t, &MemberStoreSuite{newStore: func(t *testing.T) Store {
		db, err := database.OpenAndMigrate(context.Background(), database.Config{
			Dialect: database.SQLite,
			URL:     filepath.Join(t.TempDir(), "members.db"),
		})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return member.NewSQL(db, database.SQLite)
	}})
}

func (s *MemberStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 11, 1, 9, 30, 0, 0, time.UTC)
}

func (s *MemberStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *MemberStoreSuite) newMember(id, name string) *models.Member {
	m, err := models.NewMember(id, name, "PLUM_OPD_2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), models.GenderFemale, s.now)
	s.Require().NoError(err)
	return m
}

func (s *MemberStoreSuite) TestCreateAndFind() {
	s.Run("round trips every field", func() {
		m := s.newMember("EMP101", "Asha Rao")
		s.Require().NoError(s.store.CreateMember(s.ctx, m))

		got, err := s.store.FindMember(s.ctx, "EMP101")
		s.Require().NoError(err)
		s.Equal(m.ID, got.ID)
		s.Equal(m.Name, got.Name)
		s.Equal(m.PolicyID, got.PolicyID)
		s.True(m.JoinDate.Equal(got.JoinDate))
		s.Equal(models.GenderFemale, got.Gender)
		s.Zero(got.AnnualLimitUsed)
		s.True(m.CreatedAt.Equal(got.CreatedAt))
	})

	s.Run("unknown member is not found", func() {
		_, err := s.store.FindMember(s.ctx, "EMP999")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate id conflicts", func() {
		s.Require().NoError(s.store.CreateMember(s.ctx, s.newMember("EMP101", "Asha Rao")))
		err := s.store.CreateMember(s.ctx, s.newMember("EMP101", "Someone Else"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *MemberStoreSuite) TestListIsOrderedByID() {
	for _, id := range []string{"EMP003", "EMP001", "EMP002"} {
		s.Require().NoError(s.store.CreateMember(s.ctx, s.newMember(id, "Member "+id)))
	}

	list, err := s.store.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"EMP001", "EMP002", "EMP003"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func (s *MemberStoreSuite) TestAnnualLimit() {
	s.Run("increments accumulate", func() {
		s.Require().NoError(s.store.CreateMember(s.ctx, s.newMember("EMP001", "Rajesh Kumar")))

		used, err := s.store.AddToAnnualLimitUsed(s.ctx, "EMP001", 4500)
		s.Require().NoError(err)
		s.InDelta(4500, used, 1e-9)

		used, err = s.store.AddToAnnualLimitUsed(s.ctx, "EMP001", 1800.5)
		s.Require().NoError(err)
		s.InDelta(6300.5, used, 1e-9)

		m, err := s.store.FindMember(s.ctx, "EMP001")
		s.Require().NoError(err)
		s.InDelta(6300.5, m.AnnualLimitUsed, 1e-9)
	})

	s.Run("unknown member is not found", func() {
		_, err := s.store.AddToAnnualLimitUsed(s.ctx, "EMP404", 100)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("negative increments are refused", func() {
		s.Require().NoError(s.store.CreateMember(s.ctx, s.newMember("EMP001", "Rajesh Kumar")))
		_, err := s.store.AddToAnnualLimitUsed(s.ctx, "EMP001", -1)
		s.Error(err)
	})

	s.Run("concurrent increments are not lost", func() {
		s.Require().NoError(s.store.CreateMember(s.ctx, s.newMember("EMP001", "Rajesh Kumar")))

		const workers = 20
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.store.AddToAnnualLimitUsed(s.ctx, "EMP001", 100)
				s.NoError(err)
			}()
		}
		wg.Wait()

		m, err := s.store.FindMember(s.ctx, "EMP001")
		s.Require().NoError(err)
		s.InDelta(workers*100, m.AnnualLimitUsed, 1e-9)
	})
}

func (s *MemberStoreSuite) TestSeedIsIdempotent() {
	roster := models.SeedMembers("PLUM_OPD_2024", s.now)

	added, err := s.store.Seed(s.ctx, roster)
	s.Require().NoError(err)
	s.Equal(len(roster), added)

	_, err = s.store.AddToAnnualLimitUsed(s.ctx, "EMP001", 500)
	s.Require().NoError(err)

	added, err = s.store.Seed(s.ctx, roster)
	s.Require().NoError(err)
	s.Zero(added)

	m, err := s.store.FindMember(s.ctx, "EMP001")
	s.Require().NoError(err)
	s.InDelta(500, m.AnnualLimitUsed, 1e-9, "reseeding must not reset usage")

	late, err := s.store.FindMember(s.ctx, "EMP005")
	s.Require().NoError(err)
	s.Equal("2024-09-01", late.JoinDate.Format("2006-01-02"))
}

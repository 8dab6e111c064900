package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	appreward "github.com/jackyeh168/loyalty_rewards/src/internal/application/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence"
	"github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/persistencetest"
	rewardstore "github.com/jackyeh168/loyalty_rewards/src/internal/infrastructure/persistence/reward"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefinitionService(t *testing.T) *appreward.DefinitionService {
	t.Helper()
	db := persistencetest.NewTestDB(t, &rewardstore.DefinitionGORM{})
	return appreward.NewDefinitionService(
		rewardstore.NewDefinitionRepository(db),
		persistence.NewGORMTransactionManager(db),
		nil,
	)
}

func TestDefault_ContainsCatalogue(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, reward.CriteriaVersion, c.Version)
	assert.Len(t, c.Achievements, 5)
	require.Len(t, c.Badges, 4)

	platinum := c.Badges[3]
	assert.Equal(t, "Platinum Member", platinum.Name)
	assert.Equal(t, 4, platinum.Tier)
	assert.Equal(t, 25000, platinum.Requirements["points_minimum"])
	assert.Equal(t, 50, platinum.Requirements["purchases_minimum"])
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("achievements:\n  - name: X\n    reward: 10\n"))
	assert.Error(t, err)
}

func TestParse_RejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\n"))
	assert.ErrorContains(t, err, "unsupported catalogue version")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	content := "badges:\n  - name: Starter\n    tier: 1\n    requirements:\n      points_minimum: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, c.Badges, 1)
	assert.Equal(t, "Starter", c.Badges[0].Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply_IsIdempotent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newDefinitionService(t)
	c, err := Default()
	require.NoError(t, err)

	// Act
	first, err := Apply(ctx, svc, c, nil)
	require.NoError(t, err)
	second, err := Apply(ctx, svc, c, nil)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, Result{Created: 9}, first)
	assert.Equal(t, Result{Skipped: 9}, second)

	badges, err := svc.List(ctx, reward.KindBadge, true)
	require.NoError(t, err)
	assert.Len(t, badges, 4)
}

func TestApply_InactiveEntry(t *testing.T) {
	ctx := context.Background()
	svc := newDefinitionService(t)
	c := &Catalogue{Achievements: []Achievement{
		{Name: "Retired", Criteria: map[string]interface{}{"transaction_count": 1}, Inactive: true},
	}}

	_, err := Apply(ctx, svc, c, nil)
	require.NoError(t, err)

	active, err := svc.List(ctx, reward.KindAchievement, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, reward.KindAchievement, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestApply_StopsOnInvalidDefinition(t *testing.T) {
	ctx := context.Background()
	svc := newDefinitionService(t)
	c := &Catalogue{Badges: []Badge{
		{Name: "Zero", Tier: 0, Requirements: map[string]interface{}{"points_minimum": 1}},
	}}

	result, err := Apply(ctx, svc, c, nil)

	assert.ErrorIs(t, err, reward.ErrInvalidDefinition)
	assert.Equal(t, Result{}, result)
}

package reward_test

import (
	"testing"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/reward"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnlockEvent_Achievement(t *testing.T) {
	// Arrange
	userID := user.NewUserID()
	d := achievement(t, "First Purchase", map[string]interface{}{"transaction_count": 1})
	rec, err := reward.NewUnlockRecord(userID, d)
	require.NoError(t, err)

	// Act
	ev := reward.NewUnlockEvent(rec, d)
	payload, err := ev.Payload()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, reward.EventTypeAchievementUnlocked, ev.EventType())
	assert.Equal(t, reward.KindAchievement, ev.Kind())
	assert.Equal(t, userID.String(), ev.AggregateID())
	assert.Equal(t, rec.UnlockedAt(), ev.OccurredAt())
	assert.NotEmpty(t, ev.EventID())
	assert.JSONEq(t, `{
		"user_id": "`+userID.String()+`",
		"achievement_id": "`+d.ID().String()+`",
		"name": "First Purchase",
		"description": "First Purchase description",
		"badge_icon": "trophy"
	}`, string(payload))
}

func TestNewUnlockEvent_Badge(t *testing.T) {
	// Arrange
	userID := user.NewUserID()
	d := badge(t, "Gold Member", 3, map[string]interface{}{"points_minimum": 10000})
	rec, err := reward.NewUnlockRecord(userID, d)
	require.NoError(t, err)

	// Act
	ev := reward.NewUnlockEvent(rec, d)
	payload, err := ev.Payload()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, reward.EventTypeBadgeUnlocked, ev.EventType())
	assert.True(t, ev.DefinitionID().Equals(d.ID()))
	assert.JSONEq(t, `{
		"user_id": "`+userID.String()+`",
		"badge_id": "`+d.ID().String()+`",
		"name": "Gold Member",
		"tier": 3,
		"icon": "Gold Member-icon"
	}`, string(payload))
}

func TestNewUnlockEvent_PayloadIsSnapshot(t *testing.T) {
	d := achievement(t, "Snapshot", map[string]interface{}{"transaction_count": 1})
	rec, err := reward.NewUnlockRecord(user.NewUserID(), d)
	require.NoError(t, err)
	ev := reward.NewUnlockEvent(rec, d)

	d.Deactivate()

	payload, err := ev.Payload()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"name":"Snapshot"`)
}

func TestNewUnlockRecord_EmptyUser_ReturnsError(t *testing.T) {
	d := achievement(t, "a", map[string]interface{}{"transaction_count": 1})

	_, err := reward.NewUnlockRecord(user.UserID{}, d)

	assert.ErrorIs(t, err, user.ErrInvalidUserID)
}
